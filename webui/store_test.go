// ABOUTME: Tests for the session store: lifecycle, LRU eviction, and TTL cleanup.
package webui

import (
	"os"
	"testing"
	"time"
)

func newTestStore(t *testing.T, maxSessions int, ttl time.Duration) *Store {
	t.Helper()
	return NewStore(t.TempDir(), nil, maxSessions, ttl)
}

func TestStoreCreateAndGet(t *testing.T) {
	st := newTestStore(t, 10, time.Hour)

	sess, err := st.Create()
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if sess.ID == "" {
		t.Fatal("session ID is empty")
	}
	if _, err := os.Stat(sess.BuildDir); err != nil {
		t.Errorf("build dir not created: %v", err)
	}

	got, ok := st.Get(sess.ID)
	if !ok {
		t.Fatal("Get() did not find created session")
	}
	if got != sess {
		t.Error("Get() returned a different session")
	}
	if st.Len() != 1 {
		t.Errorf("Len() = %d, want 1", st.Len())
	}
}

func TestStoreGetMissing(t *testing.T) {
	st := newTestStore(t, 10, time.Hour)
	if _, ok := st.Get("nope"); ok {
		t.Error("Get() found a session that was never created")
	}
}

func TestStoreGetRefreshesLastAccess(t *testing.T) {
	st := newTestStore(t, 10, time.Hour)
	sess, err := st.Create()
	if err != nil {
		t.Fatal(err)
	}

	sess.LastAccess = time.Now().Add(-time.Hour)
	st.Get(sess.ID)

	if time.Since(sess.LastAccess) > time.Minute {
		t.Error("Get() did not refresh LastAccess")
	}
}

func TestStoreDelete(t *testing.T) {
	st := newTestStore(t, 10, time.Hour)
	sess, err := st.Create()
	if err != nil {
		t.Fatal(err)
	}

	if !st.Delete(sess.ID) {
		t.Fatal("Delete() = false for existing session")
	}
	if _, ok := st.Get(sess.ID); ok {
		t.Error("session still retrievable after delete")
	}
	if _, err := os.Stat(sess.BuildDir); !os.IsNotExist(err) {
		t.Errorf("build dir still exists after delete: %v", err)
	}

	if st.Delete(sess.ID) {
		t.Error("Delete() = true for already-deleted session")
	}
}

func TestStoreEvictsOldestAtCapacity(t *testing.T) {
	st := newTestStore(t, 2, time.Hour)

	oldest, err := st.Create()
	if err != nil {
		t.Fatal(err)
	}
	if _, err := st.Create(); err != nil {
		t.Fatal(err)
	}
	oldest.LastAccess = time.Now().Add(-time.Minute)

	if _, err := st.Create(); err != nil {
		t.Fatal(err)
	}

	if st.Len() != 2 {
		t.Errorf("Len() = %d, want 2 after eviction", st.Len())
	}
	if _, ok := st.Get(oldest.ID); ok {
		t.Error("least recently used session survived eviction")
	}
	if _, err := os.Stat(oldest.BuildDir); !os.IsNotExist(err) {
		t.Error("evicted session's build dir was not removed")
	}
}

func TestStoreUncappedNeverEvicts(t *testing.T) {
	st := newTestStore(t, 0, time.Hour)

	for i := 0; i < 3; i++ {
		if _, err := st.Create(); err != nil {
			t.Fatalf("Create() #%d error = %v", i, err)
		}
	}
	if st.Len() != 3 {
		t.Errorf("Len() = %d, want 3 with no capacity cap", st.Len())
	}
}

func TestStoreCleanupExpiresIdleSessions(t *testing.T) {
	st := newTestStore(t, 10, time.Minute)

	stale, err := st.Create()
	if err != nil {
		t.Fatal(err)
	}
	fresh, err := st.Create()
	if err != nil {
		t.Fatal(err)
	}
	stale.LastAccess = time.Now().Add(-2 * time.Minute)

	st.Cleanup()

	if _, ok := st.Get(stale.ID); ok {
		t.Error("stale session survived cleanup")
	}
	if _, ok := st.Get(fresh.ID); !ok {
		t.Error("fresh session was cleaned up")
	}
}

func TestStoreStartCleanup(t *testing.T) {
	st := newTestStore(t, 10, time.Millisecond)

	sess, err := st.Create()
	if err != nil {
		t.Fatal(err)
	}
	sess.LastAccess = time.Now().Add(-time.Minute)

	stop := st.StartCleanup(5 * time.Millisecond)
	defer stop()

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if st.Len() == 0 {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("background cleanup never removed the expired session")
}
