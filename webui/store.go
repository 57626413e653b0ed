// ABOUTME: In-memory session store with TTL cleanup and capacity limits.
// ABOUTME: Owns per-session build directories; eviction cancels runs and removes files.
package webui

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/2389-research/sketchtex/generate"
	"github.com/2389-research/sketchtex/render"
	"github.com/2389-research/sketchtex/store"
)

// Store is a thread-safe registry of active sessions.
type Store struct {
	mu          sync.RWMutex
	sessions    map[string]*Session
	buildRoot   string
	archive     *store.Archive // optional
	maxSessions int
	ttl         time.Duration
	renderTTL   time.Duration
}

// NewStore creates a session store rooting per-session build dirs under
// buildRoot. archive may be nil to disable history; maxSessions <= 0 means
// no capacity cap.
func NewStore(buildRoot string, archive *store.Archive, maxSessions int, ttl time.Duration) *Store {
	return &Store{
		sessions:    make(map[string]*Session),
		buildRoot:   buildRoot,
		archive:     archive,
		maxSessions: maxSessions,
		ttl:         ttl,
		renderTTL:   ttl,
	}
}

// Create creates a new session with its own build directory and renderer.
func (s *Store) Create() (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.maxSessions > 0 && len(s.sessions) >= s.maxSessions {
		// Evict the least recently used session.
		var oldestID string
		var oldestTime time.Time
		for id, sess := range s.sessions {
			if oldestTime.IsZero() || sess.LastAccess.Before(oldestTime) {
				oldestID = id
				oldestTime = sess.LastAccess
			}
		}
		s.sessions[oldestID].shutdown()
		delete(s.sessions, oldestID)
	}

	id := uuid.New().String()
	buildDir := filepath.Join(s.buildRoot, id)
	if err := os.MkdirAll(buildDir, 0755); err != nil {
		return nil, fmt.Errorf("creating session build dir: %w", err)
	}

	now := time.Now()
	sess := &Session{
		ID:         id,
		CreatedAt:  now,
		LastAccess: now,
		BuildDir:   buildDir,
		renderer:   render.NewCache(render.NewPDFRenderer(buildDir), s.renderTTL),
		archive:    s.archive,
		flight:     generate.NewSingleFlight(),
	}

	s.sessions[id] = sess
	return sess, nil
}

// Get retrieves a session by ID and refreshes its LastAccess time.
func (s *Store) Get(id string) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, false
	}

	sess.LastAccess = time.Now()
	return sess, true
}

// Delete removes a session, cancelling its run and deleting its build dir.
func (s *Store) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return false
	}
	sess.shutdown()
	delete(s.sessions, id)
	return true
}

// Len returns the number of active sessions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Cleanup removes sessions idle longer than the TTL.
func (s *Store) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := time.Now().Add(-s.ttl)
	for id, sess := range s.sessions {
		if sess.LastAccess.Before(cutoff) {
			sess.shutdown()
			delete(s.sessions, id)
		}
	}
}

// StartCleanup starts a background cleanup goroutine and returns a stop function.
func (s *Store) StartCleanup(interval time.Duration) func() {
	ticker := time.NewTicker(interval)
	done := make(chan struct{})

	go func() {
		for {
			select {
			case <-ticker.C:
				s.Cleanup()
			case <-done:
				ticker.Stop()
				return
			}
		}
	}()

	return func() {
		close(done)
	}
}
