// ABOUTME: Tests for session generation lifecycle: accumulation, supersede, cancel, snapshots.
package webui

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/2389-research/sketchtex/generate"
	"github.com/2389-research/sketchtex/render"
	"github.com/2389-research/sketchtex/tikz"
)

// stubRenderer classifies documents without touching external tools: a
// document that compiled with errors and has no pages is unrenderable,
// everything else renders to a synthetic path.
type stubRenderer struct{}

func (stubRenderer) Render(_ context.Context, doc tikz.Document) (*render.Rendering, error) {
	if doc.CompiledWithErrors && !doc.Rasterizable() {
		return nil, render.ErrUnrenderable
	}
	return &render.Rendering{Path: filepath.Join("/build", doc.Key()[:8]+".svg")}, nil
}

func newTestSession(t *testing.T) *Session {
	t.Helper()
	return &Session{
		ID:       "test-session",
		BuildDir: t.TempDir(),
		renderer: stubRenderer{},
		flight:   generate.NewSingleFlight(),
	}
}

func scriptedProducer(results ...generate.Result) generate.Producer {
	return func(ctx context.Context) <-chan generate.Result {
		out := make(chan generate.Result)
		go func() {
			defer close(out)
			for _, r := range results {
				select {
				case out <- r:
				case <-ctx.Done():
					return
				}
			}
		}()
		return out
	}
}

func waitForSnapshot(t *testing.T, s *Session, ok func(Snapshot) bool) Snapshot {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	var snap Snapshot
	for time.Now().Before(deadline) {
		snap = s.Snapshot()
		if ok(snap) {
			return snap
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("snapshot condition never met, last snapshot: %+v", snap)
	return snap
}

func TestSnapshotBeforeFirstRequest(t *testing.T) {
	s := newTestSession(t)

	snap := s.Snapshot()
	if snap.RequestID != "" {
		t.Errorf("RequestID = %q, want empty", snap.RequestID)
	}
	if snap.State != "idle" {
		t.Errorf("State = %q, want idle", snap.State)
	}
	if len(snap.Programs) != 0 || len(snap.Images) != 0 {
		t.Error("snapshot carries outputs before any request")
	}
}

func TestStartGenerationAccumulatesRanked(t *testing.T) {
	s := newTestSession(t)

	requestID := s.StartGeneration(scriptedProducer(
		generate.Result{Score: 0.3, Doc: tikz.Document{Code: "low"}},
		generate.Result{Score: 0.9, Doc: tikz.Document{Code: "high"}},
	))
	if len(requestID) != 26 {
		t.Errorf("request ID %q is not a ULID", requestID)
	}

	snap := waitForSnapshot(t, s, func(snap Snapshot) bool {
		return snap.State == "exhausted" && len(snap.Programs) == 2
	})

	if snap.RequestID != requestID {
		t.Errorf("snapshot RequestID = %q, want %q", snap.RequestID, requestID)
	}
	if snap.Programs[0] != "high" || snap.Programs[1] != "low" {
		t.Errorf("Programs = %v, want score-descending [high low]", snap.Programs)
	}
	if len(snap.Images) != 2 {
		t.Fatalf("Images count = %d, want 2", len(snap.Images))
	}
	if snap.Images[0].Label != "1st" || snap.Images[1].Label != "2nd" {
		t.Errorf("image labels = %q, %q", snap.Images[0].Label, snap.Images[1].Label)
	}
	if snap.Images[0].File == "" {
		t.Error("top image has no file")
	}
}

func TestStartGenerationDiscardsUnrenderable(t *testing.T) {
	s := newTestSession(t)

	s.StartGeneration(scriptedProducer(
		generate.Result{Score: 0.5, Doc: tikz.Document{Code: "broken", CompiledWithErrors: true}},
		generate.Result{Score: 0.7, Doc: tikz.Document{Code: "good"}},
	))

	snap := waitForSnapshot(t, s, func(snap Snapshot) bool {
		return snap.State == "exhausted"
	})

	if len(snap.Programs) != 1 || snap.Programs[0] != "good" {
		t.Errorf("Programs = %v, want [good]", snap.Programs)
	}

	var discards int
	for _, n := range snap.Notices {
		if n.Kind == "discard" {
			discards++
		}
	}
	if discards != 1 {
		t.Errorf("discard notices = %d, want 1", discards)
	}

	// The discard happened before any entry was accepted, so it does not
	// count as a failure and the lone accepted entry is a clean first success.
	if snap.Failures != 0 {
		t.Errorf("Failures = %d, want 0", snap.Failures)
	}
	if !snap.FirstSuccess {
		t.Error("FirstSuccess = false, want true")
	}
}

func TestStartGenerationSupersedesPreviousRequest(t *testing.T) {
	s := newTestSession(t)

	gate := make(chan struct{})
	blocked := func(ctx context.Context) <-chan generate.Result {
		out := make(chan generate.Result)
		go func() {
			defer close(out)
			select {
			case <-gate:
			case <-ctx.Done():
				return
			}
			select {
			case out <- generate.Result{Score: 0.1, Doc: tikz.Document{Code: "stale"}}:
			case <-ctx.Done():
			}
		}()
		return out
	}

	first := s.StartGeneration(blocked)
	second := s.StartGeneration(scriptedProducer(
		generate.Result{Score: 0.8, Doc: tikz.Document{Code: "fresh"}},
	))
	close(gate)

	if second == first {
		t.Fatal("second request reused the first request ID")
	}

	snap := waitForSnapshot(t, s, func(snap Snapshot) bool {
		return snap.State == "exhausted" && len(snap.Programs) == 1
	})

	if snap.RequestID != second {
		t.Errorf("RequestID = %q, want %q", snap.RequestID, second)
	}
	if snap.Programs[0] != "fresh" {
		t.Errorf("Programs = %v, want only the superseding request's output", snap.Programs)
	}
}

func TestCancelStopsRun(t *testing.T) {
	s := newTestSession(t)

	s.StartGeneration(func(ctx context.Context) <-chan generate.Result {
		out := make(chan generate.Result)
		go func() {
			defer close(out)
			<-ctx.Done()
		}()
		return out
	})

	waitForSnapshot(t, s, func(snap Snapshot) bool { return snap.State == "running" })
	s.Cancel()
	waitForSnapshot(t, s, func(snap Snapshot) bool { return snap.State == "canceled" })
}

func TestShutdownStopsRun(t *testing.T) {
	s := newTestSession(t)

	s.StartGeneration(func(ctx context.Context) <-chan generate.Result {
		out := make(chan generate.Result)
		go func() {
			defer close(out)
			<-ctx.Done()
		}()
		return out
	})

	waitForSnapshot(t, s, func(snap Snapshot) bool { return snap.State == "running" })
	s.shutdown()
	waitForSnapshot(t, s, func(snap Snapshot) bool { return snap.State == "canceled" })
}

func TestProducerErrorSurfacesAsWarning(t *testing.T) {
	s := newTestSession(t)

	s.StartGeneration(scriptedProducer(
		generate.Result{Err: errors.New("backend unreachable")},
	))

	snap := waitForSnapshot(t, s, func(snap Snapshot) bool {
		return snap.State == "failed" && len(snap.Notices) > 0
	})

	if snap.Notices[0].Kind != "warning" {
		t.Errorf("notice kind = %q, want warning", snap.Notices[0].Kind)
	}
	if want := "generation stopped: backend unreachable"; snap.Notices[0].Message != want {
		t.Errorf("notice message = %q, want %q", snap.Notices[0].Message, want)
	}
}
