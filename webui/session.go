// ABOUTME: Session owning one ranked output set per generation request and a single-flight generator slot.
// ABOUTME: Serializes all access to the live set and exposes snapshots for the polling UI.
package webui

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/2389-research/sketchtex/generate"
	"github.com/2389-research/sketchtex/outputs"
	"github.com/2389-research/sketchtex/render"
	"github.com/2389-research/sketchtex/store"
)

// Notice is a user-facing signal surfaced by the generation pipeline:
// a dismissible discard notice or a non-blocking warning. Nothing at this
// layer is fatal.
type Notice struct {
	Kind    string    `json:"kind"` // "discard" or "warning"
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

// ImageView is one ranked rendering for the polling UI. File is the basename
// of the SVG inside the session build dir, empty for candidates accepted
// without a visual form.
type ImageView struct {
	File  string `json:"file"`
	Label string `json:"label"`
}

// Snapshot is the poll response for a session's current generation request.
type Snapshot struct {
	RequestID    string      `json:"requestId"`
	State        string      `json:"state"`
	Programs     []string    `json:"programs"`
	Images       []ImageView `json:"images"`
	FirstSuccess bool        `json:"firstSuccess"`
	Failures     int         `json:"failures"`
	Notices      []Notice    `json:"notices"`
}

// Session is one browser session. It owns a per-session build directory,
// a single-flight generator slot reused across requests, and the ranked
// output set of the current request. The session lock serializes Add against
// snapshot reads; the set itself is not internally locked.
type Session struct {
	mu         sync.Mutex
	ID         string
	CreatedAt  time.Time
	LastAccess time.Time
	BuildDir   string

	renderer render.Renderer
	archive  *store.Archive // optional
	flight   *generate.SingleFlight

	runCtx    context.Context
	stopRuns  context.CancelFunc
	requestID string
	set       *outputs.RankedOutputSet
	notices   []Notice
}

// sessionNotifier adapts the session to outputs.Notifier. Its methods run
// inside Add, which the session only ever calls with the lock held, so they
// append without locking.
type sessionNotifier Session

func (n *sessionNotifier) Discard(msg string) {
	n.notices = append(n.notices, Notice{Kind: "discard", Message: msg, At: time.Now()})
}

func (n *sessionNotifier) Warn(msg string) {
	n.notices = append(n.notices, Notice{Kind: "warning", Message: msg, At: time.Now()})
}

// StartGeneration begins a new generation request: a fresh ranked output set
// replaces the previous one (which is simply discarded), the single-flight
// slot supersedes any stale run, and a consumer goroutine feeds results into
// the set. Returns the new request ID.
//
// The run outlives the HTTP request that started it: it is tied to the
// session's own lifecycle context, canceled only by Cancel, supersede, or
// session shutdown.
func (s *Session) StartGeneration(producer generate.Producer) string {
	s.mu.Lock()
	if s.runCtx == nil {
		s.runCtx, s.stopRuns = context.WithCancel(context.Background())
	}
	ctx := s.runCtx
	s.requestID = store.NewRequestID()
	s.set = outputs.New(s.renderer, (*sessionNotifier)(s))
	s.notices = nil
	requestID := s.requestID
	set := s.set
	s.mu.Unlock()

	stream := s.flight.Generate(ctx, producer)

	go func() {
		for r := range stream {
			s.mu.Lock()
			if s.set != set {
				// Superseded mid-delivery: the stale set was already replaced.
				s.mu.Unlock()
				return
			}
			if r.Err != nil {
				s.notices = append(s.notices, Notice{
					Kind:    "warning",
					Message: "generation stopped: " + r.Err.Error(),
					At:      time.Now(),
				})
				s.mu.Unlock()
				continue
			}

			before := set.Len()
			set.Add(ctx, r.Score, r.Doc)
			accepted := set.Len() > before

			var svgPath string
			if rendering := set.RenderingFor(r.Doc); rendering != nil {
				svgPath = rendering.Path
			}
			s.mu.Unlock()

			if accepted && s.archive != nil {
				if err := s.archive.Record(s.ID, requestID, r.Score, r.Doc.Code, svgPath); err != nil {
					logArchiveError(s.ID, err)
				}
			}
		}
	}()

	return requestID
}

func logArchiveError(sessionID string, err error) {
	log.Printf("archive record failed session=%s err=%v", sessionID, err)
}

// Cancel stops the in-flight generation run, if any.
func (s *Session) Cancel() {
	s.flight.Current().Cancel()
}

// Snapshot returns the current state of the session's generation request for
// the polling UI. Safe to call at any time; before the first request it
// returns an empty snapshot.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{RequestID: s.requestID, State: generate.StateIdle.String()}
	if h := s.flight.Current(); h != nil {
		snap.State = h.State().String()
	}
	if s.set == nil {
		return snap
	}

	snap.Programs = s.set.Programs()
	snap.FirstSuccess = s.set.FirstSuccess()
	snap.Failures = s.set.FailureCount()
	snap.Notices = append([]Notice(nil), s.notices...)

	for _, img := range s.set.Images() {
		view := ImageView{Label: img.Label}
		if img.Rendering != nil {
			view.File = filepath.Base(img.Rendering.Path)
		}
		snap.Images = append(snap.Images, view)
	}
	return snap
}

// shutdown cancels any in-flight run, stops future ones from reusing the
// lifecycle context, and removes the session build directory. Called by the
// store on eviction and expiry.
func (s *Session) shutdown() {
	s.mu.Lock()
	if s.stopRuns != nil {
		s.stopRuns()
	}
	s.mu.Unlock()

	s.Cancel()
	if s.BuildDir != "" {
		os.RemoveAll(s.BuildDir)
	}
}
