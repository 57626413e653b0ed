// ABOUTME: Single-flight supervisor ensuring at most one candidate production run is consumed at a time.
// ABOUTME: A new Generate call cancels an idle stale run; one racing an in-flight step is dropped.
package generate

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/2389-research/sketchtex/tikz"
)

// Result is one scored candidate yielded by a production run. A Result
// carrying a non-nil Err ends the run in the Failed state.
type Result struct {
	Score float64
	Doc   tikz.Document
	Err   error
}

// Producer starts a production run and returns its result stream. The
// producer must check the context at each production step and close the
// channel when it is exhausted or cancelled; closing must be safe regardless
// of how far consumption got.
type Producer func(ctx context.Context) <-chan Result

// HandleState is the lifecycle state of a production run handle.
type HandleState int32

const (
	StateIdle HandleState = iota
	StateRunning
	StateExhausted
	StateCanceled
	StateFailed
)

// String returns the lowercase name of the state.
func (s HandleState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateExhausted:
		return "exhausted"
	case StateCanceled:
		return "canceled"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Handle tracks one production run: its cancellation token, lifecycle state,
// and whether a step is currently being delivered to the consumer.
type Handle struct {
	cancel   context.CancelFunc
	state    atomic.Int32
	stepping atomic.Bool
}

// State returns the handle's current lifecycle state.
func (h *Handle) State() HandleState {
	return HandleState(h.state.Load())
}

// IsRunning reports whether the run has started and not yet finished.
func (h *Handle) IsRunning() bool {
	return h.State() == StateRunning
}

// MidStep reports whether a result is currently being delivered to the
// consumer. A handle that is mid-step must not be superseded.
func (h *Handle) MidStep() bool {
	return h.stepping.Load()
}

// Cancel requests the run to stop and releases its resources. Safe to call
// on a handle that never started, already finished, or was already
// cancelled; partial teardown never propagates errors.
func (h *Handle) Cancel() {
	if h == nil {
		return
	}
	if h.cancel != nil {
		h.cancel()
	}
	h.state.CompareAndSwap(int32(StateRunning), int32(StateCanceled))
	h.state.CompareAndSwap(int32(StateIdle), int32(StateCanceled))
}

// transition moves Running to the given terminal state.
func (h *Handle) transition(to HandleState) {
	h.state.CompareAndSwap(int32(StateRunning), int32(to))
}

// SingleFlight supervises a single production slot: at most one run is ever
// actively consumed, and a new Generate call supersedes a stale one. The
// slot is the only shared mutable state; the check-then-act on the current
// handle happens under one mutex so the race policy holds under concurrent
// entry.
type SingleFlight struct {
	mu      sync.Mutex
	current *Handle
}

// NewSingleFlight creates an empty supervisor slot.
func NewSingleFlight() *SingleFlight {
	return &SingleFlight{}
}

// Current returns the handle of the most recent run, or nil before the first
// Generate call. Exposed for observability.
func (g *SingleFlight) Current() *Handle {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.current
}

// Generate starts a new production run and returns its result stream.
//
// If a prior run exists and is idle between steps, it is cancelled before
// the new run is installed. If the prior run is mid-step (a result is being
// delivered right now), this call is dropped: it returns an empty, closed
// stream and leaves the prior run untouched.
//
// Known limitation, preserved deliberately: a legitimate new request that
// races exactly against an in-flight step of the stale run is silently
// dropped rather than queued or force-preempted.
func (g *SingleFlight) Generate(ctx context.Context, producer Producer) <-chan Result {
	g.mu.Lock()
	if cur := g.current; cur != nil {
		if cur.MidStep() {
			g.mu.Unlock()
			out := make(chan Result)
			close(out)
			return out
		}
		cur.Cancel()
	}

	runCtx, cancel := context.WithCancel(ctx)
	h := &Handle{cancel: cancel}
	h.state.Store(int32(StateRunning))
	g.current = h
	g.mu.Unlock()

	src := producer(runCtx)
	out := make(chan Result)

	go func() {
		defer close(out)
		for {
			select {
			case <-runCtx.Done():
				h.transition(StateCanceled)
				return
			case r, ok := <-src:
				if !ok {
					h.transition(StateExhausted)
					return
				}

				h.stepping.Store(true)
				select {
				case out <- r:
				case <-runCtx.Done():
					h.stepping.Store(false)
					h.transition(StateCanceled)
					return
				}
				h.stepping.Store(false)

				if r.Err != nil {
					h.transition(StateFailed)
					return
				}
			}
		}
	}()

	return out
}
