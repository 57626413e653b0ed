// ABOUTME: Deduplicating, score-ranked accumulator for generated TikZ candidates.
// ABOUTME: Lazily renders accepted candidates and tracks duplicate/discard counts for telemetry.
package outputs

import (
	"context"
	"errors"
	"sort"

	"github.com/2389-research/sketchtex/render"
	"github.com/2389-research/sketchtex/tikz"
)

// Notifier receives user-facing signals from Add. Renderer failures never
// escape Add as errors; they are translated into these notifications instead.
type Notifier interface {
	// Discard reports a candidate rejected because it has no renderable output.
	Discard(msg string)
	// Warn reports a quality signal on an accepted candidate.
	Warn(msg string)
}

// NopNotifier drops all notifications.
type NopNotifier struct{}

func (NopNotifier) Discard(string) {}
func (NopNotifier) Warn(string)    {}

// entryKey identifies a scored entry. Uniqueness is on the (score, document)
// pair: the same document at two different scores is two distinct entries.
type entryKey struct {
	score float64
	doc   string
}

// RankedImage pairs a rendering (possibly absent for degenerate results) with
// the candidate's 1-based rank as an ordinal label ("1st", "2nd", ...).
type RankedImage struct {
	Rendering *render.Rendering
	Label     string
}

// RankedOutputSet accumulates (score, document) pairs produced by a
// generation run. It deduplicates on the pair, renders each newly accepted
// document exactly once, and exposes score-descending views for display.
//
// The set is append-only for the lifetime of a request and is not internally
// locked: the owning session must serialize Add against reads.
type RankedOutputSet struct {
	renderer render.Renderer
	notify   Notifier

	entries map[entryKey]tikz.Document
	renders map[string]*render.Rendering // document key -> rendering, successful renders only
	fails   int
}

// New creates an empty RankedOutputSet rendering through the given renderer.
// A nil notifier drops all signals.
func New(renderer render.Renderer, notify Notifier) *RankedOutputSet {
	if notify == nil {
		notify = NopNotifier{}
	}
	return &RankedOutputSet{
		renderer: renderer,
		notify:   notify,
		entries:  make(map[entryKey]tikz.Document),
		renders:  make(map[string]*render.Rendering),
	}
}

// Add offers a scored candidate to the set.
//
// Duplicates of an existing (score, document) pair are dropped, and
// unrenderable documents are discarded with a notification. Both outcomes
// count toward the failure tally, but only once the set already holds at
// least one accepted entry: the early noise before any candidate has
// succeeded is deliberately not penalized.
//
// Renderer failures are fully absorbed; Add never returns an error.
func (s *RankedOutputSet) Add(ctx context.Context, score float64, doc tikz.Document) {
	key := entryKey{score: score, doc: doc.Key()}
	if _, dup := s.entries[key]; dup {
		if len(s.entries) > 0 {
			s.fails++
		}
		return
	}

	rendering, err := s.renderer.Render(ctx, doc)
	if err != nil {
		if errors.Is(err, render.ErrUnrenderable) {
			s.notify.Discard("TikZ code did not compile, discarding output")
		} else {
			s.notify.Discard("rendering failed, discarding output: " + err.Error())
		}
		if len(s.entries) > 0 {
			s.fails++
		}
		return
	}

	for _, w := range rendering.Warnings {
		s.notify.Warn(w)
	}

	s.entries[key] = doc
	if rendering.Path != "" {
		s.renders[doc.Key()] = rendering
	}
}

// Len returns the number of accepted entries.
func (s *RankedOutputSet) Len() int {
	return len(s.entries)
}

// FailureCount returns the number of duplicate-or-discarded add attempts
// counted since the first accepted entry.
func (s *RankedOutputSet) FailureCount() int {
	return s.fails
}

// FirstSuccess reports whether exactly one entry has ever been accepted and
// no failures have been counted: the "first candidate succeeded cleanly"
// signal.
func (s *RankedOutputSet) FirstSuccess() bool {
	return len(s.entries) == 1 && s.fails == 0
}

// Programs returns the source code of all accepted candidates ordered by
// score descending. The ordering is shared with Images so ordinal labels
// stay aligned across the two views.
func (s *RankedOutputSet) Programs() []string {
	ranked := s.sortedEntries()
	programs := make([]string, len(ranked))
	for i, key := range ranked {
		programs[i] = s.entries[key].Code
	}
	return programs
}

// Images returns the renderings of all accepted candidates, in the same
// order as Programs, each labeled with its 1-based rank as an ordinal.
// Candidates accepted without a visual form carry a nil Rendering.
func (s *RankedOutputSet) Images() []RankedImage {
	ranked := s.sortedEntries()
	images := make([]RankedImage, len(ranked))
	for i, key := range ranked {
		images[i] = RankedImage{
			Rendering: s.renders[key.doc],
			Label:     Ordinal(i + 1),
		}
	}
	return images
}

// RenderingFor returns the rendering recorded for doc, or nil when the
// document was accepted without a visual form or never accepted.
func (s *RankedOutputSet) RenderingFor(doc tikz.Document) *render.Rendering {
	return s.renders[doc.Key()]
}

// sortedEntries returns entry keys ordered by score descending. Ties are
// broken by document key so Programs and Images always agree on order.
func (s *RankedOutputSet) sortedEntries() []entryKey {
	keys := make([]entryKey, 0, len(s.entries))
	for key := range s.entries {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].score != keys[j].score {
			return keys[i].score > keys[j].score
		}
		return keys[i].doc < keys[j].doc
	})
	return keys
}
