// Package highlight carries completed walk results from the event
// listener's spawned traversals to the render loop.
package highlight

import (
	"sync"

	"github.com/C-Loftus/atspi-tree-visualizer/internal/model"
)

// Inbox is an unbounded many-producer, single-consumer hand-off channel
// for highlight sets. Producers push once per completed walk; the render
// loop polls once per frame and must never block on it. Production is
// rare (one push per document load) relative to the render cadence, so
// no backpressure is applied.
type Inbox struct {
	mu      sync.Mutex
	pending []model.HighlightSet
}

func NewInbox() *Inbox {
	return &Inbox{}
}

// Push delivers a walk result. Ownership of the set transfers to the
// inbox; the producer must not retain it.
func (in *Inbox) Push(set model.HighlightSet) {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.pending = append(in.pending, set)
}

// Poll returns the most recent delivery since the last poll, without
// blocking. Older queued deliveries are discarded: only the newest one
// could win anyway. Returns ok=false when nothing arrived.
func (in *Inbox) Poll() (model.HighlightSet, bool) {
	in.mu.Lock()
	defer in.mu.Unlock()
	if len(in.pending) == 0 {
		return nil, false
	}
	latest := in.pending[len(in.pending)-1]
	in.pending = nil
	return latest, true
}
