// Package listener reacts to accessibility tree-lifecycle events by
// spawning tree walks and forwarding their results to the highlight
// inbox.
package listener

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/C-Loftus/atspi-tree-visualizer/internal/atspi"
	"github.com/C-Loftus/atspi-tree-visualizer/internal/highlight"
	"github.com/C-Loftus/atspi-tree-visualizer/internal/model"
)

// Walker runs one traversal. *walker.Walker satisfies it.
type Walker interface {
	Walk(ctx context.Context, root model.ElementRef) (model.HighlightSet, error)
}

// walkHandle identifies one in-flight traversal in the registry.
type walkHandle struct {
	cancel context.CancelFunc
}

// Listener consumes the event stream for the lifetime of the process.
// Each document load-complete event starts an independent walk; walks
// for distinct roots run concurrently and unordered. A newer event for a
// root that already has a walk in flight cancels the stale walk first,
// so same-root refreshes cannot race each other at the inbox.
type Listener struct {
	events <-chan atspi.Event
	walker Walker
	inbox  *highlight.Inbox
	log    *slog.Logger

	mu       sync.Mutex
	inflight map[model.ElementRef]*walkHandle
	wg       sync.WaitGroup
}

func New(events <-chan atspi.Event, w Walker, inbox *highlight.Inbox, log *slog.Logger) *Listener {
	return &Listener{
		events:   events,
		walker:   w,
		inbox:    inbox,
		log:      log,
		inflight: make(map[model.ElementRef]*walkHandle),
	}
}

// Run loops over the event stream until it closes or ctx is cancelled.
// Event handling failures never terminate the loop; they drop that
// event's contribution and continue.
func (l *Listener) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-l.events:
			if !ok {
				l.log.Info("event stream closed")
				return nil
			}
			if ev.Kind != atspi.EventDocumentLoadComplete {
				l.log.Debug("ignoring event", "kind", ev.Kind, "ref", ev.Target.String())
				continue
			}
			if ev.Target.IsZero() {
				l.log.Warn("dropping event with no target", "kind", ev.Kind)
				continue
			}
			l.startWalk(ctx, ev.Target)
		}
	}
}

// Wait blocks until all spawned walks have finished. Call after Run
// returns.
func (l *Listener) Wait() {
	l.wg.Wait()
}

func (l *Listener) startWalk(ctx context.Context, root model.ElementRef) {
	walkCtx, cancel := context.WithCancel(ctx)
	handle := &walkHandle{cancel: cancel}

	l.mu.Lock()
	if stale, ok := l.inflight[root]; ok {
		l.log.Debug("superseding in-flight walk", "root", root.String())
		stale.cancel()
	}
	l.inflight[root] = handle
	l.mu.Unlock()

	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		defer cancel()
		defer func() {
			l.mu.Lock()
			if l.inflight[root] == handle {
				delete(l.inflight, root)
			}
			l.mu.Unlock()
		}()

		set, err := l.walker.Walk(walkCtx, root)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				l.log.Debug("walk superseded", "root", root.String())
			} else {
				l.log.Warn("walk failed", "root", root.String(), "error", err)
			}
			return
		}
		l.log.Debug("walk delivered", "root", root.String(), "elements", len(set))
		l.inbox.Push(set)
	}()
}
