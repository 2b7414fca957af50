package atspi

import (
	"context"
	"fmt"
	"strings"

	"github.com/godbus/dbus/v5"

	"github.com/C-Loftus/atspi-tree-visualizer/internal/model"
)

const (
	documentEventInterface = "org.a11y.atspi.Event.Document"

	// EventDocumentLoadComplete is the tree-lifecycle event the pipeline
	// acts on: a document subtree finished loading.
	EventDocumentLoadComplete = "document:load-complete"
)

// Event is one tree-lifecycle notification. Target identifies the subtree
// root the event refers to.
type Event struct {
	Kind   string
	Target model.ElementRef
}

// Subscribe registers interest in document lifecycle events with the
// registry and returns a channel of them. The channel closes when the bus
// signal stream closes or ctx is cancelled; that is the listener's only
// terminal condition.
func (s *Session) Subscribe(ctx context.Context) (<-chan Event, error) {
	registry := s.bus.Object(registryName, dbus.ObjectPath(registryPath))
	call := registry.CallWithContext(ctx, registryInterface+".RegisterEvent", 0, EventDocumentLoadComplete)
	if call.Err != nil {
		return nil, fmt.Errorf("register %s with registry: %w", EventDocumentLoadComplete, call.Err)
	}

	if err := s.bus.AddMatchSignal(dbus.WithMatchInterface(documentEventInterface)); err != nil {
		return nil, fmt.Errorf("add signal match: %w", err)
	}

	signals := make(chan *dbus.Signal, 64)
	s.bus.Signal(signals)

	events := make(chan Event, 16)
	go func() {
		defer close(events)
		for {
			select {
			case <-ctx.Done():
				return
			case sig, ok := <-signals:
				if !ok {
					s.log.Debug("accessibility bus signal stream closed")
					return
				}
				ev := Event{
					Kind:   kindFromSignal(sig.Name),
					Target: model.ElementRef{Sender: sig.Sender, Path: string(sig.Path)},
				}
				select {
				case events <- ev:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return events, nil
}

// kindFromSignal maps a D-Bus signal name like
// "org.a11y.atspi.Event.Document.LoadComplete" to the registry-style
// event kind "document:load-complete".
func kindFromSignal(name string) string {
	member := name
	if i := strings.LastIndex(name, "."); i >= 0 {
		member = name[i+1:]
	}
	var b strings.Builder
	for i, r := range member {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('-')
			}
			b.WriteRune(r + ('a' - 'A'))
		} else {
			b.WriteRune(r)
		}
	}
	return "document:" + b.String()
}
