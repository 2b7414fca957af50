package highlight

import (
	"sync"
	"testing"

	"github.com/C-Loftus/atspi-tree-visualizer/internal/model"
)

func ref(path string) model.ElementRef {
	return model.ElementRef{Sender: ":1.7", Path: path}
}

func TestInbox_PollEmpty(t *testing.T) {
	in := NewInbox()
	if set, ok := in.Poll(); ok || set != nil {
		t.Errorf("poll of empty inbox should return nothing, got %v %v", set, ok)
	}
}

func TestInbox_PushThenPoll(t *testing.T) {
	in := NewInbox()
	in.Push(model.HighlightSet{ref("/a")})

	set, ok := in.Poll()
	if !ok || len(set) != 1 || set[0] != ref("/a") {
		t.Fatalf("got %v %v", set, ok)
	}

	// A poll consumes: nothing left afterwards.
	if _, ok := in.Poll(); ok {
		t.Error("second poll should find nothing")
	}
}

func TestInbox_PollReturnsMostRecentDelivery(t *testing.T) {
	in := NewInbox()
	in.Push(model.HighlightSet{ref("/old")})
	in.Push(model.HighlightSet{ref("/new")})

	set, ok := in.Poll()
	if !ok || len(set) != 1 || set[0] != ref("/new") {
		t.Fatalf("most recent delivery should win, got %v", set)
	}
}

func TestInbox_EmptySetIsDelivered(t *testing.T) {
	// The inbox does not interpret deliveries; ignoring empty sets is the
	// render loop's rule.
	in := NewInbox()
	in.Push(model.HighlightSet{})
	set, ok := in.Poll()
	if !ok {
		t.Fatal("empty set should still be delivered")
	}
	if len(set) != 0 {
		t.Fatalf("got %v", set)
	}
}

func TestInbox_ConcurrentProducers(t *testing.T) {
	in := NewInbox()
	var wg sync.WaitGroup
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			in.Push(model.HighlightSet{ref("/x")})
		}()
	}
	wg.Wait()

	set, ok := in.Poll()
	if !ok || len(set) != 1 {
		t.Fatalf("expected one surviving delivery, got %v %v", set, ok)
	}
}
