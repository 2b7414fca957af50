package walker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/C-Loftus/atspi-tree-visualizer/internal/model"
)

func ref(path string) model.ElementRef {
	return model.ElementRef{Sender: ":1.7", Path: path}
}

// fakeResolver serves an in-memory tree keyed by object path.
type fakeResolver struct {
	children  map[string][]model.ElementRef
	showing   map[string]bool
	childErr  map[string]error
	stateErr  map[string]error
	stateCall int
}

func (f *fakeResolver) Children(_ context.Context, r model.ElementRef) ([]model.ElementRef, error) {
	if err := f.childErr[r.Path]; err != nil {
		return nil, err
	}
	return f.children[r.Path], nil
}

func (f *fakeResolver) Showing(_ context.Context, r model.ElementRef) (bool, error) {
	f.stateCall++
	if err := f.stateErr[r.Path]; err != nil {
		return false, err
	}
	return f.showing[r.Path], nil
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func asSet(hs model.HighlightSet) map[model.ElementRef]bool {
	set := make(map[model.ElementRef]bool, len(hs))
	for _, r := range hs {
		set[r] = true
	}
	return set
}

// Root R has children A (showing) and B (not showing); B has child C
// (showing). The result must be exactly {A, C}: B is excluded on its own
// state, but its subtree is still explored.
func TestWalk_CollectsShowingDescendants(t *testing.T) {
	res := &fakeResolver{
		children: map[string][]model.ElementRef{
			"/r": {ref("/a"), ref("/b")},
			"/b": {ref("/c")},
		},
		showing: map[string]bool{"/a": true, "/b": false, "/c": true},
	}

	got, err := New(res, discard()).Walk(context.Background(), ref("/r"))
	if err != nil {
		t.Fatal(err)
	}

	want := asSet(model.HighlightSet{ref("/a"), ref("/c")})
	if len(got) != len(want) {
		t.Fatalf("collected %d elements, want %d: %v", len(got), len(want), got)
	}
	for r := range want {
		if !asSet(got)[r] {
			t.Errorf("missing %s from result", r)
		}
	}
}

func TestWalk_ResultIsVisibilitySetRegardlessOfShape(t *testing.T) {
	// A wide tree and a deep tree containing the same showing nodes must
	// produce the same result set.
	wide := &fakeResolver{
		children: map[string][]model.ElementRef{
			"/r": {ref("/1"), ref("/2"), ref("/3")},
		},
		showing: map[string]bool{"/1": true, "/3": true},
	}
	deep := &fakeResolver{
		children: map[string][]model.ElementRef{
			"/r": {ref("/1")},
			"/1": {ref("/2")},
			"/2": {ref("/3")},
		},
		showing: map[string]bool{"/1": true, "/3": true},
	}

	w := New(wide, discard())
	gotWide, err := w.Walk(context.Background(), ref("/r"))
	if err != nil {
		t.Fatal(err)
	}
	gotDeep, err := New(deep, discard()).Walk(context.Background(), ref("/r"))
	if err != nil {
		t.Fatal(err)
	}

	if len(gotWide) != 2 || len(gotDeep) != 2 {
		t.Fatalf("want 2 elements from both walks, got %d and %d", len(gotWide), len(gotDeep))
	}
	for r := range asSet(gotWide) {
		if !asSet(gotDeep)[r] {
			t.Errorf("tree shape changed the result set: %s missing from deep walk", r)
		}
	}
}

func TestWalk_DeepChainTerminates(t *testing.T) {
	// A pathological 50k-deep chain must finish on the explicit stack.
	const depth = 50000
	res := &fakeResolver{
		children: make(map[string][]model.ElementRef, depth),
		showing:  make(map[string]bool, depth),
	}
	parent := "/r"
	for i := 0; i < depth; i++ {
		child := fmt.Sprintf("/n%d", i)
		res.children[parent] = []model.ElementRef{ref(child)}
		res.showing[child] = true
		parent = child
	}

	got, err := New(res, discard()).Walk(context.Background(), ref("/r"))
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != depth {
		t.Errorf("collected %d elements, want %d", len(got), depth)
	}
}

func TestWalk_RootFailureFailsWalk(t *testing.T) {
	boom := errors.New("defunct")
	res := &fakeResolver{
		childErr: map[string]error{"/r": boom},
	}
	_, err := New(res, discard()).Walk(context.Background(), ref("/r"))
	if !errors.Is(err, boom) {
		t.Fatalf("want root failure propagated, got %v", err)
	}
}

func TestWalk_PerNodeFailureSkipsOnlyThatSubtree(t *testing.T) {
	res := &fakeResolver{
		children: map[string][]model.ElementRef{
			"/r": {ref("/a"), ref("/b")},
			"/b": {ref("/c")},
		},
		showing:  map[string]bool{"/a": true, "/b": true, "/c": true},
		childErr: map[string]error{"/b": errors.New("gone")},
	}

	got, err := New(res, discard()).Walk(context.Background(), ref("/r"))
	if err != nil {
		t.Fatal(err)
	}
	set := asSet(got)
	if !set[ref("/a")] || !set[ref("/b")] {
		t.Errorf("a and b should survive b's children failure, got %v", got)
	}
	if set[ref("/c")] {
		t.Error("c is unreachable once b's children query fails")
	}
}

func TestWalk_StateFailureExcludesElementButDescends(t *testing.T) {
	res := &fakeResolver{
		children: map[string][]model.ElementRef{
			"/r": {ref("/a")},
			"/a": {ref("/c")},
		},
		showing:  map[string]bool{"/c": true},
		stateErr: map[string]error{"/a": errors.New("timeout")},
	}

	got, err := New(res, discard()).Walk(context.Background(), ref("/r"))
	if err != nil {
		t.Fatal(err)
	}
	set := asSet(got)
	if set[ref("/a")] {
		t.Error("a's state is unknown, it must not be collected")
	}
	if !set[ref("/c")] {
		t.Error("a's children must still be explored")
	}
}

func TestWalk_CancelledContextAborts(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := &fakeResolver{
		children: map[string][]model.ElementRef{"/r": {ref("/a")}},
	}
	_, err := New(res, discard()).Walk(ctx, ref("/r"))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("want context.Canceled, got %v", err)
	}
}

func TestWalk_EmptyTree(t *testing.T) {
	res := &fakeResolver{}
	got, err := New(res, discard()).Walk(context.Background(), ref("/r"))
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Errorf("want empty result for childless root, got %v", got)
	}
	if res.stateCall != 0 {
		t.Errorf("no state queries expected for childless root, got %d", res.stateCall)
	}
}
