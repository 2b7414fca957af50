package atspi

import "testing"

func TestStateSet_Showing(t *testing.T) {
	showing := NewStateSet([]uint32{1 << StateShowing, 0})
	if !showing.Showing() {
		t.Error("state set with bit 25 should report showing")
	}

	// Visible alone is not enough: it means "could be shown", not
	// "showing on screen now".
	visible := NewStateSet([]uint32{1 << StateVisible, 0})
	if visible.Showing() {
		t.Error("visible-only state set should not report showing")
	}

	if (StateSet{}).Showing() {
		t.Error("empty state set should not report showing")
	}
}

func TestNewStateSet_ShortAndLongInput(t *testing.T) {
	if NewStateSet(nil).Showing() {
		t.Error("nil words should decode to the empty set")
	}
	// Extra words beyond the protocol's two are ignored.
	s := NewStateSet([]uint32{1 << StateShowing, 0, 0xffffffff})
	if !s.Showing() {
		t.Error("extra trailing words should not affect decoding")
	}
}

func TestStateSet_ContainsHighWord(t *testing.T) {
	s := NewStateSet([]uint32{0, 1 << (33 - 32)})
	if !s.Contains(33) {
		t.Error("bit 33 lives in the second word")
	}
	if s.Contains(1) {
		t.Error("bit 1 should be clear")
	}
	if s.Contains(64) {
		t.Error("out-of-range bits are never set")
	}
}

func TestKindFromSignal(t *testing.T) {
	cases := []struct {
		name string
		want string
	}{
		{"org.a11y.atspi.Event.Document.LoadComplete", "document:load-complete"},
		{"org.a11y.atspi.Event.Document.Reload", "document:reload"},
		{"org.a11y.atspi.Event.Document.LoadStopped", "document:load-stopped"},
	}
	for _, c := range cases {
		if got := kindFromSignal(c.name); got != c.want {
			t.Errorf("kindFromSignal(%q) = %q, want %q", c.name, got, c.want)
		}
	}
}
