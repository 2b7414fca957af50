package atspi

// AT-SPI state bits this tool cares about, matching the protocol's
// StateType enumeration.
const (
	StateShowing uint = 25
	StateVisible uint = 30
)

// StateSet is the two-word bitfield returned by Accessible.GetState.
type StateSet [2]uint32

// NewStateSet builds a StateSet from the raw words on the wire. Extra
// words are ignored, missing words read as zero.
func NewStateSet(words []uint32) StateSet {
	var s StateSet
	for i := 0; i < len(s) && i < len(words); i++ {
		s[i] = words[i]
	}
	return s
}

// Contains reports whether the given state bit is set.
func (s StateSet) Contains(state uint) bool {
	word := state / 32
	if word >= uint(len(s)) {
		return false
	}
	return s[word]&(1<<(state%32)) != 0
}

// Showing reports whether the element is showing on screen right now.
// Distinct from Visible, which only means "could be shown".
func (s StateSet) Showing() bool {
	return s.Contains(StateShowing)
}
