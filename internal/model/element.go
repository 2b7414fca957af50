package model

import "fmt"

// ElementRef is an opaque handle identifying one node in the remote
// accessibility tree: the bus name of the owning application plus the
// object path of the node. Immutable and comparable for identity.
type ElementRef struct {
	Sender string `yaml:"sender" json:"sender"`
	Path   string `yaml:"path"   json:"path"`
}

// IsZero reports whether the ref is the zero value, which never names a
// real element.
func (r ElementRef) IsZero() bool {
	return r.Sender == "" && r.Path == ""
}

func (r ElementRef) String() string {
	return fmt.Sprintf("%s%s", r.Sender, r.Path)
}

// BoundingBox is an element's screen-space extents in pixels.
type BoundingBox struct {
	X      int32 `yaml:"x"      json:"x"`
	Y      int32 `yaml:"y"      json:"y"`
	Width  int32 `yaml:"width"  json:"width"`
	Height int32 `yaml:"height" json:"height"`
}

// HighlightSet is the ordered result of one completed tree walk: every
// element the overlay should mark. A new set replaces the previous one
// wholesale; sets are never merged.
type HighlightSet []ElementRef

// Element is one visible element in snapshot output.
type Element struct {
	Role   string `yaml:"role"           json:"role"`
	Name   string `yaml:"name,omitempty" json:"name,omitempty"`
	Bounds [4]int `yaml:"bounds"         json:"bounds"` // [x, y, width, height]
}
