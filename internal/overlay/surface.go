// Package overlay paints highlight markers on a transparent,
// click-through surface layered above all other windows.
package overlay

import (
	"context"
	"image"

	"github.com/C-Loftus/atspi-tree-visualizer/internal/model"
)

// Surface is the overlay drawing surface. Implementations provide a
// full-screen, transparent, undecorated, click-through window; the x11
// subpackage is the real one, tests use an in-memory fake.
type Surface interface {
	// Bounds is the drawable area in screen coordinates.
	Bounds() image.Rectangle

	// Raise reasserts the surface above all other windows. Idempotent;
	// the render loop calls it every frame to survive window-manager
	// interference.
	Raise() error

	// RequestFrame schedules another invocation of the frame callback.
	// Non-blocking; requests coalesce.
	RequestFrame()

	// Run presents frames until ctx ends. The canvas passed to frame is
	// cleared to fully transparent before each invocation and presented
	// after it returns.
	Run(ctx context.Context, frame func(canvas *image.RGBA)) error

	Close() error
}

// Probe resolves one element's current on-screen geometry. Stateless;
// *atspi.Session satisfies it.
type Probe interface {
	Extents(ctx context.Context, ref model.ElementRef) (model.BoundingBox, error)
}
