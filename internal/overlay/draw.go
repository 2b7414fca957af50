package overlay

import (
	"image"
	"image/color"
	"image/draw"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/C-Loftus/atspi-tree-visualizer/internal/model"
)

// drawMarker paints a fixed-size filled square anchored at the box's
// top-left corner, clipped to the canvas. An optional label is drawn to
// the marker's right.
func drawMarker(canvas *image.RGBA, box model.BoundingBox, size int, fill color.RGBA, label string) {
	x, y := int(box.X), int(box.Y)
	rect := image.Rect(x, y, x+size, y+size).Intersect(canvas.Bounds())
	if rect.Empty() && label == "" {
		return
	}
	draw.Draw(canvas, rect, image.NewUniform(fill), image.Point{}, draw.Over)

	if label == "" {
		return
	}
	d := font.Drawer{
		Dst:  canvas,
		Src:  image.NewUniform(color.RGBA{R: 255, G: 255, B: 255, A: 255}),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(x+size+2, y+basicfont.Face7x13.Ascent),
	}
	d.DrawString(label)
}
