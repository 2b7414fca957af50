// Package x11 provides the real overlay surface: a full-screen ARGB
// window with an empty input region, so it is transparent, undecorated,
// and click-through.
package x11

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"time"

	"github.com/jezek/xgb"
	"github.com/jezek/xgb/shape"
	"github.com/jezek/xgb/xfixes"
	"github.com/jezek/xgb/xproto"
)

// putImageRows bounds one PutImage request so a full-screen frame never
// exceeds the X server's maximum request size.
const putImageRows = 64

// Surface is a click-through overlay window on the default X screen.
type Surface struct {
	conn   *xgb.Conn
	win    xproto.Window
	gc     xproto.Gcontext
	depth  byte
	width  uint16
	height uint16

	frames      chan struct{}
	minInterval time.Duration
	log         *slog.Logger
}

// NewSurface connects to the X server and maps the overlay window.
// Failure here is fatal to startup.
func NewSurface(log *slog.Logger) (*Surface, error) {
	conn, err := xgb.NewConn()
	if err != nil {
		return nil, fmt.Errorf("connect to X server: %w", err)
	}
	s := &Surface{
		conn:        conn,
		frames:      make(chan struct{}, 1),
		minInterval: time.Second / 60,
		log:         log,
	}
	if err := s.create(); err != nil {
		conn.Close()
		return nil, err
	}
	return s, nil
}

func (s *Surface) create() error {
	setup := xproto.Setup(s.conn)
	screen := setup.DefaultScreen(s.conn)
	s.width = screen.WidthInPixels
	s.height = screen.HeightInPixels

	visual, ok := findARGBVisual(screen)
	if !ok {
		return fmt.Errorf("no 32-bit ARGB visual on screen (is a compositor running?)")
	}
	s.depth = 32

	if err := xfixes.Init(s.conn); err != nil {
		return fmt.Errorf("xfixes extension unavailable: %w", err)
	}
	if _, err := xfixes.QueryVersion(s.conn, 5, 0).Reply(); err != nil {
		return fmt.Errorf("xfixes version handshake: %w", err)
	}

	cmap, err := xproto.NewColormapId(s.conn)
	if err != nil {
		return fmt.Errorf("allocate colormap id: %w", err)
	}
	if err := xproto.CreateColormapChecked(s.conn, xproto.ColormapAllocNone, cmap, screen.Root, visual).Check(); err != nil {
		return fmt.Errorf("create ARGB colormap: %w", err)
	}

	win, err := xproto.NewWindowId(s.conn)
	if err != nil {
		return fmt.Errorf("allocate window id: %w", err)
	}
	// Override-redirect keeps the window manager from decorating,
	// focusing, or restacking the overlay.
	err = xproto.CreateWindowChecked(s.conn, s.depth, win, screen.Root,
		0, 0, s.width, s.height, 0,
		xproto.WindowClassInputOutput, visual,
		xproto.CwBackPixel|xproto.CwBorderPixel|xproto.CwOverrideRedirect|xproto.CwColormap,
		[]uint32{0, 0, 1, uint32(cmap)}).Check()
	if err != nil {
		return fmt.Errorf("create overlay window: %w", err)
	}
	s.win = win

	// Empty input region: every click falls through to whatever is
	// underneath.
	region, err := xfixes.NewRegionId(s.conn)
	if err != nil {
		return fmt.Errorf("allocate region id: %w", err)
	}
	if err := xfixes.CreateRegionChecked(s.conn, region, nil).Check(); err != nil {
		return fmt.Errorf("create empty input region: %w", err)
	}
	if err := xfixes.SetWindowShapeRegionChecked(s.conn, s.win, shape.SkInput, 0, 0, region).Check(); err != nil {
		return fmt.Errorf("apply click-through input region: %w", err)
	}

	gc, err := xproto.NewGcontextId(s.conn)
	if err != nil {
		return fmt.Errorf("allocate gcontext id: %w", err)
	}
	if err := xproto.CreateGCChecked(s.conn, gc, xproto.Drawable(win), 0, nil).Check(); err != nil {
		return fmt.Errorf("create graphics context: %w", err)
	}
	s.gc = gc

	if err := xproto.MapWindowChecked(s.conn, win).Check(); err != nil {
		return fmt.Errorf("map overlay window: %w", err)
	}

	s.log.Debug("overlay window mapped", "width", s.width, "height", s.height)
	return nil
}

// findARGBVisual picks the first depth-32 visual on the screen.
func findARGBVisual(screen *xproto.ScreenInfo) (xproto.Visualid, bool) {
	for _, depth := range screen.AllowedDepths {
		if depth.Depth != 32 {
			continue
		}
		for _, v := range depth.Visuals {
			return v.VisualId, true
		}
	}
	return 0, false
}

// Bounds implements overlay.Surface.
func (s *Surface) Bounds() image.Rectangle {
	return image.Rect(0, 0, int(s.width), int(s.height))
}

// Raise restacks the overlay above all siblings. Called every frame.
func (s *Surface) Raise() error {
	return xproto.ConfigureWindowChecked(s.conn, s.win,
		xproto.ConfigWindowStackMode, []uint32{xproto.StackModeAbove}).Check()
}

// RequestFrame schedules another frame; requests coalesce into the
// single-slot channel.
func (s *Surface) RequestFrame() {
	select {
	case s.frames <- struct{}{}:
	default:
	}
}

// Run presents frames on request, capped at the minimum frame interval,
// until ctx ends.
func (s *Surface) Run(ctx context.Context, frame func(canvas *image.RGBA)) error {
	canvas := image.NewRGBA(s.Bounds())
	s.RequestFrame()

	var last time.Time
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.frames:
		}

		if wait := s.minInterval - time.Since(last); wait > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}
		}
		last = time.Now()

		clear(canvas.Pix)
		frame(canvas)

		if err := s.present(canvas); err != nil {
			return fmt.Errorf("present frame: %w", err)
		}
	}
}

// present uploads the canvas in horizontal strips. Pixels convert from
// RGBA to the BGRA byte order ZPixmap expects on little-endian servers.
func (s *Surface) present(canvas *image.RGBA) error {
	w, h := int(s.width), int(s.height)
	buf := make([]byte, 0, w*putImageRows*4)

	for y := 0; y < h; y += putImageRows {
		rows := min(putImageRows, h-y)
		buf = buf[:0]
		for yy := y; yy < y+rows; yy++ {
			row := canvas.Pix[yy*canvas.Stride : yy*canvas.Stride+w*4]
			for x := 0; x < len(row); x += 4 {
				buf = append(buf, row[x+2], row[x+1], row[x], row[x+3])
			}
		}
		err := xproto.PutImageChecked(s.conn, xproto.ImageFormatZPixmap,
			xproto.Drawable(s.win), s.gc,
			uint16(w), uint16(rows), 0, int16(y), 0, s.depth, buf).Check()
		if err != nil {
			return fmt.Errorf("upload rows %d-%d: %w", y, y+rows, err)
		}
	}
	return nil
}

// Close tears down the X connection, destroying the window with it.
func (s *Surface) Close() error {
	s.conn.Close()
	return nil
}
