package overlay

import (
	"context"
	"image"
	"image/color"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/C-Loftus/atspi-tree-visualizer/internal/highlight"
	"github.com/C-Loftus/atspi-tree-visualizer/internal/model"
)

// Config controls marker appearance and the per-frame work budget.
type Config struct {
	MarkerSize    int           // marker edge length in pixels
	MarkerColor   color.RGBA    // marker fill
	Labels        bool          // draw element indices next to markers
	MaxInflight   int           // cap on concurrent geometry queries per frame
	FrameDeadline time.Duration // budget for one frame's geometry fan-out
}

func (c Config) withDefaults() Config {
	if c.MarkerSize <= 0 {
		c.MarkerSize = 10
	}
	if c.MarkerColor == (color.RGBA{}) {
		c.MarkerColor = color.RGBA{R: 255, A: 255}
	}
	if c.MaxInflight <= 0 {
		c.MaxInflight = 16
	}
	if c.FrameDeadline <= 0 {
		c.FrameDeadline = 50 * time.Millisecond
	}
	return c
}

// Loop renders the current highlight set once per display frame. It never
// owns a timer: the surface drives it, and every frame re-requests the
// next one so the overlay keeps tracking screen changes even when no new
// walk results arrive.
type Loop struct {
	surface Surface
	probe   Probe
	inbox   *highlight.Inbox
	cfg     Config
	log     *slog.Logger

	// current is owned exclusively by the render loop; it is only ever
	// replaced wholesale by a newer non-empty delivery.
	current model.HighlightSet
}

func NewLoop(surface Surface, probe Probe, inbox *highlight.Inbox, cfg Config, log *slog.Logger) *Loop {
	return &Loop{
		surface: surface,
		probe:   probe,
		inbox:   inbox,
		cfg:     cfg.withDefaults(),
		log:     log,
	}
}

// Run drives the surface until ctx ends.
func (l *Loop) Run(ctx context.Context) error {
	return l.surface.Run(ctx, func(canvas *image.RGBA) {
		l.frame(ctx, canvas)
	})
}

// frame is one render pass: reassert stacking, poll the inbox, paint.
func (l *Loop) frame(ctx context.Context, canvas *image.RGBA) {
	if err := l.surface.Raise(); err != nil {
		l.log.Warn("raising overlay failed", "error", err)
	}

	// An empty delivery is ignored: stale-but-present highlights beat
	// flickering to an empty screen.
	if set, ok := l.inbox.Poll(); ok && len(set) > 0 {
		l.log.Debug("new highlight set", "elements", len(set))
		l.current = set
	}

	if len(l.current) > 0 {
		l.paint(ctx, canvas)
	}

	l.surface.RequestFrame()
}

type probeResult struct {
	index int
	box   model.BoundingBox
}

// paint fans out geometry queries for the current set and draws a marker
// per element. Concurrency is capped and the whole fan-out runs under the
// frame deadline: elements that miss it are skipped this frame and
// retried on the next, so a hung remote peer cannot stall the frame
// callback indefinitely. One bad element never blanks the frame.
func (l *Loop) paint(ctx context.Context, canvas *image.RGBA) {
	frameCtx, cancel := context.WithTimeout(ctx, l.cfg.FrameDeadline)
	defer cancel()

	sem := make(chan struct{}, l.cfg.MaxInflight)
	results := make(chan probeResult, len(l.current))

	var wg sync.WaitGroup
	for i, ref := range l.current {
		wg.Add(1)
		go func(i int, ref model.ElementRef) {
			defer wg.Done()
			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-frameCtx.Done():
				return
			}
			box, err := l.probe.Extents(frameCtx, ref)
			if err != nil {
				l.log.Debug("skipping element this frame", "ref", ref.String(), "error", err)
				return
			}
			results <- probeResult{index: i, box: box}
		}(i, ref)
	}
	go func() {
		wg.Wait()
		close(results)
	}()

	// Fan-in: drawing happens only here, so the canvas needs no lock.
	painted := 0
	for r := range results {
		label := ""
		if l.cfg.Labels {
			label = strconv.Itoa(r.index)
		}
		drawMarker(canvas, r.box, l.cfg.MarkerSize, l.cfg.MarkerColor, label)
		painted++
	}
	if painted < len(l.current) {
		l.log.Debug("frame painted partially", "painted", painted, "total", len(l.current))
	}
}
