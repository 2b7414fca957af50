package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/C-Loftus/atspi-tree-visualizer/internal/atspi"
	"github.com/C-Loftus/atspi-tree-visualizer/internal/config"
	"github.com/C-Loftus/atspi-tree-visualizer/internal/highlight"
	"github.com/C-Loftus/atspi-tree-visualizer/internal/listener"
	"github.com/C-Loftus/atspi-tree-visualizer/internal/overlay"
	"github.com/C-Loftus/atspi-tree-visualizer/internal/overlay/x11"
	"github.com/C-Loftus/atspi-tree-visualizer/internal/walker"
)

var visualizeCmd = &cobra.Command{
	Use:   "visualize",
	Short: "Paint a live overlay of the visible accessibility elements",
	Long: `Listen for document load-complete events, walk each loaded subtree for
elements the accessibility layer reports as showing, and paint a marker
at each one's screen position on a transparent, click-through overlay.

The overlay updates on every document load and tracks geometry
continuously. Use Ctrl+C to stop.`,
	RunE: runVisualize,
}

func init() {
	rootCmd.AddCommand(visualizeCmd)
	visualizeCmd.Flags().Int("marker-size", 0, "Marker edge length in pixels (default 10)")
	visualizeCmd.Flags().String("marker-color", "", "Marker color as #rrggbb or #rrggbbaa (default #ff0000)")
	visualizeCmd.Flags().Bool("labels", false, "Draw element indices next to markers")
	visualizeCmd.Flags().Int("max-inflight", 0, "Max concurrent geometry queries per frame (default 16)")
	visualizeCmd.Flags().Int("frame-deadline", 0, "Per-frame geometry budget in milliseconds (default 50)")
	visualizeCmd.Flags().String("profile", "", "Profile file (default: "+config.DefaultPath()+")")
}

// loadRenderConfig layers profile file and flags into an overlay config.
func loadRenderConfig(cmd *cobra.Command) (overlay.Config, error) {
	path, _ := cmd.Flags().GetString("profile")
	explicit := cmd.Flags().Changed("profile")
	if path == "" {
		path = config.DefaultPath()
	}
	profile, err := config.Load(path)
	if err != nil {
		// A broken default profile is worth a warning; a broken explicit
		// one is an error.
		if explicit {
			return overlay.Config{}, err
		}
		slog.Default().Warn("ignoring unreadable profile", "error", err)
		profile = config.Default()
	}

	if cmd.Flags().Changed("marker-size") {
		profile.Marker.Size, _ = cmd.Flags().GetInt("marker-size")
	}
	if cmd.Flags().Changed("marker-color") {
		profile.Marker.Color, _ = cmd.Flags().GetString("marker-color")
	}
	if cmd.Flags().Changed("labels") {
		profile.Marker.Labels, _ = cmd.Flags().GetBool("labels")
	}
	if cmd.Flags().Changed("max-inflight") {
		profile.Render.MaxInflight, _ = cmd.Flags().GetInt("max-inflight")
	}
	if cmd.Flags().Changed("frame-deadline") {
		profile.Render.FrameDeadlineMs, _ = cmd.Flags().GetInt("frame-deadline")
	}

	color, err := config.ParseColor(profile.Marker.Color)
	if err != nil {
		return overlay.Config{}, err
	}
	return overlay.Config{
		MarkerSize:    profile.Marker.Size,
		MarkerColor:   color,
		Labels:        profile.Marker.Labels,
		MaxInflight:   profile.Render.MaxInflight,
		FrameDeadline: time.Duration(profile.Render.FrameDeadlineMs) * time.Millisecond,
	}, nil
}

func runVisualize(cmd *cobra.Command, args []string) error {
	log := slog.Default()

	renderCfg, err := loadRenderConfig(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sess, err := atspi.NewSession(ctx, log)
	if err != nil {
		return fmt.Errorf("accessibility session: %w", err)
	}
	defer sess.Close()

	events, err := sess.Subscribe(ctx)
	if err != nil {
		return fmt.Errorf("subscribe to document events: %w", err)
	}

	surface, err := x11.NewSurface(log)
	if err != nil {
		return fmt.Errorf("overlay surface: %w", err)
	}
	defer surface.Close()

	inbox := highlight.NewInbox()
	lst := listener.New(events, walker.New(sess, log), inbox, log)

	go func() {
		if err := lst.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("event listener stopped", "error", err)
		}
	}()

	log.Info("visualizer running", "surface", surface.Bounds())
	err = overlay.NewLoop(surface, sess, inbox, renderCfg, log).Run(ctx)

	stop()
	lst.Wait()

	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
