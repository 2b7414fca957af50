package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/C-Loftus/atspi-tree-visualizer/internal/atspi"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Stream document load-complete events as JSONL",
	Long: `Subscribe to document lifecycle events and emit one JSON line per
load-complete notification. Other document events are logged at debug
level but not emitted.

Output is always JSONL regardless of the --format flag.
Use Ctrl+C or --duration to stop.`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().Int("duration", 0, "Max seconds to watch (0 = until Ctrl+C)")
}

func runWatch(cmd *cobra.Command, args []string) error {
	durationSec, _ := cmd.Flags().GetInt("duration")
	log := slog.Default()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if durationSec > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(durationSec)*time.Second)
		defer cancel()
	}

	sess, err := atspi.NewSession(ctx, log)
	if err != nil {
		return fmt.Errorf("accessibility session: %w", err)
	}
	defer sess.Close()

	events, err := sess.Subscribe(ctx)
	if err != nil {
		return fmt.Errorf("subscribe to document events: %w", err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetEscapeHTML(false)

	start := time.Now()
	enc.Encode(map[string]interface{}{
		"type": "ready",
		"ts":   start.Unix(),
	})

	count := 0
	for {
		select {
		case <-ctx.Done():
			enc.Encode(map[string]interface{}{
				"type":    "done",
				"ts":      time.Now().Unix(),
				"elapsed": fmt.Sprintf("%.1fs", time.Since(start).Seconds()),
				"events":  count,
			})
			return nil
		case ev, ok := <-events:
			if !ok {
				return fmt.Errorf("event stream closed unexpectedly")
			}
			if ev.Kind != atspi.EventDocumentLoadComplete {
				log.Debug("ignoring event", "kind", ev.Kind)
				continue
			}
			enc.Encode(map[string]interface{}{
				"type":   ev.Kind,
				"ts":     time.Now().Unix(),
				"sender": ev.Target.Sender,
				"path":   ev.Target.Path,
			})
			count++
		}
	}
}
