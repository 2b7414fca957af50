package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/C-Loftus/atspi-tree-visualizer/internal/atspi"
	"github.com/C-Loftus/atspi-tree-visualizer/internal/output"
)

var appsCmd = &cobra.Command{
	Use:   "apps",
	Short: "List applications registered with the accessibility registry",
	RunE:  runApps,
}

func init() {
	rootCmd.AddCommand(appsCmd)
	appsCmd.Flags().Int("timeout", 5, "Max seconds for the query")
}

// appEntry is one row of the apps listing.
type appEntry struct {
	Name   string `yaml:"name,omitempty" json:"name,omitempty"`
	Sender string `yaml:"sender"         json:"sender"`
	Path   string `yaml:"path"           json:"path"`
}

func runApps(cmd *cobra.Command, args []string) error {
	timeoutSec, _ := cmd.Flags().GetInt("timeout")
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(timeoutSec)*time.Second)
	defer cancel()

	sess, err := atspi.NewSession(ctx, slog.Default())
	if err != nil {
		return fmt.Errorf("accessibility session: %w", err)
	}
	defer sess.Close()

	apps, err := sess.Applications(ctx)
	if err != nil {
		return err
	}

	entries := make([]appEntry, 0, len(apps))
	for _, app := range apps {
		entries = append(entries, appEntry{
			Name:   app.Name,
			Sender: app.Ref.Sender,
			Path:   app.Ref.Path,
		})
	}
	return output.Print(entries)
}
