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

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Dump the visible elements of one application",
	Long: `Walk an application's accessibility subtree once and print every element
reported as showing, with role, name, and screen-space bounds.`,
	RunE: runSnapshot,
}

func init() {
	rootCmd.AddCommand(snapshotCmd)
	snapshotCmd.Flags().String("app", "", "Application name (exact or unique substring)")
	snapshotCmd.Flags().Int("timeout", 10, "Max seconds for the walk")
	snapshotCmd.MarkFlagRequired("app")
}

func runSnapshot(cmd *cobra.Command, args []string) error {
	appName, _ := cmd.Flags().GetString("app")
	timeoutSec, _ := cmd.Flags().GetInt("timeout")

	log := slog.Default()
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(timeoutSec)*time.Second)
	defer cancel()

	sess, err := atspi.NewSession(ctx, log)
	if err != nil {
		return fmt.Errorf("accessibility session: %w", err)
	}
	defer sess.Close()

	result, err := buildSnapshot(ctx, sess, log, appName)
	if err != nil {
		return err
	}
	return output.Print(result)
}
