package commands

import (
	"strconv"
	"time"

	"github.com/phenolabs/nmrtab/internal/state"
	"github.com/spf13/cobra"
)

// NewRunsCommand creates the runs command.
func NewRunsCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recorded parse runs",
		Long:  `List the run history recorded by parse, newest first.`,
		Example: `  # The last 20 runs
  nmrtab runs

  # Full history as JSON
  nmrtab runs --limit 0 --output json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runRuns(cmd, limit)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of runs to show (0 = all)")

	return cmd
}

func runRuns(cmd *cobra.Command, limit int) error {
	cmdCtx := NewCommandContext(cmd)

	store, err := openStore(cmdCtx.Cfg, cmdCtx.Logger)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	runs, err := store.ListRuns(limit)
	if err != nil {
		return err
	}

	columns := []string{"id", "mode", "root", "target", "status", "samples", "base_name", "started_at", "duration"}
	rows := make([][]string, 0, len(runs))
	for _, run := range runs {
		rows = append(rows, []string{
			shortID(run.ID),
			run.Mode,
			run.Root,
			run.Target,
			string(run.Status),
			strconv.Itoa(run.Samples),
			run.BaseName,
			run.StartedAt.Format(time.RFC3339),
			runDuration(run),
		})
	}

	return cmdCtx.Renderer.Table(columns, rows)
}

// shortID abbreviates a run UUID for display.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func runDuration(run *state.Run) string {
	if run.CompletedAt == nil {
		return ""
	}
	return run.CompletedAt.Sub(run.StartedAt).Round(time.Millisecond).String()
}
