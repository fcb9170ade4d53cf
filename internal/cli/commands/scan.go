package commands

import (
	"path/filepath"

	"github.com/phenolabs/nmrtab/internal/dataset"
	"github.com/spf13/cobra"
)

// NewScanCommand creates the scan command.
func NewScanCommand() *cobra.Command {
	filter := SampleFilter{}

	cmd := &cobra.Command{
		Use:   "scan <root>",
		Short: "List Bruker experiments under a directory",
		Long: `Scan a directory tree for Bruker experiments and list what a parse
would pick up, including the sample type each experiment classifies as.

Output adapts to environment:
  - Terminal: styled table
  - Piped/Scripted: markdown

Use --output to override: auto, table, csv, json, yaml, markdown`,
		Example: `  # List every experiment found under ./study
  nmrtab scan ./study

  # Only the QC samples, as JSON
  nmrtab scan ./study --types qc --output json

  # One dataset folder
  nmrtab scan ./study --datasets covid19_plasma_a`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScan(cmd, args[0], filter)
		},
	}

	cmd.Flags().StringSliceVar(&filter.Datasets, "datasets", nil, "Only these dataset folders")
	cmd.Flags().StringSliceVar(&filter.Expnos, "expnos", nil, "Only these experiment numbers")
	cmd.Flags().StringSliceVar(&filter.Types, "types", nil, "Only these sample types (sample|sltr|ltr|pqc|qc)")

	return cmd
}

func runScan(cmd *cobra.Command, root string, filter SampleFilter) error {
	cmdCtx := NewCommandContext(cmd)

	samples, err := collectSamples(root, filter, cmdCtx.Logger)
	if err != nil {
		return err
	}

	columns := []string{"dataset", "expno", "sample_id", "type", "experiment", "tube"}
	rows := make([][]string, 0, len(samples))
	for _, s := range samples {
		rows = append(rows, []string{
			s.FolderID,
			filepath.Base(s.DataPath),
			s.ID,
			s.Type,
			s.Experiment,
			dataset.TubeType(s.DataPath),
		})
	}

	return cmdCtx.Renderer.Table(columns, rows)
}
