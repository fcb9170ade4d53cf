package commands

import (
	"fmt"

	"github.com/phenolabs/nmrtab/internal/dataset"
	"github.com/phenolabs/nmrtab/internal/export"
	"github.com/spf13/cobra"
)

// NewBiomarkersCommand creates the biomarkers command.
func NewBiomarkersCommand() *cobra.Command {
	filter := SampleFilter{}
	var csvPath string

	cmd := &cobra.Command{
		Use:   "biomarkers <root>",
		Short: "Compute SPC and Glyc biomarkers from 1D spectra",
		Long: `Read the 1D spectra under a directory with the chemical shift
calibration removed, integrate the supramolecular phospholipid (SPC) and
glycoprotein (Glyc) windows, and print one row of composite biomarkers
per sample.

The SPC_Glyc ratio can be infinite when the Glyc window integrates to
zero; such cells export as 'inf'.`,
		Example: `  # Biomarker table for a study
  nmrtab biomarkers ./study

  # Samples only, also written as CSV
  nmrtab biomarkers ./study --types sample --csv biomarkers.csv`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBiomarkers(cmd, args[0], filter, csvPath)
		},
	}

	cmd.Flags().StringSliceVar(&filter.Datasets, "datasets", nil, "Only these dataset folders")
	cmd.Flags().StringSliceVar(&filter.Expnos, "expnos", nil, "Only these experiment numbers")
	cmd.Flags().StringSliceVar(&filter.Types, "types", nil, "Only these sample types (sample|sltr|ltr|pqc|qc)")
	cmd.Flags().StringVar(&csvPath, "csv", "", "Also write the table to this CSV file")

	return cmd
}

func runBiomarkers(cmd *cobra.Command, root string, filter SampleFilter, csvPath string) error {
	cmdCtx := NewCommandContext(cmd)

	samples, err := collectSamples(root, filter, cmdCtx.Logger)
	if err != nil {
		return err
	}

	builder := dataset.NewBuilder(cmdCtx.Logger)
	d, err := builder.Build(cmd.Context(), samples, dataset.Options{
		Mode: dataset.ModeSpcglyc,
		Jobs: cmdCtx.Cfg.Jobs,
	})
	if err != nil {
		return fmt.Errorf("failed to compute biomarkers: %w", err)
	}

	columns := append([]string{"sample_key"}, d.Columns...)
	rows := make([][]string, len(d.Keys))
	for i, key := range d.Keys {
		row := make([]string, 0, len(columns))
		row = append(row, key)
		for _, v := range d.Rows[i] {
			row = append(row, export.FloatCell(v))
		}
		rows[i] = row
	}

	if csvPath != "" {
		t := export.Table{Name: "biomarkers", Columns: columns, Rows: rows}
		if err := export.WriteCSV(t, csvPath); err != nil {
			return fmt.Errorf("failed to write %s: %w", csvPath, err)
		}
	}

	return cmdCtx.Renderer.Table(columns, rows)
}
