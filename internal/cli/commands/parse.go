package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/phenolabs/nmrtab/internal/cli/output"
	"github.com/phenolabs/nmrtab/internal/dataset"
	"github.com/phenolabs/nmrtab/internal/experiment"
	"github.com/phenolabs/nmrtab/internal/export"
	"github.com/phenolabs/nmrtab/internal/state"
	"github.com/spf13/cobra"
)

// ParseOptions holds options for the parse command.
type ParseOptions struct {
	Filter      SampleFilter
	What        []string
	From        float64
	To          float64
	Points      int
	Procno      int
	Uncalibrate bool
	Eretic      float64
	NoEretic    bool
	Imaginary   bool

	ProjectName string
	CohortName  string
	RunName     string
	MatrixType  string
	Method      string
}

// NewParseCommand creates the parse command.
func NewParseCommand() *cobra.Command {
	opts := &ParseOptions{}

	cmd := &cobra.Command{
		Use:   "parse <root>",
		Short: "Assemble datasets and export them to the target",
		Long: `Scan a directory tree for Bruker experiments, read the requested data
products, align them into one matrix per product, and export the result.

Each product becomes its own artifact set named after the project, cohort,
run, and method. Every parse is recorded in the run history database; see
'nmrtab runs'.`,
		Example: `  # Spectra into DuckDB + Parquet under ./out
  nmrtab parse ./study --project-name covid19 --run-name run01 --out-dir out

  # Lipoprotein and small molecule panels into PostgreSQL
  nmrtab parse ./study --what brxlipo,brxsm --target postgres

  # Biomarkers for the 3mm plate only, without ERETIC normalization
  nmrtab parse ./study --what spcglyc --datasets plate_3mm --no-eretic`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runParse(cmd, args[0], opts)
		},
	}

	f := cmd.Flags()
	f.StringSliceVar(&opts.Filter.Datasets, "datasets", nil, "Only these dataset folders")
	f.StringSliceVar(&opts.Filter.Expnos, "expnos", nil, "Only these experiment numbers")
	f.StringSliceVar(&opts.Filter.Types, "types", nil, "Only these sample types (sample|sltr|ltr|pqc|qc)")
	f.StringSliceVar(&opts.What, "what", []string{"spec"}, "Data products to build (spec|spcglyc|brxlipo|brxpacs|brxsm)")

	f.Float64Var(&opts.From, "from", -0.1, "Lower edge of the ppm window")
	f.Float64Var(&opts.To, "to", 10, "Upper edge of the ppm window")
	f.IntVar(&opts.Points, "points", 44079, "Points on the resampled grid")
	f.IntVar(&opts.Procno, "procno", 1, "Processing number to read")
	f.BoolVar(&opts.Uncalibrate, "uncalibrate", false, "Remove the chemical shift calibration")
	f.Float64Var(&opts.Eretic, "eretic", 0, "Explicit ERETIC factor (default: discovered per experiment)")
	f.BoolVar(&opts.NoEretic, "no-eretic", false, "Skip ERETIC normalization")
	f.BoolVar(&opts.Imaginary, "imaginary", false, "Also read the imaginary channel")

	f.StringVar(&opts.ProjectName, "project-name", "", "Project identifier for metadata")
	f.StringVar(&opts.CohortName, "cohort-name", "", "Cohort identifier for metadata")
	f.StringVar(&opts.RunName, "run-name", "", "Run identifier for metadata")
	f.StringVar(&opts.MatrixType, "matrix-type", "", "Sample matrix type for metadata")
	f.StringVar(&opts.Method, "method", "", "Method name (default: detected from the experiments)")

	cmd.MarkFlagsMutuallyExclusive("eretic", "no-eretic")

	return cmd
}

func runParse(cmd *cobra.Command, root string, opts *ParseOptions) error {
	cmdCtx := NewCommandContext(cmd)
	cfg := cmdCtx.Cfg
	ctx := cmd.Context()

	modes := make([]dataset.Mode, 0, len(opts.What))
	for _, what := range opts.What {
		mode, err := datasetMode(what)
		if err != nil {
			return err
		}
		modes = append(modes, mode)
	}

	specOpts := experiment.Options{
		Procno:      opts.Procno,
		Uncalibrate: opts.Uncalibrate,
		From:        opts.From,
		To:          opts.To,
		Points:      opts.Points,
		Imaginary:   opts.Imaginary,
	}
	switch {
	case opts.NoEretic:
		specOpts.Eretic = 1
		specOpts.HasEretic = true
	case cmd.Flags().Changed("eretic"):
		specOpts.Eretic = opts.Eretic
		specOpts.HasEretic = true
	}

	samples, err := collectSamples(root, opts.Filter, cmdCtx.Logger)
	if err != nil {
		return err
	}

	store, err := openStore(cfg, cmdCtx.Logger)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	builder := dataset.NewBuilder(cmdCtx.Logger)
	exporter := export.New(cmdCtx.Logger)

	for _, mode := range modes {
		buildOpts := dataset.Options{
			Mode:             mode,
			ProjectName:      firstNonEmpty(opts.ProjectName, cfg.ProjectName),
			CohortName:       firstNonEmpty(opts.CohortName, cfg.CohortName),
			RunName:          firstNonEmpty(opts.RunName, cfg.RunName),
			SampleMatrixType: firstNonEmpty(opts.MatrixType, cfg.SampleMatrixType),
			Method:           firstNonEmpty(opts.Method, cfg.Method),
			Spec:             specOpts,
			Jobs:             cfg.Jobs,
		}
		if err := parseOne(ctx, cmdCtx, store, builder, exporter, root, samples, buildOpts); err != nil {
			return err
		}
	}

	return nil
}

// parseOne builds and exports a single data product, recording the run.
func parseOne(ctx context.Context, cmdCtx *CommandContext, store *state.Store, builder *dataset.Builder, exporter *export.Exporter, root string, samples []dataset.Sample, buildOpts dataset.Options) error {
	cfg := cmdCtx.Cfg

	run, err := store.CreateRun(string(buildOpts.Mode), root, cfg.Target.Type)
	if err != nil {
		return err
	}

	d, err := builder.Build(ctx, samples, buildOpts)
	if err != nil {
		_ = store.CompleteRun(run.ID, runStatus(err), 0, "", err.Error())
		return fmt.Errorf("failed to build %s dataset: %w", buildOpts.Mode, err)
	}

	exportOpts := export.Options{
		Target: cfg.Target.Type,
		OutDir: cfg.OutDir,
		Config: cfg.ExportConfig(),
	}
	if err := exporter.Export(ctx, d, exportOpts); err != nil {
		_ = store.CompleteRun(run.ID, runStatus(err), len(d.Keys), d.BaseName, err.Error())
		return fmt.Errorf("failed to export %s dataset: %w", buildOpts.Mode, err)
	}

	if err := store.CompleteRun(run.ID, state.StatusCompleted, len(d.Keys), d.BaseName, ""); err != nil {
		return err
	}

	if cmdCtx.Renderer.EffectiveMode() != output.ModeJSON {
		cmdCtx.Renderer.Printf("%s: %d samples -> %s (%s)\n", buildOpts.Mode, len(d.Keys), d.BaseName, cfg.Target.Type)
	}
	return nil
}

// datasetMode validates a --what value before any run is recorded.
func datasetMode(what string) (dataset.Mode, error) {
	mode := dataset.Mode(strings.ToLower(strings.TrimSpace(what)))
	switch mode {
	case dataset.ModeSpec, dataset.ModeSpcglyc, dataset.ModeLipo, dataset.ModePacs, dataset.ModeSmall:
		return mode, nil
	}
	return "", fmt.Errorf("unknown data product %q (want spec, spcglyc, brxlipo, brxpacs, or brxsm)", what)
}

// runStatus maps a pipeline error to the recorded run status.
func runStatus(err error) state.Status {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return state.StatusCancelled
	}
	return state.StatusFailed
}
