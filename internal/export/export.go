// Package export writes assembled datasets to analytical stores. The
// default DuckDB target stages every logical table through CSV, copies it
// to a parquet artifact, and leaves a .duckdb database of views over the
// parquet files plus a data_with_metadata join. Other registered targets
// (PostgreSQL) receive the same logical tables; the csv target writes
// plain files for spreadsheet users.
package export

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/phenolabs/nmrtab/internal/dataset"
)

// TargetCSV writes plain CSV files instead of loading a database.
const TargetCSV = "csv"

// Options configures an Export. An empty Target selects duckdb. OutDir
// is where the duckdb target writes its artifacts and the csv target its
// files; it defaults to the working directory.
type Options struct {
	Target string
	OutDir string
	Config Config
}

// Exporter writes assembled datasets to a target.
type Exporter struct {
	logger *slog.Logger
}

// New creates an Exporter. If logger is nil, a discard logger is used.
func New(logger *slog.Logger) *Exporter {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Exporter{logger: logger}
}

// Export flattens d into its logical tables and writes them to the
// configured target.
func (e *Exporter) Export(ctx context.Context, d *dataset.Dataset, opts Options) error {
	target := opts.Target
	if target == "" {
		target = "duckdb"
	}
	outDir := opts.OutDir
	if outDir == "" {
		outDir = "."
	}
	tables := Tables(d)

	switch target {
	case TargetCSV:
		return e.exportCSV(d.BaseName, tables, outDir)
	case "duckdb":
		return e.exportDuckDB(ctx, d.BaseName, tables, outDir, opts.Config)
	}
	return e.exportAdapter(ctx, target, tables, opts.Config)
}

func (e *Exporter) exportCSV(base string, tables []Table, outDir string) error {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return err
	}
	for _, t := range tables {
		path := filepath.Join(outDir, base+"_"+t.Name+".csv")
		if err := WriteCSV(t, path); err != nil {
			return fmt.Errorf("failed to write %s: %w", t.Name, err)
		}
	}
	e.logger.Info("csv artifacts written",
		slog.String("dir", outDir), slog.Int("tables", len(tables)))
	return nil
}

// exportDuckDB writes one parquet artifact per table next to a .duckdb
// database holding only views. Each table is staged as CSV, loaded with
// schema inference, copied out as parquet, and replaced by a view over
// the parquet file, so reruns with the same base name are safe.
func (e *Exporter) exportDuckDB(ctx context.Context, base string, tables []Table, outDir string, cfg Config) error {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return err
	}
	stage, err := os.MkdirTemp("", "nmrtab-stage")
	if err != nil {
		return err
	}
	defer func() { _ = os.RemoveAll(stage) }()

	db := NewDuckDB(e.logger)
	cfg.Path = filepath.Join(outDir, base+".duckdb")
	if err := db.Connect(ctx, cfg); err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	for _, t := range tables {
		csvPath := filepath.Join(stage, t.Name+".csv")
		if err := WriteCSV(t, csvPath); err != nil {
			return fmt.Errorf("failed to stage %s: %w", t.Name, err)
		}
		if err := db.Exec(ctx, fmt.Sprintf("DROP VIEW IF EXISTS %s", t.Name)); err != nil {
			return err
		}
		if err := db.LoadCSV(ctx, t.Name, csvPath); err != nil {
			return err
		}
		parquet, err := filepath.Abs(filepath.Join(outDir, base+"_"+t.Name+".parquet"))
		if err != nil {
			return err
		}
		if err := db.Exec(ctx, fmt.Sprintf("COPY %s TO '%s' (FORMAT PARQUET)", t.Name, parquet)); err != nil {
			return err
		}
		if err := db.Exec(ctx, fmt.Sprintf("DROP TABLE %s", t.Name)); err != nil {
			return err
		}
		if err := db.Exec(ctx, fmt.Sprintf("CREATE OR REPLACE VIEW %s AS SELECT * FROM read_parquet('%s')", t.Name, parquet)); err != nil {
			return err
		}
		e.logger.Debug("artifact written",
			slog.String("table", t.Name), slog.String("path", parquet))
	}

	join := "CREATE OR REPLACE VIEW data_with_metadata AS " +
		"SELECT * FROM data LEFT JOIN metadata USING (sample_key)"
	if err := db.Exec(ctx, join); err != nil {
		return err
	}

	e.logger.Info("duckdb artifacts written",
		slog.String("database", cfg.Path), slog.Int("tables", len(tables)))
	return nil
}

func (e *Exporter) exportAdapter(ctx context.Context, target string, tables []Table, cfg Config) error {
	cfg.Type = target
	ad, err := NewAdapter(cfg, e.logger)
	if err != nil {
		return err
	}
	if err := ad.Connect(ctx, cfg); err != nil {
		return err
	}
	defer func() { _ = ad.Close() }()

	stage, err := os.MkdirTemp("", "nmrtab-stage")
	if err != nil {
		return err
	}
	defer func() { _ = os.RemoveAll(stage) }()

	for _, t := range tables {
		csvPath := filepath.Join(stage, t.Name+".csv")
		if err := WriteCSV(t, csvPath); err != nil {
			return fmt.Errorf("failed to stage %s: %w", t.Name, err)
		}
		if err := ad.LoadCSV(ctx, t.Name, csvPath); err != nil {
			return err
		}
	}

	e.logger.Info("tables loaded",
		slog.String("target", target), slog.Int("tables", len(tables)))
	return nil
}
