package commands

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/phenolabs/nmrtab/internal/cli/config"
	"github.com/phenolabs/nmrtab/internal/cli/output"
	"github.com/phenolabs/nmrtab/internal/dataset"
	"github.com/phenolabs/nmrtab/internal/experiment"
	"github.com/phenolabs/nmrtab/internal/state"
	"github.com/spf13/cobra"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Renderer *output.Renderer
}

// NewCommandContext assembles the dependencies commands share.
func NewCommandContext(cmd *cobra.Command) *CommandContext {
	cfg := getConfig()
	logger := config.GetLogger(cmd.Context())
	mode := output.Mode(cfg.OutputFormat)
	r := output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), mode)

	return &CommandContext{
		Cfg:      cfg,
		Logger:   logger,
		Renderer: r,
	}
}

// getConfig returns the current configuration.
// It uses config.GetCurrentConfig() if available, otherwise falls back to
// environment variables.
func getConfig() *config.Config {
	if cfg := config.GetCurrentConfig(); cfg != nil {
		return cfg
	}

	// Fallback: read from environment with defaults
	return &config.Config{
		OutDir:       getEnvOrDefault("NMRTAB_OUT_DIR", config.DefaultOutDir),
		StatePath:    getEnvOrDefault("NMRTAB_STATE_PATH", config.DefaultStateFile),
		OutputFormat: os.Getenv("NMRTAB_OUTPUT"),
		Verbose:      os.Getenv("NMRTAB_VERBOSE") == "true",
		Target:       &config.TargetConfig{Type: getEnvOrDefault("NMRTAB_TARGET", config.DefaultTarget)},
	}
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

// openStore opens the run history database, creating its directory first.
func openStore(cfg *config.Config, logger *slog.Logger) (*state.Store, error) {
	stateDir := filepath.Dir(cfg.StatePath)
	if stateDir != "." && stateDir != "" {
		if err := os.MkdirAll(stateDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create state directory: %w", err)
		}
	}

	store := state.New(logger)
	if err := store.Open(cfg.StatePath); err != nil {
		return nil, err
	}
	if err := store.Migrate(); err != nil {
		_ = store.Close()
		return nil, err
	}
	return store, nil
}

// SampleFilter narrows scanned experiments. Empty fields match everything.
type SampleFilter struct {
	Datasets []string
	Expnos   []string
	Types    []string
}

// collectSamples scans root, classifies what it finds, and applies the
// filter. Filtering runs after classification so type matches see the
// whole batch.
func collectSamples(root string, filter SampleFilter, logger *slog.Logger) ([]dataset.Sample, error) {
	reader := experiment.NewReader(logger)
	entries, err := reader.Scan(root, experiment.Filter{})
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", root, err)
	}

	samples := dataset.Classify(dataset.SamplesFromScan(entries, logger))
	return filterSamples(samples, filter), nil
}

func filterSamples(samples []dataset.Sample, f SampleFilter) []dataset.Sample {
	if len(f.Datasets) == 0 && len(f.Expnos) == 0 && len(f.Types) == 0 {
		return samples
	}

	var kept []dataset.Sample
	for _, s := range samples {
		if !matchAny(f.Datasets, s.FolderID) {
			continue
		}
		if !matchAny(f.Expnos, filepath.Base(s.DataPath)) {
			continue
		}
		if !matchAny(f.Types, s.Type) {
			continue
		}
		kept = append(kept, s)
	}
	return kept
}

func matchAny(wanted []string, value string) bool {
	if len(wanted) == 0 {
		return true
	}
	for _, w := range wanted {
		if strings.EqualFold(w, value) {
			return true
		}
	}
	return false
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
