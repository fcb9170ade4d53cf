// Package config provides configuration management for the nmrtab CLI.
//
// Durable settings live in nmrtab.yaml next to the data, overridable
// through NMRTAB_ environment variables and command-line flags.
package config

import "github.com/phenolabs/nmrtab/internal/export"

// Default configuration values.
const (
	DefaultStateFile = ".nmrtab/state.db"
	DefaultOutDir    = "."
	DefaultTarget    = "duckdb"
	DefaultOutput    = "auto" // Auto-detect: TTY=table, non-TTY=markdown
)

// TargetConfig holds export target configuration.
type TargetConfig struct {
	Type string `koanf:"type"` // duckdb, postgres, csv

	// File-based targets (DuckDB)
	Path string `koanf:"path"`

	// Network targets
	Host     string `koanf:"host"`
	Port     int    `koanf:"port"`
	Database string `koanf:"database"`
	User     string `koanf:"user"`
	Password string `koanf:"password"`

	// Additional driver-specific options
	Options map[string]string `koanf:"options"`
}

// ApplyDefaults fills in type-specific defaults.
func (t *TargetConfig) ApplyDefaults() {
	if t == nil {
		return
	}
	if t.Type == "" {
		t.Type = DefaultTarget
	}
	if t.Type == "postgres" && t.Port == 0 {
		t.Port = 5432
	}
}

// Config holds all CLI configuration options.
type Config struct {
	OutDir           string        `koanf:"out_dir"`
	StatePath        string        `koanf:"state_path"`
	ProjectName      string        `koanf:"project_name"`
	CohortName       string        `koanf:"cohort_name"`
	RunName          string        `koanf:"run_name"`
	SampleMatrixType string        `koanf:"sample_matrix_type"`
	Method           string        `koanf:"method"`
	Jobs             int           `koanf:"jobs"`
	Verbose          bool          `koanf:"verbose"`
	OutputFormat     string        `koanf:"output"`
	Target           *TargetConfig `koanf:"target"`
}

// ExportConfig converts the target section into the exporter's config.
func (c *Config) ExportConfig() export.Config {
	if c.Target == nil {
		return export.Config{Type: DefaultTarget}
	}
	return export.Config{
		Type:     c.Target.Type,
		Path:     c.Target.Path,
		Host:     c.Target.Host,
		Port:     c.Target.Port,
		Database: c.Target.Database,
		Username: c.Target.User,
		Password: c.Target.Password,
		Options:  c.Target.Options,
	}
}
