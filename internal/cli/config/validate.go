package config

import (
	"sort"
	"strings"

	"github.com/phenolabs/nmrtab/internal/export"
)

// ValidTargets returns the accepted target types. The adapter registry is
// the source of truth for database targets; csv is handled by the
// exporter directly.
func ValidTargets() []string {
	targets := append(export.ListTargets(), export.TargetCSV)
	sort.Strings(targets)
	return targets
}

// ValidateTarget checks that the configured target type is one the
// exporter can serve.
func (c *Config) ValidateTarget() error {
	if c.Target == nil || c.Target.Type == "" {
		return nil
	}
	t := strings.ToLower(c.Target.Type)
	if t == export.TargetCSV || export.IsRegistered(t) {
		return nil
	}
	return &export.UnknownTargetError{Type: c.Target.Type, Available: ValidTargets()}
}
