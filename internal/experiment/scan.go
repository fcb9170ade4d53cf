package experiment

import (
	"io/fs"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"

	"github.com/phenolabs/nmrtab/internal/bruker"
)

// Entry is one experiment found by Scan.
type Entry struct {
	Path    string
	Exp     string
	Pulprog string
	Usera2  string
}

// Filter narrows Scan results by substring match on the cleaned EXP and
// PULPROG names. Empty fields match everything.
type Filter struct {
	Exp     string
	Pulprog string
}

func (f Filter) matches(e Entry) bool {
	if f.Exp != "" && !strings.Contains(e.Exp, f.Exp) {
		return false
	}
	if f.Pulprog != "" && !strings.Contains(e.Pulprog, f.Pulprog) {
		return false
	}
	return true
}

// Scan walks root for Bruker experiments, identified by files named
// exactly "acqus". The calibration expnos 99999 and 98888 are skipped.
// EXP and PULPROG are cleaned for matching; USERA2 is kept verbatim.
func (r *Reader) Scan(root string, filter Filter) ([]Entry, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			r.logger.Debug("path not scannable", slog.String("path", path), slog.Any("error", err))
			return nil
		}
		if d.IsDir() || d.Name() != "acqus" {
			return nil
		}
		slashed := filepath.ToSlash(path)
		if strings.Contains(slashed, "99999/acqus") || strings.Contains(slashed, "98888/acqus") {
			return nil
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, err
	}
	r.logger.Info("acqus files found", slog.Int("count", len(files)))

	var entries []Entry
	for _, path := range files {
		e := Entry{Path: filepath.Dir(path)}
		if v, ok := r.files.Param(path, "EXP"); ok {
			e.Exp = bruker.CleanName(v.String())
		}
		if v, ok := r.files.Param(path, "PULPROG"); ok {
			e.Pulprog = bruker.CleanName(v.String())
		}
		if v, ok := r.files.Param(path, "USERA2"); ok {
			e.Usera2 = v.String()
		}
		if filter.matches(e) {
			entries = append(entries, e)
		}
	}

	if len(entries) == 0 {
		r.logger.Warn("no experiments matched", slog.String("root", root))
		return entries, nil
	}

	combos := make(map[string]int)
	for _, e := range entries {
		combos[e.Exp+"@"+e.Pulprog]++
	}
	names := make([]string, 0, len(combos))
	for combo := range combos {
		names = append(names, combo)
	}
	sort.Strings(names)
	for _, combo := range names {
		r.logger.Info("experiment type", slog.String("combo", combo), slog.Int("count", combos[combo]))
	}

	return entries, nil
}
