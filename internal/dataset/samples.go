package dataset

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/phenolabs/nmrtab/internal/experiment"
)

// SamplesFromScan converts scanned experiment entries into samples.
// Sample IDs come from the USERA2 field when the first entry carries one;
// reference labels are lowercased so classification catches them
// regardless of how the operator typed them. Without USERA2 the IDs are
// positional. Duplicate IDs get numeric suffixes either way. The first
// entry's experiment name labels the whole batch, and each sample's
// folder ID is the dataset directory holding its expno.
func SamplesFromScan(entries []experiment.Entry, logger *slog.Logger) []Sample {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if len(entries) == 0 {
		return nil
	}

	ids := make([]string, len(entries))
	if entries[0].Usera2 != "" {
		logger.Info("sample IDs taken from USERA2")
		for i, e := range entries {
			id := e.Usera2
			id = strings.ReplaceAll(id, "SLTR", "sltr")
			id = strings.ReplaceAll(id, "LTR", "ltr")
			id = strings.ReplaceAll(id, "PQC", "pqc")
			id = strings.ReplaceAll(id, "QC", "qc")
			ids[i] = id
		}
	} else {
		logger.Warn("no USERA2 found, using positional sample IDs")
		for i := range entries {
			ids[i] = fmt.Sprintf("sample_%04d", i)
		}
	}
	ids = makeUnique(ids)

	exp := entries[0].Exp
	samples := make([]Sample, len(entries))
	for i, e := range entries {
		samples[i] = Sample{
			DataPath:   e.Path,
			ID:         ids[i],
			Type:       TypeSample,
			Experiment: exp,
			FolderID:   folderID(e.Path),
		}
	}
	return samples
}

// folderID names the dataset directory an expno lives in.
func folderID(path string) string {
	return filepath.Base(filepath.Dir(path))
}

// SamplesFromPaths builds samples for explicitly listed experiment
// directories.
func SamplesFromPaths(paths []string) []Sample {
	samples := make([]Sample, len(paths))
	for i, path := range paths {
		samples[i] = Sample{
			DataPath:   path,
			ID:         fmt.Sprintf("sampleID_%d", i),
			Type:       TypeSample,
			Experiment: "experiment_",
			FolderID:   folderID(path),
		}
	}
	return samples
}

// Classify assigns sample types from ID patterns. Order matters: an ID
// containing "sltr" anywhere is a serum long-term reference even though
// it also matches the "ltr" prefix. IDs matching no pattern keep the type
// they came with.
func Classify(samples []Sample) []Sample {
	out := make([]Sample, len(samples))
	copy(out, samples)
	for i := range out {
		id := strings.ToLower(out[i].ID)
		switch {
		case strings.Contains(id, TypeSLTR):
			out[i].Type = TypeSLTR
		case strings.HasPrefix(id, TypeLTR):
			out[i].Type = TypeLTR
		case strings.HasPrefix(id, TypePQC):
			out[i].Type = TypePQC
		case strings.HasPrefix(id, TypeQC):
			out[i].Type = TypeQC
		}
	}
	return out
}

// makeUnique suffixes repeated names with their occurrence count, so the
// first stays bare and the second becomes name_1.
func makeUnique(names []string) []string {
	seen := make(map[string]int, len(names))
	out := make([]string, len(names))
	for i, name := range names {
		if n, ok := seen[name]; ok {
			seen[name] = n + 1
			out[i] = fmt.Sprintf("%s_%d", name, n+1)
			continue
		}
		seen[name] = 0
		out[i] = name
	}
	return out
}

// sampleKey derives the stable join key: the sample ID plus a short hash
// of the data path, so re-runs over the same tree produce the same keys
// while samples sharing an ID stay distinct.
func sampleKey(id, dataPath string) string {
	sum := md5.Sum([]byte(dataPath))
	return id + "_" + hex.EncodeToString(sum[:4])
}
