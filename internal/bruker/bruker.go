// Package bruker reads the on-disk layout of Bruker NMR experiments:
// JCAMP-style parameter files (acqus, procs), binary intensity channels
// (1r, 1i), and title files.
//
// An experiment number directory (expno) contains acqus and a pdata/
// directory with one numbered processing directory (procno) per processed
// spectrum.
package bruker

import (
	"log/slog"
	"path/filepath"
	"strconv"
)

// Reader reads Bruker experiment files. Missing files and parameters are
// soft conditions: they are logged and reported through empty results so a
// batch can continue past a bad experiment.
type Reader struct {
	logger *slog.Logger
}

// NewReader creates a Reader. If logger is nil, a discard logger is used.
func NewReader(logger *slog.Logger) *Reader {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Reader{logger: logger}
}

// AcqusFile returns the acquisition parameter file path for an expno.
func AcqusFile(expno string) string {
	return filepath.Join(expno, "acqus")
}

// PdataDir returns the processing directory for a procno.
func PdataDir(expno string, procno int) string {
	return filepath.Join(expno, "pdata", strconv.Itoa(procno))
}

// ProcsFile returns the processing parameter file path.
func ProcsFile(expno string, procno int) string {
	return filepath.Join(PdataDir(expno, procno), "procs")
}

// RealFile returns the processed real channel file path (1r).
func RealFile(expno string, procno int) string {
	return filepath.Join(PdataDir(expno, procno), "1r")
}

// ImagFile returns the processed imaginary channel file path (1i).
func ImagFile(expno string, procno int) string {
	return filepath.Join(PdataDir(expno, procno), "1i")
}

// TitleFile returns the title file path.
func TitleFile(expno string, procno int) string {
	return filepath.Join(PdataDir(expno, procno), "title")
}
