// Package dataset assembles analysis-ready datasets from batches of
// Bruker experiments. A build reads one data source per sample into a
// matrix (resampled spectra, composite biomarkers, or report values),
// keeps only samples present in every requested source, and derives the
// companion tables: per-sample metadata, long-format acquisition
// parameters, and a variable catalogue. All tables join on stable sample
// keys.
package dataset

import (
	"errors"
	"time"
)

// ParserVersion is recorded in every metadata row.
const ParserVersion = "0.1.0"

// Mode selects what fills the data matrix.
type Mode string

const (
	// ModeSpec reads processed spectra onto a common ppm grid.
	ModeSpec Mode = "spec"
	// ModeSpcglyc reads spectra with calibration removed and reduces them
	// to the SPC and Glyc composite biomarkers.
	ModeSpcglyc Mode = "spcglyc"
	// ModeLipo reads the lipoprotein subclass panel values.
	ModeLipo Mode = "brxlipo"
	// ModePacs reads the PACS screening values, censoring included.
	ModePacs Mode = "brxpacs"
	// ModeSmall reads the small molecule quantification values.
	ModeSmall Mode = "brxsm"
)

// Data types recorded in metadata.
const (
	DataNMR   = "NMR"
	DataQuant = "QUANT"
)

// Sample types assigned by Classify.
const (
	TypeSample = "sample"
	TypeSLTR   = "sltr"
	TypeLTR    = "ltr"
	TypePQC    = "pqc"
	TypeQC     = "qc"
)

// Parameter sources.
const (
	SourceAcqus = "acqus"
	SourceQC    = "qc"
)

var (
	// ErrNoSamples signals an empty input batch.
	ErrNoSamples = errors.New("no samples")

	// ErrNoData signals that no sample survived reading and alignment.
	ErrNoData = errors.New("no data read")
)

// Sample is one experiment queued for assembly.
type Sample struct {
	DataPath   string
	ID         string
	Type       string
	Experiment string
	FolderID   string
}

// Metadata is one aligned sample's descriptive record.
type Metadata struct {
	SampleKey        string
	DataPath         string
	SampleID         string
	SampleType       string
	Experiment       string
	FolderID         string
	ProjectName      string
	CohortName       string
	RunName          string
	SampleMatrixType string
	Method           string
	DataType         string
	IsIVDr           bool
	TubeType         string
	CreatedAt        time.Time
	ParserVersion    string
}

// Param is one long-format parameter row.
type Param struct {
	SampleKey string
	Name      string
	Value     string
	Source    string
}

// Variable describes one data matrix column. PPM fields are NaN where no
// spectral position applies.
type Variable struct {
	ID          string
	Name        string
	Type        string
	Unit        string
	PPMCenter   float64
	PPMMin      float64
	PPMMax      float64
	Description string
}

// Region is a diagnostic spectral window aligned to the dataset rows.
type Region struct {
	Keys []string
	PPM  []float64
	Rows [][]float64
}

// Dataset is the aligned result of a Build. Row i of the matrix, Keys,
// and Metadata describe the same sample. Rows carries numeric matrices
// (spec, spcglyc, brxlipo); Text carries the textual matrices (brxpacs,
// brxsm) where censored values like "< LOD" survive verbatim. Exactly one
// of the two is set.
type Dataset struct {
	Mode     Mode
	DataType string
	Method   string
	BaseName string
	IsIVDr   bool

	Keys    []string
	Columns []string
	Rows    [][]float64
	Imag    [][]float64
	Text    [][]string

	Metadata  []Metadata
	Params    []Param
	Variables []Variable

	// Diagnostic regions, spcglyc builds only.
	TSP        *Region
	SPCRegion  *Region
	GlycRegion *Region
}
