// Package spcglyc computes supramolecular phospholipid composite (SPC)
// and glycoprotein (Glyc) biomarkers from calibrated one-dimensional
// spectra. The integration windows and the ratio definitions follow the
// published IVDr biomarker method; results feed the QUANT data tables.
package spcglyc

import (
	"fmt"
	"log/slog"
	"strings"
)

// Names lists the biomarker columns in output order.
var Names = []string{
	"SPC_All", "SPC3", "SPC2", "SPC1",
	"Glyc_All", "GlycA", "GlycB",
	"Alb1", "Alb2",
	"SPC3_2", "SPC_Glyc",
}

// Region is a contiguous slice of the spectra kept for diagnostics, one
// row per sample over a shared ppm axis.
type Region struct {
	PPM  []float64
	Rows [][]float64
}

// Result holds the biomarker matrix (one row per sample, columns ordered
// as Names) and the diagnostic regions around the TSP, SPC, and Glyc
// signals.
type Result struct {
	Data [][]float64
	TSP  *Region
	SPC  *Region
	Glyc *Region
}

// Extractor computes biomarkers over a batch of spectra.
type Extractor struct {
	logger *slog.Logger
}

// NewExtractor creates an Extractor. If logger is nil, a discard logger
// is used.
func NewExtractor(logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Extractor{logger: logger}
}

// Extract computes the eleven biomarkers for every row. All rows share
// the ppm axis; paths carry the per-sample data path, consulted for the
// 3mm tube correction. Division by an empty window produces IEEE Inf or
// NaN, which are legitimate outputs.
//
// The water region (4.6-4.85 ppm), the baseline below 0.2 ppm, and
// everything above 10 ppm are removed before integration. A row whose
// 3.2-3.3 ppm region sums negative is flipped whole, correcting spectra
// processed 180 degrees out of phase. Samples in 3mm tubes carry half the
// analyte volume, so every scalar, ratios included, is halved.
func (e *Extractor) Extract(rows [][]float64, ppm []float64, paths []string) (*Result, error) {
	if len(rows) != len(paths) {
		return nil, fmt.Errorf("spcglyc: %d rows but %d paths", len(rows), len(paths))
	}
	for i := range rows {
		if len(rows[i]) != len(ppm) {
			return nil, fmt.Errorf("spcglyc: row %d has %d points, axis has %d", i, len(rows[i]), len(ppm))
		}
	}

	keep := make([]int, 0, len(ppm))
	for j, p := range ppm {
		if (p >= 4.6 && p <= 4.85) || p <= 0.2 || p >= 10.0 {
			continue
		}
		keep = append(keep, j)
	}
	if len(keep) < 2 {
		return nil, fmt.Errorf("spcglyc: only %d points remain after trimming", len(keep))
	}

	tppm := make([]float64, len(keep))
	for k, j := range keep {
		tppm[k] = ppm[j]
	}
	dw := tppm[1] - tppm[0]

	trimmed := make([][]float64, len(rows))
	flipped := 0
	for i, row := range rows {
		tr := make([]float64, len(keep))
		for k, j := range keep {
			tr[k] = row[j]
		}
		sum := 0.0
		for k, p := range tppm {
			if p >= 3.2 && p <= 3.3 {
				sum += tr[k]
			}
		}
		if sum < 0 {
			for k := range tr {
				tr[k] = -tr[k]
			}
			flipped++
		}
		trimmed[i] = tr
	}
	if flipped > 0 {
		e.logger.Debug("flipped spectra with inverted phase", slog.Int("count", flipped))
	}

	integrate := func(row []float64, lo, hi float64) float64 {
		s := 0.0
		for k, p := range tppm {
			if p > lo && p < hi {
				s += row[k]
			}
		}
		return s * dw
	}

	data := make([][]float64, len(rows))
	corrected := 0
	for i, tr := range trimmed {
		spcAll := integrate(tr, 3.18, 3.32)
		spc3 := integrate(tr, 3.262, 3.3)
		spc2 := integrate(tr, 3.236, 3.262)
		spc1 := integrate(tr, 3.2, 3.236)
		glycAll := integrate(tr, 2.050, 2.118)
		glycA := integrate(tr, 2.050, 2.089)
		glycB := integrate(tr, 2.089, 2.118)
		alb1 := integrate(tr, 0.2, 0.7)
		alb2 := integrate(tr, 6.0, 10.0)

		vals := []float64{
			spcAll, spc3, spc2, spc1,
			glycAll, glycA, glycB,
			alb1, alb2,
			spc3 / spc2, spcAll / glycAll,
		}
		if strings.Contains(strings.ToLower(paths[i]), "3mm") {
			for k := range vals {
				vals[k] /= 2
			}
			corrected++
		}
		data[i] = vals
	}
	if corrected > 0 {
		e.logger.Debug("applied 3mm tube correction", slog.Int("count", corrected))
	}

	return &Result{
		Data: data,
		TSP:  cutRegion(ppm, rows, func(p float64) bool { return p <= 0.5 }),
		SPC:  cutRegion(tppm, trimmed, func(p float64) bool { return p > 3.18 && p < 3.32 }),
		Glyc: cutRegion(tppm, trimmed, func(p float64) bool { return p > 2.050 && p < 2.118 }),
	}, nil
}

// cutRegion copies the columns selected by keep into a Region.
func cutRegion(ppm []float64, rows [][]float64, keep func(float64) bool) *Region {
	var idx []int
	for j, p := range ppm {
		if keep(p) {
			idx = append(idx, j)
		}
	}
	region := &Region{PPM: make([]float64, len(idx)), Rows: make([][]float64, len(rows))}
	for k, j := range idx {
		region.PPM[k] = ppm[j]
	}
	for i, row := range rows {
		cut := make([]float64, len(idx))
		for k, j := range idx {
			cut[k] = row[j]
		}
		region.Rows[i] = cut
	}
	return region
}
