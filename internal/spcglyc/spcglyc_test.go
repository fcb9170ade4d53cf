package spcglyc

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phenolabs/nmrtab/internal/testutil"
)

// hundredths builds a ppm axis from lo to hi in steps, all expressed in
// hundredths of a ppm so grid values equal their decimal literals.
func hundredths(lo, hi, step int) []float64 {
	var out []float64
	for v := lo; v <= hi; v += step {
		out = append(out, float64(v)/100)
	}
	return out
}

func constantRow(n int, v float64) []float64 {
	row := make([]float64, n)
	for i := range row {
		row[i] = v
	}
	return row
}

func col(data [][]float64, name string) []float64 {
	for j, n := range Names {
		if n == name {
			out := make([]float64, len(data))
			for i := range data {
				out[i] = data[i][j]
			}
			return out
		}
	}
	return nil
}

func TestExtractConstantSpectrum(t *testing.T) {
	// 21 points from 3.00 to 3.40 ppm, step 0.02, constant intensity 10.
	ppm := hundredths(300, 340, 2)
	rows := [][]float64{constantRow(len(ppm), 10)}

	e := NewExtractor(testutil.NewTestLogger(t))
	res, err := e.Extract(rows, ppm, []string{"/data/plasma/10"})
	require.NoError(t, err)
	require.Len(t, res.Data, 1)

	got := res.Data[0]
	want := map[string]float64{
		"SPC_All":  1.2, // 3.20..3.30, six points
		"SPC3":     0.2, // 3.28 only: 3.30 sits on the open bound
		"SPC2":     0.4, // 3.24, 3.26
		"SPC1":     0.2, // 3.22 only: 3.20 sits on the open bound
		"Glyc_All": 0,
		"GlycA":    0,
		"GlycB":    0,
		"Alb1":     0,
		"Alb2":     0,
	}
	for j, name := range Names {
		if w, ok := want[name]; ok {
			assert.InDelta(t, w, got[j], 1e-9, name)
		}
	}

	spc32 := got[9]
	assert.Equal(t, 0.5, spc32, "SPC3_2")
	assert.True(t, math.IsInf(got[10], 1), "SPC_Glyc divides by an empty Glyc window")

	sum := got[1] + got[2] + got[3]
	assert.InDelta(t, 0.8, sum, 1e-9, "subregions exclude their shared bounds, so they do not tile SPC_All")
	assert.Less(t, sum, got[0])
}

func TestExtractHalvesFor3mmTubes(t *testing.T) {
	ppm := hundredths(300, 340, 2)
	row := constantRow(len(ppm), 10)
	rows := [][]float64{row, append([]float64(nil), row...)}

	e := NewExtractor(testutil.NewTestLogger(t))
	res, err := e.Extract(rows, ppm, []string{"/data/plasma/10", "/data/plasma_3MM/10"})
	require.NoError(t, err)

	five, three := res.Data[0], res.Data[1]
	for j, name := range Names {
		if math.IsInf(five[j], 0) {
			assert.True(t, math.IsInf(three[j], 1), name)
			continue
		}
		assert.InDelta(t, five[j]/2, three[j], 1e-12, "%s is halved, ratios included", name)
	}
	assert.InDelta(t, 0.25, three[9], 1e-12, "SPC3_2 after halving")
}

func TestExtractFlipsInvertedRows(t *testing.T) {
	ppm := hundredths(300, 340, 2)
	rows := [][]float64{
		constantRow(len(ppm), 10),
		constantRow(len(ppm), -10),
	}

	e := NewExtractor(testutil.NewTestLogger(t))
	res, err := e.Extract(rows, ppm, []string{"a", "b"})
	require.NoError(t, err)

	assert.Equal(t, res.Data[0], res.Data[1], "a flipped row matches its positive twin")
}

func TestExtractTrimsBaselineWaterAndHighField(t *testing.T) {
	ppm := []float64{0.1, 0.2, 0.3, 4.5, 4.6, 4.85, 4.9, 9.9, 10.0, 10.1}
	row := []float64{1, 1, 1, 1, 1, 1, 1, 2, 1, 1}

	e := NewExtractor(testutil.NewTestLogger(t))
	res, err := e.Extract([][]float64{row}, ppm, []string{"p"})
	require.NoError(t, err)

	// Retained axis: 0.3, 4.5, 4.9, 9.9 so dw = 4.2; Alb2 covers 9.9 only.
	assert.InDelta(t, 2*4.2, res.Data[0][8], 1e-12)
}

func TestExtractAuxRegions(t *testing.T) {
	ppm := hundredths(0, 340, 2)
	row := constantRow(len(ppm), -10)

	e := NewExtractor(testutil.NewTestLogger(t))
	res, err := e.Extract([][]float64{row}, ppm, []string{"p"})
	require.NoError(t, err)

	require.NotEmpty(t, res.TSP.PPM)
	assert.LessOrEqual(t, res.TSP.PPM[len(res.TSP.PPM)-1], 0.5)
	assert.Equal(t, -10.0, res.TSP.Rows[0][0], "TSP keeps the raw, unflipped intensities")

	require.NotEmpty(t, res.SPC.PPM)
	for _, p := range res.SPC.PPM {
		assert.Greater(t, p, 3.18)
		assert.Less(t, p, 3.32)
	}
	assert.Equal(t, 10.0, res.SPC.Rows[0][0], "SPC region reflects the polarity fix")

	require.NotEmpty(t, res.Glyc.PPM)
	for _, p := range res.Glyc.PPM {
		assert.Greater(t, p, 2.050)
		assert.Less(t, p, 2.118)
	}
}

func TestExtractRejectsMisshapenInput(t *testing.T) {
	e := NewExtractor(testutil.NewTestLogger(t))

	_, err := e.Extract([][]float64{{1, 2}}, []float64{1, 2, 3}, []string{"p"})
	assert.Error(t, err, "row length must match the axis")

	_, err = e.Extract([][]float64{{1, 2}}, []float64{1, 2}, nil)
	assert.Error(t, err, "every row needs a path")

	_, err = e.Extract([][]float64{{1, 2}}, []float64{0.1, 0.2}, []string{"p"})
	assert.Error(t, err, "nothing left after trimming")
}
