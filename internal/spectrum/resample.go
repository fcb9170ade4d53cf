package spectrum

import (
	"fmt"
	"log/slog"

	"github.com/phenolabs/nmrtab/internal/interp"
)

// Resample interpolates the spectrum onto a uniform grid of lengthOut
// points spanning [from, to] ppm. A lengthOut <= 0 keeps as many points as
// the original axis has strictly inside the window. Grid points outside
// the original axis are extrapolated with the boundary cubic.
func (r *Reader) Resample(s *Spectrum, from, to float64, lengthOut int) error {
	if from > to {
		r.logger.Warn("window start should be smaller than window end",
			slog.Float64("from", from), slog.Float64("to", to))
	}

	if lengthOut <= 0 {
		for _, p := range s.PPM {
			if p > from && p < to {
				lengthOut++
			}
		}
	}

	if len(s.PPM) != len(s.Intensity) {
		r.logger.Warn("axis and intensities have different lengths",
			slog.Int("axis", len(s.PPM)), slog.Int("intensities", len(s.Intensity)))
		return fmt.Errorf("resample: %w", ErrLengthMismatch)
	}

	grid := Linspace(from, to, lengthOut)

	spline, err := interp.NewSpline(s.PPM, s.Intensity)
	if err != nil {
		return fmt.Errorf("resample: %w", err)
	}
	y := spline.Eval(grid)

	if s.Imag != nil {
		splineIm, err := interp.NewSpline(s.PPM, s.Imag)
		if err != nil {
			return fmt.Errorf("resample: %w", err)
		}
		s.Imag = splineIm.Eval(grid)
	}

	s.PPM = grid
	s.Intensity = y
	return nil
}

// Linspace returns n evenly spaced points from a to b inclusive.
func Linspace(a, b float64, n int) []float64 {
	switch {
	case n <= 0:
		return []float64{}
	case n == 1:
		return []float64{a}
	}
	out := make([]float64, n)
	step := (b - a) / float64(n-1)
	for i := range out {
		out[i] = a + float64(i)*step
	}
	out[n-1] = b
	return out
}
