// Package spectrum reads processed one-dimensional NMR spectra from Bruker
// experiment directories: it decodes the binary channels, constructs the
// chemical-shift axis from the processing parameters, and optionally
// removes the calibration offset, divides out an ERETIC factor, and
// resamples onto a common grid.
package spectrum

// Info carries the acquisition and processing metadata of a spectrum.
type Info struct {
	// SF is the spectrometer reference frequency in MHz.
	SF float64
	// PHC0 and PHC1 are the zero and first order phase corrections.
	PHC0 float64
	PHC1 float64
	// SR is the calibration offset in Hz, (SF-BF1)*1e6.
	SR float64
	// EreticFactor is the factor divided out of the intensities.
	// Meaningful only when EreticApplied is true.
	EreticFactor  float64
	EreticApplied bool
	// Uncalibrated reports whether the calibration offset was removed
	// from the axis.
	Uncalibrated bool
}

// Spectrum is a processed spectrum on an ascending ppm axis. Imag is nil
// unless the imaginary channel was requested.
type Spectrum struct {
	PPM       []float64
	Intensity []float64
	Imag      []float64
	Info      Info
}

// Normalize divides the intensities (and the imaginary channel when
// present) by factor and records the factor. Factor 1 is the conventional
// no-correction value and is not special-cased; IEEE semantics apply for
// factor 0.
func (s *Spectrum) Normalize(factor float64) {
	for i := range s.Intensity {
		s.Intensity[i] /= factor
	}
	for i := range s.Imag {
		s.Imag[i] /= factor
	}
	s.Info.EreticFactor = factor
	s.Info.EreticApplied = true
}
