package spectrum

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/phenolabs/nmrtab/internal/bruker"
)

// Option adjusts how a spectrum is read.
type Option func(*readOptions)

type readOptions struct {
	procno      int
	procsPath   string
	uncalibrate bool
	eretic      float64
	hasEretic   bool
	from, to    float64
	hasWindow   bool
	points      int
	imaginary   bool
}

// WithProcno selects the processing directory under pdata. Default 1.
func WithProcno(procno int) Option {
	return func(o *readOptions) { o.procno = procno }
}

// WithProcsFile overrides the procs file location.
func WithProcsFile(path string) Option {
	return func(o *readOptions) { o.procsPath = path }
}

// WithUncalibrate removes the calibration offset from the ppm axis.
func WithUncalibrate() Option {
	return func(o *readOptions) { o.uncalibrate = true }
}

// WithEretic divides the intensities by the given ERETIC factor.
func WithEretic(factor float64) Option {
	return func(o *readOptions) {
		o.eretic = factor
		o.hasEretic = true
	}
}

// WithWindow resamples the spectrum onto a uniform grid spanning
// [from, to] ppm.
func WithWindow(from, to float64) Option {
	return func(o *readOptions) {
		o.from = from
		o.to = to
		o.hasWindow = true
	}
}

// WithPoints sets the grid length used by WithWindow. Without it the grid
// keeps as many points as the original axis has inside the window.
func WithPoints(n int) Option {
	return func(o *readOptions) { o.points = n }
}

// WithImaginary also reads the imaginary channel (1i).
func WithImaginary() Option {
	return func(o *readOptions) { o.imaginary = true }
}

// Reader reads processed spectra from expno directories.
type Reader struct {
	files  *bruker.Reader
	logger *slog.Logger
}

// NewReader creates a Reader. If logger is nil, a discard logger is used.
func NewReader(logger *slog.Logger) *Reader {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Reader{files: bruker.NewReader(logger), logger: logger}
}

// Read reads the processed spectrum of an expno directory. Failures are
// soft: the error wraps ErrMissingSource, ErrMissingParameter, or
// ErrLengthMismatch, a warning is logged, and the caller moves on to the
// next sample.
func (r *Reader) Read(expno string, opts ...Option) (*Spectrum, error) {
	o := readOptions{procno: 1}
	for _, opt := range opts {
		opt(&o)
	}

	procsPath := o.procsPath
	if procsPath == "" {
		procsPath = bruker.ProcsFile(expno, o.procno)
	}
	acqusPath := bruker.AcqusFile(expno)
	realPath := bruker.RealFile(expno, o.procno)
	imagPath := bruker.ImagFile(expno, o.procno)

	if _, err := os.Stat(procsPath); err != nil {
		r.logger.Warn("procs file not found", slog.String("expno", expno))
		return nil, fmt.Errorf("read spectrum %s: procs: %w", expno, ErrMissingSource)
	}
	if _, err := os.Stat(acqusPath); err != nil {
		r.logger.Warn("acqus file not found", slog.String("expno", expno))
		return nil, fmt.Errorf("read spectrum %s: acqus: %w", expno, ErrMissingSource)
	}
	if _, err := os.Stat(realPath); err != nil {
		r.logger.Warn("spectrum data not found", slog.String("expno", expno))
		return nil, fmt.Errorf("read spectrum %s: 1r: %w", expno, ErrMissingSource)
	}
	if o.imaginary {
		if _, err := os.Stat(imagPath); err != nil {
			r.logger.Warn("imaginary data not found", slog.String("expno", expno))
			return nil, fmt.Errorf("read spectrum %s: 1i: %w", expno, ErrMissingSource)
		}
	}

	bytordp, ok1 := r.numericParam(procsPath, "BYTORDP")
	nc, ok2 := r.numericParam(procsPath, "NC_proc")
	size, ok3 := r.numericParam(procsPath, "FTSIZE")
	sf, ok4 := r.numericParam(procsPath, "SF")
	swP, ok5 := r.numericParam(procsPath, "SW_p")
	offset, ok6 := r.numericParam(procsPath, "OFFSET")
	phc0, ok7 := r.numericParam(procsPath, "PHC0")
	phc1, ok8 := r.numericParam(procsPath, "PHC1")
	bf1, ok9 := r.numericParam(acqusPath, "BF1")
	if !(ok1 && ok2 && ok3 && ok4 && ok5 && ok6 && ok7 && ok8 && ok9) {
		r.logger.Warn("empty parameter", slog.String("expno", expno))
		return nil, fmt.Errorf("read spectrum %s: %w", expno, ErrMissingParameter)
	}

	if phc1 != 0 {
		r.logger.Warn("first order phase expected to be 0 in IVDr experiments",
			slog.String("expno", expno), slog.Float64("phc1", phc1))
	}

	sw := swP / sf
	srPPM := (sf - bf1) * 1e6 / sf
	srHz := (sf - bf1) * 1e6

	if o.uncalibrate {
		offset += srPPM
	}

	bigEndian := bytordp != 0
	y := r.files.Intensities(realPath, int(size), int(nc), bigEndian)
	reverse(y)
	if len(y) < 2 {
		r.logger.Warn("spectrum data empty", slog.String("expno", expno))
		return nil, fmt.Errorf("read spectrum %s: 1r: %w", expno, ErrMissingSource)
	}

	n := len(y)
	inc := sw / float64(n-1)
	x := make([]float64, n)
	for i := range x {
		x[i] = offset - float64(n-1-i)*inc
	}

	var yi []float64
	if o.imaginary {
		yi = r.files.Intensities(imagPath, int(size), int(nc), bigEndian)
		reverse(yi)
		if len(yi) > n {
			yi = yi[:n]
		}
		if len(yi) != len(y) {
			r.logger.Warn("imaginary and real channels have different dimensions",
				slog.String("expno", expno))
			return nil, fmt.Errorf("read spectrum %s: %w", expno, ErrLengthMismatch)
		}
	}

	spec := &Spectrum{
		PPM:       x,
		Intensity: y,
		Imag:      yi,
		Info: Info{
			SF:           sf,
			PHC0:         phc0,
			PHC1:         phc1,
			SR:           srHz,
			Uncalibrated: o.uncalibrate,
		},
	}

	if o.hasEretic {
		spec.Normalize(o.eretic)
	}

	if o.hasWindow {
		if err := r.Resample(spec, o.from, o.to, o.points); err != nil {
			return nil, fmt.Errorf("read spectrum %s: %w", expno, err)
		}
	}

	return spec, nil
}

func (r *Reader) numericParam(path, name string) (float64, bool) {
	v, ok := r.files.Param(path, name)
	if !ok {
		return 0, false
	}
	return v.Float()
}

func reverse(s []float64) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}
