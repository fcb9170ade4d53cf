package spectrum

import "errors"

var (
	// ErrMissingSource signals an absent or empty input file (procs, acqus,
	// 1r, 1i). Callers log and skip the sample.
	ErrMissingSource = errors.New("missing source file")

	// ErrMissingParameter signals a required parameter that is absent or
	// not numeric.
	ErrMissingParameter = errors.New("missing parameter")

	// ErrLengthMismatch signals channels of different lengths where equal
	// lengths are required.
	ErrLengthMismatch = errors.New("length mismatch")
)
