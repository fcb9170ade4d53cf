// Package interp provides cubic spline interpolation over strictly
// increasing sample grids, with polynomial extrapolation beyond the
// fitted domain.
package interp

import (
	"errors"
	"fmt"
	"sort"
)

// Spline is a cubic interpolating spline with not-a-knot boundary
// conditions. Evaluation outside the fitted domain extends the boundary
// segment's cubic instead of clamping, which tolerates query points that
// fall slightly outside the sample range.
//
// Degenerate sample counts degrade gracefully: three points fit the unique
// parabola, two points a line, one point a constant.
type Spline struct {
	x, y []float64
	// Per-segment coefficients, len(x)-1 entries; nil below four points.
	// On segment i: f(t) = y[i] + h*(b[i] + h*(c[i] + h*d[i])), h = t-x[i].
	b, c, d []float64
}

// NewSpline fits a spline to the given samples. x must be strictly
// increasing and the same length as y. The input slices are copied.
func NewSpline(x, y []float64) (*Spline, error) {
	if len(x) != len(y) {
		return nil, fmt.Errorf("interp: sample length mismatch (%d x vs %d y)", len(x), len(y))
	}
	if len(x) == 0 {
		return nil, errors.New("interp: no samples")
	}
	for i := 1; i < len(x); i++ {
		if x[i] <= x[i-1] {
			return nil, fmt.Errorf("interp: x not strictly increasing at index %d (%g after %g)", i, x[i], x[i-1])
		}
	}

	s := &Spline{
		x: append([]float64(nil), x...),
		y: append([]float64(nil), y...),
	}
	if len(x) >= 4 {
		s.fit()
	}
	return s, nil
}

// fit solves for the spline moments (second derivatives at the knots)
// under not-a-knot conditions and converts them to segment coefficients.
func (s *Spline) fit() {
	n := len(s.x)
	h := make([]float64, n-1)
	for i := range h {
		h[i] = s.x[i+1] - s.x[i]
	}

	// Unknowns are the interior moments M[1..n-2]. The boundary moments
	// are eliminated through the not-a-knot relations
	//   M[0]   = (1+h[0]/h[1])*M[1] - (h[0]/h[1])*M[2]
	//   M[n-1] = (1+h[n-2]/h[n-3])*M[n-2] - (h[n-2]/h[n-3])*M[n-3]
	m := n - 2
	lower := make([]float64, m)
	diag := make([]float64, m)
	upper := make([]float64, m)
	rhs := make([]float64, m)

	for i := 1; i <= n-2; i++ {
		k := i - 1
		rhs[k] = 6 * ((s.y[i+1]-s.y[i])/h[i] - (s.y[i]-s.y[i-1])/h[i-1])
		lower[k] = h[i-1]
		diag[k] = 2 * (h[i-1] + h[i])
		upper[k] = h[i]
	}
	r0 := h[0] / h[1]
	diag[0] += h[0] * (1 + r0)
	upper[0] -= h[0] * r0
	lower[0] = 0
	rn := h[n-2] / h[n-3]
	diag[m-1] += h[n-2] * (1 + rn)
	lower[m-1] -= h[n-2] * rn
	upper[m-1] = 0

	// Thomas algorithm.
	for k := 1; k < m; k++ {
		w := lower[k] / diag[k-1]
		diag[k] -= w * upper[k-1]
		rhs[k] -= w * rhs[k-1]
	}
	mom := make([]float64, n)
	mom[n-2] = rhs[m-1] / diag[m-1]
	for k := m - 2; k >= 0; k-- {
		mom[k+1] = (rhs[k] - upper[k]*mom[k+2]) / diag[k]
	}
	mom[0] = (1+r0)*mom[1] - r0*mom[2]
	mom[n-1] = (1+rn)*mom[n-2] - rn*mom[n-3]

	s.b = make([]float64, n-1)
	s.c = make([]float64, n-1)
	s.d = make([]float64, n-1)
	for i := 0; i < n-1; i++ {
		s.b[i] = (s.y[i+1]-s.y[i])/h[i] - h[i]*(2*mom[i]+mom[i+1])/6
		s.c[i] = mom[i] / 2
		s.d[i] = (mom[i+1] - mom[i]) / (6 * h[i])
	}
}

// At evaluates the spline at t. Points outside [x[0], x[n-1]] are
// extrapolated with the nearest boundary segment.
func (s *Spline) At(t float64) float64 {
	n := len(s.x)
	switch n {
	case 1:
		return s.y[0]
	case 2:
		return s.y[0] + (t-s.x[0])*(s.y[1]-s.y[0])/(s.x[1]-s.x[0])
	case 3:
		// Newton form of the unique parabola through the three samples.
		b0 := (s.y[1] - s.y[0]) / (s.x[1] - s.x[0])
		b1 := ((s.y[2]-s.y[1])/(s.x[2]-s.x[1]) - b0) / (s.x[2] - s.x[0])
		return s.y[0] + (t-s.x[0])*(b0+b1*(t-s.x[1]))
	}

	i := sort.SearchFloat64s(s.x, t) - 1
	if i < 0 {
		i = 0
	} else if i > n-2 {
		i = n - 2
	}
	h := t - s.x[i]
	return s.y[i] + h*(s.b[i]+h*(s.c[i]+h*s.d[i]))
}

// Eval evaluates the spline at every point in ts and returns the results
// in a freshly allocated slice of the same length.
func (s *Spline) Eval(ts []float64) []float64 {
	out := make([]float64, len(ts))
	for i, t := range ts {
		out[i] = s.At(t)
	}
	return out
}
