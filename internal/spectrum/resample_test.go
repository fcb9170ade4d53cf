package spectrum

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phenolabs/nmrtab/internal/testutil"
)

func TestResampleDefaultLengthCountsInteriorPoints(t *testing.T) {
	s := &Spectrum{
		PPM:       []float64{0, 1, 2, 3, 4, 5},
		Intensity: []float64{0, 1, 2, 3, 4, 5},
	}

	r := NewReader(testutil.NewTestLogger(t))
	require.NoError(t, r.Resample(s, 0.5, 4.5, 0))

	require.Len(t, s.PPM, 4, "points strictly inside (0.5, 4.5)")
	assert.Equal(t, 0.5, s.PPM[0])
	assert.Equal(t, 4.5, s.PPM[3])
	assert.Nil(t, s.Imag)
}

func TestResampleReversedWindowWarnsAndProceeds(t *testing.T) {
	s := &Spectrum{
		PPM:       []float64{1, 2, 3, 4},
		Intensity: []float64{1, 2, 3, 4},
	}

	logger, recs := testutil.CaptureLogger()
	r := NewReader(logger)
	require.NoError(t, r.Resample(s, 3, 1, 4))

	assert.GreaterOrEqual(t, recs.CountLevel(slog.LevelWarn), 1)
	assert.Equal(t, 3.0, s.PPM[0], "the grid still follows the given bounds")
	assert.Equal(t, 1.0, s.PPM[3])
}

func TestResampleLengthMismatch(t *testing.T) {
	s := &Spectrum{
		PPM:       []float64{1, 2, 3},
		Intensity: []float64{1, 2},
	}

	logger, recs := testutil.CaptureLogger()
	r := NewReader(logger)
	err := r.Resample(s, 1, 3, 2)
	assert.ErrorIs(t, err, ErrLengthMismatch)
	assert.Equal(t, 1, recs.CountLevel(slog.LevelWarn))
}

func TestResampleExtrapolatesOutsideAxis(t *testing.T) {
	// y = 2x + 1 extended beyond both ends of the axis.
	s := &Spectrum{
		PPM:       []float64{0, 1, 2, 3},
		Intensity: []float64{1, 3, 5, 7},
	}

	r := NewReader(testutil.NewTestLogger(t))
	require.NoError(t, r.Resample(s, -1, 4, 6))

	assert.InDelta(t, -1.0, s.Intensity[0], 1e-9)
	assert.InDelta(t, 9.0, s.Intensity[5], 1e-9)
}

func TestNormalizeDividesBothChannels(t *testing.T) {
	s := &Spectrum{
		PPM:       []float64{1, 2},
		Intensity: []float64{10, 20},
		Imag:      []float64{4, 8},
	}

	s.Normalize(4)
	assert.Equal(t, []float64{2.5, 5}, s.Intensity)
	assert.Equal(t, []float64{1, 2}, s.Imag)
	assert.True(t, s.Info.EreticApplied)
	assert.Equal(t, 4.0, s.Info.EreticFactor)
}
