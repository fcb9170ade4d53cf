package bruker

import (
	"encoding/binary"
	"errors"
	"io"
	"log/slog"
	"math"
	"os"
)

// Intensities reads up to count signed 32-bit integers from a processed
// channel file (1r or 1i) and scales each by 2^nc. A file shorter than
// requested yields the values actually present; callers treat a short
// result as a soft failure signal. Open or read errors are logged and
// yield an empty slice, never an error.
func (r *Reader) Intensities(path string, count, nc int, bigEndian bool) []float64 {
	if count <= 0 {
		return nil
	}

	f, err := os.Open(path)
	if err != nil {
		r.logger.Warn("cannot open channel file", slog.String("path", path), slog.Any("error", err))
		return nil
	}
	defer f.Close()

	buf := make([]byte, 4*count)
	n, err := io.ReadFull(f, buf)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		r.logger.Warn("cannot read channel file", slog.String("path", path), slog.Any("error", err))
		return nil
	}
	n -= n % 4

	byteOrder := binary.ByteOrder(binary.LittleEndian)
	if bigEndian {
		byteOrder = binary.BigEndian
	}

	scale := math.Ldexp(1, nc)
	out := make([]float64, n/4)
	for i := range out {
		out[i] = float64(int32(byteOrder.Uint32(buf[4*i:]))) * scale
	}
	return out
}
