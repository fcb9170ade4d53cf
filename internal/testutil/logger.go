// Package testutil provides test utilities for structured logging.
package testutil

import (
	"context"
	"log/slog"
	"sync"
	"testing"
)

// NewTestLogger returns a logger that writes to t.Log().
// Logs only appear on test failure or when running with -v.
func NewTestLogger(t testing.TB) *slog.Logger {
	t.Helper()
	return slog.New(slog.NewTextHandler(testWriter{t}, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
}

type testWriter struct {
	t testing.TB
}

func (w testWriter) Write(p []byte) (n int, err error) {
	w.t.Helper()
	w.t.Log(string(p))
	return len(p), nil
}

// CaptureLogger returns a logger that records every emitted message so
// tests can assert on warnings without parsing output.
func CaptureLogger() (*slog.Logger, *Records) {
	recs := &Records{}
	return slog.New(recs), recs
}

// Records collects log records emitted through a CaptureLogger.
type Records struct {
	mu      sync.Mutex
	entries []slog.Record
}

// Enabled implements slog.Handler.
func (r *Records) Enabled(context.Context, slog.Level) bool { return true }

// Handle implements slog.Handler.
func (r *Records) Handle(_ context.Context, rec slog.Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, rec)
	return nil
}

// WithAttrs implements slog.Handler.
func (r *Records) WithAttrs([]slog.Attr) slog.Handler { return r }

// WithGroup implements slog.Handler.
func (r *Records) WithGroup(string) slog.Handler { return r }

// Messages returns the recorded messages in emission order.
func (r *Records) Messages() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.entries))
	for i, rec := range r.entries {
		out[i] = rec.Message
	}
	return out
}

// CountLevel returns how many records were emitted at the given level.
func (r *Records) CountLevel(level slog.Level) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, rec := range r.entries {
		if rec.Level == level {
			n++
		}
	}
	return n
}
