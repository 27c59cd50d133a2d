package glyphcache

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/gogpu/glyphcache/atlas"
)

// nopHandler is a slog.Handler that silently discards all log records.
// The Enabled method returns false so the caller skips message formatting
// entirely.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

// newNopLogger creates a logger that silently discards all output.
func newNopLogger() *slog.Logger { return slog.New(nopHandler{}) }

// loggerPtr stores the active logger. Accessed atomically so that
// SetLogger can be called concurrently with logging from any goroutine.
var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	loggerPtr.Store(newNopLogger())
}

// SetLogger configures the logger for glyphcache and the atlas package.
// By default nothing is logged. Pass nil to restore the silent default.
// The gpu package is configured separately with gpu.SetLogger.
//
// Log levels used:
//   - [slog.LevelDebug]: atlas rows created and evicted, draw call batches
//   - [slog.LevelInfo]: atlas repacks
//   - [slog.LevelWarn]: batches that do not fit the atlas
//
// Example:
//
//	glyphcache.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	})))
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = newNopLogger()
	}
	loggerPtr.Store(l)
	atlas.SetLogger(l)
}

// Logger returns the current logger used by glyphcache.
func Logger() *slog.Logger {
	return loggerPtr.Load()
}
