// Package logging holds the process-wide structured logger.
package logging

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync/atomic"

	"github.com/m-mizutani/clog"
	"github.com/m-mizutani/goerr/v2"
)

var defaultLogger atomic.Pointer[slog.Logger]

func init() {
	defaultLogger.Store(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

type ctxKey struct{}

// New builds a logger writing human-oriented lines to w.
func New(w io.Writer, level slog.Level, color bool) *slog.Logger {
	handler := clog.New(
		clog.WithWriter(w),
		clog.WithLevel(level),
		clog.WithColor(color),
	)
	return slog.New(handler)
}

// ParseLevel converts a level name such as "debug" or "WARN".
func ParseLevel(name string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, goerr.New("unknown log level", goerr.V("level", name))
}

// Default returns the process logger. Until SetDefault is called it discards
// everything, which keeps library use and tests quiet.
func Default() *slog.Logger {
	return defaultLogger.Load()
}

// SetDefault replaces the process logger.
func SetDefault(l *slog.Logger) {
	if l != nil {
		defaultLogger.Store(l)
	}
}

// With returns a context carrying l.
func With(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// From returns the logger stored in ctx, or Default.
func From(ctx context.Context) *slog.Logger {
	if ctx != nil {
		if l, ok := ctx.Value(ctxKey{}).(*slog.Logger); ok && l != nil {
			return l
		}
	}
	return Default()
}

// ErrorAttrs expands err into log attributes, including goerr values when
// present.
func ErrorAttrs(err error) []any {
	attrs := []any{slog.String("error", err.Error())}
	var ge *goerr.Error
	if errors.As(err, &ge) {
		attrs = append(attrs, slog.Any("values", ge.Values()))
	}
	return attrs
}
