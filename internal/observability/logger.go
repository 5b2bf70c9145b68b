package observability

import (
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/lmittmann/tint"
)

// Log categories used across the client
const (
	CategoryAgent     = "Agent"
	CategoryStream    = "Stream"
	CategoryTool      = "Tool"
	CategoryUI        = "UI"
	CategoryTelemetry = "Telemetry"
	CategoryConfig    = "Config"
)

var (
	mu     sync.RWMutex
	logger = NewLogger(os.Stderr, slog.LevelInfo, false)
)

// NewLogger builds a tint-backed slog logger. Errors are highlighted when
// colour is enabled.
func NewLogger(output io.Writer, level slog.Level, noColor bool) *slog.Logger {
	handler := tint.NewHandler(output, &tint.Options{
		Level:      level,
		AddSource:  false,
		TimeFormat: "2006-01-02 15:04:05.000",
		NoColor:    noColor,
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			if a.Value.Kind() == slog.KindAny {
				if _, ok := a.Value.Any().(error); ok {
					return tint.Attr(9, a)
				}
			}
			return a
		},
	})
	return slog.New(handler)
}

func Logger() *slog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

// SetLogger replaces the process logger. Commands call it once at startup.
func SetLogger(l *slog.Logger) {
	if l == nil {
		return
	}
	mu.Lock()
	logger = l
	mu.Unlock()
}

// WithFields returns a logger with additional fields.
func WithFields(kv ...any) *slog.Logger {
	return Logger().With(kv...)
}

// For returns the logger for a category.
func For(category string) *slog.Logger {
	return Logger().With("category", category)
}

// Discard is a logger that drops everything, handy in tests.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
