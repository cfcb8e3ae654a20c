// Package logging builds the service's structured logger: a thin
// wrapper choosing an slog handler and level, nothing more.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"reflect"
	"strings"
)

// New returns an slog.Logger writing to w (os.Stdout in production) at
// the given level ("debug", "info", "warn", "error"). Text output is
// used in development; JSON output is selected when level is "debug"
// so operators get structured fields for deep tracing.
func New(w io.Writer, level string) *slog.Logger {
	if w == nil {
		w = os.Stdout
	}

	opts := &slog.HandlerOptions{Level: parseLevel(level)}

	var handler slog.Handler
	if level == "debug" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	return slog.New(handler)
}

// EventListener builds a typed listener (wrap it with ebus.Typed to get
// an ebus.Listener) that logs every event of type T at info level as a
// structured slog record keyed by the event's type name.
func EventListener[T any](logger *slog.Logger) func(ctx context.Context, event T) error {
	name := reflect.TypeFor[T]().Name()
	return func(_ context.Context, event T) error {
		logger.Info(name, "event", event)
		return nil
	}
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
