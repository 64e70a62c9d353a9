package logging

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"taskpad/internal/store"
)

// New returns a text logger writing to path. The terminal belongs to the
// UI, so an empty path discards everything. The returned closer is never nil.
func New(path, level string) (*slog.Logger, io.Closer, error) {
	if strings.TrimSpace(path) == "" {
		return slog.New(slog.NewTextHandler(io.Discard, nil)), io.NopCloser(nil), nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, err
	}
	return NewWithWriter(f, level), f, nil
}

func NewWithWriter(w io.Writer, level string) *slog.Logger {
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{Level: ParseLevel(level)})
	return slog.New(handler)
}

func ParseLevel(v string) slog.Level {
	switch strings.ToUpper(strings.TrimSpace(v)) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Audit logs every committed store mutation at debug level.
func Audit(log *slog.Logger) store.Listener {
	return func(e store.Event) {
		log.Debug("task "+string(e.Kind),
			"id", e.Task.ID,
			"title", e.Task.Title,
			"status", string(e.Task.Status),
		)
	}
}
