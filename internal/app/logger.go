package app

import (
	"io"
	"log/slog"
)

// newLogger builds the application logger from cfg. The global logger is
// left alone so several apps can run side by side with their own output.
func newLogger(cfg *Config, outW io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(cfg.LogLevel)}

	var handler slog.Handler
	switch cfg.LogFormat {
	case "json":
		handler = slog.NewJSONHandler(outW, opts)
	default:
		handler = slog.NewTextHandler(outW, opts)
	}

	return slog.New(handler).With("app", "atomgrid")
}

// parseLevel maps a validated level name onto slog, defaulting to info.
func parseLevel(name string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(name)); err != nil {
		return slog.LevelInfo
	}
	return level
}
