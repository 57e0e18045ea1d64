package logging

import (
	"log/slog"
	"os"
	"strings"
)

// Config selects the process-wide logger. Level and Format come from the
// log section of the application config; Service names the binary so the
// two planner processes are distinguishable in aggregated output.
type Config struct {
	Level   string
	Format  string
	Service string
}

// Setup installs the global slog default logger. Unknown levels fall back
// to info, unknown formats to JSON; a broken log config must never stop
// the process from starting.
func Setup(cfg Config) {
	lvl := ParseLevel(cfg.Level)
	opts := &slog.HandlerOptions{Level: lvl}

	var handler slog.Handler
	if strings.EqualFold(cfg.Format, "text") {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	logger := slog.New(handler)
	if cfg.Service != "" {
		logger = logger.With("service", cfg.Service)
	}
	slog.SetDefault(logger)
}

// ParseLevel maps a config string to a slog level, defaulting to info.
func ParseLevel(level string) slog.Level {
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
