package logger

import (
	"log/slog"

	pkgconfig "github.com/lessonforge/tutorkit/pkg/config"
)

// Config carries environment-driven logger settings.
type Config struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`  // debug, info, warn, error
	Format Format `env:"LOG_FORMAT" envDefault:"json"` // json or text
}

// NewFromEnv builds a logger configured from LOG_* environment
// variables, falling back to defaults when they are unset.
func NewFromEnv(opts ...Option) (*slog.Logger, error) {
	var cfg Config
	if err := pkgconfig.Load(&cfg); err != nil {
		return nil, err
	}

	level := slog.LevelInfo
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	base := []Option{WithLevel(level), WithFormat(cfg.Format)}
	return New(append(base, opts...)...), nil
}
