// Package logger builds configured log/slog loggers with a small
// functional-options surface: level, format (json/text), output and
// static attributes, plus an env-driven constructor.
package logger
