// Package logger defines the logging facade used across the SDK.
//
// The SDK never logs through a concrete library directly; everything
// goes through Logger so applications can plug in their own backend.
// New returns the default implementation backed by log/slog, and
// pkg/logger/zero provides a zerolog-backed one.
package logger

import (
	"log/slog"
)

// Logger accepts a message followed by alternating key/value pairs,
// matching the log/slog calling convention.
type Logger interface {
	Error(msg string, args ...any)
	Warn(msg string, args ...any)
	Info(msg string, args ...any)
	Debug(msg string, args ...any)
}

type slogLogger struct {
	logger *slog.Logger
}

// New returns a Logger backed by the given slog handler.
func New(h slog.Handler) Logger {
	return &slogLogger{logger: slog.New(h)}
}

func (l *slogLogger) Error(msg string, args ...any) {
	l.logger.Error(msg, args...)
}

func (l *slogLogger) Warn(msg string, args ...any) {
	l.logger.Warn(msg, args...)
}

func (l *slogLogger) Info(msg string, args ...any) {
	l.logger.Info(msg, args...)
}

func (l *slogLogger) Debug(msg string, args ...any) {
	l.logger.Debug(msg, args...)
}
