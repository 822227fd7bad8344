// Package zero adapts a zerolog.Logger to the SDK logging facade.
package zero

import (
	"github.com/rs/zerolog"

	"github.com/geekforce/central.go/pkg/logger"
)

type zeroLogger struct {
	logger zerolog.Logger
}

// New wraps the given zerolog.Logger.
func New(l zerolog.Logger) logger.Logger {
	return &zeroLogger{logger: l}
}

func (l *zeroLogger) Error(msg string, args ...any) {
	l.logger.Error().Fields(args).Msg(msg)
}

func (l *zeroLogger) Warn(msg string, args ...any) {
	l.logger.Warn().Fields(args).Msg(msg)
}

func (l *zeroLogger) Info(msg string, args ...any) {
	l.logger.Info().Fields(args).Msg(msg)
}

func (l *zeroLogger) Debug(msg string, args ...any) {
	l.logger.Debug().Fields(args).Msg(msg)
}
