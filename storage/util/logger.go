package util

import (
	"github.com/rs/zerolog"
)

// Logger adapts a zerolog logger to the printf style logger interfaces of badger and
// pebble.
type Logger struct {
	log zerolog.Logger
}

func NewLogger(logger zerolog.Logger) *Logger {
	return &Logger{log: logger}
}

func (l *Logger) Errorf(msg string, args ...interface{}) {
	l.log.Error().Msgf(msg, args...)
}

func (l *Logger) Warningf(msg string, args ...interface{}) {
	l.log.Warn().Msgf(msg, args...)
}

func (l *Logger) Infof(msg string, args ...interface{}) {
	l.log.Info().Msgf(msg, args...)
}

func (l *Logger) Debugf(msg string, args ...interface{}) {
	l.log.Debug().Msgf(msg, args...)
}

// Fatalf logs at error level instead of exiting the process. The database reports the
// failure to its caller as well.
func (l *Logger) Fatalf(msg string, args ...interface{}) {
	l.log.Error().Bool("fatal", true).Msgf(msg, args...)
}
