package logger

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

//go:generate mockgen -destination=../../internal/domain/mocks/mock_logger.go -package=mocks github.com/Ironclad/ironclad/pkg/logger Logger

type Logger interface {
	Debug(msg string)
	Info(msg string)
	Warn(msg string)
	Error(msg string)
	Fatal(msg string)
	WithField(key string, value interface{}) Logger
	WithFields(fields map[string]interface{}) Logger
}

type zerologLogger struct {
	logger zerolog.Logger
}

func NewLogger() Logger {
	return NewLoggerWithLevel("info")
}

// NewLoggerWithLevel builds a stdout JSON logger. Unknown levels fall back to info.
func NewLoggerWithLevel(level string) Logger {
	return newLogger(os.Stdout, level)
}

func newLogger(w io.Writer, level string) Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}

	return &zerologLogger{
		logger: zerolog.New(w).Level(lvl).With().Timestamp().Logger(),
	}
}

func (l *zerologLogger) Debug(msg string) {
	l.logger.Debug().Msg(msg)
}

func (l *zerologLogger) Info(msg string) {
	l.logger.Info().Msg(msg)
}

func (l *zerologLogger) Warn(msg string) {
	l.logger.Warn().Msg(msg)
}

func (l *zerologLogger) Error(msg string) {
	l.logger.Error().Msg(msg)
}

func (l *zerologLogger) Fatal(msg string) {
	l.logger.Fatal().Msg(msg)
}

func (l *zerologLogger) WithField(key string, value interface{}) Logger {
	return &zerologLogger{
		logger: l.logger.With().Interface(key, value).Logger(),
	}
}

func (l *zerologLogger) WithFields(fields map[string]interface{}) Logger {
	ctx := l.logger.With()
	for key, value := range fields {
		ctx = ctx.Interface(key, value)
	}
	return &zerologLogger{logger: ctx.Logger()}
}
