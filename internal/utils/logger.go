package utils

import (
	"log/slog"
	"os"
)

// Logger is the logging interface shared by handlers and wiring code.
// Services take *slog.Logger directly; this wrapper exists for the HTTP layer
// where request-scoped fields are attached repeatedly.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)

	With(args ...any) Logger

	LogError(err error, msg string, args ...any)
}

// SlogLogger implements Logger on top of slog
type SlogLogger struct {
	logger *slog.Logger
}

func NewSlogLogger(logger *slog.Logger) Logger {
	return &SlogLogger{logger: logger}
}

// NewDefaultLogger creates the production logger with JSON output
func NewDefaultLogger() Logger {
	return NewSlogLogger(NewDefaultSlog())
}

// NewDevelopmentLogger creates a text logger with debug level enabled
func NewDevelopmentLogger() Logger {
	return NewSlogLogger(NewDevelopmentSlog())
}

// NewDefaultSlog returns the underlying slog logger for services that want
// slog directly.
func NewDefaultSlog() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
}

func NewDevelopmentSlog() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
}

func (l *SlogLogger) Debug(msg string, args ...any) { l.logger.Debug(msg, args...) }
func (l *SlogLogger) Info(msg string, args ...any)  { l.logger.Info(msg, args...) }
func (l *SlogLogger) Warn(msg string, args ...any)  { l.logger.Warn(msg, args...) }
func (l *SlogLogger) Error(msg string, args ...any) { l.logger.Error(msg, args...) }

func (l *SlogLogger) With(args ...any) Logger {
	return &SlogLogger{logger: l.logger.With(args...)}
}

func (l *SlogLogger) LogError(err error, msg string, args ...any) {
	args = append(args, "error", err)
	l.logger.Error(msg, args...)
}
