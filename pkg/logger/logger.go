package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Logger exposes logging methods for common severity levels.
type Logger interface {
	Debugf(format string, args ...any)
	// Debugw logs a message with structured fields.
	Debugw(msg string, fields map[string]any)
	Infof(format string, args ...any)
	// Infow logs a message with structured fields.
	Infow(msg string, fields map[string]any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

// ZerologLogger implements Logger using rs/zerolog.
type ZerologLogger struct {
	// base carries level and timestamp but no component
	base zerolog.Logger
	log  zerolog.Logger
}

// Options controls the output of New
type Options struct {
	// Env "dev" switches to a human readable console writer
	Env   string
	Level string
	Out   io.Writer
}

// New creates a logger tagged with the given component
func New(component string, opts Options) *ZerologLogger {
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}
	if strings.ToLower(opts.Env) == "dev" {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}
	level, err := zerolog.ParseLevel(strings.ToLower(opts.Level))
	if err != nil || opts.Level == "" {
		level = zerolog.InfoLevel
	}
	base := zerolog.New(out).Level(level).With().Timestamp().Logger()
	return &ZerologLogger{base: base, log: base.With().Str("component", component).Logger()}
}

// Nop returns a logger that discards everything
func Nop() *ZerologLogger {
	return &ZerologLogger{base: zerolog.Nop(), log: zerolog.Nop()}
}

// With returns a logger for another component sharing the same output and level
func (l *ZerologLogger) With(component string) *ZerologLogger {
	return &ZerologLogger{base: l.base, log: l.base.With().Str("component", component).Logger()}
}

// Zerolog exposes the underlying logger for middleware
func (l *ZerologLogger) Zerolog() *zerolog.Logger {
	return &l.log
}

func (l *ZerologLogger) Debugf(format string, args ...any) {
	l.log.Debug().Msgf(format, args...)
}

func (l *ZerologLogger) Debugw(msg string, fields map[string]any) {
	l.log.Debug().Fields(fields).Msg(msg)
}

func (l *ZerologLogger) Infof(format string, args ...any) {
	l.log.Info().Msgf(format, args...)
}

func (l *ZerologLogger) Infow(msg string, fields map[string]any) {
	l.log.Info().Fields(fields).Msg(msg)
}

func (l *ZerologLogger) Warnf(format string, args ...any) {
	l.log.Warn().Msgf(format, args...)
}

func (l *ZerologLogger) Errorf(format string, args ...any) {
	l.log.Error().Msgf(format, args...)
}
