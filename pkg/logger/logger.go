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
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
	// With returns a child logger carrying the given key/value pairs.
	With(fields map[string]any) Logger
}

// Options tune the zerolog output.
type Options struct {
	Level  string
	Format string // "console" or "json"
	Out    io.Writer
}

// ZerologLogger implements Logger using rs/zerolog.
type ZerologLogger struct {
	log zerolog.Logger
}

// New returns a Logger for the given component. The output format follows
// APP_ENV: "dev" gets a console writer, anything else JSON.
func New(component string) Logger {
	format := "json"
	if strings.ToLower(os.Getenv("APP_ENV")) == "dev" {
		format = "console"
	}
	return NewWithOptions(component, Options{Format: format})
}

// NewWithOptions creates a ZerologLogger for component using opts.
func NewWithOptions(component string, opts Options) Logger {
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}
	if opts.Format == "console" {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}

	level, err := zerolog.ParseLevel(strings.ToLower(opts.Level))
	if err != nil || opts.Level == "" {
		level = zerolog.InfoLevel
	}

	z := zerolog.New(out).Level(level).With().Timestamp().Str("component", component).Logger()
	return &ZerologLogger{log: z}
}

func (l *ZerologLogger) Debugf(format string, args ...any) {
	l.log.Debug().Msgf(format, args...)
}

func (l *ZerologLogger) Infof(format string, args ...any) {
	l.log.Info().Msgf(format, args...)
}

func (l *ZerologLogger) Warnf(format string, args ...any) {
	l.log.Warn().Msgf(format, args...)
}

func (l *ZerologLogger) Errorf(format string, args ...any) {
	l.log.Error().Msgf(format, args...)
}

func (l *ZerologLogger) With(fields map[string]any) Logger {
	return &ZerologLogger{log: l.log.With().Fields(fields).Logger()}
}

// NopLogger implements Logger with no-op methods.
type NopLogger struct{}

func (NopLogger) Debugf(string, ...any)       {}
func (NopLogger) Infof(string, ...any)        {}
func (NopLogger) Warnf(string, ...any)        {}
func (NopLogger) Errorf(string, ...any)       {}
func (n NopLogger) With(map[string]any) Logger { return n }
