// ============================================================================
// sparkswap broker-cli
// ============================================================================
//
// Package:     logging
// Description: Structured logging with key/value pairs on top of zerolog
// License:     MIT
// ============================================================================

package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Level represents log severity
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// String returns the string representation of the level
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	default:
		return "unknown"
	}
}

// ParseLevel converts a config string into a Level. Unknown values map to info.
func ParseLevel(level string) Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug", "trace":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error", "fatal":
		return LevelError
	default:
		return LevelInfo
	}
}

func (l Level) zerolog() zerolog.Level {
	switch l {
	case LevelDebug:
		return zerolog.DebugLevel
	case LevelWarn:
		return zerolog.WarnLevel
	case LevelError:
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// Logger is a named logger taking key/value pairs
type Logger struct {
	zl   zerolog.Logger
	name string
}

// LoggerConfig holds configuration for creating loggers
type LoggerConfig struct {
	// Name of the component, written as the "logger" field
	Name string

	// Level (debug, info, warn, error)
	Level string

	// Format is "json" or "text" (default: text)
	Format string

	// Output defaults to os.Stderr
	Output io.Writer
}

// DefaultLoggerConfig returns a default configuration
func DefaultLoggerConfig(name string) LoggerConfig {
	return LoggerConfig{
		Name:   name,
		Level:  "info",
		Format: "text",
		Output: os.Stderr,
	}
}

// NewLogger creates a logger from the given configuration
func NewLogger(cfg LoggerConfig) *Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	if cfg.Format != "json" {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}

	zl := zerolog.New(out).
		Level(ParseLevel(cfg.Level).zerolog()).
		With().
		Timestamp().
		Str("logger", cfg.Name).
		Logger()

	return &Logger{zl: zl, name: cfg.Name}
}

// New creates a text logger writing to stderr at info level
func New(name string) *Logger {
	return NewLogger(DefaultLoggerConfig(name))
}

// NewWithOutput creates a JSON logger writing to w at debug level.
func NewWithOutput(name string, w io.Writer) *Logger {
	return NewLogger(LoggerConfig{Name: name, Level: "debug", Format: "json", Output: w})
}

// Nop returns a logger that discards everything
func Nop() *Logger {
	return &Logger{zl: zerolog.Nop()}
}

// Name returns the logger name
func (l *Logger) Name() string {
	return l.name
}

// WithLevel returns a new logger with the specified minimum level
func (l *Logger) WithLevel(level Level) *Logger {
	return &Logger{zl: l.zl.Level(level.zerolog()), name: l.name}
}

// Named returns a child logger with a different name
func (l *Logger) Named(name string) *Logger {
	return &Logger{zl: l.zl.With().Str("logger", name).Logger(), name: name}
}

// Debug logs a debug message with key/value pairs
func (l *Logger) Debug(msg string, keysAndValues ...interface{}) {
	withFields(l.zl.Debug(), keysAndValues).Msg(msg)
}

// Info logs an info message with key/value pairs
func (l *Logger) Info(msg string, keysAndValues ...interface{}) {
	withFields(l.zl.Info(), keysAndValues).Msg(msg)
}

// Warn logs a warning message with key/value pairs
func (l *Logger) Warn(msg string, keysAndValues ...interface{}) {
	withFields(l.zl.Warn(), keysAndValues).Msg(msg)
}

// Error logs an error message with key/value pairs
func (l *Logger) Error(msg string, keysAndValues ...interface{}) {
	withFields(l.zl.Error(), keysAndValues).Msg(msg)
}

// withFields adds key/value pairs to a zerolog event. Non-string keys are
// skipped, a trailing key without value is dropped.
func withFields(event *zerolog.Event, keysAndValues []interface{}) *zerolog.Event {
	if event == nil {
		return nil
	}
	for i := 0; i < len(keysAndValues)-1; i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			continue
		}
		switch v := keysAndValues[i+1].(type) {
		case string:
			event = event.Str(key, v)
		case int:
			event = event.Int(key, v)
		case int64:
			event = event.Int64(key, v)
		case bool:
			event = event.Bool(key, v)
		case float64:
			event = event.Float64(key, v)
		case time.Duration:
			event = event.Dur(key, v)
		case error:
			event = event.AnErr(key, v)
		case fmt.Stringer:
			event = event.Stringer(key, v)
		default:
			event = event.Interface(key, v)
		}
	}
	return event
}
