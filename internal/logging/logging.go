// Package logging provides structured logging for commerce-mcp.
//
// Loggers are thin wrappers over log/slog with a text or JSON handler.
// Configuration via environment variables:
//   - COMMERCE_MCP_LOG_LEVEL: DEBUG, INFO, WARN, ERROR (default: INFO)
//   - COMMERCE_MCP_LOG_FORMAT: text, json (default: text)
//
// Logs always go to stderr so that the stdio transport keeps stdout for
// JSON-RPC traffic.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

// Environment variable names for logging configuration.
const (
	LogLevelEnvVar  = "COMMERCE_MCP_LOG_LEVEL"
	LogFormatEnvVar = "COMMERCE_MCP_LOG_FORMAT"
)

// Default logging configuration.
const (
	DefaultLevel  = slog.LevelInfo
	DefaultFormat = "text"
)

// Logger is the interface for structured logging.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)

	// With returns a new Logger with the given key-value pairs added to every log.
	With(args ...any) Logger
}

type logger struct {
	slog *slog.Logger
}

func (l *logger) Debug(msg string, args ...any) { l.slog.Debug(msg, args...) }
func (l *logger) Info(msg string, args ...any)  { l.slog.Info(msg, args...) }
func (l *logger) Warn(msg string, args ...any)  { l.slog.Warn(msg, args...) }
func (l *logger) Error(msg string, args ...any) { l.slog.Error(msg, args...) }

func (l *logger) With(args ...any) Logger {
	return &logger{slog: l.slog.With(args...)}
}

var (
	defaultLogger Logger
	once          sync.Once
)

// Default returns the process-wide logger, initialized from environment
// variables on first use.
func Default() Logger {
	once.Do(func() {
		defaultLogger = NewFromEnv()
	})
	return defaultLogger
}

// NewFromEnv creates a Logger configured from environment variables.
func NewFromEnv() Logger {
	level := ParseLevel(os.Getenv(LogLevelEnvVar))
	format := os.Getenv(LogFormatEnvVar)
	if format == "" {
		format = DefaultFormat
	}
	return New(os.Stderr, level, format)
}

// New creates a Logger writing to w at the given minimum level.
// Format is "text" or "json"; anything else falls back to text.
func New(w io.Writer, level slog.Level, format string) Logger {
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if strings.EqualFold(format, "json") {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	return &logger{slog: slog.New(handler)}
}

// ParseLevel parses a log level string (case-insensitive).
// Returns DefaultLevel for empty or invalid values.
func ParseLevel(s string) slog.Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return DefaultLevel
	}
}

// LevelString returns the string representation of a log level.
func LevelString(level slog.Level) string {
	switch level {
	case slog.LevelDebug:
		return "DEBUG"
	case slog.LevelInfo:
		return "INFO"
	case slog.LevelWarn:
		return "WARN"
	case slog.LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Slog returns the *slog.Logger behind l, for libraries that take one
// directly (the MCP SDK server options). Loggers not created by this
// package map to a discarding logger.
func Slog(l Logger) *slog.Logger {
	if sl, ok := l.(*logger); ok {
		return sl.slog
	}
	return slog.New(slog.DiscardHandler)
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}
func (n nopLogger) With(...any) Logger { return n }

// Nop returns a logger that discards all output.
func Nop() Logger {
	return nopLogger{}
}

// SetDefault replaces the process-wide logger.
// Not safe for concurrent use with Default().
func SetDefault(l Logger) {
	once.Do(func() {})
	defaultLogger = l
}

// ResetDefault resets the default logger to be re-initialized on next call.
func ResetDefault() {
	once = sync.Once{}
	defaultLogger = nil
}
