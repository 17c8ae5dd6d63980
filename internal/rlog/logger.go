// Package rlog provides a structured logging wrapper around zerolog used
// by the retryctl command and the demo operations; the core retry
// package itself stays log-free so embedding applications are never
// forced into a particular logging stack.
package rlog

import (
	"context"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

var (
	globalLogger *Logger
	mu           sync.RWMutex
)

// ContextKey is the type used for context keys carried by WithContext.
type ContextKey string

const (
	// OperationKey is the context key for the name of the operation being retried.
	OperationKey ContextKey = "Operation"
	// StateKeyKey is the context key for a stateful retry's RetryState.Key.
	StateKeyKey ContextKey = "StateKey"
)

// Field is a key-value pair for structured logging.
type Field struct {
	Key   string
	Value interface{}
}

// Logger wraps zerolog.Logger with the fields this module's demos and
// CLI commands log consistently: attempt count, error, and back-off
// delay.
type Logger struct {
	logger zerolog.Logger
}

// NewLogger builds a Logger at the given level ("debug", "info", "warn",
// "error", "fatal") and format ("json" or "text").
func NewLogger(level string, format string) *Logger {
	var output io.Writer = os.Stdout
	if strings.ToLower(format) == "text" {
		output = zerolog.ConsoleWriter{Out: os.Stdout}
	}

	zerolog.SetGlobalLevel(parseLogLevel(level))
	zl := zerolog.New(output).With().Timestamp().Logger()

	return &Logger{logger: zl}
}

func parseLogLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "fatal":
		return zerolog.FatalLevel
	default:
		return zerolog.InfoLevel
	}
}

// SetGlobalLogger installs logger as the process-wide default.
func SetGlobalLogger(logger *Logger) {
	mu.Lock()
	defer mu.Unlock()
	globalLogger = logger
}

// GetGlobalLogger returns the process-wide default logger, creating one
// at info/json settings the first time it is needed.
func GetGlobalLogger() *Logger {
	mu.RLock()
	logger := globalLogger
	mu.RUnlock()
	if logger != nil {
		return logger
	}

	mu.Lock()
	defer mu.Unlock()
	if globalLogger == nil {
		globalLogger = NewLogger("info", "json")
	}
	return globalLogger
}

func (l *Logger) emit(event *zerolog.Event, msg string, fields []Field) {
	for _, f := range fields {
		event = event.Interface(f.Key, f.Value)
	}
	event.Msg(msg)
}

// Debug logs a debug message with optional fields.
func (l *Logger) Debug(msg string, fields ...Field) { l.emit(l.logger.Debug(), msg, fields) }

// Info logs an info message with optional fields.
func (l *Logger) Info(msg string, fields ...Field) { l.emit(l.logger.Info(), msg, fields) }

// Warn logs a warning message with optional fields.
func (l *Logger) Warn(msg string, fields ...Field) { l.emit(l.logger.Warn(), msg, fields) }

// Error logs an error message with optional fields.
func (l *Logger) Error(msg string, fields ...Field) { l.emit(l.logger.Error(), msg, fields) }

// Fatal logs a fatal message with optional fields and exits the program.
func (l *Logger) Fatal(msg string, fields ...Field) { l.emit(l.logger.Fatal(), msg, fields) }

// WithContext returns a logger annotated with any operation name or
// stateful-retry key found in ctx.
func (l *Logger) WithContext(ctx context.Context) *Logger {
	newLogger := l.logger.With()
	if op := ctx.Value(OperationKey); op != nil {
		newLogger = newLogger.Interface(string(OperationKey), op)
	}
	if key := ctx.Value(StateKeyKey); key != nil {
		newLogger = newLogger.Interface(string(StateKeyKey), key)
	}
	return &Logger{logger: newLogger.Logger()}
}

// RetryFields builds the standard field set logged around a retry
// attempt.
func RetryFields(attempt int, err error) []Field {
	fields := []Field{{Key: "attempt", Value: attempt}}
	if err != nil {
		fields = append(fields, Field{Key: "error", Value: err.Error()})
	}
	return fields
}
