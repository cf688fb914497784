// Package log provides the structured logging interface used across playertier.
//
// The Logger interface keeps the log/slog method shape (message plus
// alternating key/value fields) so call sites read the same regardless of the
// backend. The production backend is zerolog; tests use TestLogger, which
// captures JSON lines in memory.
//
// Example usage:
//
//	logger := log.GetLogger().With(
//	    log.ModelNameKey, "RandomForest",
//	    log.ComponentKey, "evaluation",
//	)
//	logger.Info("model evaluated",
//	    log.OperationKey, log.OperationPredict,
//	    log.AccuracyKey, 0.97,
//	)
package log

import (
	"context"
)

// Logger defines a structured logging interface compatible with Go's log/slog.
//
// Fields are alternating key/value pairs. An error value is rendered with its
// message and, for the zerolog backend, the stack trace recorded by
// cockroachdb/errors.
type Logger interface {
	// Debug logs a debug-level message with optional structured fields.
	Debug(msg string, fields ...any)

	// Info logs an info-level message with optional structured fields.
	Info(msg string, fields ...any)

	// Warn logs a warning-level message with optional structured fields.
	Warn(msg string, fields ...any)

	// Error logs an error-level message with optional structured fields.
	// If the first field is an error it is attached as the record's error.
	//
	// Example:
	//   logger.Error("model evaluation failed",
	//       err,
	//       log.ModelNameKey, "SVM",
	//   )
	Error(msg string, fields ...any)

	// With returns a new Logger with the given fields pre-populated.
	With(fields ...any) Logger

	// Enabled reports whether the logger emits log records at the given level.
	Enabled(ctx context.Context, level Level) bool
}

// Level represents a logging level, compatible with slog.Level.
type Level int

// Standard logging levels, values are compatible with slog.Level.
const (
	LevelDebug Level = -4
	LevelInfo  Level = 0
	LevelWarn  Level = 4
	LevelError Level = 8
)

// String returns the string representation of the log level.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}
