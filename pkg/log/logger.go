package log

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/YuminosukeSato/playertier/pkg/errors"
)

// Output formats accepted by SetupLogger.
const (
	FormatConsole = "console"
	FormatJSON    = "json"
)

var (
	globalMu     sync.RWMutex
	globalLogger Logger = NewZerologLogger(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}, LevelInfo)
)

// GetLogger returns the process-wide logger.
func GetLogger() Logger {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return globalLogger
}

// SetLogger replaces the process-wide logger and returns the previous one.
func SetLogger(l Logger) Logger {
	globalMu.Lock()
	defer globalMu.Unlock()
	prev := globalLogger
	globalLogger = l
	return prev
}

// SetupLogger builds the zerolog-backed logger for the given level and
// format, installs it as the global logger and routes library warnings
// (errors.Warn) through it.
func SetupLogger(w io.Writer, level, format string) (Logger, error) {
	lvl, err := ToLogLevel(level)
	if err != nil {
		return nil, err
	}

	switch strings.ToLower(format) {
	case "", FormatConsole:
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	case FormatJSON:
	default:
		return nil, errors.NewValidationError("log_format", "must be console or json", format)
	}

	logger := NewZerologLogger(w, lvl)
	SetLogger(logger)
	errors.SetZerologWarnFunc(func(warning error) {
		logger.Warn("library warning", "warning", warning)
	})
	return logger, nil
}

// ToLogLevel parses a level name.
func ToLogLevel(level string) (Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return LevelDebug, nil
	case "", "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	default:
		return LevelInfo, errors.NewValidationError("log_level", fmt.Sprintf("unknown level %q", level), level)
	}
}
