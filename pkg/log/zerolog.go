package log

import (
	"context"
	"fmt"
	"io"

	cerrors "github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
)

func init() {
	zerolog.ErrorStackMarshaler = marshalStack
}

// marshalStack extracts the stack trace that cockroachdb/errors records in
// its safe details, so Event.Stack() prints where the error was created.
func marshalStack(err error) interface{} {
	safeDetails := cerrors.GetSafeDetails(err).SafeDetails
	if len(safeDetails) > 0 {
		return safeDetails[0]
	}
	return nil
}

type zerologLogger struct {
	zl zerolog.Logger
}

// NewZerologLogger returns a Logger writing to w at the given minimum level.
func NewZerologLogger(w io.Writer, level Level) Logger {
	zl := zerolog.New(w).Level(toZerologLevel(level)).With().Timestamp().Logger()
	return &zerologLogger{zl: zl}
}

func (l *zerologLogger) Debug(msg string, fields ...any) {
	l.write(l.zl.Debug(), msg, fields)
}

func (l *zerologLogger) Info(msg string, fields ...any) {
	l.write(l.zl.Info(), msg, fields)
}

func (l *zerologLogger) Warn(msg string, fields ...any) {
	l.write(l.zl.Warn(), msg, fields)
}

func (l *zerologLogger) Error(msg string, fields ...any) {
	ev := l.zl.Error()
	if len(fields) > 0 {
		if err, ok := fields[0].(error); ok {
			ev = ev.Stack().Err(err)
			fields = fields[1:]
		}
	}
	l.write(ev, msg, fields)
}

func (l *zerologLogger) With(fields ...any) Logger {
	return &zerologLogger{zl: l.zl.With().Fields(normalize(fields)).Logger()}
}

func (l *zerologLogger) Enabled(_ context.Context, level Level) bool {
	return toZerologLevel(level) >= l.zl.GetLevel()
}

func (l *zerologLogger) write(ev *zerolog.Event, msg string, fields []any) {
	if ev == nil {
		return
	}
	for i := 0; i+1 < len(fields); i += 2 {
		key := fmt.Sprintf("%v", fields[i])
		switch v := fields[i+1].(type) {
		case error:
			ev = ev.AnErr(key, v)
			var m zerolog.LogObjectMarshaler
			if cerrors.As(v, &m) {
				ev = ev.Object(key+"_detail", m)
			}
		case zerolog.LogObjectMarshaler:
			ev = ev.Object(key, v)
		default:
			ev = ev.Interface(key, v)
		}
	}
	ev.Msg(msg)
}

// normalize turns alternating key/value pairs into the []interface{} shape
// zerolog's Fields accepts, stringifying keys and error values.
func normalize(fields []any) []interface{} {
	out := make([]interface{}, 0, len(fields))
	for i := 0; i+1 < len(fields); i += 2 {
		value := fields[i+1]
		if err, ok := value.(error); ok {
			value = err.Error()
		}
		out = append(out, fmt.Sprintf("%v", fields[i]), value)
	}
	return out
}

func toZerologLevel(level Level) zerolog.Level {
	switch {
	case level <= LevelDebug:
		return zerolog.DebugLevel
	case level <= LevelInfo:
		return zerolog.InfoLevel
	case level <= LevelWarn:
		return zerolog.WarnLevel
	default:
		return zerolog.ErrorLevel
	}
}
