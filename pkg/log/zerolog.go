package log

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"

	scerrors "github.com/YuminosukeSato/scoreforest/pkg/errors"
)

// ZerologProvider is the default LoggerProvider. All loggers it hands out share
// one zerolog.Logger, so SetLevel and SetOutput affect them immediately.
type ZerologProvider struct {
	mu   sync.RWMutex
	base zerolog.Logger
}

// NewZerologProvider creates a provider writing JSON lines to w at the given level.
func NewZerologProvider(w io.Writer, level Level) *ZerologProvider {
	p := &ZerologProvider{}
	p.base = zerolog.New(w).With().Timestamp().Logger().Level(toZerologLevel(level))
	return p
}

// GetLogger implements LoggerProvider.GetLogger.
func (p *ZerologProvider) GetLogger() Logger {
	return &zerologLogger{provider: p}
}

// GetLoggerWithName implements LoggerProvider.GetLoggerWithName.
func (p *ZerologProvider) GetLoggerWithName(name string) Logger {
	return &zerologLogger{provider: p, fields: []any{ComponentKey, name}}
}

// SetLevel implements LoggerProvider.SetLevel.
func (p *ZerologProvider) SetLevel(level Level) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.base = p.base.Level(toZerologLevel(level))
}

// SetOutput redirects every logger of this provider to w.
func (p *ZerologProvider) SetOutput(w io.Writer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.base = p.base.Output(w)
}

// SetConsole switches to zerolog's human-readable console writer.
func (p *ZerologProvider) SetConsole(w io.Writer) {
	p.SetOutput(zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339})
}

func (p *ZerologProvider) logger() zerolog.Logger {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.base
}

// zerologLogger adapts zerolog to the Logger interface. Fields given to With
// are kept as key/value pairs and applied on every event, so that a level or
// output change on the provider is not shadowed by a derived zerolog context.
type zerologLogger struct {
	provider *ZerologProvider
	fields   []any
}

func (l *zerologLogger) Debug(msg string, fields ...any) {
	l.emit(zerolog.DebugLevel, msg, fields)
}

func (l *zerologLogger) Info(msg string, fields ...any) {
	l.emit(zerolog.InfoLevel, msg, fields)
}

func (l *zerologLogger) Warn(msg string, fields ...any) {
	l.emit(zerolog.WarnLevel, msg, fields)
}

func (l *zerologLogger) Error(msg string, fields ...any) {
	l.emit(zerolog.ErrorLevel, msg, fields)
}

func (l *zerologLogger) With(fields ...any) Logger {
	merged := make([]any, 0, len(l.fields)+len(fields))
	merged = append(merged, l.fields...)
	merged = append(merged, fields...)
	return &zerologLogger{provider: l.provider, fields: merged}
}

func (l *zerologLogger) Enabled(_ context.Context, level Level) bool {
	zl := l.provider.logger()
	return toZerologLevel(level) >= zl.GetLevel()
}

func (l *zerologLogger) emit(level zerolog.Level, msg string, fields []any) {
	zl := l.provider.logger()
	event := zl.WithLevel(level)
	if event == nil {
		return
	}
	if len(fields) > 0 {
		if err, ok := fields[0].(error); ok {
			event = event.Err(err).Str(ErrorTypeKey, errorType(err))
			if trace := extractStacktrace(err); trace != "" {
				event = event.Str(StacktraceKey, trace)
			}
			fields = fields[1:]
		}
	}
	event = appendFields(event, l.fields)
	event = appendFields(event, fields)
	event.Msg(msg)
}

func appendFields(event *zerolog.Event, fields []any) *zerolog.Event {
	for i := 0; i+1 < len(fields); i += 2 {
		key := fmt.Sprint(fields[i])
		switch v := fields[i+1].(type) {
		case zerolog.LogObjectMarshaler:
			event = event.Object(key, v)
		case error:
			event = event.AnErr(key, v)
		case string:
			event = event.Str(key, v)
		case int:
			event = event.Int(key, v)
		case int64:
			event = event.Int64(key, v)
		case uint64:
			event = event.Uint64(key, v)
		case float64:
			event = event.Float64(key, v)
		case bool:
			event = event.Bool(key, v)
		case time.Duration:
			event = event.Dur(key, v)
		default:
			event = event.Interface(key, v)
		}
	}
	if len(fields)%2 == 1 {
		event = event.Interface("!BADKEY", fields[len(fields)-1])
	}
	return event
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

var defaultProvider = NewZerologProvider(os.Stderr, LevelInfo)

func init() {
	scerrors.SetZerologWarnFunc(func(w error) {
		zl := defaultProvider.logger()
		event := zl.Warn()
		if m, ok := w.(zerolog.LogObjectMarshaler); ok {
			event = event.EmbedObject(m)
		}
		event.Msg(w.Error())
	})
}

// Provider returns the process-wide provider.
func Provider() *ZerologProvider {
	return defaultProvider
}

// GetLogger returns a logger from the process-wide provider.
func GetLogger() Logger {
	return defaultProvider.GetLogger()
}

// GetLoggerWithName returns a component logger from the process-wide provider.
func GetLoggerWithName(name string) Logger {
	return defaultProvider.GetLoggerWithName(name)
}

// SetLevel sets the minimum level of the process-wide provider.
func SetLevel(level Level) {
	defaultProvider.SetLevel(level)
}

// SetOutput redirects the process-wide provider.
func SetOutput(w io.Writer) {
	defaultProvider.SetOutput(w)
}
