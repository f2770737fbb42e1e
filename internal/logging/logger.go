// Package logging wraps zerolog with key/value helpers shared by the CLI and
// the HTTP server. Logs go to stderr so command output on stdout stays clean.
package logging

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Logger wraps zerolog.Logger with key/value convenience methods.
type Logger struct {
	zl     zerolog.Logger
	fields map[string]interface{}
}

var global = NewWithWriter(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}, zerolog.WarnLevel)

// NewWithWriter creates a logger writing to w at level.
func NewWithWriter(w io.Writer, level zerolog.Level) *Logger {
	zl := zerolog.New(w).
		Level(level).
		With().
		Timestamp().
		Logger()
	return &Logger{zl: zl, fields: map[string]interface{}{}}
}

// NewFromConfig builds a logger from level and format names. format is "json" or
// "console"; an unknown level falls back to info.
func NewFromConfig(w io.Writer, level, format string) (*Logger, error) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "json":
	case "console", "pretty", "":
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	default:
		return nil, fmt.Errorf("invalid log format: %q (use console|json)", format)
	}
	return NewWithWriter(w, lvl), nil
}

// SetGlobal replaces the process-wide logger.
func SetGlobal(l *Logger) {
	if l != nil {
		global = l
	}
}

// Global returns the process-wide logger.
func Global() *Logger { return global }

func (l *Logger) emit(e *zerolog.Event, msg string, fields []interface{}) {
	for k, v := range l.fields {
		addField(e, k, v)
	}
	for i := 0; i+1 < len(fields); i += 2 {
		key, ok := fields[i].(string)
		if !ok {
			key = fmt.Sprint(fields[i])
		}
		addField(e, key, fields[i+1])
	}
	e.Msg(msg)
}

func addField(e *zerolog.Event, key string, value interface{}) {
	if err, ok := value.(error); ok {
		e.Str(key, err.Error())
		return
	}
	e.Interface(key, value)
}

func (l *Logger) Debug(msg string, fields ...interface{}) { l.emit(l.zl.Debug(), msg, fields) }
func (l *Logger) Info(msg string, fields ...interface{})  { l.emit(l.zl.Info(), msg, fields) }
func (l *Logger) Warn(msg string, fields ...interface{})  { l.emit(l.zl.Warn(), msg, fields) }
func (l *Logger) Error(msg string, fields ...interface{}) { l.emit(l.zl.Error(), msg, fields) }

// With creates a child logger with additional key/value fields.
func (l *Logger) With(fields ...interface{}) *Logger {
	next := make(map[string]interface{}, len(l.fields)+len(fields)/2)
	for k, v := range l.fields {
		next[k] = v
	}
	for i := 0; i+1 < len(fields); i += 2 {
		if k, ok := fields[i].(string); ok {
			next[k] = fields[i+1]
		}
	}
	return &Logger{zl: l.zl, fields: next}
}

// WithContext returns a logger carrying the request id stored in ctx.
func (l *Logger) WithContext(ctx context.Context) *Logger {
	if id := RequestID(ctx); id != "" {
		return l.With("request_id", id)
	}
	return l
}

func Debug(msg string, fields ...interface{}) { global.Debug(msg, fields...) }
func Info(msg string, fields ...interface{})  { global.Info(msg, fields...) }
func Warn(msg string, fields ...interface{})  { global.Warn(msg, fields...) }
func Error(msg string, fields ...interface{}) { global.Error(msg, fields...) }

// With creates a child of the global logger.
func With(fields ...interface{}) *Logger { return global.With(fields...) }
