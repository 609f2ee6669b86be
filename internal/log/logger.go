// Package log is the structured JSON logger shared by the engine, the
// websql databases and the command line tools.
package log

import (
	"context"
	"io"
	"log/slog"
)

// Levels accepted by NewLoggerWithLevel.
const (
	LevelDebug = slog.LevelDebug
	LevelInfo  = slog.LevelInfo
	LevelWarn  = slog.LevelWarn
	LevelError = slog.LevelError
)

// Logger writes JSON entries through slog. The zero value is not usable,
// build it with NewLogger, NewLoggerWithLevel or NewDiscardLogger.
type Logger struct {
	slogger *slog.Logger
}

// NewLogger returns a Logger writing entries of level info and above to
// writer.
func NewLogger(writer io.Writer) Logger {
	return NewLoggerWithLevel(writer, LevelInfo)
}

// NewLoggerWithLevel returns a Logger writing to writer that drops every
// entry below level.
func NewLoggerWithLevel(writer io.Writer, level slog.Level) Logger {
	return Logger{
		slogger: slog.New(slog.NewJSONHandler(writer, &slog.HandlerOptions{
			Level: level,
		})),
	}
}

// NewDiscardLogger returns a Logger that drops every entry.
func NewDiscardLogger() Logger {
	return NewLoggerWithLevel(io.Discard, LevelError+1)
}

// IsInitialized reports whether the Logger was created with one of the
// constructors of this package.
func (l *Logger) IsInitialized() bool {
	return l.slogger != nil
}

// ParseLevel converts a level name (debug, info, warn, error) into a
// slog.Level.
func ParseLevel(name string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(name)); err != nil {
		return LevelInfo, err
	}
	return level, nil
}

// Key-values are taken from the first KV only, see kvToArgs.

func (l *Logger) Info(msg string, keyVals ...KV) {
	l.write(LevelInfo, msg, kvToArgs(keyVals...))
}

func (l *Logger) Debug(msg string, keyVals ...KV) {
	l.write(LevelDebug, msg, kvToArgs(keyVals...))
}

func (l *Logger) Warn(msg string, keyVals ...KV) {
	l.write(LevelWarn, msg, kvToArgs(keyVals...))
}

func (l *Logger) Error(msg string, keyVals ...KV) {
	l.write(LevelError, msg, kvToArgs(keyVals...))
}

// The Ns variants add the namespace as the first attribute, under the "ns"
// key, so entries of one component can be filtered together.

func (l *Logger) InfoNs(namespace string, msg string, keyVals ...KV) {
	l.write(LevelInfo, msg, kvToArgsNs(namespace, keyVals...))
}

func (l *Logger) DebugNs(namespace string, msg string, keyVals ...KV) {
	l.write(LevelDebug, msg, kvToArgsNs(namespace, keyVals...))
}

func (l *Logger) WarnNs(namespace string, msg string, keyVals ...KV) {
	l.write(LevelWarn, msg, kvToArgsNs(namespace, keyVals...))
}

func (l *Logger) ErrorNs(namespace string, msg string, keyVals ...KV) {
	l.write(LevelError, msg, kvToArgsNs(namespace, keyVals...))
}

func (l *Logger) write(level slog.Level, msg string, args []any) {
	l.slogger.Log(context.Background(), level, msg, args...)
}
