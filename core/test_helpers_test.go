package core

import (
	"context"
	"fmt"
	"sync"
)

type capturedLine struct {
	level   string
	message string
	args    []any
	fields  map[string]any
}

type capturingLogger struct {
	mu     *sync.Mutex
	lines  *[]capturedLine
	fields map[string]any
}

func newCapturingLogger() *capturingLogger {
	lines := []capturedLine{}
	return &capturingLogger{mu: &sync.Mutex{}, lines: &lines}
}

func (l *capturingLogger) record(level, msg string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	*l.lines = append(*l.lines, capturedLine{level: level, message: msg, args: args, fields: l.fields})
}

func (l *capturingLogger) Trace(msg string, args ...any) { l.record("trace", msg, args...) }
func (l *capturingLogger) Debug(msg string, args ...any) { l.record("debug", msg, args...) }
func (l *capturingLogger) Info(msg string, args ...any)  { l.record("info", msg, args...) }
func (l *capturingLogger) Warn(msg string, args ...any)  { l.record("warn", msg, args...) }
func (l *capturingLogger) Error(msg string, args ...any) { l.record("error", msg, args...) }
func (l *capturingLogger) Fatal(msg string, args ...any) { l.record("fatal", msg, args...) }

func (l *capturingLogger) WithContext(context.Context) Logger {
	return l
}

func (l *capturingLogger) WithFields(fields map[string]any) Logger {
	return &capturingLogger{mu: l.mu, lines: l.lines, fields: fields}
}

func (l *capturingLogger) all() []capturedLine {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]capturedLine(nil), (*l.lines)...)
}

func (l *capturingLogger) dump() string {
	return fmt.Sprintf("%+v", l.all())
}

func lookupFrom(values map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		value, ok := values[key]
		return value, ok
	}
}
