package core

import (
	"context"
	"sort"
	"strings"
	"time"

	glog "github.com/goliatone/go-logger/glog"
)

// ResolveLogger falls back to a named logger from provider, then to a nop logger.
func ResolveLogger(name string, provider LoggerProvider, logger Logger) Logger {
	_, resolved := glog.Resolve(name, provider, logger)
	if resolved == nil {
		return glog.Nop()
	}
	return resolved
}

// OperationLogger writes one structured line per operation with redacted fields.
type OperationLogger struct {
	logger Logger
}

func NewOperationLogger(logger Logger) OperationLogger {
	if logger == nil {
		logger = glog.Nop()
	}
	return OperationLogger{logger: logger}
}

func (o OperationLogger) Observe(
	ctx context.Context,
	startedAt time.Time,
	operation string,
	err error,
	fields map[string]any,
) {
	operation = normalizeOperation(operation)
	if operation == "" {
		operation = "unknown"
	}
	status := "success"
	if err != nil {
		status = "failure"
	}

	contextFields := RedactSensitiveMap(fields)
	contextFields["operation"] = operation
	contextFields["status"] = status
	contextFields["duration_ms"] = time.Since(startedAt).Milliseconds()
	if err != nil {
		mapped := MapError(err)
		contextFields["text_code"] = mapped.TextCode
		contextFields["error"] = mapped.Message
	}

	if err != nil {
		o.log(ctx, "error", operation+" failed", contextFields)
		return
	}
	o.log(ctx, "info", operation+" succeeded", contextFields)
}

func (o OperationLogger) Debug(ctx context.Context, message string, fields map[string]any) {
	o.log(ctx, "debug", message, RedactSensitiveMap(fields))
}

func (o OperationLogger) Warn(ctx context.Context, message string, fields map[string]any) {
	o.log(ctx, "warn", message, RedactSensitiveMap(fields))
}

func (o OperationLogger) log(ctx context.Context, level string, message string, fields map[string]any) {
	logger := o.logger
	if logger == nil {
		return
	}
	if ctx != nil {
		logger = logger.WithContext(ctx)
	}
	var args []any
	if fieldsLogger, ok := logger.(FieldsLogger); ok {
		logger = fieldsLogger.WithFields(fields)
	} else {
		args = flattenFields(fields)
	}
	switch level {
	case "error":
		logger.Error(message, args...)
	case "warn":
		logger.Warn(message, args...)
	case "debug":
		logger.Debug(message, args...)
	default:
		logger.Info(message, args...)
	}
}

func flattenFields(fields map[string]any) []any {
	if len(fields) == 0 {
		return nil
	}
	keys := make([]string, 0, len(fields))
	for key := range fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	args := make([]any, 0, len(keys)*2)
	for _, key := range keys {
		args = append(args, key, fields[key])
	}
	return args
}

func normalizeOperation(operation string) string {
	operation = strings.TrimSpace(strings.ToLower(operation))
	operation = strings.ReplaceAll(operation, " ", "_")
	operation = strings.ReplaceAll(operation, "-", "_")
	return operation
}
