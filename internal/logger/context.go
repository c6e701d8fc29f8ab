package logger

import (
	"context"
	"log/slog"
)

// context keys
type contextKey struct {
	name string
}

var (
	logAttrsKey      = contextKey{"log_attrs"}
	requestLoggerKey = contextKey{"request_logger"}
)

// ContextWithLogAttrs allows handlers to add attributes to the final request log.
//
// The attributes are appended to a shared slice created by the RequestLogging middleware.
// Use it to add tracking information to the request log, for example the feed that was rendered.
func ContextWithLogAttrs(ctx context.Context, attrs ...slog.Attr) context.Context {
	if attrPtr, ok := ctx.Value(logAttrsKey).(*[]slog.Attr); ok {
		*attrPtr = append(*attrPtr, attrs...)
		return ctx
	}
	// programming error - this should not happen
	slog.Warn("ContextWithLogAttrs called on context without shared log attributes slice")
	return ctx
}

// ContextLogAttrs returns the attributes added during the request
func ContextLogAttrs(ctx context.Context) []slog.Attr {
	if attrPtr, ok := ctx.Value(logAttrsKey).(*[]slog.Attr); ok {
		return *attrPtr
	}
	return nil
}

// ContextRequestLogger retrieves the request-scoped logger from context.
//
// Log entries made with this logger include the request_id.
func ContextRequestLogger(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(requestLoggerKey).(*slog.Logger); ok {
		return logger
	}
	return slog.Default()
}

// ContextWithRequestLogger stores a request-scoped logger
func ContextWithRequestLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, requestLoggerKey, logger)
}
