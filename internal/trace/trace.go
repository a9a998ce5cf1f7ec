package trace

import (
	"context"
	"log/slog"
)

// Enabled reports whether logging at the given level is enabled.
// Returns false if logger is nil.
//
// Use this for complex control flow or when mixing log calls at different
// levels. For simple cases, prefer the convenience wrappers ([Debug], [Info], etc.)
// or lazy variants ([DebugLazy], etc.).
func Enabled(ctx context.Context, logger *slog.Logger, level slog.Level) bool {
	if logger == nil {
		return false
	}
	return logger.Enabled(ctx, level)
}

// withSubject prepends a "subject_gid" attribute when ctx carries one, so
// every call site logging about a particular Model doesn't have to remember
// to add it by hand.
func withSubject(ctx context.Context, attrs []slog.Attr) []slog.Attr {
	gid, ok := SubjectGIDFrom(ctx)
	if !ok {
		return attrs
	}
	out := make([]slog.Attr, 0, len(attrs)+1)
	out = append(out, slog.String("subject_gid", gid))
	return append(out, attrs...)
}

func logAt(ctx context.Context, logger *slog.Logger, level slog.Level, msg string, attrs []slog.Attr) {
	if logger == nil || !logger.Enabled(ctx, level) {
		return
	}
	logger.LogAttrs(ctx, level, msg, withSubject(ctx, attrs)...)
}

func logAtLazy(ctx context.Context, logger *slog.Logger, level slog.Level, msg string, fn func() []slog.Attr) {
	if logger == nil || !logger.Enabled(ctx, level) {
		return
	}
	logger.LogAttrs(ctx, level, msg, withSubject(ctx, fn())...)
}

// Debug logs a message at Debug level if the logger is non-nil and enabled.
//
// Use for simple, pre-computed attributes only. The variadic attrs are
// evaluated at the call site even when logging is disabled. For computed
// attributes (function calls, fmt.Sprintf, slice ops), use [DebugLazy].
func Debug(ctx context.Context, logger *slog.Logger, msg string, attrs ...slog.Attr) {
	logAt(ctx, logger, slog.LevelDebug, msg, attrs)
}

// DebugLazy logs at Debug level with lazily-computed attributes.
//
// The fn is not called if logging is disabled, guaranteeing no allocation
// from attribute construction. Use this for any computed attributes:
// function calls, fmt.Sprintf, slice operations, struct construction.
func DebugLazy(ctx context.Context, logger *slog.Logger, msg string, fn func() []slog.Attr) {
	logAtLazy(ctx, logger, slog.LevelDebug, msg, fn)
}

// Info logs a message at Info level if the logger is non-nil and enabled.
//
// Use for simple, pre-computed attributes only. For computed attributes,
// use [InfoLazy].
func Info(ctx context.Context, logger *slog.Logger, msg string, attrs ...slog.Attr) {
	logAt(ctx, logger, slog.LevelInfo, msg, attrs)
}

// InfoLazy logs at Info level with lazily-computed attributes.
//
// The fn is not called if logging is disabled.
func InfoLazy(ctx context.Context, logger *slog.Logger, msg string, fn func() []slog.Attr) {
	logAtLazy(ctx, logger, slog.LevelInfo, msg, fn)
}

// Warn logs a message at Warn level if the logger is non-nil and enabled.
//
// Use for simple, pre-computed attributes only. For computed attributes,
// use [WarnLazy].
func Warn(ctx context.Context, logger *slog.Logger, msg string, attrs ...slog.Attr) {
	logAt(ctx, logger, slog.LevelWarn, msg, attrs)
}

// WarnLazy logs at Warn level with lazily-computed attributes.
//
// The fn is not called if logging is disabled.
func WarnLazy(ctx context.Context, logger *slog.Logger, msg string, fn func() []slog.Attr) {
	logAtLazy(ctx, logger, slog.LevelWarn, msg, fn)
}

// Error logs a message at Error level if the logger is non-nil and enabled.
//
// Use for simple, pre-computed attributes only. For computed attributes,
// use [ErrorLazy].
//
// Errors that matter to callers are returned as *modelerr.Error rather than
// logged; this function exists for API completeness with the other levels
// and for failures a caller can't act on (e.g. a watcher callback panic
// recovered and logged rather than propagated).
func Error(ctx context.Context, logger *slog.Logger, msg string, attrs ...slog.Attr) {
	logAt(ctx, logger, slog.LevelError, msg, attrs)
}

// ErrorLazy logs at Error level with lazily-computed attributes.
//
// The fn is not called if logging is disabled.
func ErrorLazy(ctx context.Context, logger *slog.Logger, msg string, fn func() []slog.Attr) {
	logAtLazy(ctx, logger, slog.LevelError, msg, fn)
}
