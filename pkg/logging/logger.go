package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

// contextKey is a type for context keys to avoid collisions
type contextKey string

const requestIDKey contextKey = "requestID"

// requestIDAttr is the log attribute carrying the request ID
const requestIDAttr = "requestID"

// LevelTrace is below debug; used for per-row diagnostics
const LevelTrace = slog.LevelDebug - 4

// Output formats
const (
	FormatCompact = "compact"
	FormatJSON    = "json"
)

var (
	mu     sync.RWMutex
	logger *slog.Logger
)

func init() {
	// Logs go to stderr so that stdout stays clean for exported graphs
	logger = slog.New(NewCompactHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
}

// Options configures the package logger
type Options struct {
	Level  slog.Level
	Format string    // FormatCompact (default) or FormatJSON
	Output io.Writer // Defaults to os.Stderr
}

// Configure replaces the package logger
func Configure(opts Options) {
	out := opts.Output
	if out == nil {
		out = os.Stderr
	}

	handlerOpts := &slog.HandlerOptions{Level: opts.Level}
	var handler slog.Handler
	if opts.Format == FormatJSON {
		handler = slog.NewJSONHandler(out, handlerOpts)
	} else {
		handler = NewCompactHandler(out, handlerOpts)
	}

	mu.Lock()
	logger = slog.New(handler)
	mu.Unlock()
}

// SetLevel changes the logging level, keeping compact output on stderr
func SetLevel(level slog.Level) {
	Configure(Options{Level: level})
}

// ParseLevel resolves a level from a verbosity name ("trace", "debug",
// "info", "warn", "error") or, when the name is empty, from a -v count.
func ParseLevel(verbosity string, verboseCount int) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(verbosity)) {
	case "trace":
		return LevelTrace, nil
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	case "":
		switch {
		case verboseCount >= 2:
			return LevelTrace, nil
		case verboseCount == 1:
			return slog.LevelDebug, nil
		default:
			return slog.LevelInfo, nil
		}
	default:
		return slog.LevelInfo, fmt.Errorf("unknown verbosity %q", verbosity)
	}
}

// Logger returns the current package logger
func Logger() *slog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

// WithRequestID adds a request ID to the context
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// GetRequestID retrieves the request ID from context
func GetRequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(requestIDKey).(string); ok {
		return requestID
	}
	return ""
}

// Helper function to add request ID to log attributes if present
func withRequestID(ctx context.Context, args []any) []any {
	requestID := GetRequestID(ctx)
	if requestID != "" {
		return append([]any{requestIDAttr, requestID}, args...)
	}
	return args
}

// Trace logs at TRACE level (per-row detail, debug-time only)
func Trace(msg string, args ...any) {
	Logger().Log(context.Background(), LevelTrace, msg, args...)
}

// Debug logs at DEBUG level (stage counts and timings)
func Debug(msg string, args ...any) {
	Logger().Debug(msg, args...)
}

// DebugContext logs at DEBUG level with context
func DebugContext(ctx context.Context, msg string, args ...any) {
	Logger().DebugContext(ctx, msg, withRequestID(ctx, args)...)
}

// Info logs at INFO level (user-facing operations)
func Info(msg string, args ...any) {
	Logger().Info(msg, args...)
}

// InfoContext logs at INFO level with context
func InfoContext(ctx context.Context, msg string, args ...any) {
	Logger().InfoContext(ctx, msg, withRequestID(ctx, args)...)
}

// Warn logs at WARN level (suspicious input that does not abort a run)
func Warn(msg string, args ...any) {
	Logger().Warn(msg, args...)
}

// WarnContext logs at WARN level with context
func WarnContext(ctx context.Context, msg string, args ...any) {
	Logger().WarnContext(ctx, msg, withRequestID(ctx, args)...)
}

// Error logs at ERROR level
func Error(msg string, args ...any) {
	Logger().Error(msg, args...)
}

// ErrorContext logs at ERROR level with context
func ErrorContext(ctx context.Context, msg string, args ...any) {
	Logger().ErrorContext(ctx, msg, withRequestID(ctx, args)...)
}

// Fatal logs at ERROR level and exits
func Fatal(msg string, args ...any) {
	Logger().Error(msg, args...)
	os.Exit(1)
}
