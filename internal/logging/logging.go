// Package logging holds the process-wide slog logger and the structured event helpers the
// store, API and CLI log through.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"
	"time"
)

// Level is a minimum severity. The values match slog's.
type Level = slog.Level

const (
	LevelDebug = slog.LevelDebug
	LevelInfo  = slog.LevelInfo
	LevelWarn  = slog.LevelWarn
	LevelError = slog.LevelError
)

// Format selects the handler encoding.
type Format int

const (
	FormatJSON Format = iota
	FormatText
)

var levelNames = map[string]Level{
	"debug":   LevelDebug,
	"":        LevelInfo,
	"info":    LevelInfo,
	"warn":    LevelWarn,
	"warning": LevelWarn,
	"error":   LevelError,
}

var formatNames = map[string]Format{
	"":     FormatJSON,
	"json": FormatJSON,
	"text": FormatText,
}

// ParseLevel converts a configured level name. Unknown names fall back to info with an error.
func ParseLevel(s string) (Level, error) {
	if level, ok := levelNames[strings.ToLower(strings.TrimSpace(s))]; ok {
		return level, nil
	}
	return LevelInfo, fmt.Errorf("unknown log level %q", s)
}

// ParseFormat converts a configured format name ("json" or "text").
func ParseFormat(s string) (Format, error) {
	if format, ok := formatNames[strings.ToLower(strings.TrimSpace(s))]; ok {
		return format, nil
	}
	return FormatJSON, fmt.Errorf("unknown log format %q", s)
}

var current atomic.Pointer[slog.Logger]

func init() {
	InitLogger(LevelInfo, FormatJSON)
}

func logger() *slog.Logger { return current.Load() }

// InitLogger points the global logger at stderr; stdout is reserved for command output.
func InitLogger(level Level, format Format) {
	InitLoggerTo(os.Stderr, level, format)
}

// InitLoggerTo points the global logger, and slog's default, at w.
func InitLoggerTo(w io.Writer, level Level, format Format) {
	opts := &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey && a.Value.Kind() == slog.KindTime {
				return slog.String(slog.TimeKey, a.Value.Time().UTC().Format(time.RFC3339))
			}
			return a
		},
	}

	var handler slog.Handler = slog.NewJSONHandler(w, opts)
	if format == FormatText {
		handler = slog.NewTextHandler(w, opts)
	}

	l := slog.New(handler)
	current.Store(l)
	slog.SetDefault(l)
}

type requestIDKey struct{}

// WithRequestID attaches a request ID to ctx.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

// GetRequestID returns the request ID attached to ctx, or "".
func GetRequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// LoggerFromContext returns the global logger, tagged with the request ID when ctx has one.
func LoggerFromContext(ctx context.Context) *slog.Logger {
	if id := GetRequestID(ctx); id != "" {
		return logger().With("request_id", id)
	}
	return logger()
}

func Debug(msg string, args ...any) { logger().Debug(msg, args...) }
func Info(msg string, args ...any)  { logger().Info(msg, args...) }
func Warn(msg string, args ...any)  { logger().Warn(msg, args...) }
func Error(msg string, args ...any) { logger().Error(msg, args...) }

func DebugContext(ctx context.Context, msg string, args ...any) {
	LoggerFromContext(ctx).DebugContext(ctx, msg, args...)
}

func InfoContext(ctx context.Context, msg string, args ...any) {
	LoggerFromContext(ctx).InfoContext(ctx, msg, args...)
}

func WarnContext(ctx context.Context, msg string, args ...any) {
	LoggerFromContext(ctx).WarnContext(ctx, msg, args...)
}

func ErrorContext(ctx context.Context, msg string, args ...any) {
	LoggerFromContext(ctx).ErrorContext(ctx, msg, args...)
}

// event logs msg with the fixed attributes followed by the caller's extras.
func event(ctx context.Context, level Level, msg string, fixed []any, extra []any) {
	LoggerFromContext(ctx).Log(ctx, level, msg, append(fixed, extra...)...)
}

// HTTPRequestContext logs a completed HTTP request. 5xx responses log at error, 4xx at
// warn, and requests to quiet paths such as /health at debug.
func HTTPRequestContext(ctx context.Context, method, path, remoteAddr string, statusCode int, duration time.Duration, args ...any) {
	level := LevelInfo
	switch {
	case statusCode >= 500:
		level = LevelError
	case statusCode >= 400:
		level = LevelWarn
	case quietPaths[path]:
		level = LevelDebug
	}
	event(ctx, level, "http_request", []any{
		"method", method,
		"path", path,
		"remote_addr", remoteAddr,
		"status_code", statusCode,
		"duration_ms", duration.Milliseconds(),
	}, args)
}

// SongEvent logs a change to the song library.
func SongEvent(ctx context.Context, action, songID, title string, args ...any) {
	event(ctx, LevelInfo, "song_event", []any{"action", action, "song_id", songID, "title", title}, args)
}

// StoreEvent logs a store lifecycle step such as opening or migrating a database.
func StoreEvent(operation, path string, args ...any) {
	event(context.Background(), LevelInfo, "store_event", []any{"operation", operation, "path", path}, args)
}

func WebSocketEvent(name string, clientCount int, args ...any) {
	event(context.Background(), LevelInfo, "websocket_event", []any{"event", name, "client_count", clientCount}, args)
}

func ServerStartup(serverType, protocol string, port int, args ...any) {
	event(context.Background(), LevelInfo, "server_startup", []any{"server_type", serverType, "protocol", protocol, "port", port}, args)
}

// SecurityEvent logs a rejected or suspicious request at warn level.
func SecurityEvent(name, component string, args ...any) {
	event(context.Background(), LevelWarn, "security_event", []any{"event", name, "component", component}, args)
}
