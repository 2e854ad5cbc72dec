package storeresolve

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/aws/smithy-go/logging"
)

// Logger wraps slog.Logger with resolver-specific helpers.
// This provides structured logging with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
// level sets the minimum log level (e.g., slog.LevelDebug, slog.LevelInfo).
func NewJSONLogger(level slog.Level) *Logger {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NoopLogger creates a Logger that discards all log output.
func NoopLogger() *Logger {
	return &Logger{
		Logger: slog.New(slog.DiscardHandler),
	}
}

// WithBucket adds a bucket field to the logger.
func (l *Logger) WithBucket(bucket string, anonymous bool) *Logger {
	return &Logger{
		Logger: l.Logger.With("bucket", bucket, "anonymous", anonymous),
	}
}

// LogResolve logs a resolve call.
func (l *Logger) LogResolve(ctx context.Context, path string, remote bool, objectPath string, err error) {
	if err != nil {
		l.WarnContext(ctx, "resolve failed",
			"path", path,
			"kind", KindOf(err).String(),
			"error", err,
		)
		return
	}
	l.DebugContext(ctx, "resolve completed",
		"path", path,
		"remote", remote,
		"object_path", objectPath,
	)
}

// LogClientBuild logs construction of a remote client.
func (l *Logger) LogClientBuild(ctx context.Context, key CacheKey, duration time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "client build failed",
			"bucket", key.Bucket,
			"anonymous", key.Anonymous,
			"duration", duration,
			"error", err,
		)
		return
	}
	l.InfoContext(ctx, "client built",
		"bucket", key.Bucket,
		"anonymous", key.Anonymous,
		"duration", duration,
	)
}

// SDKLogger adapts the logger to the smithy logging interface used by the AWS SDK.
func (l *Logger) SDKLogger() logging.Logger {
	return sdkLogger{l: l.Logger}
}

type sdkLogger struct {
	l *slog.Logger
}

func (s sdkLogger) Logf(classification logging.Classification, format string, v ...any) {
	msg := fmt.Sprintf(format, v...)
	switch classification {
	case logging.Warn:
		s.l.Warn(msg, "source", "aws-sdk")
	default:
		s.l.Debug(msg, "source", "aws-sdk")
	}
}
