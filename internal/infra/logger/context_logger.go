package logger

import (
	"context"
	"log/slog"
	"os"
)

type ContextKey string

const (
	SessionIDKey ContextKey = "assist.session.id"
	ScopeKey     ContextKey = "assist.scope"
	StageKey     ContextKey = "assist.stage"
)

// ContextLogger provides context-aware logging: session, scope, and
// pipeline stage carried in the context show up as structured fields.
type ContextLogger struct {
	logger      *slog.Logger
	serviceName string
}

// NewContextLogger creates a new context-aware logger.
func NewContextLogger(serviceName string) *ContextLogger {
	opts := &slog.HandlerOptions{
		Level: parseLevel(os.Getenv("LOG_LEVEL")),
	}
	handler := slog.NewJSONHandler(os.Stdout, opts)

	return &ContextLogger{
		logger:      slog.New(handler),
		serviceName: serviceName,
	}
}

// NewContextLoggerFrom wraps an existing logger, for callers that do not
// want the JSON stdout default.
func NewContextLoggerFrom(l *slog.Logger, serviceName string) *ContextLogger {
	return &ContextLogger{
		logger:      l,
		serviceName: serviceName,
	}
}

// WithContext returns a logger with context values extracted and added as fields.
func (cl *ContextLogger) WithContext(ctx context.Context) *slog.Logger {
	logger := cl.logger.With("service", cl.serviceName)

	var fields []any

	if sessionID := ctx.Value(SessionIDKey); sessionID != nil {
		fields = append(fields, string(SessionIDKey), sessionID)
	}
	if scope := ctx.Value(ScopeKey); scope != nil {
		fields = append(fields, string(ScopeKey), scope)
	}
	if stage := ctx.Value(StageKey); stage != nil {
		fields = append(fields, string(StageKey), stage)
	}

	if len(fields) > 0 {
		logger = logger.With(fields...)
	}

	return logger
}

// WithSessionID adds the session ID to the context for observability.
func WithSessionID(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, SessionIDKey, sessionID)
}

// WithScope adds the retrieval scope to the context for observability.
func WithScope(ctx context.Context, scope string) context.Context {
	return context.WithValue(ctx, ScopeKey, scope)
}

// WithStage adds the pipeline stage to the context for observability.
func WithStage(ctx context.Context, stage string) context.Context {
	return context.WithValue(ctx, StageKey, stage)
}
