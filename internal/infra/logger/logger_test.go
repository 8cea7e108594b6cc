package logger

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContextLogger_WithContext(t *testing.T) {
	var buf bytes.Buffer
	cl := NewContextLoggerFrom(slog.New(slog.NewJSONHandler(&buf, nil)), "campus-assist")

	ctx := WithSessionID(context.Background(), "s1")
	ctx = WithScope(ctx, "campus")
	ctx = WithStage(ctx, "upload")
	cl.WithContext(ctx).Info("handbook_upload_received")

	line := buf.String()
	assert.Contains(t, line, `"service":"campus-assist"`)
	assert.Contains(t, line, `"assist.session.id":"s1"`)
	assert.Contains(t, line, `"assist.scope":"campus"`)
	assert.Contains(t, line, `"assist.stage":"upload"`)
}

func TestContextLogger_BareContext(t *testing.T) {
	var buf bytes.Buffer
	cl := NewContextLoggerFrom(slog.New(slog.NewJSONHandler(&buf, nil)), "campus-assist")

	cl.WithContext(context.Background()).Info("chat_received")

	line := buf.String()
	assert.Contains(t, line, `"service":"campus-assist"`)
	assert.NotContains(t, line, "assist.session.id")
}

func TestMultiHandler_FanOut(t *testing.T) {
	var a, b bytes.Buffer
	h := &MultiHandler{handlers: []slog.Handler{
		slog.NewJSONHandler(&a, nil),
		slog.NewJSONHandler(&b, &slog.HandlerOptions{Level: slog.LevelError}),
	}}
	log := slog.New(h)

	log.Info("routine event")
	assert.Contains(t, a.String(), "routine event")
	assert.Empty(t, b.String(), "info must not reach the error-level handler")

	log.Error("failure event")
	assert.Contains(t, a.String(), "failure event")
	assert.Contains(t, b.String(), "failure event")
}

func TestMultiHandler_WithAttrsPropagates(t *testing.T) {
	var a, b bytes.Buffer
	h := &MultiHandler{handlers: []slog.Handler{
		slog.NewJSONHandler(&a, nil),
		slog.NewJSONHandler(&b, nil),
	}}
	log := slog.New(h).With("session_id", "s1")

	log.Info("event")
	assert.Contains(t, a.String(), `"session_id":"s1"`)
	assert.Contains(t, b.String(), `"session_id":"s1"`)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLevel("debug"))
	assert.Equal(t, slog.LevelWarn, parseLevel("WARN"))
	assert.Equal(t, slog.LevelError, parseLevel("error"))
	assert.Equal(t, slog.LevelInfo, parseLevel(""))
	assert.Equal(t, slog.LevelInfo, parseLevel("nonsense"))
}

func TestNewWithOTel_BuildsMultiHandler(t *testing.T) {
	log := NewWithOTel(true)
	assert.NotNil(t, log)
	assert.IsType(t, &MultiHandler{}, log.Handler())
}
