package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithContextInjectsTraceFields(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(Config{Level: "debug", Format: "json"}, &buf)
	require.NoError(t, err)

	prev := Get()
	Set(l)
	t.Cleanup(func() { Set(prev) })

	ctx := ContextWith(context.Background(), TraceIDKey, "trace-1")
	ctx = ContextWith(ctx, RequestIDKey, "req-9")
	Info(ctx, "strategy calculated", "symbol", "SPY")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "trace-1", rec["trace_id"])
	assert.Equal(t, "req-9", rec["request_id"])
	assert.Equal(t, "SPY", rec["symbol"])
	assert.NotContains(t, rec, "span_id")
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(Config{Level: "warn", Format: "text"}, &buf)
	require.NoError(t, err)

	l.Info("dropped")
	assert.Empty(t, buf.String())
	l.Warn("kept")
	assert.Contains(t, buf.String(), "kept")
}
