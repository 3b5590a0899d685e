package logger_test

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wyfcoding/simulatorcalc/pkg/logger"
)

func TestNew_JSONWithLevel(t *testing.T) {
	var buf bytes.Buffer
	l := logger.New(&buf, logger.Config{Level: "warn", Format: "json"})

	l.Info("ignored")
	l.Warn("kept", "index", "CDI")

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &entry))
	assert.Equal(t, "kept", entry["msg"])
	assert.Equal(t, "CDI", entry["index"])
}

func TestContextIDs(t *testing.T) {
	ctx := logger.ContextWithTraceID(context.Background(), "trace-1")
	ctx = logger.ContextWithRequestID(ctx, "req-1")

	assert.Equal(t, "trace-1", logger.TraceID(ctx))
	assert.Equal(t, "req-1", logger.RequestID(ctx))
	assert.Empty(t, logger.TraceID(context.Background()))
}
