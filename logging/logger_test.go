package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	line := strings.TrimSpace(buf.String())
	require.NotEmpty(t, line)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(line), &entry))
	return entry
}

func TestLoggerKeepsKeyValueArgs(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(&LoggerConfig{Level: LogLevelDebug, Format: "json", Output: &buf})

	// Call sites pass slog-style key-value pairs through the Logger interface.
	var log Logger = l
	log.Info("execution started", "execution_id", "exec-123", "client_id", "client-1")

	entry := decodeLine(t, &buf)
	assert.Equal(t, "execution started", entry["msg"])
	assert.Equal(t, "exec-123", entry["execution_id"])
	assert.Equal(t, "client-1", entry["client_id"])
}

func TestLoggerAttachesContextualAttrs(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(&LoggerConfig{Level: LogLevelInfo, Format: "json", Output: &buf}).
		WithComponent("engine").
		WithExecution("client-1", "exec-123")

	l.Warn("history not loaded", "error", "store offline")

	entry := decodeLine(t, &buf)
	assert.Equal(t, "history not loaded", entry["msg"])
	assert.Equal(t, "engine", entry["component"])
	assert.Equal(t, "client-1", entry["client_id"])
	assert.Equal(t, "exec-123", entry["execution_id"])
	assert.Equal(t, "store offline", entry["error"])
}

func TestLoggerLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(&LoggerConfig{Level: LogLevelWarn, Format: "json", Output: &buf})

	l.Debug("ignored")
	l.Info("ignored")
	assert.Empty(t, buf.String())

	l.Warn("kept")
	assert.NotEmpty(t, buf.String())
}
