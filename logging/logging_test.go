package logging_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-fitauth/logging"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, logging.ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, logging.ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, logging.ParseLevel(" error "))
	assert.Equal(t, slog.LevelInfo, logging.ParseLevel(""))
	assert.Equal(t, slog.LevelInfo, logging.ParseLevel("verbose"))
}

func TestNewJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.New("info", "json", &buf)

	logger.Debug("hidden")
	logger.Info("request handled", "status", 200)

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "request handled", record["msg"])
	assert.Equal(t, float64(200), record["status"])
}

func TestNewText(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.New("warn", "text", &buf)

	logger.Info("hidden")
	logger.Warn("optional auth degraded", "reason", "internal")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "reason=internal")
}
