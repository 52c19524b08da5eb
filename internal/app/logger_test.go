package app

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	testCases := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"info":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
		"":      slog.LevelInfo,
		"loud":  slog.LevelInfo,
	}
	for name, want := range testCases {
		assert.Equal(t, want, parseLevel(name), "level %q", name)
	}
}

func TestNewLogger_JSON(t *testing.T) {
	out := &bytes.Buffer{}
	logger := newLogger(&Config{LogLevel: "warn", LogFormat: "json"}, out)

	logger.Info("dropped")
	logger.Warn("kept", "space", "s1")

	var record map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &record), "exactly one JSON record is written")
	assert.Equal(t, "kept", record["msg"])
	assert.Equal(t, "atomgrid", record["app"])
	assert.Equal(t, "s1", record["space"])
}

func TestNewLogger_Text(t *testing.T) {
	out := &bytes.Buffer{}
	logger := newLogger(&Config{LogLevel: "debug", LogFormat: "text"}, out)

	logger.Debug("visible")
	assert.Contains(t, out.String(), "msg=visible")
	assert.Contains(t, out.String(), "app=atomgrid")
}
