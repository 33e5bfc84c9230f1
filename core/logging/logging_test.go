package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/adalundhe/topicalmap/core/config"
)

func TestNewWithWriter_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewWithWriter(config.LogConfig{Level: "info", JSON: true}, &buf)
	require.NoError(t, err)

	logger.Named("store").Info("saved graph", zap.String("name", "solar"))
	logger.Debug("dropped")
	require.NoError(t, logger.Sync())

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "saved graph", entry["msg"])
	assert.Equal(t, "store", entry["logger"])
	assert.Equal(t, "solar", entry["name"])
	assert.NotContains(t, buf.String(), "dropped")
}

func TestNewWithWriter_Console(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewWithWriter(config.LogConfig{Level: "DEBUG"}, &buf)
	require.NoError(t, err)

	logger.Debug("cache purged", zap.Int("entries", 3))
	assert.Contains(t, buf.String(), "cache purged")
	assert.Contains(t, buf.String(), `"entries": 3`)
}

func TestNewWithWriter_BadLevel(t *testing.T) {
	_, err := NewWithWriter(config.LogConfig{Level: "chatty"}, &bytes.Buffer{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, config.ErrInvalidConfig))
}
