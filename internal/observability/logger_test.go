package observability

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/climate-data-etl/internal/config"
)

func TestNewLogger_TextFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := newLoggerTo(&buf, &config.Config{LogLevel: "info", LogFormat: "text"})

	logger.Info("station fetched", "station", "03772099999", "year", 2023)

	out := buf.String()
	assert.Contains(t, out, "station fetched")
	assert.Contains(t, out, "station=03772099999")
}

func TestNewLogger_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := newLoggerTo(&buf, &config.Config{LogLevel: "info", LogFormat: "json"})

	logger.Info("station fetched", "year", 2023)

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "station fetched", record["msg"])
	assert.Equal(t, float64(2023), record["year"])
}

func TestNewLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := newLoggerTo(&buf, &config.Config{LogLevel: "warn", LogFormat: "text"})

	logger.Info("suppressed")
	logger.Warn("emitted")

	out := buf.String()
	assert.NotContains(t, out, "suppressed")
	assert.Contains(t, out, "emitted")
}

func TestNewLogger_DebugLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := newLoggerTo(&buf, &config.Config{LogLevel: "debug", LogFormat: "text"})

	logger.Debug("verbose detail")

	assert.Contains(t, buf.String(), "verbose detail")
}
