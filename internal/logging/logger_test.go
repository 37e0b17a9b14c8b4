package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nekogravitycat/office-booking-backend/internal/config"
)

var testApp = config.AppConfig{Name: "office-booking", Environment: "test", Version: "v0"}

func TestNew_JSONFields(t *testing.T) {
	var buf bytes.Buffer
	logger, closer, err := newWithStdout(config.LoggingConfig{Level: "debug"}, testApp, &buf)
	require.NoError(t, err)
	assert.Nil(t, closer)

	logger.Debug().Str("office_id", "o-1").Msg("lock acquired")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "debug", entry["level"])
	assert.Equal(t, "office-booking", entry["app"])
	assert.Equal(t, "test", entry["env"])
	assert.Equal(t, "o-1", entry["office_id"])
	assert.Equal(t, "lock acquired", entry["message"])
}

func TestNew_LevelFilters(t *testing.T) {
	var buf bytes.Buffer
	logger, _, err := newWithStdout(config.LoggingConfig{Level: "warn"}, testApp, &buf)
	require.NoError(t, err)

	logger.Info().Msg("hidden")
	assert.Empty(t, buf.String())

	logger.Warn().Msg("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestNew_InvalidLevelFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	logger, _, err := newWithStdout(config.LoggingConfig{Level: "loud"}, testApp, &buf)
	require.NoError(t, err)

	logger.Debug().Msg("hidden")
	logger.Info().Msg("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func TestNew_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	logger, closer, err := New(config.LoggingConfig{Output: "file", FilePath: path}, testApp)
	require.NoError(t, err)
	require.NotNil(t, closer)

	logger.Info().Msg("to file")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "to file")
}

func TestNew_FileRequiresPath(t *testing.T) {
	_, _, err := New(config.LoggingConfig{Output: "file"}, testApp)
	assert.Error(t, err)
}
