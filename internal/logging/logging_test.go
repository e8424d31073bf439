package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWritesJSONToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "movecost.log")

	logger, err := New(Config{Level: "warn", Format: "json", Output: path})
	require.NoError(t, err)

	logger.Info("dropped")
	logger.Warn("rate table reload failed")
	require.NoError(t, logger.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "dropped")
	assert.Contains(t, string(data), `"msg":"rate table reload failed"`)
	assert.Contains(t, string(data), `"timestamp"`)
}

func TestNewUnknownLevelFallsBackToInfo(t *testing.T) {
	logger, err := New(Config{Level: "loud", Format: "console", Output: "stderr"})
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(0))
	assert.False(t, logger.Core().Enabled(-1))
}

func TestInitializeReplacesGlobal(t *testing.T) {
	prev := Logger
	t.Cleanup(func() { Logger = prev })

	require.NoError(t, Initialize(Config{Level: "debug", Format: "json", Output: "stdout"}))
	assert.NotSame(t, prev, Logger)
	assert.NotNil(t, Named("bulk"))
}
