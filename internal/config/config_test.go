package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cerrors "move-cost/internal/errors"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":5000", cfg.Server.Addr)
	assert.Equal(t, 4, cfg.Bulk.Workers)
	assert.Empty(t, cfg.RateTablePath)
	assert.Empty(t, cfg.Distance.GoogleAPIKey)
}

func TestLoadMissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	require.NoError(t, err)
	assert.Equal(t, Default().Server, cfg.Server)
}

func TestLoadFileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "movecost.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"rate_table_path": "rates.yaml",
		"server": {"addr": ":9000"},
		"bulk": {"workers": 8}
	}`), 0o644))

	t.Setenv("MOVECOST_BULK_WORKERS", "2")
	t.Setenv("GOOGLE_MAPS_API_KEY", "secret")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "rates.yaml", cfg.RateTablePath)
	assert.Equal(t, ":9000", cfg.Server.Addr)
	assert.Equal(t, 2, cfg.Bulk.Workers)
	assert.Equal(t, "secret", cfg.Distance.GoogleAPIKey)
	// untouched sections keep their defaults
	assert.Equal(t, 10, cfg.Distance.TimeoutSeconds)
}

func TestLoadClampsWorkers(t *testing.T) {
	t.Setenv("MOVECOST_BULK_WORKERS", "0")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 1, cfg.Bulk.Workers)
}

func TestLoadErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"server":`), 0o644))

	_, err := Load(path)
	assert.True(t, cerrors.IsType(err, cerrors.TypeConfig))

	t.Setenv("MOVECOST_BULK_WORKERS", "many")
	_, err = Load("")
	assert.True(t, cerrors.IsType(err, cerrors.TypeConfig))
}

func TestSaveRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.RateTablePath = "rates.hcl"

	path := filepath.Join(t.TempDir(), "nested", "movecost.json")
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "rates.hcl", loaded.RateTablePath)
}

func TestDurations(t *testing.T) {
	d := Default().Distance
	assert.Equal(t, "10s", d.Timeout().String())
	assert.Equal(t, "168h0m0s", d.CacheTTL().String())
}
