package app

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"move-cost/adapters/distance"
	"move-cost/core/ratetable"
	"move-cost/core/types"
	"move-cost/internal/config"
	cerrors "move-cost/internal/errors"
)

func TestBuildDefault(t *testing.T) {
	deps, err := Build(config.Default(), nil)
	require.NoError(t, err)
	defer deps.Close()

	assert.Equal(t, "builtin", deps.Store.Current().Source())
	assert.Equal(t, "chain(geodesic)", deps.Resolver.Name())
	assert.Nil(t, deps.Redis)

	result, err := deps.Pipeline.Price(types.NewMoveRequest("Dallas, TX", "Houston, TX", 240, 5000))
	require.NoError(t, err)
	assert.Equal(t, "2540.79", result.TotalShouldCost.String())
}

func TestBuildMissingRateTable(t *testing.T) {
	cfg := config.Default()
	cfg.RateTablePath = filepath.Join(t.TempDir(), "missing.json")

	_, err := Build(cfg, nil)
	assert.True(t, cerrors.IsType(err, cerrors.TypeConfig))
}

func TestBuildCustomRateTable(t *testing.T) {
	doc := ratetable.MustDefault().Document()
	rate := 0.5
	doc.BaseRatePerPound = &rate
	data, err := json.Marshal(doc)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "rates.json")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	cfg := config.Default()
	cfg.RateTablePath = path
	deps, err := Build(cfg, nil)
	require.NoError(t, err)
	defer deps.Close()

	assert.Equal(t, path, deps.Store.Current().Source())
	assert.Equal(t, "0.50", deps.Store.Current().BaseRatePerPound().StringFixed(2))
}

func TestNewResolverWithGoogleKey(t *testing.T) {
	cfg := config.Default().Distance
	cfg.GoogleAPIKey = "test-key"

	resolver, rdb := NewResolver(cfg, nil)
	assert.Nil(t, rdb)
	assert.Equal(t, "chain(google_maps,geodesic)", resolver.Name())
}

func TestNewResolverWithCache(t *testing.T) {
	mr := miniredis.RunT(t)

	cfg := config.Default().Distance
	cfg.RedisAddr = mr.Addr()

	resolver, rdb := NewResolver(cfg, nil)
	require.NotNil(t, rdb)
	defer rdb.Close()

	_, ok := resolver.(*distance.CachedResolver)
	assert.True(t, ok)
	assert.Equal(t, "cached(chain(geodesic))", resolver.Name())
}
