package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLoadDefaults(t *testing.T) {
	// Change to temp dir so no config.yaml is found
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"data/provinces/medres", "data/cities/medres"}, cfg.Index.Roots)
	assert.Equal(t, "data", cfg.Index.DataRoot)
	assert.Equal(t, "data/boundary_index.json", cfg.Index.Path)
	assert.Equal(t, []string{".json", ".geojson", ".shp"}, cfg.Index.Extensions)
	assert.Equal(t, []string{"ADM2_EN", "ADM3_EN"}, cfg.Index.LevelFields)
	assert.False(t, cfg.Index.CheckFreshness)
	assert.InDelta(t, 0.70, cfg.Resolver.SimilarityThreshold, 0.001)
	assert.InDelta(t, 0.0001, cfg.Geometry.SimplifyTolerance, 1e-9)
	assert.Equal(t, "output", cfg.Output.Dir)
	assert.False(t, cfg.Output.Pretty)
	assert.Empty(t, cfg.Batch.Places)
	assert.Equal(t, "https://nominatim.openstreetmap.org", cfg.Nominatim.BaseURL)
	assert.Equal(t, "geo-boundary-automation", cfg.Nominatim.UserAgent)
	assert.Equal(t, 30*time.Second, cfg.Nominatim.Timeout())
	assert.InDelta(t, 1.0, cfg.Nominatim.RateLimit, 0.001)
	assert.Empty(t, cfg.Store.Path)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadFromYAML(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	yaml := `
index:
  data_root: /srv/boundaries
  level_fields: [ADM1_EN]
resolver:
  similarity_threshold: 0.85
batch:
  places:
    - "Batanes, Philippines"
    - "Isabela, Philippines"
log:
  level: debug
  format: console
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/srv/boundaries", cfg.Index.DataRoot)
	assert.Equal(t, []string{"ADM1_EN"}, cfg.Index.LevelFields)
	assert.InDelta(t, 0.85, cfg.Resolver.SimilarityThreshold, 0.001)
	assert.Equal(t, []string{"Batanes, Philippines", "Isabela, Philippines"}, cfg.Batch.Places)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	// Defaults still apply for unset values
	assert.Equal(t, "output", cfg.Output.Dir)
	assert.InDelta(t, 0.0001, cfg.Geometry.SimplifyTolerance, 1e-9)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	yaml := `
log:
  level: debug
output:
  dir: out-from-file
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	t.Setenv("BOUNDARYGEN_LOG_LEVEL", "warn")
	t.Setenv("BOUNDARYGEN_OUTPUT_DIR", "out-from-env")

	cfg, err := Load()
	require.NoError(t, err)

	// Env overrides file
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "out-from-env", cfg.Output.Dir)
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	t.Setenv("BOUNDARYGEN_NOMINATIM_TIMEOUT_SECS", "5")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, cfg.Nominatim.Timeout())
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerJSON(t *testing.T) {
	err := InitLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "invalid", Format: "json"})
	assert.Error(t, err)
}
