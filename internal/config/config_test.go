package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("PORT", "")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 9595, cfg.Port)
	assert.Equal(t, "Etablissements_Rhone_Alpes.xlsx", cfg.FacilitiesPath)
	assert.Equal(t, "calculated_routes.json", cfg.RoutesPath)
	assert.Equal(t, DistanceConfig{Default: 20, Min: 1, Max: 50}, cfg.Distance)
	assert.Equal(t, MapConfig{CenterLat: 45.5, CenterLon: 5.5, Zoom: 8}, cfg.Map)
	assert.Equal(t, ":9595", cfg.Addr())
}

func TestLoadFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
port: 8080
routes_path: data/routes.json
distance:
  default: 10
map:
  zoom: 9
`), 0o644))

	t.Setenv("ROUTE_SITES_LOG_LEVEL", "debug")
	t.Setenv("ROUTE_SITES_DISTANCE_MAX", "40")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "data/routes.json", cfg.RoutesPath)
	assert.Equal(t, 10.0, cfg.Distance.Default)
	assert.Equal(t, 40.0, cfg.Distance.Max)
	assert.Equal(t, 9, cfg.Map.Zoom)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadPortEnv(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("PORT", "7000")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 7000, cfg.Port)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	chdir(t, t.TempDir())
	t.Setenv("ROUTE_SITES_DISTANCE_DEFAULT", "80")
	_, err = Load("")
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := Config{
		Port:           9595,
		FacilitiesPath: "f.xlsx",
		RoutesPath:     "r.json",
		LogLevel:       "loud",
		LogFormat:      "console",
		Distance:       DistanceConfig{Default: 20, Min: 1, Max: 50},
		Map:            MapConfig{CenterLat: 45.5, CenterLon: 5.5, Zoom: 8},
	}
	assert.Error(t, cfg.Validate())

	cfg.LogLevel = "warn"
	assert.NoError(t, cfg.Validate())
}

// chdir changes the working directory for the duration of the test
// (equivalent of testing.T.Chdir, which requires Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(old) })
}
