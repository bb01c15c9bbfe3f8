package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load("", nil)
	require.NoError(t, err)

	assert.Equal(t, 48.1372038, cfg.Origin.Lat)
	assert.Equal(t, 11.565651, cfg.Origin.Lon)
	assert.Equal(t, 0.10, cfg.Perimeter)
	assert.Equal(t, "data/geocoordinates.csv", cfg.Input.Targets)
	assert.Equal(t, "overpass", cfg.Provider.Name)
	assert.Equal(t, 180*time.Second, cfg.Overpass.Timeout)
	assert.Equal(t, "output/dijkstra_map.jpg", cfg.Render.ImagePath)
	assert.Equal(t, 3.0, cfg.Render.Scale)
	assert.True(t, cfg.Render.FitBounds)
	assert.False(t, cfg.Render.CreateDirs)
	assert.False(t, cfg.Batch.SkipFailed)
}

func TestLoad_FileEnvAndOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "routemap.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
perimeter: 0.05
origin:
  lat: 52.52
  lon: 13.405
render:
  fit_bounds: false
  zoom: 11
overpass:
  retry_wait: 500ms
`), 0o644))

	t.Setenv("ROUTEMAP_RENDER_SCALE", "2")

	cfg, err := Load(path, map[string]any{"input.targets": "berlin.csv"})
	require.NoError(t, err)

	assert.Equal(t, 0.05, cfg.Perimeter)
	assert.Equal(t, 52.52, cfg.Origin.Lat)
	assert.False(t, cfg.Render.FitBounds)
	assert.Equal(t, 11.0, cfg.Render.Zoom)
	assert.Equal(t, 2.0, cfg.Render.Scale)
	assert.Equal(t, 500*time.Millisecond, cfg.Overpass.RetryWait)
	assert.Equal(t, "berlin.csv", cfg.Input.Targets)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), nil)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	chdir(t, t.TempDir())

	cases := map[string]map[string]any{
		"negative perimeter": {"perimeter": -0.1},
		"unknown provider":   {"provider.name": "osrm"},
		"mysql without dsn":  {"provider.name": "mysql"},
		"bad latitude":       {"origin.lat": 123.0},
		"no outputs":         {"render.image_path": "", "render.html_path": ""},
		"bad log level":      {"log.level": "verbose"},
		"zero valkey ttl":    {"valkey.ttl": "0s"},
	}
	for name, overrides := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load("", overrides)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "config validation failed")
		})
	}
}

func TestFromFlags(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := FromFlags("routemap", []string{
		"-targets", "x.csv",
		"-provider", "mysql",
		"-dsn", "user:pw@tcp(localhost:3306)/roads",
		"-skip-failed",
	})
	require.NoError(t, err)
	assert.Equal(t, "x.csv", cfg.Input.Targets)
	assert.Equal(t, "mysql", cfg.Provider.Name)
	assert.True(t, cfg.Batch.SkipFailed)

	_, err = FromFlags("routemap", []string{"-bogus"})
	assert.Error(t, err)
}
