package app

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atharv3903/routemap/internal/config"
)

func TestOpen_Overpass(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := config.Load("", map[string]any{"perimeter": 0.05, "cache.graphs": 2})
	require.NoError(t, err)

	a, err := Open(context.Background(), cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	defer a.Close()

	assert.Equal(t, "overpass", a.Provider.Name())
	assert.Nil(t, a.Store)
	assert.Equal(t, 0.05, a.Extractor.Perimeter())
}

func TestCacheOptions(t *testing.T) {
	cfg := &config.Config{}
	assert.Empty(t, cacheOptions(cfg))

	cfg.Cache.Graphs = 4
	cfg.Cache.Routes = true
	assert.Len(t, cacheOptions(cfg), 2)
}

func TestLayout(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := config.Load("", map[string]any{"render.fit_bounds": false, "render.zoom": 10.5})
	require.NoError(t, err)

	l := Layout(cfg)
	assert.False(t, l.FitBounds)
	assert.Equal(t, 10.5, l.Zoom)
	assert.Equal(t, 48.14, l.Center.Lat)
	assert.Equal(t, "The Shortest Paths Dijkstra Map", l.Title)
}
