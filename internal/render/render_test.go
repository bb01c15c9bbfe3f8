package render

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image/jpeg"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atharv3903/routemap/internal/model"
)

var (
	origin = model.Coordinate{Lat: 48.1372038, Lon: 11.565651}
	target = model.Coordinate{Lat: 48.14, Lon: 11.58}
)

func munichFigure(layout Layout) *Figure {
	return Build(origin, []model.Coordinate{target},
		[][]float64{{11.565651, 11.57, 11.58}},
		[][]float64{{48.1372038, 48.138, 48.14}},
		layout)
}

func TestBuild_Traces(t *testing.T) {
	fig := munichFigure(DefaultLayout())

	require.Len(t, fig.Traces, 3)
	assert.Equal(t, 1, fig.Count("Origin"))
	assert.Equal(t, 1, fig.Count("Path"))
	assert.Equal(t, 1, fig.Count("Destination"))

	o := fig.Traces[0]
	assert.Equal(t, Markers, o.Mode)
	assert.Equal(t, "#333333", o.Color)
	assert.Equal(t, []float64{origin.Lon}, o.Lon)
	assert.Equal(t, []float64{origin.Lat}, o.Lat)
	assert.True(t, o.ShowLegend)

	p := fig.Traces[1]
	assert.Equal(t, Lines, p.Mode)
	assert.Equal(t, 4.5, p.LineWidth)
	assert.Equal(t, "#ffd700", p.Color)
	assert.False(t, p.ShowLegend)

	d := fig.Traces[2]
	assert.Equal(t, []float64{target.Lat}, d.Lat)
	assert.False(t, d.ShowLegend)
}

func TestBuild_FixedView(t *testing.T) {
	l := DefaultLayout()
	l.FitBounds = false
	fig := munichFigure(l)
	assert.Equal(t, model.Coordinate{Lat: 48.14, Lon: 11.57}, fig.Layout.Center)
	assert.Equal(t, 12.2, fig.Layout.Zoom)
}

func TestBuild_FitView(t *testing.T) {
	fig := munichFigure(DefaultLayout())

	c := fig.Layout.Center
	assert.InDelta(t, (origin.Lat+target.Lat)/2, c.Lat, 1e-9)
	assert.InDelta(t, (origin.Lon+target.Lon)/2, c.Lon, 1e-9)
	assert.Greater(t, fig.Layout.Zoom, 12.2)
	assert.LessOrEqual(t, fig.Layout.Zoom, float64(maxZoom))

	// every point lands inside the canvas
	proj := newProjection(c, fig.Layout.Zoom, fig.Layout.Width, fig.Layout.Height)
	for _, tr := range fig.Traces {
		for i := range tr.Lat {
			x, y := proj.point(tr.Lat[i], tr.Lon[i])
			assert.True(t, x >= 0 && x <= 1000 && y >= 0 && y <= 1000, "%v,%v", x, y)
		}
	}
}

func TestBuild_SinglePointView(t *testing.T) {
	fig := Build(origin, nil, nil, nil, DefaultLayout())
	assert.Equal(t, float64(maxZoom), fig.Layout.Zoom)
}

func TestRasterize(t *testing.T) {
	fig := munichFigure(DefaultLayout())
	img, err := Rasterize(fig, 1)
	require.NoError(t, err)
	assert.Equal(t, 1000, img.Bounds().Dx())

	// destination markers are drawn last, in path colour
	proj := newProjection(fig.Layout.Center, fig.Layout.Zoom, 1000, 1000)
	x, y := proj.point(target.Lat, target.Lon)
	r, g, b, _ := img.At(int(x), int(y)).RGBA()
	assert.Equal(t, [3]uint32{0xff, 0xd7, 0x00}, [3]uint32{r >> 8, g >> 8, b >> 8})

	// background away from any trace
	r, g, b, _ = img.At(999, 999).RGBA()
	assert.Equal(t, [3]uint32{0xf2, 0xf2, 0xef}, [3]uint32{r >> 8, g >> 8, b >> 8})
}

func TestRasterize_BadColor(t *testing.T) {
	fig := munichFigure(DefaultLayout())
	fig.Traces[1].Color = "gold"
	_, err := Rasterize(fig, 1)
	assert.Error(t, err)
}

func TestParseHex(t *testing.T) {
	c, err := parseHex("#ffd700")
	require.NoError(t, err)
	assert.Equal(t, uint8(0xff), c.R)
	assert.Equal(t, uint8(0xd7), c.G)
	assert.Equal(t, uint8(0x00), c.B)

	c, err = parseHex("#333")
	require.NoError(t, err)
	assert.Equal(t, uint8(0x33), c.G)

	_, err = parseHex("#zzzzzz")
	assert.Error(t, err)
}

func TestGeoJSON(t *testing.T) {
	fc := GeoJSON(munichFigure(DefaultLayout()))
	require.Len(t, fc.Features, 3)
	assert.Equal(t, "Point", fc.Features[0].Geometry.GeoJSONType())
	assert.Equal(t, "LineString", fc.Features[1].Geometry.GeoJSONType())
	assert.Equal(t, "Destination", fc.Features[2].Properties.MustString("name"))
}

func TestWriteHTML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteHTML(&buf, munichFigure(DefaultLayout())))

	html := buf.String()
	assert.Contains(t, html, "The Shortest Paths Dijkstra Map")
	assert.Contains(t, html, "L.geoJSON(data")

	start := strings.Index(html, "const data = ") + len("const data = ")
	end := strings.Index(html[start:], ";\n")
	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte(html[start:start+end]), &doc))
	assert.Equal(t, "FeatureCollection", doc["type"])
}

func TestRender_WritesFiles(t *testing.T) {
	dir := t.TempDir()
	var opened string
	r := NewRenderer(Options{
		ImagePath: filepath.Join(dir, "dijkstra_map.jpg"),
		HTMLPath:  filepath.Join(dir, "dijkstra_map.html"),
		Scale:     1,
		Open:      true,
	})
	r.open = func(p string) error { opened = p; return errors.New("no display") }

	require.NoError(t, r.Render(context.Background(), munichFigure(DefaultLayout())))

	f, err := os.Open(filepath.Join(dir, "dijkstra_map.jpg"))
	require.NoError(t, err)
	defer f.Close()
	cfg, err := jpeg.DecodeConfig(f)
	require.NoError(t, err)
	assert.Equal(t, 1000, cfg.Width)
	assert.Equal(t, 1000, cfg.Height)

	assert.FileExists(t, filepath.Join(dir, "dijkstra_map.html"))
	assert.Equal(t, filepath.Join(dir, "dijkstra_map.html"), opened)
}

func TestRender_MissingDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "output")
	r := NewRenderer(Options{ImagePath: filepath.Join(dir, "map.jpg"), Scale: 1})

	err := r.Render(context.Background(), munichFigure(DefaultLayout()))
	assert.ErrorIs(t, err, os.ErrNotExist)

	r = NewRenderer(Options{ImagePath: filepath.Join(dir, "map.jpg"), Scale: 1, CreateDirs: true})
	require.NoError(t, r.Render(context.Background(), munichFigure(DefaultLayout())))
	assert.FileExists(t, filepath.Join(dir, "map.jpg"))
}
