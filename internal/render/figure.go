// Package render draws computed paths as a map figure: a static JPEG and an
// interactive HTML view.
package render

import (
	"math"

	"github.com/atharv3903/routemap/internal/geo"
	"github.com/atharv3903/routemap/internal/model"
)

type Mode string

const (
	Markers Mode = "markers"
	Lines   Mode = "lines"
)

// Trace is one layer of the figure.
type Trace struct {
	Name       string
	Mode       Mode
	Lon        []float64
	Lat        []float64
	MarkerSize float64
	LineWidth  float64
	Color      string
	ShowLegend bool
}

type Legend struct {
	X, Y    float64
	XAnchor string
	YAnchor string
}

type Layout struct {
	Title         string
	FontFamily    string
	FontColor     string
	TitleFontSize float64
	FontSize      float64
	Width         int
	Height        int
	Background    string
	Legend        Legend
	Center        model.Coordinate
	Zoom          float64
	// FitBounds derives Center and Zoom from the traces instead of using
	// the configured values.
	FitBounds bool
}

type Figure struct {
	Traces []Trace
	Layout Layout
}

const (
	originColor = "#333333"
	pathColor   = "#ffd700"
	markerSize  = 16
	pathWidth   = 4.5

	maxZoom = 18
	// fitPadding is the share of the canvas left free around the data.
	fitPadding = 0.1
)

// DefaultLayout is the figure styling of the shortest paths map.
func DefaultLayout() Layout {
	return Layout{
		Title:         "The Shortest Paths Dijkstra Map",
		FontFamily:    "Times New Roman",
		FontColor:     "#333333",
		TitleFontSize: 32,
		FontSize:      18,
		Width:         1000,
		Height:        1000,
		Background:    "#f2f2ef",
		Legend:        Legend{X: 0.83, Y: 1, XAnchor: "left", YAnchor: "top"},
		Center:        model.Coordinate{Lat: 48.14, Lon: 11.57},
		Zoom:          12.2,
		FitBounds:     true,
	}
}

// Build lays out the origin marker, one line per path and one marker per
// destination. lon[i] and lat[i] are the coordinates of path i.
func Build(origin model.Coordinate, targets []model.Coordinate, lon, lat [][]float64, layout Layout) *Figure {
	fig := &Figure{Layout: layout}

	fig.Traces = append(fig.Traces, Trace{
		Name:       "Origin",
		Mode:       Markers,
		Lon:        []float64{origin.Lon},
		Lat:        []float64{origin.Lat},
		MarkerSize: markerSize,
		Color:      originColor,
		ShowLegend: true,
	})

	for i := range lat {
		fig.Traces = append(fig.Traces, Trace{
			Name:       "Path",
			Mode:       Lines,
			Lon:        lon[i],
			Lat:        lat[i],
			MarkerSize: 10,
			LineWidth:  pathWidth,
			Color:      pathColor,
		})
	}

	for _, t := range targets {
		fig.Traces = append(fig.Traces, Trace{
			Name:       "Destination",
			Mode:       Markers,
			Lon:        []float64{t.Lon},
			Lat:        []float64{t.Lat},
			MarkerSize: markerSize,
			Color:      pathColor,
		})
	}

	if layout.FitBounds {
		fig.Layout.Center, fig.Layout.Zoom = fit(fig.Traces, layout.Width, layout.Height)
	}
	return fig
}

// Count returns how many traces of the given name the figure has.
func (f *Figure) Count(name string) int {
	n := 0
	for _, t := range f.Traces {
		if t.Name == name {
			n++
		}
	}
	return n
}

// fit returns the center and the largest zoom at which every trace point fits
// the canvas in web mercator.
func fit(traces []Trace, width, height int) (model.Coordinate, float64) {
	var pts []model.Coordinate
	for _, t := range traces {
		for i := range t.Lat {
			pts = append(pts, model.Coordinate{Lat: t.Lat[i], Lon: t.Lon[i]})
		}
	}
	b, ok := geo.Extent(pts...)
	if !ok {
		return DefaultLayout().Center, DefaultLayout().Zoom
	}

	c := b.Center()
	center := model.Coordinate{Lat: c.Lat(), Lon: c.Lon()}

	usableW := float64(width) * (1 - fitPadding)
	usableH := float64(height) * (1 - fitPadding)

	zoom := float64(maxZoom)
	if dx := (b.Max.Lon() - b.Min.Lon()) / 360; dx > 0 {
		zoom = math.Min(zoom, math.Log2(usableW/(tileSize*dx)))
	}
	if dy := (mercatorY(b.Min.Lat()) - mercatorY(b.Max.Lat())); dy > 0 {
		zoom = math.Min(zoom, math.Log2(usableH/(tileSize*dy)))
	}
	return center, math.Max(0, zoom)
}
