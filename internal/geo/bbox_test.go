package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atharv3903/routemap/internal/model"
)

func TestBoundingBox_Munich(t *testing.T) {
	origin := model.Coordinate{Lat: 48.1372038, Lon: 11.565651}
	target := model.Coordinate{Lat: 48.14, Lon: 11.58}

	b := BoundingBox(origin, target, 0.10)

	assert.InDelta(t, 48.14+0.10, b.North, 1e-12)
	assert.InDelta(t, 48.1372038-0.10, b.South, 1e-12)
	assert.InDelta(t, 11.58+0.10, b.East, 1e-12)
	assert.InDelta(t, 11.565651-0.10, b.West, 1e-12)
}

func TestBoundingBox_Invariants(t *testing.T) {
	cases := []struct {
		name      string
		a, b      model.Coordinate
		perimeter float64
	}{
		{"zero margin", model.Coordinate{Lat: 1, Lon: 2}, model.Coordinate{Lat: 3, Lon: 4}, 0},
		{"same point", model.Coordinate{Lat: 48.1, Lon: 11.5}, model.Coordinate{Lat: 48.1, Lon: 11.5}, 0.05},
		{"southern hemisphere", model.Coordinate{Lat: -33.86, Lon: 151.2}, model.Coordinate{Lat: -33.9, Lon: 151.1}, 0.1},
		{"across meridian", model.Coordinate{Lat: 51.5, Lon: -0.1}, model.Coordinate{Lat: 51.4, Lon: 0.2}, 0.01},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			box := BoundingBox(tc.a, tc.b, tc.perimeter)
			assert.GreaterOrEqual(t, box.North, box.South)
			assert.GreaterOrEqual(t, box.East, box.West)
			assert.True(t, box.Contains(tc.a))
			assert.True(t, box.Contains(tc.b))

			swapped := BoundingBox(tc.b, tc.a, tc.perimeter)
			assert.Equal(t, box, swapped)
		})
	}
}

func TestBoundingBox_MarginIsStrict(t *testing.T) {
	p := model.Coordinate{Lat: 10, Lon: 20}
	box := BoundingBox(p, p, 0.5)
	assert.Greater(t, box.North, box.South)
	assert.Greater(t, box.East, box.West)
}

func TestExtent(t *testing.T) {
	_, ok := Extent()
	assert.False(t, ok)

	b, ok := Extent(
		model.Coordinate{Lat: 48.1, Lon: 11.6},
		model.Coordinate{Lat: 48.2, Lon: 11.5},
		model.Coordinate{Lat: 48.0, Lon: 11.7},
	)
	require.True(t, ok)
	assert.Equal(t, 11.5, b.Min.X())
	assert.Equal(t, 48.0, b.Min.Y())
	assert.Equal(t, 11.7, b.Max.X())
	assert.Equal(t, 48.2, b.Max.Y())
}

func TestKey(t *testing.T) {
	a := BoundingBox(model.Coordinate{Lat: 48.13, Lon: 11.56}, model.Coordinate{Lat: 48.14, Lon: 11.58}, 0.1)
	b := BoundingBox(model.Coordinate{Lat: 48.14, Lon: 11.58}, model.Coordinate{Lat: 48.13, Lon: 11.56}, 0.1)
	c := BoundingBox(model.Coordinate{Lat: 48.13, Lon: 11.56}, model.Coordinate{Lat: 48.20, Lon: 11.58}, 0.1)

	assert.Equal(t, Key(a), Key(b))
	assert.NotEqual(t, Key(a), Key(c))
	assert.Len(t, Hash(model.Coordinate{Lat: 48.14, Lon: 11.58}), 9)
}
