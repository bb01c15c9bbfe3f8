package geo

import (
	"fmt"
	"math"

	"github.com/mmcloughlin/geohash"
	"github.com/paulmach/orb"

	"github.com/atharv3903/routemap/internal/model"
)

// BoundingBox returns the box enclosing origin and target, grown outward by
// perimeter degrees on every side.
func BoundingBox(origin, target model.Coordinate, perimeter float64) model.BBox {
	return model.BBox{
		North: math.Max(origin.Lat, target.Lat) + perimeter,
		South: math.Min(origin.Lat, target.Lat) - perimeter,
		East:  math.Max(origin.Lon, target.Lon) + perimeter,
		West:  math.Min(origin.Lon, target.Lon) - perimeter,
	}
}

// Extent returns the bound of all given coordinates. ok is false for an
// empty input.
func Extent(points ...model.Coordinate) (orb.Bound, bool) {
	if len(points) == 0 {
		return orb.Bound{}, false
	}
	b := orb.Bound{Min: Point(points[0]), Max: Point(points[0])}
	for _, p := range points[1:] {
		b = b.Extend(Point(p))
	}
	return b, true
}

// Point converts a coordinate to an orb point (lon, lat).
func Point(c model.Coordinate) orb.Point {
	return orb.Point{c.Lon, c.Lat}
}

// Key identifies a bounding box for caching. Corners are geohashed at full
// precision, so boxes that differ by less than a few centimetres share a key.
func Key(b model.BBox) string {
	return fmt.Sprintf("%s:%s",
		geohash.EncodeWithPrecision(b.South, b.West, 12),
		geohash.EncodeWithPrecision(b.North, b.East, 12))
}

// Hash is the geohash of c used in reports.
func Hash(c model.Coordinate) string {
	return geohash.EncodeWithPrecision(c.Lat, c.Lon, 9)
}
