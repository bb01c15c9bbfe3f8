package model

// Coordinate is a WGS84 point, latitude first.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// BBox is a geographic bounding box. North >= South and East >= West.
type BBox struct {
	North float64 `json:"north"`
	South float64 `json:"south"`
	East  float64 `json:"east"`
	West  float64 `json:"west"`
}

// Contains reports whether c lies inside the box, edges included.
func (b BBox) Contains(c Coordinate) bool {
	return c.Lat >= b.South && c.Lat <= b.North && c.Lon >= b.West && c.Lon <= b.East
}

type Node struct {
	ID  int64
	Lat float64
	Lon float64
}

type Edge struct {
	Src     int64
	Dst     int64
	LengthM float64
}

// Path is a shortest path as parallel longitude/latitude sequences in
// traversal order.
type Path struct {
	Nodes   []int64   `json:"nodes"`
	Lon     []float64 `json:"lon"`
	Lat     []float64 `json:"lat"`
	LengthM float64   `json:"length_m"`
}

type RouteResponse struct {
	Path          Path `json:"path"`
	ExploredNodes int  `json:"explored_nodes"`
	CacheHit      bool `json:"cache_hit"`
	BBox          BBox `json:"bbox"`
}
