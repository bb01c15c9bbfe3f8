// Package pathfind turns an origin/target pair into the coordinates of the
// shortest road path between them.
package pathfind

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/atharv3903/routemap/internal/algo"
	"github.com/atharv3903/routemap/internal/cache"
	"github.com/atharv3903/routemap/internal/geo"
	"github.com/atharv3903/routemap/internal/graph"
	"github.com/atharv3903/routemap/internal/metrics"
	"github.com/atharv3903/routemap/internal/model"
)

// Provider returns the drivable, unsimplified road graph inside a box.
type Provider interface {
	Name() string
	Graph(ctx context.Context, b model.BBox) (*graph.RoadGraph, error)
}

// Result is one extraction plus bookkeeping for reports and the API.
type Result struct {
	Path     model.Path
	BBox     model.BBox
	Explored int
	CacheHit bool
}

type Extractor struct {
	provider  Provider
	perimeter float64
	graphs    *cache.GraphCache
	routes    *cache.RouteCache
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithGraphCache reuses fetched graphs for identical boxes.
func WithGraphCache(c *cache.GraphCache) Option {
	return func(e *Extractor) { e.graphs = c }
}

// WithRouteCache reuses solved paths for identical snapped endpoints.
func WithRouteCache(c *cache.RouteCache) Option {
	return func(e *Extractor) { e.routes = c }
}

func New(p Provider, perimeter float64, opts ...Option) *Extractor {
	e := &Extractor{provider: p, perimeter: perimeter}
	for _, o := range opts {
		o(e)
	}
	return e
}

func (e *Extractor) Perimeter() float64 { return e.perimeter }

// Extract computes the shortest path from origin to target over the road
// graph of their bounding box grown by the perimeter.
func (e *Extractor) Extract(ctx context.Context, origin, target model.Coordinate) (Result, error) {
	res, err := e.extract(ctx, origin, target)
	if err != nil {
		metrics.Extractions.WithLabelValues("error").Inc()
		return Result{}, err
	}
	metrics.Extractions.WithLabelValues("ok").Inc()
	metrics.ExploredNodes.Observe(float64(res.Explored))
	return res, nil
}

func (e *Extractor) extract(ctx context.Context, origin, target model.Coordinate) (Result, error) {
	box := geo.BoundingBox(origin, target, e.perimeter)
	key := geo.Key(box)

	g, err := e.graph(ctx, box, key)
	if err != nil {
		return Result{}, fmt.Errorf("fetch %s graph: %w", e.provider.Name(), err)
	}

	src, err := g.Nearest(origin)
	if err != nil {
		// An empty box is usually a provider hiccup; refetch it next time.
		if e.graphs != nil {
			e.graphs.Invalidate(key)
		}
		return Result{}, fmt.Errorf("snap origin: %w", err)
	}
	dst, err := g.Nearest(target)
	if err != nil {
		return Result{}, fmt.Errorf("snap target: %w", err)
	}

	var rk cache.RouteKey
	if e.routes != nil {
		rk = cache.RouteKey{Graph: key, Src: src.ID, Dst: dst.ID, Epoch: e.routes.Epoch()}
		if p, ok := e.routes.Get(rk); ok {
			metrics.CacheHits.WithLabelValues("route").Inc()
			return Result{Path: p, BBox: box, CacheHit: true}, nil
		}
		metrics.CacheMisses.WithLabelValues("route").Inc()
	}

	nodes, total, explored, err := algo.Dijkstra(ctx, g, src.ID, dst.ID, algo.ByLength)
	if err != nil {
		return Result{}, fmt.Errorf("shortest path: %w", err)
	}

	path := model.Path{
		Nodes:   nodes,
		Lon:     make([]float64, 0, len(nodes)),
		Lat:     make([]float64, 0, len(nodes)),
		LengthM: total,
	}
	for _, id := range nodes {
		n, ok := g.Node(id)
		if !ok {
			return Result{}, fmt.Errorf("shortest path: %w: %d", graph.ErrNodeNotFound, id)
		}
		path.Lon = append(path.Lon, n.Lon)
		path.Lat = append(path.Lat, n.Lat)
	}

	if e.routes != nil {
		e.routes.Put(rk, path)
	}

	slog.DebugContext(ctx, "path extracted",
		"provider", e.provider.Name(),
		"graph_nodes", g.NumNodes(),
		"from_node", src.ID,
		"to_node", dst.ID,
		"explored", explored,
	)
	return Result{Path: path, BBox: box, Explored: explored}, nil
}

func (e *Extractor) graph(ctx context.Context, box model.BBox, key string) (*graph.RoadGraph, error) {
	if e.graphs != nil {
		if g, ok := e.graphs.Get(key); ok {
			metrics.CacheHits.WithLabelValues("graph").Inc()
			return g, nil
		}
		metrics.CacheMisses.WithLabelValues("graph").Inc()
	}

	g, err := e.provider.Graph(ctx, box)
	if err != nil {
		return nil, err
	}
	if e.graphs != nil {
		e.graphs.Put(key, g)
	}
	return g, nil
}

// ClearCaches drops cached graphs and routes.
func (e *Extractor) ClearCaches() {
	if e.graphs != nil {
		e.graphs.Clear()
	}
	if e.routes != nil {
		e.routes.BumpEpoch()
	}
}

// CacheStats reports the graph cache counters and the number of stored routes.
func (e *Extractor) CacheStats() (cache.Stats, int) {
	var gs cache.Stats
	var routes int
	if e.graphs != nil {
		gs = e.graphs.Stats()
	}
	if e.routes != nil {
		routes = e.routes.Len()
	}
	return gs, routes
}
