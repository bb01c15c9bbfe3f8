// Package graph holds the in-memory road network used for routing: nodes
// with coordinates, directed length-weighted adjacency and a spatial index
// for nearest-node snapping.
package graph

import (
	"errors"
	"fmt"
	"sync"

	"github.com/dhconnelly/rtreego"
	orbgeo "github.com/paulmach/orb/geo"

	"github.com/atharv3903/routemap/internal/geo"
	"github.com/atharv3903/routemap/internal/model"
)

var (
	ErrEmptyGraph   = errors.New("graph: no nodes")
	ErrNodeNotFound = errors.New("graph: node not found")
)

// snapCandidates is how many R-tree neighbours are re-ranked by great-circle
// distance when snapping. The tree works in raw degrees, which stretch with
// latitude.
const snapCandidates = 8

// RoadGraph is a directed road network. It is not safe for concurrent
// mutation; once built it is only read.
type RoadGraph struct {
	nodes map[int64]model.Node
	adj   map[int64][]model.Edge
	edges int

	mu    sync.Mutex
	index *rtreego.Rtree
}

func New() *RoadGraph {
	return &RoadGraph{
		nodes: make(map[int64]model.Node),
		adj:   make(map[int64][]model.Edge),
	}
}

// AddNode inserts or replaces a node.
func (g *RoadGraph) AddNode(n model.Node) {
	g.nodes[n.ID] = n
	g.index = nil
}

// AddEdge adds a directed edge between two known nodes. A non-positive length
// is replaced by the great-circle distance between the endpoints.
func (g *RoadGraph) AddEdge(src, dst int64, lengthM float64) error {
	a, ok := g.nodes[src]
	if !ok {
		return fmt.Errorf("%w: %d", ErrNodeNotFound, src)
	}
	b, ok := g.nodes[dst]
	if !ok {
		return fmt.Errorf("%w: %d", ErrNodeNotFound, dst)
	}
	if lengthM <= 0 {
		lengthM = orbgeo.Distance(geo.Point(model.Coordinate{Lat: a.Lat, Lon: a.Lon}), geo.Point(model.Coordinate{Lat: b.Lat, Lon: b.Lon}))
	}
	g.adj[src] = append(g.adj[src], model.Edge{Src: src, Dst: dst, LengthM: lengthM})
	g.edges++
	return nil
}

func (g *RoadGraph) Node(id int64) (model.Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// Neighbors returns the outgoing edges of id.
func (g *RoadGraph) Neighbors(id int64) ([]model.Edge, error) {
	if _, ok := g.nodes[id]; !ok {
		return nil, fmt.Errorf("%w: %d", ErrNodeNotFound, id)
	}
	return g.adj[id], nil
}

func (g *RoadGraph) NumNodes() int { return len(g.nodes) }
func (g *RoadGraph) NumEdges() int { return g.edges }

// Nodes returns every node, in no particular order.
func (g *RoadGraph) Nodes() []model.Node {
	out := make([]model.Node, 0, len(g.nodes))
	for _, n := range g.nodes {
		out = append(out, n)
	}
	return out
}

// Edges returns every directed edge, in no particular order.
func (g *RoadGraph) Edges() []model.Edge {
	out := make([]model.Edge, 0, g.edges)
	for _, es := range g.adj {
		out = append(out, es...)
	}
	return out
}

// Prune drops nodes that no edge touches, such as untagged nodes or ends
// of way segments cut off by clipping.
func (g *RoadGraph) Prune() {
	used := make(map[int64]bool, len(g.nodes))
	for src, es := range g.adj {
		if len(es) > 0 {
			used[src] = true
		}
		for _, e := range es {
			used[e.Dst] = true
		}
	}
	for id := range g.nodes {
		if !used[id] {
			delete(g.nodes, id)
		}
	}
	g.index = nil
}

type indexedNode struct {
	node model.Node
	rect rtreego.Rect
}

func (n indexedNode) Bounds() rtreego.Rect { return n.rect }

func (g *RoadGraph) buildIndex() {
	g.index = rtreego.NewTree(2, 25, 50)
	for _, n := range g.nodes {
		g.index.Insert(indexedNode{
			node: n,
			rect: rtreego.Point{n.Lon, n.Lat}.ToRect(1e-9),
		})
	}
}

// Nearest snaps c to the closest node by great-circle distance.
func (g *RoadGraph) Nearest(c model.Coordinate) (model.Node, error) {
	if len(g.nodes) == 0 {
		return model.Node{}, ErrEmptyGraph
	}
	g.mu.Lock()
	if g.index == nil {
		g.buildIndex()
	}
	candidates := g.index.NearestNeighbors(snapCandidates, rtreego.Point{c.Lon, c.Lat})
	g.mu.Unlock()

	var (
		best     model.Node
		found    bool
		bestDist float64
	)
	for _, s := range candidates {
		in, ok := s.(indexedNode)
		if !ok {
			continue
		}
		d := orbgeo.Distance(geo.Point(c), geo.Point(model.Coordinate{Lat: in.node.Lat, Lon: in.node.Lon}))
		if !found || d < bestDist || (d == bestDist && in.node.ID < best.ID) {
			best, bestDist, found = in.node, d, true
		}
	}
	if !found {
		return model.Node{}, ErrEmptyGraph
	}
	return best, nil
}
