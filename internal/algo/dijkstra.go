package algo

import (
	"container/heap"
	"context"
	"errors"
	"fmt"

	"github.com/atharv3903/routemap/internal/model"
)

var (
	ErrNoPath         = errors.New("dijkstra: no path between nodes")
	ErrNegativeWeight = errors.New("dijkstra: negative edge weight")
)

// Graph is the adjacency view Dijkstra walks.
type Graph interface {
	Neighbors(n int64) ([]model.Edge, error)
}

// Weight maps an edge to its traversal cost.
type Weight func(e model.Edge) float64

// ByLength weights edges by their length in metres.
func ByLength(e model.Edge) float64 { return e.LengthM }

type pqItem struct {
	node int64
	dist float64
}

type pq []pqItem

func (p pq) Len() int           { return len(p) }
func (p pq) Less(i, j int) bool { return p[i].dist < p[j].dist }
func (p pq) Swap(i, j int)      { p[i], p[j] = p[j], p[i] }

func (p *pq) Push(x any) {
	*p = append(*p, x.(pqItem))
}

func (p *pq) Pop() any {
	old := *p
	n := len(old)
	item := old[n-1]
	*p = old[:n-1]
	return item
}

// checkEvery is how many settled nodes pass between context checks.
const checkEvery = 1024

// Dijkstra returns the cheapest node sequence from src to dst, its total
// cost and the number of settled nodes.
func Dijkstra(ctx context.Context, g Graph, src, dst int64, cost Weight) ([]int64, float64, int, error) {
	dist := map[int64]float64{src: 0}
	prev := map[int64]int64{}
	done := map[int64]bool{}
	pq := &pq{}
	heap.Push(pq, pqItem{node: src, dist: 0})
	explored := 0

	for pq.Len() > 0 {
		cur := heap.Pop(pq).(pqItem)
		u := cur.node

		if done[u] {
			continue
		}
		done[u] = true

		if u == dst {
			break
		}

		explored++
		if explored%checkEvery == 0 {
			if err := ctx.Err(); err != nil {
				return nil, 0, explored, err
			}
		}

		neighbors, err := g.Neighbors(u)
		if err != nil {
			return nil, 0, explored, err
		}

		for _, e := range neighbors {
			w := cost(e)
			if w < 0 {
				return nil, 0, explored, fmt.Errorf("%w: %d -> %d", ErrNegativeWeight, e.Src, e.Dst)
			}
			nd := dist[u] + w

			old, found := dist[e.Dst]

			if !found || nd < old {
				dist[e.Dst] = nd
				prev[e.Dst] = u
				heap.Push(pq, pqItem{node: e.Dst, dist: nd})
			}
		}
	}

	if !done[dst] {
		return nil, 0, explored, fmt.Errorf("%w: %d -> %d", ErrNoPath, src, dst)
	}

	// reconstruct
	path := []int64{}
	cur := dst

	for cur != src {
		path = append(path, cur)
		cur = prev[cur]
	}
	path = append(path, src)

	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}

	return path, dist[dst], explored, nil
}
