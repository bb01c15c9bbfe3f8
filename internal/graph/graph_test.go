package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atharv3903/routemap/internal/model"
)

func grid() *RoadGraph {
	g := New()
	g.AddNode(model.Node{ID: 1, Lat: 48.000, Lon: 11.000})
	g.AddNode(model.Node{ID: 2, Lat: 48.000, Lon: 11.010})
	g.AddNode(model.Node{ID: 3, Lat: 48.010, Lon: 11.000})
	g.AddNode(model.Node{ID: 4, Lat: 48.010, Lon: 11.010})
	return g
}

func TestAddEdge_UnknownNode(t *testing.T) {
	g := grid()
	err := g.AddEdge(1, 99, 10)
	require.ErrorIs(t, err, ErrNodeNotFound)
	assert.Equal(t, 0, g.NumEdges())
}

func TestAddEdge_DerivesLength(t *testing.T) {
	g := grid()
	require.NoError(t, g.AddEdge(1, 3, 0))

	es, err := g.Neighbors(1)
	require.NoError(t, err)
	require.Len(t, es, 1)
	// 0.01 degrees of latitude is about 1112 m
	assert.InDelta(t, 1112, es[0].LengthM, 5)
}

func TestNeighbors_UnknownNode(t *testing.T) {
	_, err := grid().Neighbors(42)
	assert.ErrorIs(t, err, ErrNodeNotFound)
}

func TestNearest(t *testing.T) {
	g := grid()

	n, err := g.Nearest(model.Coordinate{Lat: 48.0091, Lon: 11.0088})
	require.NoError(t, err)
	assert.Equal(t, int64(4), n.ID)

	n, err = g.Nearest(model.Coordinate{Lat: 47.5, Lon: 10.5})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n.ID)
}

func TestNearest_IndexRebuiltAfterAddNode(t *testing.T) {
	g := grid()
	_, err := g.Nearest(model.Coordinate{Lat: 48.005, Lon: 11.005})
	require.NoError(t, err)

	g.AddNode(model.Node{ID: 5, Lat: 48.005, Lon: 11.005})
	n, err := g.Nearest(model.Coordinate{Lat: 48.005, Lon: 11.005})
	require.NoError(t, err)
	assert.Equal(t, int64(5), n.ID)
}

func TestNearest_EmptyGraph(t *testing.T) {
	_, err := New().Nearest(model.Coordinate{Lat: 1, Lon: 1})
	assert.ErrorIs(t, err, ErrEmptyGraph)
}

func TestPrune(t *testing.T) {
	g := grid()
	require.NoError(t, g.AddEdge(1, 2, 5))
	g.Prune()

	assert.Equal(t, 2, g.NumNodes())
	_, ok := g.Node(3)
	assert.False(t, ok)

	n, err := g.Nearest(model.Coordinate{Lat: 48.01, Lon: 11.0})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n.ID)
}
