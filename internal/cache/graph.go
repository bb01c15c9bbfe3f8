package cache

import (
	"container/list"
	"sync"

	"github.com/atharv3903/routemap/internal/graph"
)

// defaultGraphCapacity is the default number of road graphs the cache will hold.
// Graphs for a city-sized box run to tens of MB, keep this small.
const defaultGraphCapacity = 8

type graphEntry struct {
	key string
	val *graph.RoadGraph
}

// GraphCache is a bounded LRU cache of fetched road graphs keyed by bbox key.
// It's safe for concurrent use.
type GraphCache struct {
	mu       sync.Mutex
	m        map[string]*list.Element
	ll       *list.List
	capacity int
	// stats
	puts      int
	gets      int
	hits      int
	evictions int
}

// NewGraphCache returns an LRU graph cache with the default capacity.
func NewGraphCache() *GraphCache {
	return NewGraphCacheWithCap(defaultGraphCapacity)
}

// NewGraphCacheWithCap returns an LRU graph cache with the provided capacity.
// A non-positive capacity falls back to the default.
func NewGraphCacheWithCap(capacity int) *GraphCache {
	if capacity <= 0 {
		capacity = defaultGraphCapacity
	}
	return &GraphCache{
		m:        make(map[string]*list.Element, capacity),
		ll:       list.New(),
		capacity: capacity,
	}
}

// Get returns the graph for key, and true if it was found.
// It updates LRU position on hit.
func (c *GraphCache) Get(key string) (*graph.RoadGraph, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.gets++
	if el, ok := c.m[key]; ok {
		c.hits++
		c.ll.MoveToFront(el)
		return el.Value.(graphEntry).val, true
	}
	return nil, false
}

// Put inserts the graph into the cache. If insertion causes the cache to exceed
// capacity, the least-recently-used entry is evicted.
func (c *GraphCache) Put(key string, g *graph.RoadGraph) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.m[key]; ok {
		el.Value = graphEntry{key: key, val: g}
		c.ll.MoveToFront(el)
		c.puts++
		return
	}

	el := c.ll.PushFront(graphEntry{key: key, val: g})
	c.m[key] = el
	c.puts++

	if c.ll.Len() > c.capacity {
		tail := c.ll.Back()
		if tail != nil {
			ge := tail.Value.(graphEntry)
			delete(c.m, ge.key)
			c.ll.Remove(tail)
			c.evictions++
		}
	}
}

// Invalidate removes a single entry (if present).
func (c *GraphCache) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.m[key]; ok {
		delete(c.m, key)
		c.ll.Remove(el)
	}
}

// Clear fully resets the cache and stats.
func (c *GraphCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m = make(map[string]*list.Element, c.capacity)
	c.ll.Init()
	c.puts = 0
	c.gets = 0
	c.hits = 0
	c.evictions = 0
}

type Stats struct {
	Gets      int `json:"gets"`
	Hits      int `json:"hits"`
	Puts      int `json:"puts"`
	Evictions int `json:"evictions"`
	Len       int `json:"len"`
}

// Stats returns a snapshot taken under lock.
func (c *GraphCache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{Gets: c.gets, Hits: c.hits, Puts: c.puts, Evictions: c.evictions, Len: c.ll.Len()}
}
