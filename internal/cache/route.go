package cache

import (
	"sync"

	"github.com/atharv3903/routemap/internal/model"
)

// RouteKey identifies a solved route: the graph it was solved on and the
// snapped endpoints. Epoch is bumped whenever graphs may have changed.
type RouteKey struct {
	Graph    string
	Src, Dst int64
	Epoch    uint64
}

type RouteCache struct {
	mu    sync.RWMutex
	epoch uint64
	m     map[RouteKey]model.Path
}

func NewRouteCache() *RouteCache {
	return &RouteCache{m: make(map[RouteKey]model.Path)}
}

func (c *RouteCache) Get(k RouteKey) (model.Path, bool) {
	c.mu.RLock()
	v, ok := c.m[k]
	c.mu.RUnlock()
	return v, ok
}

func (c *RouteCache) Put(k RouteKey, p model.Path) {
	c.mu.Lock()
	c.m[k] = p
	c.mu.Unlock()
}

func (c *RouteCache) Epoch() uint64 {
	c.mu.RLock()
	e := c.epoch
	c.mu.RUnlock()
	return e
}

// BumpEpoch makes every stored route unreachable and drops them.
func (c *RouteCache) BumpEpoch() {
	c.mu.Lock()
	c.epoch++
	c.m = make(map[RouteKey]model.Path)
	c.mu.Unlock()
}

func (c *RouteCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.m)
}
