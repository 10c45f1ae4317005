package layout

import "sync"

type cacheKey struct {
	Name string
	Mode Mode
}

// cache memoises per-name layouts. Registry entries never change once
// inserted, so an entry stays valid for the lifetime of the engine.
type cache struct {
	mu     sync.RWMutex
	byType map[cacheKey]TypeLayout
}

func newCache() *cache {
	return &cache{byType: make(map[cacheKey]TypeLayout, 64)}
}

func (c *cache) get(key cacheKey) (TypeLayout, bool) {
	if c == nil {
		return TypeLayout{}, false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	l, ok := c.byType[key]
	return l, ok
}

func (c *cache) put(key cacheKey, l *TypeLayout) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if l == nil {
		delete(c.byType, key)
		return
	}
	c.byType[key] = *l
}

func (c *cache) len() int {
	if c == nil {
		return 0
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.byType)
}
