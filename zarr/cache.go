package zarr

import "sync"

// chunkCache is a bounded key → decoded-buffer map. Eviction is by
// insertion order, not access recency: a hot chunk re-requested repeatedly
// still ages out on schedule. Kept deliberately; see DESIGN.md.
type chunkCache struct {
	mu    sync.Mutex
	max   int
	items map[string][]float32
	order []string
}

func newChunkCache(max int) *chunkCache {
	if max < 1 {
		max = 1
	}
	return &chunkCache{
		max:   max,
		items: make(map[string][]float32, max),
	}
}

func (c *chunkCache) get(key string) ([]float32, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	buf, ok := c.items[key]
	return buf, ok
}

func (c *chunkCache) put(key string, buf []float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.items[key]; ok {
		c.items[key] = buf
		return
	}
	if len(c.order) >= c.max {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.items, oldest)
	}
	c.items[key] = buf
	c.order = append(c.order, key)
}

func (c *chunkCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}
