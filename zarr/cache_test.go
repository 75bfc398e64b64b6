package zarr

import "testing"

func TestCacheEvictsInsertionOrder(t *testing.T) {
	c := newChunkCache(2)
	c.put("a", []float32{1})
	c.put("b", []float32{2})

	// Touching "a" must not protect it: eviction order ignores access.
	if _, ok := c.get("a"); !ok {
		t.Fatal("a missing before eviction")
	}

	c.put("c", []float32{3})
	if _, ok := c.get("a"); ok {
		t.Error("a should have been evicted first")
	}
	if _, ok := c.get("b"); !ok {
		t.Error("b should survive")
	}
	if _, ok := c.get("c"); !ok {
		t.Error("c should be present")
	}
}

func TestCacheBound(t *testing.T) {
	c := newChunkCache(4)
	for _, k := range []string{"a", "b", "c", "d", "e", "f"} {
		c.put(k, nil)
	}
	if got := c.len(); got != 4 {
		t.Errorf("len = %d, want 4", got)
	}
}

func TestCacheUpdateInPlace(t *testing.T) {
	c := newChunkCache(2)
	c.put("a", []float32{1})
	c.put("b", []float32{2})
	c.put("a", []float32{9})

	if got := c.len(); got != 2 {
		t.Fatalf("len = %d, want 2", got)
	}
	buf, ok := c.get("a")
	if !ok || buf[0] != 9 {
		t.Errorf("a = %v, want updated value 9", buf)
	}

	// Updating did not reinsert: "a" is still the oldest entry.
	c.put("c", nil)
	if _, ok := c.get("a"); ok {
		t.Error("a should be evicted as oldest")
	}
}

func TestCacheMinimumCapacity(t *testing.T) {
	c := newChunkCache(0)
	c.put("a", nil)
	if got := c.len(); got != 1 {
		t.Errorf("len = %d, want 1", got)
	}
}
