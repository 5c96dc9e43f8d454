package compiler

import (
	"encoding/json"
	"fmt"
	"hash/fnv"
	"sync"

	"github.com/relgraph/relgraph/src/ast"
	"github.com/relgraph/relgraph/src/rel"
)

// planCache stores compiled plans keyed by an AST fingerprint plus the
// catalog generation that was current at compile time. A label created
// later bumps the generation, so stale plans simply stop being hit.
// Thread-safe with RWMutex and FIFO eviction.
type planCache struct {
	mu      sync.RWMutex
	cache   map[string]*rel.Query
	order   []string // FIFO insertion order
	maxSize int
}

func newPlanCache(maxSize int) *planCache {
	return &planCache{
		cache:   make(map[string]*rel.Query),
		order:   make([]string, 0),
		maxSize: maxSize,
	}
}

// Fetch retrieves the cached plan or builds and stores it using fn.
// The bool result reports whether the plan came from the cache.
func (c *planCache) Fetch(key string, fn func() (*rel.Query, error)) (*rel.Query, bool, error) {
	// Fast path: check if key exists with read lock
	c.mu.RLock()
	if v, ok := c.cache[key]; ok {
		c.mu.RUnlock()
		return v, true, nil
	}
	c.mu.RUnlock()

	// Slow path: acquire write lock and check again (double-check locking)
	c.mu.Lock()
	defer c.mu.Unlock()

	if v, ok := c.cache[key]; ok {
		return v, true, nil
	}

	val, err := fn()
	if err != nil {
		return nil, false, err
	}

	// FIFO eviction: remove oldest entry if at capacity
	if len(c.cache) >= c.maxSize && len(c.order) > 0 {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.cache, oldest)
	}

	c.cache[key] = val
	c.order = append(c.order, key)
	return val, false, nil
}

// Len returns the number of cached plans.
func (c *planCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.cache)
}

// cacheKey fingerprints a clause chain together with the graph name and
// catalog generation.
func cacheKey(graphName string, generation uint64, clauses []ast.Clause) string {
	h := fnv.New64a()
	fmt.Fprintf(h, "%s|%d", graphName, generation)
	for _, c := range clauses {
		fmt.Fprintf(h, "|%T", c)
		if data, err := json.Marshal(c); err == nil {
			h.Write(data)
		}
	}
	return fmt.Sprintf("%016x", h.Sum64())
}
