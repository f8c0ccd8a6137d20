package pathidx

import (
	"sync"

	lru "github.com/hashicorp/golang-lru"
)

// DefaultStoreToDepth is the default cutoff below which prefixes are
// eligible for the sub-path cache (§3 "Sub-path cache").
const DefaultStoreToDepth = 2

// SubPathCache is a process-local record of shallow prefixes already
// known to exist as non-leaf documents in the search index (C3).
// Readers share a read lock and wait only while a Union holds the
// write lock. A reader that misses a prefix being added costs at worst
// a redundant existence check in Stage B, never a correctness issue
// (§4.2, §5 "Shared resources").
//
// It is mutated by exactly one writer (Stage B of the pipeline, after
// a successful multi-get), so the read path only needs a RWMutex, not
// a fully lock-free structure.
type SubPathCache struct {
	StoreToDepth int

	mu  sync.RWMutex
	set map[string]struct{}

	// lru, when non-nil, bounds the cache to a fixed capacity instead
	// of growing unboundedly. Per REDESIGN FLAGS §9, this is the
	// variant an operator can opt into via NewBoundedSubPathCache;
	// a cache from NewSubPathCache keeps the teacher's unbounded set.
	lru *lru.Cache
}

// NewSubPathCache returns an unbounded sub-path cache, matching the
// teacher's "no eviction" design (§4.2).
func NewSubPathCache(storeToDepth int) *SubPathCache {
	if storeToDepth <= 0 {
		storeToDepth = DefaultStoreToDepth
	}
	return &SubPathCache{
		StoreToDepth: storeToDepth,
		set:          make(map[string]struct{}),
	}
}

// NewBoundedSubPathCache returns a sub-path cache capped at capacity
// entries, evicting least-recently-used prefixes once full. Intended
// for operators worried about unbounded growth (§9 REDESIGN FLAGS).
func NewBoundedSubPathCache(storeToDepth, capacity int) (*SubPathCache, error) {
	c, err := lru.New(capacity)
	if err != nil {
		return nil, err
	}
	if storeToDepth <= 0 {
		storeToDepth = DefaultStoreToDepth
	}
	return &SubPathCache{StoreToDepth: storeToDepth, lru: c}, nil
}

// Has reports whether path is already known to exist as a shallow
// non-leaf document.
func (c *SubPathCache) Has(path string) bool {
	if c.lru != nil {
		_, ok := c.lru.Get(path)
		return ok
	}
	c.mu.RLock()
	_, ok := c.set[path]
	c.mu.RUnlock()
	return ok
}

// Union adds every path in paths to the cache. Called by Stage B after
// a multi-get confirms those documents already exist (§4.4).
func (c *SubPathCache) Union(paths []string) {
	if c.lru != nil {
		for _, p := range paths {
			c.lru.Add(p, struct{}{})
		}
		return
	}
	c.mu.Lock()
	for _, p := range paths {
		c.set[p] = struct{}{}
	}
	c.mu.Unlock()
}

// Len returns the number of cached prefixes. Test/diagnostic use.
func (c *SubPathCache) Len() int {
	if c.lru != nil {
		return c.lru.Len()
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.set)
}
