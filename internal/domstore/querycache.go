package domstore

import (
	"sync"
)

// QueryKind distinguishes the kinds of selector queries the cache
// keys on, per spec §3.
type QueryKind uint8

const (
	QueryQuerySelector QueryKind = iota
	QueryQuerySelectorAll
	QueryGetElementsByClassName
	QueryGetElementsByTagName
	QueryMatches
	QueryClosest
)

type queryKey struct {
	root     NodeId
	selector string
	kind     QueryKind
}

type queryEntry struct {
	generation uint64
	result     []NodeId
}

// queryCache caches selector-query results keyed by (root, selector,
// kind), valid iff the stored generation equals the DOM's current
// generation. Grounded on EdgeComet's hostsCache atomic.Pointer
// swap-on-rebuild idiom (internal/common/config/config.go), adapted
// from a single "hosts" snapshot to a map of independently-keyed
// entries each versioned by its own generation stamp rather than the
// whole cache being replaced.
type queryCache struct {
	mu      sync.Mutex
	entries map[queryKey]queryEntry
}

func newQueryCache() *queryCache {
	return &queryCache{entries: make(map[queryKey]queryEntry, 16)}
}

// Lookup returns a cached result for key if valid at generation gen,
// with ok=true. A cache hit returns the exact slice that was stored;
// callers that mutate the returned slice must copy it first.
func (c *queryCache) lookup(key queryKey, gen uint64) ([]NodeId, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok || e.generation != gen {
		return nil, false
	}
	return e.result, true
}

func (c *queryCache) store(key queryKey, gen uint64, result []NodeId) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = queryEntry{generation: gen, result: result}
}

// QueryCached returns the cached result for (root, selector, kind) if
// present and current; otherwise it calls compute, stores the result
// under the current generation, and returns it. Per spec's query-cache
// contract: "on hit with equal generation the cached result is
// returned verbatim"; any structural/attribute mutation invalidates
// every entry at once by advancing the generation, so no per-entry
// purge is needed.
func (s *Store) QueryCached(root NodeId, selector string, kind QueryKind, compute func() []NodeId) []NodeId {
	key := queryKey{root: root, selector: selector, kind: kind}
	gen := s.Generation()
	if cached, ok := s.queryCache.lookup(key, gen); ok {
		return cached
	}
	result := compute()
	s.queryCache.store(key, gen, result)
	return result
}
