package fuzzy

import (
	"container/list"
	"sync"
)

// Cache provides LRU caching of match results keyed by query. It is safe
// for concurrent use. The cache knows nothing about candidate lists:
// whoever owns the matcher clears it when the underlying list changes.
type Cache struct {
	mu      sync.Mutex
	maxSize int
	epoch   uint64
	items   map[string]*list.Element
	lru     *list.List
}

type cacheEntry struct {
	query   string
	matches []Match
}

// NewCache creates an LRU cache holding up to maxSize query results.
func NewCache(maxSize int) *Cache {
	if maxSize <= 0 {
		maxSize = 64
	}
	return &Cache{
		maxSize: maxSize,
		items:   make(map[string]*list.Element),
		lru:     list.New(),
	}
}

// Get retrieves cached matches for a query, or nil when absent.
func (c *Cache) Get(query string) []Match {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.items[query]
	if !ok {
		return nil
	}
	c.lru.MoveToFront(elem)
	return copyMatches(elem.Value.(*cacheEntry).matches)
}

// Epoch returns the cache's clear generation. It changes on every Clear.
func (c *Cache) Epoch() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.epoch
}

// Set stores matches for a query, evicting the least recently used entry
// when full.
func (c *Cache) Set(query string, matches []Match) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.setLocked(query, matches)
}

// SetAt stores matches like Set, but only when epoch still matches the
// cache's clear generation. A computation that started before a Clear
// cannot re-populate the cache with results built over a list that the
// clear invalidated. It reports whether the entry was stored.
func (c *Cache) SetAt(epoch uint64, query string, matches []Match) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if epoch != c.epoch {
		return false
	}
	c.setLocked(query, matches)
	return true
}

func (c *Cache) setLocked(query string, matches []Match) {
	if elem, ok := c.items[query]; ok {
		c.lru.MoveToFront(elem)
		elem.Value.(*cacheEntry).matches = copyMatches(matches)
		return
	}

	if c.lru.Len() >= c.maxSize {
		if oldest := c.lru.Back(); oldest != nil {
			c.lru.Remove(oldest)
			delete(c.items, oldest.Value.(*cacheEntry).query)
		}
	}

	c.items[query] = c.lru.PushFront(&cacheEntry{query: query, matches: copyMatches(matches)})
}

// Clear removes every entry and advances the epoch, invalidating pending
// SetAt writes from computations that started before the clear.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.epoch++
	c.items = make(map[string]*list.Element)
	c.lru.Init()
}

// Len returns the number of cached queries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}

func copyMatches(matches []Match) []Match {
	copied := make([]Match, len(matches))
	for i, m := range matches {
		copied[i] = Match{CandidateID: m.CandidateID, Text: m.Text, Score: m.Score}
		if m.Positions != nil {
			copied[i].Positions = make([]int, len(m.Positions))
			copy(copied[i].Positions, m.Positions)
		}
	}
	return copied
}
