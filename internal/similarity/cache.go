package similarity

import (
	"container/list"
	"sync"
	"sync/atomic"
)

// CacheStats is a point-in-time view of cache effectiveness.
type CacheStats struct {
	Hits      int64 `json:"hits"`
	Misses    int64 `json:"misses"`
	Evictions int64 `json:"evictions"`
	Size      int   `json:"size"`
	Capacity  int   `json:"capacity"`
}

// Cache memoizes pairwise similarity scores with LRU eviction.
// Keys are order independent: (a,b) and (b,a) share one entry.
type Cache struct {
	mu       sync.Mutex
	capacity int
	items    map[string]*list.Element
	order    *list.List // front = most recent

	hits      atomic.Int64
	misses    atomic.Int64
	evictions atomic.Int64
}

type cacheEntry struct {
	key   string
	score float64
}

// NewCache creates a cache holding at most capacity pairs.
func NewCache(capacity int) *Cache {
	if capacity <= 0 {
		capacity = 10000
	}
	return &Cache{
		capacity: capacity,
		items:    make(map[string]*list.Element, capacity),
		order:    list.New(),
	}
}

// PairKey builds the order independent cache key.
func PairKey(a, b, version string) string {
	if b < a {
		a, b = b, a
	}
	return version + "\x00" + a + "\x00" + b
}

// GetOrCompute returns the memoized score or computes and stores it.
// compute runs outside the lock; concurrent misses may both compute.
func (c *Cache) GetOrCompute(a, b, version string, compute func(a, b string) float64) float64 {
	key := PairKey(a, b, version)
	if v, ok := c.get(key); ok {
		return v
	}
	v := compute(a, b)
	c.set(key, v)
	return v
}

func (c *Cache) get(key string) (float64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[key]; ok {
		c.order.MoveToFront(elem)
		c.hits.Add(1)
		return elem.Value.(*cacheEntry).score, true
	}
	c.misses.Add(1)
	return 0, false
}

func (c *Cache) set(key string, score float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[key]; ok {
		c.order.MoveToFront(elem)
		elem.Value.(*cacheEntry).score = score
		return
	}
	if c.order.Len() >= c.capacity {
		if oldest := c.order.Back(); oldest != nil {
			c.order.Remove(oldest)
			delete(c.items, oldest.Value.(*cacheEntry).key)
			c.evictions.Add(1)
		}
	}
	c.items[key] = c.order.PushFront(&cacheEntry{key: key, score: score})
}

// Len returns the number of cached pairs.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// Stats returns hit, miss and eviction counters.
func (c *Cache) Stats() CacheStats {
	return CacheStats{
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Evictions: c.evictions.Load(),
		Size:      c.Len(),
		Capacity:  c.capacity,
	}
}

// CachedScorer scores through a Cache. Results equal Scorer.Score.
type CachedScorer struct {
	scorer *Scorer
	cache  *Cache
}

// NewCachedScorer wraps scorer with cache. A nil cache scores directly.
func NewCachedScorer(scorer *Scorer, cache *Cache) *CachedScorer {
	return &CachedScorer{scorer: scorer, cache: cache}
}

// Score returns the similarity of a and b.
func (s *CachedScorer) Score(a, b string) float64 {
	if s.cache == nil {
		return s.scorer.Score(a, b)
	}
	return s.cache.GetOrCompute(a, b, s.scorer.Version(), s.scorer.Score)
}

// Stats exposes the underlying cache counters.
func (s *CachedScorer) Stats() CacheStats {
	if s.cache == nil {
		return CacheStats{}
	}
	return s.cache.Stats()
}
