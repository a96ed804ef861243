package nominatim

import (
	"context"
	"sync"

	"github.com/hydroforecast/prediction-service/internal/domain"
	"github.com/hydroforecast/prediction-service/internal/observability"
)

// CachedGeocoder wraps a Geocoder with an in-memory LRU cache.
//
// Only successful resolutions are cached: "no match" and transport failures
// stay uncached so a later request can retry them. A cache hit also hides
// upstream data drift until eviction, which is acceptable for tank locations
// that essentially never move.
type CachedGeocoder struct {
	inner   domain.Geocoder
	cache   *lruCache
	metrics *observability.Metrics
}

// NewCachedGeocoder creates a cache decorator around a geocoder.
func NewCachedGeocoder(inner domain.Geocoder, maxEntries int, metrics *observability.Metrics) *CachedGeocoder {
	return &CachedGeocoder{
		inner:   inner,
		cache:   newLRUCache(maxEntries),
		metrics: metrics,
	}
}

// Resolve returns the cached coordinate for text when present, otherwise
// delegates to the wrapped geocoder.
func (c *CachedGeocoder) Resolve(ctx context.Context, text string) (domain.GeoPoint, error) {
	if point, ok := c.cache.get(text); ok {
		c.metrics.GeocodeCache.WithLabelValues("hit").Inc()
		return point, nil
	}
	c.metrics.GeocodeCache.WithLabelValues("miss").Inc()

	point, err := c.inner.Resolve(ctx, text)
	if err != nil {
		return point, err
	}
	c.cache.put(text, point)
	return point, nil
}

// lruCache is a simple thread-safe LRU cache for resolved coordinates.
type lruCache struct {
	maxEntries int
	mu         sync.Mutex
	entries    map[string]*entry
	head       *entry // most recently used
	tail       *entry // least recently used
}

type entry struct {
	key   string
	value domain.GeoPoint
	prev  *entry
	next  *entry
}

func newLRUCache(maxEntries int) *lruCache {
	return &lruCache{
		maxEntries: maxEntries,
		entries:    make(map[string]*entry),
	}
}

func (c *lruCache) get(key string) (domain.GeoPoint, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return domain.GeoPoint{}, false
	}
	c.moveToFront(e)
	return e.value, true
}

func (c *lruCache) put(key string, value domain.GeoPoint) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		e.value = value
		c.moveToFront(e)
		return
	}

	e := &entry{key: key, value: value}
	c.entries[key] = e
	c.addToFront(e)

	if len(c.entries) > c.maxEntries {
		c.evictTail()
	}
}

func (c *lruCache) moveToFront(e *entry) {
	if e == c.head {
		return
	}
	c.remove(e)
	c.addToFront(e)
}

func (c *lruCache) addToFront(e *entry) {
	e.next = c.head
	e.prev = nil
	if c.head != nil {
		c.head.prev = e
	}
	c.head = e
	if c.tail == nil {
		c.tail = e
	}
}

func (c *lruCache) remove(e *entry) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		c.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		c.tail = e.prev
	}
}

func (c *lruCache) evictTail() {
	if c.tail == nil {
		return
	}
	delete(c.entries, c.tail.key)
	c.remove(c.tail)
}
