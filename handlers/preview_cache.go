package handlers

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	previewCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "imagestore_preview_cache_hits_total",
		Help: "Preview byte cache hits.",
	})
	previewCacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "imagestore_preview_cache_misses_total",
		Help: "Preview byte cache misses.",
	})
)

// previews are small re-encoded JPEGs; anything bigger than this is served
// straight from disk instead of being cached
const previewCacheMaxEntryBytes = 1 << 20

// PreviewCache is a bounded TTL cache of preview bytes keyed by record id.
// It only ever holds derived assets, so invalidation on delete is the sole
// consistency concern.
type PreviewCache struct {
	cache *expirable.LRU[string, []byte]
}

// NewPreviewCache creates a cache holding at most maxSize previews, each
// expiring ttl after insertion.
func NewPreviewCache(maxSize int, ttl time.Duration) *PreviewCache {
	return &PreviewCache{cache: expirable.NewLRU[string, []byte](maxSize, nil, ttl)}
}

// Get returns the cached preview bytes for an id, if present.
func (c *PreviewCache) Get(id string) ([]byte, bool) {
	data, ok := c.cache.Get(id)
	if ok {
		previewCacheHits.Inc()
		return data, true
	}
	previewCacheMisses.Inc()
	return nil, false
}

// Set stores preview bytes for an id. Oversized entries are skipped.
func (c *PreviewCache) Set(id string, data []byte) {
	if len(data) > previewCacheMaxEntryBytes {
		return
	}
	c.cache.Add(id, data)
}

// Invalidate drops the cached preview for a deleted record.
func (c *PreviewCache) Invalidate(id string) {
	c.cache.Remove(id)
}
