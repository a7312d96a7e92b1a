package moderation

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Cache is an instance of a key/value store with contents specific to each
// instance. Entries expire after the default TTL and the whole cache can be
// flushed when the data it mirrors is mutated.
type Cache struct {
	cacheInstance *gocache.Cache
}

func NewCache(ttl time.Duration) *Cache {
	return &Cache{cacheInstance: gocache.New(ttl, 10*time.Second)}
}

// Put sets a key/value pair in the cache with the default TTL.
func (c *Cache) Put(key string, value interface{}) {
	c.cacheInstance.Set(key, value, 0)
}

// Get fetches a value from the cache, returning the value as well as whether
// or not the value was found (semantics similar to map).
func (c *Cache) Get(key string) (interface{}, bool) {
	return c.cacheInstance.Get(key)
}

// Flush drops every entry in the cache.
func (c *Cache) Flush() {
	c.cacheInstance.Flush()
}
