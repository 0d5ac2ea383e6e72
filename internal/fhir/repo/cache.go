package repo

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/medcore/fhirstore/internal/fhir"
)

const cacheTTL = 24 * time.Hour

// Cache is a read-through cache for current resource versions. Misses and
// transport failures both fall through to the database; the cache is never
// authoritative.
type Cache struct {
	client *redis.Client
}

func NewCache(client *redis.Client) *Cache {
	return &Cache{client: client}
}

func cacheKey(resourceType, id string) string {
	return "fhir:" + resourceType + "/" + id
}

// Get returns the cached resource, or nil on miss or error.
func (c *Cache) Get(ctx context.Context, resourceType, id string) fhir.Resource {
	if c == nil {
		return nil
	}
	data, err := c.client.Get(ctx, cacheKey(resourceType, id)).Bytes()
	if err != nil {
		return nil
	}
	var r fhir.Resource
	if err := json.Unmarshal(data, &r); err != nil {
		return nil
	}
	return r
}

// Set stores the current version of a resource. Errors are dropped.
func (c *Cache) Set(ctx context.Context, resource fhir.Resource) {
	if c == nil {
		return
	}
	data, err := json.Marshal(resource)
	if err != nil {
		return
	}
	c.client.Set(ctx, cacheKey(resource.Type(), resource.ID()), data, cacheTTL)
}

// Delete invalidates a cached resource.
func (c *Cache) Delete(ctx context.Context, resourceType, id string) {
	if c == nil {
		return
	}
	c.client.Del(ctx, cacheKey(resourceType, id))
}
