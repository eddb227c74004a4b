package store

import (
	"context"
	"errors"
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/singleflight"

	"github.com/platinummonkey/datahub/pkg/auth"
	"github.com/platinummonkey/datahub/pkg/observability"
)

const userCacheType = "user"

// CachedUserStore puts an expiring LRU in front of a UserGetter.
// Concurrent misses for the same ID share one load.
type CachedUserStore struct {
	next    UserGetter
	cache   *lru.LRU[string, *auth.User]
	group   singleflight.Group
	metrics *observability.Metrics
}

// NewCachedUserStore creates a cache holding up to size users for ttl.
// metrics may be nil.
func NewCachedUserStore(next UserGetter, size int, ttl time.Duration, metrics *observability.Metrics) *CachedUserStore {
	if size < 1 {
		size = 1
	}
	return &CachedUserStore{
		next:    next,
		cache:   lru.NewLRU[string, *auth.User](size, nil, ttl),
		metrics: metrics,
	}
}

// GetUser returns the cached user or loads it. Misses (ErrNotFound) are
// not cached.
func (c *CachedUserStore) GetUser(ctx context.Context, id string) (*auth.User, error) {
	if user, ok := c.cache.Get(id); ok {
		c.record(true)
		return user, nil
	}
	c.record(false)

	v, err, _ := c.group.Do(id, func() (interface{}, error) {
		user, err := c.next.GetUser(ctx, id)
		if err != nil {
			return nil, err
		}
		c.cache.Add(id, user)
		return user, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*auth.User), nil
}

// Invalidate drops id from the cache
func (c *CachedUserStore) Invalidate(id string) {
	c.cache.Remove(id)
}

// Len returns the number of cached users
func (c *CachedUserStore) Len() int {
	return c.cache.Len()
}

func (c *CachedUserStore) record(hit bool) {
	if c.metrics != nil {
		c.metrics.RecordCache(userCacheType, hit)
	}
}

// IsNotFound reports whether err means the record does not exist
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
