package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/orghub/orghub/pkg/authz"
	"github.com/orghub/orghub/pkg/observability"
)

// AccessReader loads a user's access snapshot. *Store implements it; the
// cache wraps any implementation.
type AccessReader interface {
	GetUserWithAccess(ctx context.Context, userID uuid.UUID) (*authz.UserWithAccess, error)
}

type cacheEntry struct {
	access   *authz.UserWithAccess
	cachedAt time.Time
}

// AccessCache caches access snapshots in front of an AccessReader with an
// in-process LRU (L1) and an optional shared Redis tier (L2). Entries expire
// after the configured TTL; writes to memberships must call Invalidate.
type AccessCache struct {
	reader  AccessReader
	l1      *lru.Cache[uuid.UUID, cacheEntry]
	redis   *redis.Client
	ttl     time.Duration
	metrics *observability.Metrics
}

// NewAccessCache creates an access cache. redisClient may be nil to run with
// only the in-process tier. metrics may be nil.
func NewAccessCache(reader AccessReader, l1Size int, redisClient *redis.Client, ttl time.Duration, metrics *observability.Metrics) (*AccessCache, error) {
	l1, err := lru.New[uuid.UUID, cacheEntry](l1Size)
	if err != nil {
		return nil, fmt.Errorf("failed to create L1 cache: %w", err)
	}
	return &AccessCache{
		reader:  reader,
		l1:      l1,
		redis:   redisClient,
		ttl:     ttl,
		metrics: metrics,
	}, nil
}

func redisAccessKey(userID uuid.UUID) string {
	return "orghub:access:" + userID.String()
}

// GetUserWithAccess returns the cached snapshot when fresh, falling through
// L1 then L2 to the underlying reader. A Redis outage degrades to a cache
// miss rather than an error.
func (c *AccessCache) GetUserWithAccess(ctx context.Context, userID uuid.UUID) (*authz.UserWithAccess, error) {
	if entry, ok := c.l1.Get(userID); ok {
		if time.Since(entry.cachedAt) < c.ttl {
			c.recordHit("l1")
			return entry.access, nil
		}
		c.l1.Remove(userID)
	}
	c.recordMiss("l1")

	if c.redis != nil {
		data, err := c.redis.Get(ctx, redisAccessKey(userID)).Bytes()
		if err == nil {
			var access authz.UserWithAccess
			if err := json.Unmarshal(data, &access); err == nil {
				c.recordHit("l2")
				c.l1.Add(userID, cacheEntry{access: &access, cachedAt: time.Now()})
				return &access, nil
			}
		}
		c.recordMiss("l2")
	}

	access, err := c.reader.GetUserWithAccess(ctx, userID)
	if err != nil {
		return nil, err
	}

	c.l1.Add(userID, cacheEntry{access: access, cachedAt: time.Now()})
	if c.redis != nil {
		if data, err := json.Marshal(access); err == nil {
			c.redis.Set(ctx, redisAccessKey(userID), data, c.ttl)
		}
	}
	return access, nil
}

// Invalidate drops the cached snapshot for a user in both tiers. Callers
// invoke it after any membership, role or global role change.
func (c *AccessCache) Invalidate(ctx context.Context, userID uuid.UUID) {
	c.l1.Remove(userID)
	if c.redis != nil {
		c.redis.Del(ctx, redisAccessKey(userID))
	}
}

func (c *AccessCache) recordHit(tier string) {
	if c.metrics != nil {
		c.metrics.RecordCacheHit(tier)
	}
}

func (c *AccessCache) recordMiss(tier string) {
	if c.metrics != nil {
		c.metrics.RecordCacheMiss(tier)
	}
}
