// Package cache provides a Redis-backed cache for seat availability
// snapshots. Snapshots are the hottest read in the system and tolerate a
// short staleness window; every booking mutation for a show invalidates
// that show's entry so clients never see a stale view for long.
package cache

import (
	"context"
	"log"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// SnapshotCache stores serialized seat snapshot responses per show. A
// nil client disables the cache entirely; every method becomes a no-op
// so callers need no conditionals.
type SnapshotCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewSnapshotCache returns a cache with the given entry lifetime. rdb
// may be nil when Redis is not available.
func NewSnapshotCache(rdb *redis.Client, ttl time.Duration) *SnapshotCache {
	return &SnapshotCache{rdb: rdb, ttl: ttl}
}

func key(showID uint64) string {
	return "snapshot:show:" + strconv.FormatUint(showID, 10)
}

// Get returns the cached snapshot body for a show, or nil on a miss.
func (c *SnapshotCache) Get(ctx context.Context, showID uint64) []byte {
	if c == nil || c.rdb == nil {
		return nil
	}
	body, err := c.rdb.Get(ctx, key(showID)).Bytes()
	if err != nil {
		return nil
	}
	return body
}

// Set stores a snapshot body for a show. Failures are logged and
// otherwise ignored; the cache is never load-bearing.
func (c *SnapshotCache) Set(ctx context.Context, showID uint64, body []byte) {
	if c == nil || c.rdb == nil {
		return
	}
	if err := c.rdb.Set(ctx, key(showID), body, c.ttl).Err(); err != nil {
		log.Printf("snapshot-cache: set show %d: %v", showID, err)
	}
}

// Invalidate drops the cached snapshot for a show. Called after any
// successful seat state transition for that show.
func (c *SnapshotCache) Invalidate(ctx context.Context, showID uint64) {
	if c == nil || c.rdb == nil {
		return
	}
	if err := c.rdb.Del(ctx, key(showID)).Err(); err != nil {
		log.Printf("snapshot-cache: invalidate show %d: %v", showID, err)
	}
}
