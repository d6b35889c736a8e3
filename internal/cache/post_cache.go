package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

var ctx = context.Background()

const (
	postKeyFmt = "blog:post:%d"
	listKey    = "blog:posts:all"
)

// PostCache keeps serialized post responses in Redis so unauthenticated
// reads skip the database. Entries expire on their own; every post write
// invalidates eagerly.
type PostCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewPostCache(rdb *redis.Client, ttl time.Duration) *PostCache {
	return &PostCache{rdb: rdb, ttl: ttl}
}

// GetPost returns the cached response body for a post, if present.
func (c *PostCache) GetPost(id uint64) ([]byte, bool) {
	data, err := c.rdb.Get(ctx, fmt.Sprintf(postKeyFmt, id)).Bytes()
	if err != nil {
		return nil, false
	}
	return data, true
}

func (c *PostCache) SetPost(id uint64, body []byte) {
	_ = c.rdb.Set(ctx, fmt.Sprintf(postKeyFmt, id), body, c.ttl).Err()
}

// GetList returns the cached response body for the full post listing.
func (c *PostCache) GetList() ([]byte, bool) {
	data, err := c.rdb.Get(ctx, listKey).Bytes()
	if err != nil {
		return nil, false
	}
	return data, true
}

func (c *PostCache) SetList(body []byte) {
	_ = c.rdb.Set(ctx, listKey, body, c.ttl).Err()
}

// Invalidate drops a single post entry along with the listing.
func (c *PostCache) Invalidate(id uint64) {
	_ = c.rdb.Del(ctx, fmt.Sprintf(postKeyFmt, id), listKey).Err()
}

// InvalidateList drops only the listing, used after create.
func (c *PostCache) InvalidateList() {
	_ = c.rdb.Del(ctx, listKey).Err()
}

// InvalidateAll drops every cached post body along with the listing. Cached
// bodies embed the author's username and email, so a profile update has to
// flush them all.
func (c *PostCache) InvalidateAll() {
	if keys, err := c.rdb.Keys(ctx, "blog:post:*").Result(); err == nil && len(keys) > 0 {
		_ = c.rdb.Del(ctx, keys...).Err()
	}
	_ = c.rdb.Del(ctx, listKey).Err()
}
