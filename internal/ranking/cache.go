package ranking

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache failures are never fatal: a miss just means hitting Postgres.
type Cache interface {
	Get(ctx context.Context, board string) ([]Entry, bool)
	Set(ctx context.Context, board string, entries []Entry, ttl time.Duration)
	GetSnapshot(ctx context.Context, board string) ([]Entry, bool)
	SetSnapshot(ctx context.Context, board string, entries []Entry)
}

type NoopCache struct{}

func (NoopCache) Get(context.Context, string) ([]Entry, bool)          { return nil, false }
func (NoopCache) Set(context.Context, string, []Entry, time.Duration)  {}
func (NoopCache) GetSnapshot(context.Context, string) ([]Entry, bool)  { return nil, false }
func (NoopCache) SetSnapshot(context.Context, string, []Entry)         {}

type RedisCache struct {
	rdb *redis.Client
}

func NewRedisCache(rdb *redis.Client) *RedisCache { return &RedisCache{rdb: rdb} }

func (c *RedisCache) key(board string) string         { return "ranking:" + board }
func (c *RedisCache) snapshotKey(board string) string { return "ranking:" + board + ":prev" }

func (c *RedisCache) get(ctx context.Context, key string) ([]Entry, bool) {
	raw, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			log.Printf("[ranking] redis get %s: %v", key, err)
		}
		return nil, false
	}
	var entries []Entry
	if err := json.Unmarshal(raw, &entries); err != nil {
		log.Printf("[ranking] decode %s: %v", key, err)
		return nil, false
	}
	return entries, true
}

func (c *RedisCache) set(ctx context.Context, key string, entries []Entry, ttl time.Duration) {
	raw, err := json.Marshal(entries)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, key, raw, ttl).Err(); err != nil {
		log.Printf("[ranking] redis set %s: %v", key, err)
	}
}

func (c *RedisCache) Get(ctx context.Context, board string) ([]Entry, bool) {
	return c.get(ctx, c.key(board))
}

func (c *RedisCache) Set(ctx context.Context, board string, entries []Entry, ttl time.Duration) {
	c.set(ctx, c.key(board), entries, ttl)
}

func (c *RedisCache) GetSnapshot(ctx context.Context, board string) ([]Entry, bool) {
	return c.get(ctx, c.snapshotKey(board))
}

func (c *RedisCache) SetSnapshot(ctx context.Context, board string, entries []Entry) {
	// Snapshots have no TTL; they are only replaced by the next refresh.
	c.set(ctx, c.snapshotKey(board), entries, 0)
}
