package redisad

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"attraction_registry/internal/adapters/observability"
)

// keyPrefix namespaces every entry; bump the version when the cached JSON shape changes.
const keyPrefix = "attractions:v1:"

// Cache stores JSON-encoded registry reads in Redis.
type Cache struct{ c *redis.Client }

func New(addr, pass string, db int) *Cache {
	return NewFromClient(redis.NewClient(&redis.Options{Addr: addr, Password: pass, DB: db}))
}

func NewFromClient(c *redis.Client) *Cache { return &Cache{c: c} }

func (r *Cache) Ping(ctx context.Context) error { return r.c.Ping(ctx).Err() }

// Get decodes the entry into dst. An undecodable entry is dropped and reported as a miss.
func (r *Cache) Get(ctx context.Context, key string, dst any) (bool, error) {
	v, err := r.c.Get(ctx, keyPrefix+key).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
		observability.ObserveCache("redis", "miss")
		return false, nil
	case err != nil:
		observability.ObserveCache("redis", "error")
		return false, err
	}
	if err := json.Unmarshal(v, dst); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("dropping undecodable cache entry")
		_ = r.c.Del(ctx, keyPrefix+key).Err()
		observability.ObserveCache("redis", "miss")
		return false, nil
	}
	observability.ObserveCache("redis", "hit")
	return true, nil
}

func (r *Cache) Set(ctx context.Context, key string, v any, ttlSec int) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	observability.ObserveCache("redis", "set")
	return r.c.Set(ctx, keyPrefix+key, b, time.Duration(ttlSec)*time.Second).Err()
}

func (r *Cache) Del(ctx context.Context, key string) error {
	observability.ObserveCache("redis", "del")
	return r.c.Del(ctx, keyPrefix+key).Err()
}
