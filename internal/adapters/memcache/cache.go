// Package memcache is the in-process read cache used when no Redis address is configured.
package memcache

import (
	"context"
	"encoding/json"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"attraction_registry/internal/adapters/observability"
)

type Cache struct{ c *gocache.Cache }

func New(defaultTTL time.Duration) *Cache {
	return &Cache{c: gocache.New(defaultTTL, 2*defaultTTL)}
}

// Values are stored as JSON so readers never share memory with writers.
func (m *Cache) Get(_ context.Context, key string, dst any) (bool, error) {
	v, ok := m.c.Get(key)
	if !ok {
		observability.ObserveCache("memory", "miss")
		return false, nil
	}
	if err := json.Unmarshal(v.([]byte), dst); err != nil {
		return false, err
	}
	observability.ObserveCache("memory", "hit")
	return true, nil
}

func (m *Cache) Set(_ context.Context, key string, v any, ttlSec int) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	ttl := gocache.DefaultExpiration
	if ttlSec > 0 {
		ttl = time.Duration(ttlSec) * time.Second
	}
	m.c.Set(key, b, ttl)
	observability.ObserveCache("memory", "set")
	return nil
}

func (m *Cache) Del(_ context.Context, key string) error {
	m.c.Delete(key)
	observability.ObserveCache("memory", "del")
	return nil
}
