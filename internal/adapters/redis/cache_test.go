package redisad_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"

	redisad "attraction_registry/internal/adapters/redis"
	"attraction_registry/internal/domain"
)

func newCache(t *testing.T) (*redisad.Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	return redisad.New(mr.Addr(), "", 0), mr
}

func TestCache_SetGetDel(t *testing.T) {
	c, _ := newCache(t)
	ctx := context.Background()

	var out domain.Attraction
	ok, err := c.Get(ctx, "attraction:x", &out)
	require.NoError(t, err)
	require.False(t, ok)

	in := domain.Attraction{
		ExternalPlaceID: "x",
		Name:            "Arcul de Triumf",
		Location:        &domain.Coordinate{Lat: 44.467, Lng: 26.078},
		RecommendedBy:   []string{"u1"},
	}
	require.NoError(t, c.Set(ctx, "attraction:x", in, 60))

	ok, err = c.Get(ctx, "attraction:x", &out)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "Arcul de Triumf", out.Name)
	require.Equal(t, []string{"u1"}, out.RecommendedBy)
	require.NotNil(t, out.Location)

	require.NoError(t, c.Del(ctx, "attraction:x"))
	ok, err = c.Get(ctx, "attraction:x", &out)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestCache_TTL(t *testing.T) {
	c, mr := newCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", []string{"a"}, 10))
	mr.FastForward(11 * time.Second)

	var out []string
	ok, err := c.Get(ctx, "k", &out)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestCache_CorruptEntryIsAMiss(t *testing.T) {
	c, mr := newCache(t)
	ctx := context.Background()

	require.NoError(t, mr.Set("attractions:v1:attraction:bad", "{not json"))

	var out domain.Attraction
	ok, err := c.Get(ctx, "attraction:bad", &out)
	require.NoError(t, err)
	require.False(t, ok)
	require.False(t, mr.Exists("attractions:v1:attraction:bad"), "corrupt entry should be evicted")
}

func TestCache_ServerDown(t *testing.T) {
	c, mr := newCache(t)
	mr.Close()

	var out []string
	_, err := c.Get(context.Background(), "k", &out)
	require.Error(t, err)
}
