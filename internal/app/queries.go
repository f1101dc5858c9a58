package app

import (
	"context"
	"slices"
	"strings"

	"github.com/rs/zerolog/log"

	"attraction_registry/internal/domain"
)

func (r *AttractionRegistry) Get(ctx context.Context, externalPlaceID string) (domain.Attraction, error) {
	externalPlaceID = strings.TrimSpace(externalPlaceID)
	if err := validatePlaceID(externalPlaceID); err != nil {
		return domain.Attraction{}, err
	}
	key := attractionKey(externalPlaceID)
	gen := r.gen.Load()
	var a domain.Attraction
	if r.cache != nil {
		if ok, _ := r.cache.Get(ctx, key, &a); ok {
			return a, nil
		}
	}
	a, err := r.store.FindByExternalID(ctx, externalPlaceID)
	if err != nil {
		return domain.Attraction{}, domain.Persistence("find attraction", err)
	}
	r.fill(ctx, key, gen, a)
	return a, nil
}

// ListAll returns the full registry. It backs the proximity scan and the
// administrative listing; there is no pagination.
func (r *AttractionRegistry) ListAll(ctx context.Context) ([]domain.Attraction, error) {
	gen := r.gen.Load()
	var out []domain.Attraction
	if r.cache != nil {
		if ok, _ := r.cache.Get(ctx, listAllKey, &out); ok {
			return out, nil
		}
	}
	all, err := r.store.ListAll(ctx)
	if err != nil {
		return nil, domain.Persistence("list attractions", err)
	}
	// copy so callers can't mutate what the cache holds
	out = slices.Clone(all)
	if out == nil {
		out = []domain.Attraction{}
	}
	r.fill(ctx, listAllKey, gen, out)
	return out, nil
}

// fill caches v, read under generation gen. A write that invalidated in the
// meantime wins: the fill is skipped, or undone if the write landed between
// the check and the Set.
func (r *AttractionRegistry) fill(ctx context.Context, key string, gen uint64, v any) {
	if r.cache == nil || r.gen.Load() != gen {
		return
	}
	if err := r.cache.Set(ctx, key, v, int(r.cacheTTL.Seconds())); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("cache fill failed")
		return
	}
	if r.gen.Load() != gen {
		_ = r.cache.Del(ctx, key)
	}
}
