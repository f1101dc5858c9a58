package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"attraction_registry/internal/adapters/observability"
	"attraction_registry/internal/domain"
)

var tracer = otel.Tracer("attraction_registry/app")

// AttractionRegistry owns ingestion, endorsement and the CRUD surface over attractions.
type AttractionRegistry struct {
	store        domain.AttractionStore
	cities       *CityRegistry
	places       domain.PlaceProvider
	mapper       SnapshotMapper
	cache        domain.Cache // optional
	cacheTTL     time.Duration
	placeTimeout time.Duration
	now          func() time.Time
	// gen is bumped by every invalidation; cache fills from an older
	// generation are discarded.
	gen atomic.Uint64
}

type RegistryOption func(*AttractionRegistry)

func WithCache(c domain.Cache, ttl time.Duration) RegistryOption {
	return func(r *AttractionRegistry) { r.cache, r.cacheTTL = c, ttl }
}

// WithPlaceTimeout bounds each place-lookup call; a timeout surfaces as ErrUpstream.
func WithPlaceTimeout(d time.Duration) RegistryOption {
	return func(r *AttractionRegistry) { r.placeTimeout = d }
}

func WithClock(now func() time.Time) RegistryOption {
	return func(r *AttractionRegistry) { r.now = now }
}

func NewAttractionRegistry(s domain.AttractionStore, cities *CityRegistry, places domain.PlaceProvider, m SnapshotMapper, opts ...RegistryOption) *AttractionRegistry {
	r := &AttractionRegistry{
		store:        s,
		cities:       cities,
		places:       places,
		mapper:       m,
		cacheTTL:     15 * time.Minute,
		placeTimeout: 10 * time.Second,
		now:          time.Now,
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// RegisterOrEndorse creates the attraction on first sight (the caller becomes
// its first recommender) or adds the caller to recommendedBy. The bool reports
// whether a new record was created.
func (r *AttractionRegistry) RegisterOrEndorse(ctx context.Context, in RegisterInput) (domain.Attraction, bool, error) {
	in = in.normalize()
	ctx, span := tracer.Start(ctx, "AttractionRegistry.RegisterOrEndorse", trace.WithAttributes(
		attribute.String("attraction.external_id", in.ExternalPlaceID),
	))
	defer span.End()

	a, created, err := r.registerOrEndorse(ctx, in)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "register failed")
		observability.ObserveRegistry("error")
		return domain.Attraction{}, false, err
	}
	span.SetAttributes(attribute.Bool("attraction.created", created))
	return a, created, nil
}

func (r *AttractionRegistry) registerOrEndorse(ctx context.Context, in RegisterInput) (domain.Attraction, bool, error) {
	if err := validateRegistration(in); err != nil {
		return domain.Attraction{}, false, err
	}

	existing, err := r.store.FindByExternalID(ctx, in.ExternalPlaceID)
	switch {
	case err == nil:
		a, err := r.endorse(ctx, existing, in.UserID)
		return a, false, err
	case !errors.Is(err, domain.ErrNotFound):
		return domain.Attraction{}, false, domain.Persistence("find attraction", err)
	}

	snap, err := r.lookup(ctx, in.ExternalPlaceID)
	if err != nil {
		log.Warn().Err(err).Str("external_id", in.ExternalPlaceID).Msg("place lookup failed")
		return domain.Attraction{}, false, err
	}
	loc, ok := snap.Coordinate()
	if !ok {
		return domain.Attraction{}, false, &domain.UpstreamError{Err: errors.New("snapshot has no geometry.location")}
	}

	a := r.mapper.ToAttraction(in.ExternalPlaceID, snap, loc, r.now())
	a.Category = in.Category
	a.CustomTags = in.CustomTags
	a.RecommendedBy = []string{in.UserID}

	if info := ExtractCity(snap.AddressComponents); info.Complete() {
		city, err := r.cities.FindOrCreate(ctx, *info.Name, *info.Country, loc)
		if err != nil {
			return domain.Attraction{}, false, err
		}
		a.CityID = &city.ID
		a.City = &city
	}

	if err := r.store.Insert(ctx, a); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			// another request registered it first; fall back to endorsing
			current, ferr := r.store.FindByExternalID(ctx, in.ExternalPlaceID)
			if ferr != nil {
				return domain.Attraction{}, false, domain.Persistence("find attraction", ferr)
			}
			out, eerr := r.endorse(ctx, current, in.UserID)
			return out, false, eerr
		}
		return domain.Attraction{}, false, domain.Persistence("insert attraction", err)
	}

	r.invalidate(ctx, in.ExternalPlaceID)
	observability.ObserveRegistry("created")
	log.Info().Str("external_id", a.ExternalPlaceID).Str("user_id", in.UserID).Msg("attraction registered")
	return a, true, nil
}

func (r *AttractionRegistry) endorse(ctx context.Context, a domain.Attraction, userID string) (domain.Attraction, error) {
	if a.HasRecommender(userID) {
		observability.ObserveRegistry("unchanged")
		return a, nil
	}
	added, err := r.store.AppendRecommender(ctx, a.ExternalPlaceID, userID)
	if err != nil {
		return domain.Attraction{}, domain.Persistence("append recommender", err)
	}
	if added {
		r.invalidate(ctx, a.ExternalPlaceID)
		observability.ObserveRegistry("endorsed")
	}
	// re-read so concurrent endorsements are reflected
	fresh, err := r.store.FindByExternalID(ctx, a.ExternalPlaceID)
	if err != nil {
		return domain.Attraction{}, domain.Persistence("find attraction", err)
	}
	return fresh, nil
}

func (r *AttractionRegistry) lookup(ctx context.Context, externalPlaceID string) (domain.PlaceSnapshot, error) {
	if r.placeTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.placeTimeout)
		defer cancel()
	}
	snap, err := r.places.PlaceDetails(ctx, externalPlaceID)
	if err == nil {
		return snap, nil
	}
	if errors.Is(err, domain.ErrUpstream) {
		return domain.PlaceSnapshot{}, err
	}
	return domain.PlaceSnapshot{}, &domain.UpstreamError{Err: err}
}

// Delete removes the attraction only; cities and user references are left alone.
func (r *AttractionRegistry) Delete(ctx context.Context, externalPlaceID string) error {
	externalPlaceID = strings.TrimSpace(externalPlaceID)
	if err := validatePlaceID(externalPlaceID); err != nil {
		return err
	}
	if err := r.store.Delete(ctx, externalPlaceID); err != nil {
		return domain.Persistence("delete attraction", err)
	}
	r.invalidate(ctx, externalPlaceID)
	observability.ObserveRegistry("deleted")
	log.Info().Str("external_id", externalPlaceID).Msg("attraction deleted")
	return nil
}

func (r *AttractionRegistry) invalidate(ctx context.Context, externalPlaceID string) {
	if r.cache == nil {
		return
	}
	r.gen.Add(1)
	for _, k := range []string{attractionKey(externalPlaceID), listAllKey} {
		if err := r.cache.Del(ctx, k); err != nil {
			log.Warn().Err(err).Str("key", k).Msg("cache invalidation failed")
		}
	}
}

const listAllKey = "attractions:all"

func attractionKey(id string) string { return fmt.Sprintf("attraction:%s", id) }
