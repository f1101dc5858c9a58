package app

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"attraction_registry/internal/domain"
)

// CityRegistry resolves (name, country) pairs to a single City.
//
// Creation for a given key is funnelled through a singleflight group so that
// concurrent ingestions in this process share one insert; the store's unique
// key on (name, country) covers concurrent processes.
type CityRegistry struct {
	store domain.CityStore
	group singleflight.Group
	newID func() string
	now   func() time.Time
}

func NewCityRegistry(s domain.CityStore) *CityRegistry {
	return &CityRegistry{
		store: s,
		newID: func() string { return uuid.NewString() },
		now:   time.Now,
	}
}

// FindOrCreate returns the stored city for (name, country). fallback is only
// used as the location of a newly created city; existing cities are never updated.
func (r *CityRegistry) FindOrCreate(ctx context.Context, name, country string, fallback domain.Coordinate) (domain.City, error) {
	c, err := r.store.FindCityByNameCountry(ctx, name, country)
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return domain.City{}, domain.Persistence("find city", err)
	}

	// the flight is shared, so one caller's cancellation must not fail the others
	flightCtx := context.WithoutCancel(ctx)
	v, err, shared := r.group.Do(cityKey(name, country), func() (any, error) {
		return r.store.InsertCity(flightCtx, domain.City{
			ID:        r.newID(),
			Name:      name,
			Country:   country,
			Location:  fallback,
			CreatedAt: r.now().UTC(),
		})
	})
	if err != nil {
		return domain.City{}, domain.Persistence("insert city", err)
	}
	city := v.(domain.City)
	log.Debug().Str("city", name).Str("country", country).Str("city_id", city.ID).Bool("shared", shared).Msg("city resolved")
	return city, nil
}

func cityKey(name, country string) string { return name + "\x00" + country }
