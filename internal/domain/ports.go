package domain

import "context"

type AttractionStore interface {
	FindByExternalID(ctx context.Context, externalPlaceID string) (Attraction, error)
	// Insert fails with ErrConflict when externalPlaceID is already registered.
	Insert(ctx context.Context, a Attraction) error
	// AppendRecommender adds userID to recommendedBy if absent, atomically.
	// It reports whether the set changed and returns ErrNotFound for unknown IDs.
	AppendRecommender(ctx context.Context, externalPlaceID, userID string) (bool, error)
	Delete(ctx context.Context, externalPlaceID string) error
	// ListAll returns every attraction in registry (insertion) order with City resolved.
	ListAll(ctx context.Context) ([]Attraction, error)
}

type CityStore interface {
	FindCityByNameCountry(ctx context.Context, name, country string) (City, error)
	// InsertCity stores c unless (name, country) exists; either way the stored row is returned.
	InsertCity(ctx context.Context, c City) (City, error)
}

type PlaceProvider interface {
	PlaceDetails(ctx context.Context, externalPlaceID string) (PlaceSnapshot, error)
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
}
