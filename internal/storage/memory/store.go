// Package memory holds an in-process store used for local runs and tests.
package memory

import (
	"context"
	"slices"
	"sync"

	"attraction_registry/internal/domain"
)

type Store struct {
	mu          sync.RWMutex
	attractions map[string]domain.Attraction
	order       []string // insertion order of external IDs
	cities      map[string]domain.City
	cityKeys    map[[2]string]string // (name, country) -> city ID
}

func New() *Store {
	return &Store{
		attractions: make(map[string]domain.Attraction),
		cities:      make(map[string]domain.City),
		cityKeys:    make(map[[2]string]string),
	}
}

func (s *Store) FindByExternalID(_ context.Context, id string) (domain.Attraction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.attractions[id]
	if !ok {
		return domain.Attraction{}, domain.ErrNotFound
	}
	return s.resolved(a), nil
}

func (s *Store) Insert(_ context.Context, a domain.Attraction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.attractions[a.ExternalPlaceID]; ok {
		return domain.ErrConflict
	}
	a.City = nil
	s.attractions[a.ExternalPlaceID] = clone(a)
	s.order = append(s.order, a.ExternalPlaceID)
	return nil
}

func (s *Store) AppendRecommender(_ context.Context, id, userID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.attractions[id]
	if !ok {
		return false, domain.ErrNotFound
	}
	if a.HasRecommender(userID) {
		return false, nil
	}
	a.RecommendedBy = append(slices.Clone(a.RecommendedBy), userID)
	s.attractions[id] = a
	return true, nil
}

func (s *Store) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.attractions[id]; !ok {
		return domain.ErrNotFound
	}
	delete(s.attractions, id)
	s.order = slices.DeleteFunc(s.order, func(x string) bool { return x == id })
	return nil
}

func (s *Store) ListAll(_ context.Context) ([]domain.Attraction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Attraction, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.resolved(s.attractions[id]))
	}
	return out, nil
}

func (s *Store) FindCityByNameCountry(_ context.Context, name, country string) (domain.City, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.cityKeys[[2]string{name, country}]
	if !ok {
		return domain.City{}, domain.ErrNotFound
	}
	return s.cities[id], nil
}

func (s *Store) InsertCity(_ context.Context, c domain.City) (domain.City, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := [2]string{c.Name, c.Country}
	if id, ok := s.cityKeys[key]; ok {
		return s.cities[id], nil
	}
	s.cities[c.ID] = c
	s.cityKeys[key] = c.ID
	return c, nil
}

// CityCount is a test helper.
func (s *Store) CityCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.cities)
}

// resolved returns a deep copy with City filled in. Callers hold s.mu.
func (s *Store) resolved(a domain.Attraction) domain.Attraction {
	out := clone(a)
	if a.CityID != nil {
		if c, ok := s.cities[*a.CityID]; ok {
			out.City = &c
		}
	}
	return out
}

func clone(a domain.Attraction) domain.Attraction {
	a.Types = slices.Clone(a.Types)
	a.PhotoURLs = slices.Clone(a.PhotoURLs)
	a.OpeningHoursLines = slices.Clone(a.OpeningHoursLines)
	a.CustomTags = slices.Clone(a.CustomTags)
	a.RecommendedBy = slices.Clone(a.RecommendedBy)
	if a.Location != nil {
		loc := *a.Location
		a.Location = &loc
	}
	if a.CityID != nil {
		id := *a.CityID
		a.CityID = &id
	}
	return a
}
