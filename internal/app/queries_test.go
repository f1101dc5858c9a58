package app_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"attraction_registry/internal/app"
	"attraction_registry/internal/domain"
	"attraction_registry/internal/storage/memory"
)

// ---- fakes ----

type fakeCache struct {
	store map[string]any
	dels  []string
}

func (c *fakeCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	if c.store == nil {
		return false, nil
	}
	v, ok := c.store[key]
	if !ok {
		return false, nil
	}
	switch d := dst.(type) {
	case *domain.Attraction:
		*d = v.(domain.Attraction)
	case *[]domain.Attraction:
		*d = v.([]domain.Attraction)
	}
	return true, nil
}
func (c *fakeCache) Set(ctx context.Context, key string, v any, ttlSec int) error {
	if c.store == nil {
		c.store = map[string]any{}
	}
	c.store[key] = v
	return nil
}
func (c *fakeCache) Del(ctx context.Context, key string) error {
	delete(c.store, key)
	c.dels = append(c.dels, key)
	return nil
}

// ---- tests ----

func TestGet_CacheMissThenHit(t *testing.T) {
	store := memory.New()
	ctx := context.Background()
	if err := store.Insert(ctx, domain.Attraction{ExternalPlaceID: "p1", Name: "Ateneul Român"}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	cache := &fakeCache{}
	reg := app.NewAttractionRegistry(store, app.NewCityRegistry(store), &fakePlaces{}, app.NewSnapshotMapper("", "k", 0),
		app.WithCache(cache, 10*time.Minute))

	a, err := reg.Get(ctx, "p1")
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if a.Name != "Ateneul Român" {
		t.Fatalf("unexpected attraction: %+v", a)
	}

	// remove from the store to prove the second read comes from cache
	if err := store.Delete(ctx, "p1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	a2, err := reg.Get(ctx, "p1")
	if err != nil {
		t.Fatalf("expected cached hit, got err: %v", err)
	}
	if a2.Name != "Ateneul Român" {
		t.Fatalf("expected cached name, got %s", a2.Name)
	}
}

func TestGet_NotFoundAndValidation(t *testing.T) {
	store := memory.New()
	reg := app.NewAttractionRegistry(store, app.NewCityRegistry(store), &fakePlaces{}, app.NewSnapshotMapper("", "k", 0))

	if _, err := reg.Get(context.Background(), "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, err := reg.Get(context.Background(), "  "); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestListAll_CachedAndInvalidatedOnEndorse(t *testing.T) {
	store := memory.New()
	ctx := context.Background()
	_ = store.Insert(ctx, domain.Attraction{ExternalPlaceID: "p1", RecommendedBy: []string{"u1"}})
	cache := &fakeCache{}
	reg := app.NewAttractionRegistry(store, app.NewCityRegistry(store), &fakePlaces{}, app.NewSnapshotMapper("", "k", 0),
		app.WithCache(cache, time.Minute))

	all, err := reg.ListAll(ctx)
	if err != nil || len(all) != 1 {
		t.Fatalf("ListAll: %v %+v", err, all)
	}
	if _, ok := cache.store["attractions:all"]; !ok {
		t.Fatalf("expected list to be cached")
	}

	if _, _, err := reg.RegisterOrEndorse(ctx, app.RegisterInput{ExternalPlaceID: "p1", UserID: "u2"}); err != nil {
		t.Fatalf("endorse: %v", err)
	}
	if _, ok := cache.store["attractions:all"]; ok {
		t.Fatalf("expected list cache to be invalidated after endorsement")
	}
	all, _ = reg.ListAll(ctx)
	if len(all[0].RecommendedBy) != 2 {
		t.Fatalf("expected fresh list with 2 recommenders, got %+v", all[0].RecommendedBy)
	}
}

// pausingStore parks the first armed read after it has hit the store, so a
// write can land before the reader fills the cache.
type pausingStore struct {
	*memory.Store
	armList, armFind atomic.Bool
	read, release    chan struct{}
}

func newPausingStore() *pausingStore {
	return &pausingStore{Store: memory.New(), read: make(chan struct{}), release: make(chan struct{})}
}

func (s *pausingStore) ListAll(ctx context.Context) ([]domain.Attraction, error) {
	out, err := s.Store.ListAll(ctx)
	if s.armList.CompareAndSwap(true, false) {
		s.read <- struct{}{}
		<-s.release
	}
	return out, err
}

func (s *pausingStore) FindByExternalID(ctx context.Context, id string) (domain.Attraction, error) {
	out, err := s.Store.FindByExternalID(ctx, id)
	if s.armFind.CompareAndSwap(true, false) {
		s.read <- struct{}{}
		<-s.release
	}
	return out, err
}

func seededRegistry(t *testing.T, store *pausingStore) *app.AttractionRegistry {
	t.Helper()
	loc := domain.Coordinate{Lat: 45.5149, Lng: 25.3672}
	if err := store.Insert(context.Background(), domain.Attraction{ExternalPlaceID: "bran", Name: "Bran Castle", Location: &loc, RecommendedBy: []string{"u1"}}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return app.NewAttractionRegistry(store, app.NewCityRegistry(store), &fakePlaces{}, app.NewSnapshotMapper("", "k", 0),
		app.WithCache(&fakeCache{}, time.Minute))
}

func TestListAll_WriteDuringReadIsNotCachedOver(t *testing.T) {
	store := newPausingStore()
	reg := seededRegistry(t, store)
	ctx := context.Background()

	store.armList.Store(true)
	done := make(chan error, 1)
	go func() {
		_, err := reg.ListAll(ctx)
		done <- err
	}()
	<-store.read

	if _, _, err := reg.RegisterOrEndorse(ctx, app.RegisterInput{ExternalPlaceID: "bran", UserID: "u2"}); err != nil {
		t.Fatalf("endorse: %v", err)
	}
	close(store.release)
	if err := <-done; err != nil {
		t.Fatalf("ListAll: %v", err)
	}

	all, err := reg.ListAll(ctx)
	if err != nil || len(all) != 1 {
		t.Fatalf("ListAll: %v %+v", err, all)
	}
	if got := all[0].RecommendedBy; len(got) != 2 {
		t.Fatalf("stale list served after endorsement: recommendedBy=%v", got)
	}
}

func TestGet_DeleteDuringReadIsNotCachedOver(t *testing.T) {
	store := newPausingStore()
	reg := seededRegistry(t, store)
	ctx := context.Background()

	store.armFind.Store(true)
	done := make(chan error, 1)
	go func() {
		_, err := reg.Get(ctx, "bran")
		done <- err
	}()
	<-store.read

	if err := reg.Delete(ctx, "bran"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	close(store.release)
	if err := <-done; err != nil {
		t.Fatalf("Get: %v", err)
	}

	if _, err := reg.Get(ctx, "bran"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("deleted attraction resurfaced from cache: err=%v", err)
	}
}

func TestGetAndDelete_TrimID(t *testing.T) {
	store := newPausingStore()
	reg := seededRegistry(t, store)
	ctx := context.Background()

	a, err := reg.Get(ctx, "  bran ")
	if err != nil || a.ExternalPlaceID != "bran" {
		t.Fatalf("Get with padded id: %v %+v", err, a)
	}
	if err := reg.Delete(ctx, "\tbran\n"); err != nil {
		t.Fatalf("Delete with padded id: %v", err)
	}
	if _, err := store.Store.FindByExternalID(ctx, "bran"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected deletion, got %v", err)
	}
}
