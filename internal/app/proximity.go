package app

import (
	"cmp"
	"context"
	"slices"
	"time"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"attraction_registry/internal/adapters/observability"
	"attraction_registry/internal/domain"
	"attraction_registry/internal/geo"
)

type AttractionLister interface {
	ListAll(ctx context.Context) ([]domain.Attraction, error)
}

// ProximityQuery answers radius searches with a full scan of the registry.
// TODO: swap the scan for grid bucketing once registry size makes O(N) per request noticeable.
type ProximityQuery struct {
	source AttractionLister
}

func NewProximityQuery(src AttractionLister) *ProximityQuery {
	return &ProximityQuery{source: src}
}

// Nearby returns attractions within radiusKm of center (inclusive), nearest
// first; equal distances keep registry order.
func (q *ProximityQuery) Nearby(ctx context.Context, center domain.Coordinate, radiusKm float64) ([]domain.AttractionWithDistance, error) {
	ctx, span := tracer.Start(ctx, "ProximityQuery.Nearby", trace.WithAttributes(
		attribute.Float64("center.lat", center.Lat),
		attribute.Float64("center.lng", center.Lng),
		attribute.Float64("radius_km", radiusKm),
	))
	defer span.End()
	start := time.Now()

	if err := validateProximity(center, radiusKm); err != nil {
		span.SetStatus(codes.Error, "invalid input")
		return nil, err
	}

	all, err := q.source.ListAll(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "list failed")
		return nil, err
	}

	out := make([]domain.AttractionWithDistance, 0, len(all))
	skipped := 0
	for _, a := range all {
		if a.Location == nil || !a.Location.Valid() {
			skipped++
			log.Debug().Str("external_id", a.ExternalPlaceID).Str("name", a.Name).Msg("attraction has no valid location, skipped")
			continue
		}
		d := geo.DistanceKm(center, *a.Location)
		if d <= radiusKm {
			out = append(out, domain.AttractionWithDistance{Attraction: a, CalculatedDistance: d})
		}
	}
	slices.SortStableFunc(out, func(a, b domain.AttractionWithDistance) int {
		return cmp.Compare(a.CalculatedDistance, b.CalculatedDistance)
	})

	observability.ObserveProximity(len(all), len(out), skipped, time.Since(start))
	log.Info().
		Int("scanned", len(all)).
		Int("matched", len(out)).
		Int("skipped", skipped).
		Float64("radius_km", radiusKm).
		Msg("nearby search")
	span.SetAttributes(attribute.Int("results", len(out)))
	return out, nil
}
