package geo

import (
	"math"

	"attraction_registry/internal/domain"
)

const EarthRadiusKm = 6371.0

// DistanceKm returns the great-circle (haversine) distance between a and b.
func DistanceKm(a, b domain.Coordinate) float64 {
	lat1, lat2 := rad(a.Lat), rad(b.Lat)
	dLat := lat2 - lat1
	dLng := rad(b.Lng - a.Lng)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	// rounding can push h a hair outside [0,1] near antipodes
	h = math.Min(1, math.Max(0, h))

	return EarthRadiusKm * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

func rad(deg float64) float64 { return deg * math.Pi / 180 }
