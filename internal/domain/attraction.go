package domain

import (
	"math"
	"slices"
	"time"
)

type Coordinate struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Valid reports whether both components are finite numbers inside the WGS84 ranges.
func (c Coordinate) Valid() bool {
	if math.IsNaN(c.Lat) || math.IsInf(c.Lat, 0) || math.IsNaN(c.Lng) || math.IsInf(c.Lng, 0) {
		return false
	}
	return c.Lat >= -90 && c.Lat <= 90 && c.Lng >= -180 && c.Lng <= 180
}

type City struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Country   string     `json:"country"`
	Location  Coordinate `json:"location"`
	CreatedAt time.Time  `json:"createdAt"`
}

type Attraction struct {
	ExternalPlaceID   string      `json:"externalPlaceId"`
	Name              string      `json:"name"`
	FormattedAddress  string      `json:"formattedAddress"`
	Location          *Coordinate `json:"location,omitempty"` // nil when the provider gave no usable point
	Types             []string    `json:"types"`
	PhotoURLs         []string    `json:"photoUrls"`
	Rating            *float64    `json:"rating,omitempty"`
	UserRatingsTotal  *int        `json:"userRatingsTotal,omitempty"`
	Website           string      `json:"website,omitempty"`
	MapsURL           string      `json:"mapsUrl,omitempty"`
	PhoneNumber       string      `json:"phoneNumber,omitempty"`
	OpeningHoursLines []string    `json:"openingHoursLines"`
	Category          string      `json:"category,omitempty"`
	CustomTags        []string    `json:"customTags"`
	CityID            *string     `json:"cityId,omitempty"`
	City              *City       `json:"city,omitempty"` // resolved on reads only
	RecommendedBy     []string    `json:"recommendedBy"`
	CreatedAt         time.Time   `json:"createdAt"`
}

func (a Attraction) HasRecommender(userID string) bool {
	return slices.Contains(a.RecommendedBy, userID)
}

// AttractionWithDistance is a proximity result; distance is in kilometres.
type AttractionWithDistance struct {
	Attraction
	CalculatedDistance float64 `json:"calculatedDistance"`
}
