package app

import (
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"attraction_registry/internal/domain"
)

const (
	DefaultPhotoBaseURL  = "https://maps.googleapis.com/maps/api/place/photo"
	DefaultPhotoMaxWidth = 800
)

// SnapshotMapper turns provider snapshots into Attraction records. It does no I/O.
type SnapshotMapper struct {
	photoBase string
	apiKey    string
	maxWidth  int
}

func NewSnapshotMapper(photoBase, apiKey string, maxWidth int) SnapshotMapper {
	if photoBase == "" {
		photoBase = DefaultPhotoBaseURL
	}
	if maxWidth <= 0 {
		maxWidth = DefaultPhotoMaxWidth
	}
	return SnapshotMapper{photoBase: photoBase, apiKey: apiKey, maxWidth: maxWidth}
}

// CityInfo holds the address-derived city; a nil field means no matching component.
type CityInfo struct {
	Name    *string
	Country *string
}

func (c CityInfo) Complete() bool { return c.Name != nil && c.Country != nil }

// ExtractCity prefers a "locality" component and falls back to
// "administrative_area_level_1" for rural places that have no locality.
func ExtractCity(components []domain.AddressComponent) CityInfo {
	var out CityInfo
	out.Name = componentName(components, "locality")
	if out.Name == nil {
		out.Name = componentName(components, "administrative_area_level_1")
	}
	out.Country = componentName(components, "country")
	return out
}

func componentName(components []domain.AddressComponent, typ string) *string {
	for _, c := range components {
		if slices.Contains(c.Types, typ) {
			if s := strings.TrimSpace(c.LongName); s != "" {
				return &s
			}
		}
	}
	return nil
}

// BuildPhotoURLs returns directly fetchable image URLs, in provider order.
func (m SnapshotMapper) BuildPhotoURLs(photos []domain.PlacePhoto) []string {
	out := make([]string, 0, len(photos))
	for _, p := range photos {
		ref := strings.TrimSpace(p.PhotoReference)
		if ref == "" {
			continue
		}
		q := url.Values{}
		q.Set("maxwidth", strconv.Itoa(m.maxWidth))
		q.Set("photo_reference", ref)
		q.Set("key", m.apiKey)
		out = append(out, m.photoBase+"?"+q.Encode())
	}
	return out
}

func NormalizeOpeningHours(oh *domain.PlaceOpeningHours) []string {
	if oh == nil || len(oh.WeekdayText) == 0 {
		return []string{}
	}
	return slices.Clone(oh.WeekdayText)
}

// ToAttraction builds a fresh record for externalPlaceID. loc must come from
// the snapshot; the caller has already rejected snapshots without one.
func (m SnapshotMapper) ToAttraction(externalPlaceID string, p domain.PlaceSnapshot, loc domain.Coordinate, createdAt time.Time) domain.Attraction {
	return domain.Attraction{
		ExternalPlaceID:   externalPlaceID,
		Name:              p.Name,
		FormattedAddress:  p.FormattedAddress,
		Location:          &loc,
		Types:             nonNil(p.Types),
		PhotoURLs:         m.BuildPhotoURLs(p.Photos),
		Rating:            p.Rating,
		UserRatingsTotal:  p.UserRatingsTotal,
		Website:           p.Website,
		MapsURL:           p.URL,
		PhoneNumber:       p.InternationalPhoneNumber,
		OpeningHoursLines: NormalizeOpeningHours(p.OpeningHours),
		CustomTags:        []string{},
		RecommendedBy:     []string{},
		CreatedAt:         createdAt.UTC(),
	}
}

func nonNil(in []string) []string {
	if in == nil {
		return []string{}
	}
	return slices.Clone(in)
}
