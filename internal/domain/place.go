package domain

// PlaceSnapshot mirrors the provider's place-details "result" object.
type PlaceSnapshot struct {
	Name                     string             `json:"name"`
	FormattedAddress         string             `json:"formatted_address"`
	Geometry                 *PlaceGeometry     `json:"geometry"`
	Types                    []string           `json:"types"`
	Photos                   []PlacePhoto       `json:"photos"`
	Rating                   *float64           `json:"rating"`
	UserRatingsTotal         *int               `json:"user_ratings_total"`
	Website                  string             `json:"website"`
	URL                      string             `json:"url"`
	InternationalPhoneNumber string             `json:"international_phone_number"`
	OpeningHours             *PlaceOpeningHours `json:"opening_hours"`
	AddressComponents        []AddressComponent `json:"address_components"`
}

type PlaceGeometry struct {
	Location *PlaceLatLng `json:"location"`
}

type PlaceLatLng struct {
	Lat *float64 `json:"lat"`
	Lng *float64 `json:"lng"`
}

type PlacePhoto struct {
	PhotoReference string `json:"photo_reference"`
	Width          int    `json:"width,omitempty"`
	Height         int    `json:"height,omitempty"`
}

type PlaceOpeningHours struct {
	WeekdayText []string `json:"weekday_text"`
}

type AddressComponent struct {
	LongName  string   `json:"long_name"`
	ShortName string   `json:"short_name"`
	Types     []string `json:"types"`
}

// Coordinate returns the snapshot's point, or false when geometry.location is
// missing or either component is absent.
func (p PlaceSnapshot) Coordinate() (Coordinate, bool) {
	if p.Geometry == nil || p.Geometry.Location == nil {
		return Coordinate{}, false
	}
	loc := p.Geometry.Location
	if loc.Lat == nil || loc.Lng == nil {
		return Coordinate{}, false
	}
	c := Coordinate{Lat: *loc.Lat, Lng: *loc.Lng}
	return c, c.Valid()
}
