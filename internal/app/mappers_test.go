package app_test

import (
	"net/url"
	"testing"
	"time"

	"attraction_registry/internal/app"
	"attraction_registry/internal/domain"
)

func comp(name string, types ...string) domain.AddressComponent {
	return domain.AddressComponent{LongName: name, ShortName: name, Types: types}
}

func TestExtractCity(t *testing.T) {
	cases := []struct {
		name        string
		components  []domain.AddressComponent
		wantCity    string
		wantCountry string
	}{
		{"locality wins", []domain.AddressComponent{comp("Transylvania", "administrative_area_level_1"), comp("Brașov", "locality", "political"), comp("Romania", "country")}, "Brașov", "Romania"},
		{"admin area fallback", []domain.AddressComponent{comp("Sibiu County", "administrative_area_level_1"), comp("Romania", "country")}, "Sibiu County", "Romania"},
		{"blank locality ignored", []domain.AddressComponent{comp("  ", "locality"), comp("Argeș", "administrative_area_level_1"), comp("Romania", "country")}, "Argeș", "Romania"},
		{"no country", []domain.AddressComponent{comp("Vatican City", "locality")}, "Vatican City", ""},
		{"nothing", nil, "", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := app.ExtractCity(tc.components)
			if s := strOrEmpty(got.Name); s != tc.wantCity {
				t.Fatalf("city = %q, want %q", s, tc.wantCity)
			}
			if s := strOrEmpty(got.Country); s != tc.wantCountry {
				t.Fatalf("country = %q, want %q", s, tc.wantCountry)
			}
			if got.Complete() != (tc.wantCity != "" && tc.wantCountry != "") {
				t.Fatalf("Complete() = %v", got.Complete())
			}
		})
	}
}

func strOrEmpty(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func TestBuildPhotoURLs(t *testing.T) {
	m := app.NewSnapshotMapper("", "KEY", 0)
	urls := m.BuildPhotoURLs([]domain.PlacePhoto{{PhotoReference: "abc"}, {PhotoReference: ""}, {PhotoReference: "x/y"}})
	if len(urls) != 2 {
		t.Fatalf("expected 2 urls, got %v", urls)
	}
	u, err := url.Parse(urls[0])
	if err != nil {
		t.Fatal(err)
	}
	if got := u.Scheme + "://" + u.Host + u.Path; got != app.DefaultPhotoBaseURL {
		t.Fatalf("base = %s", got)
	}
	q := u.Query()
	if q.Get("maxwidth") != "800" || q.Get("photo_reference") != "abc" || q.Get("key") != "KEY" {
		t.Fatalf("unexpected query %v", q)
	}
	u2, _ := url.Parse(urls[1])
	if u2.Query().Get("photo_reference") != "x/y" {
		t.Fatalf("reference not escaped round-trip: %s", urls[1])
	}

	if got := m.BuildPhotoURLs(nil); got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", got)
	}
}

func TestNormalizeOpeningHours(t *testing.T) {
	if got := app.NormalizeOpeningHours(nil); got == nil || len(got) != 0 {
		t.Fatalf("nil hours => %#v", got)
	}
	src := &domain.PlaceOpeningHours{WeekdayText: []string{"Monday: 9–17", "Tuesday: 9–17"}}
	got := app.NormalizeOpeningHours(src)
	src.WeekdayText[0] = "changed"
	if got[0] != "Monday: 9–17" || len(got) != 2 {
		t.Fatalf("unexpected %v", got)
	}
}

func TestToAttraction_Defaults(t *testing.T) {
	m := app.NewSnapshotMapper("https://img.test/p", "k", 400)
	when := time.Date(2025, 1, 2, 3, 4, 5, 0, time.FixedZone("EET", 2*3600))
	a := m.ToAttraction("pid", domain.PlaceSnapshot{Name: "Arcul de Triumf", URL: "https://maps.test/?cid=1"}, domain.Coordinate{Lat: 44.46, Lng: 26.07}, when)

	if a.ExternalPlaceID != "pid" || a.Name != "Arcul de Triumf" || a.MapsURL != "https://maps.test/?cid=1" {
		t.Fatalf("unexpected %+v", a)
	}
	if a.Location == nil || a.Location.Lat != 44.46 {
		t.Fatalf("location %+v", a.Location)
	}
	if a.Types == nil || a.PhotoURLs == nil || a.OpeningHoursLines == nil || a.CustomTags == nil || a.RecommendedBy == nil {
		t.Fatal("list fields must be non-nil")
	}
	if a.Rating != nil || a.UserRatingsTotal != nil {
		t.Fatal("absent rating must stay absent")
	}
	if a.CreatedAt.Location() != time.UTC || !a.CreatedAt.Equal(when) {
		t.Fatalf("createdAt = %v", a.CreatedAt)
	}
}
