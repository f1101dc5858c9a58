package shared

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("MYSQL_DSN", "")
	t.Setenv("PLACES_TIMEOUT_SECONDS", "")
	t.Setenv("DEFAULT_RADIUS_KM", "")

	c := Load()
	if c.HTTPAddr != ":8080" {
		t.Fatalf("HTTPAddr = %q", c.HTTPAddr)
	}
	if c.MySQLDSN != "" {
		t.Fatalf("expected empty DSN, got %q", c.MySQLDSN)
	}
	if c.PlacesTimeout != 10*time.Second {
		t.Fatalf("PlacesTimeout = %v", c.PlacesTimeout)
	}
	if c.DefaultRadiusKm != 50 {
		t.Fatalf("DefaultRadiusKm = %v", c.DefaultRadiusKm)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PLACES_RPS", "3")
	t.Setenv("DEFAULT_RADIUS_KM", "12.5")
	t.Setenv("CACHE_TTL_SECONDS", "notanumber")

	c := Load()
	if c.PlacesRPS != 3 {
		t.Fatalf("PlacesRPS = %d", c.PlacesRPS)
	}
	if c.DefaultRadiusKm != 12.5 {
		t.Fatalf("DefaultRadiusKm = %v", c.DefaultRadiusKm)
	}
	if c.CacheTTL != 300*time.Second {
		t.Fatalf("CacheTTL should fall back to default, got %v", c.CacheTTL)
	}
}
