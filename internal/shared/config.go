package shared

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	AppEnv          string
	LogLevel        string
	HTTPAddr        string
	MetricsAddr     string
	MySQLDSN        string // empty selects the in-memory store
	RedisAddr       string // empty selects the in-process cache
	RedisDB         int
	RedisPass       string
	PlacesBase      string
	PhotoBase       string
	PlacesKey       string
	PlacesRPS       int
	PlacesTimeout   time.Duration
	PhotoMaxWidth   int
	JWTSecret       string
	CacheTTL        time.Duration
	DefaultRadiusKm float64
	Workers         int
	IngestUserID    string
	IngestIDsFile   string
}

// Load reads the environment, after merging an optional .env file from the
// working directory (real environment variables win).
func Load() Config {
	if err := godotenv.Load(); err == nil {
		log.Debug().Msg(".env loaded")
	}

	c := Config{
		AppEnv:          env("APP_ENV", "prod"),
		LogLevel:        env("LOG_LEVEL", "info"),
		HTTPAddr:        env("HTTP_ADDR", ":8080"),
		MetricsAddr:     env("METRICS_ADDR", ""),
		MySQLDSN:        env("MYSQL_DSN", ""),
		RedisAddr:       env("REDIS_ADDR", ""),
		RedisDB:         atoi("REDIS_DB", 0),
		RedisPass:       env("REDIS_PASSWORD", ""),
		PlacesBase:      env("PLACES_BASE_URL", "https://maps.googleapis.com/maps/api/place"),
		PhotoBase:       env("PLACES_PHOTO_URL", "https://maps.googleapis.com/maps/api/place/photo"),
		PlacesKey:       env("PLACES_API_KEY", ""),
		PlacesRPS:       atoi("PLACES_RPS", 10),
		PlacesTimeout:   time.Duration(atoi("PLACES_TIMEOUT_SECONDS", 10)) * time.Second,
		PhotoMaxWidth:   atoi("PHOTO_MAX_WIDTH", 800),
		JWTSecret:       env("JWT_SECRET", ""),
		CacheTTL:        time.Duration(atoi("CACHE_TTL_SECONDS", 300)) * time.Second,
		DefaultRadiusKm: atof("DEFAULT_RADIUS_KM", 50),
		Workers:         atoi("INGEST_WORKERS", 4),
		IngestUserID:    env("INGEST_USER_ID", ""),
		IngestIDsFile:   env("INGEST_PLACE_IDS_FILE", ""),
	}
	if c.PlacesKey == "" {
		log.Warn().Msg("PLACES_API_KEY is empty")
	}
	if c.JWTSecret == "" {
		log.Warn().Msg("JWT_SECRET is empty; authenticated routes will reject every request")
	}
	return c
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func atoi(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func atof(k string, def float64) float64 {
	if v := os.Getenv(k); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}
