package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	server "attraction_registry/internal/adapters/http_server"
	"attraction_registry/internal/adapters/memcache"
	"attraction_registry/internal/adapters/observability"
	"attraction_registry/internal/adapters/places"
	redisad "attraction_registry/internal/adapters/redis"
	"attraction_registry/internal/app"
	"attraction_registry/internal/domain"
	"attraction_registry/internal/shared"
	"attraction_registry/internal/storage/memory"
	mysqlrepo "attraction_registry/internal/storage/mysql"
)

type stores interface {
	domain.AttractionStore
	domain.CityStore
}

func main() {
	cfg := shared.Load()

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv, cfg.LogLevel)

	reg := observability.InitRegistry()
	observability.Serve(cfg.MetricsAddr, reg)

	store, closeDB := openStore(cfg)
	defer closeDB()
	cache := openCache(cfg)

	client, err := places.New(cfg.PlacesBase, cfg.PlacesKey, cfg.PlacesRPS, cfg.PlacesTimeout)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize places client")
	}
	registry := app.NewAttractionRegistry(store, app.NewCityRegistry(store), client,
		app.NewSnapshotMapper(cfg.PhotoBase, cfg.PlacesKey, cfg.PhotoMaxWidth),
		app.WithCache(cache, cfg.CacheTTL),
		app.WithPlaceTimeout(cfg.PlacesTimeout),
	)

	// the API deadline leaves room for one full place lookup plus storage
	srv := server.New(server.WithRequestTimeout(cfg.PlacesTimeout + 5*time.Second))
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	srv.MountHandlers(&server.Handlers{
		Registry:        registry,
		Proximity:       app.NewProximityQuery(registry),
		Auth:            server.RequireUser([]byte(cfg.JWTSecret)),
		DefaultRadiusKm: cfg.DefaultRadiusKm,
	})

	httpSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: srv.Mux(), ReadHeaderTimeout: 5 * time.Second}
	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("API listening")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
	log.Info().Msg("API stopped")
}

func openStore(cfg shared.Config) (stores, func()) {
	if cfg.MySQLDSN == "" {
		log.Warn().Msg("MYSQL_DSN not set, using in-memory store")
		return memory.New(), func() {}
	}
	db, err := mysqlrepo.Open(cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("mysql connection failed")
	}
	log.Info().Msg("database connection ok")
	return mysqlrepo.New(db), func() { _ = db.Close() }
}

func openCache(cfg shared.Config) domain.Cache {
	if cfg.RedisAddr == "" {
		return memcache.New(cfg.CacheTTL)
	}
	rc := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := rc.Ping(ctx); err != nil {
		log.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("redis unreachable, falling back to in-process cache")
		return memcache.New(cfg.CacheTTL)
	}
	return rc
}
