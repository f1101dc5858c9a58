// Command ingestor registers a batch of place ids on behalf of one user,
// e.g. to seed a fresh registry.
package main

import (
	"bufio"
	"context"
	"os"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"attraction_registry/internal/adapters/observability"
	"attraction_registry/internal/adapters/places"
	"attraction_registry/internal/app"
	"attraction_registry/internal/shared"
	mysqlrepo "attraction_registry/internal/storage/mysql"
)

func main() {
	ctx := context.Background()
	cfg := shared.Load()

	log.Logger = observability.NewLogger(cfg.AppEnv, cfg.LogLevel)

	ids, err := placeIDs(cfg.IngestIDsFile, os.Args[1:])
	if err != nil {
		log.Fatal().Err(err).Str("file", cfg.IngestIDsFile).Msg("read place ids failed")
	}
	if cfg.IngestUserID == "" {
		log.Fatal().Msg("INGEST_USER_ID is required")
	}
	if cfg.MySQLDSN == "" {
		log.Fatal().Msg("MYSQL_DSN is required; the in-memory store would be discarded on exit")
	}

	log.Info().
		Str("base", cfg.PlacesBase).
		Int("workers", cfg.Workers).
		Int("ids", len(ids)).
		Msg("ingestor starting")

	db, err := mysqlrepo.Open(cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("mysql connection failed")
	}
	defer db.Close()
	repo := mysqlrepo.New(db)

	client, err := places.New(cfg.PlacesBase, cfg.PlacesKey, cfg.PlacesRPS, cfg.PlacesTimeout)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize places client")
	}
	// no cache: the API process owns read caching and its TTL bounds staleness
	registry := app.NewAttractionRegistry(repo, app.NewCityRegistry(repo), client,
		app.NewSnapshotMapper(cfg.PhotoBase, cfg.PlacesKey, cfg.PhotoMaxWidth),
		app.WithPlaceTimeout(cfg.PlacesTimeout),
	)

	workers := max(cfg.Workers, 1)
	sem := semaphore.NewWeighted(int64(workers))
	var wg sync.WaitGroup
	var created, endorsed, failed atomic.Int64

	for _, id := range ids {
		// acquire before launching the goroutine; release inside it
		if err := sem.Acquire(ctx, 1); err != nil {
			log.Fatal().Err(err).Msg("semaphore acquire failed")
		}

		wg.Add(1)
		go func(placeID string) {
			defer wg.Done()
			defer sem.Release(1)

			a, isNew, err := registry.RegisterOrEndorse(ctx, app.RegisterInput{ExternalPlaceID: placeID, UserID: cfg.IngestUserID})
			if err != nil {
				failed.Add(1)
				log.Warn().Str("id", placeID).Str("kind", observability.LabelErr(err)).Err(err).Msg("ingest failed")
				return
			}
			if isNew {
				created.Add(1)
			} else {
				endorsed.Add(1)
			}
			log.Info().Str("id", placeID).Str("name", a.Name).Bool("created", isNew).Msg("ingest ok")
		}(id)
	}

	wg.Wait()
	log.Info().
		Int64("created", created.Load()).
		Int64("endorsed", endorsed.Load()).
		Int64("failed", failed.Load()).
		Msg("ingestion completed")
}

// placeIDs merges ids from file (one per line, # comments) and args, dropping duplicates.
func placeIDs(file string, args []string) ([]string, error) {
	var raw []string
	if file != "" {
		f, err := os.Open(file)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		sc := bufio.NewScanner(f)
		for sc.Scan() {
			raw = append(raw, sc.Text())
		}
		if err := sc.Err(); err != nil {
			return nil, err
		}
	}
	raw = append(raw, args...)

	seen := make(map[string]struct{}, len(raw))
	out := make([]string, 0, len(raw))
	for _, l := range raw {
		l = strings.TrimSpace(l)
		if l == "" || strings.HasPrefix(l, "#") {
			continue
		}
		if _, ok := seen[l]; ok {
			continue
		}
		seen[l] = struct{}{}
		out = append(out, l)
	}
	return out, nil
}
