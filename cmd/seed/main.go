package main

import (
	"context"

	"github.com/rs/zerolog/log"

	"stealthcompany.com/healthdesk/internal/config"
	"stealthcompany.com/healthdesk/internal/couchbase"
	"stealthcompany.com/healthdesk/internal/seed"
	"stealthcompany.com/healthdesk/pkg/zerolog_config"
)

func main() {
	cfg := config.Load()

	zerolog_config.SetAppPrefix("healthdesk-seed")
	zerolog_config.StartupWithEnv(cfg.ElasticsearchURL, "logs")

	log.Info().Msg("Starting healthdesk-seed service")

	conn, err := couchbase.NewConnectionManager(
		cfg.CouchbaseURL,
		cfg.CouchbaseUsername,
		cfg.CouchbasePassword,
		cfg.CouchbaseBucket,
	)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Couchbase")
	}
	defer conn.Close()

	store := couchbase.NewPatientStore(conn, "healthdesk-seed")

	// Hold the maintenance lock for the duration of the load so the API
	// reports the bucket as seeding and refuses competing writes. The store
	// carries the same holder name, so the seeder's own writes go through.
	lock := couchbase.NewMaintenanceLock(conn.GetBucket(), "healthdesk-seed")
	if err := lock.Acquire(); err != nil {
		log.Fatal().Err(err).Msg("Failed to acquire maintenance lock")
	}
	defer func() {
		if err := lock.Release(); err != nil {
			log.Error().Err(err).Msg("Failed to release maintenance lock")
		}
	}()

	seeder := seed.NewSeeder(store)
	if err := seeder.Run(context.Background(), cfg.SeedCount); err != nil {
		log.Fatal().Err(err).Msg("Sample data load failed")
	}

	log.Info().Msg("Sample data load completed successfully")
}
