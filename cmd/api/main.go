package main

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"stealthcompany.com/healthdesk/internal/api"
	"stealthcompany.com/healthdesk/internal/config"
	"stealthcompany.com/healthdesk/internal/couchbase"
	"stealthcompany.com/healthdesk/internal/metrics"
	"stealthcompany.com/healthdesk/internal/orchestrator"
	"stealthcompany.com/healthdesk/internal/patients"
	"stealthcompany.com/healthdesk/pkg/zerolog_config"
)

func main() {
	cfg := config.Load()

	zerolog_config.SetAppPrefix("healthdesk-api")
	zerolog_config.StartupWithEnv(cfg.ElasticsearchURL, "logs")

	log.Info().Msg("Starting healthdesk-api service")

	metrics.StartSystemMetrics(30 * time.Second)

	var store patients.Store
	switch cfg.StoreDriver {
	case "memory":
		// Volatile store for local development without a cluster
		log.Warn().Msg("Using in-memory store, records will not survive a restart")
		store = patients.NewMemStore()
	default:
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
		store = couchbase.NewPatientStore(conn, "healthdesk-api")
	}

	router := api.SetupRoutes(store)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	orchestrator.NewSignalHandler().HandleSignals(ctx, cancel)

	go func() {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Server shutdown failed")
		}
	}()

	log.Info().
		Str("port", cfg.Port).
		Str("store", cfg.StoreDriver).
		Msg("API server starting")

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("Failed to start API server")
	}

	log.Info().Msg("API server stopped")
}
