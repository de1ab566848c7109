package main

import (
	"context"
	"runtime"

	"github.com/rs/zerolog/log"

	"stealthcompany.com/healthdesk/internal/config"
	"stealthcompany.com/healthdesk/internal/orchestrator"
	"stealthcompany.com/healthdesk/pkg/zerolog_config"
)

// Orchestrator entrypoint: runs the sample data loader and the record
// service as child processes, mirroring how the compose setup starts them.
func main() {
	cfg := config.Load()

	zerolog_config.SetAppPrefix("healthdesk")
	zerolog_config.StartupWithEnv(cfg.ElasticsearchURL, "logs")

	log.Info().Msg("Starting healthdesk orchestrator")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	orchestrator.NewSignalHandler().HandleSignals(ctx, cancel)

	binExt := ""
	if runtime.GOOS == "windows" {
		binExt = ".exe"
	}

	sm := orchestrator.NewServiceManager()
	if err := sm.StartSeedService(ctx, binExt); err != nil {
		log.Fatal().Err(err).Msg("Failed to start seed service")
	}
	if err := sm.StartAPIService(ctx, binExt); err != nil {
		log.Fatal().Err(err).Msg("Failed to start API service")
	}

	sm.WaitForServices(ctx)
}
