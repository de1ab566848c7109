package orchestrator

import (
	"context"
	"os/exec"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
)

// ServiceManager manages the lifecycle of the seed and API services
type ServiceManager struct {
	seedCmd *exec.Cmd
	apiCmd  *exec.Cmd
}

// NewServiceManager creates a new service manager
func NewServiceManager() *ServiceManager {
	return &ServiceManager{}
}

// StartSeedService launches the sample data loader
func (sm *ServiceManager) StartSeedService(ctx context.Context, binExt string) error {
	log.Info().Msg("Starting seed service...")

	sm.seedCmd = exec.CommandContext(ctx, "./seed"+binExt)
	sm.seedCmd.Stdout = log.Logger
	sm.seedCmd.Stderr = log.Logger

	if err := sm.seedCmd.Start(); err != nil {
		return err
	}

	// Give the seeder a head start at the maintenance lock
	time.Sleep(2 * time.Second)
	return nil
}

// StartAPIService launches the record service
func (sm *ServiceManager) StartAPIService(ctx context.Context, binExt string) error {
	log.Info().Msg("Starting API service...")

	sm.apiCmd = exec.CommandContext(ctx, "./api"+binExt)
	sm.apiCmd.Stdout = log.Logger
	sm.apiCmd.Stderr = log.Logger

	return sm.apiCmd.Start()
}

// WaitForServices blocks until the API exits or the context is cancelled.
// The seeder finishing is expected and only logged.
func (sm *ServiceManager) WaitForServices(ctx context.Context) {
	log.Info().Msg("Both services started, waiting for completion...")

	seedDone := make(chan error, 1)
	go func() {
		seedDone <- sm.seedCmd.Wait()
	}()

	apiDone := make(chan error, 1)
	go func() {
		apiDone <- sm.apiCmd.Wait()
	}()

	for {
		select {
		case err := <-seedDone:
			if err != nil {
				log.Error().Err(err).Msg("Seed service exited with error")
			} else {
				log.Info().Msg("Seed service completed successfully")
			}
			seedDone = nil
		case err := <-apiDone:
			if err != nil {
				log.Error().Err(err).Msg("API service exited with error")
			} else {
				log.Info().Msg("API service exited")
			}
			return
		case <-ctx.Done():
			log.Info().Msg("Shutting down services...")
			sm.shutdownServices()
			return
		}
	}
}

// shutdownServices terminates both services, escalating to kill
func (sm *ServiceManager) shutdownServices() {
	if sm.seedCmd.Process != nil {
		sm.seedCmd.Process.Signal(syscall.SIGTERM)
	}
	if sm.apiCmd.Process != nil {
		sm.apiCmd.Process.Signal(syscall.SIGTERM)
	}

	time.Sleep(5 * time.Second)

	if sm.seedCmd.Process != nil {
		sm.seedCmd.Process.Kill()
	}
	if sm.apiCmd.Process != nil {
		sm.apiCmd.Process.Kill()
	}
}
