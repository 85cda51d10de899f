package main

import (
	"github.com/usawrapco/wrapforge/internal/config"
	"github.com/usawrapco/wrapforge/internal/dispatch"
	"github.com/usawrapco/wrapforge/internal/handlers"
	"github.com/usawrapco/wrapforge/internal/models"
	"github.com/usawrapco/wrapforge/internal/provider"
	"github.com/usawrapco/wrapforge/internal/registry"
	"github.com/usawrapco/wrapforge/internal/secrets"
	"github.com/usawrapco/wrapforge/internal/services"
	"github.com/usawrapco/wrapforge/pkg/logger"
)

// appServices holds all initialized services and handlers needed by the application.
type appServices struct {
	registry  *registry.Registry
	taskQueue services.TaskQueue
	worker    *services.Worker

	dispatchHandler *handlers.DispatchHandler
	configHandler   *handlers.PipelineConfigHandler
	usageHandler    *handlers.AIUsageHandler
	modelsHandler   *handlers.ModelsHandler
	healthHandler   *handlers.HealthHandler
}

// bootstrap initializes all application dependencies: database, catalog,
// adapters, queue, schedulers.
func bootstrap(cfg *config.Config) *appServices {
	if err := models.InitDB(&cfg.Database); err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	if err := models.AutoMigrate(); err != nil {
		logger.Fatalf("Failed to migrate database: %v", err)
	}

	// A default pipeline referencing a missing model must kill the process
	// at boot, not the first dispatch.
	reg := registry.New()
	if err := reg.Validate(); err != nil {
		logger.Fatalf("Invalid model catalog: %v", err)
	}

	db := models.GetDB()
	resolver := secrets.NewChainResolver(&cfg.Providers, db)
	adapters := provider.BuildAdapters(resolver, cfg)

	statsService := services.NewPipelineStatsService(db)

	// Stats queue: Redis-backed if enabled, otherwise in-process.
	taskQueue := services.InitTaskQueue(cfg)
	if syncQueue, ok := taskQueue.(*services.SyncQueue); ok {
		syncQueue.SetProcessor(statsService.Apply)
	}

	var worker *services.Worker
	if cfg.Redis.Enabled {
		worker = services.InitWorker(&cfg.Redis)
		if worker != nil {
			worker.SetProcessor(statsService.Apply)
			worker.Start()
		}
	}

	services.StartUsageCleanupScheduler(db, cfg.Pipeline.RetentionDays)

	dispatcher := dispatch.New(
		reg,
		adapters,
		services.NewPipelineConfigService(db),
		services.NewAIUsageService(db),
		taskQueue,
		&cfg.Pipeline,
	)

	return &appServices{
		registry:        reg,
		taskQueue:       taskQueue,
		worker:          worker,
		dispatchHandler: handlers.NewDispatchHandler(dispatcher),
		configHandler:   handlers.NewPipelineConfigHandler(db, reg),
		usageHandler:    handlers.NewAIUsageHandler(db),
		modelsHandler:   handlers.NewModelsHandler(reg),
		healthHandler:   handlers.NewHealthHandler(),
	}
}

// shutdown gracefully stops all services.
func (s *appServices) shutdown() {
	services.StopUsageCleanupScheduler()

	if s.worker != nil {
		s.worker.Stop()
	}
	if s.taskQueue != nil {
		s.taskQueue.Close()
	}
	logger.Info().Msg("All services stopped")
}
