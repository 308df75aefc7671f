package app

import (
	"fmt"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/verax/internal/common"
	"github.com/ternarybob/verax/internal/interfaces"
	"github.com/ternarybob/verax/internal/pipeline"
	"github.com/ternarybob/verax/internal/services/agent"
	"github.com/ternarybob/verax/internal/services/fetch"
	"github.com/ternarybob/verax/internal/services/llm"
	"github.com/ternarybob/verax/internal/services/monitor"
	"github.com/ternarybob/verax/internal/services/report"
	"github.com/ternarybob/verax/internal/services/retrieval"
	"github.com/ternarybob/verax/internal/storage"
)

// App holds all application components and dependencies
type App struct {
	Config *common.Config
	Logger arbor.ILogger

	StorageManager   interfaces.StorageManager
	RetrievalService interfaces.RetrievalService
	GeneratorService interfaces.GeneratorService
	AgentService     interfaces.AgentService // nil unless agent mode is enabled
	MonitorClient    *monitor.Client
	Runner           *pipeline.Runner
	ReportService    *report.Service

	// ProviderFactory is exposed for the question generator, which talks
	// to the LLM directly rather than through the answer pipeline.
	ProviderFactory *llm.ProviderFactory
}

// New initializes the application with all dependencies
func New(cfg *common.Config, logger arbor.ILogger) (*App, error) {
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	if err := app.initDatabase(); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	if err := app.initServices(); err != nil {
		app.StorageManager.Close()
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	return app, nil
}

// initDatabase initializes the storage layer (Badger)
func (a *App) initDatabase() error {
	storageManager, err := storage.NewStorageManager(a.Logger, a.Config)
	if err != nil {
		return fmt.Errorf("failed to create storage manager: %w", err)
	}

	a.StorageManager = storageManager
	a.Logger.Debug().
		Str("storage", "badger").
		Str("path", a.Config.Storage.Badger.Path).
		Msg("Storage layer initialized")

	return nil
}

// initServices wires the retrieval, generation, monitoring, and pipeline
// services in dependency order.
func (a *App) initServices() error {
	retrievalService, err := retrieval.NewRetrievalService(a.Config, a.Logger)
	if err != nil {
		return fmt.Errorf("failed to create retrieval service: %w", err)
	}
	a.RetrievalService = retrievalService

	a.ProviderFactory = llm.NewProviderFactory(a.Config, a.Logger)
	a.GeneratorService = llm.NewGenerator(a.ProviderFactory, a.Config, "", a.Logger)

	if a.Config.Agent.Enabled {
		fetchService := fetch.NewService(a.Config, a.Logger)
		a.AgentService = agent.NewService(a.ProviderFactory, retrievalService, fetchService, a.Config, "", a.Logger)
		a.Logger.Debug().
			Int("max_turns", a.Config.Agent.MaxTurns).
			Msg("Agent mode enabled")
	}

	monitorClient, err := monitor.NewClientFromConfig(a.Config, a.Logger)
	if err != nil {
		return fmt.Errorf("failed to create monitor client: %w", err)
	}
	a.MonitorClient = monitorClient

	a.Runner = pipeline.NewRunner(
		a.Config,
		a.StorageManager,
		a.RetrievalService,
		a.GeneratorService,
		a.AgentService,
		a.MonitorClient,
		a.Logger,
	)
	a.ReportService = report.NewService(a.Config, a.Logger)

	a.Logger.Info().
		Str("retrieval_provider", retrievalService.Provider()).
		Str("model", a.GeneratorService.Model()).
		Bool("agent_enabled", a.Config.Agent.Enabled).
		Msg("Application initialization complete")

	return nil
}

// Close closes all application resources
func (a *App) Close() error {
	if a.ProviderFactory != nil {
		if err := a.ProviderFactory.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close provider factory")
		}
	}

	if a.StorageManager != nil {
		if err := a.StorageManager.Close(); err != nil {
			return fmt.Errorf("failed to close storage: %w", err)
		}
		a.Logger.Info().Msg("Storage closed")
	}

	return nil
}
