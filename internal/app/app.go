package app

import (
	"fmt"

	"github.com/ternarybob/arbor"
	arbormodels "github.com/ternarybob/arbor/models"
	"github.com/ternarybob/arbor/services/logviewer"
	"github.com/ternarybob/curator/internal/common"
	"github.com/ternarybob/curator/internal/handlers"
	"github.com/ternarybob/curator/internal/interfaces"
	"github.com/ternarybob/curator/internal/models"
	"github.com/ternarybob/curator/internal/services/chunking"
	"github.com/ternarybob/curator/internal/services/embeddings"
	"github.com/ternarybob/curator/internal/services/extract"
	"github.com/ternarybob/curator/internal/services/llm"
	"github.com/ternarybob/curator/internal/services/pipeline"
	"github.com/ternarybob/curator/internal/services/reconcile"
	"github.com/ternarybob/curator/internal/services/scheduler"
	"github.com/ternarybob/curator/internal/services/sources"
	syncsvc "github.com/ternarybob/curator/internal/services/sync"
	"github.com/ternarybob/curator/internal/services/vector"
	badgerstorage "github.com/ternarybob/curator/internal/storage/badger"
)

// App holds all application components and dependencies
type App struct {
	Config         *common.Config
	Logger         arbor.ILogger
	StorageManager interfaces.StorageManager

	// Pipeline services
	TextGenerator   interfaces.TextGenerator
	ChunkingService interfaces.ChunkingService
	Gateway         interfaces.EmbeddingGateway
	VectorIndex     interfaces.VectorIndex
	Orchestrator    *pipeline.Orchestrator
	Reconciler      *reconcile.Reconciler
	Extractor       *extract.Extractor

	// Source connectors keyed by source type
	Connectors map[models.SourceType]interfaces.SourceConnector

	// Sync runner and scheduler
	Runner           *syncsvc.Runner
	SchedulerService interfaces.SchedulerService

	// Log viewer over the application's own log files
	SystemLogsService *logviewer.Service

	// HTTP handlers
	APIHandler        *handlers.APIHandler
	SyncHandler       *handlers.SyncHandler
	ItemHandler       *handlers.ItemHandler
	SourceHandler     *handlers.SourceHandler
	SchedulerHandler  *handlers.SchedulerHandler
	SystemLogsHandler *handlers.SystemLogsHandler
}

// New initializes the application with all dependencies
func New(cfg *common.Config, logger arbor.ILogger) (*App, error) {
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	// Initialize database
	if err := app.initDatabase(); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	// Initialize services
	if err := app.initServices(); err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	// Initialize handlers
	app.initHandlers()

	logger.Info().
		Bool("sync_enabled", cfg.Sync.Enabled).
		Str("vector_url", cfg.Vector.URL).
		Msg("Application initialization complete")

	return app, nil
}

// initDatabase initializes the storage layer (Badger)
func (a *App) initDatabase() error {
	storageManager, err := badgerstorage.NewManager(a.Logger, &a.Config.Storage)
	if err != nil {
		return fmt.Errorf("failed to create storage manager: %w", err)
	}

	a.StorageManager = storageManager
	a.Logger.Debug().
		Str("storage", "badger").
		Str("path", a.Config.Storage.Path).
		Msg("Storage layer initialized")

	return nil
}

// initServices initializes all business services in dependency order
func (a *App) initServices() error {
	// Text generator backs semantic chunking. Without an API key the
	// chunking service falls back to the window strategy.
	generator, err := llm.NewTextGenerator(a.Config, a.Logger)
	if err != nil {
		a.Logger.Warn().Err(err).Msg("Text generator unavailable, semantic chunking disabled")
		generator = nil
	}
	a.TextGenerator = generator

	a.ChunkingService = chunking.NewService(generator, a.Logger)
	a.Gateway = embeddings.NewGateway(a.Logger)
	a.VectorIndex = vector.NewQdrantIndex(&a.Config.Vector, a.Logger)

	a.Orchestrator = pipeline.NewOrchestrator(
		a.StorageManager.ItemStorage(),
		a.StorageManager.StatsStorage(),
		a.ChunkingService,
		a.Gateway,
		a.VectorIndex,
		a.Logger,
	)
	a.Reconciler = reconcile.NewReconciler(a.StorageManager.ItemStorage(), a.Logger)

	a.Extractor = extract.NewExtractor(a.Logger)
	a.Connectors = sources.NewRegistry(a.Config, a.Extractor, a.Logger)
	a.Logger.Debug().Int("connectors", len(a.Connectors)).Msg("Source connectors initialized")

	a.Runner = syncsvc.NewRunner(
		a.Config,
		a.StorageManager,
		a.Connectors,
		a.Reconciler,
		a.Orchestrator,
		a.Logger,
	)

	a.SchedulerService = scheduler.NewService(a.Runner, a.StorageManager.SourceStorage(), a.Logger)

	// Log viewer points at the same file the logger writes to
	a.SystemLogsService = logviewer.NewService(arbormodels.WriterConfiguration{
		Type:       arbormodels.LogWriterTypeFile,
		FileName:   common.GetLogFilePath(a.Logger),
		TimeFormat: "15:04:05",
	})

	return nil
}

// initHandlers initializes all HTTP handlers
func (a *App) initHandlers() {
	a.APIHandler = handlers.NewAPIHandler(a.StorageManager)
	a.SyncHandler = handlers.NewSyncHandler(a.Runner)
	a.ItemHandler = handlers.NewItemHandler(a.StorageManager, a.Runner, a.Orchestrator)
	a.SourceHandler = handlers.NewSourceHandler(a.StorageManager)
	a.SchedulerHandler = handlers.NewSchedulerHandler(a.SchedulerService)
	a.SystemLogsHandler = handlers.NewSystemLogsHandler(a.SystemLogsService)
}

// Close closes all application resources
func (a *App) Close() error {
	if a.SchedulerService != nil {
		if err := a.SchedulerService.Stop(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to stop scheduler service")
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
