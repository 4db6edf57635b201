package main

import (
	"fmt"
	"log/slog"

	"github.com/facturio/stocksync/internal/domain/catalog"
	"github.com/facturio/stocksync/internal/domain/lookup"
	"github.com/facturio/stocksync/internal/domain/mapper"
	pipelinehandler "github.com/facturio/stocksync/internal/domain/pipeline/handler"
	pipelineservice "github.com/facturio/stocksync/internal/domain/pipeline/service"
	"github.com/facturio/stocksync/internal/domain/reconcile"
	"github.com/facturio/stocksync/pkg/config"
	"github.com/facturio/stocksync/pkg/cron"
	"github.com/facturio/stocksync/pkg/notify"
	"github.com/facturio/stocksync/pkg/remote"
	"github.com/facturio/stocksync/pkg/storage"
)

// Dependencies holds all application dependencies
type Dependencies struct {
	Config *config.Config
	Logger *slog.Logger

	// Clients
	Remote  *remote.Client
	Lookups *lookup.Client
	Listing *catalog.ListingClient

	// Catalog
	SnapshotStore *catalog.SnapshotStore
	Search        *catalog.ProductSearch
	Catalog       *catalog.Catalog

	// Services
	Reconciler *reconcile.Reconciler
	Notifier   *notify.Notifier
	Archive    storage.Archive
	Pipeline   *pipelineservice.PipelineService
	Scheduler  *cron.Scheduler

	// Handlers
	PipelineHandler *pipelinehandler.PipelineHandler
}

// InitDependencies initializes all application dependencies
func InitDependencies(cfg *config.Config, logger *slog.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config: cfg,
		Logger: logger,
	}

	deps.initClients()

	if err := deps.initCatalog(); err != nil {
		return nil, fmt.Errorf("failed to init catalog: %w", err)
	}

	if err := deps.initServices(); err != nil {
		return nil, fmt.Errorf("failed to init services: %w", err)
	}

	deps.initHandlers()

	logger.Info("all dependencies initialized successfully")

	return deps, nil
}

// initClients initializes the outbound product API clients
func (d *Dependencies) initClients() {
	d.Remote = remote.New(remote.Config{
		APIKey:            d.Config.Remote.APIKey,
		RequestsPerSecond: d.Config.Remote.RequestsPerSecond,
		Burst:             d.Config.Remote.Burst,
	}, d.Logger)

	d.Lookups = lookup.NewClient(d.Config.Endpoints.LookupURL, d.Remote, d.Logger)

	if d.Config.Endpoints.ProductsURL != "" {
		d.Listing = catalog.NewListingClient(d.Config.Endpoints.ProductsURL, d.Remote, d.Logger)
	}

	d.Logger.Info("remote clients initialized",
		slog.Bool("api_key", d.Config.Remote.APIKey != ""),
		slog.Bool("listing", d.Listing != nil),
	)
}

// initCatalog initializes the product snapshot store, the search index and
// the catalog on top of them, hydrated from the persisted snapshot if any
func (d *Dependencies) initCatalog() error {
	d.SnapshotStore = catalog.NewSnapshotStore(d.Config.Paths.ProductsCache)

	search, err := catalog.NewProductSearch("")
	if err != nil {
		return fmt.Errorf("failed to init product search: %w", err)
	}
	d.Search = search

	d.Catalog = catalog.New(d.Listing, d.SnapshotStore, d.Search, d.Logger)
	if err := d.Catalog.Load(); err != nil {
		return fmt.Errorf("failed to load product snapshot: %w", err)
	}

	d.Logger.Info("catalog initialized", slog.Int("products", d.Catalog.Size()))
	return nil
}

// initServices initializes the reconciler, the notifier, the document
// archive and the pipeline service
func (d *Dependencies) initServices() error {
	d.Reconciler = reconcile.New(
		d.Config.Endpoints.UpdateStockURL,
		d.Config.Reconcile.UpdateReason,
		d.Remote,
		reconcile.NewAuditLogger(d.Config.Paths.AuditLog),
		d.Logger,
	)

	d.Notifier = notify.New(d.Config.Notify.WebhookURL, d.Logger)

	archive, err := storage.NewLocalArchive(d.Config.Paths.ArchiveDir)
	if err != nil {
		return fmt.Errorf("failed to init document archive: %w", err)
	}
	d.Archive = archive

	d.Pipeline = pipelineservice.NewPipelineService(
		mapper.New(), d.Lookups, d.Catalog, d.Reconciler, d.Logger,
	).WithNotifier(d.Notifier)

	if d.Config.Refresh.Cron != "" {
		d.Scheduler = cron.NewScheduler(d.Pipeline, d.Config.Refresh.Cron, d.Logger)
	}

	d.Logger.Info("services initialized")
	return nil
}

// initHandlers initializes the HTTP handlers
func (d *Dependencies) initHandlers() {
	d.PipelineHandler = pipelinehandler.NewPipelineHandler(d.Pipeline, d.Archive, d.Logger)

	d.Logger.Info("handlers initialized")
}

// Cleanup closes all resources
func (d *Dependencies) Cleanup() {
	if d.Search != nil {
		if err := d.Search.Close(); err != nil {
			d.Logger.Warn("failed to close search index", slog.Any("error", err))
		}
	}
	d.Logger.Info("cleanup completed")
}
