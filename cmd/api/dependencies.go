package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/FACorreiaa/finance-dashboard/internal/domain/document/classifier"
	"github.com/FACorreiaa/finance-dashboard/internal/domain/document/search"
	importhandler "github.com/FACorreiaa/finance-dashboard/internal/domain/import/handler"
	"github.com/FACorreiaa/finance-dashboard/internal/domain/import/parser"
	importservice "github.com/FACorreiaa/finance-dashboard/internal/domain/import/service"
	"github.com/FACorreiaa/finance-dashboard/internal/domain/ledger"
	"github.com/FACorreiaa/finance-dashboard/internal/domain/ledger/migrations"
	"github.com/FACorreiaa/finance-dashboard/internal/domain/ledger/repository"
	loanshandler "github.com/FACorreiaa/finance-dashboard/internal/domain/loans/handler"
	loansservice "github.com/FACorreiaa/finance-dashboard/internal/domain/loans/service"
	"github.com/FACorreiaa/finance-dashboard/internal/domain/reconcile"
	reporthandler "github.com/FACorreiaa/finance-dashboard/internal/domain/report/handler"
	subscriptionshandler "github.com/FACorreiaa/finance-dashboard/internal/domain/subscriptions/handler"
	subscriptionsservice "github.com/FACorreiaa/finance-dashboard/internal/domain/subscriptions/service"
	"github.com/FACorreiaa/finance-dashboard/pkg/config"
	"github.com/FACorreiaa/finance-dashboard/pkg/cron"
	"github.com/FACorreiaa/finance-dashboard/pkg/db"
	"github.com/FACorreiaa/finance-dashboard/pkg/metrics"
	"github.com/FACorreiaa/finance-dashboard/pkg/notify"
	"github.com/FACorreiaa/finance-dashboard/pkg/ocr"
	"github.com/FACorreiaa/finance-dashboard/pkg/storage"
)

const (
	ocrAttempts = 2
	ocrDelay    = 500 * time.Millisecond
)

// Dependencies holds all application dependencies
type Dependencies struct {
	Config *config.Config
	Pool   *pgxpool.Pool
	Logger *slog.Logger

	// Storage
	Repo        repository.LedgerRepository
	LocalState  *repository.LocalState
	FileStorage storage.Storage
	SearchIndex *search.Index
	Metrics     *metrics.Metrics

	// Services
	LoansService         *loansservice.Service
	SubscriptionsService *subscriptionsservice.Service
	Reconciler           *reconcile.Reconciler
	ImportService        *importservice.ImportService
	Notifier             *notify.Service
	Scheduler            *cron.Scheduler

	// Handlers
	LoansHandler         *loanshandler.LoansHandler
	SubscriptionsHandler *subscriptionshandler.SubscriptionsHandler
	ImportHandler        *importhandler.ImportHandler
	ReportHandler        *reporthandler.ReportHandler
}

// InitDependencies initializes all application dependencies
func InitDependencies(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config: cfg,
		Logger: logger,
	}

	if err := deps.initDatabase(ctx); err != nil {
		deps.Cleanup()
		return nil, fmt.Errorf("failed to init database: %w", err)
	}

	if err := deps.initRepositories(); err != nil {
		deps.Cleanup()
		return nil, fmt.Errorf("failed to init repositories: %w", err)
	}

	if err := deps.initServices(); err != nil {
		deps.Cleanup()
		return nil, fmt.Errorf("failed to init services: %w", err)
	}

	deps.initHandlers()

	logger.Info("all dependencies initialized successfully")

	return deps, nil
}

// initDatabase connects to Postgres, runs migrations and seeds the ledger.
// It is a no-op when the database is disabled.
func (d *Dependencies) initDatabase(ctx context.Context) error {
	if !d.Config.Database.Enabled {
		d.Logger.Info("database disabled, using the in-memory seed ledger")
		return nil
	}

	pool, err := db.Connect(ctx, d.Config.Database, d.Logger)
	if err != nil {
		return err
	}
	d.Pool = pool

	if err := db.Migrate(ctx, pool, migrations.FS, d.Logger); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	if err := repository.NewPostgresRepository(pool).Seed(ctx, ledger.Seed()); err != nil {
		return fmt.Errorf("failed to seed ledger: %w", err)
	}

	d.Logger.Info("database connected and migrations completed successfully")
	return nil
}

// initRepositories initializes all repository layer dependencies
func (d *Dependencies) initRepositories() error {
	state, err := repository.OpenLocalState(d.Config.Storage.StatePath)
	if err != nil {
		return err
	}
	d.LocalState = state

	if d.Pool != nil {
		d.Repo = repository.NewPostgresRepository(d.Pool)
	} else {
		// the seed ledger resets on restart, confirmed service charges are kept in local state
		d.Repo = repository.NewServiceOverlay(repository.NewSeededRepository(), state)
	}

	fileStorage, err := storage.NewLocalStorage(d.Config.Storage.UploadPath)
	if err != nil {
		return fmt.Errorf("failed to init file storage: %w", err)
	}
	d.FileStorage = fileStorage

	index, err := search.NewIndex(d.Config.Storage.SearchIndexPath)
	if err != nil {
		return fmt.Errorf("failed to open search index: %w", err)
	}
	d.SearchIndex = index

	d.Logger.Info("repositories initialized")
	return nil
}

// initServices initializes all service layer dependencies
func (d *Dependencies) initServices() error {
	d.Metrics = metrics.New()

	d.LoansService = loansservice.NewService(d.Repo, d.Logger)
	d.SubscriptionsService = subscriptionsservice.NewService(d.Repo, d.Logger)
	d.Reconciler = reconcile.New(d.Repo, d.LocalState, d.Logger)

	images := ocr.WithRetry(ocr.NewTesseract(d.Config.Upload.OCRLanguages), ocrAttempts, ocrDelay, d.Logger)
	d.ImportService = importservice.NewImportService(images, parser.NewPDFTextExtractor(), classifier.NewDefault(), d.Reconciler, d.Logger).
		WithStorage(d.FileStorage).
		WithIndex(d.SearchIndex).
		WithMetrics(d.Metrics).
		WithMaxFiles(d.Config.Upload.MaxFiles)

	d.Notifier = notify.NewService(
		d.Config.Notifications.ResendAPIKey,
		d.Config.Notifications.From,
		d.Config.Notifications.To,
		d.Logger,
	)
	d.Scheduler = cron.NewScheduler(d.Repo, d.Notifier, d.Config.Cron.DigestSchedule, d.Logger).
		WithAsOf(d.Config.Ledger.AsOf)

	d.Logger.Info("services initialized")
	return nil
}

// initHandlers initializes all handler dependencies
func (d *Dependencies) initHandlers() {
	asOf := d.Config.Ledger.AsOf

	d.LoansHandler = loanshandler.NewLoansHandler(d.LoansService, asOf, d.Logger)
	d.SubscriptionsHandler = subscriptionshandler.NewSubscriptionsHandler(d.SubscriptionsService, asOf, d.Logger)
	d.ImportHandler = importhandler.NewImportHandler(d.ImportService, d.SearchIndex, asOf, d.Logger).
		WithMaxFileBytes(d.Config.Upload.MaxFileBytes).
		WithFiles(d.FileStorage)
	d.ReportHandler = reporthandler.NewReportHandler(d.Repo, d.Reconciler, asOf, d.Logger).
		WithPayments(d.LocalState)

	d.Logger.Info("handlers initialized")
}

// Cleanup closes all resources
func (d *Dependencies) Cleanup() {
	if d.SearchIndex != nil {
		if err := d.SearchIndex.Close(); err != nil {
			d.Logger.Warn("failed to close search index", slog.Any("error", err))
		}
	}
	if d.LocalState != nil {
		if err := d.LocalState.Close(); err != nil {
			d.Logger.Warn("failed to close local state", slog.Any("error", err))
		}
	}
	if d.Pool != nil {
		d.Pool.Close()
	}
	d.Logger.Info("cleanup completed")
}
