package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"StoreScraper/internal/config"
	"StoreScraper/internal/fetch"
	"StoreScraper/internal/infrastructure/preview"
	"StoreScraper/internal/infrastructure/storage"
	"StoreScraper/internal/infrastructure/tabular"
	"StoreScraper/internal/infrastructure/telegram"
	"StoreScraper/internal/logging"
	"StoreScraper/internal/ports"
	"StoreScraper/internal/scanner"
	"StoreScraper/internal/usecase"
)

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg      config.Config
	logger   *slog.Logger
	source   scanner.Source
	pipeline *usecase.Pipeline
	exporter *usecase.Exporter
	db       *sql.DB
}

// New builds a runnable application instance.
func New(cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	registry := scanner.NewRegistry()
	registry.Register(telegram.NewClient(cfg.Telegram.BotToken, cfg.Telegram.APIBase,
		baseLogger.With("component", "source.bot")))
	registry.Register(preview.NewSource(nil,
		baseLogger.With("component", "source.preview")))

	source, err := registry.Resolve(cfg.Scrape.Source)
	if err != nil {
		return nil, err
	}

	store := storage.NewFileStore(cfg.Storage.Root)

	var db *sql.DB
	var archive ports.CatalogArchive
	if cfg.Database.DSN != "" {
		db, err = storage.Open(cfg.Database.DSN)
		if err != nil {
			return nil, fmt.Errorf("catalog archive: %w", err)
		}
		archive = storage.NewPostgresArchive(db)
	}

	fetcher := fetch.New(source, cfg.Scrape.RetryBaseDelay(),
		baseLogger.With("component", "fetcher"))

	pipeline := usecase.NewPipeline(usecase.PipelineDeps{
		Source:       source,
		Fetcher:      fetcher,
		Store:        store,
		Archive:      archive,
		Logger:       baseLogger.With("component", "pipeline"),
		ProductPause: cfg.Scrape.ProductPause(),
	})

	exporter := usecase.NewExporter(store, tabular.NewWriter(cfg.Storage.Root),
		cfg.Export.CurrencyDivisor, baseLogger.With("component", "exporter"))

	return &Application{
		cfg:      cfg,
		logger:   baseLogger,
		source:   source,
		pipeline: pipeline,
		exporter: exporter,
		db:       db,
	}, nil
}

// Run executes a full scrape-and-export pass: authenticate, scan, assemble,
// flatten, write. Session teardown is best-effort.
func (a *Application) Run(ctx context.Context) error {
	defer a.teardown(ctx)

	if err := a.cfg.Validate(); err != nil {
		return err
	}

	if err := a.source.Authenticate(ctx); err != nil {
		return err
	}

	records, err := a.pipeline.ScrapeChannel(ctx, a.cfg.Telegram.Channel, a.cfg.Scrape.Limit)
	if err != nil {
		var floodWait *ports.FloodWaitError
		if errors.As(err, &floodWait) {
			a.logger.Error("upstream rate limit hit, aborting run",
				"wait", floodWait.RetryAfter)
		}
		return err
	}

	_, err = a.exporter.ExportRecords(records, a.cfg.Export.Format, a.cfg.Export.ImageBaseURL)
	return err
}

// RunExport performs the offline export path: no authentication, no network,
// only previously persisted folders.
func (a *Application) RunExport(ctx context.Context) error {
	defer a.teardown(ctx)

	_, err := a.exporter.ExportStored(a.cfg.Export.Format, a.cfg.Export.ImageBaseURL)
	return err
}

func (a *Application) teardown(ctx context.Context) {
	if err := a.source.Close(ctx); err != nil {
		a.logger.Warn("session teardown failed", "error", err)
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Warn("closing catalog archive failed", "error", err)
		}
	}
}
