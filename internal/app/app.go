package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"SlangHarvester/internal/config"
	"SlangHarvester/internal/domain"
	"SlangHarvester/internal/infrastructure/fetcher"
	"SlangHarvester/internal/infrastructure/parser"
	"SlangHarvester/internal/infrastructure/scheduler"
	"SlangHarvester/internal/infrastructure/storage"
	"SlangHarvester/internal/infrastructure/telegram"
	"SlangHarvester/internal/logging"
	"SlangHarvester/internal/metrics"
	"SlangHarvester/internal/ports"
	"SlangHarvester/internal/usecase"
)

const shutdownTimeout = 10 * time.Second

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg        config.Config
	logger     *slog.Logger
	store      *storage.SQLiteRepository
	scheduler  *usecase.Scheduler
	dictionary *usecase.Dictionary
	metrics    *metrics.Recorder
}

// New opens the definition store and builds every component on top of it.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level, cfg.Logging.Format)
	}

	store, err := storage.Open(ctx, cfg.Database.Path, baseLogger.With("component", "storage"))
	if err != nil {
		return nil, fmt.Errorf("open definition store: %w", err)
	}

	pageFetcher := fetcher.New(nil, cfg.Fetcher.Timeout,
		fetcher.WithUserAgent(cfg.Fetcher.UserAgent),
		fetcher.WithLogger(baseLogger.With("component", "fetcher")),
	)

	source, err := parser.NewTabSource(pageFetcher, cfg.Site, cfg.Fetcher.Concurrency, baseLogger.With("component", "source"))
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("build source: %w", err)
	}

	pipeline := usecase.NewPipeline(usecase.PipelineDeps{
		Source:      source,
		Store:       store,
		Logger:      baseLogger.With("component", "pipeline"),
		Concurrency: cfg.Fetcher.Concurrency,
	})

	recorder := metrics.New()

	var notifier ports.Notifier
	if cfg.Notifications.Telegram.Enabled() {
		notifier = telegram.NewNotifier(cfg.Notifications.Telegram.BotToken, cfg.Notifications.Telegram.ChatID)
	}

	sched := usecase.NewScheduler(usecase.SchedulerDeps{
		Driver:   scheduler.NewIntervalScheduler(cfg.Scheduler.Interval, cfg.Scheduler.ShouldRunOnStart()),
		Pipeline: pipeline,
		Observer: recorder,
		Notifier: notifier,
		Logger:   baseLogger.With("component", "scheduler"),
	})

	return &Application{
		cfg:        cfg,
		logger:     baseLogger,
		store:      store,
		scheduler:  sched,
		dictionary: usecase.NewDictionary(store),
		metrics:    recorder,
	}, nil
}

// Serve runs the recurring harvest (and the metrics listener when configured) until ctx is done.
func (a *Application) Serve(ctx context.Context) error {
	if err := a.scheduler.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	a.logger.Info("harvest scheduled", "interval", a.cfg.Scheduler.Interval, "run_on_start", a.cfg.Scheduler.ShouldRunOnStart())

	var server *http.Server
	serverErr := make(chan error, 1)
	if a.cfg.Metrics.Addr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", a.metrics.Handler())
		server = &http.Server{
			Addr:              a.cfg.Metrics.Addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			a.logger.Info("metrics listener started", "addr", server.Addr)
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				serverErr <- err
			}
		}()
	}

	var runErr error
	select {
	case <-ctx.Done():
	case err := <-serverErr:
		runErr = fmt.Errorf("metrics listener: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := a.scheduler.Stop(shutdownCtx); err != nil {
		a.logger.Warn("stop scheduler", "error", err)
	}
	if server != nil {
		if err := server.Shutdown(shutdownCtx); err != nil {
			a.logger.Warn("stop metrics listener", "error", err)
		}
	}
	return runErr
}

// HarvestOnce runs a single cycle outside the schedule.
func (a *Application) HarvestOnce(ctx context.Context) (domain.CycleReport, error) {
	return a.scheduler.RunOnce(ctx)
}

// Lookup returns every stored definition of word.
func (a *Application) Lookup(ctx context.Context, word string) (domain.DefinitionSet, error) {
	return a.dictionary.Lookup(ctx, word)
}

// Definition returns one definition of word by position together with the set size.
func (a *Application) Definition(ctx context.Context, word string, index int) (domain.DefinitionRecord, int, error) {
	return a.dictionary.At(ctx, word, index)
}

// Dedupe collapses rows sharing a dedup key and reports how many were removed.
func (a *Application) Dedupe(ctx context.Context) (int64, error) {
	return a.dictionary.RemoveDuplicates(ctx)
}

// Close releases the definition store.
func (a *Application) Close() error {
	return a.store.Close()
}
