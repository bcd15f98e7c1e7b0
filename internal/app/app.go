package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"ArticleSignals/internal/config"
	"ArticleSignals/internal/domain"
	"ArticleSignals/internal/infrastructure/parser"
	"ArticleSignals/internal/infrastructure/scheduler"
	"ArticleSignals/internal/infrastructure/storage"
	"ArticleSignals/internal/infrastructure/telegram"
	"ArticleSignals/internal/intake"
	"ArticleSignals/internal/logging"
	"ArticleSignals/internal/metrics"
	"ArticleSignals/internal/normalize"
	"ArticleSignals/internal/ports"
	"ArticleSignals/internal/promote"
	"ArticleSignals/internal/scanner"
	"ArticleSignals/internal/usecase"
)

// Store is every persistence port a driver must provide.
type Store interface {
	ports.CorpusRepository
	ports.LiveStore
	ports.ArtifactStore
}

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg        config.Config
	logger     *slog.Logger
	store      Store
	closeStore func() error
	engine     *usecase.Engine
	pipeline   *usecase.Pipeline
	metrics    *metrics.Recorder
}

// New opens the configured store and builds the pipelines.
func New(cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level, cfg.Logging.Format)
	}

	store, closeStore, err := OpenStore(cfg.Storage)
	if err != nil {
		return nil, err
	}

	registry := scanner.NewRegistry(
		parser.NewRSSScanner(nil),
		parser.NewHTMLScanner(nil),
	)
	source := parser.NewStrategySource(registry, Feeds(cfg.Feeds), parser.SourceOptions{
		PerFeed:     cfg.Intake.MaxPerFeed,
		Concurrency: cfg.Intake.FetchConcurrency,
		Timeout:     cfg.Intake.FetchTimeout,
	}, baseLogger.With("component", "source"))

	var notifier ports.Notifier
	if tg := cfg.Notifications.Telegram; tg.Enabled() {
		notifier = telegram.NewNotifier(tg.BotToken, tg.ChatID, tg.BaseURL)
	}

	recorder := metrics.New()
	engine := usecase.NewEngine(cfg, baseLogger.With("component", "engine"))

	pipeline := usecase.NewPipeline(usecase.PipelineDeps{
		Corpus:    store,
		Live:      store,
		Artifacts: store,
		Source:    source,
		Notifier:  notifier,
		Metrics:   recorder,
		Engine:    engine,
		Intake:    intake.New(cfg.Intake, baseLogger.With("component", "intake")),
		Promoter:  promote.New(cfg.Promotion, baseLogger.With("component", "promote")),
		Logger:    baseLogger.With("component", "pipeline"),
	})

	return &Application{
		cfg:        cfg,
		logger:     baseLogger,
		store:      store,
		closeStore: closeStore,
		engine:     engine,
		pipeline:   pipeline,
		metrics:    recorder,
	}, nil
}

// OpenStore selects the persistence driver.
func OpenStore(cfg config.StorageConfig) (Store, func() error, error) {
	switch cfg.Driver {
	case config.DriverJSON, "":
		return storage.NewFileStore(cfg.CorpusPath(), cfg.SignalsPath()), func() error { return nil }, nil
	case config.DriverSQLite:
		if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
			return nil, nil, fmt.Errorf("create data dir: %w", err)
		}
		db, err := storage.OpenSQLite(cfg.SQLitePath())
		if err != nil {
			return nil, nil, err
		}
		return db, db.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

// Feeds maps configured feeds onto domain feeds; rss is the default scanner.
func Feeds(cfgs []config.FeedConfig) []domain.Feed {
	feeds := make([]domain.Feed, 0, len(cfgs))
	for _, f := range cfgs {
		name := f.Name
		if name == "" {
			name = f.URL
		}
		kind := f.Scanner
		if kind == "" {
			kind = "rss"
		}
		feeds = append(feeds, domain.Feed{
			Name:    name,
			URL:     f.URL,
			Weight:  f.Weight,
			Scanner: kind,
			Options: f.Options,
		})
	}
	return feeds
}

// Now is the wall clock in the scheduler timezone.
func (a *Application) Now() time.Time {
	return time.Now().In(a.cfg.Scheduler.Location())
}

// Config returns the loaded configuration.
func (a *Application) Config() config.Config {
	return a.cfg
}

// Engine exposes the pure corpus function.
func (a *Application) Engine() *usecase.Engine {
	return a.engine
}

// RunCorpus executes one corpus pipeline run.
func (a *Application) RunCorpus(ctx context.Context) (usecase.CorpusRun, error) {
	return a.pipeline.RunCorpus(ctx, a.Now())
}

// RunIntake executes one live intake run.
func (a *Application) RunIntake(ctx context.Context) (usecase.IntakeRun, error) {
	return a.pipeline.RunIntake(ctx, a.Now())
}

// RunAll executes intake followed by the corpus pipeline.
func (a *Application) RunAll(ctx context.Context) error {
	return a.pipeline.RunAll(ctx, a.Now())
}

// Import normalizes raw records and replaces the stored corpus with them.
func (a *Application) Import(ctx context.Context, raw []domain.RawRecord) (domain.NormalizationReport, error) {
	corpus, report := normalize.New(a.cfg.Normalizer, a.logger.With("component", "import")).Normalize(raw, a.Now())
	if err := a.store.SaveCorpus(ctx, corpus); err != nil {
		return report, fmt.Errorf("save imported corpus: %w", err)
	}
	if err := a.store.WriteArtifact(ctx, "normalization_report", report); err != nil {
		return report, fmt.Errorf("write normalization report: %w", err)
	}
	return report, nil
}

// Serve runs RunAll on the configured interval and exposes metrics on addr
// until ctx is done. An empty addr disables the metrics endpoint.
func (a *Application) Serve(ctx context.Context, addr string) error {
	driver := scheduler.NewIntervalScheduler(a.cfg.Scheduler.Interval, a.cfg.Scheduler.Location())
	sched := usecase.NewScheduler(driver, a.pipeline, a.logger.With("component", "scheduler"))

	var srv *http.Server
	serveErr := make(chan error, 1)
	if addr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", a.metrics.Handler())
		srv = &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				serveErr <- err
			}
		}()
		a.logger.Info("metrics endpoint listening", "addr", addr)
	}

	if err := sched.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	a.logger.Info("scheduler started", "interval", a.cfg.Scheduler.Interval)

	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-serveErr:
		runErr = fmt.Errorf("metrics endpoint: %w", runErr)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := sched.Stop(shutdownCtx); err != nil {
		runErr = errors.Join(runErr, fmt.Errorf("stop scheduler: %w", err))
	}
	runs, failures := sched.Stats()
	a.logger.Info("scheduler stopped", "runs", runs, "failures", failures)
	if srv != nil {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			runErr = errors.Join(runErr, fmt.Errorf("shutdown metrics endpoint: %w", err))
		}
	}
	return runErr
}

// Metrics exposes the prometheus recorder.
func (a *Application) Metrics() *metrics.Recorder {
	return a.metrics
}

// Close releases the store.
func (a *Application) Close() error {
	if a.closeStore == nil {
		return nil
	}
	return a.closeStore()
}
