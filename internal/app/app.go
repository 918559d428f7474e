// Package app initializes and holds long-lived services, acting as the
// dependency injection container shared by every command.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/JakeFAU/rollcall-crawler/internal/chamber"
	"github.com/JakeFAU/rollcall-crawler/internal/clock/system"
	"github.com/JakeFAU/rollcall-crawler/internal/config"
	"github.com/JakeFAU/rollcall-crawler/internal/crawler"
	collyfetcher "github.com/JakeFAU/rollcall-crawler/internal/fetcher/colly"
	"github.com/JakeFAU/rollcall-crawler/internal/graph"
	graphmemory "github.com/JakeFAU/rollcall-crawler/internal/graph/memory"
	neo4jgraph "github.com/JakeFAU/rollcall-crawler/internal/graph/neo4j"
	"github.com/JakeFAU/rollcall-crawler/internal/hash/sha256"
	"github.com/JakeFAU/rollcall-crawler/internal/id/uuid"
	"github.com/JakeFAU/rollcall-crawler/internal/ingest"
	"github.com/JakeFAU/rollcall-crawler/internal/model"
	"github.com/JakeFAU/rollcall-crawler/internal/pipeline"
	"github.com/JakeFAU/rollcall-crawler/internal/policy/ratelimit"
	"github.com/JakeFAU/rollcall-crawler/internal/progress"
	"github.com/JakeFAU/rollcall-crawler/internal/progress/sinks"
	pubsubpublisher "github.com/JakeFAU/rollcall-crawler/internal/publisher/pubsub"
	"github.com/JakeFAU/rollcall-crawler/internal/resume"
	"github.com/JakeFAU/rollcall-crawler/internal/storage"
	"github.com/JakeFAU/rollcall-crawler/internal/storage/gcs"
	"github.com/JakeFAU/rollcall-crawler/internal/storage/local"
	storagememory "github.com/JakeFAU/rollcall-crawler/internal/storage/memory"
	"github.com/JakeFAU/rollcall-crawler/internal/storage/postgres"
	"github.com/JakeFAU/rollcall-crawler/internal/store"
	"github.com/JakeFAU/rollcall-crawler/internal/telemetry"
)

// Check probes one downstream dependency.
type Check func(ctx context.Context) error

type closer struct {
	name string
	fn   func(ctx context.Context) error
}

// App holds the shared, long-lived services. It is built once per process
// and closed when the command finishes.
type App struct {
	cfg     config.Config
	logger  *zap.Logger
	graph   graph.Store
	runs    store.RunRepository
	hub     *progress.Hub
	archive storage.BlobStore
	locator *resume.Locator
	runner  *pipeline.Runner

	checks  map[string]Check
	closers []closer
}

type options struct {
	registerer prometheus.Registerer
	fetcher    crawler.Fetcher
}

// Option customizes New.
type Option func(*options)

// WithRegisterer registers progress metrics against reg instead of the
// default registry.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(o *options) { o.registerer = reg }
}

// WithFetcher replaces the colly fetcher.
func WithFetcher(f crawler.Fetcher) Option {
	return func(o *options) { o.fetcher = f }
}

// New initializes every service named by cfg. It fails fast: anything
// opened before the failure is closed again.
func New(ctx context.Context, cfg config.Config, logger *zap.Logger, opts ...Option) (_ *App, err error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	o := options{registerer: prometheus.DefaultRegisterer}
	for _, opt := range opts {
		opt(&o)
	}
	a := &App{cfg: cfg, logger: logger, checks: map[string]Check{}}
	defer func() {
		if err != nil {
			err = errors.Join(err, a.Close(context.WithoutCancel(ctx)))
		}
	}()

	logger.Info("initializing application services")
	if err = a.openGraph(ctx); err != nil {
		return nil, err
	}
	if err = a.openRuns(ctx); err != nil {
		return nil, err
	}
	if err = a.openProgress(o.registerer); err != nil {
		return nil, err
	}
	if err = a.openArchive(ctx); err != nil {
		return nil, err
	}
	publisher, err := a.openPublisher(ctx)
	if err != nil {
		return nil, err
	}
	tracer, err := a.openTracing(ctx)
	if err != nil {
		return nil, err
	}

	fetcher := o.fetcher
	if fetcher == nil {
		fetcher = collyfetcher.New(collyfetcher.Config{
			UserAgent:     cfg.Crawler.UserAgent,
			RespectRobots: cfg.Crawler.RespectRobots,
			Timeout:       cfg.HTTP.Timeout(),
		})
	}
	fetcher = ratelimit.NewFetcher(fetcher, ratelimit.New(ratelimit.Config{
		RPS:   cfg.Crawler.MaxRPS,
		Burst: cfg.Crawler.Burst,
	}))
	var senate crawler.Source[model.SenateCoordinate]
	if cfg.Senate.Identity == config.IdentityRoster {
		senate = newRosterSenateSource(fetcher, cfg.Senate, system.New(), logger.Named("roster"))
	} else {
		senate = chamber.NewSenateSource(fetcher, cfg.Senate.BaseURL, nil)
	}

	a.locator = resume.New(a.graph, resume.Defaults{
		HouseYear:      cfg.House.ResumeYear,
		SenateCongress: cfg.Senate.ResumeCongress,
	})
	deps := pipeline.Deps{
		Ingestor: ingest.New(a.graph, logger.Named("ingest")),
		Locator:  a.locator,
		House:    chamber.NewHouseSource(fetcher, cfg.House.BaseURL),
		Senate:   senate,
		Archive:  a.archive,
		Emitter:  a.hub,
		IDs:      uuid.NewUUIDGenerator(),
		Clock:    system.New(),
		Hasher:   sha256.New(),
		Tracer:   tracer,
	}
	if publisher != nil {
		deps.Publisher = publisher
	}
	a.runner, err = pipeline.New(deps, pipeline.Config{
		Delay:         cfg.Crawler.Delay(),
		Retry:         crawler.NewRetryPolicy(cfg.Crawler.MaxRetries, cfg.Crawler.BackoffInitial(), cfg.Crawler.BackoffMax()),
		ArchivePrefix: cfg.Archive.Prefix,
		Topic:         cfg.PubSub.TopicName,

		MaxConsecutiveDrops: cfg.Crawler.MaxConsecutiveDrops,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("build pipeline: %w", err)
	}

	logger.Info("application services initialized")
	return a, nil
}

func (a *App) openGraph(ctx context.Context) error {
	if a.cfg.Graph.URI == "" {
		a.logger.Warn("graph.uri is empty; using the in-memory graph, nothing will persist")
		a.graph = graphmemory.New()
		return nil
	}
	g, err := neo4jgraph.New(ctx, neo4jgraph.Config{
		URI:      a.cfg.Graph.URI,
		Username: a.cfg.Graph.Username,
		Password: a.cfg.Graph.Password,
		Database: a.cfg.Graph.Database,
	}, a.logger.Named("neo4j"))
	if err != nil {
		return fmt.Errorf("open graph: %w", err)
	}
	a.graph = g
	a.closers = append(a.closers, closer{name: "graph", fn: g.Close})
	if err := g.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("ensure graph schema: %w", err)
	}
	a.checks["graph"] = g.Ping
	return nil
}

func (a *App) openRuns(ctx context.Context) error {
	if a.cfg.Progress.DSN == "" {
		a.logger.Info("progress.dsn is empty; crawl runs are kept in memory")
		a.runs = storagememory.NewRunStore()
		return nil
	}
	runs, err := postgres.NewRunStore(ctx, postgres.RunStoreConfig{
		DSN:   a.cfg.Progress.DSN,
		Table: a.cfg.Progress.Table,
	})
	if err != nil {
		return fmt.Errorf("open run store: %w", err)
	}
	a.closers = append(a.closers, closer{name: "runs", fn: func(context.Context) error {
		runs.Close()
		return nil
	}})
	if err := runs.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("ensure run schema: %w", err)
	}
	a.runs = runs
	a.checks["progress"] = runs.Ping
	return nil
}

func (a *App) openProgress(reg prometheus.Registerer) error {
	promSink, err := sinks.NewPrometheusSink(reg)
	if err != nil {
		return fmt.Errorf("progress metrics: %w", err)
	}
	a.hub = progress.NewHub(progress.Config{
		BufferSize:     a.cfg.Progress.BufferSize,
		MaxBatchEvents: a.cfg.Progress.BatchSize,
		MaxBatchWait:   a.cfg.Progress.FlushInterval(),
		Logger:         a.logger.Named("progress"),
	},
		sinks.NewLogSink(a.logger.Named("progress")),
		promSink,
		sinks.NewStoreSink(a.runs, a.logger.Named("progress")),
	)
	a.closers = append(a.closers, closer{name: "progress", fn: a.hub.Close})
	return nil
}

func (a *App) openArchive(ctx context.Context) error {
	switch a.cfg.Archive.Provider {
	case config.ArchiveNone, "":
		return nil
	case config.ArchiveMemory:
		a.archive = storagememory.NewBlobStore()
	case config.ArchiveLocal:
		s, err := local.New(local.Config{BaseDir: a.cfg.Archive.BaseDir})
		if err != nil {
			return fmt.Errorf("open local archive: %w", err)
		}
		a.archive = s
		a.closers = append(a.closers, closer{name: "archive", fn: func(context.Context) error { return s.Close() }})
	case config.ArchiveGCS:
		s, err := gcs.Open(ctx, gcs.Config{Bucket: a.cfg.Archive.GCSBucket})
		if err != nil {
			return fmt.Errorf("open gcs archive: %w", err)
		}
		a.archive = s
		a.closers = append(a.closers, closer{name: "archive", fn: func(context.Context) error { return s.Close() }})
	default:
		return fmt.Errorf("unknown archive provider %q", a.cfg.Archive.Provider)
	}
	a.logger.Info("archiving raw documents", zap.String("provider", a.cfg.Archive.Provider))
	return nil
}

func (a *App) openPublisher(ctx context.Context) (pipeline.Publisher, error) {
	if a.cfg.PubSub.TopicName == "" {
		return nil, nil
	}
	p, err := pubsubpublisher.Open(ctx, a.cfg.PubSub.ProjectID, a.cfg.PubSub.TopicName)
	if err != nil {
		return nil, fmt.Errorf("open pubsub publisher: %w", err)
	}
	a.closers = append(a.closers, closer{name: "publisher", fn: func(context.Context) error { return p.Close() }})
	a.logger.Info("publishing ingest notifications", zap.String("topic", a.cfg.PubSub.TopicName))
	return p, nil
}

func (a *App) openTracing(ctx context.Context) (trace.TracerProvider, error) {
	if !a.cfg.Tracing.Enabled {
		return otel.GetTracerProvider(), nil
	}
	tp, err := telemetry.InitTracerProvider(ctx, a.cfg.Tracing.ServiceName, a.logger.Named("trace"))
	if err != nil {
		return nil, fmt.Errorf("init tracing: %w", err)
	}
	a.closers = append(a.closers, closer{name: "tracing", fn: tp.Shutdown})
	return tp, nil
}

// Logger returns the root logger.
func (a *App) Logger() *zap.Logger { return a.logger }

// Config returns the configuration the app was built from.
func (a *App) Config() config.Config { return a.cfg }

// Runner returns the crawl pipeline.
func (a *App) Runner() *pipeline.Runner { return a.runner }

// Locator returns the resume locator.
func (a *App) Locator() *resume.Locator { return a.locator }

// Runs returns the crawl-run repository.
func (a *App) Runs() store.RunRepository { return a.runs }

// Checks returns readiness probes keyed by dependency name.
func (a *App) Checks() map[string]Check { return a.checks }

// Close shuts services down in reverse order of opening, so the progress hub
// flushes before the run store closes.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		c := a.closers[i]
		if err := c.fn(ctx); err != nil {
			a.logger.Warn("close failed", zap.String("service", c.name), zap.Error(err))
			errs = append(errs, fmt.Errorf("close %s: %w", c.name, err))
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
