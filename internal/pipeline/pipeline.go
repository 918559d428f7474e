// Package pipeline runs one crawl end to end: locate the resume point, walk
// the chamber's documents, write each record to the graph, archive the raw
// bytes and announce what was committed.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/JakeFAU/rollcall-crawler/internal/crawler"
	"github.com/JakeFAU/rollcall-crawler/internal/ingest"
	"github.com/JakeFAU/rollcall-crawler/internal/model"
	"github.com/JakeFAU/rollcall-crawler/internal/progress"
	"github.com/JakeFAU/rollcall-crawler/internal/resume"
	"github.com/JakeFAU/rollcall-crawler/internal/storage"
)

// Clock returns the current time.
type Clock interface {
	Now() time.Time
}

// IDGenerator mints crawl run ids.
type IDGenerator interface {
	NewRawID() (uuid.UUID, error)
}

// Publisher announces committed roll calls.
type Publisher interface {
	Publish(ctx context.Context, topic string, payload any) (string, error)
}

// Hasher digests raw documents.
type Hasher interface {
	Hash(data []byte) (string, error)
}

const tracerName = "github.com/JakeFAU/rollcall-crawler/internal/pipeline"

// ErrNoSource is returned when a chamber has no configured source.
var ErrNoSource = errors.New("no source configured for chamber")

// Config controls crawl pacing and side outputs.
type Config struct {
	// Delay is the pause between found documents.
	Delay time.Duration
	// Retry governs transient fetch failures; nil uses the crawler default.
	Retry crawler.RetryPolicy
	// MaxConsecutiveDrops aborts a run after this many unparseable documents
	// in a row; zero uses the crawler default.
	MaxConsecutiveDrops int
	// ArchivePrefix is prepended to archived document paths.
	ArchivePrefix string
	// Topic names the notification topic passed to the publisher.
	Topic string
}

// Deps are the collaborators a Runner drives. Archive, Publisher, Emitter,
// Hasher and Tracer are optional; a nil Tracer uses the global provider.
type Deps struct {
	Ingestor  *ingest.Ingestor
	Locator   *resume.Locator
	House     crawler.Source[model.HouseCoordinate]
	Senate    crawler.Source[model.SenateCoordinate]
	Archive   storage.BlobStore
	Publisher Publisher
	Emitter   progress.Emitter
	IDs       IDGenerator
	Clock     Clock
	Hasher    Hasher
	Tracer    trace.TracerProvider
}

// Summary reports what one run did.
type Summary struct {
	RunID    uuid.UUID
	Chamber  model.Chamber
	Start    string
	Last     string
	Ingested int
	Dropped  int
	Votes    int
	Skipped  int
}

// Runner executes crawl runs. A Runner is not safe for concurrent runs on the
// same chamber; serve mode serializes them through the dispatcher.
type Runner struct {
	deps   Deps
	cfg    Config
	tracer trace.Tracer
	logger *zap.Logger
}

// New constructs a Runner.
func New(deps Deps, cfg Config, logger *zap.Logger) (*Runner, error) {
	if deps.Ingestor == nil || deps.Locator == nil {
		return nil, errors.New("pipeline requires an ingestor and a resume locator")
	}
	if deps.IDs == nil || deps.Clock == nil {
		return nil, errors.New("pipeline requires an id generator and a clock")
	}
	if deps.Emitter == nil {
		deps.Emitter = progress.NopEmitter{}
	}
	if deps.Tracer == nil {
		deps.Tracer = otel.GetTracerProvider()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		deps:   deps,
		cfg:    cfg,
		tracer: deps.Tracer.Tracer(tracerName),
		logger: logger.Named("pipeline"),
	}, nil
}

// Run crawls a chamber from its resume point.
func (r *Runner) Run(ctx context.Context, chamber model.Chamber) (Summary, error) {
	switch chamber {
	case model.ChamberHouse:
		return r.RunHouse(ctx, nil)
	case model.ChamberSenate:
		return r.RunSenate(ctx, nil)
	default:
		return Summary{}, fmt.Errorf("run %q: unknown chamber", chamber)
	}
}

// RunHouse crawls House roll calls starting at from, or at the resume point
// when from is nil.
func (r *Runner) RunHouse(ctx context.Context, from *model.HouseCoordinate) (Summary, error) {
	if r.deps.House == nil {
		return Summary{Chamber: model.ChamberHouse}, ErrNoSource
	}
	start, err := startAt(ctx, from, r.deps.Locator.House)
	if err != nil {
		return Summary{Chamber: model.ChamberHouse}, err
	}
	return execute(ctx, r, r.deps.House, start)
}

// RunSenate crawls Senate roll calls starting at from, or at the resume
// point when from is nil.
func (r *Runner) RunSenate(ctx context.Context, from *model.SenateCoordinate) (Summary, error) {
	if r.deps.Senate == nil {
		return Summary{Chamber: model.ChamberSenate}, ErrNoSource
	}
	start, err := startAt(ctx, from, r.deps.Locator.Senate)
	if err != nil {
		return Summary{Chamber: model.ChamberSenate}, err
	}
	return execute(ctx, r, r.deps.Senate, start)
}

func startAt[C any](ctx context.Context, from *C, locate func(context.Context) (C, error)) (C, error) {
	if from != nil {
		return *from, nil
	}
	return locate(ctx)
}

func execute[C crawler.Coordinate[C]](ctx context.Context, r *Runner, src crawler.Source[C], start C) (Summary, error) {
	chamber := start.Chamber()
	sum := Summary{Chamber: chamber, Start: start.String()}
	ctx, span := r.tracer.Start(ctx, "crawl.run", trace.WithAttributes(
		attribute.String("rollcall.chamber", string(chamber)),
		attribute.String("rollcall.start", sum.Start),
	))
	defer span.End()

	runID, err := r.deps.IDs.NewRawID()
	if err != nil {
		err = fmt.Errorf("new run id: %w", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return sum, err
	}
	sum.RunID = runID
	span.SetAttributes(attribute.String("rollcall.run_id", runID.String()))
	logger := r.logger.With(zap.Stringer("run_id", runID), zap.String("chamber", string(chamber)))

	began := r.deps.Clock.Now()
	obs := newRunObserver(runID, r.deps.Emitter, r.deps.Clock)
	obs.hasher = r.deps.Hasher
	obs.logger = logger
	obs.emit(progress.Event{Stage: progress.StageRunStart, Chamber: string(chamber), Coordinate: sum.Start})
	logger.Info("crawl run started", zap.String("start", sum.Start))

	if r.deps.Archive != nil {
		src = &archivingSource[C]{Source: src, store: r.deps.Archive, prefix: r.cfg.ArchivePrefix, logger: logger}
	}
	opts := []crawler.Option{
		crawler.WithDelay(r.cfg.Delay),
		crawler.WithMaxConsecutiveDrops(r.cfg.MaxConsecutiveDrops),
		crawler.WithObserver(obs),
		crawler.WithLogger(logger),
	}
	if r.cfg.Retry != nil {
		opts = append(opts, crawler.WithRetryPolicy(r.cfg.Retry))
	}

	runErr := r.consume(ctx, crawler.New(src, opts...).Records(ctx, start), obs, &sum, logger)
	sum.Dropped = obs.dropped

	elapsed := r.deps.Clock.Now().Sub(began)
	if elapsed < 0 {
		elapsed = 0
	}
	done := progress.Event{Chamber: string(chamber), Coordinate: sum.Last, Dur: elapsed}
	span.SetAttributes(
		attribute.Int("rollcall.ingested", sum.Ingested),
		attribute.Int("rollcall.dropped", sum.Dropped),
		attribute.String("rollcall.last", sum.Last),
	)
	if runErr != nil {
		span.RecordError(runErr)
		span.SetStatus(codes.Error, runErr.Error())
		done.Stage = progress.StageRunError
		done.Note = runErr.Error()
		obs.emit(done)
		logger.Error("crawl run failed",
			zap.Int("ingested", sum.Ingested),
			zap.Int("dropped", sum.Dropped),
			zap.Error(runErr),
		)
		return sum, runErr
	}
	done.Stage = progress.StageRunDone
	obs.emit(done)
	logger.Info("crawl run finished",
		zap.String("last", sum.Last),
		zap.Int("ingested", sum.Ingested),
		zap.Int("dropped", sum.Dropped),
		zap.Int("votes", sum.Votes),
		zap.Int("skipped_votes", sum.Skipped),
		zap.Duration("elapsed", elapsed),
	)
	return sum, nil
}

func (r *Runner) consume(
	ctx context.Context,
	records iter.Seq2[model.RollCallRecord, error],
	obs *runObserver,
	sum *Summary,
	logger *zap.Logger,
) error {
	for rec, err := range records {
		if err != nil {
			return err
		}
		res, err := r.ingestRecord(ctx, rec)
		if err != nil {
			return err
		}
		coord := obs.current
		sum.Ingested++
		sum.Votes += res.Votes
		sum.Skipped += res.Skipped
		sum.Last = coord
		obs.emit(progress.Event{
			Stage:      progress.StageRecordIngested,
			Chamber:    string(rec.RollCall.Chamber),
			Coordinate: coord,
			Votes:      int64(res.Votes),
		})
		r.notify(ctx, sum.RunID, rec, res, obs.digest, logger)
	}
	return nil
}

func (r *Runner) ingestRecord(ctx context.Context, rec model.RollCallRecord) (ingest.Result, error) {
	ctx, span := r.tracer.Start(ctx, "ingest.rollcall", trace.WithAttributes(
		attribute.String("rollcall.key", rec.RollCall.Key()),
		attribute.Int("rollcall.votes", len(rec.Votes)),
	))
	defer span.End()
	res, err := r.deps.Ingestor.IngestRollCall(ctx, rec)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return res, err
	}
	span.SetAttributes(attribute.Int("rollcall.skipped_votes", res.Skipped))
	return res, nil
}

func (r *Runner) notify(
	ctx context.Context,
	runID uuid.UUID,
	rec model.RollCallRecord,
	res ingest.Result,
	digest string,
	logger *zap.Logger,
) {
	if r.deps.Publisher == nil {
		return
	}
	n := newNotification(runID, rec.RollCall, res, digest)
	if _, err := r.deps.Publisher.Publish(ctx, r.cfg.Topic, n); err != nil {
		logger.Warn("publish notification failed", zap.String("roll_call", rec.RollCall.Key()), zap.Error(err))
	}
}
