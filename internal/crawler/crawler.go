package crawler

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/rollcall-crawler/internal/model"
)

// DefaultDelay is the politeness delay between consecutive found documents.
const DefaultDelay = 400 * time.Millisecond

// DefaultMaxConsecutiveDrops bounds a run of unparseable documents.
const DefaultMaxConsecutiveDrops = 10

type settings struct {
	delay    time.Duration
	maxDrops int
	retry    RetryPolicy
	sleeper  sleeper
	observer Observer
	logger   *zap.Logger
}

// Option customizes a Crawler.
type Option func(*settings)

// WithDelay overrides the politeness delay.
func WithDelay(d time.Duration) Option {
	return func(s *settings) { s.delay = d }
}

// WithMaxConsecutiveDrops aborts a crawl after n unparseable documents in a
// row. Non-positive n keeps the default.
func WithMaxConsecutiveDrops(n int) Option {
	return func(s *settings) {
		if n > 0 {
			s.maxDrops = n
		}
	}
}

// WithRetryPolicy overrides the fetch retry policy.
func WithRetryPolicy(p RetryPolicy) Option {
	return func(s *settings) {
		if p != nil {
			s.retry = p
		}
	}
}

// WithObserver registers crawl milestone callbacks.
func WithObserver(o Observer) Option {
	return func(s *settings) {
		if o != nil {
			s.observer = o
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *settings) {
		if l != nil {
			s.logger = l
		}
	}
}

// Crawler walks the coordinates of one source.
type Crawler[C Coordinate[C]] struct {
	source Source[C]
	settings
}

// New builds a Crawler over source.
func New[C Coordinate[C]](source Source[C], opts ...Option) *Crawler[C] {
	s := settings{
		delay:    DefaultDelay,
		maxDrops: DefaultMaxConsecutiveDrops,
		retry:    NewExponentialRetryPolicy(),
		sleeper:  wallSleeper{},
		observer: NopObserver{},
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(&s)
	}
	return &Crawler[C]{source: source, settings: s}
}

// Records lazily yields the canonical record of every document from start
// onward. The sequence ends when the first coordinate of a period is missing,
// when a fetch keeps failing after retries (yielding the error), or when ctx
// is canceled (yielding ctx.Err()).
func (c *Crawler[C]) Records(ctx context.Context, start C) iter.Seq2[model.RollCallRecord, error] {
	return func(yield func(model.RollCallRecord, error) bool) {
		chamber := start.Chamber()
		logger := c.logger.With(zap.String("chamber", string(chamber)))
		current := start
		firstInPeriod := start.First()
		emitted := 0
		drops := 0

		for {
			if err := ctx.Err(); err != nil {
				yield(model.RollCallRecord{}, err)
				return
			}

			outcome := c.fetch(ctx, current, logger)
			switch outcome.Kind {
			case Found:
				c.observer.DocumentFetched(ctx, chamber, current.String(), outcome.Document)
				record, err := c.source.Parse(ctx, current, outcome.Document)
				switch {
				case errors.Is(err, ErrParse):
					logger.Error("dropping unparseable record",
						zap.String("coordinate", current.String()),
						zap.String("url", outcome.Document.URL),
						zap.Error(err),
					)
					c.observer.RecordDropped(ctx, chamber, current.String(), err)
					if drops++; drops >= c.maxDrops {
						logger.Error("aborting crawl", zap.String("coordinate", current.String()), zap.Int("drops", drops))
						yield(model.RollCallRecord{}, fmt.Errorf("%w: %d in a row ending at %s", ErrDropStreak, drops, current))
						return
					}
				case err != nil:
					yield(model.RollCallRecord{}, fmt.Errorf("parse %s: %w", current, err))
					return
				default:
					if !yield(record, nil) {
						return
					}
					emitted++
					drops = 0
				}
				firstInPeriod = false
				current = current.Next()
				if err := c.sleeper.Sleep(ctx, c.delay); err != nil {
					yield(model.RollCallRecord{}, err)
					return
				}

			case NotFound:
				if firstInPeriod {
					logger.Info("reached end of published votes",
						zap.String("coordinate", current.String()),
						zap.Int("emitted", emitted),
					)
					c.observer.FrontierReached(ctx, chamber, current.String())
					return
				}
				next := current.Rollover()
				logger.Info("period exhausted, rolling over",
					zap.String("from", current.String()),
					zap.String("to", next.String()),
				)
				c.observer.RolledOver(ctx, chamber, current.String(), next.String())
				current = next
				firstInPeriod = true

			default:
				err := outcome.Err
				if err == nil {
					err = ErrFetch
				}
				logger.Error("aborting crawl", zap.String("coordinate", current.String()), zap.Error(err))
				yield(model.RollCallRecord{}, err)
				return
			}
		}
	}
}

func (c *Crawler[C]) fetch(ctx context.Context, coord C, logger *zap.Logger) Outcome {
	for attempt := 1; ; attempt++ {
		outcome := c.source.Fetch(ctx, coord)
		if outcome.Kind != Failed {
			return outcome
		}
		if !c.retry.ShouldRetry(outcome.Err, attempt) {
			return FailedOutcome(fmt.Errorf("fetch %s after %d attempt(s): %w", coord, attempt, outcome.Err))
		}
		wait := c.retry.Backoff(attempt - 1)
		logger.Warn("fetch failed, retrying",
			zap.String("coordinate", coord.String()),
			zap.Int("attempt", attempt),
			zap.Duration("backoff", wait),
			zap.Error(outcome.Err),
		)
		if err := c.sleeper.Sleep(ctx, wait); err != nil {
			return FailedOutcome(err)
		}
	}
}
