// Package dispatcher runs queued crawl requests strictly one at a time.
package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/rollcall-crawler/internal/metrics"
	"github.com/JakeFAU/rollcall-crawler/internal/model"
	"github.com/JakeFAU/rollcall-crawler/internal/pipeline"
	"github.com/JakeFAU/rollcall-crawler/internal/queue"
)

const defaultHistory = 256

// Runner executes one crawl of a chamber.
type Runner interface {
	Run(ctx context.Context, chamber model.Chamber) (pipeline.Summary, error)
}

// IDGenerator mints request ids.
type IDGenerator interface {
	NewID() (string, error)
}

// Clock returns the current time.
type Clock interface {
	Now() time.Time
}

// State is the lifecycle position of a crawl request.
type State string

// Request states.
const (
	StateQueued    State = "queued"
	StateRunning   State = "running"
	StateSucceeded State = "succeeded"
	StateFailed    State = "failed"
)

// Status describes one submitted request.
type Status struct {
	ID        string
	Chamber   model.Chamber
	State     State
	Submitted time.Time
	Started   *time.Time
	Finished  *time.Time
	Summary   *pipeline.Summary
	Error     string
}

// Dispatcher owns the single consumer of the crawl queue.
type Dispatcher struct {
	queue  queue.Queue
	runner Runner
	ids    IDGenerator
	clock  Clock
	logger *zap.Logger

	mu       sync.Mutex
	statuses map[string]*Status
	order    []string
	history  int
	pending  int
}

// New creates a Dispatcher.
func New(q queue.Queue, runner Runner, ids IDGenerator, clock Clock, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	metrics.Init()
	return &Dispatcher{
		queue:    q,
		runner:   runner,
		ids:      ids,
		clock:    clock,
		logger:   logger.Named("dispatcher"),
		statuses: make(map[string]*Status),
		history:  defaultHistory,
	}
}

// Submit records and enqueues a crawl of chamber.
func (d *Dispatcher) Submit(ctx context.Context, chamber model.Chamber) (Status, error) {
	id, err := d.ids.NewID()
	if err != nil {
		return Status{}, fmt.Errorf("generate request id: %w", err)
	}
	req := queue.Request{ID: id, Chamber: chamber, Submitted: d.clock.Now()}
	status := &Status{ID: id, Chamber: chamber, State: StateQueued, Submitted: req.Submitted}

	d.mu.Lock()
	d.remember(status)
	d.mu.Unlock()

	if err := d.queue.Enqueue(ctx, req); err != nil {
		d.mu.Lock()
		d.forget(id)
		d.mu.Unlock()
		metrics.ObserveCrawlRequest(string(chamber), "rejected")
		return Status{}, fmt.Errorf("queue enqueue: %w", err)
	}
	d.mu.Lock()
	d.pending++
	metrics.SetQueueDepth(d.pending)
	d.mu.Unlock()
	metrics.ObserveCrawlRequest(string(chamber), "queued")
	d.logger.Info("crawl request queued", zap.String("request_id", id), zap.String("chamber", string(chamber)))
	return *status, nil
}

// Status returns a snapshot of a submitted request.
func (d *Dispatcher) Status(id string) (Status, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	s, ok := d.statuses[id]
	if !ok {
		return Status{}, false
	}
	return *s, true
}

// Run consumes the queue until ctx ends or the queue is closed.
func (d *Dispatcher) Run(ctx context.Context) {
	for {
		req, err := d.queue.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, queue.ErrClosed) {
				return
			}
			d.logger.Error("queue dequeue failed", zap.Error(err))
			continue
		}
		d.process(ctx, req)
	}
}

func (d *Dispatcher) process(ctx context.Context, req queue.Request) {
	logger := d.logger.With(zap.String("request_id", req.ID), zap.String("chamber", string(req.Chamber)))
	started := d.clock.Now()
	d.update(req, func(s *Status) {
		s.State = StateRunning
		s.Started = &started
	})
	d.mu.Lock()
	if d.pending > 0 {
		d.pending--
	}
	metrics.SetQueueDepth(d.pending)
	d.mu.Unlock()
	metrics.IncActiveRuns()
	defer metrics.DecActiveRuns()
	logger.Debug("dequeued crawl request")

	sum, err := d.runner.Run(ctx, req.Chamber)
	finished := d.clock.Now()
	d.update(req, func(s *Status) {
		s.Finished = &finished
		s.Summary = &sum
		if err != nil {
			s.State = StateFailed
			s.Error = err.Error()
			return
		}
		s.State = StateSucceeded
	})
	if err != nil {
		metrics.ObserveCrawlRequest(string(req.Chamber), string(StateFailed))
		logger.Error("crawl request failed", zap.Error(err))
		return
	}
	metrics.ObserveCrawlRequest(string(req.Chamber), string(StateSucceeded))
	logger.Info("crawl request finished", zap.Int("ingested", sum.Ingested), zap.String("last", sum.Last))
}

func (d *Dispatcher) update(req queue.Request, fn func(*Status)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	s, ok := d.statuses[req.ID]
	if !ok {
		s = &Status{ID: req.ID, Chamber: req.Chamber, Submitted: req.Submitted}
		d.remember(s)
	}
	fn(s)
}

// remember stores s, evicting the oldest finished requests beyond the
// history limit. Callers hold mu.
func (d *Dispatcher) remember(s *Status) {
	d.statuses[s.ID] = s
	d.order = append(d.order, s.ID)
	for len(d.order) > d.history {
		oldest := d.statuses[d.order[0]]
		if oldest != nil && (oldest.State == StateQueued || oldest.State == StateRunning) {
			break
		}
		delete(d.statuses, d.order[0])
		d.order = d.order[1:]
	}
}

// forget drops id. Callers hold mu.
func (d *Dispatcher) forget(id string) {
	delete(d.statuses, id)
	for i, v := range d.order {
		if v == id {
			d.order = append(d.order[:i], d.order[i+1:]...)
			return
		}
	}
}
