package progress

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Config controls buffering and batching for the Hub. Zero values take the
// defaults below.
type Config struct {
	// BufferSize bounds the events waiting for the batching goroutine.
	BufferSize int
	// MaxBatchEvents flushes a batch once it holds this many events.
	MaxBatchEvents int
	// MaxBatchWait flushes a batch this long after its first event.
	MaxBatchWait time.Duration
	// SinkTimeout bounds each sink call during a flush.
	SinkTimeout time.Duration
	Logger      *zap.Logger
}

const (
	defaultBufferSize     = 1024
	defaultMaxBatchEvents = 64
	defaultMaxBatchWait   = 500 * time.Millisecond
	defaultSinkTimeout    = 10 * time.Second
)

// Hub batches crawl-run events and fans each batch out to every sink in
// order. Emit never blocks the crawl; a full buffer drops the event.
type Hub struct {
	cfg    Config
	sinks  []Sink
	events chan Event
	stop   chan struct{}
	done   chan struct{}
	logger *zap.Logger

	dropped   atomic.Int64
	dropWarn  rate.Sometimes
	closed    atomic.Bool
	closeOnce sync.Once
	closeCtx  context.Context
}

// NewHub starts the batching goroutine over sinks.
func NewHub(cfg Config, sinks ...Sink) *Hub {
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = defaultBufferSize
	}
	if cfg.MaxBatchEvents <= 0 {
		cfg.MaxBatchEvents = defaultMaxBatchEvents
	}
	if cfg.MaxBatchWait <= 0 {
		cfg.MaxBatchWait = defaultMaxBatchWait
	}
	if cfg.SinkTimeout <= 0 {
		cfg.SinkTimeout = defaultSinkTimeout
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	h := &Hub{
		cfg:      cfg,
		sinks:    append([]Sink(nil), sinks...),
		events:   make(chan Event, cfg.BufferSize),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
		logger:   cfg.Logger,
		dropWarn: rate.Sometimes{Interval: 5 * time.Second},
	}
	go h.run()
	return h
}

// Emit queues evt. Invalid events and events after Close are discarded.
func (h *Hub) Emit(evt Event) {
	if h == nil || h.closed.Load() {
		return
	}
	if err := evt.Validate(); err != nil {
		h.logger.Debug("discarding invalid progress event", zap.Error(err))
		return
	}
	select {
	case h.events <- evt:
	default:
		total := h.dropped.Add(1)
		h.dropWarn.Do(func() {
			h.logger.Warn("progress buffer full, dropping events",
				zap.Int64("dropped_total", total),
				zap.String("stage", string(evt.Stage)),
			)
		})
	}
}

// Dropped reports how many events were discarded for lack of buffer space.
func (h *Hub) Dropped() int64 {
	if h == nil {
		return 0
	}
	return h.dropped.Load()
}

// Close flushes everything already emitted, closes the sinks and waits for
// the batching goroutine, or for ctx. Later calls only wait.
func (h *Hub) Close(ctx context.Context) error {
	if h == nil {
		return nil
	}
	h.closeOnce.Do(func() {
		h.closed.Store(true)
		h.closeCtx = ctx
		close(h.stop)
	})
	select {
	case <-h.done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("progress hub close: %w", ctx.Err())
	}
}

func (h *Hub) run() {
	defer close(h.done)
	batch := make([]Event, 0, h.cfg.MaxBatchEvents)
	// deadline is armed by the first event of a batch and nil otherwise.
	var deadline <-chan time.Time
	flush := func() {
		if len(batch) > 0 {
			h.deliver(batch)
			batch = batch[:0]
		}
		deadline = nil
	}

	for {
		select {
		case evt := <-h.events:
			batch = append(batch, evt)
			if len(batch) == 1 {
				deadline = time.After(h.cfg.MaxBatchWait)
			}
			if len(batch) >= h.cfg.MaxBatchEvents {
				flush()
			}
		case <-deadline:
			flush()
		case <-h.stop:
			for {
				select {
				case evt := <-h.events:
					batch = append(batch, evt)
					if len(batch) >= h.cfg.MaxBatchEvents {
						flush()
					}
					continue
				default:
				}
				break
			}
			flush()
			h.closeSinks()
			return
		}
	}
}

func (h *Hub) deliver(batch []Event) {
	snapshot := append([]Event(nil), batch...)
	for _, sink := range h.sinks {
		ctx, cancel := context.WithTimeout(context.Background(), h.cfg.SinkTimeout)
		if err := sink.Consume(ctx, snapshot); err != nil {
			h.logger.Warn("progress sink consume failed",
				zap.String("sink", fmt.Sprintf("%T", sink)),
				zap.Int("events", len(snapshot)),
				zap.Error(err),
			)
		}
		cancel()
	}
}

func (h *Hub) closeSinks() {
	ctx := h.closeCtx
	if ctx == nil {
		ctx = context.Background()
	}
	for _, sink := range h.sinks {
		if err := sink.Close(ctx); err != nil {
			h.logger.Warn("progress sink close failed", zap.String("sink", fmt.Sprintf("%T", sink)), zap.Error(err))
		}
	}
}
