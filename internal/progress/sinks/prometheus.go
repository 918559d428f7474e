package sinks

import (
	"context"
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/JakeFAU/rollcall-crawler/internal/progress"
)

// PrometheusSink exports crawl progress metrics via Prometheus. It owns all
// collectors for runs, per-chamber fetches and record outcomes.
type PrometheusSink struct {
	runsStarted   *prometheus.CounterVec
	runsCompleted *prometheus.CounterVec
	runsActive    *prometheus.GaugeVec
	runDuration   *prometheus.HistogramVec

	fetches       *prometheus.CounterVec
	fetchBytes    *prometheus.CounterVec
	fetchDuration *prometheus.HistogramVec

	recordsIngested *prometheus.CounterVec
	recordsDropped  *prometheus.CounterVec
	votesIngested   *prometheus.CounterVec
	rollovers       *prometheus.CounterVec

	tracker *runTracker
}

// NewPrometheusSink registers the collectors against the provided registry.
func NewPrometheusSink(reg prometheus.Registerer) (*PrometheusSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	s := &PrometheusSink{
		runsStarted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rollcall_runs_started_total",
			Help: "Crawl runs started per chamber.",
		}, []string{"chamber"}),
		runsCompleted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rollcall_runs_completed_total",
			Help: "Crawl runs completed partitioned by chamber and result.",
		}, []string{"chamber", "result"}),
		runsActive: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "rollcall_runs_active",
			Help: "Crawl runs currently in progress.",
		}, []string{"chamber"}),
		runDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "rollcall_run_duration_seconds",
			Help:    "Wall time per completed run.",
			Buckets: []float64{1, 10, 60, 300, 900, 1800, 3600, 7200, 14400},
		}, []string{"chamber", "result"}),
		fetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rollcall_fetches_total",
			Help: "Documents fetched partitioned by chamber and status class.",
		}, []string{"chamber", "status_class"}),
		fetchBytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rollcall_fetch_bytes_total",
			Help: "Bytes downloaded per chamber.",
		}, []string{"chamber"}),
		fetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "rollcall_fetch_duration_seconds",
			Help:    "Document fetch latency per chamber.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		}, []string{"chamber"}),
		recordsIngested: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rollcall_records_ingested_total",
			Help: "Roll call records written to the graph.",
		}, []string{"chamber"}),
		recordsDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rollcall_records_dropped_total",
			Help: "Documents skipped because they could not be parsed.",
		}, []string{"chamber"}),
		votesIngested: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rollcall_votes_ingested_total",
			Help: "Vote edges written to the graph.",
		}, []string{"chamber"}),
		rollovers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rollcall_rollovers_total",
			Help: "Period rollovers performed by the crawler.",
		}, []string{"chamber"}),
		tracker: newRunTracker(),
	}
	for _, collector := range []prometheus.Collector{
		s.runsStarted,
		s.runsCompleted,
		s.runsActive,
		s.runDuration,
		s.fetches,
		s.fetchBytes,
		s.fetchDuration,
		s.recordsIngested,
		s.recordsDropped,
		s.votesIngested,
		s.rollovers,
	} {
		if err := reg.Register(collector); err != nil {
			return nil, fmt.Errorf("register progress collector: %w", err)
		}
	}
	return s, nil
}

// Consume updates the Prometheus collectors using the provided batch. It is
// safe for concurrent use by multiple goroutines.
func (s *PrometheusSink) Consume(_ context.Context, batch []progress.Event) error {
	for _, evt := range batch {
		s.consumeEvent(evt)
	}
	return nil
}

func (s *PrometheusSink) consumeEvent(evt progress.Event) {
	chamber := evt.Chamber
	if chamber == "" {
		chamber = "unknown"
	}
	switch evt.Stage {
	case progress.StageRunStart:
		s.runsStarted.WithLabelValues(chamber).Inc()
		if s.tracker.start(evt.RunID) {
			s.runsActive.WithLabelValues(chamber).Inc()
		}
	case progress.StageRunDone:
		s.completeRun(evt, chamber, "success")
	case progress.StageRunError:
		s.completeRun(evt, chamber, "error")
	case progress.StageFetchDone:
		statusClass := string(evt.StatusClass)
		if statusClass == "" {
			statusClass = string(progress.StatusOther)
		}
		s.fetches.WithLabelValues(chamber, statusClass).Inc()
		if evt.Bytes > 0 {
			s.fetchBytes.WithLabelValues(chamber).Add(float64(evt.Bytes))
		}
		if evt.Dur > 0 {
			s.fetchDuration.WithLabelValues(chamber).Observe(evt.Dur.Seconds())
		}
	case progress.StageRecordIngested:
		s.recordsIngested.WithLabelValues(chamber).Inc()
		if evt.Votes > 0 {
			s.votesIngested.WithLabelValues(chamber).Add(float64(evt.Votes))
		}
	case progress.StageRecordDropped:
		s.recordsDropped.WithLabelValues(chamber).Inc()
	case progress.StageRollover:
		s.rollovers.WithLabelValues(chamber).Inc()
	}
}

func (s *PrometheusSink) completeRun(evt progress.Event, chamber, result string) {
	s.runsCompleted.WithLabelValues(chamber, result).Inc()
	if evt.Dur > 0 {
		s.runDuration.WithLabelValues(chamber, result).Observe(evt.Dur.Seconds())
	}
	if s.tracker.complete(evt.RunID) {
		s.runsActive.WithLabelValues(chamber).Dec()
	}
}

// Close implements the Sink interface; it performs no action.
func (s *PrometheusSink) Close(context.Context) error {
	return nil
}

type runTracker struct {
	mu      sync.Mutex
	running map[[16]byte]struct{}
}

func newRunTracker() *runTracker {
	return &runTracker{running: make(map[[16]byte]struct{})}
}

func (t *runTracker) start(id [16]byte) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.running[id]; ok {
		return false
	}
	t.running[id] = struct{}{}
	return true
}

func (t *runTracker) complete(id [16]byte) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.running[id]; !ok {
		return false
	}
	delete(t.running, id)
	return true
}
