package crawler

import (
	"context"
	"fmt"
	"time"

	"github.com/JakeFAU/rollcall-crawler/internal/model"
)

// Coordinate is a position in a document series.
type Coordinate[C any] interface {
	comparable
	fmt.Stringer
	Next() C
	Rollover() C
	First() bool
	Chamber() model.Chamber
}

// Source fetches and parses the documents addressed by one coordinate type.
type Source[C Coordinate[C]] interface {
	Fetch(ctx context.Context, coord C) Outcome
	// Parse maps a found document into a canonical record. Malformed documents
	// return an error matching ErrParse.
	Parse(ctx context.Context, coord C, doc Document) (model.RollCallRecord, error)
}

// Fetcher performs a single HTTP GET. Non-2xx statuses are returned as
// responses, not errors.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (FetchResponse, error)
}

// RetryPolicy decides whether and when a failed fetch is retried.
type RetryPolicy interface {
	ShouldRetry(err error, attempt int) bool
	Backoff(attempt int) time.Duration
}

// Observer is told about crawl milestones. Implementations must not block.
type Observer interface {
	DocumentFetched(ctx context.Context, chamber model.Chamber, coord string, doc Document)
	RecordDropped(ctx context.Context, chamber model.Chamber, coord string, err error)
	RolledOver(ctx context.Context, chamber model.Chamber, from, to string)
	FrontierReached(ctx context.Context, chamber model.Chamber, coord string)
}

// NopObserver ignores every event.
type NopObserver struct{}

// DocumentFetched implements Observer.
func (NopObserver) DocumentFetched(context.Context, model.Chamber, string, Document) {}

// RecordDropped implements Observer.
func (NopObserver) RecordDropped(context.Context, model.Chamber, string, error) {}

// RolledOver implements Observer.
func (NopObserver) RolledOver(context.Context, model.Chamber, string, string) {}

// FrontierReached implements Observer.
func (NopObserver) FrontierReached(context.Context, model.Chamber, string) {}
