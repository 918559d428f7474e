// Package queue defines crawl requests and the queue serve mode hands them
// through.
package queue

import (
	"context"
	"errors"
	"time"

	"github.com/JakeFAU/rollcall-crawler/internal/model"
)

// ErrClosed is returned once a queue is closed and drained.
var ErrClosed = errors.New("queue closed")

// Request asks for one crawl of a chamber from its resume point.
type Request struct {
	ID        string
	Chamber   model.Chamber
	Submitted time.Time
}

// Queue moves crawl requests from the API to the dispatcher.
type Queue interface {
	Enqueue(ctx context.Context, req Request) error
	Dequeue(ctx context.Context) (Request, error)
}
