// Package memory provides a bounded in-process crawl request queue.
package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/JakeFAU/rollcall-crawler/internal/queue"
)

// ErrFull is returned by TryEnqueue when no capacity is left.
var ErrFull = errors.New("queue full")

// Queue is a bounded in-memory queue with context-aware operations.
type Queue struct {
	ch      chan queue.Request
	closeMu sync.RWMutex
	closed  bool
}

var _ queue.Queue = (*Queue)(nil)

// NewQueue constructs a queue with the provided capacity.
func NewQueue(capacity int) *Queue {
	if capacity < 1 {
		capacity = 1
	}
	return &Queue{ch: make(chan queue.Request, capacity)}
}

// Enqueue pushes a request, waiting for capacity until ctx ends.
func (q *Queue) Enqueue(ctx context.Context, req queue.Request) error {
	q.closeMu.RLock()
	defer q.closeMu.RUnlock()
	if q.closed {
		return queue.ErrClosed
	}
	select {
	case <-ctx.Done():
		return fmt.Errorf("enqueue canceled: %w", ctx.Err())
	case q.ch <- req:
		return nil
	}
}

// TryEnqueue pushes a request without waiting.
func (q *Queue) TryEnqueue(req queue.Request) error {
	q.closeMu.RLock()
	defer q.closeMu.RUnlock()
	if q.closed {
		return queue.ErrClosed
	}
	select {
	case q.ch <- req:
		return nil
	default:
		return ErrFull
	}
}

// Dequeue pops the next request, respecting context cancellation.
func (q *Queue) Dequeue(ctx context.Context) (queue.Request, error) {
	select {
	case <-ctx.Done():
		return queue.Request{}, fmt.Errorf("dequeue canceled: %w", ctx.Err())
	case req, ok := <-q.ch:
		if !ok {
			return queue.Request{}, queue.ErrClosed
		}
		return req, nil
	}
}

// Len reports the number of waiting requests.
func (q *Queue) Len() int { return len(q.ch) }

// Close stops accepting requests. Waiting requests can still be dequeued.
func (q *Queue) Close() {
	q.closeMu.Lock()
	defer q.closeMu.Unlock()
	if q.closed {
		return
	}
	close(q.ch)
	q.closed = true
}
