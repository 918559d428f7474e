package crawler

import (
	"context"
	"time"
)

// sleeper waits between documents and between retries.
type sleeper interface {
	Sleep(ctx context.Context, d time.Duration) error
}

type wallSleeper struct{}

// Sleep returns early with ctx.Err() when ctx ends first.
func (wallSleeper) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
