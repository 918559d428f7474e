package crawler

import (
	"context"
	"errors"
	"math/rand/v2"
	"net/http"
	"time"
)

// ExponentialRetryPolicy retries failed fetches with capped, jittered
// exponential backoff.
type ExponentialRetryPolicy struct {
	attempts int
	base     time.Duration
	ceiling  time.Duration
}

const (
	defaultAttempts = 3
	defaultBase     = 250 * time.Millisecond
	defaultCeiling  = 5 * time.Second
)

// NewExponentialRetryPolicy allows three attempts between 250ms and 5s apart.
func NewExponentialRetryPolicy() *ExponentialRetryPolicy {
	return &ExponentialRetryPolicy{attempts: defaultAttempts, base: defaultBase, ceiling: defaultCeiling}
}

// NewRetryPolicy allows maxRetries retries after the first attempt. A
// negative maxRetries or non-positive duration keeps the default.
func NewRetryPolicy(maxRetries int, base, ceiling time.Duration) *ExponentialRetryPolicy {
	p := NewExponentialRetryPolicy()
	if maxRetries >= 0 {
		p.attempts = maxRetries + 1
	}
	if base > 0 {
		p.base = base
	}
	if ceiling > 0 {
		p.ceiling = ceiling
	}
	return p
}

// ShouldRetry reports whether another attempt may follow attempt failed ones.
// Cancellation, parse failures and client errors other than 408 and 429 are
// final.
func (p *ExponentialRetryPolicy) ShouldRetry(err error, attempt int) bool {
	switch {
	case err == nil, attempt >= p.attempts:
		return false
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return false
	case errors.Is(err, ErrParse):
		return false
	}
	var status *StatusError
	if errors.As(err, &status) && status.StatusCode >= 400 && status.StatusCode < 500 {
		return status.StatusCode == http.StatusRequestTimeout || status.StatusCode == http.StatusTooManyRequests
	}
	return true
}

// Backoff returns a wait in [d/2, d) where d doubles from the base delay per
// attempt and is capped at the ceiling.
func (p *ExponentialRetryPolicy) Backoff(attempt int) time.Duration {
	d := p.ceiling
	if attempt < 32 {
		if scaled := p.base << attempt; scaled > 0 && scaled < p.ceiling {
			d = scaled
		}
	}
	half := d / 2
	if half <= 0 {
		return d
	}
	return half + rand.N(half)
}
