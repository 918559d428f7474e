package ratelimit

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/rollcall-crawler/internal/crawler"
)

func TestLimiterWaitsPerHost(t *testing.T) {
	t.Parallel()

	l := New(Config{RPS: 10, Burst: 1})
	ctx := context.Background()

	require.NoError(t, l.Wait(ctx, "https://clerk.house.gov/evs/2025/roll001.xml"))
	start := time.Now()
	require.NoError(t, l.Wait(ctx, "https://clerk.house.gov/evs/2025/roll002.xml"))
	require.GreaterOrEqual(t, time.Since(start), 80*time.Millisecond)

	start = time.Now()
	require.NoError(t, l.Wait(ctx, "https://www.senate.gov/legislative/LIS/roll_call_votes/x.xml"))
	require.Less(t, time.Since(start), 50*time.Millisecond, "other hosts have their own bucket")
}

func TestLimiterDisabled(t *testing.T) {
	t.Parallel()

	l := New(Config{})
	ctx := context.Background()
	start := time.Now()
	for range 20 {
		require.NoError(t, l.Wait(ctx, "https://clerk.house.gov/"))
	}
	require.Less(t, time.Since(start), 50*time.Millisecond)
}

func TestLimiterHonorsContext(t *testing.T) {
	t.Parallel()

	l := New(Config{RPS: 0.01, Burst: 1})
	require.NoError(t, l.Wait(context.Background(), "https://clerk.house.gov/"))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	require.ErrorContains(t, l.Wait(ctx, "https://clerk.house.gov/"), "rate limit wait")
}

func TestFetcherDelegates(t *testing.T) {
	t.Parallel()

	next := stubFetcher{status: http.StatusOK}
	f := NewFetcher(next, New(Config{RPS: 100, Burst: 5}))
	resp, err := f.Fetch(context.Background(), "https://clerk.house.gov/evs/2025/roll001.xml")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "https://clerk.house.gov/evs/2025/roll001.xml", resp.URL)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	slow := NewFetcher(next, New(Config{RPS: 0.01, Burst: 1}))
	_, err = slow.Fetch(context.Background(), "https://clerk.house.gov/a")
	require.NoError(t, err)
	_, err = slow.Fetch(ctx, "https://clerk.house.gov/b")
	require.Error(t, err)
}

type stubFetcher struct {
	status int
}

func (s stubFetcher) Fetch(_ context.Context, url string) (crawler.FetchResponse, error) {
	return crawler.FetchResponse{URL: url, StatusCode: s.status}, nil
}
