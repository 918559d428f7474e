// Package collyfetcher implements crawler.Fetcher on a gocolly collector.
package collyfetcher

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gocolly/colly/v2"

	"github.com/JakeFAU/rollcall-crawler/internal/crawler"
)

const (
	defaultTimeout     = 15 * time.Second
	defaultMaxBodySize = 32 << 20
)

// Config controls the collector.
type Config struct {
	UserAgent     string
	RespectRobots bool
	Timeout       time.Duration
	// MaxBodySize caps a response body in bytes. Zero means 32 MiB.
	MaxBodySize int
	Headers     http.Header
}

// Fetcher issues one GET per call through a clone of a shared collector, so
// connections are pooled across calls.
type Fetcher struct {
	headers   http.Header
	collector *colly.Collector
}

// New builds a Fetcher.
func New(cfg Config) *Fetcher {
	c := colly.NewCollector()
	if cfg.UserAgent != "" {
		c.UserAgent = cfg.UserAgent
	}
	c.IgnoreRobotsTxt = !cfg.RespectRobots
	// the same document is refetched on retry
	c.AllowURLRevisit = true
	// a 404 is the end-of-series signal, so error statuses must reach OnResponse
	c.ParseHTTPErrorResponse = true
	c.MaxBodySize = cfg.MaxBodySize
	if c.MaxBodySize <= 0 {
		c.MaxBodySize = defaultMaxBodySize
	}
	c.WithTransport(newTransport())
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	c.SetRequestTimeout(timeout)

	return &Fetcher{headers: cfg.Headers.Clone(), collector: c}
}

type visit struct {
	resp crawler.FetchResponse
	err  error
}

// Fetch GETs url. Every HTTP status is returned as a response; only transport
// failures and cancellation are errors.
func (f *Fetcher) Fetch(ctx context.Context, url string) (crawler.FetchResponse, error) {
	c := f.collector.Clone()
	c.Context = ctx
	start := time.Now()

	done := make(chan visit, 1)
	go func() {
		var v visit
		c.OnResponse(func(r *colly.Response) {
			v.resp = toFetchResponse(r, time.Since(start))
		})
		c.OnError(func(_ *colly.Response, err error) {
			v.err = err
		})
		if err := c.Request(http.MethodGet, url, nil, nil, f.headers.Clone()); err != nil && v.err == nil {
			v.err = err
		}
		done <- v
	}()

	select {
	case <-ctx.Done():
		return crawler.FetchResponse{}, fmt.Errorf("fetch %s: %w", url, ctx.Err())
	case v := <-done:
		if v.err != nil {
			return crawler.FetchResponse{}, fmt.Errorf("fetch %s: %w", url, v.err)
		}
		if v.resp.URL == "" {
			v.resp.URL = url
		}
		return v.resp, nil
	}
}

func toFetchResponse(r *colly.Response, elapsed time.Duration) crawler.FetchResponse {
	resp := crawler.FetchResponse{
		StatusCode: r.StatusCode,
		Body:       append([]byte(nil), r.Body...),
		Duration:   elapsed,
	}
	if r.Request != nil && r.Request.URL != nil {
		resp.URL = r.Request.URL.String()
	}
	if r.Headers != nil {
		resp.Headers = r.Headers.Clone()
	}
	return resp
}

func newTransport() *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 30 * time.Second,
		MaxIdleConnsPerHost:   4,
		IdleConnTimeout:       90 * time.Second,
	}
}
