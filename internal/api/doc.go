// Package api hosts the serve-mode admin HTTP server. Routes:
//   - GET /healthz and /readyz for probes.
//   - GET /metrics for Prometheus scraping.
//   - GET /v1/chambers/{chamber}/resume reports where the next crawl starts.
//   - POST /v1/chambers/{chamber}/crawls queues a crawl; GET
//     /v1/crawls/{request_id} reports on it.
//   - GET /v1/runs and /v1/runs/{run_id} read crawl-run bookkeeping through
//     store.RunRepository.
package api
