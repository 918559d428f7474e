// Package progress provides the event primitives, non-blocking hub, and emitter
// interfaces that crawl runs use to report their milestones. The hub batches
// events on a background goroutine and fans them out to pluggable sinks such
// as Prometheus metrics or the crawl-run store.
package progress
