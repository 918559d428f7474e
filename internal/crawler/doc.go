// Package crawler walks a numbered, unindexed series of vote documents.
//
// A Crawler asks a Source for one coordinate at a time. Every fetch resolves
// to one of three outcomes: the document was found, the publisher reported
// that it does not exist, or the fetch failed. Found documents are parsed and
// yielded; a miss right after a period rollover ends the crawl; any other
// miss rolls over to the next period. Failures are retried with backoff and
// then abort the run.
package crawler
