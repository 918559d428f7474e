package cmd

import (
	"context"
	"os/signal"
	"syscall"
)

// signalContext is canceled on SIGINT or SIGTERM. A crawl stops between
// records; everything already written stays and the next run resumes after it.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}
