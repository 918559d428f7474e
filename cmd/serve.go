package cmd

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/JakeFAU/rollcall-crawler/internal/api"
	"github.com/JakeFAU/rollcall-crawler/internal/clock/system"
	"github.com/JakeFAU/rollcall-crawler/internal/dispatcher"
	"github.com/JakeFAU/rollcall-crawler/internal/id/uuid"
	queuememory "github.com/JakeFAU/rollcall-crawler/internal/queue/memory"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the admin API and crawl dispatcher",
		Long: `Starts an HTTP server that accepts crawl requests per chamber and runs
them one at a time from a bounded queue. Resume points, request status and
crawl-run history are readable over the same API; /metrics exposes
Prometheus metrics.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			appInstance, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}
			addr := fmt.Sprintf(":%d", appInstance.Config().Server.Port)
			ln, err := net.Listen("tcp", addr)
			if err != nil {
				return fmt.Errorf("listen %s: %w", addr, err)
			}
			return serve(cmd.Context(), appInstance, ln)
		},
	}
}

// serve runs the API on ln until ctx is canceled, then drains HTTP, stops
// the dispatcher and waits for the in-flight crawl to return.
func serve(ctx context.Context, appInstance App, ln net.Listener) error {
	cfg := appInstance.Config()
	logger := appInstance.Logger()
	ctx, stop := context.WithCancel(ctx)
	defer stop()

	queue := queuememory.NewQueue(cfg.Server.QueueCapacity)
	dispatch := dispatcher.New(queue, appInstance.Runner(), uuid.NewUUIDGenerator(), system.New(), logger.Named("dispatcher"))

	checks := make(map[string]api.Check, len(appInstance.Checks()))
	for name, check := range appInstance.Checks() {
		checks[name] = api.Check(check)
	}
	apiServer := api.NewServer(api.Deps{
		Dispatcher: dispatch,
		Locator:    appInstance.Locator(),
		Runs:       appInstance.Runs(),
		Checks:     checks,
	}, cfg.Server, logger)

	srv := &http.Server{
		Handler:           apiServer.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	dispatched := make(chan struct{})
	go func() {
		defer close(dispatched)
		logger.Info("dispatcher started")
		dispatch.Run(ctx)
	}()

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("http server started", zap.String("addr", ln.Addr().String()))
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", zap.Error(err))
			serveErr <- err
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", zap.Error(err))
	}
	queue.Close()
	<-dispatched
	logger.Info("shutdown complete")

	select {
	case err := <-serveErr:
		return fmt.Errorf("http server: %w", err)
	default:
		return nil
	}
}
