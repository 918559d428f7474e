// Package cmd defines and implements the CLI commands for the rollcall
// executable.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/JakeFAU/rollcall-crawler/internal/app"
	"github.com/JakeFAU/rollcall-crawler/internal/config"
	"github.com/JakeFAU/rollcall-crawler/internal/logging"
	"github.com/JakeFAU/rollcall-crawler/internal/pipeline"
	"github.com/JakeFAU/rollcall-crawler/internal/resume"
	"github.com/JakeFAU/rollcall-crawler/internal/store"
)

const closeTimeout = 15 * time.Second

// appKeyType is the key for storing the App in the context.
type appKeyType string

const appKey appKeyType = "app"

// App is the slice of the application container commands use.
type App interface {
	Close(ctx context.Context) error
	Logger() *zap.Logger
	Config() config.Config
	Runner() *pipeline.Runner
	Locator() *resume.Locator
	Runs() store.RunRepository
	Checks() map[string]app.Check
}

// newApp is the application factory. It is a variable so tests can build
// the container offline.
var newApp = func(ctx context.Context, cfg config.Config, logger *zap.Logger) (App, error) {
	return app.New(ctx, cfg, logger)
}

// rootState carries the container out of the command tree so it is closed
// even when a subcommand fails; cobra skips post-run hooks after an error.
type rootState struct {
	app App
}

func (s *rootState) close(ctx context.Context) error {
	if s.app == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), closeTimeout)
	defer cancel()
	err := s.app.Close(ctx)
	_ = s.app.Logger().Sync()
	s.app = nil
	return err
}

func newRootCmd(state *rootState) *cobra.Command {
	var cfgFile string
	cmd := &cobra.Command{
		Use:   "rollcall",
		Short: "Crawls congressional roll-call votes into a graph database.",
		Long: `rollcall walks the House Clerk and Senate roll-call archives from the
point the graph last stopped, maps every vote document into canonical
legislators, roll calls and vote edges, and writes them to Neo4j.

Only one crawl per chamber may run at a time. The serve command enforces
this by queueing every request behind a single consumer.`,
		SilenceUsage:  true,
		SilenceErrors: true,

		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}
			logger, err := logging.New(cfg.Logging.Development, cfg.Logging.Level)
			if err != nil {
				return err
			}
			zap.ReplaceGlobals(logger)

			appInstance, err := newApp(cmd.Context(), cfg, logger)
			if err != nil {
				return fmt.Errorf("failed to initialize application services: %w", err)
			}
			state.app = appInstance
			cmd.SetContext(context.WithValue(cmd.Context(), appKey, appInstance))
			return nil
		},
	}

	cmd.CompletionOptions.DisableDefaultCmd = true
	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (YAML, TOML or JSON); ROLLCALL_* env vars override it")

	cmd.AddCommand(
		newHouseCmd(),
		newSenateCmd(),
		newBioguideCmd(),
		newResumeCmd(),
		newServeCmd(),
	)
	return cmd
}

func resolveApp(ctx context.Context) (App, error) {
	appInstance, ok := ctx.Value(appKey).(App)
	if !ok || appInstance == nil {
		return nil, errors.New("application services not initialized")
	}
	return appInstance, nil
}

// run executes one command line and shuts the container down afterwards.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	state := &rootState{}
	cmd := newRootCmd(state)
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	err := cmd.ExecuteContext(ctx)
	return errors.Join(err, state.close(ctx))
}

// Execute is the main entry point.
func Execute() {
	ctx, stop := signalContext()
	defer stop()
	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		zap.L().Error("command execution failed", zap.Error(err))
		fmt.Fprintln(os.Stderr, "error:", err)
		stop()
		os.Exit(1)
	}
}
