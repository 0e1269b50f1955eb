package serve

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/mendio-dev/mendio/internal/api"
	"github.com/mendio-dev/mendio/internal/artifacts"
	"github.com/mendio-dev/mendio/internal/core"
	"github.com/mendio-dev/mendio/internal/queue"
	"github.com/mendio-dev/mendio/internal/rulepack"
	"github.com/mendio-dev/mendio/pkg/shared/config"
	"github.com/mendio-dev/mendio/pkg/shared/logger"
)

const shutdownGrace = 10 * time.Second

// RunOptionsServe holds the arguments for the serve command.
type RunOptionsServe struct {
	Addr    string
	Workers int
}

// Global variables for configuration and command arguments
var (
	AppConfig         *config.Config
	serveOptions      RunOptionsServe
	exampleServeUsage = `  # Serving the API on the configured address
  mendio serve

  # Serving on an explicit address with a bigger worker pool
  mendio serve --addr :9090 --workers 8`
)

// ServeCmd represents the serve command.
var ServeCmd = &cobra.Command{
	Use:                   "serve [--addr ADDRESS] [--workers N]",
	SilenceUsage:          true,
	DisableFlagsInUseLine: true,
	Example:               exampleServeUsage,
	Short:                 "Run the HTTP API with the in-process analysis worker pool",
	RunE:                  runServeCommand,
}

// Init initializes the global configuration variable.
func Init(cfg *config.Config) {
	AppConfig = cfg
}

// runServeCommand executes the serve command.
func runServeCommand(cmd *cobra.Command, args []string) error {
	logger := logger.NewLogger(AppConfig, "core-serve")

	if err := validateServeArgs(&serveOptions, args); err != nil {
		logger.Error("invalid serve arguments", "error", err)
		return err
	}

	// Flags override the configured server settings for this run only.
	cfg := *AppConfig
	if serveOptions.Addr != "" {
		cfg.Server.Addr = serveOptions.Addr
	}
	if serveOptions.Workers > 0 {
		cfg.Queue.Workers = serveOptions.Workers
	}

	extra, err := rulepack.Load(&cfg, "core-serve")
	if err != nil {
		logger.Error("failed to load rulepacks", "error", err)
		return err
	}

	facade := core.New(&cfg, logger, extra...)
	store := queue.NewMemoryStore()
	jobs := queue.NewService(store, logger, cfg.Queue.JobTTL)
	pool := queue.NewPool(store, facade, logger, cfg.Queue.Workers)
	if artifactStore := artifacts.NewStore(&cfg, logger); artifactStore.UploadEnabled() {
		pool.SetUploader(artifactStore)
	}
	server := api.NewServer(&cfg, logger, facade, jobs)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	jobs.StartSweeper(ctx, cfg.Queue.SweepInterval)
	pool.Start(ctx)

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.Start()
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			logger.Error("api server failed", "error", err)
			stop()
			pool.Wait()
			return err
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("api server shutdown failed", "error", err)
	}
	pool.Wait()

	logger.Info("serve command completed successfully")
	return nil
}

// validateServeArgs validates the arguments provided to the serve command.
func validateServeArgs(options *RunOptionsServe, args []string) error {
	if len(args) > 0 {
		return fmt.Errorf("the serve command takes no positional arguments")
	}
	if options.Workers < 0 {
		return fmt.Errorf("workers must be a positive integer, got %d", options.Workers)
	}
	return nil
}

// Initialize flags for the serve command.
func init() {
	ServeCmd.Flags().StringVar(&serveOptions.Addr, "addr", "", "Listen address, host:port. Defaults to the configured server address.")
	ServeCmd.Flags().IntVar(&serveOptions.Workers, "workers", 0, "Number of queue workers. Defaults to the configured pool size.")
	ServeCmd.Flags().BoolP("help", "h", false, "Show help for the serve command.")
}
