package app

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/chrissnell/celestial/internal/controllers/restserver"
	"github.com/chrissnell/celestial/pkg/config"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// App represents the main application
type App struct {
	settings *config.Settings
	logger   *zap.SugaredLogger
	registry prometheus.Registerer
	started  chan *restserver.Controller
}

// New creates a new application instance
func New(settings *config.Settings, logger *zap.SugaredLogger) *App {
	return &App{
		settings: settings,
		logger:   logger,
	}
}

// WithRegistry directs metrics to reg instead of the global registry
func (a *App) WithRegistry(reg prometheus.Registerer) *App {
	a.registry = reg
	return a
}

// Run starts the application and blocks until shutdown
func (a *App) Run(ctx context.Context) error {
	var wg sync.WaitGroup

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	rest, err := restserver.NewController(ctx, &wg, a.settings, a.logger, a.registry)
	if err != nil {
		return err
	}
	if err := rest.StartController(); err != nil {
		return err
	}
	if a.started != nil {
		a.started <- rest
	}

	a.logger.Infow("Application started successfully",
		"app", a.settings.AppName,
		"version", a.settings.AppVersion,
		"addr", rest.Addr().String(),
		"grpc_health", a.settings.GRPCHealth,
		"metrics", a.settings.MetricsEnabled)

	// Set up signal handling
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigs)

	// Wait for shutdown signal
	select {
	case <-sigs:
		a.logger.Info("shutdown signal received, initiating graceful shutdown...")
	case <-ctx.Done():
		a.logger.Info("context cancelled, shutting down...")
	}

	// Cancel context to signal all goroutines to stop
	cancel()

	// Wait for all workers to terminate
	a.logger.Info("waiting for all workers to terminate...")
	wg.Wait()
	a.logger.Info("shutdown complete")

	return nil
}
