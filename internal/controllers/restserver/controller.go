// Package restserver serves the coordinate and orbital calculations over
// HTTP, with gRPC health checks sharing the same listener.
package restserver

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/chrissnell/celestial/pkg/config"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
)

const shutdownTimeout = 10 * time.Second

// Controller represents the REST server controller
type Controller struct {
	ctx        context.Context
	wg         *sync.WaitGroup
	settings   *config.Settings
	Server     http.Server
	GRPCServer *grpc.Server
	health     *health.Server
	logger     *zap.SugaredLogger
	handlers   *Handlers
	metrics    *Metrics
	limiter    *clientLimiter

	mu       sync.Mutex
	listener net.Listener
}

// NewController creates a new REST server controller. reg receives the
// Prometheus collectors when metrics are enabled; nil means the global
// registry.
func NewController(ctx context.Context, wg *sync.WaitGroup, settings *config.Settings, logger *zap.SugaredLogger, reg prometheus.Registerer) (*Controller, error) {
	ctrl := &Controller{
		ctx:      ctx,
		wg:       wg,
		settings: settings,
		logger:   logger,
		limiter:  newClientLimiter(settings.RateLimitRPS, settings.RateLimitBurst, 0),
	}

	if settings.MetricsEnabled {
		m, err := NewMetrics(reg)
		if err != nil {
			return nil, fmt.Errorf("could not register metrics: %v", err)
		}
		ctrl.metrics = m
	}

	if settings.GRPCHealth {
		ctrl.GRPCServer, ctrl.health = newGRPCServer()
	}

	// Create handlers
	ctrl.handlers = NewHandlers(ctrl)

	ctrl.Server.Addr = settings.ListenAddr()
	ctrl.Server.Handler = ctrl.Handler()
	ctrl.Server.ReadHeaderTimeout = 10 * time.Second

	return ctrl, nil
}

// Handler returns the complete HTTP handler, CORS included
func (c *Controller) Handler() http.Handler {
	return c.corsHandler(c.setupRouter())
}

// StartController binds the listener and starts serving in the background
func (c *Controller) StartController() error {
	c.logger.Info("Starting REST server controller...")

	l, err := net.Listen("tcp", c.Server.Addr)
	if err != nil {
		return fmt.Errorf("REST server could not listen on %s: %v", c.Server.Addr, err)
	}
	c.mu.Lock()
	c.listener = l
	c.mu.Unlock()

	c.logger.Infof("REST server listening on %s", l.Addr())

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()

		if c.GRPCServer != nil {
			c.serveMux(l)
			return
		}
		if err := c.Server.Serve(l); err != nil && !closedErr(err) {
			c.logger.Errorf("REST server error: %v", err)
		}
	}()

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		<-c.ctx.Done()
		c.stop()
	}()

	return nil
}

// Addr returns the bound address once StartController has succeeded
func (c *Controller) Addr() net.Addr {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.listener == nil {
		return nil
	}
	return c.listener.Addr()
}

func (c *Controller) stop() {
	c.logger.Info("Shutting down the REST server...")

	if c.health != nil {
		c.health.Shutdown()
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := c.Server.Shutdown(ctx); err != nil {
		c.logger.Warnf("REST server shutdown: %v", err)
	}

	if c.GRPCServer != nil {
		c.GRPCServer.Stop()
	}

	c.mu.Lock()
	if c.listener != nil {
		c.listener.Close()
	}
	c.mu.Unlock()
}

// setupRouter configures the HTTP router with all endpoints
func (c *Controller) setupRouter() *mux.Router {
	router := mux.NewRouter()

	router.Use(c.requestIDMiddleware)
	router.Use(c.accessLogMiddleware)
	router.Use(c.metrics.Middleware)
	router.Use(c.rateLimitMiddleware)

	router.HandleFunc("/", c.handlers.GetRoot).Methods(http.MethodGet)

	if c.metrics != nil {
		router.Handle("/metrics", c.metrics.Handler()).Methods(http.MethodGet)
	}

	api := router.PathPrefix(c.settings.APIV1Prefix).Subrouter()
	api.HandleFunc("/health", c.handlers.GetHealth).Methods(http.MethodGet)
	api.HandleFunc("/coordinates/transformations", c.handlers.CreateTransformation).Methods(http.MethodPost)
	api.HandleFunc("/orbital/period", c.handlers.GetOrbitalPeriod).Methods(http.MethodGet)
	api.HandleFunc("/orbital/velocity", c.handlers.GetOrbitalVelocity).Methods(http.MethodGet)
	api.HandleFunc("/orbital/energy", c.handlers.GetOrbitalEnergy).Methods(http.MethodGet)
	api.HandleFunc("/orbital/true-anomaly", c.handlers.GetTrueAnomaly).Methods(http.MethodGet)
	api.HandleFunc("/ephemeris/{body}", c.handlers.GetEphemeris).Methods(http.MethodGet)

	// Subrouters answer their own misses; without these a method mismatch
	// under the prefix falls through to the root 404.
	notFound := c.errorHandler(http.StatusNotFound)
	methodNotAllowed := c.errorHandler(http.StatusMethodNotAllowed)
	router.NotFoundHandler = notFound
	router.MethodNotAllowedHandler = methodNotAllowed
	api.NotFoundHandler = notFound
	api.MethodNotAllowedHandler = methodNotAllowed

	return router
}

// errorHandler answers every request with status and its standard text
func (c *Controller) errorHandler(status int) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := c.handlers.formatter.WriteError(w, r, status, http.StatusText(status)); err != nil {
			c.logger.Errorf("error writing error response: %v", err)
		}
	})
}
