package bridge

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"driver-portal/internal/cli"
	"driver-portal/internal/general/config"
	"driver-portal/internal/general/logger"
	"driver-portal/internal/general/metrics"
	"driver-portal/internal/general/rabbitmq"
	"driver-portal/internal/general/websocket"
	"driver-portal/internal/ports"
	"driver-portal/internal/software/portal/handler"
)

// Run serves the WebSocket bridge and blocks until ctx is cancelled. Every
// connection gets its own portal, event loop and device-scoped session store.
func Run(ctx context.Context, configPath string, maxConcurrent int) error {
	// set up a new logger with a static request ID for startup logs
	logger := logger.New("portal-bridge")
	ctx = logger.WithRequestID(ctx, "startup-001")

	// load a config from file
	cfg, err := config.LoadFromFile(configPath)
	if err != nil {
		logger.Error(ctx, "config_load_failed", "Failed to load configuration", err, nil)
		return err
	}
	logger.SetLevel(cfg.Log.Level)

	// open the backing service of the session stores
	stores, err := cli.OpenStores(ctx, cfg, logger)
	if err != nil {
		logger.Error(ctx, "session_store_failed", "Failed to open session store", err, map[string]any{"driver": cfg.Store.Driver})
		return err
	}
	defer stores.Close()

	// metrics live on a private registry served at /metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	collector := metrics.NewCollector(registry)

	deps := cli.PortalDeps{Config: cfg, Logger: logger, Metrics: collector, Producer: "portal-bridge"}

	// activity events are optional
	if cfg.RabbitMQ.Enabled {
		mq, err := rabbitmq.ConnectRabbitMQ(ctx, cfg, logger)
		if err != nil {
			logger.Error(ctx, "rabbitmq_connection_failed", "Failed to connect to RabbitMQ", err, nil)
			return err
		}
		defer mq.Close()
		deps.Events = rabbitmq.NewMQPublisher(mq, deps.Producer)
	}

	// one portal per connection
	open := func(connCtx context.Context, deviceID string, surface ports.RenderSurface) (websocket.Session, error) {
		portal, stop := cli.StartPortal(connCtx, deps, stores.ForDevice(deviceID), surface)
		return handler.NewSession(handler.NewPortalHandler(connCtx, portal, logger), stop), nil
	}

	// set up the routes
	mux := http.NewServeMux()
	routes := handler.NewBridgeRoutes(logger, websocket.NewBridge(logger, open), metrics.Handler(registry))
	routes.RegisterRoutes(mux)

	// concurrency limiter (global); a WebSocket holds its slot until it closes
	limitedHandler := withConcurrencyLimit(maxConcurrent, mux)

	logger.Info(ctx, "service_started",
		fmt.Sprintf("Portal bridge started on port %d", cfg.Bridge.Port),
		map[string]any{"port": cfg.Bridge.Port, "max_concurrent": maxConcurrent, "store": cfg.Store.Driver},
	)

	// read and write deadlines are owned by the bridge once a connection upgrades
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Bridge.Port),
		Handler:           limitedHandler,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error(ctx, "http_server_error", "HTTP server terminated with error", err, map[string]any{"port": cfg.Bridge.Port})
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error(ctx, "http_shutdown_failed", "Failed to gracefully shut down HTTP server", err, nil)
		}
		return nil
	})

	return g.Wait()
}

// withConcurrencyLimit wraps an http.Handler with a semaphore-based limiter.
// It controls how many requests, open WebSockets included, are in progress.
func withConcurrencyLimit(n int, next http.Handler) http.Handler {
	if n <= 0 {
		return next
	}
	sem := make(chan struct{}, n)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case sem <- struct{}{}: // acquire
			defer func() { <-sem }() // release
			next.ServeHTTP(w, r)
		case <-r.Context().Done():
			// client canceled or server is shutting down
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		}
	})
}
