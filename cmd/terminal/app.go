package terminal

import (
	"context"
	"fmt"
	"os"

	"driver-portal/internal/cli"
	"driver-portal/internal/general/config"
	"driver-portal/internal/general/logger"
	"driver-portal/internal/general/metrics"
	"driver-portal/internal/general/rabbitmq"
	"driver-portal/internal/software/portal/handler"
)

// Run drives a single portal from stdin and renders it on stdout. It blocks
// until the user quits, stdin closes or ctx is cancelled.
func Run(ctx context.Context, configPath string) error {
	// stdout is the UI, so logs go to stderr until the config names a file
	logger := logger.New("portal-terminal")
	logger.SetOutput(os.Stderr)
	ctx = logger.WithRequestID(ctx, "startup-001")

	// load a config from file
	cfg, err := config.LoadFromFile(configPath)
	if err != nil {
		logger.Error(ctx, "config_load_failed", "Failed to load configuration", err, nil)
		return err
	}
	logger.SetLevel(cfg.Log.Level)
	if cfg.Log.File != "" {
		file, err := os.OpenFile(cfg.Log.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			logger.Error(ctx, "log_file_open_failed", "Failed to open log file", err, map[string]any{"path": cfg.Log.File})
			return err
		}
		defer file.Close()
		logger.SetOutput(file)
	}

	// open the session store
	stores, err := cli.OpenStores(ctx, cfg, logger)
	if err != nil {
		logger.Error(ctx, "session_store_failed", "Failed to open session store", err, map[string]any{"driver": cfg.Store.Driver})
		return err
	}
	defer stores.Close()

	deps := cli.PortalDeps{Config: cfg, Logger: logger, Metrics: metrics.Nop{}, Producer: "portal-terminal"}

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

	portal, stop := cli.StartPortal(ctx, deps, stores.ForDevice(cli.LocalDevice), handler.NewTextSurface(os.Stdout))
	defer stop()

	logger.Info(ctx, "service_started", "Terminal portal started", map[string]any{
		"api":   cfg.API.BaseURL,
		"store": cfg.Store.Driver,
	})

	term := handler.NewTerminal(handler.NewPortalHandler(ctx, portal, logger), os.Stdin, os.Stdout)
	if err := term.Run(ctx); err != nil {
		return fmt.Errorf("terminal: %w", err)
	}
	return nil
}
