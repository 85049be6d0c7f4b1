package cli

import (
	"context"
	"errors"

	"driver-portal/internal/general/apiclient"
	"driver-portal/internal/general/config"
	"driver-portal/internal/general/eventloop"
	"driver-portal/internal/general/logger"
	"driver-portal/internal/general/metrics"
	"driver-portal/internal/ports"
	"driver-portal/internal/software/portal/service"
)

// PortalDeps is what every portal instance of a process shares.
type PortalDeps struct {
	Config   *config.Config
	Logger   *logger.Logger
	Metrics  metrics.Recorder
	Events   ports.EventPublisher // nil disables activity events
	Producer string
}

// StartPortal runs a portal on its own event loop and kicks off session restore.
// stop ends the loop; in-flight backend calls are abandoned.
func StartPortal(ctx context.Context, deps PortalDeps, store ports.SessionStore, surface ports.RenderSurface) (portal *service.Portal, stop func()) {
	ctx, cancel := context.WithCancel(ctx)
	loop := eventloop.New(eventloop.SystemClock{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := loop.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			deps.Logger.Error(ctx, "event_loop_failed", "Portal event loop stopped", err, nil)
		}
	}()

	cfg := deps.Config
	api := apiclient.New(store, apiclient.Options{
		BaseURL:            cfg.API.BaseURL,
		Timeout:            cfg.API.Timeout,
		LeaderboardTimeout: cfg.API.LeaderboardTimeout,
		RatePerSecond:      cfg.API.RatePerSecond,
		Burst:              cfg.API.Burst,
		Metrics:            deps.Metrics,
		Logger:             deps.Logger,
	})

	portal = service.NewPortal(ctx, deps.Logger, loop, store, api, deps.Events, surface, service.Options{
		Producer: deps.Producer,
		Cities:   cfg.Portal.Cities,
	})
	portal.RestoreSession()

	return portal, func() {
		cancel()
		<-done
	}
}
