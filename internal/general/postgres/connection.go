package postgres

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"driver-portal/internal/general/config"
	"driver-portal/internal/general/logger"
)

const (
	applicationName = "driver-portal"
	pingTimeout     = 5 * time.Second
	maxConns        = 8
)

// dsn renders the connection URL for cfg.Database.
func dsn(cfg *config.Config) string {
	u := &url.URL{
		Scheme: "postgres",
		Host:   net.JoinHostPort(cfg.Database.Host, strconv.Itoa(cfg.Database.Port)),
		Path:   "/" + cfg.Database.Name,
		User:   url.UserPassword(cfg.Database.User, cfg.Database.Password),
	}
	q := url.Values{}
	q.Set("sslmode", cfg.Database.SSLMode)
	q.Set("application_name", applicationName)
	u.RawQuery = q.Encode()
	return u.String()
}

// NewPool opens the session store pool and pings it. Every portal on a bridge
// shares it, and each store call holds a connection only for one short transaction.
func NewPool(ctx context.Context, cfg *config.Config, logger *logger.Logger) (*pgxpool.Pool, error) {
	start := time.Now()

	pcfg, err := pgxpool.ParseConfig(dsn(cfg))
	if err != nil {
		return nil, fmt.Errorf("postgres parse dsn: %w", err)
	}
	pcfg.MaxConns = maxConns
	pcfg.ConnConfig.ConnectTimeout = pingTimeout
	pcfg.ConnConfig.RuntimeParams["timezone"] = "UTC"
	pcfg.HealthCheckPeriod = 30 * time.Second
	pcfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pcfg)
	if err != nil {
		return nil, fmt.Errorf("pgxpool.NewWithConfig: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres ping %s:%d: %w", cfg.Database.Host, cfg.Database.Port, err)
	}

	// never log the password
	logger.Info(ctx, "db_connected", "Connected to the session database", map[string]any{
		"host":        cfg.Database.Host,
		"database":    cfg.Database.Name,
		"user":        cfg.Database.User,
		"max_conns":   maxConns,
		"duration_ms": time.Since(start).Milliseconds(),
	})
	return pool, nil
}
