package cli

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"driver-portal/internal/general/config"
	"driver-portal/internal/general/logger"
	"driver-portal/internal/general/postgres"
	"driver-portal/internal/general/sessionstore"
	"driver-portal/internal/ports"
)

// LocalDevice is the device id of the single-user modes.
const LocalDevice = "local"

// Stores opens the backing service of the configured session store once and
// hands out per-device stores on top of it.
type Stores struct {
	driver string
	path   string
	prefix string
	redis  *redis.Client
	pool   *pgxpool.Pool
	uow    ports.UnitOfWork
}

// OpenStores connects whatever cfg.Store.Driver needs.
func OpenStores(ctx context.Context, cfg *config.Config, logger *logger.Logger) (*Stores, error) {
	stores := &Stores{driver: cfg.Store.Driver, path: cfg.Store.Path, prefix: cfg.Redis.Prefix}

	switch cfg.Store.Driver {
	case config.StoreRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("redis ping %s: %w", cfg.Redis.Addr, err)
		}
		stores.redis = client

	case config.StorePostgres:
		pool, err := postgres.NewPool(ctx, cfg, logger)
		if err != nil {
			return nil, err
		}
		if err := postgres.EnsureSchema(ctx, pool); err != nil {
			pool.Close()
			return nil, err
		}
		stores.pool = pool
		stores.uow = postgres.NewUnitOfWork(pool)
	}

	logger.Info(ctx, "session_store_ready", "Session store opened", map[string]any{"driver": cfg.Store.Driver})
	return stores, nil
}

// ForDevice returns the session store of one device. The file driver has a
// single slot, so shared modes fall back to memory for every device but the local one.
func (stores *Stores) ForDevice(deviceID string) ports.SessionStore {
	switch stores.driver {
	case config.StoreRedis:
		return sessionstore.NewRedis(stores.redis, stores.prefix, deviceID)
	case config.StorePostgres:
		return postgres.NewSessionStore(stores.uow, deviceID)
	case config.StoreFile:
		if deviceID == LocalDevice {
			return sessionstore.NewFile(stores.path)
		}
	}
	return sessionstore.NewMemory()
}

func (stores *Stores) Close() {
	if stores.redis != nil {
		_ = stores.redis.Close()
	}
	if stores.pool != nil {
		stores.pool.Close()
	}
}
