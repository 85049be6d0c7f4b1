package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// applyEnv loads .env when present (without overriding the real environment)
// and lets PORTAL_* variables override file values.
func applyEnv(cfg *Config) error {
	_ = godotenv.Load()

	var problems []string
	str := func(key string, dst *string) {
		if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	integer := func(key string, dst *int) {
		if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
			n, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil {
				problems = append(problems, fmt.Sprintf("%s must be int", key))
				return
			}
			*dst = n
		}
	}
	duration := func(key string, dst *time.Duration) {
		if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
			d, err := time.ParseDuration(strings.TrimSpace(v))
			if err != nil {
				problems = append(problems, fmt.Sprintf("%s must be a duration", key))
				return
			}
			*dst = d
		}
	}

	str("PORTAL_API_BASE", &cfg.API.BaseURL)
	duration("PORTAL_API_TIMEOUT", &cfg.API.Timeout)
	duration("PORTAL_LEADERBOARD_TIMEOUT", &cfg.API.LeaderboardTimeout)

	str("PORTAL_STORE_DRIVER", &cfg.Store.Driver)
	str("PORTAL_STORE_PATH", &cfg.Store.Path)

	str("PORTAL_DB_HOST", &cfg.Database.Host)
	integer("PORTAL_DB_PORT", &cfg.Database.Port)
	str("PORTAL_DB_USER", &cfg.Database.User)
	str("PORTAL_DB_PASSWORD", &cfg.Database.Password)
	str("PORTAL_DB_NAME", &cfg.Database.Name)

	str("PORTAL_REDIS_ADDR", &cfg.Redis.Addr)
	str("PORTAL_REDIS_PASSWORD", &cfg.Redis.Password)

	if v, ok := os.LookupEnv("PORTAL_RABBITMQ_ENABLED"); ok && strings.TrimSpace(v) != "" {
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			problems = append(problems, "PORTAL_RABBITMQ_ENABLED must be a bool")
		} else {
			cfg.RabbitMQ.Enabled = b
		}
	}
	str("PORTAL_RABBITMQ_HOST", &cfg.RabbitMQ.Host)
	integer("PORTAL_RABBITMQ_PORT", &cfg.RabbitMQ.Port)
	str("PORTAL_RABBITMQ_USER", &cfg.RabbitMQ.User)
	str("PORTAL_RABBITMQ_PASSWORD", &cfg.RabbitMQ.Password)

	integer("PORTAL_BRIDGE_PORT", &cfg.Bridge.Port)
	str("PORTAL_LOG_LEVEL", &cfg.Log.Level)
	str("PORTAL_LOG_FILE", &cfg.Log.File)

	if len(problems) > 0 {
		return fmt.Errorf("%s", strings.Join(problems, "; "))
	}
	return nil
}
