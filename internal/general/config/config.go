package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
)

// Store drivers.
const (
	StoreFile     = "file"
	StoreMemory   = "memory"
	StoreRedis    = "redis"
	StorePostgres = "postgres"
)

type Config struct {
	API struct {
		BaseURL            string        `yaml:"base_url"`
		Timeout            time.Duration `yaml:"timeout"`
		LeaderboardTimeout time.Duration `yaml:"leaderboard_timeout"`
		RatePerSecond      float64       `yaml:"rate_per_second"`
		Burst              int           `yaml:"burst"`
	} `yaml:"api"`
	Portal struct {
		Cities []string `yaml:"cities"`
	} `yaml:"portal"`
	Store struct {
		Driver string `yaml:"driver"` // file | memory | redis | postgres
		Path   string `yaml:"path"`   // file driver only
	} `yaml:"store"`
	Database struct {
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		User     string `yaml:"user"`
		Password string `yaml:"password"`
		Name     string `yaml:"database"`
		SSLMode  string `yaml:"sslmode"`
	} `yaml:"database"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		Prefix   string `yaml:"prefix"`
	} `yaml:"redis"`
	RabbitMQ struct {
		Enabled  bool   `yaml:"enabled"`
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		User     string `yaml:"user"`
		Password string `yaml:"password"`
	} `yaml:"rabbitmq"`
	Bridge struct {
		Port int `yaml:"port"`
	} `yaml:"bridge"`
	Log struct {
		Level string `yaml:"level"` // debug | info
		File  string `yaml:"file"`
	} `yaml:"log"`
}

// LoadFromFile loads config from a YAML file, applies defaults and environment
// overrides, and validates the result. A missing file is not an error: every
// field has a default or an environment variable.
func LoadFromFile(path string) (*Config, error) {
	var cfg Config

	if strings.TrimSpace(path) != "" {
		file, err := os.Open(path)
		switch {
		case err == nil:
			defer file.Close()
			if err := parseYAML(file, &cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
		case errors.Is(err, os.ErrNotExist):
		default:
			return nil, fmt.Errorf("failed to open config file: %w", err)
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return nil, fmt.Errorf("invalid environment: %w", err)
	}
	applyDefaults(&cfg)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// applyDefaults sets safe defaults for some fields.
func applyDefaults(cfg *Config) {
	// API
	if cfg.API.BaseURL == "" {
		cfg.API.BaseURL = "http://localhost:3000/api"
	}
	cfg.API.BaseURL = strings.TrimRight(cfg.API.BaseURL, "/")
	if cfg.API.Timeout == 0 {
		cfg.API.Timeout = 30 * time.Second
	}
	if cfg.API.LeaderboardTimeout == 0 {
		cfg.API.LeaderboardTimeout = 120 * time.Second
	}
	if cfg.API.RatePerSecond == 0 {
		cfg.API.RatePerSecond = 10
	}
	if cfg.API.Burst == 0 {
		cfg.API.Burst = 5
	}

	// Portal
	if len(cfg.Portal.Cities) == 0 {
		cfg.Portal.Cities = []string{"İstanbul", "Ankara", "İzmir", "Bursa", "Antalya"}
	}

	// Store
	if cfg.Store.Driver == "" {
		cfg.Store.Driver = StoreFile
	}
	cfg.Store.Driver = strings.ToLower(cfg.Store.Driver)
	if cfg.Store.Path == "" {
		cfg.Store.Path = defaultStorePath()
	}

	// Database
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}

	// Redis
	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = "localhost:6379"
	}
	if cfg.Redis.Prefix == "" {
		cfg.Redis.Prefix = "portal"
	}

	// RabbitMQ
	if cfg.RabbitMQ.Host == "" {
		cfg.RabbitMQ.Host = "localhost"
	}
	if cfg.RabbitMQ.Port == 0 {
		cfg.RabbitMQ.Port = 5672
	}

	// Bridge
	if cfg.Bridge.Port == 0 {
		cfg.Bridge.Port = 8080
	}

	// Log
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	cfg.Log.Level = strings.ToLower(cfg.Log.Level)
}

func defaultStorePath() string {
	dir, err := os.UserConfigDir()
	if err != nil || dir == "" {
		return ".risego-session.json"
	}
	return dir + string(os.PathSeparator) + "risego" + string(os.PathSeparator) + "session.json"
}

// validate checks required fields and basic ranges.
func (c *Config) validate() error {
	var problems []string

	// API
	if !strings.HasPrefix(c.API.BaseURL, "http://") && !strings.HasPrefix(c.API.BaseURL, "https://") {
		problems = append(problems, "api.base_url must be an http(s) URL")
	}
	if c.API.Timeout < 0 || c.API.LeaderboardTimeout < 0 {
		problems = append(problems, "api timeouts must be positive")
	}
	if c.API.RatePerSecond < 0 || c.API.Burst < 0 {
		problems = append(problems, "api.rate_per_second and api.burst must be positive")
	}

	// Store
	switch c.Store.Driver {
	case StoreFile, StoreMemory, StoreRedis:
	case StorePostgres:
		if c.Database.Port <= 0 || c.Database.Port > 65535 {
			problems = append(problems, "database.port must be in 1..65535")
		}
		if c.Database.User == "" {
			problems = append(problems, "database.user is required")
		}
		if c.Database.Password == "" {
			problems = append(problems, "database.password is required")
		}
		if c.Database.Name == "" {
			problems = append(problems, "database.database is required")
		}
	default:
		problems = append(problems, fmt.Sprintf("store.driver %q is not one of file, memory, redis, postgres", c.Store.Driver))
	}

	// RabbitMQ
	if c.RabbitMQ.Enabled {
		if c.RabbitMQ.Port <= 0 || c.RabbitMQ.Port > 65535 {
			problems = append(problems, "rabbitmq.port must be in 1..65535")
		}
		if c.RabbitMQ.User == "" {
			problems = append(problems, "rabbitmq.user is required")
		}
		if c.RabbitMQ.Password == "" {
			problems = append(problems, "rabbitmq.password is required")
		}
	}

	// Bridge
	if c.Bridge.Port <= 0 || c.Bridge.Port > 65535 {
		problems = append(problems, "bridge.port must be in 1..65535")
	}

	// Log
	if c.Log.Level != "debug" && c.Log.Level != "info" {
		problems = append(problems, "log.level must be debug or info")
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}
