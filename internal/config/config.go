// Package config loads server settings from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/sirupsen/logrus"
)

// Result sinks.
const (
	SinkLog   = "log"
	SinkRedis = "redis"
	SinkNATS  = "nats"
)

type Config struct {
	Port     string `env:"PORT" envDefault:"8080"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	BroadcastWorkers int `env:"BROADCAST_WORKERS" envDefault:"8"`
	ClientBuffer     int `env:"CLIENT_BUFFER" envDefault:"64"`

	DatabaseURL string `env:"DATABASE_URL"`

	RedisAddr    string        `env:"REDIS_ADDR"`
	RedisDB      int           `env:"REDIS_DB" envDefault:"0"`
	NameCacheTTL time.Duration `env:"NAME_CACHE_TTL" envDefault:"10m"`

	ResultsSink  string `env:"RESULTS_SINK" envDefault:"log"`
	ResultsQueue string `env:"RESULTS_QUEUE" envDefault:"memorama_results"`
	NATSURL      string `env:"NATS_URL" envDefault:"nats://127.0.0.1:4222"`
	NATSSubject  string `env:"NATS_SUBJECT" envDefault:"memorama.results"`

	TokenPublicKeyPath  string        `env:"TOKEN_PUBLIC_KEY_PATH"`
	TokenPrivateKeyPath string        `env:"TOKEN_PRIVATE_KEY_PATH"`
	TokenExpiry         time.Duration `env:"TOKEN_EXPIRE_TIME" envDefault:"72h"`
}

// Load parses the environment and validates the result.
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.ResultsSink {
	case SinkLog, SinkNATS:
	case SinkRedis:
		if c.RedisAddr == "" {
			return fmt.Errorf("RESULTS_SINK=redis requires REDIS_ADDR")
		}
	default:
		return fmt.Errorf("unknown RESULTS_SINK %q", c.ResultsSink)
	}
	if c.BroadcastWorkers <= 0 {
		return fmt.Errorf("BROADCAST_WORKERS must be positive, got %d", c.BroadcastWorkers)
	}
	if c.ClientBuffer <= 0 {
		return fmt.Errorf("CLIENT_BUFFER must be positive, got %d", c.ClientBuffer)
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("LOG_LEVEL: %w", err)
	}
	return nil
}

// Logger builds the process logger at the configured level.
func (c *Config) Logger() *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if level, err := logrus.ParseLevel(c.LogLevel); err == nil {
		logger.SetLevel(level)
	}
	return logger
}
