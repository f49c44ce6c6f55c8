package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds process configuration loaded from the environment
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	StorageDriver string `env:"STORAGE_DRIVER" envDefault:"memory"`
	SQLiteFile    string `env:"SQLITE_FILE" envDefault:"mainhero.sqlite"`
	StorageKey    string `env:"STORAGE_KEY" envDefault:"com.lostbyte.mainhero/data"`

	// HostBridge selects how the host session is reached: "mock" or "nats"
	HostBridge        string        `env:"HOST_BRIDGE" envDefault:"mock"`
	NATSURL           string        `env:"NATS_URL" envDefault:"nats://localhost:4222"`
	NATSSubjectPrefix string        `env:"NATS_SUBJECT_PREFIX" envDefault:"mainhero"`
	HostTimeout       time.Duration `env:"HOST_TIMEOUT" envDefault:"2s"`

	Port     string `env:"PORT" envDefault:"3000"`
	GRPCPort string `env:"GRPC_PORT" envDefault:"50051"`
}

// Load parses the environment into a Config and validates enumerated fields.
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

// Validate rejects unknown drivers and bridges.
func (c *Config) Validate() error {
	switch c.StorageDriver {
	case "memory", "sqlite":
	default:
		return fmt.Errorf("unknown STORAGE_DRIVER %q (valid: memory, sqlite)", c.StorageDriver)
	}
	switch c.HostBridge {
	case "mock", "nats":
	default:
		return fmt.Errorf("unknown HOST_BRIDGE %q (valid: mock, nats)", c.HostBridge)
	}
	if c.StorageKey == "" {
		return fmt.Errorf("STORAGE_KEY must not be empty")
	}
	if c.HostTimeout <= 0 {
		return fmt.Errorf("HOST_TIMEOUT must be positive, got %s", c.HostTimeout)
	}
	return nil
}

// IsDevelopment reports whether the process runs with local development defaults.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "" || c.Environment == "development"
}
