package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

type (
	// Env holds the values of environment variable based configuration
	Env struct {
		Host         string        `envconfig:"NOCKPOINT_HOST" default:"localhost"`
		Port         int           `envconfig:"NOCKPOINT_PORT" default:"8080"`
		PortAttempts int           `envconfig:"NOCKPOINT_PORT_ATTEMPTS" default:"100"`
		Redis        string        `envconfig:"NOCKPOINT_REDIS" default:"localhost:6379"`
		Silent       bool          `envconfig:"NOCKPOINT_SILENT" default:"false"`
		LogLevel     string        `envconfig:"LOG_LEVEL" default:"info"`
		MetricsPort  int           `envconfig:"NOCKPOINT_METRICS_PORT" default:"0"`
		SeedFile     string        `envconfig:"NOCKPOINT_SEED"`
		StorePing    time.Duration `envconfig:"NOCKPOINT_STORE_PING" default:"5s"`
	}
)

// New returns a new Env config, panicking on invalid values
func New() *Env {
	cfg := &Env{}

	envconfig.MustProcess("", cfg)

	return cfg
}

// Load returns a new Env config
func Load() (*Env, error) {
	cfg := &Env{}

	if err := envconfig.Process("", cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}
