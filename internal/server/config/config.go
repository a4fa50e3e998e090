package config

import (
	"errors"
	"flag"
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config holds the server settings. Environment variables set the
// defaults, command-line flags override them.
type Config struct {
	APIHost       string `env:"KAMISADO_API_HOST"       envDefault:"localhost"`
	APIPort       int    `env:"KAMISADO_API_PORT"       envDefault:"8080"`
	Dev           bool   `env:"KAMISADO_DEV"            envDefault:"false"`
	StoragePath   string `env:"KAMISADO_STORAGE_PATH"`
	PIDPath       string `env:"KAMISADO_PID"`
	PIDLock       bool   `env:"KAMISADO_PID_LOCK"       envDefault:"false"`
	EngineWorkers int    `env:"KAMISADO_ENGINE_WORKERS" envDefault:"2"`
	JWTSecret     string `env:"KAMISADO_JWT_SECRET"`
}

// Load reads the environment, then applies args as flags
func Load(args []string) (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	fs := flag.NewFlagSet("kamisado-server", flag.ContinueOnError)
	cfg.bindFlags(fs)
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	return cfg, cfg.Validate()
}

func (c *Config) bindFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.APIHost, "api-host", c.APIHost, "API server host")
	fs.IntVar(&c.APIPort, "api-port", c.APIPort, "API server port")
	fs.BoolVar(&c.Dev, "dev", c.Dev, "Development mode (relaxed rate limits, fixed JWT secret)")
	fs.StringVar(&c.StoragePath, "storage-path", c.StoragePath, "Path to SQLite database file (disables persistence and accounts if empty)")
	fs.StringVar(&c.PIDPath, "pid", c.PIDPath, "Optional path to write PID file")
	fs.BoolVar(&c.PIDLock, "pid-lock", c.PIDLock, "Lock PID file to allow only one instance (requires -pid)")
	fs.IntVar(&c.EngineWorkers, "engine-workers", c.EngineWorkers, "Number of computer move workers")
}

func (c Config) Validate() error {
	if c.PIDLock && c.PIDPath == "" {
		return errors.New("-pid-lock requires -pid to be set")
	}
	if c.APIPort < 1 || c.APIPort > 65535 {
		return fmt.Errorf("invalid API port %d", c.APIPort)
	}
	if c.EngineWorkers < 1 {
		return fmt.Errorf("engine workers must be at least 1, got %d", c.EngineWorkers)
	}
	if c.JWTSecret != "" && len(c.JWTSecret) < 32 {
		return errors.New("JWT secret must be at least 32 characters")
	}
	return nil
}

// Addr is the API listen address
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.APIHost, c.APIPort)
}
