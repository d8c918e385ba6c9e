package web

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds HTTP server settings read from the environment.
type Config struct {
	Addr            string        `env:"PROFILEFIELDS_HTTP_ADDR" envDefault:"127.0.0.1:8080"`
	ReadTimeout     time.Duration `env:"PROFILEFIELDS_HTTP_READ_TIMEOUT" envDefault:"10s"`
	WriteTimeout    time.Duration `env:"PROFILEFIELDS_HTTP_WRITE_TIMEOUT" envDefault:"10s"`
	ShutdownTimeout time.Duration `env:"PROFILEFIELDS_HTTP_SHUTDOWN_TIMEOUT" envDefault:"5s"`
	Metrics         bool          `env:"PROFILEFIELDS_HTTP_METRICS" envDefault:"true"`
}

// LoadConfig reads Config from environment variables.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}
