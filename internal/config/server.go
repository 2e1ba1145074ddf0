package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// ServerConfig configures the HTTP API. It is read from the environment only.
type ServerConfig struct {
	Port           string        `envconfig:"API_PORT" default:"8080"`
	Env            string        `envconfig:"API_ENV" default:"development"`
	AllowedOrigins []string      `envconfig:"API_ALLOWED_ORIGINS"`
	Workers        int           `envconfig:"API_WORKERS" default:"4"`
	RequestTimeout time.Duration `envconfig:"API_REQUEST_TIMEOUT" default:"60s"`
	StaticDir      string        `envconfig:"STATIC_DIR"`
	Logging        LoggingConfig `envconfig:"LOG"`
}

// LoadServer reads ServerConfig from unprefixed variables such as API_PORT
// and LOG_LEVEL.
func LoadServer() (*ServerConfig, error) {
	var s ServerConfig
	if err := envconfig.Process("", &s); err != nil {
		return nil, fmt.Errorf("server config: %w", err)
	}
	if s.Logging.Level == "" {
		s.Logging.Level = "info"
	}
	if s.Logging.Format == "" {
		s.Logging.Format = "console"
	}
	if s.Workers < 1 {
		return nil, fmt.Errorf("server config: API_WORKERS must be >= 1, got %d", s.Workers)
	}
	return &s, nil
}

// Production reports whether gin should run in release mode.
func (s *ServerConfig) Production() bool { return s.Env == "production" }

// Addr is the listen address.
func (s *ServerConfig) Addr() string { return ":" + s.Port }
