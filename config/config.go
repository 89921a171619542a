// Package config loads server settings from the environment and flags.
package config

import (
	"errors"
	"flag"
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	Port          string   `env:"PORT" envDefault:"8080"`
	ScoresPath    string   `env:"CANDY_RUSH_SCORES_PATH" envDefault:"scores.db"`
	JWTSecret     string   `env:"CANDY_RUSH_JWT_SECRET"`
	OTelEndpoint  string   `env:"CANDY_RUSH_OTEL_ENDPOINT"`
	ICEServers    []string `env:"CANDY_RUSH_ICE_SERVERS" envSeparator:"," envDefault:"stun:stun.l.google.com:19302"`
	ICEUsername   string   `env:"CANDY_RUSH_ICE_USERNAME"`
	ICECredential string   `env:"CANDY_RUSH_ICE_CREDENTIAL"`
	AllowedOrigin string   `env:"CANDY_RUSH_ALLOWED_ORIGIN" envDefault:"*"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Load reads env defaults, then lets command-line flags override them.
func Load(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if fs == nil {
		return cfg, errors.New("flag parser is required")
	}
	if err := ParseEnv(&cfg); err != nil {
		return cfg, err
	}
	fs.StringVar(&cfg.Port, "port", cfg.Port, "HTTP listen port")
	fs.StringVar(&cfg.ScoresPath, "scores", cfg.ScoresPath, "SQLite score database path (empty keeps scores in memory)")
	fs.StringVar(&cfg.OTelEndpoint, "otel-endpoint", cfg.OTelEndpoint, "OTLP/HTTP trace endpoint URL")
	if err := fs.Parse(args); err != nil {
		return cfg, fmt.Errorf("parse flags: %w", err)
	}
	cfg.Port = strings.TrimPrefix(strings.TrimSpace(cfg.Port), ":")
	if cfg.Port == "" {
		return cfg, errors.New("port is required")
	}
	return cfg, nil
}

// Addr is the listen address for net/http.
func (c Config) Addr() string {
	return ":" + c.Port
}
