// Package config loads process configuration from the environment, with an
// optional .env file for local development.
package config

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/joho/godotenv"
	"go-simpler.org/env"
)

// defaultClientID is the application's built-in public identifier, used
// when the environment does not override it. The client secret has no such
// fallback: the provider rejects unauthenticated exchanges.
const defaultClientID = "echo-desktop.apps.googleusercontent.com"

type Config struct {
	YouTubeClientID     string `env:"YOUTUBE_CLIENT_ID"`
	YouTubeClientSecret string `env:"YOUTUBE_CLIENT_SECRET"`
	LogLevel            string `env:"LOG_LEVEL" default:"info"`
	LogFormat           string `env:"LOG_FORMAT" default:"text"`
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	var cfg Config
	if err := env.Load(&cfg, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func validate(cfg *Config) error {
	if cfg.YouTubeClientSecret == "" {
		return errors.New("YOUTUBE_CLIENT_SECRET is required")
	}
	if cfg.YouTubeClientID == "" {
		cfg.YouTubeClientID = defaultClientID
	}
	return nil
}
