package main

import (
	"log/slog"
	"os"

	"github.com/DjordjeVuckovic/jart-trainer/internal/tracking/factory"
	"github.com/DjordjeVuckovic/jart-trainer/pkg/config/env"
)

type AppConfig struct {
	ENV string
}

func NewAppConfig() *AppConfig {
	return &AppConfig{
		ENV: os.Getenv("ENV"),
	}
}

type TrackingAPIConfig struct {
	TrackingConfig factory.Config
}

func (as *AppConfig) Load() (*TrackingAPIConfig, error) {
	if err := env.LoadDotEnv(as.ENV, envPath); err != nil {
		slog.Info("Failed to load .env, continuing with existing environment variables", "error", err)
	}

	trackingCfg, err := factory.LoadEnv()
	if err != nil {
		slog.Error("Failed to load tracking configuration from environment", "error", err)
		return nil, err
	}

	return &TrackingAPIConfig{
		TrackingConfig: *trackingCfg,
	}, nil
}
