package main

import (
	"flag"
	"log/slog"
	"os"
	"strings"

	"github.com/DjordjeVuckovic/jart-trainer/internal/tracking/factory"
	"github.com/DjordjeVuckovic/jart-trainer/pkg/config/env"
)

const defaultConfigPath = "noise_free.yml"

type cliConfig struct {
	ConfigPath string
	Output     string
}

func parseFlags(args []string) (cliConfig, error) {
	cfg := cliConfig{}
	fs := flag.NewFlagSet("train", flag.ContinueOnError)

	fs.StringVar(&cfg.ConfigPath, "c", defaultConfigPath, "Path to the training YAML (shorthand)")
	fs.StringVar(&cfg.ConfigPath, "config", defaultConfigPath, "Path to the training YAML")
	fs.StringVar(&cfg.Output, "output", "", "Optional path for a JSON run report")

	if err := fs.Parse(args); err != nil {
		return cliConfig{}, err
	}
	return cfg, nil
}

type AppConfig struct {
	ENV string
}

func NewAppConfig() *AppConfig {
	return &AppConfig{
		ENV: os.Getenv("ENV"),
	}
}

// LoadTracking resolves the tracking backend from the environment, reading
// cmd/train/.env first when present.
func (as *AppConfig) LoadTracking() (*factory.Config, error) {
	if err := env.LoadDotEnv(as.ENV, "cmd/train/.env"); err != nil {
		slog.Debug("Skipping .env environment variables...", "error", err)
	}

	cfg, err := factory.LoadEnv()
	if err != nil {
		slog.Error("Failed to load tracking configuration from environment", "error", err)
		return nil, err
	}
	return cfg, nil
}

func setupLogger(level string) {
	var l slog.Level
	switch strings.ToLower(level) {
	case "debug":
		l = slog.LevelDebug
	case "warn":
		l = slog.LevelWarn
	case "error":
		l = slog.LevelError
	default:
		l = slog.LevelInfo
	}
	// stdout carries the epoch stream, logs go to stderr
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: l})))
}
