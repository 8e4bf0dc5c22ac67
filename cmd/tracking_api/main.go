package main

import (
	"log/slog"
	"net/http"
	"os"

	"github.com/DjordjeVuckovic/jart-trainer/internal/router"
	"github.com/DjordjeVuckovic/jart-trainer/internal/server"
	"github.com/DjordjeVuckovic/jart-trainer/internal/tracking/factory"
	"github.com/labstack/echo/v4"
)

const envPath = "cmd/tracking_api/.env"

func main() {
	sCfg, err := server.LoadConfig(envPath)
	if err != nil {
		slog.Error("Failed to load server config", "error", err)
		os.Exit(1)
	}

	cfg, err := NewAppConfig().Load()
	if err != nil {
		slog.Error("Failed to load app configuration", "error", err)
		os.Exit(1)
	}

	s := server.New(sCfg).
		SetupMiddlewares().
		SetupErrorHandler()

	backend, err := factory.New(s.Context(), cfg.TrackingConfig)
	if err != nil {
		slog.Error("Failed to create tracking backend", "backend", cfg.TrackingConfig.Type, "error", err)
		os.Exit(1)
	}
	defer backend.Close()

	s.SetupHealthChecks("/health", backend.Health)

	s.Echo.GET("/", func(c echo.Context) error {
		return c.String(http.StatusOK, "Tracking API is running")
	})

	router.NewRunsRouter(s.Echo, backend.Reader).Bind()

	slog.Info("Tracking API starting", "port", sCfg.Port, "backend", cfg.TrackingConfig.Type)
	if err := s.Start(); err != nil {
		slog.Error("Server stopped with error", "error", err)
		os.Exit(1)
	}
}
