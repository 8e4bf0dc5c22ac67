package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/DjordjeVuckovic/jart-trainer/internal/config"
	"github.com/DjordjeVuckovic/jart-trainer/internal/report"
	"github.com/DjordjeVuckovic/jart-trainer/internal/tracking"
	"github.com/DjordjeVuckovic/jart-trainer/internal/tracking/factory"
	"github.com/DjordjeVuckovic/jart-trainer/internal/trainer"
)

// trackerOpener is only called once the training document has loaded.
type trackerOpener func(ctx context.Context) (tracking.Tracker, error)

func main() {
	setupLogger(os.Getenv("LOG_LEVEL"))

	cli, err := parseFlags(os.Args[1:])
	if err != nil {
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err = run(ctx, cli, os.Stdout, openTracker)
	stop()
	if err != nil {
		slog.Error("Training failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cli cliConfig, stdout io.Writer, open trackerOpener) error {
	cfg, err := config.LoadFromFile(cli.ConfigPath)
	if err != nil {
		return err
	}
	slog.Info("Configuration loaded",
		"path", cli.ConfigPath,
		"project", cfg.Run.ProjectName,
		"device", cfg.Run.Device,
		"repeats", cfg.Run.RepeatTimes,
		"epochs", cfg.Run.Epochs,
		"tracking", cfg.Run.UseTracking)

	opts := []trainer.Option{trainer.WithOutput(stdout)}
	if cfg.Run.UseTracking {
		tr, err := open(ctx)
		if err != nil {
			return fmt.Errorf("open tracker: %w", err)
		}
		defer func() {
			if err := tr.Close(); err != nil {
				slog.Warn("Failed to close tracker", "error", err)
			}
		}()
		opts = append(opts, trainer.WithTracker(tr))
	}

	t, err := trainer.New(cfg, opts...)
	if err != nil {
		return err
	}

	res, err := t.Run(ctx)
	if err != nil {
		return err
	}

	rpt := report.Build(res, cfg.Run.Slope)
	if cfg.Run.UseTracking {
		if err := report.WriteTable(rpt, stdout); err != nil {
			return fmt.Errorf("write report table: %w", err)
		}
	}
	if cli.Output != "" {
		if err := report.WriteJSON(rpt, cli.Output); err != nil {
			return err
		}
		slog.Info("Report written", "path", cli.Output)
	}

	slog.Info("Training finished",
		"repeats", len(res.Repeats),
		"mean_weight", res.Stats.Mean,
		"stddev", res.Stats.Stddev)
	return nil
}

func openTracker(ctx context.Context) (tracking.Tracker, error) {
	trackingCfg, err := NewAppConfig().LoadTracking()
	if err != nil {
		return nil, err
	}
	backend, err := factory.New(ctx, *trackingCfg)
	if err != nil {
		return nil, err
	}
	slog.Info("Tracking enabled", "backend", trackingCfg.Type)
	return backend.Tracker, nil
}
