package factory

import (
	"context"
	"fmt"
	"os"

	"github.com/DjordjeVuckovic/jart-trainer/internal/tracking"
	"github.com/DjordjeVuckovic/jart-trainer/internal/tracking/es"
	"github.com/DjordjeVuckovic/jart-trainer/internal/tracking/file"
	"github.com/DjordjeVuckovic/jart-trainer/internal/tracking/memory"
	"github.com/DjordjeVuckovic/jart-trainer/internal/tracking/pg"
	"github.com/DjordjeVuckovic/jart-trainer/pkg/server"
)

// Backend is one tracking store seen from both sides.
type Backend struct {
	Tracker tracking.Tracker
	Reader  tracking.Reader
	Health  server.HealthChecker
}

// Close releases the connections the backend holds.
func (b *Backend) Close() error {
	return b.Tracker.Close()
}

func New(ctx context.Context, cfg Config) (*Backend, error) {
	switch cfg.Type {
	case tracking.File:
		tr, err := file.NewTracker(cfg.Dir)
		if err != nil {
			return nil, err
		}
		dir := cfg.Dir
		return &Backend{
			Tracker: tr,
			Reader:  file.NewReader(dir),
			Health: server.HealthCheckerFunc(func(context.Context) bool {
				fi, err := os.Stat(dir)
				return err == nil && fi.IsDir()
			}),
		}, nil

	case tracking.PG:
		if cfg.Pg == nil {
			return nil, fmt.Errorf("missing PostgreSQL config for %s tracker", cfg.Type)
		}
		pool, err := pg.NewConnectionPool(ctx, *cfg.Pg)
		if err != nil {
			return nil, fmt.Errorf("failed to create PostgreSQL connection pool: %w", err)
		}
		return &Backend{
			Tracker: pg.NewTracker(pool),
			Reader:  pg.NewReader(pool),
			Health:  pool,
		}, nil

	case tracking.ES:
		if cfg.Es == nil {
			return nil, fmt.Errorf("missing Elasticsearch config for %s tracker", cfg.Type)
		}
		tr, err := es.NewTracker(ctx, *cfg.Es)
		if err != nil {
			return nil, err
		}
		reader, err := es.NewReader(*cfg.Es)
		if err != nil {
			return nil, err
		}
		return &Backend{Tracker: tr, Reader: reader, Health: tr}, nil

	case tracking.InMem:
		tr := memory.NewTracker()
		return &Backend{Tracker: tr, Reader: tr, Health: server.NewOkHealthChecker()}, nil

	default:
		return nil, fmt.Errorf(string(tracking.ErrUnsupportedTracker), cfg.Type)
	}
}
