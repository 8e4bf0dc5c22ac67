package factory

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/DjordjeVuckovic/jart-trainer/internal/tracking"
	"github.com/DjordjeVuckovic/jart-trainer/internal/tracking/es"
	"github.com/DjordjeVuckovic/jart-trainer/internal/tracking/pg"
	"github.com/DjordjeVuckovic/jart-trainer/pkg/stringsutil"
)

const DefaultDir = "runs"

type Config struct {
	tracking.Type
	Dir string
	Pg  *pg.PoolConfig
	Es  *es.ClientConfig
}

// LoadEnv reads the tracking backend from TRACKING_BACKEND, defaulting to
// JSON-lines files under TRACKING_DIR.
func LoadEnv() (*Config, error) {
	backend := tracking.Type(os.Getenv("TRACKING_BACKEND"))
	if backend == "" {
		backend = tracking.File
	}
	supported := []tracking.Type{tracking.File, tracking.PG, tracking.ES, tracking.InMem}
	if !isSupported(backend, supported) {
		slog.Error("Invalid TRACKING_BACKEND environment variable value", "value", backend)
		return nil, fmt.Errorf(
			"invalid TRACKING_BACKEND environment variable value: %s, expected one of %v",
			backend,
			supported)
	}

	cfg := &Config{Type: backend}

	switch backend {
	case tracking.File:
		cfg.Dir = os.Getenv("TRACKING_DIR")
		if cfg.Dir == "" {
			cfg.Dir = DefaultDir
		}
	case tracking.PG:
		cfg.Pg = &pg.PoolConfig{ConnStr: os.Getenv("PG_CONNECTION_STRING")}
		if cfg.Pg.ConnStr == "" {
			slog.Error("PostgreSQL connection string is not set")
			return nil, fmt.Errorf("PostgreSQL connection string is not set")
		}
	case tracking.ES:
		cfg.Es = &es.ClientConfig{
			Addresses:   stringsutil.SplitAndTrim(os.Getenv("ES_ADDRESSES"), ","),
			IndexPrefix: os.Getenv("ES_INDEX_PREFIX"),
			Username:    os.Getenv("ES_USERNAME"),
			Password:    os.Getenv("ES_PASSWORD"),
		}
		if len(cfg.Es.Addresses) == 0 {
			slog.Error("Elasticsearch configuration is incomplete", "addresses", cfg.Es.Addresses)
			return nil, fmt.Errorf("elasticsearch configuration is incomplete: addresses are missing")
		}
	}

	return cfg, nil
}

func isSupported(t tracking.Type, supported []tracking.Type) bool {
	for _, s := range supported {
		if t == s {
			return true
		}
	}
	return false
}
