package pg

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/DjordjeVuckovic/jart-trainer/internal/tracking"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Tracker writes runs to tracking_runs and buffers epoch records until the
// run finishes, then copies them into tracking_metrics in one batch.
type Tracker struct {
	pool *ConnectionPool
	db   *pgxpool.Pool
}

func NewTracker(pool *ConnectionPool) *Tracker {
	return &Tracker{pool: pool, db: pool.GetConn()}
}

func (t *Tracker) Init(ctx context.Context, spec tracking.RunSpec) (tracking.Run, error) {
	info := tracking.NewRunInfo(spec)

	cmd := `
		INSERT INTO tracking_runs (id, project, run_group, job_type, repeat, status, started_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := t.db.Exec(ctx, cmd,
		info.ID,
		info.Project,
		info.Group,
		info.JobType,
		info.Repeat,
		string(info.Status),
		info.StartedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert run: %w", err)
	}

	slog.Info("Tracking run started", "id", info.ID, "backend", tracking.PG)
	return &run{id: info.ID, db: t.db}, nil
}

func (t *Tracker) Close() error {
	t.pool.Close()
	return nil
}

type run struct {
	id uuid.UUID
	db *pgxpool.Pool

	mu      sync.Mutex
	records []tracking.Record
	done    bool
}

func (r *run) ID() uuid.UUID {
	return r.id
}

func (r *run) UpdateConfig(ctx context.Context, cfg map[string]any) error {
	if r.finished() {
		return tracking.ErrRunFinished
	}
	cfgJSON, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal run config: %w", err)
	}

	cmd := `UPDATE tracking_runs SET config = config || $2::jsonb WHERE id = $1`
	if _, err := r.db.Exec(ctx, cmd, r.id, cfgJSON); err != nil {
		return fmt.Errorf("failed to update run config: %w", err)
	}
	return nil
}

func (r *run) Log(_ context.Context, rec tracking.Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.done {
		return tracking.ErrRunFinished
	}
	r.records = append(r.records, rec)
	return nil
}

// Finish writes the buffered records and the final status in one
// transaction. The run stays open when the transaction fails, so a later
// Finish can still record it.
func (r *run) Finish(ctx context.Context, status tracking.Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.done {
		return tracking.ErrRunFinished
	}

	if err := r.finishTx(ctx, status, r.records); err != nil {
		return err
	}
	n := len(r.records)
	r.done = true
	r.records = nil

	slog.Info("Tracking run finished", "id", r.id, "status", status, "records", n)
	return nil
}

func (r *run) finishTx(ctx context.Context, status tracking.Status, records []tracking.Record) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin finish tx: %w", err)
	}
	defer func() {
		if err := tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
			slog.Warn("Failed to rollback finish tx", "id", r.id, "error", err)
		}
	}()

	if len(records) > 0 {
		rows := make([][]any, len(records))
		for i, rec := range records {
			rows[i] = []any{r.id, rec.Epoch, rec.Weight, rec.Loss}
		}
		_, err = tx.CopyFrom(
			ctx,
			pgx.Identifier{"tracking_metrics"},
			[]string{"run_id", "epoch", "weight", "loss"},
			pgx.CopyFromRows(rows),
		)
		if err != nil {
			return fmt.Errorf("failed to copy metrics: %w", err)
		}
	}

	cmd := `UPDATE tracking_runs SET status = $2, finished_at = now() WHERE id = $1`
	if _, err := tx.Exec(ctx, cmd, r.id, string(status)); err != nil {
		return fmt.Errorf("failed to finish run: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit finish tx: %w", err)
	}
	return nil
}

func (r *run) finished() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.done
}
