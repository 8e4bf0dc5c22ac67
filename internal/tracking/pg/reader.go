package pg

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/DjordjeVuckovic/jart-trainer/internal/apperr"
	"github.com/DjordjeVuckovic/jart-trainer/internal/tracking"
	"github.com/DjordjeVuckovic/jart-trainer/pkg/pagination"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Reader struct {
	db *pgxpool.Pool
}

func NewReader(pool *ConnectionPool) *Reader {
	return &Reader{db: pool.GetConn()}
}

const runColumns = `id, project, run_group, job_type, repeat, status, config, started_at, finished_at`

func (r *Reader) ListRuns(ctx context.Context, project string, page, size int) (*pagination.OffsetResult[tracking.RunInfo], error) {
	req := pagination.OffsetRequest{Page: page, Size: size}
	if err := req.Validate(); err != nil {
		return nil, apperr.NewValidationWrap("invalid pagination", err)
	}

	var total int64
	countSQL := `SELECT count(*) FROM tracking_runs WHERE ($1 = '' OR project = $1)`
	if err := r.db.QueryRow(ctx, countSQL, project).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count runs: %w", err)
	}

	listSQL := `
		SELECT ` + runColumns + `
		FROM tracking_runs
		WHERE ($1 = '' OR project = $1)
		ORDER BY started_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.db.Query(ctx, listSQL, project, req.Size, req.Offset())
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []tracking.RunInfo
	for rows.Next() {
		info, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return pagination.NewOffsetResult(runs, total, req.Page, req.Size), nil
}

func (r *Reader) GetRun(ctx context.Context, id uuid.UUID) (*tracking.RunInfo, error) {
	row := r.db.QueryRow(ctx, `SELECT `+runColumns+` FROM tracking_runs WHERE id = $1`, id)
	info, err := scanRun(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	return info, err
}

func (r *Reader) Metrics(ctx context.Context, id uuid.UUID) ([]tracking.Record, error) {
	if _, err := r.GetRun(ctx, id); err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx,
		`SELECT epoch, weight, loss FROM tracking_metrics WHERE run_id = $1 ORDER BY epoch`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query metrics: %w", err)
	}

	records, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (tracking.Record, error) {
		var rec tracking.Record
		err := row.Scan(&rec.Epoch, &rec.Weight, &rec.Loss)
		return rec, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan metrics: %w", err)
	}
	return records, nil
}

func scanRun(row pgx.Row) (*tracking.RunInfo, error) {
	var (
		info       tracking.RunInfo
		status     string
		configJSON []byte
		finishedAt *time.Time
	)
	err := row.Scan(
		&info.ID,
		&info.Project,
		&info.Group,
		&info.JobType,
		&info.Repeat,
		&status,
		&configJSON,
		&info.StartedAt,
		&finishedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan run: %w", err)
	}

	info.Status = tracking.Status(status)
	info.FinishedAt = finishedAt
	if len(configJSON) > 0 {
		if err := json.Unmarshal(configJSON, &info.Config); err != nil {
			return nil, fmt.Errorf("failed to unmarshal run config: %w", err)
		}
		if len(info.Config) == 0 {
			info.Config = nil
		}
	}
	return &info, nil
}
