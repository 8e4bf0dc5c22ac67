package memory

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/DjordjeVuckovic/jart-trainer/internal/apperr"
	"github.com/DjordjeVuckovic/jart-trainer/internal/tracking"
	"github.com/DjordjeVuckovic/jart-trainer/pkg/pagination"
	"github.com/google/uuid"
)

// Tracker keeps runs in process memory. It serves tests and the API when no
// database is configured.
type Tracker struct {
	storageLock sync.RWMutex
	runs        map[uuid.UUID]*entry
}

type entry struct {
	info    tracking.RunInfo
	records []tracking.Record
}

func NewTracker() *Tracker {
	return &Tracker{
		runs: make(map[uuid.UUID]*entry),
	}
}

func (t *Tracker) Init(_ context.Context, spec tracking.RunSpec) (tracking.Run, error) {
	info := tracking.NewRunInfo(spec)

	t.storageLock.Lock()
	defer t.storageLock.Unlock()
	t.runs[info.ID] = &entry{info: info}

	slog.Debug("Tracking run started", "id", info.ID, "project", info.Project, "repeat", info.Repeat)
	return &run{id: info.ID, tracker: t}, nil
}

func (t *Tracker) Close() error {
	return nil
}

func (t *Tracker) ListRuns(_ context.Context, project string, page, size int) (*pagination.OffsetResult[tracking.RunInfo], error) {
	req := pagination.OffsetRequest{Page: page, Size: size}
	if err := req.Validate(); err != nil {
		return nil, apperr.NewValidationWrap("invalid pagination", err)
	}

	t.storageLock.RLock()
	defer t.storageLock.RUnlock()

	var all []tracking.RunInfo
	for _, e := range t.runs {
		if project != "" && e.info.Project != project {
			continue
		}
		all = append(all, e.info)
	}
	sort.Slice(all, func(i, j int) bool {
		return all[i].StartedAt.After(all[j].StartedAt)
	})

	start := min(req.Offset(), len(all))
	end := min(start+req.Size, len(all))
	return pagination.NewOffsetResult(all[start:end], int64(len(all)), req.Page, req.Size), nil
}

func (t *Tracker) GetRun(_ context.Context, id uuid.UUID) (*tracking.RunInfo, error) {
	t.storageLock.RLock()
	defer t.storageLock.RUnlock()

	e, ok := t.runs[id]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	info := e.info
	return &info, nil
}

func (t *Tracker) Metrics(_ context.Context, id uuid.UUID) ([]tracking.Record, error) {
	t.storageLock.RLock()
	defer t.storageLock.RUnlock()

	e, ok := t.runs[id]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	out := make([]tracking.Record, len(e.records))
	copy(out, e.records)
	return out, nil
}

type run struct {
	id      uuid.UUID
	tracker *Tracker
}

func (r *run) ID() uuid.UUID {
	return r.id
}

func (r *run) UpdateConfig(_ context.Context, cfg map[string]any) error {
	return r.with(func(e *entry) {
		if e.info.Config == nil {
			e.info.Config = make(map[string]any, len(cfg))
		}
		for k, v := range cfg {
			e.info.Config[k] = v
		}
	})
}

func (r *run) Log(_ context.Context, rec tracking.Record) error {
	return r.with(func(e *entry) {
		e.records = append(e.records, rec)
	})
}

func (r *run) Finish(_ context.Context, status tracking.Status) error {
	return r.with(func(e *entry) {
		now := time.Now().UTC()
		e.info.Status = status
		e.info.FinishedAt = &now
	})
}

func (r *run) with(fn func(e *entry)) error {
	r.tracker.storageLock.Lock()
	defer r.tracker.storageLock.Unlock()

	e, ok := r.tracker.runs[r.id]
	if !ok {
		return apperr.ErrNotFound
	}
	if e.info.Status != tracking.StatusRunning {
		return tracking.ErrRunFinished
	}
	fn(e)
	return nil
}
