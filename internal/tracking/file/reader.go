package file

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"

	"github.com/DjordjeVuckovic/jart-trainer/internal/apperr"
	"github.com/DjordjeVuckovic/jart-trainer/internal/tracking"
	"github.com/DjordjeVuckovic/jart-trainer/pkg/pagination"
	"github.com/google/uuid"
)

// Reader rebuilds runs from the files a Tracker wrote under the same dir.
type Reader struct {
	dir string
}

func NewReader(dir string) *Reader {
	return &Reader{dir: dir}
}

func (r *Reader) ListRuns(_ context.Context, project string, page, size int) (*pagination.OffsetResult[tracking.RunInfo], error) {
	req := pagination.OffsetRequest{Page: page, Size: size}
	if err := req.Validate(); err != nil {
		return nil, apperr.NewValidationWrap("invalid pagination", err)
	}

	projectGlob := "*"
	if project != "" {
		projectGlob = projectDirName(project)
	}
	paths, err := filepath.Glob(filepath.Join(r.dir, projectGlob, "*.jsonl"))
	if err != nil {
		return nil, fmt.Errorf("list run files: %w", err)
	}

	runs := make([]tracking.RunInfo, 0, len(paths))
	for _, path := range paths {
		info, _, err := load(path)
		if err != nil {
			return nil, err
		}
		if project != "" && info.Project != project {
			continue
		}
		runs = append(runs, *info)
	}
	sort.Slice(runs, func(i, j int) bool {
		return runs[i].StartedAt.After(runs[j].StartedAt)
	})

	start := min(req.Offset(), len(runs))
	end := min(start+req.Size, len(runs))
	return pagination.NewOffsetResult(runs[start:end], int64(len(runs)), req.Page, req.Size), nil
}

func (r *Reader) GetRun(_ context.Context, id uuid.UUID) (*tracking.RunInfo, error) {
	path, err := r.find(id)
	if err != nil {
		return nil, err
	}
	info, _, err := load(path)
	return info, err
}

func (r *Reader) Metrics(_ context.Context, id uuid.UUID) ([]tracking.Record, error) {
	path, err := r.find(id)
	if err != nil {
		return nil, err
	}
	_, records, err := load(path)
	return records, err
}

func (r *Reader) find(id uuid.UUID) (string, error) {
	paths, err := filepath.Glob(filepath.Join(r.dir, "*", id.String()+".jsonl"))
	if err != nil {
		return "", fmt.Errorf("find run file: %w", err)
	}
	if len(paths) == 0 {
		return "", apperr.ErrNotFound
	}
	return paths[0], nil
}

func load(path string) (*tracking.RunInfo, []tracking.Record, error) {
	lines, err := ReadRun(path)
	if err != nil {
		return nil, nil, err
	}
	if len(lines) == 0 || lines[0].Event != EventInit || lines[0].Run == nil {
		return nil, nil, fmt.Errorf("run file %s: missing init event", filepath.Base(path))
	}

	info := *lines[0].Run
	records := make([]tracking.Record, 0, len(lines))
	for _, l := range lines[1:] {
		switch l.Event {
		case EventConfig:
			if info.Config == nil {
				info.Config = make(map[string]any, len(l.Config))
			}
			for k, v := range l.Config {
				info.Config[k] = v
			}
		case EventLog:
			if l.Record != nil {
				records = append(records, *l.Record)
			}
		case EventFinish:
			info.Status = l.Status
			info.FinishedAt = l.FinishedAt
		}
	}
	return &info, records, nil
}

var _ tracking.Reader = (*Reader)(nil)
