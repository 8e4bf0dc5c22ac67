// Package tracking receives the per-epoch observations of a training run.
// A Tracker opens one Run per repetition; the stdout Printer and the
// experiment-tracking backends share the same contract.
package tracking

import (
	"context"
	"time"

	"github.com/DjordjeVuckovic/jart-trainer/pkg/pagination"
	"github.com/google/uuid"
)

type Status string

const (
	StatusRunning  Status = "RUNNING"
	StatusFinished Status = "FINISHED"
	StatusFailed   Status = "FAILED"
)

const DefaultGroup = "Linear Regression"

// Record is one observation of the trained weight.
type Record struct {
	Weight float64  `json:"Weight"`
	Epoch  int      `json:"epoch"`
	Loss   *float64 `json:"loss,omitempty"`
}

// RunSpec identifies a run when it is opened.
type RunSpec struct {
	Project string
	Group   string
	JobType string
	Repeat  int
}

type RunInfo struct {
	ID         uuid.UUID      `json:"id"`
	Project    string         `json:"project"`
	Group      string         `json:"group"`
	JobType    string         `json:"job_type"`
	Repeat     int            `json:"repeat"`
	Status     Status         `json:"status"`
	Config     map[string]any `json:"config,omitempty"`
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt *time.Time     `json:"finished_at,omitempty"`
}

type Tracker interface {
	Init(ctx context.Context, spec RunSpec) (Run, error)
	Close() error
}

type Run interface {
	ID() uuid.UUID
	UpdateConfig(ctx context.Context, cfg map[string]any) error
	Log(ctx context.Context, rec Record) error
	Finish(ctx context.Context, status Status) error
}

// Reader serves tracked runs back, newest first.
type Reader interface {
	ListRuns(ctx context.Context, project string, page, size int) (*pagination.OffsetResult[RunInfo], error)
	GetRun(ctx context.Context, id uuid.UUID) (*RunInfo, error)
	Metrics(ctx context.Context, id uuid.UUID) ([]Record, error)
}

type Type string

const (
	File  Type = "file"
	PG    Type = "pg"
	ES    Type = "es"
	InMem Type = "in_mem"
)

type TrackerError string

const (
	ErrUnsupportedTracker TrackerError = "unsupported tracker type: %s"
	ErrRunFinished        TrackerError = "run already finished"
)

func (e TrackerError) Error() string {
	return string(e)
}

// NewRunInfo fills the fields every backend sets the same way on Init.
func NewRunInfo(spec RunSpec) RunInfo {
	group := spec.Group
	if group == "" {
		group = DefaultGroup
	}
	return RunInfo{
		ID:        uuid.New(),
		Project:   spec.Project,
		Group:     group,
		JobType:   spec.JobType,
		Repeat:    spec.Repeat,
		Status:    StatusRunning,
		StartedAt: time.Now().UTC(),
	}
}
