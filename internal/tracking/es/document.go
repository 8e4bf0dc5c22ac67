package es

import (
	"fmt"
	"time"

	"github.com/DjordjeVuckovic/jart-trainer/internal/tracking"
	"github.com/elastic/go-elasticsearch/v8/typedapi/types"
	"github.com/google/uuid"
)

type RunDocument struct {
	ID         string         `json:"id"`
	Project    string         `json:"project"`
	Group      string         `json:"group"`
	JobType    string         `json:"job_type"`
	Repeat     int            `json:"repeat"`
	Status     string         `json:"status"`
	Config     map[string]any `json:"config,omitempty"`
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt *time.Time     `json:"finished_at,omitempty"`
}

type MetricDocument struct {
	RunID  string   `json:"run_id"`
	Epoch  int      `json:"epoch"`
	Weight float64  `json:"weight"`
	Loss   *float64 `json:"loss,omitempty"`
}

func toRunDocument(info tracking.RunInfo) RunDocument {
	return RunDocument{
		ID:         info.ID.String(),
		Project:    info.Project,
		Group:      info.Group,
		JobType:    info.JobType,
		Repeat:     info.Repeat,
		Status:     string(info.Status),
		Config:     info.Config,
		StartedAt:  info.StartedAt,
		FinishedAt: info.FinishedAt,
	}
}

func (d RunDocument) toRunInfo() (tracking.RunInfo, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return tracking.RunInfo{}, fmt.Errorf("failed to parse run ID %q: %w", d.ID, err)
	}
	return tracking.RunInfo{
		ID:         id,
		Project:    d.Project,
		Group:      d.Group,
		JobType:    d.JobType,
		Repeat:     d.Repeat,
		Status:     tracking.Status(d.Status),
		Config:     d.Config,
		StartedAt:  d.StartedAt,
		FinishedAt: d.FinishedAt,
	}, nil
}

func toMetricDocument(runID uuid.UUID, rec tracking.Record) MetricDocument {
	return MetricDocument{
		RunID:  runID.String(),
		Epoch:  rec.Epoch,
		Weight: rec.Weight,
		Loss:   rec.Loss,
	}
}

func metricDocumentID(runID uuid.UUID, epoch int) string {
	return fmt.Sprintf("%s-%d", runID, epoch)
}

func runsMapping() types.TypeMapping {
	disabled := false
	config := types.NewObjectProperty()
	config.Enabled = &disabled

	return types.TypeMapping{
		Properties: map[string]types.Property{
			"id":          types.NewKeywordProperty(),
			"project":     types.NewKeywordProperty(),
			"group":       types.NewKeywordProperty(),
			"job_type":    types.NewKeywordProperty(),
			"repeat":      types.NewIntegerNumberProperty(),
			"status":      types.NewKeywordProperty(),
			"config":      config,
			"started_at":  types.NewDateProperty(),
			"finished_at": types.NewDateProperty(),
		},
	}
}

func metricsMapping() types.TypeMapping {
	return types.TypeMapping{
		Properties: map[string]types.Property{
			"run_id": types.NewKeywordProperty(),
			"epoch":  types.NewIntegerNumberProperty(),
			"weight": types.NewDoubleNumberProperty(),
			"loss":   types.NewDoubleNumberProperty(),
		},
	}
}
