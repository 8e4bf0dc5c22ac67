package report

import (
	"time"

	"github.com/DjordjeVuckovic/jart-trainer/internal/trainer"
)

type Report struct {
	Timestamp    time.Time           `json:"timestamp"`
	Project      string              `json:"project"`
	Device       string              `json:"device"`
	LearningRate float64             `json:"learning_rate"`
	Epochs       int                 `json:"epochs"`
	Target       float64             `json:"target"`
	Repeats      []RepeatEntry       `json:"repeats"`
	Stats        trainer.WeightStats `json:"stats"`
}

type RepeatEntry struct {
	Index       int           `json:"index"`
	RunID       string        `json:"run_id"`
	Placement   string        `json:"placement"`
	FinalWeight float64       `json:"final_weight"`
	AbsError    float64       `json:"abs_error"`
	FinalLoss   *float64      `json:"final_loss,omitempty"`
	Duration    time.Duration `json:"duration_ns"`
}

// Build summarises a training result against the slope it was fitted to.
func Build(res *trainer.Result, target float64) *Report {
	r := &Report{
		Timestamp:    time.Now().UTC(),
		Project:      res.Project,
		Device:       res.Device,
		LearningRate: res.LearningRate,
		Epochs:       res.Epochs,
		Target:       target,
		Repeats:      make([]RepeatEntry, 0, len(res.Repeats)),
		Stats:        res.Stats,
	}

	for _, rr := range res.Repeats {
		w := rr.FinalWeight()
		e := RepeatEntry{
			Index:       rr.Index,
			RunID:       rr.RunID.String(),
			Placement:   rr.Placement,
			FinalWeight: w,
			AbsError:    abs(w - target),
			Duration:    rr.Duration,
		}
		if loss, ok := rr.FinalLoss(); ok {
			e.FinalLoss = &loss
		}
		r.Repeats = append(r.Repeats, e)
	}
	return r
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
