package trainer

import (
	"time"

	"github.com/google/uuid"
)

// RepeatResult is the trajectory of one repetition. Weights[i] is the weight
// observed at epoch i; Losses[i] is the loss of the epoch that produced
// Weights[i+1].
type RepeatResult struct {
	Index     int           `json:"index"`
	RunID     uuid.UUID     `json:"run_id"`
	Placement string        `json:"placement"`
	Weights   []float64     `json:"weights"`
	Losses    []float64     `json:"losses"`
	Duration  time.Duration `json:"duration"`
}

func (r RepeatResult) FinalWeight() float64 {
	if len(r.Weights) == 0 {
		return 0
	}
	return r.Weights[len(r.Weights)-1]
}

func (r RepeatResult) FinalLoss() (float64, bool) {
	if len(r.Losses) == 0 {
		return 0, false
	}
	return r.Losses[len(r.Losses)-1], true
}

type Result struct {
	Project      string         `json:"project"`
	Device       string         `json:"device"`
	LearningRate float64        `json:"learning_rate"`
	Epochs       int            `json:"epochs"`
	Repeats      []RepeatResult `json:"repeats"`
	Stats        WeightStats    `json:"stats"`
}

func (r *Result) FinalWeights() []float64 {
	out := make([]float64, len(r.Repeats))
	for i, rr := range r.Repeats {
		out[i] = rr.FinalWeight()
	}
	return out
}
