package report

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/DjordjeVuckovic/jart-trainer/internal/trainer"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleResult() *trainer.Result {
	res := &trainer.Result{
		Project:      "jart",
		Device:       "jart_v1b",
		LearningRate: 0.1,
		Epochs:       2,
		Repeats: []trainer.RepeatResult{
			{Index: 1, RunID: uuid.New(), Placement: "cpu", Weights: []float64{0, 0.6, 0.48}, Losses: []float64{0.75, 0.03}, Duration: 3 * time.Millisecond},
			{Index: 2, RunID: uuid.New(), Placement: "cpu", Weights: []float64{0}},
		},
	}
	res.Stats = trainer.ComputeWeightStats(res.FinalWeights())
	return res
}

func TestBuild(t *testing.T) {
	r := Build(sampleResult(), 0.5)

	require.Len(t, r.Repeats, 2)
	assert.Equal(t, 0.48, r.Repeats[0].FinalWeight)
	assert.InDelta(t, 0.02, r.Repeats[0].AbsError, 1e-12)
	require.NotNil(t, r.Repeats[0].FinalLoss)
	assert.Equal(t, 0.03, *r.Repeats[0].FinalLoss)

	assert.Nil(t, r.Repeats[1].FinalLoss, "no epochs, no loss")
	assert.Equal(t, 0.5, r.Repeats[1].AbsError)
	assert.Equal(t, 2, r.Stats.SampleCount)
}

func TestWriteTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteTable(Build(sampleResult(), 0.5), &buf))

	out := buf.String()
	assert.Contains(t, out, "=== jart ===")
	assert.Contains(t, out, "0.480000")
	assert.Contains(t, out, "3.00ms")
	assert.Contains(t, out, "N/A")
	assert.Contains(t, out, "across 2 repeats")
}

func TestWriteJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.json")
	require.NoError(t, WriteJSON(Build(sampleResult(), 0.5), path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var got Report
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, "jart", got.Project)
	assert.Len(t, got.Repeats, 2)
	assert.Equal(t, 0.5, got.Target)
}
