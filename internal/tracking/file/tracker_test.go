package file

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/DjordjeVuckovic/jart-trainer/internal/apperr"
	"github.com/DjordjeVuckovic/jart-trainer/internal/tracking"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTracker_WritesRunFile(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	tr, err := NewTracker(dir)
	require.NoError(t, err)

	run, err := tr.Init(ctx, tracking.RunSpec{Project: "jart/linear", JobType: "CPU", Repeat: 1})
	require.NoError(t, err)

	require.NoError(t, run.UpdateConfig(ctx, map[string]any{"epochs": 2, "learning_rate": 0.1}))
	loss := 0.5
	require.NoError(t, run.Log(ctx, tracking.Record{Weight: 0, Epoch: 0}))
	require.NoError(t, run.Log(ctx, tracking.Record{Weight: 0.6, Epoch: 1, Loss: &loss}))
	require.NoError(t, run.Finish(ctx, tracking.StatusFinished))

	path := filepath.Join(dir, "jart_linear", run.ID().String()+".jsonl")
	_, err = os.Stat(path)
	require.NoError(t, err)

	lines, err := ReadRun(path)
	require.NoError(t, err)
	require.Len(t, lines, 5)

	assert.Equal(t, EventInit, lines[0].Event)
	require.NotNil(t, lines[0].Run)
	assert.Equal(t, run.ID(), lines[0].Run.ID)
	assert.Equal(t, "CPU", lines[0].Run.JobType)

	assert.Equal(t, EventConfig, lines[1].Event)
	assert.Equal(t, float64(2), lines[1].Config["epochs"])

	assert.Equal(t, EventLog, lines[3].Event)
	require.NotNil(t, lines[3].Record)
	assert.Equal(t, 1, lines[3].Record.Epoch)
	assert.Equal(t, 0.6, lines[3].Record.Weight)
	require.NotNil(t, lines[3].Record.Loss)
	assert.Equal(t, 0.5, *lines[3].Record.Loss)

	assert.Equal(t, EventFinish, lines[4].Event)
	assert.Equal(t, tracking.StatusFinished, lines[4].Status)
	assert.NotNil(t, lines[4].FinishedAt)

	t.Run("finished run rejects writes", func(t *testing.T) {
		assert.ErrorIs(t, run.Log(ctx, tracking.Record{}), tracking.ErrRunFinished)
	})
}

// flakyFile fails its first writes, optionally after writing a prefix of
// the buffer, then passes writes through to the file.
type flakyFile struct {
	f        *os.File
	failures int
	partial  int
}

func (w *flakyFile) Write(p []byte) (int, error) {
	if w.failures == 0 {
		return w.f.Write(p)
	}
	w.failures--
	n, _ := w.f.Write(p[:min(w.partial, len(p))])
	return n, errors.New("disk full")
}

func (w *flakyFile) Close() error {
	return w.f.Close()
}

func TestRun_FinishAfterFailedFinish(t *testing.T) {
	tests := []struct {
		name    string
		partial int
	}{
		{"nothing written", 0},
		{"partly written", 7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			path := filepath.Join(t.TempDir(), "run.jsonl")
			f, err := os.Create(path)
			require.NoError(t, err)

			out := &flakyFile{f: f, failures: 1, partial: tt.partial}
			info := tracking.NewRunInfo(tracking.RunSpec{Project: "p", Repeat: 1})
			r, err := startRun(info, path, out)
			require.NoError(t, err)

			require.NoError(t, r.Log(ctx, tracking.Record{Epoch: 0, Weight: 0}))
			require.NoError(t, r.Log(ctx, tracking.Record{Epoch: 1, Weight: 0.6}))

			require.Error(t, r.Finish(ctx, tracking.StatusFinished))
			require.NoError(t, r.Finish(ctx, tracking.StatusFailed))
			assert.ErrorIs(t, r.Finish(ctx, tracking.StatusFailed), tracking.ErrRunFinished)

			got, records, err := load(path)
			require.NoError(t, err)
			assert.Equal(t, info.ID, got.ID)
			assert.Equal(t, tracking.StatusFailed, got.Status)
			assert.NotNil(t, got.FinishedAt)
			require.Len(t, records, 2)
			assert.Equal(t, 0.6, records[1].Weight)
		})
	}
}

func TestProjectDirName(t *testing.T) {
	assert.Equal(t, "default", projectDirName(""))
	assert.Equal(t, "default", projectDirName(".."))
	assert.Equal(t, "a_b", projectDirName("a/b"))
	assert.Equal(t, "proj", projectDirName(" proj "))
}

func TestReader(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	tr, err := NewTracker(dir)
	require.NoError(t, err)
	reader := NewReader(dir)

	finished, err := tr.Init(ctx, tracking.RunSpec{Project: "a", Repeat: 1})
	require.NoError(t, err)
	require.NoError(t, finished.UpdateConfig(ctx, map[string]any{"epochs": 1}))
	require.NoError(t, finished.Log(ctx, tracking.Record{Weight: 0, Epoch: 0}))
	require.NoError(t, finished.Log(ctx, tracking.Record{Weight: 0.6, Epoch: 1}))
	require.NoError(t, finished.Finish(ctx, tracking.StatusFinished))

	other, err := tr.Init(ctx, tracking.RunSpec{Project: "b", Repeat: 1})
	require.NoError(t, err)
	require.NoError(t, other.Finish(ctx, tracking.StatusFailed))

	t.Run("get run folds events", func(t *testing.T) {
		info, err := reader.GetRun(ctx, finished.ID())
		require.NoError(t, err)
		assert.Equal(t, tracking.StatusFinished, info.Status)
		assert.Equal(t, float64(1), info.Config["epochs"])
		assert.NotNil(t, info.FinishedAt)
	})

	t.Run("metrics in order", func(t *testing.T) {
		records, err := reader.Metrics(ctx, finished.ID())
		require.NoError(t, err)
		require.Len(t, records, 2)
		assert.Equal(t, 0.6, records[1].Weight)
	})

	t.Run("list filters by project", func(t *testing.T) {
		res, err := reader.ListRuns(ctx, "b", 1, 10)
		require.NoError(t, err)
		require.Len(t, res.Items, 1)
		assert.Equal(t, tracking.StatusFailed, res.Items[0].Status)

		res, err = reader.ListRuns(ctx, "", 0, 0)
		require.NoError(t, err)
		assert.Equal(t, int64(2), res.Total)
	})

	t.Run("unknown run", func(t *testing.T) {
		_, err := reader.GetRun(ctx, uuid.New())
		assert.ErrorIs(t, err, apperr.ErrNotFound)
	})
}
