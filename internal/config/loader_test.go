package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/DjordjeVuckovic/jart-trainer/internal/apperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimalDoc = `
project_name: unit
CUDA_Enabled: true
USE_wandb: false
learning_rate: 0.1
epochs: 10
pulse_related:
  read_voltage: 0.2
  pulse_voltage_SET: -0.342
  pulse_voltage_RESET: 0.7543
  pulse_length: 1.0e-6
  base_time_step: 1.0e-8
noise:
  w_max: {device_to_device: 0.0}
  w_min: {device_to_device: 0.0}
  Ndiscmax: {device_to_device: 0.0, cycle_to_cycle_direct: 0.0, upper_bound: 40.0, lower_bound: 10.0}
  Ndiscmin: {device_to_device: 0.0, cycle_to_cycle_direct: 0.0, upper_bound: 0.016, lower_bound: 0.004}
  ldet: {device_to_device: 0.0, cycle_to_cycle_direct: 0.0, cycle_to_cycle_slope: 0.0, upper_bound: 0.8, lower_bound: 0.2}
  rdet: {device_to_device: 0.0, cycle_to_cycle_direct: 0.0, cycle_to_cycle_slope: 0.0, upper_bound: 90.0, lower_bound: 22.5}
`

func TestParse(t *testing.T) {
	t.Run("minimal document", func(t *testing.T) {
		cfg, err := Parse([]byte(minimalDoc))
		require.NoError(t, err)

		assert.Equal(t, "unit", cfg.Run.ProjectName)
		assert.True(t, cfg.Run.CUDAEnabled)
		assert.False(t, cfg.Run.UseTracking)
		assert.Equal(t, 0.1, cfg.Run.LearningRate)
		assert.Equal(t, 10, cfg.Run.Epochs)
		assert.Equal(t, 0.2, cfg.Device.Pulse.ReadVoltage)
		assert.Equal(t, -0.342, cfg.Device.Pulse.PulseVoltageSET)
		assert.Equal(t, 1.0e-6, cfg.Device.Pulse.PulseLength)
		assert.Equal(t, 40.0, cfg.Device.Noise.Ndiscmax.UpperBound)
		assert.Equal(t, 22.5, cfg.Device.Noise.Rdet.LowerBound)
	})

	t.Run("repeat times defaults to one", func(t *testing.T) {
		cfg, err := Parse([]byte(minimalDoc))
		require.NoError(t, err)
		assert.Equal(t, 1, cfg.Run.RepeatTimes)
	})

	t.Run("defaults applied", func(t *testing.T) {
		cfg, err := Parse([]byte(minimalDoc))
		require.NoError(t, err)
		assert.Equal(t, DeviceJARTv1b, cfg.Run.Device)
		assert.Equal(t, DefaultSlope, cfg.Run.Slope)
		assert.Equal(t, DefaultMaxPulses, cfg.Device.Pulse.MaxPulses)
		assert.Zero(t, cfg.Run.Seed)
	})

	t.Run("optional keys override defaults", func(t *testing.T) {
		doc := minimalDoc + "Repeat_Times: 3\nslope: 0.25\nseed: 7\ndevice: ideal\n"
		cfg, err := Parse([]byte(doc))
		require.NoError(t, err)
		assert.Equal(t, 3, cfg.Run.RepeatTimes)
		assert.Equal(t, 0.25, cfg.Run.Slope)
		assert.Equal(t, uint64(7), cfg.Run.Seed)
		assert.Equal(t, DeviceIdeal, cfg.Run.Device)
	})

	t.Run("missing top-level key", func(t *testing.T) {
		doc := strings.Replace(minimalDoc, "epochs: 10\n", "", 1)
		_, err := Parse([]byte(doc))
		require.Error(t, err)

		var ce *apperr.ConfigError
		require.True(t, errors.As(err, &ce))
		assert.Equal(t, "epochs", ce.Key)
		assert.ErrorIs(t, err, apperr.ErrMissingKey)
	})

	t.Run("missing nested key", func(t *testing.T) {
		doc := strings.Replace(minimalDoc, "cycle_to_cycle_slope: 0.0, upper_bound: 0.8", "upper_bound: 0.8", 1)
		_, err := Parse([]byte(doc))
		require.Error(t, err)

		var ce *apperr.ConfigError
		require.True(t, errors.As(err, &ce))
		assert.Equal(t, "noise.ldet.cycle_to_cycle_slope", ce.Key)
	})

	t.Run("slope is optional for Ndisc quantities", func(t *testing.T) {
		cfg, err := Parse([]byte(minimalDoc))
		require.NoError(t, err)
		assert.Zero(t, cfg.Device.Noise.Ndiscmax.CycleToCycleSlope)
	})

	t.Run("malformed yaml", func(t *testing.T) {
		_, err := Parse([]byte("project_name: [unterminated"))
		require.Error(t, err)

		var ce *apperr.ConfigError
		assert.True(t, errors.As(err, &ce))
	})

	t.Run("empty document", func(t *testing.T) {
		_, err := Parse([]byte(""))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "empty document")
	})

	t.Run("negative epochs", func(t *testing.T) {
		doc := strings.Replace(minimalDoc, "epochs: 10", "epochs: -1", 1)
		_, err := Parse([]byte(doc))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "must not be negative")
	})

	t.Run("zero repeat times", func(t *testing.T) {
		_, err := Parse([]byte(minimalDoc + "Repeat_Times: 0\n"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Repeat_Times")
	})

	t.Run("unknown device model", func(t *testing.T) {
		_, err := Parse([]byte(minimalDoc + "device: memristor\n"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown device model")
	})
}

func TestLoggable(t *testing.T) {
	cfg, err := Parse([]byte(minimalDoc + "Repeat_Times: 2\n"))
	require.NoError(t, err)

	view := cfg.Loggable()
	for _, k := range []string{"project_name", "CUDA_Enabled", "USE_wandb", "Repeat_Times"} {
		assert.NotContains(t, view, k)
	}
	assert.Equal(t, 0.1, view["learning_rate"])
	assert.Equal(t, 10, view["epochs"])
	assert.Contains(t, view, "pulse_related")

	t.Run("view does not alias the document", func(t *testing.T) {
		pulse := view["pulse_related"].(map[string]any)
		pulse["read_voltage"] = 99.0

		again := cfg.Loggable()
		assert.Equal(t, 0.2, again["pulse_related"].(map[string]any)["read_voltage"])
		assert.Equal(t, 0.2, cfg.Device.Pulse.ReadVoltage)
	})

	t.Run("run-control values stay on the config", func(t *testing.T) {
		assert.Equal(t, "unit", cfg.Run.ProjectName)
		assert.Equal(t, 2, cfg.Run.RepeatTimes)
	})
}

func TestLoadFromFile(t *testing.T) {
	t.Run("noise free fixture", func(t *testing.T) {
		cfg, err := LoadFromFile(filepath.Join("testdata", "noise_free.yml"))
		require.NoError(t, err)
		assert.Equal(t, 100, cfg.Run.Epochs)
		assert.Equal(t, uint64(42), cfg.Run.Seed)
		assert.False(t, cfg.Run.UseTracking)
	})

	t.Run("noisy fixture", func(t *testing.T) {
		cfg, err := LoadFromFile(filepath.Join("testdata", "noisy.yml"))
		require.NoError(t, err)
		assert.Equal(t, 5, cfg.Run.RepeatTimes)
		assert.True(t, cfg.Run.UseTracking)
		assert.Equal(t, 0.01, cfg.Device.Noise.Ldet.CycleToCycleSlope)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadFromFile(filepath.Join(t.TempDir(), "absent.yml"))
		require.Error(t, err)

		var ce *apperr.ConfigError
		require.True(t, errors.As(err, &ce))
		assert.True(t, errors.Is(err, os.ErrNotExist))
	})

	t.Run("path attached to key errors", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "partial.yml")
		doc := strings.Replace(minimalDoc, "USE_wandb: false\n", "", 1)
		require.NoError(t, os.WriteFile(path, []byte(doc), 0644))

		_, err := LoadFromFile(path)
		require.Error(t, err)

		var ce *apperr.ConfigError
		require.True(t, errors.As(err, &ce))
		assert.Equal(t, path, ce.Path)
		assert.Equal(t, "USE_wandb", ce.Key)
	})
}
