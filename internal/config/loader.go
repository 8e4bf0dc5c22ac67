package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/DjordjeVuckovic/jart-trainer/internal/apperr"
	"gopkg.in/yaml.v3"
)

// LoadFromFile reads and parses the training document at path.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, apperr.NewConfigWrap(path, fmt.Errorf("read config file: %w", err))
	}
	cfg, err := Parse(data)
	if err != nil {
		var ce *apperr.ConfigError
		if errors.As(err, &ce) && ce.Path == "" {
			ce.Path = path
		}
		return nil, err
	}
	return cfg, nil
}

// Parse decodes a training document and checks that every required key is
// present before anything else reads it.
func Parse(data []byte) (*Config, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, apperr.NewConfigWrap("", fmt.Errorf("parse config YAML: %w", err))
	}
	if raw == nil {
		return nil, apperr.NewConfigWrap("", errors.New("empty document"))
	}
	for _, key := range requiredKeys {
		if !hasKey(raw, key) {
			return nil, apperr.NewMissingKey(key)
		}
	}

	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, apperr.NewConfigWrap("", fmt.Errorf("decode config: %w", err))
	}

	cfg := &Config{
		Run: RunConfig{
			ProjectName:  doc.ProjectName,
			CUDAEnabled:  doc.CUDAEnabled,
			UseTracking:  doc.UseWandb,
			RepeatTimes:  DefaultRepeatTimes,
			LearningRate: doc.LearningRate,
			Epochs:       doc.Epochs,
			Slope:        DefaultSlope,
			Seed:         doc.Seed,
			Device:       doc.Device,
		},
		Device: DeviceConfig{
			Pulse: doc.Pulse,
			Noise: doc.Noise,
		},
		raw: raw,
	}
	if doc.RepeatTimes != nil {
		cfg.Run.RepeatTimes = *doc.RepeatTimes
	}
	if doc.Slope != nil {
		cfg.Run.Slope = *doc.Slope
	}
	if cfg.Run.Device == "" {
		cfg.Run.Device = DeviceJARTv1b
	}
	if cfg.Device.Pulse.MaxPulses <= 0 {
		cfg.Device.Pulse.MaxPulses = DefaultMaxPulses
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func validate(cfg *Config) error {
	if cfg.Run.Epochs < 0 {
		return &apperr.ConfigError{Key: "epochs", Err: fmt.Errorf("must not be negative, got %d", cfg.Run.Epochs)}
	}
	if cfg.Run.RepeatTimes < 1 {
		return &apperr.ConfigError{Key: "Repeat_Times", Err: fmt.Errorf("must be at least 1, got %d", cfg.Run.RepeatTimes)}
	}
	switch cfg.Run.Device {
	case DeviceJARTv1b, DeviceIdeal:
	default:
		return &apperr.ConfigError{Key: "device", Err: fmt.Errorf("unknown device model %q", cfg.Run.Device)}
	}
	return nil
}

// hasKey reports whether the dotted key path resolves to a value in doc.
func hasKey(doc map[string]any, path string) bool {
	var cur any = doc
	for _, part := range strings.Split(path, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return false
		}
		v, ok := m[part]
		if !ok {
			return false
		}
		cur = v
	}
	return true
}

// Loggable returns a copy of the document without the run-control keys.
// The returned map is owned by the caller.
func (c *Config) Loggable() map[string]any {
	out := make(map[string]any, len(c.raw))
	for k, v := range c.raw {
		out[k] = deepCopy(v)
	}
	for _, k := range controlKeys {
		delete(out, k)
	}
	return out
}

func deepCopy(v any) any {
	switch t := v.(type) {
	case map[string]any:
		m := make(map[string]any, len(t))
		for k, vv := range t {
			m[k] = deepCopy(vv)
		}
		return m
	case []any:
		s := make([]any, len(t))
		for i, vv := range t {
			s[i] = deepCopy(vv)
		}
		return s
	default:
		return v
	}
}
