// Package trainer fits the single-weight analog layer to the fixed dataset,
// once per configured repetition, and streams every observed weight to a
// tracking sink.
package trainer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/DjordjeVuckovic/jart-trainer/internal/accel"
	"github.com/DjordjeVuckovic/jart-trainer/internal/analog"
	"github.com/DjordjeVuckovic/jart-trainer/internal/apperr"
	"github.com/DjordjeVuckovic/jart-trainer/internal/config"
	"github.com/DjordjeVuckovic/jart-trainer/internal/device"
	"github.com/DjordjeVuckovic/jart-trainer/internal/tracking"
)

var ErrNoTracker = errors.New("tracking enabled but no tracker configured")

// FactoryFunc builds the device factory for one repetition (1-based).
type FactoryFunc func(repeat int) (device.Factory, error)

type Trainer struct {
	cfg       *config.Config
	tracker   tracking.Tracker
	out       io.Writer
	probe     func() accel.Info
	factoryFn FactoryFunc
}

type Option func(*Trainer)

// WithTracker sets the sink used when the document enables tracking.
func WithTracker(tr tracking.Tracker) Option {
	return func(t *Trainer) { t.tracker = tr }
}

// WithOutput sets where observations are printed when tracking is off.
func WithOutput(w io.Writer) Option {
	return func(t *Trainer) { t.out = w }
}

// WithAccelerator replaces the CUDA probe with a fixed result.
func WithAccelerator(info accel.Info) Option {
	return func(t *Trainer) { t.probe = func() accel.Info { return info } }
}

// WithDeviceFactory overrides how each repeat builds its device factory.
func WithDeviceFactory(fn FactoryFunc) Option {
	return func(t *Trainer) { t.factoryFn = fn }
}

// New returns ErrNoTracker when the config enables tracking and no tracker is set.
func New(cfg *config.Config, opts ...Option) (*Trainer, error) {
	if cfg == nil {
		return nil, errors.New("nil config")
	}
	t := &Trainer{
		cfg:   cfg,
		out:   os.Stdout,
		probe: accel.Probe,
	}
	t.factoryFn = t.defaultFactory
	for _, opt := range opts {
		opt(t)
	}
	if cfg.Run.UseTracking && t.tracker == nil {
		return nil, ErrNoTracker
	}
	return t, nil
}

// Run executes every repetition in order. On error the partial result holds
// the repetitions that completed.
func (t *Trainer) Run(ctx context.Context) (*Result, error) {
	rc := t.cfg.Run
	res := &Result{
		Project:      rc.ProjectName,
		Device:       rc.Device,
		LearningRate: rc.LearningRate,
		Epochs:       rc.Epochs,
	}

	placement := t.placement()
	sink := t.sink()

	for repeat := 1; repeat <= rc.RepeatTimes; repeat++ {
		rr, err := t.runOnce(ctx, sink, repeat, placement)
		if err != nil {
			res.Stats = ComputeWeightStats(res.FinalWeights())
			return res, fmt.Errorf("repeat %d: %w", repeat, err)
		}
		res.Repeats = append(res.Repeats, *rr)
		slog.Debug("Repeat finished", "repeat", repeat, "weight", rr.FinalWeight(), "duration", rr.Duration)
	}

	res.Stats = ComputeWeightStats(res.FinalWeights())
	return res, nil
}

func (t *Trainer) placement() string {
	rc := t.cfg.Run
	if !rc.CUDAEnabled {
		return accel.PlacementCPU
	}
	info := t.probe()
	placement := accel.Placement(rc.CUDAEnabled, info)
	if placement == accel.PlacementCUDA {
		slog.Info("Training on CUDA", "device", info.Name, "count", info.DeviceCount)
	} else {
		slog.Debug("CUDA requested but not available, training on CPU")
	}
	return placement
}

func (t *Trainer) sink() tracking.Tracker {
	if t.cfg.Run.UseTracking {
		return t.tracker
	}
	return tracking.NewPrinter(t.out)
}

func (t *Trainer) runOnce(ctx context.Context, sink tracking.Tracker, repeat int, placement string) (_ *RepeatResult, err error) {
	rc := t.cfg.Run
	started := time.Now()

	run, err := sink.Init(ctx, tracking.RunSpec{
		Project: rc.ProjectName,
		Group:   tracking.DefaultGroup,
		JobType: accel.JobType(placement),
		Repeat:  repeat,
	})
	if err != nil {
		return nil, fmt.Errorf("init tracking run: %w", err)
	}
	defer func() {
		if err == nil {
			return
		}
		// the run is closed even when ctx is already cancelled
		if ferr := run.Finish(context.WithoutCancel(ctx), tracking.StatusFailed); ferr != nil {
			slog.Warn("Failed to finish tracking run", "id", run.ID(), "error", ferr)
		}
	}()

	if err := run.UpdateConfig(ctx, t.cfg.Loggable()); err != nil {
		return nil, fmt.Errorf("update tracking config: %w", err)
	}

	ds := NewDataset(rc.Slope)
	layer, opt, err := t.buildModel(repeat)
	if err != nil {
		return nil, err
	}

	rr := &RepeatResult{
		Index:     repeat,
		RunID:     run.ID(),
		Placement: placement,
		Weights:   make([]float64, 0, rc.Epochs+1),
		Losses:    make([]float64, 0, rc.Epochs),
	}

	emit := func(epoch int, loss *float64) error {
		w := layer.Weights()[0][0]
		rr.Weights = append(rr.Weights, w)
		if loss != nil {
			rr.Losses = append(rr.Losses, *loss)
		}
		if err := run.Log(ctx, tracking.Record{Weight: w, Epoch: epoch, Loss: loss}); err != nil {
			return fmt.Errorf("log epoch %d: %w", epoch, err)
		}
		return nil
	}

	if err := emit(0, nil); err != nil {
		return nil, err
	}

	for epoch := range rc.Epochs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		loss, err := trainEpoch(layer, opt, ds)
		if err != nil {
			return nil, fmt.Errorf("epoch %d: %w", epoch, err)
		}
		if err := emit(epoch+1, &loss); err != nil {
			return nil, err
		}
	}

	if err := run.Finish(ctx, tracking.StatusFinished); err != nil {
		return nil, fmt.Errorf("finish tracking run: %w", err)
	}
	rr.Duration = time.Since(started)
	return rr, nil
}

func (t *Trainer) buildModel(repeat int) (*analog.Linear, *analog.SGD, error) {
	factory, err := t.factoryFn(repeat)
	if err != nil {
		return nil, nil, apperr.NewLibrary("create device factory", err)
	}
	layer, err := analog.NewLinear(1, 1, factory)
	if err != nil {
		return nil, nil, apperr.NewLibrary("create analog layer", err)
	}
	if err := layer.SetWeights([][]float64{{0}}); err != nil {
		return nil, nil, apperr.NewLibrary("set initial weight", err)
	}
	opt, err := analog.NewSGD(layer, t.cfg.Run.LearningRate)
	if err != nil {
		return nil, nil, apperr.NewLibrary("create optimizer", err)
	}
	return layer, opt, nil
}

// trainEpoch runs one full-batch step and returns the loss before the update.
func trainEpoch(layer *analog.Linear, opt *analog.SGD, ds Dataset) (float64, error) {
	pred, err := layer.Forward(ds.X)
	if err != nil {
		return 0, apperr.NewLibrary("forward", err)
	}
	loss, err := analog.MSE(pred, ds.Y)
	if err != nil {
		return 0, apperr.NewLibrary("loss", err)
	}
	grad, err := analog.MSEBackward(pred, ds.Y)
	if err != nil {
		return 0, apperr.NewLibrary("loss backward", err)
	}
	if err := layer.Backward(ds.X, grad); err != nil {
		return 0, apperr.NewLibrary("backward", err)
	}
	if err := opt.Step(); err != nil {
		return 0, apperr.NewLibrary("optimizer step", err)
	}
	return loss, nil
}

// defaultFactory offsets an explicit seed by the repetition so repeats draw
// different devices while the whole run stays reproducible.
func (t *Trainer) defaultFactory(repeat int) (device.Factory, error) {
	seed := t.cfg.Run.Seed
	if seed != 0 {
		seed += uint64(repeat - 1)
	}
	return device.NewFactory(t.cfg.Run.Device, t.cfg.Device, seed)
}
