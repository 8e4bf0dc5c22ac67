// Package device models the resistive memory elements that store the weights
// of an analog layer. A device is read as a weight and written through
// Update, which a pulsed model turns into a train of SET or RESET pulses.
package device

import (
	"fmt"
	"math/rand/v2"
	"sync/atomic"

	"github.com/DjordjeVuckovic/jart-trainer/internal/config"
)

type Device interface {
	Weight() float64
	SetWeight(w float64) error
	Update(dw float64) error
}

// Factory creates one device per weight element.
type Factory func() (Device, error)

// NewFactory returns a factory for the named device model. A zero seed draws
// a random one, so runs are only reproducible with an explicit seed.
func NewFactory(model string, dc config.DeviceConfig, seed uint64) (Factory, error) {
	switch model {
	case config.DeviceIdeal:
		return func() (Device, error) { return NewIdeal(), nil }, nil
	case config.DeviceJARTv1b, "":
		p := ParamsFromConfig(dc)
		if err := p.Validate(); err != nil {
			return nil, err
		}
		if seed == 0 {
			seed = rand.Uint64()
		}
		var stream atomic.Uint64
		return func() (Device, error) {
			rng := rand.New(rand.NewPCG(seed, stream.Add(1)))
			return NewJARTv1b(p, rng)
		}, nil
	default:
		return nil, fmt.Errorf("unsupported device model: %s", model)
	}
}
