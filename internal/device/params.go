package device

import (
	"errors"
	"fmt"
	"math"

	"github.com/DjordjeVuckovic/jart-trainer/internal/config"
)

// Nominal JART v1b quantities. Concentrations are in 1e26 m^-3, lengths in nm.
const (
	DefaultNdiscmax = 20.0
	DefaultNdiscmin = 0.008
	DefaultLdet     = 0.4
	DefaultRdet     = 45.0
	DefaultWMax     = 1.0
	DefaultWMin     = -1.0

	// DefaultSwitchingRate is the fraction of the nominal disc range moved per
	// second and per volt, before the window function.
	DefaultSwitchingRate = 3000.0

	windowExponent = 10
)

// Variation is the noise model of one device quantity.
type Variation struct {
	DeviceToDevice float64
	Std            float64
	StdSlope       float64
	Upper          float64
	Lower          float64
}

// clamp applies the bounds; a zero range means unbounded.
func (v Variation) clamp(x float64) float64 {
	if v.Upper == 0 && v.Lower == 0 {
		return x
	}
	if x > v.Upper {
		return v.Upper
	}
	if x < v.Lower {
		return v.Lower
	}
	return x
}

type JARTv1bParams struct {
	ReadVoltage       float64
	PulseVoltageSET   float64
	PulseVoltageRESET float64
	PulseLength       float64
	BaseTimeStep      float64
	MaxPulses         int
	DwMin             float64
	SwitchingRate     float64

	Ndiscmax float64
	Ndiscmin float64
	Ldet     float64
	Rdet     float64
	WMax     float64
	WMin     float64

	NdiscmaxVar Variation
	NdiscminVar Variation
	LdetVar     Variation
	RdetVar     Variation
	WMaxVar     Variation
	WMinVar     Variation
}

func DefaultJARTv1bParams() JARTv1bParams {
	return JARTv1bParams{
		ReadVoltage:       0.2,
		PulseVoltageSET:   -0.342,
		PulseVoltageRESET: 0.7543,
		PulseLength:       1e-6,
		BaseTimeStep:      1e-8,
		MaxPulses:         config.DefaultMaxPulses,
		SwitchingRate:     DefaultSwitchingRate,
		Ndiscmax:          DefaultNdiscmax,
		Ndiscmin:          DefaultNdiscmin,
		Ldet:              DefaultLdet,
		Rdet:              DefaultRdet,
		WMax:              DefaultWMax,
		WMin:              DefaultWMin,
	}
}

func ParamsFromConfig(dc config.DeviceConfig) JARTv1bParams {
	p := DefaultJARTv1bParams()
	p.ReadVoltage = dc.Pulse.ReadVoltage
	p.PulseVoltageSET = dc.Pulse.PulseVoltageSET
	p.PulseVoltageRESET = dc.Pulse.PulseVoltageRESET
	p.PulseLength = dc.Pulse.PulseLength
	p.BaseTimeStep = dc.Pulse.BaseTimeStep
	if dc.Pulse.MaxPulses > 0 {
		p.MaxPulses = dc.Pulse.MaxPulses
	}
	p.DwMin = dc.Pulse.DwMin

	p.NdiscmaxVar = variation(dc.Noise.Ndiscmax)
	p.NdiscminVar = variation(dc.Noise.Ndiscmin)
	p.LdetVar = variation(dc.Noise.Ldet)
	p.RdetVar = variation(dc.Noise.Rdet)
	p.WMaxVar = Variation{DeviceToDevice: dc.Noise.WMax.DeviceToDevice}
	p.WMinVar = Variation{DeviceToDevice: dc.Noise.WMin.DeviceToDevice}
	return p
}

func variation(v config.Variability) Variation {
	return Variation{
		DeviceToDevice: v.DeviceToDevice,
		Std:            v.CycleToCycleDirect,
		StdSlope:       v.CycleToCycleSlope,
		Upper:          v.UpperBound,
		Lower:          v.LowerBound,
	}
}

var errInvalidParams = errors.New("invalid JART v1b parameters")

func (p JARTv1bParams) Validate() error {
	switch {
	case p.ReadVoltage == 0:
		return fmt.Errorf("%w: read voltage must be non-zero", errInvalidParams)
	case p.BaseTimeStep <= 0:
		return fmt.Errorf("%w: base time step must be positive, got %g", errInvalidParams, p.BaseTimeStep)
	case p.PulseLength < p.BaseTimeStep:
		return fmt.Errorf("%w: pulse length %g is shorter than base time step %g", errInvalidParams, p.PulseLength, p.BaseTimeStep)
	case p.Ndiscmax <= p.Ndiscmin:
		return fmt.Errorf("%w: Ndiscmax %g must exceed Ndiscmin %g", errInvalidParams, p.Ndiscmax, p.Ndiscmin)
	case p.WMax <= p.WMin:
		return fmt.Errorf("%w: w_max %g must exceed w_min %g", errInvalidParams, p.WMax, p.WMin)
	case p.MaxPulses <= 0:
		return fmt.Errorf("%w: max pulses must be positive, got %d", errInvalidParams, p.MaxPulses)
	}
	return nil
}

func (p JARTv1bParams) stepsPerPulse() int {
	n := int(p.PulseLength/p.BaseTimeStep + 0.5)
	return max(n, 1)
}

// nominalDw is the weight change of one pulse at voltage v on a nominal
// device, ignoring the window function.
func (p JARTv1bParams) nominalDw(v float64) float64 {
	return p.SwitchingRate * math.Abs(v) * float64(p.stepsPerPulse()) * p.BaseTimeStep * (p.WMax - p.WMin)
}
