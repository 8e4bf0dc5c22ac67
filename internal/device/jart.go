package device

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
)

// JARTv1b is a reduced-order model of a filamentary VCM cell. The state is
// the oxygen-vacancy concentration Ndisc in the disc region; the read current
// grows with Ndisc and the disc cross-section, and shrinks with the disc length.
// SET pulses grow Ndisc towards Ndiscmax, RESET pulses shrink it towards Ndiscmin.
type JARTv1b struct {
	p   JARTv1bParams
	rng *rand.Rand

	ndiscmax float64
	ndiscmin float64
	ldet     float64
	rdet     float64
	wMax     float64
	wMin     float64

	ndisc float64
	w     float64

	currentMin float64
	currentMax float64
}

var ErrNonPhysicalState = errors.New("device reached a non-physical state")

// NewJARTv1b draws the device-to-device variation and returns a device at the
// nominal Ndiscmin, before any weight has been set.
func NewJARTv1b(p JARTv1bParams, rng *rand.Rand) (*JARTv1b, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	d := &JARTv1b{
		p:          p,
		rng:        rng,
		ndiscmax:   p.NdiscmaxVar.clamp(p.Ndiscmax + p.NdiscmaxVar.DeviceToDevice*rng.NormFloat64()),
		ndiscmin:   p.NdiscminVar.clamp(p.Ndiscmin + p.NdiscminVar.DeviceToDevice*rng.NormFloat64()),
		ldet:       p.LdetVar.clamp(p.Ldet + p.LdetVar.DeviceToDevice*rng.NormFloat64()),
		rdet:       p.RdetVar.clamp(p.Rdet + p.RdetVar.DeviceToDevice*rng.NormFloat64()),
		wMax:       p.WMax + p.WMaxVar.DeviceToDevice*rng.NormFloat64(),
		wMin:       p.WMin + p.WMinVar.DeviceToDevice*rng.NormFloat64(),
		currentMin: p.ReadVoltage * p.Ndiscmin,
		currentMax: p.ReadVoltage * p.Ndiscmax,
	}
	if err := d.checkState(); err != nil {
		return nil, err
	}
	if d.wMax <= d.wMin {
		return nil, fmt.Errorf("%w: sampled w_max %g <= w_min %g", ErrNonPhysicalState, d.wMax, d.wMin)
	}
	d.ndisc = d.clampNdisc(p.Ndiscmin)
	d.w = d.weightOf(d.ndisc)
	return d, nil
}

func (d *JARTv1b) Weight() float64 {
	return d.w
}

// Ndisc returns the current vacancy concentration in 1e26 m^-3.
func (d *JARTv1b) Ndisc() float64 {
	return d.ndisc
}

// SetWeight programs the device to w by inverting the read current mapping.
// The stored weight is w itself; it is re-read from Ndisc only after a pulse.
func (d *JARTv1b) SetWeight(w float64) error {
	if math.IsNaN(w) || math.IsInf(w, 0) {
		return fmt.Errorf("set weight: invalid value %v", w)
	}
	w = min(max(w, d.wMin), d.wMax)
	current := (w-d.wMin)/(d.wMax-d.wMin)*(d.currentMax-d.currentMin) + d.currentMin
	d.ndisc = d.clampNdisc(current / (d.p.ReadVoltage * d.geometry()))
	d.w = w
	return nil
}

// Update turns dw into a pulse train: positive changes SET, negative RESET.
// The pulse count is |dw| / dw_min rounded, capped at MaxPulses.
func (d *JARTv1b) Update(dw float64) error {
	if math.IsNaN(dw) || math.IsInf(dw, 0) {
		return fmt.Errorf("update: invalid weight change %v", dw)
	}
	if dw == 0 {
		return nil
	}

	set := dw > 0
	voltage := d.p.PulseVoltageRESET
	if set {
		voltage = d.p.PulseVoltageSET
	}

	dwMin := d.p.DwMin
	if dwMin <= 0 {
		dwMin = d.p.nominalDw(voltage)
	}
	if dwMin <= 0 {
		return fmt.Errorf("update: pulse at %gV does not change the device", voltage)
	}

	pulses := min(int(math.Round(math.Abs(dw)/dwMin)), d.p.MaxPulses)
	for range pulses {
		if err := d.pulse(voltage, set); err != nil {
			return err
		}
	}
	return nil
}

func (d *JARTv1b) pulse(voltage float64, set bool) error {
	dt := d.p.BaseTimeStep
	rate := d.p.SwitchingRate * math.Abs(voltage) * (d.p.Ndiscmax - d.p.Ndiscmin) * (d.p.Ldet / d.ldet)

	for range d.p.stepsPerPulse() {
		dn := rate * d.window(set) * dt
		if set {
			d.ndisc += dn
		} else {
			d.ndisc -= dn
		}
		d.ndisc = d.clampNdisc(d.ndisc)
	}

	d.w = d.weightOf(d.ndisc)
	return d.applyCycleNoise(voltage)
}

// window slows the drift as Ndisc approaches the bound it is moving towards.
func (d *JARTv1b) window(set bool) float64 {
	if set {
		return 1 - math.Pow(d.ndisc/d.ndiscmax, windowExponent)
	}
	if d.ndisc <= 0 {
		return 1
	}
	return 1 - math.Pow(d.ndiscmin/d.ndisc, windowExponent)
}

func (d *JARTv1b) applyCycleNoise(voltage float64) error {
	d.ndiscmax = d.perturb(d.ndiscmax, d.p.NdiscmaxVar, voltage)
	d.ndiscmin = d.perturb(d.ndiscmin, d.p.NdiscminVar, voltage)
	d.ldet = d.perturb(d.ldet, d.p.LdetVar, voltage)
	d.rdet = d.perturb(d.rdet, d.p.RdetVar, voltage)
	if err := d.checkState(); err != nil {
		return err
	}
	// the window assumes Ndisc lies inside the perturbed range
	d.ndisc = d.clampNdisc(d.ndisc)
	return nil
}

// perturb applies one cycle-to-cycle draw whose spread grows with the pulse amplitude.
func (d *JARTv1b) perturb(x float64, v Variation, voltage float64) float64 {
	std := v.Std + v.StdSlope*math.Abs(voltage)
	if std <= 0 {
		return x
	}
	return v.clamp(x + std*d.rng.NormFloat64())
}

func (d *JARTv1b) checkState() error {
	switch {
	case d.ldet <= 0:
		return fmt.Errorf("%w: ldet %g", ErrNonPhysicalState, d.ldet)
	case d.rdet <= 0:
		return fmt.Errorf("%w: rdet %g", ErrNonPhysicalState, d.rdet)
	case d.ndiscmin <= 0 || d.ndiscmax <= d.ndiscmin:
		return fmt.Errorf("%w: Ndisc range [%g, %g]", ErrNonPhysicalState, d.ndiscmin, d.ndiscmax)
	}
	return nil
}

// geometry scales the read current of a nominal cell to this one.
func (d *JARTv1b) geometry() float64 {
	return (d.rdet * d.rdet) / (d.p.Rdet * d.p.Rdet) * (d.p.Ldet / d.ldet)
}

func (d *JARTv1b) weightOf(ndisc float64) float64 {
	current := d.p.ReadVoltage * d.geometry() * ndisc
	w := (current-d.currentMin)/(d.currentMax-d.currentMin)*(d.wMax-d.wMin) + d.wMin
	return min(max(w, d.wMin), d.wMax)
}

func (d *JARTv1b) clampNdisc(n float64) float64 {
	return min(max(n, d.ndiscmin), d.ndiscmax)
}
