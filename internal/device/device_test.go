package device

import (
	"math/rand/v2"
	"testing"

	"github.com/DjordjeVuckovic/jart-trainer/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noiseFreeParams() JARTv1bParams {
	p := DefaultJARTv1bParams()
	p.NdiscmaxVar = Variation{Upper: 40, Lower: 10}
	p.NdiscminVar = Variation{Upper: 0.016, Lower: 0.004}
	p.LdetVar = Variation{Upper: 0.8, Lower: 0.2}
	p.RdetVar = Variation{Upper: 90, Lower: 22.5}
	return p
}

func noisyParams() JARTv1bParams {
	p := noiseFreeParams()
	p.NdiscmaxVar.DeviceToDevice = 1.0
	p.NdiscmaxVar.Std = 0.1
	p.NdiscminVar.DeviceToDevice = 0.0004
	p.NdiscminVar.Std = 0.00004
	p.LdetVar.DeviceToDevice = 0.02
	p.LdetVar.Std = 0.002
	p.LdetVar.StdSlope = 0.01
	p.RdetVar.DeviceToDevice = 2.0
	p.RdetVar.Std = 0.2
	p.RdetVar.StdSlope = 0.01
	return p
}

func newRNG(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, 1))
}

func TestIdeal(t *testing.T) {
	d := NewIdeal()
	assert.Zero(t, d.Weight())

	require.NoError(t, d.SetWeight(0.25))
	require.NoError(t, d.Update(0.5))
	assert.Equal(t, 0.75, d.Weight())

	require.NoError(t, d.Update(-2))
	assert.Equal(t, -1.25, d.Weight())
}

func TestJARTv1b_SetWeight(t *testing.T) {
	d, err := NewJARTv1b(noiseFreeParams(), newRNG(1))
	require.NoError(t, err)

	t.Run("weight is stored exactly", func(t *testing.T) {
		require.NoError(t, d.SetWeight(0))
		assert.Equal(t, 0.0, d.Weight())
		assert.InDelta(t, (DefaultNdiscmax+DefaultNdiscmin)/2, d.Ndisc(), 1e-9)
	})

	t.Run("weight is clamped to bounds", func(t *testing.T) {
		require.NoError(t, d.SetWeight(5))
		assert.Equal(t, DefaultWMax, d.Weight())
		assert.InDelta(t, DefaultNdiscmax, d.Ndisc(), 1e-9)

		require.NoError(t, d.SetWeight(-5))
		assert.Equal(t, DefaultWMin, d.Weight())
	})

	t.Run("NaN rejected", func(t *testing.T) {
		assert.Error(t, d.SetWeight(nan()))
	})
}

func TestJARTv1b_Update(t *testing.T) {
	p := noiseFreeParams()
	dwSet := p.nominalDw(p.PulseVoltageSET)
	dwReset := p.nominalDw(p.PulseVoltageRESET)

	t.Run("zero change sends no pulses", func(t *testing.T) {
		d, err := NewJARTv1b(p, newRNG(1))
		require.NoError(t, err)
		require.NoError(t, d.SetWeight(0))
		before := d.Ndisc()

		require.NoError(t, d.Update(0))
		assert.Equal(t, 0.0, d.Weight())
		assert.Equal(t, before, d.Ndisc())
	})

	t.Run("change below half a pulse is dropped", func(t *testing.T) {
		d, err := NewJARTv1b(p, newRNG(1))
		require.NoError(t, err)
		require.NoError(t, d.SetWeight(0))

		require.NoError(t, d.Update(dwSet/4))
		assert.Equal(t, 0.0, d.Weight())
	})

	t.Run("SET increases weight by about n pulses", func(t *testing.T) {
		d, err := NewJARTv1b(p, newRNG(1))
		require.NoError(t, err)
		require.NoError(t, d.SetWeight(0))

		require.NoError(t, d.Update(5*dwSet))
		assert.Greater(t, d.Weight(), 0.0)
		assert.InDelta(t, 5*dwSet, d.Weight(), dwSet/2)
	})

	t.Run("RESET decreases weight", func(t *testing.T) {
		d, err := NewJARTv1b(p, newRNG(1))
		require.NoError(t, err)
		require.NoError(t, d.SetWeight(0))

		require.NoError(t, d.Update(-3*dwReset))
		assert.Less(t, d.Weight(), 0.0)
		assert.InDelta(t, -3*dwReset, d.Weight(), dwReset/2)
	})

	t.Run("pulse count is capped", func(t *testing.T) {
		d, err := NewJARTv1b(p, newRNG(1))
		require.NoError(t, err)
		require.NoError(t, d.SetWeight(0))

		require.NoError(t, d.Update(10))
		assert.LessOrEqual(t, d.Weight(), float64(p.MaxPulses)*dwSet+1e-9)
	})

	t.Run("saturates below w_max", func(t *testing.T) {
		d, err := NewJARTv1b(p, newRNG(1))
		require.NoError(t, err)
		require.NoError(t, d.SetWeight(0))

		for range 200 {
			require.NoError(t, d.Update(1))
		}
		assert.LessOrEqual(t, d.Weight(), DefaultWMax)
		assert.Greater(t, d.Weight(), 0.8)
	})

	t.Run("configured dw_min overrides nominal step", func(t *testing.T) {
		q := p
		q.DwMin = 0.1
		d, err := NewJARTv1b(q, newRNG(1))
		require.NoError(t, err)
		require.NoError(t, d.SetWeight(0))

		// 0.3 / 0.1 = 3 pulses of the physical step
		require.NoError(t, d.Update(0.3))
		assert.InDelta(t, 3*dwSet, d.Weight(), dwSet/2)
	})
}

func TestJARTv1b_Noise(t *testing.T) {
	t.Run("device-to-device variation differs per device", func(t *testing.T) {
		rng := newRNG(3)
		a, err := NewJARTv1b(noisyParams(), rng)
		require.NoError(t, err)
		b, err := NewJARTv1b(noisyParams(), rng)
		require.NoError(t, err)

		require.NoError(t, a.SetWeight(0.5))
		require.NoError(t, b.SetWeight(0.5))
		assert.NotEqual(t, a.Ndisc(), b.Ndisc())
	})

	t.Run("same seed is reproducible", func(t *testing.T) {
		run := func() float64 {
			d, err := NewJARTv1b(noisyParams(), newRNG(11))
			require.NoError(t, err)
			require.NoError(t, d.SetWeight(0))
			for i := range 50 {
				dw := 0.02
				if i%3 == 0 {
					dw = -0.02
				}
				require.NoError(t, d.Update(dw))
			}
			return d.Weight()
		}
		assert.Equal(t, run(), run())
	})

	t.Run("cycle-to-cycle noise stays within bounds", func(t *testing.T) {
		p := noisyParams()
		p.LdetVar.Std = 10
		p.RdetVar.Std = 1000
		d, err := NewJARTv1b(p, newRNG(5))
		require.NoError(t, err)
		require.NoError(t, d.SetWeight(0))

		for range 20 {
			require.NoError(t, d.Update(0.05))
			require.NoError(t, d.Update(-0.05))
			assert.GreaterOrEqual(t, d.ldet, p.LdetVar.Lower)
			assert.LessOrEqual(t, d.ldet, p.LdetVar.Upper)
			assert.GreaterOrEqual(t, d.rdet, p.RdetVar.Lower)
			assert.LessOrEqual(t, d.rdet, p.RdetVar.Upper)
		}
	})

	t.Run("Ndisc follows a narrowed range", func(t *testing.T) {
		p := noiseFreeParams()
		p.NdiscmaxVar.Std = 5
		d, err := NewJARTv1b(p, newRNG(17))
		require.NoError(t, err)
		require.NoError(t, d.SetWeight(1))

		for i := range 40 {
			dw := 0.05
			if i%4 == 3 {
				dw = -0.05
			}
			require.NoError(t, d.Update(dw))
			assert.GreaterOrEqual(t, d.Ndisc(), d.ndiscmin)
			assert.LessOrEqual(t, d.Ndisc(), d.ndiscmax)
			assert.GreaterOrEqual(t, d.window(true), 0.0)
		}
	})

	t.Run("unbounded noise can break the device", func(t *testing.T) {
		p := noiseFreeParams()
		p.LdetVar = Variation{Std: 100}
		d, err := NewJARTv1b(p, newRNG(9))
		require.NoError(t, err)
		require.NoError(t, d.SetWeight(0))

		var updateErr error
		for range 100 {
			if updateErr = d.Update(0.05); updateErr != nil {
				break
			}
		}
		assert.ErrorIs(t, updateErr, ErrNonPhysicalState)
	})
}

func TestJARTv1bParams_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(p *JARTv1bParams)
		errMsg string
	}{
		{"zero read voltage", func(p *JARTv1bParams) { p.ReadVoltage = 0 }, "read voltage"},
		{"zero time step", func(p *JARTv1bParams) { p.BaseTimeStep = 0 }, "base time step"},
		{"short pulse", func(p *JARTv1bParams) { p.PulseLength = 1e-9 }, "pulse length"},
		{"inverted Ndisc range", func(p *JARTv1bParams) { p.Ndiscmin = 30 }, "Ndiscmax"},
		{"no pulses", func(p *JARTv1bParams) { p.MaxPulses = 0 }, "max pulses"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultJARTv1bParams()
			tt.mutate(&p)
			err := p.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}

	assert.NoError(t, DefaultJARTv1bParams().Validate())
	assert.Equal(t, 100, DefaultJARTv1bParams().stepsPerPulse())
}

func TestNewFactory(t *testing.T) {
	cfg, err := config.LoadFromFile("../config/testdata/noise_free.yml")
	require.NoError(t, err)

	t.Run("ideal", func(t *testing.T) {
		f, err := NewFactory(config.DeviceIdeal, cfg.Device, 0)
		require.NoError(t, err)
		d, err := f()
		require.NoError(t, err)
		assert.IsType(t, &Ideal{}, d)
	})

	t.Run("jart", func(t *testing.T) {
		f, err := NewFactory(config.DeviceJARTv1b, cfg.Device, 42)
		require.NoError(t, err)
		d, err := f()
		require.NoError(t, err)
		assert.IsType(t, &JARTv1b{}, d)
	})

	t.Run("invalid params", func(t *testing.T) {
		dc := cfg.Device
		dc.Pulse.ReadVoltage = 0
		_, err := NewFactory(config.DeviceJARTv1b, dc, 42)
		assert.Error(t, err)
	})

	t.Run("unknown model", func(t *testing.T) {
		_, err := NewFactory("pcm", cfg.Device, 0)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "unsupported device model")
	})
}

func nan() float64 {
	var zero float64
	return zero / zero
}
