// Package analog implements a fully connected layer whose weights live on
// simulated analog devices, together with the loss and optimizer used to
// train it.
package analog

import (
	"errors"
	"fmt"

	"github.com/DjordjeVuckovic/jart-trainer/internal/device"
)

var ErrShapeMismatch = errors.New("shape mismatch")

// Linear computes y = x·Wᵀ without bias. W is out×in; each element is one device.
type Linear struct {
	in, out int
	devices [][]device.Device
	grad    [][]float64
}

func NewLinear(in, out int, factory device.Factory) (*Linear, error) {
	if in <= 0 || out <= 0 {
		return nil, fmt.Errorf("invalid layer size %dx%d", out, in)
	}
	l := &Linear{
		in:      in,
		out:     out,
		devices: make([][]device.Device, out),
		grad:    make([][]float64, out),
	}
	for i := range out {
		l.devices[i] = make([]device.Device, in)
		l.grad[i] = make([]float64, in)
		for j := range in {
			d, err := factory()
			if err != nil {
				return nil, fmt.Errorf("create device (%d,%d): %w", i, j, err)
			}
			l.devices[i][j] = d
		}
	}
	return l, nil
}

func (l *Linear) Size() (in, out int) {
	return l.in, l.out
}

// Weights reads the current weight matrix.
func (l *Linear) Weights() [][]float64 {
	w := make([][]float64, l.out)
	for i, row := range l.devices {
		w[i] = make([]float64, l.in)
		for j, d := range row {
			w[i][j] = d.Weight()
		}
	}
	return w
}

// SetWeights programs every device; w must be out×in.
func (l *Linear) SetWeights(w [][]float64) error {
	if len(w) != l.out {
		return fmt.Errorf("%w: set weights: got %d rows, want %d", ErrShapeMismatch, len(w), l.out)
	}
	for i, row := range w {
		if len(row) != l.in {
			return fmt.Errorf("%w: set weights: row %d has %d columns, want %d", ErrShapeMismatch, i, len(row), l.in)
		}
		for j, v := range row {
			if err := l.devices[i][j].SetWeight(v); err != nil {
				return fmt.Errorf("set weight (%d,%d): %w", i, j, err)
			}
		}
	}
	return nil
}

// Forward maps a batch×in input to batch×out.
func (l *Linear) Forward(x [][]float64) ([][]float64, error) {
	w := l.Weights()
	y := make([][]float64, len(x))
	for b, row := range x {
		if len(row) != l.in {
			return nil, fmt.Errorf("%w: forward: sample %d has %d features, want %d", ErrShapeMismatch, b, len(row), l.in)
		}
		y[b] = make([]float64, l.out)
		for i := range l.out {
			var sum float64
			for j, v := range row {
				sum += v * w[i][j]
			}
			y[b][i] = sum
		}
	}
	return y, nil
}

// Backward accumulates ∂L/∂W = gradOutᵀ·x.
func (l *Linear) Backward(x, gradOut [][]float64) error {
	if len(x) != len(gradOut) {
		return fmt.Errorf("%w: backward: %d inputs for %d gradients", ErrShapeMismatch, len(x), len(gradOut))
	}
	for b := range x {
		if len(x[b]) != l.in || len(gradOut[b]) != l.out {
			return fmt.Errorf("%w: backward: sample %d", ErrShapeMismatch, b)
		}
		for i := range l.out {
			for j := range l.in {
				l.grad[i][j] += gradOut[b][i] * x[b][j]
			}
		}
	}
	return nil
}

// Grad returns the accumulated gradient; the slice is owned by the layer.
func (l *Linear) Grad() [][]float64 {
	return l.grad
}

func (l *Linear) ZeroGrad() {
	for i := range l.grad {
		clear(l.grad[i])
	}
}
