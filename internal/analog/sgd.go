package analog

import (
	"fmt"
	"math"
)

// SGD applies plain gradient descent by handing each device its requested
// weight change; what the device makes of it is up to the device model.
type SGD struct {
	layer *Linear
	lr    float64
}

func NewSGD(layer *Linear, lr float64) (*SGD, error) {
	if math.IsNaN(lr) || lr < 0 {
		return nil, fmt.Errorf("invalid learning rate %v", lr)
	}
	return &SGD{layer: layer, lr: lr}, nil
}

func (o *SGD) LearningRate() float64 {
	return o.lr
}

// Step updates every device by -lr·grad and clears the gradient.
func (o *SGD) Step() error {
	defer o.layer.ZeroGrad()

	for i, row := range o.layer.grad {
		for j, g := range row {
			if err := o.layer.devices[i][j].Update(-o.lr * g); err != nil {
				return fmt.Errorf("update device (%d,%d): %w", i, j, err)
			}
		}
	}
	return nil
}
