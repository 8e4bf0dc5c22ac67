package analog

import "fmt"

// MSE is the mean squared error over every element of pred and target.
func MSE(pred, target [][]float64) (float64, error) {
	n, err := countElements(pred, target)
	if err != nil {
		return 0, err
	}
	var sum float64
	for b := range pred {
		for i := range pred[b] {
			diff := pred[b][i] - target[b][i]
			sum += diff * diff
		}
	}
	return sum / float64(n), nil
}

// MSEBackward returns ∂MSE/∂pred = 2(pred-target)/N.
func MSEBackward(pred, target [][]float64) ([][]float64, error) {
	n, err := countElements(pred, target)
	if err != nil {
		return nil, err
	}
	grad := make([][]float64, len(pred))
	for b := range pred {
		grad[b] = make([]float64, len(pred[b]))
		for i := range pred[b] {
			grad[b][i] = 2 * (pred[b][i] - target[b][i]) / float64(n)
		}
	}
	return grad, nil
}

func countElements(pred, target [][]float64) (int, error) {
	if len(pred) != len(target) {
		return 0, fmt.Errorf("%w: loss: %d predictions for %d targets", ErrShapeMismatch, len(pred), len(target))
	}
	n := 0
	for b := range pred {
		if len(pred[b]) != len(target[b]) {
			return 0, fmt.Errorf("%w: loss: sample %d", ErrShapeMismatch, b)
		}
		n += len(pred[b])
	}
	if n == 0 {
		return 0, fmt.Errorf("%w: loss: empty batch", ErrShapeMismatch)
	}
	return n, nil
}
