package trainer

// Dataset is the fixed regression problem: five points on y = slope·x.
type Dataset struct {
	X [][]float64
	Y [][]float64
}

const sampleCount = 5

func NewDataset(slope float64) Dataset {
	ds := Dataset{
		X: make([][]float64, sampleCount),
		Y: make([][]float64, sampleCount),
	}
	for i := range sampleCount {
		x := float64(i)
		ds.X[i] = []float64{x}
		ds.Y[i] = []float64{slope * x}
	}
	return ds
}
