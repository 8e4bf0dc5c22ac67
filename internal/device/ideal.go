package device

// Ideal is a floating-point device: updates are applied exactly and without bounds.
type Ideal struct {
	w float64
}

func NewIdeal() *Ideal {
	return &Ideal{}
}

func (d *Ideal) Weight() float64 {
	return d.w
}

func (d *Ideal) SetWeight(w float64) error {
	d.w = w
	return nil
}

func (d *Ideal) Update(dw float64) error {
	d.w += dw
	return nil
}
