package tracking

import (
	"context"
	"fmt"
	"io"

	"github.com/google/uuid"
)

// Printer writes observations as plain text lines:
//
//	Epoch 3 - Weight: 0.4960000000000000
type Printer struct {
	w io.Writer
}

func NewPrinter(w io.Writer) *Printer {
	return &Printer{w: w}
}

func (p *Printer) Init(_ context.Context, _ RunSpec) (Run, error) {
	return &printerRun{id: uuid.New(), w: p.w}, nil
}

func (p *Printer) Close() error {
	return nil
}

type printerRun struct {
	id uuid.UUID
	w  io.Writer
}

func (r *printerRun) ID() uuid.UUID {
	return r.id
}

func (r *printerRun) UpdateConfig(context.Context, map[string]any) error {
	return nil
}

func (r *printerRun) Log(_ context.Context, rec Record) error {
	_, err := fmt.Fprintf(r.w, "Epoch %d - Weight: %.16f\n", rec.Epoch, rec.Weight)
	return err
}

func (r *printerRun) Finish(context.Context, Status) error {
	return nil
}
