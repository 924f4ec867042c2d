package sink

import (
	"fmt"
	"io"

	"github.com/itohio/kuuki/pkg/record"
)

// Line writes each record as a checksummed CSV line, one per cycle.
// The writer is typically stdout or a serial console.
type Line struct {
	w io.Writer
}

func NewLine(w io.Writer) *Line {
	return &Line{w: w}
}

func (l *Line) Name() string { return "line" }

func (l *Line) Emit(rec record.Record) error {
	if _, err := fmt.Fprintln(l.w, rec.Encode()); err != nil {
		return fmt.Errorf("failed to write record line: %w", err)
	}
	return nil
}
