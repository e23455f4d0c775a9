package seqio

import (
	"bufio"
	"fmt"
	"io"
)

// Writer emits records as flat FASTA, one header line and one sequence line
// per record. This is the form consumed by external index builders.
type Writer struct {
	bw *bufio.Writer
}

// NewWriter returns a Writer on w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{bw: bufio.NewWriter(w)}
}

// Write appends one record.
func (w *Writer) Write(rec Record) error {
	if _, err := fmt.Fprintf(w.bw, ">%s\n%s\n", rec.Title(), rec.Seq); err != nil {
		return fmt.Errorf("seqio: writing record %q: %w", rec.Title(), err)
	}
	return nil
}

// Flush drains buffered output to the underlying writer.
func (w *Writer) Flush() error {
	return w.bw.Flush()
}
