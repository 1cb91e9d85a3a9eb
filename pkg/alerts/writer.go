package alerts

import (
	"fmt"
	"io"
)

// Writer handles alert output to different destinations.
type Writer interface {
	WriteAlert(alert Alert) error
}

// WriterFunc is an adapter to allow functions to be used as Writers.
type WriterFunc func(Alert) error

// WriteAlert calls the function.
func (f WriterFunc) WriteAlert(alert Alert) error {
	return f(alert)
}

// MultiWriter creates a writer that writes to multiple writers.
func MultiWriter(writers ...Writer) Writer {
	return WriterFunc(func(alert Alert) error {
		for _, w := range writers {
			if err := w.WriteAlert(alert); err != nil {
				return err
			}
		}
		return nil
	})
}

// DiscardWriter is a Writer that discards all alerts.
var DiscardWriter Writer = WriterFunc(func(Alert) error { return nil })

// NewWriterTo creates a Writer that prints one line per alert to w.
func NewWriterTo(w io.Writer) Writer {
	return WriterFunc(func(alert Alert) error {
		_, err := fmt.Fprintln(w, alert.String())
		return err
	})
}

// WriteAll sends every alert to w, stopping at the first error.
func WriteAll(w Writer, list []Alert) error {
	for _, a := range list {
		if err := w.WriteAlert(a); err != nil {
			return err
		}
	}
	return nil
}

// Filter returns the alerts at or above the given type's severity.
func Filter(list []Alert, min Type) []Alert {
	var out []Alert
	for _, a := range list {
		if a.Type.Severity() >= min.Severity() {
			out = append(out, a)
		}
	}
	return out
}
