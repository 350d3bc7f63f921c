// Package errio provides a small io.Writer wrapper that latches the first
// write error it sees, so that a sequence of unconditional writes (as found
// in disassembly and dump loops) can be checked once at the end instead of
// after every call.
package errio

import (
	"io"

	"github.com/pkg/errors"
)

// Writer wraps an io.Writer and stops forwarding writes once one fails,
// returning the same error on every subsequent call.
type Writer struct {
	w   io.Writer
	Err error
}

func (w *Writer) Write(p []byte) (n int, err error) {
	if w.Err != nil {
		return 0, w.Err
	}
	n, err = w.w.Write(p)
	if err != nil {
		w.Err = errors.Wrap(err, "write failed")
	}
	return n, w.Err
}

// New returns a new Writer wrapping w.
func New(w io.Writer) *Writer {
	return &Writer{w: w}
}
