package errio_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/pacifier94/stackvm/internal/errio"
)

type failingWriter struct{ err error }

func (f *failingWriter) Write(p []byte) (int, error) { return 0, f.err }

func TestWriter_latchesFirstError(t *testing.T) {
	boom := errors.New("boom")
	w := errio.New(&failingWriter{err: boom})
	if _, err := w.Write([]byte("a")); err == nil {
		t.Fatal("expected an error")
	}
	if w.Err == nil {
		t.Fatal("expected Err to be set")
	}
	// Second write must return the same latched error without touching the
	// underlying writer again.
	if _, err := w.Write([]byte("b")); err != w.Err {
		t.Errorf("second write returned %v, want latched error", err)
	}
}

func TestWriter_passesThroughOnSuccess(t *testing.T) {
	var buf bytes.Buffer
	w := errio.New(&buf)
	if _, err := w.Write([]byte("hello")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if buf.String() != "hello" {
		t.Errorf("buf = %q", buf.String())
	}
}
