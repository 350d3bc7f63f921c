package vm

import (
	"bufio"
	"io"
	"os"

	"github.com/pkg/errors"
)

// Load reads a bytecode file from disk. It is a thin wrapper around
// os.Open/io.ReadAll with pkg/errors context.
func Load(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "load")
	}
	defer f.Close()

	code, err := io.ReadAll(bufio.NewReader(f))
	if err != nil {
		return nil, errors.Wrap(err, "load")
	}
	return code, nil
}
