package asm

import "fmt"

// maxErrs caps the number of diagnostics collected in a single assembly run.
const maxErrs = 10

// AsmError is a single assembly diagnostic, tied to the source line that
// triggered it.
type AsmError struct {
	Line int
	Msg  string
}

func (e *AsmError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Msg)
}

// ErrAsm collects the diagnostics produced by a single Assemble call, at most
// maxErrs of them. Its Error method renders all of them, one per line.
type ErrAsm []*AsmError

func (e ErrAsm) Error() string {
	s := ""
	for i, err := range e {
		if i > 0 {
			s += "\n"
		}
		s += err.Error()
	}
	return s
}

type errCollector struct {
	errs ErrAsm
}

func (c *errCollector) add(line int, format string, args ...interface{}) {
	if len(c.errs) >= maxErrs {
		return
	}
	c.errs = append(c.errs, &AsmError{Line: line, Msg: fmt.Sprintf(format, args...)})
}

func (c *errCollector) err() error {
	if len(c.errs) == 0 {
		return nil
	}
	return c.errs
}
