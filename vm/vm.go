// Package vm implements the stack-machine interpreter: a fetch-decode-execute
// loop over an immutable bytecode stream, with an operand stack, a
// return-address stack, and a fixed 1024-cell linear memory.
//
// The VM is single-threaded and deterministic: all state lives in an
// *Instance value, mutated only by its own methods. Running several programs
// concurrently is supported only by constructing independent Instances; they
// share nothing.
package vm

import (
	"io"
	"os"
)

// memSize is the fixed number of 32-bit cells in the VM's linear memory.
const memSize = 1024

// Instance is one run of the virtual machine: its program counter, both
// stacks, its memory, and the configuration installed via Option values.
type Instance struct {
	code    []byte
	pc      int
	operand []int32
	calls   []uint32
	memory  [memSize]int32
	running bool

	insCount int64

	output io.Writer
	trace  io.Writer
}

// Option configures an Instance at construction time.
type Option func(*Instance)

// Output sets the writer PRINT writes its decimal output to. The default is
// os.Stdout.
func Output(w io.Writer) Option {
	return func(i *Instance) { i.output = w }
}

// Trace installs a writer that receives one line per dispatched instruction
// ("pc\tMNEMONIC"), for debugging. Tracing is off by default and costs a nil
// check per instruction when unused.
func Trace(w io.Writer) Option {
	return func(i *Instance) { i.trace = w }
}

// New creates a new Instance over the given bytecode. The code slice is not
// copied; callers must not mutate it while the Instance is in use.
func New(code []byte, opts ...Option) *Instance {
	i := &Instance{
		code:    code,
		running: true,
		output:  os.Stdout,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Reset clears the program counter, both stacks, and memory, and
// re-enables running, leaving the loaded code and configured options
// untouched. It is intended for benchmarking harnesses that run the same
// image repeatedly.
func (i *Instance) Reset() {
	i.pc = 0
	i.operand = i.operand[:0]
	i.calls = i.calls[:0]
	for idx := range i.memory {
		i.memory[idx] = 0
	}
	i.running = true
	i.insCount = 0
}

// Result returns the top of the operand stack, or 0 if the stack is empty.
func (i *Instance) Result() int32 {
	if len(i.operand) == 0 {
		return 0
	}
	return i.operand[len(i.operand)-1]
}

// InstructionCount returns the number of instructions that completed without
// a trap since the Instance was created or last Reset. Run does not clear it.
func (i *Instance) InstructionCount() int64 {
	return i.insCount
}

// PC returns the current program counter, i.e. the byte offset of the next
// instruction to fetch. After a trap it points at the offending instruction.
func (i *Instance) PC() int {
	return i.pc
}

// Stack returns a read-only view of the operand stack, bottom first.
func (i *Instance) Stack() []int32 {
	return i.operand
}

// CallStack returns a read-only view of the return-address stack, bottom
// first. Empty at HALT for any structurally balanced program.
func (i *Instance) CallStack() []uint32 {
	return i.calls
}

// CallDepth returns the number of pending return addresses.
func (i *Instance) CallDepth() int {
	return len(i.calls)
}

func (i *Instance) push(v int32) {
	i.operand = append(i.operand, v)
}

func (i *Instance) pop() (int32, bool) {
	n := len(i.operand)
	if n == 0 {
		return 0, false
	}
	v := i.operand[n-1]
	i.operand = i.operand[:n-1]
	return v, true
}

func (i *Instance) rpush(v uint32) {
	i.calls = append(i.calls, v)
}

func (i *Instance) rpop() (uint32, bool) {
	n := len(i.calls)
	if n == 0 {
		return 0, false
	}
	v := i.calls[n-1]
	i.calls = i.calls[:n-1]
	return v, true
}
