package vm_test

import (
	"bytes"
	"strconv"
	"strings"
	"testing"

	"github.com/pacifier94/stackvm/asm"
	"github.com/pacifier94/stackvm/vm"
)

func assemble(t *testing.T, src string) []byte {
	t.Helper()
	code, err := asm.Assemble("test", strings.NewReader(src))
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	return code
}

func run(t *testing.T, src string, opts ...vm.Option) (*vm.Instance, error) {
	t.Helper()
	i := vm.New(assemble(t, src), opts...)
	err := i.Run()
	return i, err
}

var okTests = []struct {
	name   string
	src    string
	result int32
}{
	{"constant", "PUSH 42\nHALT", 42},
	{"sub order", "PUSH 10\nPUSH 3\nSUB\nHALT", 7},
	{"div order", "PUSH 10\nPUSH 3\nDIV\nHALT", 3},
	{"add", "PUSH 2\nPUSH 3\nADD\nHALT", 5},
	{"mul", "PUSH 4\nPUSH 5\nMUL\nHALT", 20},
	{"dup", "PUSH 7\nDUP\nADD\nHALT", 14},
	{"cmp lt", "PUSH 1\nPUSH 2\nCMP\nHALT", -1},
	{"cmp eq", "PUSH 2\nPUSH 2\nCMP\nHALT", 0},
	{"cmp gt", "PUSH 2\nPUSH 1\nCMP\nHALT", 1},
	{
		"loop", `
PUSH 0
PUSH 5
LOOP:
DUP
JZ END
PUSH 1
SUB
JMP LOOP
END:
HALT
`, 0,
	},
	{
		"call/ret", `
PUSH 3
CALL SQR
HALT
SQR:
DUP
MUL
RET
`, 9,
	},
	{"memory", "PUSH 7\nSTORE 10\nLOAD 10\nHALT", 7},
	{"no halt falls off end", "PUSH 5", 5},
	{"jmp over label no-op", "PUSH 1\nJMP L\nL:\nPUSH 2\nHALT", 2},
}

func TestRun_ok(t *testing.T) {
	for _, tc := range okTests {
		t.Run(tc.name, func(t *testing.T) {
			i, err := run(t, tc.src)
			if err != nil {
				t.Fatalf("run: %v", err)
			}
			if got := i.Result(); got != tc.result {
				t.Errorf("result = %d, want %d", got, tc.result)
			}
		})
	}
}

func TestRun_pushRoundTrip(t *testing.T) {
	for _, n := range []int32{0, 1, -1, 2147483647, -2147483648, 1234567} {
		src := "PUSH " + itoa(n) + "\nHALT"
		i, err := run(t, src)
		if err != nil {
			t.Fatalf("run(%d): %v", n, err)
		}
		if got := i.Result(); got != n {
			t.Errorf("PUSH %d: result = %d", n, got)
		}
	}
}

func itoa(n int32) string {
	return strconv.FormatInt(int64(n), 10)
}

func TestRun_divByZero(t *testing.T) {
	_, err := run(t, "PUSH 1\nPUSH 0\nDIV\nHALT")
	if err == nil {
		t.Fatal("expected a trap")
	}
	trap, ok := err.(*vm.TrapError)
	if !ok {
		t.Fatalf("expected *vm.TrapError, got %T", err)
	}
	if trap.Kind != vm.TrapDivByZero {
		t.Errorf("trap kind = %v, want TrapDivByZero", trap.Kind)
	}
	if !strings.Contains(err.Error(), "division by zero") {
		t.Errorf("error message %q does not mention division by zero", err.Error())
	}
}

var trapTests = []struct {
	name string
	src  string
	kind vm.TrapKind
}{
	{"pop underflow", "POP\nHALT", vm.TrapStackUnderflow},
	{"add underflow", "PUSH 1\nADD\nHALT", vm.TrapStackUnderflow},
	{"ret underflow", "RET\nHALT", vm.TrapCallStackUnderflow},
	{"store oob", "PUSH 1\nSTORE 1024\nHALT", vm.TrapMemoryOutOfBounds},
	{"load oob", "LOAD 1024\nHALT", vm.TrapMemoryOutOfBounds},
	{"jmp oob", "JMP 999\nHALT", vm.TrapInvalidTarget},
	{"call oob", "CALL 999\nHALT", vm.TrapInvalidTarget},
}

func TestRun_traps(t *testing.T) {
	for _, tc := range trapTests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := run(t, tc.src)
			trap, ok := err.(*vm.TrapError)
			if !ok {
				t.Fatalf("expected *vm.TrapError, got %v (%T)", err, err)
			}
			if trap.Kind != tc.kind {
				t.Errorf("trap kind = %v, want %v", trap.Kind, tc.kind)
			}
		})
	}
}

func TestRun_print(t *testing.T) {
	var buf bytes.Buffer
	_, err := run(t, "PUSH 5\nPRINT\nHALT", vm.Output(&buf))
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if got := buf.String(); got != "VM PRINT: 5\n" {
		t.Errorf("output = %q", got)
	}
}

func TestRun_callRetBalance(t *testing.T) {
	// A structurally balanced program (every CALL has a matching RET) must
	// leave the call stack empty at HALT.
	src := `
PUSH 1
CALL F
HALT
F:
PUSH 2
CALL G
RET
G:
ADD
RET
`
	i := vm.New(assemble(t, src))
	if err := i.Run(); err != nil {
		t.Fatalf("run: %v", err)
	}
	if depth := i.CallDepth(); depth != 0 {
		t.Errorf("call depth at HALT = %d, want 0 (call stack = %v)", depth, i.CallStack())
	}
}

func TestReset(t *testing.T) {
	i := vm.New(assemble(t, "PUSH 9\nSTORE 0\nHALT"))
	if err := i.Run(); err != nil {
		t.Fatalf("run: %v", err)
	}
	if i.InstructionCount() == 0 {
		t.Fatal("expected a nonzero instruction count")
	}
	i.Reset()
	if i.InstructionCount() != 0 {
		t.Errorf("instruction count after reset = %d, want 0", i.InstructionCount())
	}
	if i.Result() != 0 {
		t.Errorf("result after reset = %d, want 0", i.Result())
	}
	if err := i.Run(); err != nil {
		t.Fatalf("run after reset: %v", err)
	}
}
