package vm

import (
	"fmt"

	"github.com/pacifier94/stackvm/bytecode"
	"github.com/pkg/errors"
)

// Run executes the loaded bytecode from the current pc until HALT, until pc
// reaches the end of the code with no HALT, or until a runtime trap occurs.
//
// On a trap, Run returns a *TrapError and pc points at the instruction that
// triggered it. On a clean exit (HALT or falling off the end) Run returns
// nil.
func (i *Instance) Run() error {
	i.running = true
	for i.running && i.pc < len(i.code) {
		start := i.pc
		if err := i.step(); err != nil {
			if te, ok := err.(*TrapError); ok {
				i.pc = start
				te.PC = start
			}
			return err
		}
	}
	return nil
}

func (i *Instance) fetchOperand() (int32, bool) {
	if i.pc+bytecode.OperandSize > len(i.code) {
		return 0, false
	}
	v := bytecode.Operand(i.code[i.pc : i.pc+bytecode.OperandSize])
	i.pc += bytecode.OperandSize
	return v, true
}

func (i *Instance) traceStep(op bytecode.Op) {
	if i.trace == nil {
		return
	}
	info, ok := bytecode.LookupOp(op)
	name := "???"
	if ok {
		name = info.Name
	}
	fmt.Fprintf(i.trace, "%8d\t%s\n", i.pc-1, name)
}

// step dispatches exactly one instruction. It is a large switch over the
// closed bytecode.Op enumeration, kept as a single function so that opcode
// coverage can be audited against the table in one place.
func (i *Instance) step() error {
	op := bytecode.Op(i.code[i.pc])
	i.pc++
	i.traceStep(op)

	switch op {
	case bytecode.OpPush:
		v, ok := i.fetchOperand()
		if !ok {
			return i.trap(TrapTruncatedOperand, "")
		}
		i.push(v)

	case bytecode.OpPop:
		if _, ok := i.pop(); !ok {
			return i.trap(TrapStackUnderflow, "POP")
		}

	case bytecode.OpDup:
		v, ok := i.pop()
		if !ok {
			return i.trap(TrapStackUnderflow, "DUP")
		}
		i.push(v)
		i.push(v)

	case bytecode.OpAdd:
		a, b, ok := i.pop2()
		if !ok {
			return i.trap(TrapStackUnderflow, "ADD")
		}
		i.push(a + b)

	case bytecode.OpSub:
		a, b, ok := i.pop2()
		if !ok {
			return i.trap(TrapStackUnderflow, "SUB")
		}
		i.push(a - b)

	case bytecode.OpMul:
		a, b, ok := i.pop2()
		if !ok {
			return i.trap(TrapStackUnderflow, "MUL")
		}
		i.push(a * b)

	case bytecode.OpDiv:
		a, b, ok := i.pop2()
		if !ok {
			return i.trap(TrapStackUnderflow, "DIV")
		}
		if b == 0 {
			return i.trap(TrapDivByZero, "")
		}
		i.push(a / b)

	case bytecode.OpCmp:
		a, b, ok := i.pop2()
		if !ok {
			return i.trap(TrapStackUnderflow, "CMP")
		}
		switch {
		case a < b:
			i.push(-1)
		case a > b:
			i.push(1)
		default:
			i.push(0)
		}

	case bytecode.OpJmp:
		addr, ok := i.fetchOperand()
		if !ok {
			return i.trap(TrapTruncatedOperand, "")
		}
		if !i.validTarget(addr) {
			return i.trap(TrapInvalidTarget, fmt.Sprintf("JMP %d", addr))
		}
		i.pc = int(addr)

	case bytecode.OpJz, bytecode.OpJnz:
		addr, ok := i.fetchOperand()
		if !ok {
			return i.trap(TrapTruncatedOperand, "")
		}
		v, ok := i.pop()
		if !ok {
			return i.trap(TrapStackUnderflow, "JZ/JNZ")
		}
		branch := (op == bytecode.OpJz && v == 0) || (op == bytecode.OpJnz && v != 0)
		if branch {
			if !i.validTarget(addr) {
				return i.trap(TrapInvalidTarget, fmt.Sprintf("jump %d", addr))
			}
			i.pc = int(addr)
		}

	case bytecode.OpStore:
		idx, ok := i.fetchOperand()
		if !ok {
			return i.trap(TrapTruncatedOperand, "")
		}
		if idx < 0 || int(idx) >= memSize {
			return i.trap(TrapMemoryOutOfBounds, fmt.Sprintf("STORE %d", idx))
		}
		v, ok := i.pop()
		if !ok {
			return i.trap(TrapStackUnderflow, "STORE")
		}
		i.memory[idx] = v

	case bytecode.OpLoad:
		idx, ok := i.fetchOperand()
		if !ok {
			return i.trap(TrapTruncatedOperand, "")
		}
		if idx < 0 || int(idx) >= memSize {
			return i.trap(TrapMemoryOutOfBounds, fmt.Sprintf("LOAD %d", idx))
		}
		i.push(i.memory[idx])

	case bytecode.OpCall:
		addr, ok := i.fetchOperand()
		if !ok {
			return i.trap(TrapTruncatedOperand, "")
		}
		if !i.validTarget(addr) {
			return i.trap(TrapInvalidTarget, fmt.Sprintf("CALL %d", addr))
		}
		i.rpush(uint32(i.pc))
		i.pc = int(addr)

	case bytecode.OpRet:
		ret, ok := i.rpop()
		if !ok {
			return i.trap(TrapCallStackUnderflow, "")
		}
		i.pc = int(ret)

	case bytecode.OpPrint:
		v, ok := i.pop()
		if !ok {
			return i.trap(TrapStackUnderflow, "PRINT")
		}
		if _, err := fmt.Fprintf(i.output, "VM PRINT: %d\n", v); err != nil {
			i.running = false
			return errors.Wrap(err, "PRINT write failed")
		}

	case bytecode.OpHalt:
		i.running = false

	default:
		return i.trap(TrapUnknownOpcode, fmt.Sprintf("0x%02x", byte(op)))
	}

	i.insCount++
	return nil
}

// pop2 pops b then a, in that order, returning (a, b) so callers can write
// a OP b directly. This is the one place the SUB/DIV/CMP ordering invariant
// is enforced.
func (i *Instance) pop2() (a, b int32, ok bool) {
	b, ok = i.pop()
	if !ok {
		return 0, 0, false
	}
	a, ok = i.pop()
	if !ok {
		// restore b so a failed op leaves the stack as it was before the
		// offending instruction, matching the "traps do not mutate memory
		// beyond whatever mutation had occurred before the offending fetch"
		// invariant.
		i.push(b)
		return 0, 0, false
	}
	return a, b, true
}

func (i *Instance) validTarget(addr int32) bool {
	return addr >= 0 && int(addr) < len(i.code)
}
