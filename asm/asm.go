// Package asm implements the two-pass assembler for the toy stack machine:
// pass 1 lays out label addresses, pass 2 encodes opcodes and operands into a
// flat bytecode stream. It also provides a disassembler used by tooling.
package asm

import (
	"bufio"
	"bytes"
	"fmt"
	"io"

	"github.com/pacifier94/stackvm/bytecode"
	"github.com/pacifier94/stackvm/internal/errio"
	"github.com/pkg/errors"
)

// Assemble compiles the assembly source read from r and returns the encoded
// bytecode. The name parameter is used only as context when reading r fails;
// line numbers in diagnostics are always 1-based within the file.
//
// On an assembly error, the returned error can be asserted to ErrAsm, which
// holds up to 10 diagnostics, each tied to a source line; a failure to read r
// is returned as a wrapped error instead. No partial bytecode is returned on
// error.
func Assemble(name string, r io.Reader) ([]byte, error) {
	prog, err := AssembleProgram(name, r)
	if err != nil {
		return nil, err
	}
	return prog.Code, nil
}

// Program is the result of a successful assembly: the encoded bytecode plus
// the label table resolved by pass 1, for callers (e.g. the assembler CLI)
// that want to report the labels a source file defined.
type Program struct {
	Code   []byte
	Labels map[string]int32
}

// AssembleProgram is like Assemble but also returns the resolved label
// table.
func AssembleProgram(name string, r io.Reader) (*Program, error) {
	lines, err := readLines(r)
	if err != nil {
		return nil, errors.Wrap(err, name)
	}

	p := newParser()
	p.pass1(lines)
	if err := p.errs.err(); err != nil {
		return nil, err
	}

	buf := bytes.NewBuffer(make([]byte, 0, int(p.pc)))
	for _, in := range p.instrs {
		mnemonic, operandTok, hasOperand := splitInstruction(in.text)
		info, ok := bytecode.Lookup(mnemonic)
		if !ok {
			p.errs.add(in.line, "unknown instruction %q", mnemonic)
			continue
		}
		buf.WriteByte(byte(info.Op))
		if !hasOperand {
			continue
		}
		v, ok := p.resolveOperand(operandTok)
		if !ok {
			p.errs.add(in.line, "operand %q is neither a known label nor a valid integer", operandTok)
			continue
		}
		var b [bytecode.OperandSize]byte
		bytecode.PutOperand(b[:], v)
		buf.Write(b[:])
	}

	if err := p.errs.err(); err != nil {
		return nil, err
	}
	return &Program{Code: buf.Bytes(), Labels: p.labels}, nil
}

func readLines(r io.Reader) ([]string, error) {
	var lines []string
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return lines, nil
}

// Disassemble decodes a single instruction in code at offset pc, writing its
// textual form ("MNEMONIC operand") to w, and returns the offset of the next
// instruction.
func Disassemble(code []byte, pc int, w io.Writer) (next int, err error) {
	ew, ok := w.(*errio.Writer)
	if !ok {
		ew = errio.New(w)
	}
	if pc < 0 || pc >= len(code) {
		return pc, errors.Errorf("disassemble: pc %d out of range", pc)
	}
	op := bytecode.Op(code[pc])
	info, known := bytecode.LookupOp(op)
	if !known {
		fmt.Fprintf(ew, "??? (0x%02x)", op)
		return pc + 1, ew.Err
	}
	io.WriteString(ew, info.Name)
	pc++
	if info.HasOperand {
		if pc+bytecode.OperandSize > len(code) {
			io.WriteString(ew, " ???")
			return len(code), ew.Err
		}
		v := bytecode.Operand(code[pc : pc+bytecode.OperandSize])
		fmt.Fprintf(ew, " %d", v)
		pc += bytecode.OperandSize
	}
	return pc, ew.Err
}

// DisassembleAll writes a disassembly of every instruction in code to w, one
// line per instruction, prefixed with its byte offset.
func DisassembleAll(code []byte, w io.Writer) error {
	ew := errio.New(w)
	for pc := 0; pc < len(code); {
		fmt.Fprintf(ew, "% 8d\t", pc)
		next, _ := Disassemble(code, pc, ew)
		io.WriteString(ew, "\n")
		if ew.Err != nil {
			return ew.Err
		}
		if next <= pc {
			break
		}
		pc = next
	}
	return ew.Err
}
