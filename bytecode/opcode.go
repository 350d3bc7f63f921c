// Package bytecode defines the shared contract between the assembler and the
// virtual machine: the opcode enumeration, the operand-arity table, and the
// big-endian codec for the 32-bit operands that follow some opcodes.
//
// Nothing in this package depends on asm or vm. Both depend on it.
package bytecode

import "encoding/binary"

// Op identifies a single bytecode instruction. It is a closed enumeration:
// every valid value has an entry in Table.
type Op byte

// Opcode values. Byte values are part of the on-disk bytecode contract and
// must never change.
const (
	OpPush  Op = 0x01
	OpPop   Op = 0x02
	OpDup   Op = 0x03
	OpAdd   Op = 0x10
	OpSub   Op = 0x11
	OpMul   Op = 0x12
	OpDiv   Op = 0x13
	OpCmp   Op = 0x14
	OpJmp   Op = 0x20
	OpJz    Op = 0x21
	OpJnz   Op = 0x22
	OpStore Op = 0x30
	OpLoad  Op = 0x31
	OpCall  Op = 0x40
	OpRet   Op = 0x41
	OpPrint Op = 0x50
	OpHalt  Op = 0xFF
)

// OperandSize is the number of bytes occupied by an instruction's operand,
// big-endian two's complement. Every instruction in this ISA has either no
// operand or a 4-byte operand.
const OperandSize = 4

// Info describes one mnemonic/opcode pair.
type Info struct {
	Name       string
	Op         Op
	HasOperand bool
}

// Table lists every instruction in the ISA. Order has no bearing on encoding,
// only on iteration (e.g. for producing a sorted help listing).
var Table = []Info{
	{"PUSH", OpPush, true},
	{"POP", OpPop, false},
	{"DUP", OpDup, false},
	{"ADD", OpAdd, false},
	{"SUB", OpSub, false},
	{"MUL", OpMul, false},
	{"DIV", OpDiv, false},
	{"CMP", OpCmp, false},
	{"JMP", OpJmp, true},
	{"JZ", OpJz, true},
	{"JNZ", OpJnz, true},
	{"STORE", OpStore, true},
	{"LOAD", OpLoad, true},
	{"CALL", OpCall, true},
	{"RET", OpRet, false},
	{"PRINT", OpPrint, false},
	{"HALT", OpHalt, false},
}

var byName map[string]Info
var byOp map[Op]Info

func init() {
	byName = make(map[string]Info, len(Table))
	byOp = make(map[Op]Info, len(Table))
	for _, info := range Table {
		byName[info.Name] = info
		byOp[info.Op] = info
	}
}

// Lookup resolves a mnemonic to its Info. The bool result reports whether the
// mnemonic is known.
func Lookup(name string) (Info, bool) {
	info, ok := byName[name]
	return info, ok
}

// LookupOp resolves an opcode byte to its Info.
func LookupOp(op Op) (Info, bool) {
	info, ok := byOp[op]
	return info, ok
}

// PutOperand encodes v as a big-endian two's complement 32-bit integer into
// the first 4 bytes of b. b must have length >= OperandSize.
func PutOperand(b []byte, v int32) {
	binary.BigEndian.PutUint32(b, uint32(v))
}

// Operand decodes the first 4 bytes of b as a big-endian two's complement
// 32-bit integer. b must have length >= OperandSize.
func Operand(b []byte) int32 {
	return int32(binary.BigEndian.Uint32(b))
}
