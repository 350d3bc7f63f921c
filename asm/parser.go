package asm

import (
	"strconv"
	"strings"
)

// instruction is a source line retained between pass 1 and pass 2, paired
// with the line number it came from for diagnostics.
type instruction struct {
	line int
	text string
}

// parser holds the state shared by both assembly passes: the label table
// built by pass 1 and the instruction list pass 2 encodes from.
type parser struct {
	labels   map[string]int32 // name -> byte address
	labelAt  map[string]int   // name -> defining line, for duplicate diagnostics
	instrs   []instruction
	pc       int32
	errs     errCollector
}

func newParser() *parser {
	return &parser{
		labels:  make(map[string]int32),
		labelAt: make(map[string]int),
	}
}

// stripComment removes everything from the first ';' onward.
func stripComment(line string) string {
	if i := strings.IndexByte(line, ';'); i >= 0 {
		return line[:i]
	}
	return line
}

// splitInstruction separates a trimmed instruction line into its mnemonic
// and, if present, its operand token. The separator between the two may be
// any run of spaces, tabs, or a comma, per the grammar's "operand token may
// be separated by spaces or a comma".
func splitInstruction(text string) (mnemonic, operand string, hasOperand bool) {
	isSep := func(r rune) bool { return r == ' ' || r == '\t' || r == ',' }
	i := strings.IndexFunc(text, isSep)
	if i < 0 {
		return text, "", false
	}
	mnemonic = text[:i]
	operand = strings.TrimFunc(text[i:], isSep)
	if operand == "" {
		return mnemonic, "", false
	}
	return mnemonic, operand, true
}

// isLabelDef reports whether a trimmed, comment-stripped line defines a
// label, and returns its name.
func isLabelDef(text string) (name string, ok bool) {
	if !strings.HasSuffix(text, ":") {
		return "", false
	}
	return text[:len(text)-1], true
}

// pass1 scans every line, records label addresses, and builds the
// instruction list, advancing pc by the byte length each line will occupy in
// pass 2 without decoding operands yet.
func (p *parser) pass1(lines []string) {
	for idx, raw := range lines {
		lineNo := idx + 1
		text := strings.TrimSpace(stripComment(raw))
		if text == "" {
			continue
		}
		if name, ok := isLabelDef(text); ok {
			if name == "" {
				p.errs.add(lineNo, "empty label name")
				continue
			}
			if strings.ContainsAny(name, " \t:") {
				p.errs.add(lineNo, "invalid label name %q", name)
				continue
			}
			if prev, dup := p.labelAt[name]; dup {
				p.errs.add(lineNo, "duplicate label %q, first defined at line %d", name, prev)
				continue
			}
			p.labels[name] = p.pc
			p.labelAt[name] = lineNo
			continue
		}
		p.instrs = append(p.instrs, instruction{line: lineNo, text: text})
		_, _, hasOperand := splitInstruction(text)
		p.pc++
		if hasOperand {
			p.pc += 4
		}
	}
}

// resolveOperand resolves an operand token to its encoded value: either the
// address of a known label, or a parsed signed decimal integer.
func (p *parser) resolveOperand(tok string) (int32, bool) {
	if addr, ok := p.labels[tok]; ok {
		return addr, true
	}
	n, err := strconv.ParseInt(tok, 10, 32)
	if err != nil {
		return 0, false
	}
	return int32(n), true
}
