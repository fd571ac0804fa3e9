// Package asm parses APEX assembly text into a program the code memory
// can load. One instruction per line; "/" begins a comment that runs to
// end of line; operands are separated by commas, spaces, or tabs.
//
// Parsing is deliberately lenient, mirroring the reference assembler: an
// unrecognized mnemonic becomes an OpINVALID instruction (stored, never
// issued) rather than a hard parse error, and register/immediate tokens
// are scraped for their digit runs rather than strictly validated.
package asm

import (
	"bufio"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/sarchlab/apexsim/insts"
)

// Program is an assembled instruction stream ready for loading into code
// memory, starting at emu.CodeBasePC.
type Program struct {
	Instructions []*insts.Instruction
}

// isSeparator reports whether r separates assembler tokens.
func isSeparator(r rune) bool {
	return r == ',' || r == ' ' || r == '\t' || r == '\r'
}

// parseReg extracts the digit run following a register token's leading
// letter (e.g. "R12" -> 12). Returns -1 if no digits are present.
func parseReg(tok string) int {
	var digits strings.Builder
	for _, r := range tok {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	if digits.Len() == 0 {
		return -1
	}
	n, _ := strconv.Atoi(digits.String())
	return n
}

// parseImm extracts a signed decimal immediate, keeping only digits and a
// minus sign in the order they appear (e.g. "#-8" -> -8).
func parseImm(tok string) int32 {
	var digits strings.Builder
	for _, r := range tok {
		if r == '-' || (r >= '0' && r <= '9') {
			digits.WriteRune(r)
		}
	}
	if digits.Len() == 0 {
		return 0
	}
	n, err := strconv.ParseInt(digits.String(), 10, 32)
	if err != nil {
		return 0
	}
	return int32(n)
}

// LoadFile opens path and parses its contents as an APEX assembly program.
func LoadFile(path string) (*Program, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	return Parse(f)
}

// Parse reads an APEX assembly program from r.
func Parse(r io.Reader) (*Program, error) {
	prog := &Program{}
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		if idx := strings.IndexByte(line, '/'); idx >= 0 {
			line = line[:idx]
		}
		line = strings.TrimSpace(line)
		if len(line) < 2 {
			continue
		}
		parts := strings.FieldsFunc(line, isSeparator)
		if len(parts) == 0 {
			continue
		}
		prog.Instructions = append(prog.Instructions, parseInstruction(parts))
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return prog, nil
}

// parseInstruction decodes one already-tokenized assembly line.
func parseInstruction(parts []string) *insts.Instruction {
	op := insts.ParseMnemonic(parts[0])
	instr := insts.New(op)

	arg := func(i int) string {
		if i < len(parts) {
			return parts[i]
		}
		return ""
	}

	switch insts.Lookup(op).Shape {
	case insts.ShapeRRR:
		instr.Rd = parseReg(arg(1))
		instr.Rs1 = parseReg(arg(2))
		instr.Rs2 = parseReg(arg(3))
	case insts.ShapeRRI:
		instr.Rd = parseReg(arg(1))
		instr.Rs1 = parseReg(arg(2))
		instr.Imm = parseImm(arg(3))
	case insts.ShapeRI:
		instr.Rd = parseReg(arg(1))
		instr.Imm = parseImm(arg(2))
	case insts.ShapeLoad:
		instr.Rd = parseReg(arg(1))
		instr.Rs1 = parseReg(arg(2))
		instr.Imm = parseImm(arg(3))
	case insts.ShapeStore:
		instr.Rs1 = parseReg(arg(1))
		instr.Rs2 = parseReg(arg(2))
		instr.Imm = parseImm(arg(3))
	case insts.ShapeCmpRR:
		instr.Rs1 = parseReg(arg(1))
		instr.Rs2 = parseReg(arg(2))
	case insts.ShapeCmpRI:
		instr.Rs1 = parseReg(arg(1))
		instr.Imm = parseImm(arg(2))
	case insts.ShapeBranch:
		instr.Imm = parseImm(arg(1))
	case insts.ShapeJump:
		instr.Rs1 = parseReg(arg(1))
		instr.Imm = parseImm(arg(2))
	case insts.ShapeCall:
		// JALP is always PC-relative: (rd, imm).
		//
		// JAL's source form elides the call-base register in the common
		// case - (rd, imm), target = imm treated as an absolute address,
		// since an unrenamed rs1 reads as zero. A three-operand line
		// (rd, rs1, imm) supplies an explicit base register instead; this
		// is the assembler contract the execute-stage formula rs1+imm
		// assumes. Do not guess beyond what a line actually encodes.
		if op == insts.OpJAL && len(parts) >= 4 {
			instr.Rd = parseReg(arg(1))
			instr.Rs1 = parseReg(arg(2))
			instr.Imm = parseImm(arg(3))
		} else {
			instr.Rd = parseReg(arg(1))
			instr.Imm = parseImm(arg(2))
		}
	case insts.ShapeRet:
		instr.Rs1 = parseReg(arg(1))
	case insts.ShapeNone:
		// NOP, HALT, INVALID: no operands.
	}

	return instr
}
