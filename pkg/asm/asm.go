// Package asm describes the register machine's instruction set, builds
// programs with forward and backward label references, and parses the
// machine's text format (optionally with symbolic labels) back into
// instructions.
package asm

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// Assembler turns program text into instructions. Besides the numeric form
// written by the compiler it accepts `name:` labels and label operands on
// jumps, which are converted to relative offsets.
type Assembler struct {
	labels map[string]int
}

type parsedLine struct {
	lineNo   int
	labels   []string
	mnemonic string
	operands []string
}

func NewAssembler() *Assembler {
	return &Assembler{
		labels: make(map[string]int),
	}
}

// Assemble parses code and returns the program and a map from instruction
// index to source line.
func Assemble(code string) ([]Instruction, map[int]int, error) {
	return NewAssembler().Assemble(code)
}

func (a *Assembler) Assemble(code string) ([]Instruction, map[int]int, error) {
	lines := strings.Split(code, "\n")

	if err := a.pass1(lines); err != nil {
		return nil, nil, err
	}

	return a.pass2(lines)
}

func (a *Assembler) pass1(lines []string) error {
	index := 0

	for i, raw := range lines {
		lineNo := i + 1
		p, err := parseLine(raw, lineNo)
		if err != nil {
			return err
		}

		for _, lbl := range p.labels {
			key := normalizeLabel(lbl)
			if _, exists := a.labels[key]; exists {
				return fmt.Errorf("duplicate label '%s' on line %d", lbl, lineNo)
			}
			a.labels[key] = index
		}

		if p.mnemonic == "" {
			continue
		}
		if _, ok := lookupMnemonic(p.mnemonic); !ok {
			return fmt.Errorf("unknown instruction on line %d: %s", lineNo, p.mnemonic)
		}
		index++
	}

	return nil
}

func (a *Assembler) pass2(lines []string) ([]Instruction, map[int]int, error) {
	program := make([]Instruction, 0, len(lines))
	sourceMap := make(map[int]int)

	for i, raw := range lines {
		lineNo := i + 1
		p, err := parseLine(raw, lineNo)
		if err != nil {
			return nil, nil, err
		}

		if p.mnemonic == "" {
			continue
		}

		site := len(program)
		sourceMap[site] = lineNo
		mnemonic := p.mnemonic
		ops := p.operands

		if op, ok := zeroOperandOps[mnemonic]; ok {
			if len(ops) != 0 {
				return nil, nil, fmt.Errorf("%s expects 0 operands on line %d", mnemonic, lineNo)
			}
			program = append(program, Instruction{Op: op})
			continue
		}

		if len(ops) != 1 {
			return nil, nil, fmt.Errorf("%s expects 1 operand on line %d", mnemonic, lineNo)
		}

		if op, ok := addressOps[mnemonic]; ok {
			addr, err := parseNumber(ops[0], lineNo)
			if err != nil {
				return nil, nil, err
			}
			if addr < 0 {
				return nil, nil, fmt.Errorf("negative address on line %d: %s", lineNo, ops[0])
			}
			program = append(program, Instruction{Op: op, Arg: addr})
			continue
		}

		if op, ok := literalOps[mnemonic]; ok {
			val, err := parseNumber(ops[0], lineNo)
			if err != nil {
				return nil, nil, err
			}
			program = append(program, Instruction{Op: op, Arg: val})
			continue
		}

		if op, ok := jumpOps[mnemonic]; ok {
			offset, err := a.parseOffset(ops[0], site, lineNo)
			if err != nil {
				return nil, nil, err
			}
			program = append(program, Instruction{Op: op, Arg: offset})
			continue
		}

		return nil, nil, fmt.Errorf("unknown instruction on line %d: %s", lineNo, mnemonic)
	}

	return program, sourceMap, nil
}

func lookupMnemonic(m string) (Opcode, bool) {
	for _, table := range []map[string]Opcode{zeroOperandOps, addressOps, literalOps, jumpOps} {
		if op, ok := table[m]; ok {
			return op, true
		}
	}
	return 0, false
}

func parseLine(raw string, lineNo int) (parsedLine, error) {
	p := parsedLine{lineNo: lineNo}

	line := strings.TrimSpace(stripComments(raw))
	if line == "" {
		return p, nil
	}

	for {
		colon := strings.IndexByte(line, ':')
		if colon < 0 {
			break
		}

		beforeColon := strings.TrimSpace(line[:colon])
		if beforeColon == "" {
			return p, fmt.Errorf("invalid label on line %d", lineNo)
		}
		if !isIdentifier(beforeColon) {
			return p, fmt.Errorf("invalid label '%s' on line %d", beforeColon, lineNo)
		}

		p.labels = append(p.labels, beforeColon)
		line = strings.TrimSpace(line[colon+1:])
		if line == "" {
			return p, nil
		}
	}

	fields := strings.Fields(line)
	p.mnemonic = strings.ToUpper(fields[0])
	if len(fields) > 1 {
		p.operands = fields[1:]
	}

	return p, nil
}

func stripComments(line string) string {
	if cut := strings.IndexAny(line, ";#"); cut >= 0 {
		return line[:cut]
	}
	return line
}

func parseNumber(token string, lineNo int) (int64, error) {
	v, err := strconv.ParseInt(token, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid operand '%s' on line %d", token, lineNo)
	}
	return v, nil
}

func (a *Assembler) parseOffset(token string, site, lineNo int) (int64, error) {
	if v, err := strconv.ParseInt(token, 10, 64); err == nil {
		return v, nil
	}

	if target, ok := a.labels[normalizeLabel(token)]; ok {
		return int64(target - site), nil
	}

	if isIdentifier(token) {
		return 0, fmt.Errorf("undefined label '%s' on line %d", token, lineNo)
	}

	return 0, fmt.Errorf("invalid jump offset '%s' on line %d", token, lineNo)
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}

	for i, r := range s {
		if i == 0 {
			if !unicode.IsLetter(r) && r != '_' {
				return false
			}
			continue
		}

		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' {
			return false
		}
	}

	return true
}

func normalizeLabel(label string) string {
	return strings.ToUpper(label)
}
