package asm

import (
	"fmt"
	"strings"
)

// Opcode identifies a machine instruction.
type Opcode uint8

const (
	OpGET Opcode = iota
	OpPUT
	OpLOAD
	OpSTORE
	OpLOADI
	OpSTOREI
	OpADD
	OpSUB
	OpADDI
	OpSUBI
	OpSET
	OpHALF
	OpJUMP
	OpJPOS
	OpJZERO
	OpJNEG
	OpRTRN
	OpHALT
)

var mnemonics = [...]string{
	OpGET:    "GET",
	OpPUT:    "PUT",
	OpLOAD:   "LOAD",
	OpSTORE:  "STORE",
	OpLOADI:  "LOADI",
	OpSTOREI: "STOREI",
	OpADD:    "ADD",
	OpSUB:    "SUB",
	OpADDI:   "ADDI",
	OpSUBI:   "SUBI",
	OpSET:    "SET",
	OpHALF:   "HALF",
	OpJUMP:   "JUMP",
	OpJPOS:   "JPOS",
	OpJZERO:  "JZERO",
	OpJNEG:   "JNEG",
	OpRTRN:   "RTRN",
	OpHALT:   "HALT",
}

// Operand classes, keyed by mnemonic.
var zeroOperandOps = map[string]Opcode{
	"HALF": OpHALF,
	"HALT": OpHALT,
}

var addressOps = map[string]Opcode{
	"GET":    OpGET,
	"PUT":    OpPUT,
	"LOAD":   OpLOAD,
	"STORE":  OpSTORE,
	"LOADI":  OpLOADI,
	"STOREI": OpSTOREI,
	"ADD":    OpADD,
	"SUB":    OpSUB,
	"ADDI":   OpADDI,
	"SUBI":   OpSUBI,
	"RTRN":   OpRTRN,
}

var literalOps = map[string]Opcode{
	"SET": OpSET,
}

var jumpOps = map[string]Opcode{
	"JUMP":  OpJUMP,
	"JPOS":  OpJPOS,
	"JZERO": OpJZERO,
	"JNEG":  OpJNEG,
}

func (op Opcode) String() string {
	if int(op) < len(mnemonics) {
		return mnemonics[op]
	}
	return fmt.Sprintf("Opcode(%d)", int(op))
}

// HasOperand reports whether the instruction takes an operand.
func (op Opcode) HasOperand() bool {
	return op != OpHALF && op != OpHALT
}

// IsJump reports whether the operand is a relative offset.
func (op Opcode) IsJump() bool {
	switch op {
	case OpJUMP, OpJPOS, OpJZERO, OpJNEG:
		return true
	}
	return false
}

// Instruction is one machine instruction. Arg is an address, a literal or a
// relative jump offset depending on Op.
type Instruction struct {
	Op  Opcode
	Arg int64
}

func (i Instruction) String() string {
	if !i.Op.HasOperand() {
		return i.Op.String()
	}
	return fmt.Sprintf("%s %d", i.Op, i.Arg)
}

// Format renders a program in the machine's text format, one instruction per
// line.
func Format(code []Instruction) string {
	var sb strings.Builder
	for _, ins := range code {
		sb.WriteString(ins.String())
		sb.WriteByte('\n')
	}
	return sb.String()
}
