package compiler

import (
	"fmt"
	"os"

	"impc/pkg/asm"
	"impc/pkg/parser"
)

// Compile parses src and generates code for it. The symbol table is returned
// for inspection even when generation fails.
func Compile(filename, src string) ([]asm.Instruction, *SymbolTable, error) {
	syms := NewSymbolTable()
	code, err := CompileWithTable(filename, src, syms)
	return code, syms, err
}

// CompileWithTable is Compile into a caller supplied table, typically one
// with Trace set.
func CompileWithTable(filename, src string, syms *SymbolTable) ([]asm.Instruction, error) {
	prog, err := parser.Parse(filename, src)
	if err != nil {
		return nil, fmt.Errorf("parse error: %w", err)
	}

	code, err := Generate(prog, syms)
	if err != nil {
		return nil, fmt.Errorf("codegen error: %w", err)
	}
	return code, nil
}

// CompileFile compiles the program at path and returns it in the machine's
// text format.
func CompileFile(path string) (string, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	code, _, err := Compile(path, string(src))
	if err != nil {
		return "", err
	}
	return asm.Format(code), nil
}
