package compiler

import (
	"fmt"

	"impc/pkg/ast"
)

// ErrorKind classifies a generation failure.
type ErrorKind int

const (
	Internal ErrorKind = iota
	UndeclaredIdentifier
	ShapeMismatch
	IteratorMutation
	DuplicateBinding
	RecursionRejected
	ArityOrShapeMismatch
	UnknownProcedure
	InvalidRange
)

var errorKindNames = [...]string{
	Internal:             "internal error",
	UndeclaredIdentifier: "undeclared identifier",
	ShapeMismatch:        "shape mismatch",
	IteratorMutation:     "iterator mutation",
	DuplicateBinding:     "duplicate binding",
	RecursionRejected:    "recursion rejected",
	ArityOrShapeMismatch: "argument mismatch",
	UnknownProcedure:     "unknown procedure",
	InvalidRange:         "invalid range",
}

func (k ErrorKind) String() string {
	if int(k) < len(errorKindNames) {
		return errorKindNames[k]
	}
	return fmt.Sprintf("ErrorKind(%d)", int(k))
}

// Error is a fatal semantic fault found during generation.
type Error struct {
	Kind ErrorKind
	Name string
	Pos  ast.Pos
	Msg  string
}

func (e *Error) Error() string {
	if e.Pos.Line == 0 {
		return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
	}
	return fmt.Sprintf("%s: %s: %s", e.Pos, e.Kind, e.Msg)
}

func errorf(kind ErrorKind, pos ast.Pos, name, format string, args ...any) *Error {
	return &Error{Kind: kind, Name: name, Pos: pos, Msg: fmt.Sprintf(format, args...)}
}
