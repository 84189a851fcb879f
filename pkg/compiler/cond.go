package compiler

import (
	"impc/pkg/asm"
	"impc/pkg/ast"
)

// condBranch describes how a condition is decided from right - left: the
// one conditional jump to emit and whether taking it means true.
type condBranch struct {
	op       asm.Opcode
	takenIsT bool
}

var condBranches = map[ast.RelOp]condBranch{
	ast.Lt:  {asm.OpJPOS, true},   // right - left > 0
	ast.Gt:  {asm.OpJNEG, true},   // right - left < 0
	ast.Eq:  {asm.OpJZERO, true},  // right - left = 0
	ast.Neq: {asm.OpJZERO, false}, // right - left = 0 means false
	ast.Leq: {asm.OpJNEG, false},  // right - left < 0 means false
	ast.Geq: {asm.OpJPOS, false},  // right - left > 0 means false
}

// genCondition leaves exactly 1 or 0 in the accumulator.
func (cg *CodeGen) genCondition(c *ast.Condition) error {
	br, ok := condBranches[c.Op]
	if !ok {
		return errorf(Internal, ast.Pos{}, "", "unhandled relation %s", c.Op)
	}

	l, lok := c.Left.(*ast.Literal)
	r, rok := c.Right.(*ast.Literal)
	if lok && rok {
		if compare(c.Op, l.Value, r.Value) {
			cg.emit(asm.OpLOAD, oneCell)
		} else {
			cg.emit(asm.OpLOAD, zeroCell)
		}
		return nil
	}

	if err := cg.loadValue(c.Left); err != nil {
		return err
	}
	cg.emit(asm.OpSTORE, lhs)
	if err := cg.loadValue(c.Right); err != nil {
		return err
	}
	cg.emit(asm.OpSUB, lhs)

	taken, fallthru := zeroCell, oneCell
	if br.takenIsT {
		taken, fallthru = oneCell, zeroCell
	}
	branch := cg.b.NewLabel()
	end := cg.b.NewLabel()
	cg.jump(br.op, branch)
	cg.emit(asm.OpLOAD, fallthru)
	cg.jump(asm.OpJUMP, end)
	cg.b.Define(branch)
	cg.emit(asm.OpLOAD, taken)
	cg.b.Define(end)
	return nil
}

func compare(op ast.RelOp, a, b int64) bool {
	switch op {
	case ast.Eq:
		return a == b
	case ast.Neq:
		return a != b
	case ast.Lt:
		return a < b
	case ast.Gt:
		return a > b
	case ast.Leq:
		return a <= b
	case ast.Geq:
		return a >= b
	}
	return false
}
