package compiler

import (
	"impc/pkg/asm"
	"impc/pkg/ast"
)

// genExpr leaves the value of e in the accumulator.
func (cg *CodeGen) genExpr(e ast.Expression) error {
	switch e := e.(type) {
	case *ast.Literal:
		return cg.loadValue(e)
	case *ast.Identifier:
		return cg.loadValue(e)
	case *ast.BinaryExpr:
		return cg.genBinary(e)
	default:
		return errorf(Internal, ast.Pos{}, "", "unhandled expression %T", e)
	}
}

func (cg *CodeGen) genBinary(e *ast.BinaryExpr) error {
	l, lok := e.Left.(*ast.Literal)
	r, rok := e.Right.(*ast.Literal)
	if lok && rok {
		cg.emit(asm.OpSET, Fold(e.Op, l.Value, r.Value))
		return nil
	}

	switch e.Op {
	case ast.Add:
		return cg.genAdd(e.Left, e.Right)
	case ast.Sub:
		return cg.genSub(e.Left, e.Right)
	case ast.Mul:
		if isZero(e.Left) || isZero(e.Right) {
			cg.emit(asm.OpLOAD, zeroCell)
			return nil
		}
		return cg.genMul(e.Left, e.Right)
	case ast.Div, ast.Mod:
		if isZero(e.Left) || isZero(e.Right) {
			cg.emit(asm.OpLOAD, zeroCell)
			return nil
		}
		return cg.genDivMod(e.Left, e.Right, e.Op == ast.Mod)
	default:
		return errorf(Internal, ast.Pos{}, "", "unhandled operator %s", e.Op)
	}
}

func isZero(v ast.Value) bool {
	lit, ok := v.(*ast.Literal)
	return ok && lit.Value == 0
}

// Fold evaluates a literal operation with floor division semantics.
// Division and modulo by zero give 0.
func Fold(op ast.BinaryOp, a, b int64) int64 {
	switch op {
	case ast.Add:
		return a + b
	case ast.Sub:
		return a - b
	case ast.Mul:
		return a * b
	case ast.Div:
		if b == 0 {
			return 0
		}
		q := a / b
		if a%b != 0 && (a < 0) != (b < 0) {
			q--
		}
		return q
	case ast.Mod:
		if b == 0 {
			return 0
		}
		m := a % b
		if m != 0 && (m < 0) != (b < 0) {
			m += b
		}
		return m
	}
	return 0
}

// genAdd: the literal side, if any, goes through lhs so the identifier is
// loaded last.
func (cg *CodeGen) genAdd(a, b ast.Value) error {
	if _, ok := a.(*ast.Literal); ok {
		a, b = b, a
	}
	if err := cg.loadValue(b); err != nil {
		return err
	}
	cg.emit(asm.OpSTORE, lhs)
	if err := cg.loadValue(a); err != nil {
		return err
	}
	cg.emit(asm.OpADD, lhs)
	return nil
}

// genSub computes a - b.
func (cg *CodeGen) genSub(a, b ast.Value) error {
	if err := cg.loadValue(b); err != nil {
		return err
	}
	cg.emit(asm.OpSTORE, lhs)
	if err := cg.loadValue(a); err != nil {
		return err
	}
	cg.emit(asm.OpSUB, lhs)
	return nil
}

// loadOperands stores a in lhs and b in rhs.
func (cg *CodeGen) loadOperands(a, b ast.Value) error {
	if err := cg.loadValue(a); err != nil {
		return err
	}
	cg.emit(asm.OpSTORE, lhs)
	if err := cg.loadValue(b); err != nil {
		return err
	}
	cg.emit(asm.OpSTORE, rhs)
	return nil
}

// negate replaces cell with its negation. The accumulator ends up holding
// the new value.
func (cg *CodeGen) negate(cell int64) {
	cg.emit(asm.OpLOAD, zeroCell)
	cg.emit(asm.OpSUB, cell)
	cg.emit(asm.OpSTORE, cell)
}

// flipSign toggles the parity in sign.
func (cg *CodeGen) flipSign() {
	cg.emit(asm.OpLOAD, oneCell)
	cg.emit(asm.OpSUB, sign)
	cg.emit(asm.OpSTORE, sign)
}

// genMul multiplies by doubling and adding. Signs are stripped first and the
// parity reapplied at the end.
func (cg *CodeGen) genMul(a, b ast.Value) error {
	if err := cg.loadOperands(a, b); err != nil {
		return err
	}
	cg.emit(asm.OpLOAD, zeroCell)
	cg.emit(asm.OpSTORE, sign)
	cg.emit(asm.OpSTORE, result)

	fixSign := cg.b.NewLabel()
	end := cg.b.NewLabel()

	for _, cell := range []int64{lhs, rhs} {
		positive := cg.b.NewLabel()
		cg.emit(asm.OpLOAD, cell)
		cg.jump(asm.OpJZERO, fixSign)
		cg.jump(asm.OpJPOS, positive)
		cg.flipSign()
		cg.negate(cell)
		cg.b.Define(positive)
	}

	loop := cg.b.DefineNew()
	even := cg.b.NewLabel()
	cg.emit(asm.OpLOAD, lhs)
	cg.jump(asm.OpJZERO, fixSign)
	// lhs - 2*floor(lhs/2) is zero when the low bit is clear.
	cg.emit0(asm.OpHALF)
	cg.emit(asm.OpADD, acc)
	cg.emit(asm.OpSUB, lhs)
	cg.jump(asm.OpJZERO, even)
	cg.emit(asm.OpLOAD, result)
	cg.emit(asm.OpADD, rhs)
	cg.emit(asm.OpSTORE, result)
	cg.b.Define(even)
	cg.emit(asm.OpLOAD, lhs)
	cg.emit0(asm.OpHALF)
	cg.emit(asm.OpSTORE, lhs)
	cg.emit(asm.OpLOAD, rhs)
	cg.emit(asm.OpADD, acc)
	cg.emit(asm.OpSTORE, rhs)
	cg.jump(asm.OpJUMP, loop)

	cg.b.Define(fixSign)
	positive := cg.b.NewLabel()
	cg.emit(asm.OpLOAD, sign)
	cg.jump(asm.OpJZERO, positive)
	cg.emit(asm.OpLOAD, zeroCell)
	cg.emit(asm.OpSUB, result)
	cg.jump(asm.OpJUMP, end)
	cg.b.Define(positive)
	cg.emit(asm.OpLOAD, result)
	cg.b.Define(end)
	return nil
}

// genDivMod divides the magnitudes by shift and subtract, then corrects the
// quotient or remainder towards negative infinity.
func (cg *CodeGen) genDivMod(a, b ast.Value, mod bool) error {
	if err := cg.loadOperands(a, b); err != nil {
		return err
	}
	cg.emit(asm.OpLOAD, zeroCell)
	cg.emit(asm.OpSTORE, sign)
	cg.emit(asm.OpSTORE, result)
	cg.emit(asm.OpSTORE, negDiv)

	zero := cg.b.NewLabel()
	end := cg.b.NewLabel()

	divisorPositive := cg.b.NewLabel()
	cg.emit(asm.OpLOAD, rhs)
	cg.jump(asm.OpJZERO, zero)
	cg.jump(asm.OpJPOS, divisorPositive)
	cg.emit(asm.OpLOAD, oneCell)
	cg.emit(asm.OpSTORE, negDiv)
	cg.emit(asm.OpSTORE, sign)
	cg.negate(rhs)
	cg.b.Define(divisorPositive)

	dividendPositive := cg.b.NewLabel()
	cg.emit(asm.OpLOAD, lhs)
	cg.jump(asm.OpJZERO, zero)
	cg.jump(asm.OpJPOS, dividendPositive)
	cg.flipSign()
	cg.negate(lhs)
	cg.b.Define(dividendPositive)

	outer := cg.b.DefineNew()
	done := cg.b.NewLabel()
	subtract := cg.b.NewLabel()
	cg.emit(asm.OpLOAD, lhs)
	cg.emit(asm.OpSUB, rhs)
	cg.jump(asm.OpJNEG, done)
	cg.emit(asm.OpLOAD, rhs)
	cg.emit(asm.OpSTORE, divisor)
	if !mod {
		cg.emit(asm.OpLOAD, oneCell)
		cg.emit(asm.OpSTORE, power)
	}

	grow := cg.b.DefineNew()
	cg.emit(asm.OpLOAD, divisor)
	cg.emit(asm.OpADD, acc)
	cg.emit(asm.OpSUB, lhs)
	cg.jump(asm.OpJPOS, subtract)
	cg.emit(asm.OpLOAD, divisor)
	cg.emit(asm.OpADD, acc)
	cg.emit(asm.OpSTORE, divisor)
	if !mod {
		cg.emit(asm.OpLOAD, power)
		cg.emit(asm.OpADD, acc)
		cg.emit(asm.OpSTORE, power)
	}
	cg.jump(asm.OpJUMP, grow)

	cg.b.Define(subtract)
	cg.emit(asm.OpLOAD, lhs)
	cg.emit(asm.OpSUB, divisor)
	cg.emit(asm.OpSTORE, lhs)
	if !mod {
		cg.emit(asm.OpLOAD, result)
		cg.emit(asm.OpADD, power)
		cg.emit(asm.OpSTORE, result)
	}
	cg.jump(asm.OpJUMP, outer)

	cg.b.Define(done)
	if mod {
		cg.remainderTail(end)
	} else {
		cg.quotientTail(end)
	}

	cg.b.Define(zero)
	cg.emit(asm.OpLOAD, zeroCell)
	cg.b.Define(end)
	return nil
}

// quotientTail: -(q+1) when the signs differed and something was left over,
// -q when they differed exactly, q otherwise.
func (cg *CodeGen) quotientTail(end asm.Label) {
	positive := cg.b.NewLabel()
	exact := cg.b.NewLabel()
	cg.emit(asm.OpLOAD, sign)
	cg.jump(asm.OpJZERO, positive)
	cg.emit(asm.OpLOAD, lhs)
	cg.jump(asm.OpJZERO, exact)
	cg.emit(asm.OpLOAD, result)
	cg.emit(asm.OpADD, oneCell)
	cg.emit(asm.OpSTORE, result)
	cg.b.Define(exact)
	cg.emit(asm.OpLOAD, zeroCell)
	cg.emit(asm.OpSUB, result)
	cg.jump(asm.OpJUMP, end)
	cg.b.Define(positive)
	cg.emit(asm.OpLOAD, result)
	cg.jump(asm.OpJUMP, end)
}

// remainderTail gives the remainder the divisor's sign.
func (cg *CodeGen) remainderTail(end asm.Label) {
	sameSign := cg.b.NewLabel()
	positive := cg.b.NewLabel()
	cg.emit(asm.OpLOAD, lhs)
	cg.jump(asm.OpJZERO, end)
	cg.emit(asm.OpLOAD, sign)
	cg.jump(asm.OpJZERO, sameSign)
	cg.emit(asm.OpLOAD, rhs)
	cg.emit(asm.OpSUB, lhs)
	cg.emit(asm.OpSTORE, lhs)
	cg.b.Define(sameSign)
	cg.emit(asm.OpLOAD, negDiv)
	cg.jump(asm.OpJZERO, positive)
	cg.emit(asm.OpLOAD, zeroCell)
	cg.emit(asm.OpSUB, lhs)
	cg.jump(asm.OpJUMP, end)
	cg.b.Define(positive)
	cg.emit(asm.OpLOAD, lhs)
	cg.jump(asm.OpJUMP, end)
}
