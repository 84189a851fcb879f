package compiler

import (
	"impc/pkg/asm"
	"impc/pkg/ast"
)

// genCall passes every argument by reference through the callee's pointer
// cells, stores the resume index in its return cell and jumps to its entry.
func (cg *CodeGen) genCall(c *ast.ProcedureCall) error {
	if cg.proc != nil && cg.proc.Name == c.Name {
		return errorf(RecursionRejected, c.Pos, c.Name, "procedure %s calls itself", c.Name)
	}
	callee, ok := cg.syms.Procedure(c.Name)
	if !ok {
		return errorf(UnknownProcedure, c.Pos, c.Name, "procedure %s is not declared before this call", c.Name)
	}
	if len(c.Args) != len(callee.Params) {
		return errorf(ArityOrShapeMismatch, c.Pos, c.Name, "%s takes %d arguments, got %d",
			c.Name, len(callee.Params), len(c.Args))
	}

	for i, arg := range c.Args {
		param := callee.Params[i]
		sym, ok := cg.syms.Lookup(cg.scope, arg.Name)
		if !ok {
			return errorf(UndeclaredIdentifier, arg.Pos, arg.Name, "%s is not declared", arg.Name)
		}
		if sym.Kind == SymIterator {
			return errorf(IteratorMutation, arg.Pos, arg.Name, "loop iterator %s cannot be passed to %s", arg.Name, c.Name)
		}
		if arg.Index != nil {
			return errorf(ShapeMismatch, arg.Pos, arg.Name, "argument %s of %s must be a bare name", arg.Name, c.Name)
		}
		if sym.Indexed() != param.IsArray {
			return errorf(ArityOrShapeMismatch, arg.Pos, arg.Name, "argument %d of %s: %s",
				i+1, c.Name, shapeMismatch(param.IsArray))
		}

		switch sym.Kind {
		case SymParam:
			cg.emit(asm.OpLOAD, sym.Addr)
		case SymArray:
			cg.emit(asm.OpSET, sym.Offset())
		default:
			cg.emit(asm.OpSET, sym.Addr)
		}
		cg.emit(asm.OpSTORE, param.Addr)
	}

	// SET resume; STORE ret; JUMP entry; resume:
	resume := int64(cg.b.Len() + 3)
	cg.emit(asm.OpSET, resume)
	cg.emit(asm.OpSTORE, callee.ReturnCell)
	cg.jump(asm.OpJUMP, callee.Entry)
	return nil
}

func shapeMismatch(wantArray bool) string {
	if wantArray {
		return "array expected, got scalar"
	}
	return "scalar expected, got array"
}
