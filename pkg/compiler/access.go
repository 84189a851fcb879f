package compiler

import (
	"impc/pkg/asm"
	"impc/pkg/ast"
)

// resolve looks id up in the current scope and checks that it is used with
// the right shape.
func (cg *CodeGen) resolve(id *ast.Identifier) (*Symbol, error) {
	sym, ok := cg.syms.Lookup(cg.scope, id.Name)
	if !ok {
		return nil, errorf(UndeclaredIdentifier, id.Pos, id.Name, "%s is not declared", id.Name)
	}
	if sym.Indexed() && id.Index == nil {
		return nil, errorf(ShapeMismatch, id.Pos, id.Name, "array %s used without an index", id.Name)
	}
	if !sym.Indexed() && id.Index != nil {
		return nil, errorf(ShapeMismatch, id.Pos, id.Name, "%s is not an array", id.Name)
	}
	if lit, ok := id.Index.(*ast.Literal); ok && sym.Kind == SymArray {
		if lit.Value < sym.Start || lit.Value >= sym.Start+sym.Size {
			return nil, errorf(InvalidRange, id.Pos, id.Name, "index %d outside %s[%d:%d]",
				lit.Value, id.Name, sym.Start, sym.Start+sym.Size-1)
		}
	}
	return sym, nil
}

// resolveTarget is resolve for identifiers that get written.
func (cg *CodeGen) resolveTarget(id *ast.Identifier) (*Symbol, error) {
	sym, err := cg.resolve(id)
	if err != nil {
		return nil, err
	}
	if sym.Kind == SymIterator {
		return nil, errorf(IteratorMutation, id.Pos, id.Name, "loop iterator %s cannot be modified", id.Name)
	}
	return sym, nil
}

// directAddr returns the cell holding id's value when it is known at compile
// time.
func directAddr(id *ast.Identifier, sym *Symbol) (int64, bool) {
	switch sym.Kind {
	case SymScalar, SymIterator:
		return sym.Addr, true
	case SymArray:
		if lit, ok := id.Index.(*ast.Literal); ok {
			return sym.Addr + lit.Value - sym.Start, true
		}
	}
	return 0, false
}

// loadIndex loads a runtime index into the accumulator.
func (cg *CodeGen) loadIndex(owner *ast.Identifier, idx *ast.Identifier) error {
	sym, err := cg.resolve(idx)
	if err != nil {
		return err
	}
	switch {
	case sym.Indexed():
		return errorf(ShapeMismatch, idx.Pos, idx.Name, "array %s used as index of %s", idx.Name, owner.Name)
	case sym.Kind == SymParam:
		cg.emit(asm.OpLOADI, sym.Addr)
	default:
		cg.emit(asm.OpLOAD, sym.Addr)
	}
	return nil
}

// elementAddr leaves the address of id's element in ptrTmp. Only the
// accumulator and ptrTmp are written.
func (cg *CodeGen) elementAddr(id *ast.Identifier, sym *Symbol) error {
	switch idx := id.Index.(type) {
	case *ast.Literal:
		if sym.Kind != SymParam {
			return errorf(Internal, id.Pos, id.Name, "literal index of %s needs no address computation", id.Name)
		}
		cg.emit(asm.OpSET, idx.Value)
		cg.emit(asm.OpADD, sym.Addr)
	case *ast.Identifier:
		if err := cg.loadIndex(id, idx); err != nil {
			return err
		}
		if sym.Kind == SymParam {
			cg.emit(asm.OpADD, sym.Addr)
		} else {
			cg.emit(asm.OpADD, sym.OffsetCell)
		}
	default:
		return errorf(Internal, id.Pos, id.Name, "unhandled index %T", idx)
	}
	cg.emit(asm.OpSTORE, ptrTmp)
	return nil
}

func (cg *CodeGen) loadValue(v ast.Value) error {
	switch v := v.(type) {
	case *ast.Literal:
		cg.emit(asm.OpSET, v.Value)
		return nil
	case *ast.Identifier:
		return cg.loadIdent(v)
	default:
		return errorf(Internal, ast.Pos{}, "", "unhandled value %T", v)
	}
}

func (cg *CodeGen) loadIdent(id *ast.Identifier) error {
	sym, err := cg.resolve(id)
	if err != nil {
		return err
	}
	addr, direct := directAddr(id, sym)
	switch {
	case direct:
		cg.emit(asm.OpLOAD, addr)
	case sym.Kind == SymParam && !sym.IsArray:
		cg.emit(asm.OpLOADI, sym.Addr)
	default:
		if err := cg.elementAddr(id, sym); err != nil {
			return err
		}
		cg.emit(asm.OpLOADI, ptrTmp)
	}
	return nil
}

// storeAcc writes the accumulator to id.
func (cg *CodeGen) storeAcc(id *ast.Identifier, sym *Symbol) error {
	addr, direct := directAddr(id, sym)
	switch {
	case direct:
		cg.emit(asm.OpSTORE, addr)
	case sym.Kind == SymParam && !sym.IsArray:
		cg.emit(asm.OpSTOREI, sym.Addr)
	default:
		cg.emit(asm.OpSTORE, valueTmp)
		if err := cg.elementAddr(id, sym); err != nil {
			return err
		}
		cg.emit(asm.OpLOAD, valueTmp)
		cg.emit(asm.OpSTOREI, ptrTmp)
	}
	return nil
}
