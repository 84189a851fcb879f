package compiler

import (
	"impc/pkg/asm"
	"impc/pkg/ast"
)

func (cg *CodeGen) genIf(s *ast.If) error {
	if err := cg.genCondition(s.Cond); err != nil {
		return err
	}
	elseLabel := cg.b.NewLabel()
	cg.jump(asm.OpJZERO, elseLabel)
	if err := cg.genCommands(s.Then); err != nil {
		return err
	}
	if len(s.Else) == 0 {
		cg.b.Define(elseLabel)
		return nil
	}

	end := cg.b.NewLabel()
	cg.jump(asm.OpJUMP, end)
	cg.b.Define(elseLabel)
	if err := cg.genCommands(s.Else); err != nil {
		return err
	}
	cg.b.Define(end)
	return nil
}

func (cg *CodeGen) genWhile(s *ast.While) error {
	start := cg.b.DefineNew()
	end := cg.b.NewLabel()
	if err := cg.genCondition(s.Cond); err != nil {
		return err
	}
	cg.jump(asm.OpJZERO, end)
	if err := cg.genCommands(s.Body); err != nil {
		return err
	}
	cg.jump(asm.OpJUMP, start)
	cg.b.Define(end)
	return nil
}

// genRepeat loops while the condition is false.
func (cg *CodeGen) genRepeat(s *ast.RepeatUntil) error {
	start := cg.b.DefineNew()
	if err := cg.genCommands(s.Body); err != nil {
		return err
	}
	if err := cg.genCondition(s.Cond); err != nil {
		return err
	}
	cg.jump(asm.OpJZERO, start)
	return nil
}

// genFor evaluates both bounds before the iterator is bound, so they see the
// enclosing scope. The limit is fixed at loop entry.
func (cg *CodeGen) genFor(s *ast.For) error {
	counter, err := cg.syms.AllocateTemp(cg.scope, "iterator "+s.Iterator)
	if err != nil {
		return errorf(Internal, s.Pos, s.Iterator, "%v", err)
	}
	limit, err := cg.syms.AllocateTemp(cg.scope, "limit of "+s.Iterator)
	if err != nil {
		return errorf(Internal, s.Pos, s.Iterator, "%v", err)
	}

	if err := cg.loadValue(s.From); err != nil {
		return err
	}
	cg.emit(asm.OpSTORE, counter)
	if err := cg.loadValue(s.To); err != nil {
		return err
	}
	cg.emit(asm.OpSTORE, limit)

	unbind := cg.syms.BindIterator(cg.scope, s.Iterator, counter)
	defer unbind()

	exit, step := asm.OpJPOS, asm.OpADD
	if s.Downto {
		exit, step = asm.OpJNEG, asm.OpSUB
	}

	start := cg.b.DefineNew()
	end := cg.b.NewLabel()
	cg.emit(asm.OpLOAD, counter)
	cg.emit(asm.OpSUB, limit)
	cg.jump(exit, end)
	if err := cg.genCommands(s.Body); err != nil {
		return err
	}
	cg.emit(asm.OpLOAD, counter)
	cg.emit(step, oneCell)
	cg.emit(asm.OpSTORE, counter)
	cg.jump(asm.OpJUMP, start)
	cg.b.Define(end)
	return nil
}
