package compiler

import (
	"impc/pkg/asm"
	"impc/pkg/ast"
)

// CodeGen walks a Program and emits machine instructions. One CodeGen is
// used for exactly one Generate call.
type CodeGen struct {
	syms  *SymbolTable
	b     *asm.Builder
	scope *Scope
	proc  *Procedure // nil while generating main
}

func newCodeGen(syms *SymbolTable) *CodeGen {
	return &CodeGen{
		syms:  syms,
		b:     asm.NewBuilder(),
		scope: syms.Globals,
	}
}

func (cg *CodeGen) emit(op asm.Opcode, arg int64) { cg.b.Emit(op, arg) }

func (cg *CodeGen) emit0(op asm.Opcode) { cg.b.Emit0(op) }

func (cg *CodeGen) jump(op asm.Opcode, l asm.Label) { cg.b.Placeholder(op, l) }

// Generate compiles prog. syms receives every binding made along the way and
// can be inspected afterwards.
func Generate(prog *ast.Program, syms *SymbolTable) ([]asm.Instruction, error) {
	cg := newCodeGen(syms)

	// Prologue: materialise the constants.
	cg.emit(asm.OpSET, 0)
	cg.emit(asm.OpSTORE, zeroCell)
	cg.emit(asm.OpSET, 1)
	cg.emit(asm.OpSTORE, oneCell)

	mainLabel := cg.b.NewLabel()
	if len(prog.Procedures) > 0 {
		cg.jump(asm.OpJUMP, mainLabel)
	}

	for _, p := range prog.Procedures {
		if err := cg.genProcedure(p); err != nil {
			return nil, err
		}
	}

	cg.b.Define(mainLabel)
	cg.scope = syms.Globals
	cg.proc = nil
	if prog.Main == nil {
		return nil, errorf(Internal, ast.Pos{}, "", "program has no main block")
	}
	if err := cg.genDeclarations(prog.Main.Declarations); err != nil {
		return nil, err
	}
	if err := cg.genCommands(prog.Main.Commands); err != nil {
		return nil, err
	}
	cg.emit0(asm.OpHALT)

	code, err := cg.b.Resolve()
	if err != nil {
		return nil, errorf(Internal, ast.Pos{}, "", "%v", err)
	}
	return code, nil
}

func (cg *CodeGen) genProcedure(p *ast.Procedure) error {
	proc, err := cg.syms.DeclareProcedure(p.Head, cg.b.NewLabel())
	if err != nil {
		return err
	}
	cg.proc = proc
	cg.scope = proc.Scope

	// Local array offsets are set up on every entry.
	cg.b.Define(proc.Entry)
	if err := cg.genDeclarations(p.Declarations); err != nil {
		return err
	}
	if err := cg.genCommands(p.Commands); err != nil {
		return err
	}
	cg.emit(asm.OpRTRN, proc.ReturnCell)
	return nil
}

// genDeclarations binds each declaration and, for arrays, stores the
// addressing offset.
func (cg *CodeGen) genDeclarations(decls []*ast.Declaration) error {
	for _, d := range decls {
		if !d.IsArray {
			if _, err := cg.syms.DeclareScalar(cg.scope, d); err != nil {
				return err
			}
			continue
		}
		sym, err := cg.syms.DeclareArray(cg.scope, d)
		if err != nil {
			return err
		}
		cg.emit(asm.OpSET, sym.Offset())
		cg.emit(asm.OpSTORE, sym.OffsetCell)
	}
	return nil
}

func (cg *CodeGen) genCommands(cmds []ast.Command) error {
	for _, c := range cmds {
		if err := cg.genCommand(c); err != nil {
			return err
		}
	}
	return nil
}

func (cg *CodeGen) genCommand(c ast.Command) error {
	switch c := c.(type) {
	case *ast.Assign:
		return cg.genAssign(c)
	case *ast.If:
		return cg.genIf(c)
	case *ast.While:
		return cg.genWhile(c)
	case *ast.RepeatUntil:
		return cg.genRepeat(c)
	case *ast.For:
		return cg.genFor(c)
	case *ast.Read:
		return cg.genRead(c)
	case *ast.Write:
		return cg.genWrite(c)
	case *ast.ProcedureCall:
		return cg.genCall(c)
	default:
		return errorf(Internal, c.Position(), "", "unhandled command %T", c)
	}
}

func (cg *CodeGen) genAssign(a *ast.Assign) error {
	target, err := cg.resolveTarget(a.Target)
	if err != nil {
		return err
	}
	if err := cg.genExpr(a.Expr); err != nil {
		return err
	}
	return cg.storeAcc(a.Target, target)
}

func (cg *CodeGen) genRead(r *ast.Read) error {
	target, err := cg.resolveTarget(r.Target)
	if err != nil {
		return err
	}
	if addr, direct := directAddr(r.Target, target); direct {
		cg.emit(asm.OpGET, addr)
		return nil
	}
	cg.emit(asm.OpGET, acc)
	return cg.storeAcc(r.Target, target)
}

func (cg *CodeGen) genWrite(w *ast.Write) error {
	if id, ok := w.Value.(*ast.Identifier); ok {
		sym, err := cg.resolve(id)
		if err != nil {
			return err
		}
		if addr, direct := directAddr(id, sym); direct {
			cg.emit(asm.OpPUT, addr)
			return nil
		}
	}
	if err := cg.loadValue(w.Value); err != nil {
		return err
	}
	cg.emit(asm.OpPUT, acc)
	return nil
}
