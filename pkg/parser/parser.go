// Package parser reads program source into an ast.Program.
package parser

import (
	"fmt"
	"strconv"

	"impc/pkg/ast"

	"github.com/alecthomas/participle"
	"github.com/alecthomas/participle/lexer"
)

var grammar = participle.MustBuild(
	&program{},
	participle.Lexer(lexer.Must(lexer.Regexp(lexerRegex))),
	participle.UseLookahead(4))

// Parse parses src. filename only decorates error messages.
func Parse(filename, src string) (*ast.Program, error) {
	raw := &program{}
	if err := grammar.ParseString(src, raw); err != nil {
		if filename != "" {
			return nil, fmt.Errorf("%s: %w", filename, err)
		}
		return nil, err
	}

	prog, err := lower(raw)
	if err != nil {
		if filename != "" {
			return nil, fmt.Errorf("%s: %w", filename, err)
		}
		return nil, err
	}
	return prog, nil
}

func pos(p lexer.Position) ast.Pos {
	return ast.Pos{Line: p.Line, Column: p.Column}
}

func lower(raw *program) (*ast.Program, error) {
	prog := &ast.Program{}

	for _, rp := range raw.Procedures {
		p, err := lowerProcedure(rp)
		if err != nil {
			return nil, err
		}
		prog.Procedures = append(prog.Procedures, p)
	}

	decls, err := lowerDecls(raw.Main.Declarations)
	if err != nil {
		return nil, err
	}
	cmds, err := lowerCommands(raw.Main.Commands)
	if err != nil {
		return nil, err
	}
	prog.Main = &ast.Main{Pos: pos(raw.Main.Pos), Declarations: decls, Commands: cmds}

	return prog, nil
}

func lowerProcedure(rp *procedure) (*ast.Procedure, error) {
	head := &ast.ProcedureHead{Pos: pos(rp.Pos), Name: rp.Name}
	for _, p := range rp.Params {
		head.Params = append(head.Params, &ast.Param{Pos: pos(p.Pos), Name: p.Name, IsArray: p.Array})
	}

	decls, err := lowerDecls(rp.Declarations)
	if err != nil {
		return nil, err
	}
	cmds, err := lowerCommands(rp.Commands)
	if err != nil {
		return nil, err
	}

	return &ast.Procedure{Head: head, Declarations: decls, Commands: cmds}, nil
}

func lowerDecls(raw []*decl) ([]*ast.Declaration, error) {
	var out []*ast.Declaration
	for _, d := range raw {
		decl := &ast.Declaration{Pos: pos(d.Pos), Name: d.Name}
		if d.Start != nil {
			start, err := lowerNumber(d.Start)
			if err != nil {
				return nil, err
			}
			end, err := lowerNumber(d.End)
			if err != nil {
				return nil, err
			}
			decl.IsArray = true
			decl.Start = start
			decl.End = end
		}
		out = append(out, decl)
	}
	return out, nil
}

func lowerNumber(n *number) (int64, error) {
	text := n.Digits
	if n.Negative {
		text = "-" + text
	}
	v, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%d:%d: number %s out of range", n.Pos.Line, n.Pos.Column, text)
	}
	return v, nil
}

func lowerCommands(raw []*command) ([]ast.Command, error) {
	out := make([]ast.Command, 0, len(raw))
	for _, c := range raw {
		cmd, err := lowerCommand(c)
		if err != nil {
			return nil, err
		}
		out = append(out, cmd)
	}
	return out, nil
}

func lowerCommand(c *command) (ast.Command, error) {
	at := pos(c.Pos)

	switch {
	case c.If != nil:
		cond, err := lowerCondition(c.If.Cond)
		if err != nil {
			return nil, err
		}
		then, err := lowerCommands(c.If.Then)
		if err != nil {
			return nil, err
		}
		var els []ast.Command
		if len(c.If.Else) > 0 {
			if els, err = lowerCommands(c.If.Else); err != nil {
				return nil, err
			}
		}
		return &ast.If{Pos: at, Cond: cond, Then: then, Else: els}, nil

	case c.While != nil:
		cond, err := lowerCondition(c.While.Cond)
		if err != nil {
			return nil, err
		}
		body, err := lowerCommands(c.While.Body)
		if err != nil {
			return nil, err
		}
		return &ast.While{Pos: at, Cond: cond, Body: body}, nil

	case c.Repeat != nil:
		body, err := lowerCommands(c.Repeat.Body)
		if err != nil {
			return nil, err
		}
		cond, err := lowerCondition(c.Repeat.Cond)
		if err != nil {
			return nil, err
		}
		return &ast.RepeatUntil{Pos: at, Body: body, Cond: cond}, nil

	case c.For != nil:
		from, err := lowerValue(c.For.From)
		if err != nil {
			return nil, err
		}
		to, err := lowerValue(c.For.To)
		if err != nil {
			return nil, err
		}
		body, err := lowerCommands(c.For.Body)
		if err != nil {
			return nil, err
		}
		return &ast.For{Pos: at, Iterator: c.For.Iterator, From: from, To: to, Downto: c.For.Downto, Body: body}, nil

	case c.Read != nil:
		target, err := lowerIdent(c.Read)
		if err != nil {
			return nil, err
		}
		return &ast.Read{Pos: at, Target: target}, nil

	case c.Write != nil:
		v, err := lowerValue(c.Write)
		if err != nil {
			return nil, err
		}
		return &ast.Write{Pos: at, Value: v}, nil

	case c.Call != nil:
		call := &ast.ProcedureCall{Pos: at, Name: c.Call.Name}
		for _, a := range c.Call.Args {
			call.Args = append(call.Args, &ast.Identifier{Pos: pos(a.Pos), Name: a.Name})
		}
		return call, nil

	case c.Assign != nil:
		target, err := lowerIdent(c.Assign.Target)
		if err != nil {
			return nil, err
		}
		expr, err := lowerExpression(c.Assign.Expr)
		if err != nil {
			return nil, err
		}
		return &ast.Assign{Pos: at, Target: target, Expr: expr}, nil
	}

	return nil, fmt.Errorf("%s: empty command", at)
}

var binaryOps = map[string]ast.BinaryOp{
	"+": ast.Add,
	"-": ast.Sub,
	"*": ast.Mul,
	"/": ast.Div,
	"%": ast.Mod,
}

var relOps = map[string]ast.RelOp{
	"=":  ast.Eq,
	"!=": ast.Neq,
	"<":  ast.Lt,
	">":  ast.Gt,
	"<=": ast.Leq,
	">=": ast.Geq,
}

func lowerExpression(e *expression) (ast.Expression, error) {
	left, err := lowerValue(e.Left)
	if err != nil {
		return nil, err
	}
	if e.Right == nil {
		return left, nil
	}
	right, err := lowerValue(e.Right)
	if err != nil {
		return nil, err
	}
	op, ok := binaryOps[e.Op]
	if !ok {
		return nil, fmt.Errorf("unknown operator %q", e.Op)
	}
	return &ast.BinaryExpr{Left: left, Right: right, Op: op}, nil
}

func lowerCondition(c *condition) (*ast.Condition, error) {
	left, err := lowerValue(c.Left)
	if err != nil {
		return nil, err
	}
	right, err := lowerValue(c.Right)
	if err != nil {
		return nil, err
	}
	op, ok := relOps[c.Op]
	if !ok {
		return nil, fmt.Errorf("unknown relation %q", c.Op)
	}
	return &ast.Condition{Left: left, Right: right, Op: op}, nil
}

func lowerValue(v *value) (ast.Value, error) {
	if v.Number != nil {
		n, err := lowerNumber(v.Number)
		if err != nil {
			return nil, err
		}
		return &ast.Literal{Value: n}, nil
	}
	return lowerIdent(v.Ident)
}

func lowerIdent(r *identRef) (*ast.Identifier, error) {
	id := &ast.Identifier{Pos: pos(r.Pos), Name: r.Name}
	if r.Index == nil {
		return id, nil
	}

	if r.Index.Number != nil {
		n, err := lowerNumber(r.Index.Number)
		if err != nil {
			return nil, err
		}
		id.Index = &ast.Literal{Value: n}
	} else {
		id.Index = &ast.Identifier{Pos: pos(r.Index.Pos), Name: *r.Index.Name}
	}
	return id, nil
}
