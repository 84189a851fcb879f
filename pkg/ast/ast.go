// Package ast defines the syntax tree consumed by the code generator.
//
// The node set is closed: Command, Expression and Value are satisfied only by
// the types declared here, which lets the generator switch over them
// exhaustively.
package ast

import (
	"fmt"
	"strings"
)

// Pos is a source position, 1-based.
type Pos struct {
	Line   int
	Column int
}

func (p Pos) String() string { return fmt.Sprintf("%d:%d", p.Line, p.Column) }

//  Program structure

// Program is the root: procedures in declaration order, then the main block.
type Program struct {
	Procedures []*Procedure
	Main       *Main
}

// Main is the PROGRAM IS ... BEGIN ... END block.
type Main struct {
	Pos          Pos
	Declarations []*Declaration
	Commands     []Command
}

// Procedure is PROCEDURE head IS decls BEGIN commands END.
type Procedure struct {
	Head         *ProcedureHead
	Declarations []*Declaration
	Commands     []Command
}

// ProcedureHead is the name and the ordered formal parameters.
//
//	PROCEDURE swap(a, b, T t) IS
//	          ^^^^ ^  ^  ^^^  Params (t is an array parameter)
type ProcedureHead struct {
	Pos    Pos
	Name   string
	Params []*Param
}

// Param is one formal parameter. Array parameters are written `T name`.
type Param struct {
	Pos     Pos
	Name    string
	IsArray bool
}

// Declaration is a scalar `a` or an array `t[Start:End]` (inclusive bounds).
type Declaration struct {
	Pos     Pos
	Name    string
	IsArray bool
	Start   int64
	End     int64
}

// Size is the number of cells an array declaration occupies.
func (d *Declaration) Size() int64 { return d.End - d.Start + 1 }

//  Values and expressions

// Expression is anything that can appear on the right of :=.
type Expression interface {
	exprNode()
	String() string
}

// Value is an operand: a literal or an identifier.
type Value interface {
	Expression
	valueNode()
}

// Literal is an integer constant.
type Literal struct {
	Value int64
}

func (*Literal) exprNode()        {}
func (*Literal) valueNode()       {}
func (l *Literal) String() string { return fmt.Sprintf("%d", l.Value) }

// Identifier is a variable reference with an optional index, which is either a
// *Literal or an unindexed *Identifier.
//
//	t[k]
//	^ ^
//	| Index: &Identifier{Name: "k"}
//	Name
type Identifier struct {
	Pos   Pos
	Name  string
	Index Value
}

func (*Identifier) exprNode()  {}
func (*Identifier) valueNode() {}
func (i *Identifier) String() string {
	if i.Index == nil {
		return i.Name
	}
	return fmt.Sprintf("%s[%s]", i.Name, i.Index)
}

// BinaryOp is an arithmetic operator.
type BinaryOp int

const (
	Add BinaryOp = iota
	Sub
	Mul
	Div
	Mod
)

var binaryOpNames = [...]string{Add: "+", Sub: "-", Mul: "*", Div: "/", Mod: "%"}

func (op BinaryOp) String() string {
	if int(op) < len(binaryOpNames) {
		return binaryOpNames[op]
	}
	return fmt.Sprintf("BinaryOp(%d)", int(op))
}

// BinaryExpr is Left Op Right.
type BinaryExpr struct {
	Left  Value
	Right Value
	Op    BinaryOp
}

func (*BinaryExpr) exprNode() {}
func (b *BinaryExpr) String() string {
	return fmt.Sprintf("(%s %s %s)", b.Left, b.Op, b.Right)
}

// RelOp is a relational operator.
type RelOp int

const (
	Eq RelOp = iota
	Neq
	Lt
	Gt
	Leq
	Geq
)

var relOpNames = [...]string{Eq: "=", Neq: "!=", Lt: "<", Gt: ">", Leq: "<=", Geq: ">="}

func (op RelOp) String() string {
	if int(op) < len(relOpNames) {
		return relOpNames[op]
	}
	return fmt.Sprintf("RelOp(%d)", int(op))
}

// Condition is Left Op Right in IF, WHILE and UNTIL.
type Condition struct {
	Left  Value
	Right Value
	Op    RelOp
}

func (c *Condition) String() string {
	return fmt.Sprintf("%s %s %s", c.Left, c.Op, c.Right)
}

//  Commands

// Command is a statement.
type Command interface {
	commandNode()
	Position() Pos
}

// Assign is Target := Expr.
type Assign struct {
	Pos    Pos
	Target *Identifier
	Expr   Expression
}

// If is IF Cond THEN Then [ELSE Else] ENDIF. Else is nil when absent.
type If struct {
	Pos  Pos
	Cond *Condition
	Then []Command
	Else []Command
}

// While is WHILE Cond DO Body ENDWHILE.
type While struct {
	Pos  Pos
	Cond *Condition
	Body []Command
}

// RepeatUntil is REPEAT Body UNTIL Cond.
type RepeatUntil struct {
	Pos  Pos
	Body []Command
	Cond *Condition
}

// For is FOR Iterator FROM From TO|DOWNTO To DO Body ENDFOR.
type For struct {
	Pos      Pos
	Iterator string
	From     Value
	To       Value
	Downto   bool
	Body     []Command
}

// Read is READ Target.
type Read struct {
	Pos    Pos
	Target *Identifier
}

// Write is WRITE Value.
type Write struct {
	Pos   Pos
	Value Value
}

// ProcedureCall is Name(Args...). Arguments are bare identifiers.
type ProcedureCall struct {
	Pos  Pos
	Name string
	Args []*Identifier
}

func (*Assign) commandNode()        {}
func (*If) commandNode()            {}
func (*While) commandNode()         {}
func (*RepeatUntil) commandNode()   {}
func (*For) commandNode()           {}
func (*Read) commandNode()          {}
func (*Write) commandNode()         {}
func (*ProcedureCall) commandNode() {}

func (c *Assign) Position() Pos        { return c.Pos }
func (c *If) Position() Pos            { return c.Pos }
func (c *While) Position() Pos         { return c.Pos }
func (c *RepeatUntil) Position() Pos   { return c.Pos }
func (c *For) Position() Pos           { return c.Pos }
func (c *Read) Position() Pos          { return c.Pos }
func (c *Write) Position() Pos         { return c.Pos }
func (c *ProcedureCall) Position() Pos { return c.Pos }

func (c *ProcedureCall) String() string {
	names := make([]string, len(c.Args))
	for i, a := range c.Args {
		names[i] = a.String()
	}
	return fmt.Sprintf("%s(%s)", c.Name, strings.Join(names, ", "))
}
