package parser

import (
	"github.com/alecthomas/participle/lexer"
)

// Unnamed groups (whitespace, # comments) are dropped by the lexer.
const lexerRegex = `(\s+)|(#[^\n]*)|` +
	`(?P<Keyword>[A-Z]+)|` +
	`(?P<Ident>[_a-z]+)|` +
	`(?P<Int>[0-9]+)|` +
	`(?P<Assign>:=)|` +
	`(?P<Operator>!=|>=|<=|[-+*/%=<>])|` +
	`(?P<Punct>[\[\]():,;])`

type program struct {
	Procedures []*procedure `{ @@ }`
	Main       *mainBlock   `@@`
}

type procedure struct {
	Pos lexer.Position

	Name         string     `"PROCEDURE" @Ident`
	Params       []*param   `"(" @@ { "," @@ } ")"`
	Declarations []*decl    `"IS" [ @@ { "," @@ } ]`
	Commands     []*command `"BEGIN" @@ { @@ } "END"`
}

type param struct {
	Pos lexer.Position

	Array bool   `[ @"T" ]`
	Name  string `@Ident`
}

type mainBlock struct {
	Pos lexer.Position

	Declarations []*decl    `"PROGRAM" "IS" [ @@ { "," @@ } ]`
	Commands     []*command `"BEGIN" @@ { @@ } "END"`
}

type decl struct {
	Pos lexer.Position

	Name  string  `@Ident`
	Start *number `[ "[" @@`
	End   *number `  ":" @@ "]" ]`
}

type number struct {
	Pos lexer.Position

	Negative bool   `[ @"-" ]`
	Digits   string `@Int`
}

type command struct {
	Pos lexer.Position

	If     *ifCmd     `  @@`
	While  *whileCmd  `| @@`
	Repeat *repeatCmd `| @@`
	For    *forCmd    `| @@`
	Read   *identRef  `| "READ" @@ ";"`
	Write  *value     `| "WRITE" @@ ";"`
	Call   *callCmd   `| @@ ";"`
	Assign *assignCmd `| @@ ";"`
}

type ifCmd struct {
	Cond *condition `"IF" @@`
	Then []*command `"THEN" @@ { @@ }`
	Else []*command `[ "ELSE" @@ { @@ } ] "ENDIF"`
}

type whileCmd struct {
	Cond *condition `"WHILE" @@`
	Body []*command `"DO" @@ { @@ } "ENDWHILE"`
}

type repeatCmd struct {
	Body []*command `"REPEAT" @@ { @@ }`
	Cond *condition `"UNTIL" @@ ";"`
}

type forCmd struct {
	Iterator string     `"FOR" @Ident`
	From     *value     `"FROM" @@`
	Downto   bool       `( @"DOWNTO" | "TO" )`
	To       *value     `@@`
	Body     []*command `"DO" @@ { @@ } "ENDFOR"`
}

type callCmd struct {
	Name string     `@Ident`
	Args []*callArg `"(" @@ { "," @@ } ")"`
}

type callArg struct {
	Pos lexer.Position

	Name string `@Ident`
}

type assignCmd struct {
	Target *identRef   `@@ ":="`
	Expr   *expression `@@`
}

type expression struct {
	Left  *value  `@@`
	Op    string  `[ @( "+" | "-" | "*" | "/" | "%" )`
	Right *value  `  @@ ]`
}

type condition struct {
	Left  *value `@@`
	Op    string `@( "!=" | "<=" | ">=" | "=" | "<" | ">" )`
	Right *value `@@`
}

type value struct {
	Number *number   `  @@`
	Ident  *identRef `| @@`
}

type identRef struct {
	Pos lexer.Position

	Name  string     `@Ident`
	Index *indexExpr `[ "[" @@ "]" ]`
}

type indexExpr struct {
	Pos lexer.Position

	Number *number `  @@`
	Name   *string `| @Ident`
}
