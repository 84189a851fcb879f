package parser

import (
	"strings"
	"testing"

	"impc/pkg/ast"

	"github.com/stretchr/testify/require"
)

func TestParseMainOnly(t *testing.T) {
	src := `
# reads two numbers and writes their sum
PROGRAM IS
    a, b, t[-2:3]
BEGIN
    READ a;
    READ b;
    t[-2] := a + b;
    WRITE t[-2];
END
`
	prog, err := Parse("sum.imp", src)
	require.NoError(t, err)
	require.Empty(t, prog.Procedures)
	require.Len(t, prog.Main.Declarations, 3)

	arr := prog.Main.Declarations[2]
	require.True(t, arr.IsArray)
	require.Equal(t, int64(-2), arr.Start)
	require.Equal(t, int64(3), arr.End)
	require.Equal(t, int64(6), arr.Size())

	require.Len(t, prog.Main.Commands, 4)
	assign, ok := prog.Main.Commands[2].(*ast.Assign)
	require.True(t, ok, "third command should be an assignment, got %T", prog.Main.Commands[2])
	require.Equal(t, "t[-2]", assign.Target.String())
	require.Equal(t, "(a + b)", assign.Expr.String())
	require.Equal(t, 8, assign.Pos.Line)
}

func TestParseProcedures(t *testing.T) {
	src := `
PROCEDURE swap(a, b) IS
    tmp
BEGIN
    tmp := a;
    a := b;
    b := tmp;
END

PROCEDURE fill(T t, n) IS
BEGIN
    FOR i FROM 0 TO n DO
        t[i] := i * 2;
    ENDFOR
END

PROGRAM IS
    x, y, arr[0:9]
BEGIN
    x := 1;
    y := 2;
    swap(x, y);
    fill(arr, x);
END
`
	prog, err := Parse("", src)
	require.NoError(t, err)
	require.Len(t, prog.Procedures, 2)

	swap := prog.Procedures[0]
	require.Equal(t, "swap", swap.Head.Name)
	require.Len(t, swap.Head.Params, 2)
	require.False(t, swap.Head.Params[0].IsArray)
	require.Len(t, swap.Declarations, 1)

	fill := prog.Procedures[1]
	require.True(t, fill.Head.Params[0].IsArray)
	require.Empty(t, fill.Declarations)

	loop, ok := fill.Commands[0].(*ast.For)
	require.True(t, ok)
	require.Equal(t, "i", loop.Iterator)
	require.False(t, loop.Downto)
	require.Equal(t, "t[i]", loop.Body[0].(*ast.Assign).Target.String())

	call, ok := prog.Main.Commands[2].(*ast.ProcedureCall)
	require.True(t, ok)
	require.Equal(t, "swap(x, y)", call.String())
}

func TestParseControlFlow(t *testing.T) {
	src := `
PROGRAM IS
    n
BEGIN
    READ n;
    IF n >= 10 THEN
        WRITE 1;
    ELSE
        WRITE 0;
    ENDIF
    IF n != 3 THEN
        WRITE n;
    ENDIF
    WHILE n > 0 DO
        n := n - 1;
    ENDWHILE
    REPEAT
        n := n + 1;
    UNTIL n = 5;
    FOR j FROM n DOWNTO -5 DO
        WRITE j;
    ENDFOR
END
`
	prog, err := Parse("", src)
	require.NoError(t, err)

	cmds := prog.Main.Commands
	require.Len(t, cmds, 6)

	withElse := cmds[1].(*ast.If)
	require.Equal(t, ast.Geq, withElse.Cond.Op)
	require.Len(t, withElse.Else, 1)

	noElse := cmds[2].(*ast.If)
	require.Equal(t, ast.Neq, noElse.Cond.Op)
	require.Nil(t, noElse.Else)

	while := cmds[3].(*ast.While)
	require.Equal(t, "n > 0", while.Cond.String())

	repeat := cmds[4].(*ast.RepeatUntil)
	require.Equal(t, ast.Eq, repeat.Cond.Op)

	loop := cmds[5].(*ast.For)
	require.True(t, loop.Downto)
	require.Equal(t, "-5", loop.To.String())
}

func TestParseOperators(t *testing.T) {
	ops := []struct {
		src  string
		want ast.BinaryOp
	}{
		{"a + b", ast.Add},
		{"a - 1", ast.Sub},
		{"2 * a", ast.Mul},
		{"a / b", ast.Div},
		{"a % b", ast.Mod},
	}
	for _, tc := range ops {
		src := "PROGRAM IS a, b BEGIN a := " + tc.src + "; END"
		prog, err := Parse("", src)
		require.NoError(t, err, tc.src)
		expr, ok := prog.Main.Commands[0].(*ast.Assign).Expr.(*ast.BinaryExpr)
		require.True(t, ok, tc.src)
		require.Equal(t, tc.want, expr.Op, tc.src)
	}
}

func TestParseIdentifierIndex(t *testing.T) {
	prog, err := Parse("", "PROGRAM IS t[1:4], k BEGIN t[k] := t[2]; END")
	require.NoError(t, err)

	assign := prog.Main.Commands[0].(*ast.Assign)
	idx, ok := assign.Target.Index.(*ast.Identifier)
	require.True(t, ok)
	require.Equal(t, "k", idx.Name)

	src, ok := assign.Expr.(*ast.Identifier)
	require.True(t, ok)
	lit, ok := src.Index.(*ast.Literal)
	require.True(t, ok)
	require.Equal(t, int64(2), lit.Value)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"missing semicolon", "PROGRAM IS a BEGIN a := 1 END"},
		{"no commands", "PROGRAM IS a BEGIN END"},
		{"uppercase identifier", "PROGRAM IS A BEGIN READ A; END"},
		{"bad character", "PROGRAM IS a BEGIN a := 1 & 2; END"},
		{"number overflow", "PROGRAM IS a BEGIN a := 99999999999999999999; END"},
		{"procedure without params", "PROCEDURE p() IS BEGIN WRITE 1; END PROGRAM IS BEGIN WRITE 1; END"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse("bad.imp", tc.src)
			require.Error(t, err)
			require.True(t, strings.HasPrefix(err.Error(), "bad.imp: "), "got %q", err)
		})
	}
}
