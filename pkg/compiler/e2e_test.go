package compiler

import (
	"fmt"
	"io"
	"testing"

	"impc/pkg/asm"
	"impc/pkg/ast"
	"impc/pkg/cpu"

	"github.com/davecgh/go-spew/spew"
	"github.com/stretchr/testify/require"
)

// runProgram compiles src, runs it with inputs and returns the values it
// wrote.
func runProgram(t *testing.T, src string, inputs ...int64) []int64 {
	t.Helper()
	code, _, err := Compile("e2e.imp", src)
	require.NoError(t, err)
	return runCode(t, code, inputs...)
}

func runCode(t *testing.T, code []asm.Instruction, inputs ...int64) []int64 {
	t.Helper()
	vm := cpu.NewCPU(code)
	vm.Output = io.Discard
	vm.MaxSteps = 5_000_000
	for _, v := range inputs {
		vm.PushInput(v)
	}
	if err := vm.Run(); err != nil {
		t.Fatalf("run failed at pc %d: %v\nmemory: %s", vm.PC, err, spew.Sdump(vm.Memory))
	}
	return vm.Outputs
}

func TestE2E_SumDifferenceProduct(t *testing.T) {
	src := `
PROGRAM IS
    a, b, c
BEGIN
    READ a;
    READ b;
    c := a + b;
    WRITE c;
    c := a - b;
    WRITE c;
    c := a * b;
    WRITE c;
END`
	require.Equal(t, []int64{44, -20, 384}, runProgram(t, src, 12, 32))
}

func TestE2E_Fibonacci(t *testing.T) {
	src := `
PROGRAM IS
    a, b, c
BEGIN
    READ a;
    READ b;
    FOR i FROM 1 TO 23 DO
        c := a + b;
        a := b;
        b := c;
    ENDFOR
    WRITE b;
    WRITE a;
END`
	require.Equal(t, []int64{46368, 28657}, runProgram(t, src, 0, 1))
}

func TestE2E_FloorArithmeticMatchesFolding(t *testing.T) {
	src := `
PROGRAM IS
    a, b, c
BEGIN
    READ a;
    READ b;
    c := a * b;
    WRITE c;
    c := a / b;
    WRITE c;
    c := a % b;
    WRITE c;
END`
	code, _, err := Compile("", src)
	require.NoError(t, err)

	values := []int64{-37, -8, -7, -2, -1, 0, 1, 2, 3, 7, 8, 37, 1000}
	for _, a := range values {
		for _, b := range values {
			want := []int64{Fold(ast.Mul, a, b), Fold(ast.Div, a, b), Fold(ast.Mod, a, b)}
			got := runCode(t, code, a, b)
			require.Equal(t, want, got, "a=%d b=%d", a, b)
		}
	}
}

func TestE2E_FloorExamples(t *testing.T) {
	tests := []struct {
		a, b     int64
		div, mod int64
	}{
		{-7, 2, -4, 1},
		{7, -2, -4, -1},
		{-7, -2, 3, -1},
		{7, 2, 3, 1},
		{6, -3, -2, 0},
		{5, 0, 0, 0},
		{0, 5, 0, 0},
	}
	for _, tc := range tests {
		t.Run(fmt.Sprintf("%d_%d", tc.a, tc.b), func(t *testing.T) {
			require.Equal(t, tc.div, Fold(ast.Div, tc.a, tc.b))
			require.Equal(t, tc.mod, Fold(ast.Mod, tc.a, tc.b))

			// Same values through literal folding.
			src := fmt.Sprintf(`PROGRAM IS c BEGIN c := %d / %d; WRITE c; c := %d %% %d; WRITE c; END`,
				tc.a, tc.b, tc.a, tc.b)
			require.Equal(t, []int64{tc.div, tc.mod}, runProgram(t, src))
		})
	}
}

func TestE2E_MixedLiteralOperands(t *testing.T) {
	src := `
PROGRAM IS
    a, c
BEGIN
    READ a;
    c := a * -3;
    WRITE c;
    c := 100 / a;
    WRITE c;
    c := a % 4;
    WRITE c;
    c := 10 - a;
    WRITE c;
END`
	require.Equal(t, []int64{21, -15, 1, 17}, runProgram(t, src, -7))
}

func TestE2E_LiteralAndRuntimeIndexAgree(t *testing.T) {
	src := `
PROGRAM IS
    t[3:8], k
BEGIN
    t[5] := 9;
    k := 5;
    WRITE t[k];
    t[k] := 11;
    WRITE t[5];
    READ t[k];
    WRITE t[5];
END`
	require.Equal(t, []int64{9, 11, 42}, runProgram(t, src, 42))
}

func TestE2E_NegativeArrayBounds(t *testing.T) {
	src := `
PROGRAM IS
    t[-3:3], s
BEGIN
    FOR i FROM -3 TO 3 DO
        t[i] := i * i;
    ENDFOR
    s := 0;
    FOR i FROM 3 DOWNTO -3 DO
        s := s + t[i];
    ENDFOR
    WRITE s;
    WRITE t[-3];
END`
	require.Equal(t, []int64{28, 9}, runProgram(t, src))
}

func TestE2E_Conditions(t *testing.T) {
	src := `
PROGRAM IS
    a, b
BEGIN
    READ a;
    READ b;
    IF a = b THEN WRITE 1; ELSE WRITE 0; ENDIF
    IF a != b THEN WRITE 1; ELSE WRITE 0; ENDIF
    IF a < b THEN WRITE 1; ELSE WRITE 0; ENDIF
    IF a > b THEN WRITE 1; ELSE WRITE 0; ENDIF
    IF a <= b THEN WRITE 1; ELSE WRITE 0; ENDIF
    IF a >= b THEN WRITE 1; ELSE WRITE 0; ENDIF
END`
	code, _, err := Compile("", src)
	require.NoError(t, err)

	for _, pair := range [][2]int64{{1, 2}, {2, 1}, {3, 3}, {-5, 4}, {0, -1}} {
		a, b := pair[0], pair[1]
		want := make([]int64, 0, 6)
		for _, ok := range []bool{a == b, a != b, a < b, a > b, a <= b, a >= b} {
			if ok {
				want = append(want, 1)
			} else {
				want = append(want, 0)
			}
		}
		require.Equal(t, want, runCode(t, code, a, b), "a=%d b=%d", a, b)
	}
}

func TestE2E_WhileAndRepeat(t *testing.T) {
	src := `
PROGRAM IS
    n, f
BEGIN
    READ n;
    f := 1;
    WHILE n > 0 DO
        f := f * n;
        n := n - 1;
    ENDWHILE
    WRITE f;
    REPEAT
        n := n + 3;
    UNTIL n >= 10;
    WRITE n;
END`
	require.Equal(t, []int64{720, 12}, runProgram(t, src, 6))
}

func TestE2E_ForLimitFixedAtEntry(t *testing.T) {
	src := `
PROGRAM IS
    n, c
BEGIN
    n := 3;
    c := 0;
    FOR i FROM 1 TO n DO
        n := n + 1;
        c := c + 1;
    ENDFOR
    WRITE c;
    FOR i FROM 5 TO 1 DO
        WRITE i;
    ENDFOR
    FOR i FROM 1 DOWNTO 5 DO
        WRITE i;
    ENDFOR
END`
	require.Equal(t, []int64{3}, runProgram(t, src))
}

func TestE2E_Procedures(t *testing.T) {
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

PROCEDURE sum(T t, n, s) IS
    k
BEGIN
    s := 0;
    FOR i FROM 0 TO n DO
        k := t[i];
        s := s + k;
    ENDFOR
END

PROCEDURE twice(T t, n, s) IS
BEGIN
    fill(t, n);
    sum(t, n, s);
    swap(s, n);
END

PROGRAM IS
    x, y, arr[0:9], total
BEGIN
    READ x;
    READ y;
    swap(x, y);
    WRITE x;
    WRITE y;
    x := 4;
    twice(arr, x, total);
    WRITE total;
    WRITE x;
    WRITE arr[4];
END`
	// After twice, total and x were swapped: total = 4, x = 0+2+4+6+8 = 20.
	require.Equal(t, []int64{2, 1, 4, 20, 8}, runProgram(t, src, 1, 2))
}

func TestE2E_ProcedureCalledInLoop(t *testing.T) {
	src := `
PROCEDURE inc(a) IS
BEGIN
    a := a + 1;
END

PROGRAM IS
    c
BEGIN
    c := 0;
    FOR i FROM 1 TO 10 DO
        inc(c);
    ENDFOR
    WRITE c;
END`
	require.Equal(t, []int64{10}, runProgram(t, src))
}

func TestE2E_ProcedureLocalArrayOffsets(t *testing.T) {
	src := `
PROCEDURE p(n) IS
    t[10:12]
BEGIN
    t[n] := n;
    n := t[n];
END

PROGRAM IS
    k
BEGIN
    k := 11;
    p(k);
    WRITE k;
    k := 12;
    p(k);
    WRITE k;
END`
	require.Equal(t, []int64{11, 12}, runProgram(t, src))
}

func TestE2E_SortThroughArrayParam(t *testing.T) {
	inputs := make([]int64, 100)
	want := make([]int64, 100)
	for i := range inputs {
		inputs[i] = int64(50 - i)
		want[99-i] = int64(50 - i)
	}
	require.Equal(t, want, runProgram(t, benchProgram, inputs...))
}
