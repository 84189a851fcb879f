package asm

import (
	"testing"
)

func TestAssembleSourceMap(t *testing.T) {
	code := `
; Line 2: Comment
SET 10          ; Line 3: instruction 0
                ; Line 4: Empty
LABEL:          ; Line 5: Label
ADD 0           ; Line 6: instruction 1, LABEL points here
JPOS LABEL      ; Line 7: instruction 2
# Line 8: hash comment
HALT            ; Line 9: instruction 3
`

	program, sourceMap, err := Assemble(code)
	if err != nil {
		t.Fatalf("Assemble failed: %v", err)
	}
	if len(program) != 4 {
		t.Fatalf("expected 4 instructions, got %d", len(program))
	}
	if program[2].Arg != -1 {
		t.Errorf("JPOS LABEL offset = %d; want -1", program[2].Arg)
	}

	tests := []struct {
		index int
		line  int
	}{
		{0, 3},
		{1, 6},
		{2, 7},
		{3, 9},
	}

	for _, tc := range tests {
		if got := sourceMap[tc.index]; got != tc.line {
			t.Errorf("sourceMap[%d] = %d; want %d", tc.index, got, tc.line)
		}
	}
}
