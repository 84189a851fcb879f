package cpu

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"impc/pkg/asm"
)

// ins is shorthand for a program listing in tests.
func ins(op asm.Opcode, arg int64) asm.Instruction {
	return asm.Instruction{Op: op, Arg: arg}
}

var halt = asm.Instruction{Op: asm.OpHALT}

func newQuietCPU(program ...asm.Instruction) (*CPU, *bytes.Buffer) {
	c := NewCPU(program)
	out := new(bytes.Buffer)
	c.Output = out
	return c, out
}

func TestALU(t *testing.T) {
	tests := []struct {
		name    string
		program []asm.Instruction
		want    int64
	}{
		{"set", []asm.Instruction{ins(asm.OpSET, -7), halt}, -7},
		{"add", []asm.Instruction{ins(asm.OpSET, 5), ins(asm.OpSTORE, 20), ins(asm.OpSET, 3), ins(asm.OpADD, 20), halt}, 8},
		{"sub", []asm.Instruction{ins(asm.OpSET, 5), ins(asm.OpSTORE, 20), ins(asm.OpSET, 3), ins(asm.OpSUB, 20), halt}, -2},
		{"double via acc", []asm.Instruction{ins(asm.OpSET, 21), ins(asm.OpADD, 0), halt}, 42},
		{"half positive", []asm.Instruction{ins(asm.OpSET, 7), asm.Instruction{Op: asm.OpHALF}, halt}, 3},
		{"half negative floors", []asm.Instruction{ins(asm.OpSET, -7), asm.Instruction{Op: asm.OpHALF}, halt}, -4},
		{"load store", []asm.Instruction{ins(asm.OpSET, 9), ins(asm.OpSTORE, 30), ins(asm.OpSET, 0), ins(asm.OpLOAD, 30), halt}, 9},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c, _ := newQuietCPU(tc.program...)
			if err := c.Run(); err != nil {
				t.Fatalf("Run: %v", err)
			}
			if got := c.Acc(); got != tc.want {
				t.Errorf("acc = %d; want %d", got, tc.want)
			}
		})
	}
}

func TestIndirect(t *testing.T) {
	c, _ := newQuietCPU(
		ins(asm.OpSET, 40), ins(asm.OpSTORE, 20), // mem[20] = &mem[40]
		ins(asm.OpSET, 11), ins(asm.OpSTOREI, 20), // mem[40] = 11
		ins(asm.OpSET, 0),
		ins(asm.OpLOADI, 20), // acc = 11
		ins(asm.OpADDI, 20),  // acc = 22
		ins(asm.OpSUBI, 20),  // acc = 11
		halt,
	)
	if err := c.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if c.Memory[40] != 11 {
		t.Errorf("mem[40] = %d; want 11", c.Memory[40])
	}
	if c.Acc() != 11 {
		t.Errorf("acc = %d; want 11", c.Acc())
	}
}

func TestJumps(t *testing.T) {
	tests := []struct {
		name string
		op   asm.Opcode
		acc  int64
		want int64 // value left in mem[20]
	}{
		{"jpos taken", asm.OpJPOS, 1, 2},
		{"jpos not taken", asm.OpJPOS, 0, 1},
		{"jzero taken", asm.OpJZERO, 0, 2},
		{"jzero not taken", asm.OpJZERO, -3, 1},
		{"jneg taken", asm.OpJNEG, -3, 2},
		{"jneg not taken", asm.OpJNEG, 3, 1},
		{"jump", asm.OpJUMP, 0, 2},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c, _ := newQuietCPU(
				ins(asm.OpSET, tc.acc),
				ins(tc.op, 3),
				ins(asm.OpSET, 1), // not taken
				ins(asm.OpJUMP, 2),
				ins(asm.OpSET, 2), // taken target
				ins(asm.OpSTORE, 20),
				halt,
			)
			if err := c.Run(); err != nil {
				t.Fatalf("Run: %v", err)
			}
			if got := c.Memory[20]; got != tc.want {
				t.Errorf("mem[20] = %d; want %d", got, tc.want)
			}
		})
	}
}

func TestReturnJump(t *testing.T) {
	c, _ := newQuietCPU(
		ins(asm.OpSET, 4),
		ins(asm.OpSTORE, 20),
		ins(asm.OpRTRN, 20),
		ins(asm.OpSET, 99), // skipped
		halt,
	)
	if err := c.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if c.Acc() != 4 {
		t.Errorf("acc = %d; RTRN should have skipped SET 99", c.Acc())
	}
}

func TestInputOutput(t *testing.T) {
	c, out := newQuietCPU(
		ins(asm.OpGET, 20),
		ins(asm.OpGET, 0),
		ins(asm.OpADD, 20),
		ins(asm.OpPUT, 0),
		halt,
	)
	c.Input = strings.NewReader("12\n 30")
	if err := c.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if out.String() != "42\n" {
		t.Errorf("output = %q; want %q", out.String(), "42\n")
	}
	if len(c.Outputs) != 1 || c.Outputs[0] != 42 {
		t.Errorf("Outputs = %v; want [42]", c.Outputs)
	}
}

func TestWaitingForInput(t *testing.T) {
	c, _ := newQuietCPU(ins(asm.OpGET, 20), ins(asm.OpPUT, 20), halt)

	if err := c.RunUntilDone(0); err != nil {
		t.Fatalf("RunUntilDone: %v", err)
	}
	if !c.Waiting || c.PC != 0 {
		t.Fatalf("expected to wait at pc 0, got waiting=%v pc=%d", c.Waiting, c.PC)
	}

	c.PushInput(-5)
	if err := c.RunUntilDone(0); err != nil {
		t.Fatalf("RunUntilDone: %v", err)
	}
	if !c.Halted {
		t.Fatal("expected halt after input arrived")
	}
	if c.Outputs[0] != -5 {
		t.Errorf("output = %d; want -5", c.Outputs[0])
	}
}

func TestRunErrors(t *testing.T) {
	t.Run("waiting without reader", func(t *testing.T) {
		c, _ := newQuietCPU(ins(asm.OpGET, 20), halt)
		if err := c.Run(); !errors.Is(err, ErrWaiting) {
			t.Errorf("err = %v; want ErrWaiting", err)
		}
	})

	t.Run("input exhausted", func(t *testing.T) {
		c, _ := newQuietCPU(ins(asm.OpGET, 20), halt)
		c.Input = strings.NewReader("")
		if err := c.Run(); err == nil || !strings.Contains(err.Error(), "read input") {
			t.Errorf("err = %v; want read input error", err)
		}
	})

	t.Run("bad input", func(t *testing.T) {
		c, _ := newQuietCPU(ins(asm.OpGET, 20), halt)
		c.Input = strings.NewReader("abc")
		if err := c.Run(); err == nil || !strings.Contains(err.Error(), "invalid integer") {
			t.Errorf("err = %v; want invalid integer error", err)
		}
	})

	t.Run("pc out of range", func(t *testing.T) {
		c, _ := newQuietCPU(ins(asm.OpJUMP, 5))
		if err := c.Run(); err == nil || !strings.Contains(err.Error(), "outside program") {
			t.Errorf("err = %v; want pc error", err)
		}
	})

	t.Run("step limit", func(t *testing.T) {
		c, _ := newQuietCPU(ins(asm.OpSET, 1), ins(asm.OpJUMP, -1))
		c.MaxSteps = 100
		if err := c.Run(); !errors.Is(err, ErrStepLimit) {
			t.Errorf("err = %v; want ErrStepLimit", err)
		}
		if c.Steps != 100 {
			t.Errorf("steps = %d; want 100", c.Steps)
		}
	})

	t.Run("negative indirect address", func(t *testing.T) {
		c, _ := newQuietCPU(ins(asm.OpSET, -1), ins(asm.OpSTORE, 20), ins(asm.OpLOADI, 20), halt)
		if err := c.Run(); err == nil || !strings.Contains(err.Error(), "negative") {
			t.Errorf("err = %v; want negative address error", err)
		}
	})

	t.Run("negative direct address", func(t *testing.T) {
		c, _ := newQuietCPU(ins(asm.OpLOAD, -3), halt)
		if err := c.Run(); err == nil {
			t.Error("expected error for LOAD -3")
		}
	})
}

func TestCost(t *testing.T) {
	c, _ := newQuietCPU(
		ins(asm.OpSET, 3),               // 50
		ins(asm.OpSTORE, 20),            // 10
		ins(asm.OpLOADI, 20),            // 20
		asm.Instruction{Op: asm.OpHALF}, // 5
		ins(asm.OpJUMP, 1),              // 1
		ins(asm.OpPUT, 0),               // 100
		halt,                            // 0
	)
	if err := c.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if c.Cost != 186 {
		t.Errorf("cost = %d; want 186", c.Cost)
	}
	if c.Steps != 7 {
		t.Errorf("steps = %d; want 7", c.Steps)
	}
}

func TestStepAfterHaltIsNoop(t *testing.T) {
	c, _ := newQuietCPU(halt)
	if err := c.Run(); err != nil {
		t.Fatal(err)
	}
	steps := c.Steps
	if err := c.Step(); err != nil {
		t.Fatal(err)
	}
	if c.Steps != steps {
		t.Errorf("Step after HALT executed an instruction")
	}
}
