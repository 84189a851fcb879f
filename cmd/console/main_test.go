package main

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"impc/pkg/compiler"
	"impc/pkg/cpu"
)

func TestRunWithSnapshots(t *testing.T) {
	code, _, err := compiler.Compile("", `
PROGRAM IS n, s BEGIN
    READ n;
    s := 0;
    FOR i FROM 1 TO n DO
        s := s + i;
    ENDFOR
    WRITE s;
END`)
	if err != nil {
		t.Fatal(err)
	}

	vm := cpu.NewCPU(code)
	out := new(bytes.Buffer)
	vm.Output = out
	vm.Input = strings.NewReader("100")

	path := filepath.Join(t.TempDir(), "run.zip")
	if err := runWithSnapshots(vm, path, time.Millisecond); err != nil {
		t.Fatalf("runWithSnapshots: %v", err)
	}
	if out.String() != "5050\n" {
		t.Errorf("output = %q; want 5050", out.String())
	}

	restored := cpu.NewCPU(nil)
	if err := restored.RestoreFromFile(path); err != nil {
		t.Fatalf("final snapshot missing: %v", err)
	}
	if !restored.Halted || restored.Cost != vm.Cost {
		t.Errorf("snapshot halted=%v cost=%d; want halted cost=%d", restored.Halted, restored.Cost, vm.Cost)
	}
}

func TestRunWithSnapshotsStepLimit(t *testing.T) {
	code, _, err := compiler.Compile("", `PROGRAM IS a BEGIN WHILE 1 = 1 DO a := a + 1; ENDWHILE END`)
	if err != nil {
		t.Fatal(err)
	}
	vm := cpu.NewCPU(code)
	vm.MaxSteps = 25000
	if err := runWithSnapshots(vm, "", time.Hour); !errors.Is(err, cpu.ErrStepLimit) {
		t.Errorf("err = %v; want ErrStepLimit", err)
	}
}
