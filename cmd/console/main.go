package main

import (
	"fmt"
	"log"
	"os"
	"time"

	"impc/pkg/asm"
	"impc/pkg/compiler"
	"impc/pkg/cpu"
	"impc/pkg/utils"
)

// stepsPerSlice bounds how long the machine runs between snapshot checks.
const stepsPerSlice = 10000

// runWithSnapshots runs vm to completion, writing a hibernation archive to
// path every interval. An empty path disables snapshots.
func runWithSnapshots(vm *cpu.CPU, path string, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for !vm.Halted {
		if vm.MaxSteps > 0 && vm.Steps >= vm.MaxSteps {
			return cpu.ErrStepLimit
		}
		if err := vm.RunUntilDone(stepsPerSlice); err != nil {
			return err
		}
		if vm.Waiting {
			return cpu.ErrWaiting
		}
		select {
		case <-ticker.C:
			if path != "" {
				if err := vm.HibernateToFile(path); err != nil {
					log.Printf("snapshot failed: %v", err)
				}
			}
		default:
		}
	}
	if path != "" {
		return vm.HibernateToFile(path)
	}
	return nil
}

func main() {
	if len(os.Args) < 2 {
		log.Fatalf("usage: %s <program.imp> [--show-asm] [--trace] [--snapshot]", os.Args[0])
	}
	filename := os.Args[1]
	showAsm, trace, snapshot := false, false, false
	for _, arg := range os.Args[2:] {
		switch arg {
		case "--show-asm":
			showAsm = true
		case "--trace":
			trace = true
		case "--snapshot":
			snapshot = true
		}
	}

	fullPath, baseDir, err := utils.GetPathInfo(filename)
	if err != nil {
		log.Fatalf("Failed to resolve %q: %v", filename, err)
	}
	sourceBytes, err := os.ReadFile(fullPath)
	if err != nil {
		log.Fatalf("Failed to read source file: %v", err)
	}

	fmt.Fprintln(os.Stderr, "Compiling source file:", fullPath)
	fmt.Fprintln(os.Stderr, "Base directory:", baseDir)

	syms := compiler.NewSymbolTable()
	if trace {
		syms.Trace = log.New(os.Stderr, "alloc ", 0)
	}
	code, err := compiler.CompileWithTable(fullPath, string(sourceBytes), syms)
	if err != nil {
		log.Fatalf("Compilation failed: %v", err)
	}

	if showAsm {
		fmt.Fprint(os.Stderr, "Generated Code:\n", asm.Format(code), "\n")
	}

	vm := cpu.NewCPU(code)
	vm.Input = os.Stdin
	vm.Output = os.Stdout

	snapshotPath := ""
	if snapshot {
		snapshotPath = utils.ReplaceExt(fullPath, ".zip")
	}
	if err := runWithSnapshots(vm, snapshotPath, 3*time.Second); err != nil {
		log.Fatalf("Run failed at pc %d: %v", vm.PC, err)
	}

	fmt.Fprintf(os.Stderr, "cost: %d\n", vm.Cost)
}
