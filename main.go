//go:build !js

package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"impc/pkg/asm"
	"impc/pkg/compiler"
	"impc/pkg/cpu"
	"impc/pkg/utils"

	"github.com/logrusorgru/aurora"
)

var au = aurora.NewAurora(true)

func main() {
	inPath := flag.String("in", "", "input source (.imp) or machine code (.mr) file path")
	outPath := flag.String("out", "", "output machine code file path (default: input with .mr extension; machine code input is not rewritten)")
	runProgram := flag.Bool("run", false, "run the generated program on the register machine, reading input from stdin")
	runFilePath := flag.String("run-file", "", "run an existing machine code file")
	trace := flag.Bool("trace", false, "log every memory allocation made by the compiler")
	maxSteps := flag.Int64("max-steps", 0, "abort the run after this many instructions (0: no limit)")
	snapshot := flag.String("snapshot", "", "write a hibernation archive of the machine to this path after the run")
	noColor := flag.Bool("no-color", false, "disable coloured diagnostics")
	flag.Parse()

	au = aurora.NewAurora(!*noColor)

	if *runProgram && *runFilePath != "" {
		fmt.Fprintln(os.Stderr, "use either -run or -run-file, not both")
		os.Exit(2)
	}

	var program []asm.Instruction
	if *inPath != "" {
		var written string
		var err error
		program, written, err = translate(*inPath, *outPath, *trace)
		if err != nil {
			fail("%v", err)
		}
		if written != "" {
			fmt.Printf("compiled %d instructions -> %s\n", len(program), written)
		} else {
			fmt.Printf("assembled %d instructions from %s\n", len(program), *inPath)
		}
	}

	if *inPath == "" && *runFilePath == "" && !*runProgram {
		fmt.Fprintln(os.Stderr, "nothing to do: provide -in to compile, -run to run the compiled output, or -run-file <file> to run existing machine code")
		flag.Usage()
		os.Exit(2)
	}

	switch {
	case *runFilePath != "":
		text, err := os.ReadFile(*runFilePath)
		if err != nil {
			fail("failed to read %q: %v", *runFilePath, err)
		}
		if program, _, err = asm.Assemble(string(text)); err != nil {
			fail("assembly failed for %q: %v", *runFilePath, err)
		}
	case *runProgram:
		if program == nil {
			fmt.Fprintln(os.Stderr, "-run requires -in, or use -run-file <file>")
			os.Exit(2)
		}
	default:
		return
	}

	if err := run(program, *maxSteps, *snapshot); err != nil {
		fail("run failed: %v", err)
	}
}

// translate compiles a .imp file, or assembles any other input, and writes
// the machine code to outPath. Without outPath a .imp input is written next
// to itself with the .mr extension and machine code input is not written at
// all. It returns the path written, or "" when nothing was written. An output
// that names the input file is refused.
func translate(inPath, outPath string, trace bool) ([]asm.Instruction, string, error) {
	source, err := os.ReadFile(inPath)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read input file %q: %w", inPath, err)
	}

	isSource := filepath.Ext(inPath) == ".imp"
	var program []asm.Instruction
	if isSource {
		program, err = compileSource(inPath, string(source), trace)
		if err != nil {
			return nil, "", fmt.Errorf("compilation failed: %w", err)
		}
	} else {
		program, _, err = asm.Assemble(string(source))
		if err != nil {
			return nil, "", fmt.Errorf("assembly failed: %w", err)
		}
	}

	if outPath == "" {
		if !isSource {
			return program, "", nil
		}
		outPath = utils.ReplaceExt(inPath, ".mr")
	}
	if samePath(inPath, outPath) {
		return nil, "", fmt.Errorf("output %q would overwrite the input file", outPath)
	}
	if err := os.WriteFile(outPath, []byte(asm.Format(program)), 0o644); err != nil {
		return nil, "", fmt.Errorf("failed to write machine code file %q: %w", outPath, err)
	}
	return program, outPath, nil
}

func samePath(a, b string) bool {
	if ai, err := os.Stat(a); err == nil {
		if bi, err := os.Stat(b); err == nil {
			return os.SameFile(ai, bi)
		}
	}
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	return errA == nil && errB == nil && absA == absB
}

func compileSource(path, source string, trace bool) ([]asm.Instruction, error) {
	syms := compiler.NewSymbolTable()
	if trace {
		syms.Trace = log.New(os.Stderr, "alloc ", 0)
	}
	return compiler.CompileWithTable(path, source, syms)
}

func run(program []asm.Instruction, maxSteps int64, snapshot string) error {
	vm := cpu.NewCPU(program)
	vm.Input = os.Stdin
	vm.Output = os.Stdout
	vm.MaxSteps = maxSteps

	runErr := vm.Run()

	if snapshot != "" {
		if err := vm.HibernateToFile(snapshot); err != nil {
			return fmt.Errorf("snapshot %q: %w", snapshot, err)
		}
	}
	if runErr != nil {
		return runErr
	}

	fmt.Fprintf(os.Stderr, "%s %d (%d instructions)\n", au.Bold("cost:"), au.Yellow(vm.Cost), vm.Steps)
	return nil
}

func fail(format string, args ...any) {
	fmt.Fprintln(os.Stderr, au.Red(fmt.Sprintf(format, args...)))
	os.Exit(1)
}
