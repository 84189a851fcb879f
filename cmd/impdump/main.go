package main

import (
	"fmt"
	"os"

	"impc/pkg/asm"
	"impc/pkg/compiler"
	"impc/pkg/parser"

	"github.com/davecgh/go-spew/spew"
	"github.com/logrusorgru/aurora"
)

var au = aurora.NewAurora(true)

const testSource = `PROGRAM IS
    a, b
BEGIN
    READ a;
    b := a * 2;
    WRITE b;
END
`

func main() {
	src := testSource
	filename := "sample.imp"
	if len(os.Args) > 1 {
		data, err := os.ReadFile(os.Args[1])
		if err != nil {
			fmt.Fprintln(os.Stderr, au.Red("read error:"), err)
			os.Exit(1)
		}
		src = string(data)
		filename = os.Args[1]
	}

	fmt.Printf("Source:\n%s\n", src)

	// Parse
	prog, err := parser.Parse(filename, src)
	if err != nil {
		fmt.Fprintln(os.Stderr, au.Red("parse error:"), err)
		os.Exit(1)
	}

	fmt.Println(au.Cyan("AST"))
	cfg := spew.ConfigState{Indent: "  ", DisablePointerAddresses: true, DisableCapacities: true}
	cfg.Dump(prog)
	fmt.Println()

	// code Generation
	syms := compiler.NewSymbolTable()
	code, err := compiler.Generate(prog, syms)
	if err != nil {
		fmt.Fprintln(os.Stderr, au.Red("codegen error:"), err)
		fmt.Print(syms)
		os.Exit(1)
	}

	fmt.Println(au.Cyan("Generated Code"))
	for i, ins := range code {
		fmt.Println(formatListing(i, ins))
	}
	fmt.Println()
	fmt.Print(syms)
}

// formatListing renders one instruction with its index; jump operands also
// show the absolute target.
func formatListing(i int, ins asm.Instruction) string {
	line := fmt.Sprintf("%5d  %s", i, au.Blue(ins.Op))
	switch {
	case !ins.Op.HasOperand():
	case ins.Op.IsJump():
		line += " " + au.Brown(ins.Arg).String()
		line += au.Green(fmt.Sprintf("   ; -> %d", int64(i)+ins.Arg)).String()
	default:
		line += " " + au.Magenta(ins.Arg).String()
	}
	return line
}
