package main

import (
	"fmt"
	"image"
	"image/color"
	"log"
	"os"
	"strconv"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"golang.org/x/image/colornames"

	"impc/pkg/compiler"
	"impc/pkg/cpu"
	"impc/pkg/grid"
	"impc/pkg/utils"
)

const (
	screenWidth  = 960
	screenHeight = 640

	// Memory view.
	gridCols   = 16
	gridCells  = 256
	cellWidth  = 56
	cellHeight = 18
	gridLeft   = 8
	gridTop    = 120

	lineHeight    = 16
	outputLines   = 28
	stepsPerFrame = 10000
)

// Cell backgrounds. Text is drawn with the debug font, which is always white.
var (
	colorCell     = colornames.Darkslategray
	colorNonZero  = colornames.Teal
	colorReserved = colornames.Indigo
	colorPC       = colornames.Darkgoldenrod
	colorFault    = colornames.Darkred
)

type Game struct {
	vm           *cpu.CPU
	paused       bool
	input        string // digits typed but not yet submitted
	status       string
	failed       bool
	snapshotPath string
}

func newGame(vm *cpu.CPU, snapshotPath string) *Game {
	return &Game{
		vm:           vm,
		snapshotPath: snapshotPath,
	}
}

// typeRune edits the pending input line.
func (g *Game) typeRune(r rune) {
	switch {
	case r >= '0' && r <= '9':
		g.input += string(r)
	case r == '-' && g.input == "":
		g.input = "-"
	}
}

func (g *Game) backspace() {
	if g.input != "" {
		g.input = g.input[:len(g.input)-1]
	}
}

// submitInput queues the pending line for GET.
func (g *Game) submitInput() {
	if g.input == "" || g.input == "-" {
		return
	}
	v, err := strconv.ParseInt(g.input, 10, 64)
	if err != nil {
		g.status = fmt.Sprintf("bad input %q", g.input)
		return
	}
	g.vm.PushInput(v)
	g.input = ""
	g.status = ""
}

// step runs at most n instructions, stopping early on halt, wait or fault.
func (g *Game) step(n int) {
	if g.failed {
		return
	}
	for i := 0; i < n; i++ {
		if g.vm.Halted {
			return
		}
		if err := g.vm.Step(); err != nil {
			g.status = err.Error()
			g.failed = true
			g.paused = true
			return
		}
		if g.vm.Waiting {
			return
		}
	}
}

func (g *Game) save() {
	if err := g.vm.HibernateToFile(g.snapshotPath); err != nil {
		g.status = fmt.Sprintf("save failed: %v", err)
		return
	}
	g.status = "saved " + g.snapshotPath
}

func (g *Game) restore() {
	if err := g.vm.RestoreFromFile(g.snapshotPath); err != nil {
		g.status = fmt.Sprintf("restore failed: %v", err)
		return
	}
	g.failed = false
	g.status = "restored " + g.snapshotPath
}

func (g *Game) state() string {
	switch {
	case g.failed:
		return "FAULT"
	case g.vm.Halted:
		return "HALTED"
	case g.vm.Waiting:
		return "WAITING FOR INPUT"
	case g.paused:
		return "PAUSED"
	}
	return "RUNNING"
}

func (g *Game) Update() error {
	for _, r := range ebiten.AppendInputChars(nil) {
		g.typeRune(r)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyBackspace) {
		g.backspace()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyEnter) {
		g.submitInput()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeySpace) {
		g.paused = !g.paused
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF5) {
		g.save()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF9) {
		g.restore()
	}

	if g.paused {
		if inpututil.IsKeyJustPressed(ebiten.KeyN) {
			g.step(1)
		}
		return nil
	}
	g.step(stepsPerFrame)
	return nil
}

func fillRect(screen *ebiten.Image, x, y, w, h int, clr color.Color) {
	screen.SubImage(image.Rect(x, y, x+w, y+h)).(*ebiten.Image).Fill(clr)
}

func (g *Game) currentInstruction() string {
	pc := g.vm.PC
	if pc < 0 || pc >= int64(len(g.vm.Program)) {
		return "-"
	}
	return g.vm.Program[pc].String()
}

func (g *Game) Draw(screen *ebiten.Image) {
	vm := g.vm

	if g.failed {
		fillRect(screen, 0, 0, screenWidth, 8+2*lineHeight, colorFault)
	}
	ebitenutil.DebugPrintAt(screen, fmt.Sprintf("PC %-6d ACC %-12d COST %-10d STEPS %d", vm.PC, vm.Acc(), vm.Cost, vm.Steps), 8, 8)
	ebitenutil.DebugPrintAt(screen, g.state(), 8, 8+lineHeight)
	ebitenutil.DebugPrintAt(screen, "next: "+g.currentInstruction(), 8, 8+2*lineHeight)
	ebitenutil.DebugPrintAt(screen, fmt.Sprintf("input> %s_   queued: %v", g.input, vm.PendingInput()), 8, 8+3*lineHeight)
	if g.status != "" {
		ebitenutil.DebugPrintAt(screen, g.status, 8, 8+4*lineHeight)
	}
	ebitenutil.DebugPrintAt(screen, "SPACE pause  N step  0-9 - ENTER input  F5 save  F9 restore", 8, 8+5*lineHeight)

	// Memory grid. The cell the current instruction addresses is highlighted.
	target := int64(-1)
	if pc := vm.PC; pc >= 0 && pc < int64(len(vm.Program)) {
		if ins := vm.Program[pc]; ins.Op.HasOperand() && !ins.Op.IsJump() {
			target = ins.Arg
		}
	}
	for i := 0; i < gridCells; i++ {
		x, y := grid.GetGridCoords(i, gridCols)
		px := gridLeft + x*cellWidth
		py := gridTop + y*cellHeight
		v := vm.Memory[int64(i)]

		var bg color.Color = colorCell
		switch {
		case int64(i) == target:
			bg = colorPC
		case int64(i) < compiler.FirstFree:
			bg = colorReserved
		case v != 0:
			bg = colorNonZero
		}
		fillRect(screen, px, py, cellWidth-2, cellHeight-2, bg)
		ebitenutil.DebugPrintAt(screen, strconv.FormatInt(v, 10), px+2, py+1)
	}

	// Output log, newest last.
	logLeft := gridLeft + gridCols*cellWidth + 16
	ebitenutil.DebugPrintAt(screen, "output", logLeft, gridTop-lineHeight)
	outs := vm.Outputs
	if len(outs) > outputLines {
		outs = outs[len(outs)-outputLines:]
	}
	for i, v := range outs {
		ebitenutil.DebugPrintAt(screen, strconv.FormatInt(v, 10), logLeft, gridTop+i*lineHeight)
	}

	rows := grid.Rows(gridCells, gridCols)
	ebitenutil.DebugPrintAt(screen, fmt.Sprintf("cells 0..%d", gridCells-1), gridLeft, gridTop+rows*cellHeight+4)
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return screenWidth, screenHeight
}

func main() {
	if len(os.Args) < 2 {
		log.Fatalf("usage: %s <program.imp>", os.Args[0])
	}
	filename := os.Args[1]

	fullPath, _, err := utils.GetPathInfo(filename)
	if err != nil {
		log.Fatalf("Failed to resolve %q: %v", filename, err)
	}
	source, err := os.ReadFile(fullPath)
	if err != nil {
		log.Fatalf("Failed to read source file: %v", err)
	}

	code, _, err := compiler.Compile(fullPath, string(source))
	if err != nil {
		log.Fatalf("Compilation failed: %v", err)
	}

	vm := cpu.NewCPU(code)
	vm.Output = os.Stdout

	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetWindowSize(screenWidth, screenHeight)
	ebiten.SetWindowTitle("impc monitor")

	game := newGame(vm, utils.ReplaceExt(fullPath, ".zip"))
	if err := ebiten.RunGame(game); err != nil {
		log.Fatal(err)
	}
}
