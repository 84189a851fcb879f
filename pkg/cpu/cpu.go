package cpu

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"impc/pkg/asm"
)

var (
	// ErrWaiting is returned by Run when GET has no value to read and no
	// Input reader is attached.
	ErrWaiting = errors.New("waiting for input")
	// ErrStepLimit is returned by Run when MaxSteps instructions have executed
	// without reaching HALT.
	ErrStepLimit = errors.New("step limit reached")
)

// Cost of each instruction.
var costs = map[asm.Opcode]int64{
	asm.OpGET:    100,
	asm.OpPUT:    100,
	asm.OpLOAD:   10,
	asm.OpSTORE:  10,
	asm.OpADD:    10,
	asm.OpSUB:    10,
	asm.OpLOADI:  20,
	asm.OpSTOREI: 20,
	asm.OpADDI:   20,
	asm.OpSUBI:   20,
	asm.OpSET:    50,
	asm.OpHALF:   5,
	asm.OpJUMP:   1,
	asm.OpJPOS:   1,
	asm.OpJZERO:  1,
	asm.OpJNEG:   1,
	asm.OpRTRN:   10,
	asm.OpHALT:   0,
}

// CPU is the single accumulator register machine. The accumulator is
// memory cell 0.
type CPU struct {
	Program []asm.Instruction
	Memory  map[int64]int64

	PC      int64
	Halted  bool
	Waiting bool

	Cost  int64
	Steps int64
	// MaxSteps bounds Run; zero means no limit.
	MaxSteps int64

	// Input supplies whitespace separated integers once the queue filled by
	// PushInput is empty.
	Input io.Reader
	// Output receives one line per PUT. If nil, os.Stdout is used.
	Output io.Writer
	// Outputs records every value written by PUT.
	Outputs []int64

	queue   []int64
	scanner *bufio.Scanner
}

func NewCPU(program []asm.Instruction) *CPU {
	return &CPU{
		Program: program,
		Memory:  make(map[int64]int64),
	}
}

func (c *CPU) outputSink() io.Writer {
	if c.Output != nil {
		return c.Output
	}
	return os.Stdout
}

// Acc returns the accumulator.
func (c *CPU) Acc() int64 { return c.Memory[0] }

// PushInput queues a value for GET.
func (c *CPU) PushInput(v int64) {
	c.queue = append(c.queue, v)
}

// PendingInput returns the queued, unread values.
func (c *CPU) PendingInput() []int64 {
	return append([]int64(nil), c.queue...)
}

func (c *CPU) nextInput() (int64, bool, error) {
	if len(c.queue) > 0 {
		v := c.queue[0]
		c.queue = c.queue[1:]
		return v, true, nil
	}
	if c.Input == nil {
		return 0, false, nil
	}
	if c.scanner == nil {
		c.scanner = bufio.NewScanner(c.Input)
		c.scanner.Split(bufio.ScanWords)
	}
	if !c.scanner.Scan() {
		if err := c.scanner.Err(); err != nil {
			return 0, false, fmt.Errorf("read input: %w", err)
		}
		return 0, false, fmt.Errorf("read input: %w", io.ErrUnexpectedEOF)
	}
	v, err := strconv.ParseInt(c.scanner.Text(), 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("read input: invalid integer %q", c.scanner.Text())
	}
	return v, true, nil
}

func (c *CPU) indirect(a int64) (int64, error) {
	addr := c.Memory[a]
	if addr < 0 {
		return 0, fmt.Errorf("pc %d: indirect address %d (from cell %d) is negative", c.PC, addr, a)
	}
	return addr, nil
}

// Step executes one instruction. A GET with nothing to read sets Waiting and
// leaves PC unchanged; the next Step retries it.
func (c *CPU) Step() error {
	if c.Halted {
		return nil
	}
	if c.PC < 0 || c.PC >= int64(len(c.Program)) {
		return fmt.Errorf("pc %d outside program of %d instructions", c.PC, len(c.Program))
	}

	ins := c.Program[c.PC]
	a := ins.Arg
	if ins.Op.HasOperand() && !ins.Op.IsJump() && ins.Op != asm.OpSET && a < 0 {
		return fmt.Errorf("pc %d: %s with negative address", c.PC, ins)
	}

	next := c.PC + 1

	switch ins.Op {
	case asm.OpGET:
		v, ok, err := c.nextInput()
		if err != nil {
			return fmt.Errorf("pc %d: %w", c.PC, err)
		}
		if !ok {
			c.Waiting = true
			return nil
		}
		c.Waiting = false
		c.Memory[a] = v

	case asm.OpPUT:
		v := c.Memory[a]
		c.Outputs = append(c.Outputs, v)
		fmt.Fprintf(c.outputSink(), "%d\n", v)

	case asm.OpLOAD:
		c.Memory[0] = c.Memory[a]

	case asm.OpSTORE:
		c.Memory[a] = c.Memory[0]

	case asm.OpLOADI, asm.OpSTOREI, asm.OpADDI, asm.OpSUBI:
		addr, err := c.indirect(a)
		if err != nil {
			return err
		}
		switch ins.Op {
		case asm.OpLOADI:
			c.Memory[0] = c.Memory[addr]
		case asm.OpSTOREI:
			c.Memory[addr] = c.Memory[0]
		case asm.OpADDI:
			c.Memory[0] += c.Memory[addr]
		case asm.OpSUBI:
			c.Memory[0] -= c.Memory[addr]
		}

	case asm.OpADD:
		c.Memory[0] += c.Memory[a]

	case asm.OpSUB:
		c.Memory[0] -= c.Memory[a]

	case asm.OpSET:
		c.Memory[0] = a

	case asm.OpHALF:
		c.Memory[0] >>= 1

	case asm.OpJUMP:
		next = c.PC + a

	case asm.OpJPOS:
		if c.Memory[0] > 0 {
			next = c.PC + a
		}

	case asm.OpJZERO:
		if c.Memory[0] == 0 {
			next = c.PC + a
		}

	case asm.OpJNEG:
		if c.Memory[0] < 0 {
			next = c.PC + a
		}

	case asm.OpRTRN:
		next = c.Memory[a]

	case asm.OpHALT:
		c.Halted = true
		next = c.PC

	default:
		return fmt.Errorf("pc %d: unknown opcode %d", c.PC, ins.Op)
	}

	c.Cost += costs[ins.Op]
	c.Steps++
	c.PC = next
	return nil
}

// Run executes until HALT.
func (c *CPU) Run() error {
	for !c.Halted {
		if c.MaxSteps > 0 && c.Steps >= c.MaxSteps {
			return ErrStepLimit
		}
		if err := c.Step(); err != nil {
			return err
		}
		if c.Waiting {
			return ErrWaiting
		}
	}
	return nil
}

// RunUntilDone executes until the machine halts, waits for input, faults or
// has executed budget instructions. budget <= 0 means no limit.
func (c *CPU) RunUntilDone(budget int) error {
	for i := 0; budget <= 0 || i < budget; i++ {
		if c.Halted {
			return nil
		}
		if err := c.Step(); err != nil {
			return err
		}
		if c.Waiting {
			return nil
		}
	}
	return nil
}
