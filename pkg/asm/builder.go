package asm

import "fmt"

// Label is a jump target handed out by a Builder.
type Label int

const undefined = -1

type fixup struct {
	site  int
	label Label
}

// Builder accumulates instructions and resolves label references after the
// fact. Jumps are emitted with Placeholder before or after their label is
// defined; Resolve patches every placeholder with target - site.
type Builder struct {
	code     []Instruction
	labels   []int // label -> defining index, or undefined
	fixups   []fixup
	doubles  []Label
	nonJumps []int // placeholder sites emitted with a non-jump opcode
	resolved bool
}

func NewBuilder() *Builder {
	return &Builder{}
}

// Len is the index the next emitted instruction will get.
func (b *Builder) Len() int { return len(b.code) }

// Emit appends an instruction and returns its index.
func (b *Builder) Emit(op Opcode, arg int64) int {
	b.code = append(b.code, Instruction{Op: op, Arg: arg})
	return len(b.code) - 1
}

// Emit0 appends an operand-less instruction (HALF, HALT).
func (b *Builder) Emit0(op Opcode) int {
	return b.Emit(op, 0)
}

// NewLabel allocates an undefined label.
func (b *Builder) NewLabel() Label {
	b.labels = append(b.labels, undefined)
	return Label(len(b.labels) - 1)
}

// Define binds l to the index of the next instruction.
func (b *Builder) Define(l Label) {
	if b.labels[l] != undefined {
		b.doubles = append(b.doubles, l)
		return
	}
	b.labels[l] = len(b.code)
}

// DefineNew allocates a label bound to the next instruction.
func (b *Builder) DefineNew() Label {
	l := b.NewLabel()
	b.Define(l)
	return l
}

// Placeholder emits a jump to l whose offset is filled in by Resolve. A
// non-jump opcode is emitted as is and makes Resolve fail.
func (b *Builder) Placeholder(op Opcode, l Label) int {
	site := b.Emit(op, 0)
	if !op.IsJump() {
		b.nonJumps = append(b.nonJumps, site)
		return site
	}
	b.fixups = append(b.fixups, fixup{site: site, label: l})
	return site
}

// Pending is the number of placeholders not yet patched.
func (b *Builder) Pending() int {
	if b.resolved {
		return 0
	}
	return len(b.fixups)
}

// Resolve patches all placeholders and returns the finished program.
func (b *Builder) Resolve() ([]Instruction, error) {
	if len(b.doubles) > 0 {
		return nil, fmt.Errorf("label L%d defined more than once", b.doubles[0])
	}
	if len(b.nonJumps) > 0 {
		site := b.nonJumps[0]
		return nil, fmt.Errorf("placeholder at %d uses non-jump opcode %s", site, b.code[site].Op)
	}
	for _, f := range b.fixups {
		target := b.labels[f.label]
		if target == undefined {
			return nil, fmt.Errorf("unresolved placeholder at %d: label L%d never defined", f.site, f.label)
		}
		offset := int64(target - f.site)
		if offset == 0 && b.code[f.site].Op == OpJUMP {
			return nil, fmt.Errorf("self-referencing JUMP at %d", f.site)
		}
		b.code[f.site].Arg = offset
	}
	b.resolved = true
	return b.code, nil
}
