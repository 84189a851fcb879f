package compiler

import (
	"fmt"
	"log"
	"sort"
	"strings"

	"impc/pkg/asm"
	"impc/pkg/ast"
)

type SymbolKind int

const (
	SymScalar SymbolKind = iota
	SymArray
	SymIterator
	SymParam
)

func (k SymbolKind) String() string {
	switch k {
	case SymScalar:
		return "scalar"
	case SymArray:
		return "array"
	case SymIterator:
		return "iterator"
	case SymParam:
		return "param"
	}
	return fmt.Sprintf("SymbolKind(%d)", int(k))
}

// Symbol is one binding. Addr is the value cell for scalars and iterators,
// the pointer cell for parameters and the first element for arrays.
type Symbol struct {
	Name string
	Kind SymbolKind
	Addr int64

	// Arrays.
	Start      int64
	Size       int64
	OffsetCell int64

	// Parameters: the pointer cell holds an array offset instead of an
	// address.
	IsArray bool
}

// Offset is base - start, the value added to an index to get an address.
func (s *Symbol) Offset() int64 { return s.Addr - s.Start }

// Indexed reports whether the symbol must be used with an index.
func (s *Symbol) Indexed() bool {
	return s.Kind == SymArray || (s.Kind == SymParam && s.IsArray)
}

// Scope is the main block or one procedure body.
type Scope struct {
	Name      string
	symbols   map[string]*Symbol
	iterators map[string]*Symbol
}

func newScope(name string) *Scope {
	return &Scope{
		Name:      name,
		symbols:   make(map[string]*Symbol),
		iterators: make(map[string]*Symbol),
	}
}

func (s *Scope) define(sym *Symbol) {
	s.symbols[sym.Name] = sym
}

// Procedure is a declared procedure and its linkage cells.
type Procedure struct {
	Name       string
	Entry      asm.Label
	ReturnCell int64
	Params     []*Symbol
	Scope      *Scope
}

// SymbolTable owns the global scope, the procedures and the allocator.
type SymbolTable struct {
	Globals *Scope
	mem     *Allocator
	procs   map[string]*Procedure
	order   []string

	// Trace, when set, receives one line per allocation.
	Trace *log.Logger
}

func NewSymbolTable() *SymbolTable {
	return &SymbolTable{
		Globals: newScope(""),
		mem:     NewAllocator(),
		procs:   make(map[string]*Procedure),
	}
}

func (t *SymbolTable) allocate(size int64, what string, args ...any) (int64, error) {
	addr, err := t.mem.Allocate(size)
	if err != nil {
		return 0, err
	}
	if t.Trace != nil {
		if size == 1 {
			t.Trace.Printf("%d: %s", addr, fmt.Sprintf(what, args...))
		} else {
			t.Trace.Printf("%d..%d: %s", addr, addr+size-1, fmt.Sprintf(what, args...))
		}
	}
	return addr, nil
}

func (t *SymbolTable) owner(scope *Scope) string {
	if scope.Name == "" {
		return "main"
	}
	return scope.Name
}

// DeclareScalar binds a scalar in scope.
func (t *SymbolTable) DeclareScalar(scope *Scope, d *ast.Declaration) (*Symbol, error) {
	if err := t.checkFree(scope, d.Name, d.Pos); err != nil {
		return nil, err
	}
	addr, err := t.allocate(1, "%s %s", t.owner(scope), d.Name)
	if err != nil {
		return nil, errorf(Internal, d.Pos, d.Name, "%v", err)
	}
	sym := &Symbol{Name: d.Name, Kind: SymScalar, Addr: addr}
	scope.define(sym)
	return sym, nil
}

// DeclareArray binds an array in scope. The offset cell follows the
// elements.
func (t *SymbolTable) DeclareArray(scope *Scope, d *ast.Declaration) (*Symbol, error) {
	if err := t.checkFree(scope, d.Name, d.Pos); err != nil {
		return nil, err
	}
	if d.Start > d.End {
		return nil, errorf(InvalidRange, d.Pos, d.Name, "array %s[%d:%d] has start after end", d.Name, d.Start, d.End)
	}
	size := d.Size()
	if size <= 0 {
		return nil, errorf(InvalidRange, d.Pos, d.Name, "array %s[%d:%d] is too large", d.Name, d.Start, d.End)
	}
	base, err := t.allocate(size+1, "%s %s[%d:%d] (offset cell last)", t.owner(scope), d.Name, d.Start, d.End)
	if err != nil {
		return nil, errorf(Internal, d.Pos, d.Name, "%v", err)
	}
	sym := &Symbol{
		Name:       d.Name,
		Kind:       SymArray,
		Addr:       base,
		Start:      d.Start,
		Size:       size,
		OffsetCell: base + size,
	}
	scope.define(sym)
	return sym, nil
}

func (t *SymbolTable) checkFree(scope *Scope, name string, pos ast.Pos) error {
	prev, ok := scope.symbols[name]
	if !ok {
		return nil
	}
	if prev.Kind == SymParam {
		return errorf(DuplicateBinding, pos, name, "%s is already a parameter of %s", name, scope.Name)
	}
	return errorf(DuplicateBinding, pos, name, "%s declared twice", name)
}

// DeclareProcedure registers a procedure and allocates its return cell and
// parameter pointer cells, in that order.
func (t *SymbolTable) DeclareProcedure(head *ast.ProcedureHead, entry asm.Label) (*Procedure, error) {
	if _, ok := t.procs[head.Name]; ok {
		return nil, errorf(DuplicateBinding, head.Pos, head.Name, "procedure %s declared twice", head.Name)
	}

	ret, err := t.allocate(1, "%s return address", head.Name)
	if err != nil {
		return nil, errorf(Internal, head.Pos, head.Name, "%v", err)
	}
	proc := &Procedure{
		Name:       head.Name,
		Entry:      entry,
		ReturnCell: ret,
		Scope:      newScope(head.Name),
	}

	for _, p := range head.Params {
		if _, dup := proc.Scope.symbols[p.Name]; dup {
			return nil, errorf(DuplicateBinding, p.Pos, p.Name, "parameter %s repeated in %s", p.Name, head.Name)
		}
		cell, err := t.allocate(1, "%s param %s", head.Name, p.Name)
		if err != nil {
			return nil, errorf(Internal, p.Pos, p.Name, "%v", err)
		}
		sym := &Symbol{Name: p.Name, Kind: SymParam, Addr: cell, IsArray: p.IsArray}
		proc.Scope.define(sym)
		proc.Params = append(proc.Params, sym)
	}

	t.procs[head.Name] = proc
	t.order = append(t.order, head.Name)
	return proc, nil
}

// Procedure returns a declared procedure.
func (t *SymbolTable) Procedure(name string) (*Procedure, bool) {
	p, ok := t.procs[name]
	return p, ok
}

// BindIterator binds name to the iterator cell addr and returns a func that
// removes the binding, restoring any iterator it shadowed.
func (t *SymbolTable) BindIterator(scope *Scope, name string, addr int64) func() {
	sym := &Symbol{Name: name, Kind: SymIterator, Addr: addr}

	prev, shadowed := scope.iterators[name]
	scope.iterators[name] = sym
	return func() {
		if shadowed {
			scope.iterators[name] = prev
		} else {
			delete(scope.iterators, name)
		}
	}
}

// AllocateTemp reserves a cell that is not bound to a name, used for loop
// counters and limits.
func (t *SymbolTable) AllocateTemp(scope *Scope, what string) (int64, error) {
	return t.allocate(1, "%s %s", t.owner(scope), what)
}

// Lookup resolves name in scope: iterator, then parameter or local. Globals
// are the main block's locals and are not visible from procedures.
func (t *SymbolTable) Lookup(scope *Scope, name string) (*Symbol, bool) {
	if sym, ok := scope.iterators[name]; ok {
		return sym, true
	}
	sym, ok := scope.symbols[name]
	return sym, ok
}

// Cells is the number of cells allocated so far, including reserved ones.
func (t *SymbolTable) Cells() int64 { return t.mem.Next() }

// String returns a deterministically ordered dump of the table.
func (t *SymbolTable) String() string {
	var sb strings.Builder
	writeScope(&sb, "Globals", t.Globals)

	if len(t.order) == 0 {
		sb.WriteString("Procedures: (none)\n")
	}
	for _, name := range t.order {
		p := t.procs[name]
		fmt.Fprintf(&sb, "Procedure %s (return cell %d):\n", p.Name, p.ReturnCell)
		writeScope(&sb, "  Symbols", p.Scope)
	}
	fmt.Fprintf(&sb, "Cells used: %d\n", t.mem.Next())
	return sb.String()
}

func writeScope(sb *strings.Builder, title string, s *Scope) {
	if len(s.symbols) == 0 {
		fmt.Fprintf(sb, "%s: (empty)\n", title)
		return
	}
	fmt.Fprintf(sb, "%s:\n", title)
	indent := strings.Repeat(" ", len(title)-len(strings.TrimLeft(title, " ")))
	names := make([]string, 0, len(s.symbols))
	for name := range s.symbols {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		sym := s.symbols[name]
		switch {
		case sym.Kind == SymArray:
			fmt.Fprintf(sb, "%s  %-20s  Addr: %d (array [%d:%d], offset cell %d)\n",
				indent, name, sym.Addr, sym.Start, sym.Start+sym.Size-1, sym.OffsetCell)
		case sym.Kind == SymParam && sym.IsArray:
			fmt.Fprintf(sb, "%s  %-20s  Addr: %d (array param)\n", indent, name, sym.Addr)
		default:
			fmt.Fprintf(sb, "%s  %-20s  Addr: %d (%s)\n", indent, name, sym.Addr, sym.Kind)
		}
	}
}
