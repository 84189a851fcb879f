package compiler

import "fmt"

// Reserved cells. The machine aliases the accumulator onto cell 0, so
// `ADD acc` doubles it and `PUT acc` writes it.
const (
	acc int64 = 0

	// Arithmetic scratch. Multiplication uses lhs, rhs, sign and result;
	// division and modulo use all of them.
	lhs     int64 = 1 // left operand, dividend, remainder
	rhs     int64 = 2 // right operand, divisor
	sign    int64 = 3 // sign parity
	result  int64 = 4 // product, quotient
	divisor int64 = 5 // doubled divisor
	power   int64 = 6 // quotient power matching divisor
	negDiv  int64 = 7 // set when the divisor was negative

	valueTmp int64 = 8  // value being stored through a computed address
	indexTmp int64 = 9  // reserved for index arithmetic
	ptrTmp   int64 = 10 // computed element address

	zeroCell int64 = 11
	oneCell  int64 = 12

	// FirstFree is the first cell handed out by an Allocator.
	FirstFree int64 = 13
)

// Allocator hands out cells from one flat, never reclaimed address space.
type Allocator struct {
	next int64
}

func NewAllocator() *Allocator {
	return &Allocator{next: FirstFree}
}

// Allocate reserves size consecutive cells and returns the first.
func (a *Allocator) Allocate(size int64) (int64, error) {
	if size < 1 {
		return 0, fmt.Errorf("allocate %d cells", size)
	}
	addr := a.next
	a.next += size
	if a.next < addr {
		return 0, fmt.Errorf("address space exhausted allocating %d cells", size)
	}
	return addr, nil
}

// Next is the address the next allocation will return.
func (a *Allocator) Next() int64 { return a.next }
