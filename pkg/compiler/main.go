// Package compiler generates register machine code for the procedural
// language read by package parser.
//
// Pipeline: source → parser.Parse → Generate → []asm.Instruction → asm.Format
//
// Memory is one flat address space allocated at compile time. Cells 0-12 are
// reserved (accumulator, arithmetic scratch, the constants 0 and 1);
// variables, arrays, iterators, loop limits and procedure linkage cells are
// allocated upward from FirstFree and never reused.
package compiler
