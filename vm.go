package main

import (
	"fmt"
	"io"

	"github.com/pkg/errors"
)

// VM interprets one tinyboot program.  The program text is immutable for the
// life of the VM; both passes walk it through the shared program counter.
// Dataspace and the run-time dispatch table are built by the compile pass and
// fixed thereafter; the data and call stacks exist only for the run pass.
type VM struct {
	ioCore

	prog  []byte // program text
	pc    int    // program counter, reused by both passes
	entry int    // offset recorded by ^, -1 until seen

	mem    []byte // dataspace, append only
	stack  []int  // data stack
	rstack []int  // call stack of program text offsets

	memLimit int
	dumpw    io.Writer // post-compile dataspace dump sink, nil to skip

	ctime map[byte]func(vm *VM) // compile-time constructs
	rtime map[byte]action       // run-time dispatch
}

// An action is one run-time dispatch table entry.  Built-ins carry an index
// into vmCodeTable; names bound by v and : carry a recorded dataspace address
// or program text offset instead of a captured closure.
type action struct {
	kind actionKind
	code int // builtin index, actionBuiltin only
	arg  int // address or offset, actionPushAddr / actionCall
}

type actionKind int

const (
	actionBuiltin actionKind = iota
	actionPushAddr
	actionCall
)

// halt flushes any buffered output and aborts the current pass by panicking;
// Run recovers the panic back into an error.  A nil err is the clean Q exit.
func (vm *VM) halt(err error) {
	if vm.out != nil {
		if ferr := vm.out.Flush(); err == nil {
			err = ferr
		}
	}
	if err == nil {
		vm.logf("halt")
	} else {
		vm.logf("halt error: %v", err)
	}
	panic(vmHaltError{err})
}

func (vm *VM) haltif(err error) {
	if err != nil {
		vm.halt(err)
	}
}

type vmHaltError struct{ error }

func (err vmHaltError) Error() string {
	if err.error != nil {
		return fmt.Sprintf("halted: %v", err.error)
	}
	return "halted"
}
func (err vmHaltError) Unwrap() error { return err.error }

func (vm *VM) push(val int) {
	vm.stack = append(vm.stack, val)
}

func (vm *VM) pop() (val int) {
	i := len(vm.stack) - 1
	if i < 0 {
		vm.halt(errors.WithStack(errStackUnderflow))
	}
	val, vm.stack = vm.stack[i], vm.stack[:i]
	return val
}

func (vm *VM) pushr(offset int) {
	vm.rstack = append(vm.rstack, offset)
}

func (vm *VM) popr() (offset int) {
	i := len(vm.rstack) - 1
	if i < 0 {
		vm.halt(errors.WithStack(errCallUnderflow))
	}
	offset, vm.rstack = vm.rstack[i], vm.rstack[:i]
	return offset
}

func (vm *VM) here() int { return len(vm.mem) }

func (vm *VM) appendMem(bs ...byte) {
	if lim := vm.memLimit; lim != 0 && len(vm.mem)+len(bs) > lim {
		vm.halt(errors.WithStack(errOOM))
	}
	vm.mem = append(vm.mem, bs...)
}

// loadWord reads a little-endian 32-bit word from dataspace.
func (vm *VM) loadWord(addr int) int {
	if addr < 0 || addr+4 > len(vm.mem) {
		vm.halt(errors.WithStack(rangeError{addr, 4, len(vm.mem)}))
	}
	return decodeWord(vm.mem[addr:])
}

// storWord overwrites four dataspace bytes with the low 32 bits of val,
// little-endian.  Truncation happens here and nowhere else.
func (vm *VM) storWord(addr, val int) {
	if addr < 0 || addr+4 > len(vm.mem) {
		vm.halt(errors.WithStack(rangeError{addr, 4, len(vm.mem)}))
	}
	b := encodeWord(val)
	copy(vm.mem[addr:], b[:])
}

func encodeWord(val int) [4]byte {
	return [4]byte{
		byte(val),
		byte(val >> 8),
		byte(val >> 16),
		byte(val >> 24),
	}
}

func decodeWord(b []byte) int {
	return int(uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24)
}

var (
	errEntryNotSet    = errors.New("no entry point set")
	errStackUnderflow = errors.New("data stack underflow")
	errCallUnderflow  = errors.New("call stack underflow")
	errInputExhausted = errors.New("input exhausted")
	errOOM            = errors.New("dataspace limit exceeded")
	errEndOfComment   = errors.New("unterminated comment")
	errTruncatedDef   = errors.New("unexpected end of program in definition")
)

// tokenError reports a compile-pass byte that matches neither a compile-time
// construct nor a run-time table entry, with up to 10 bytes of context.
type tokenError struct {
	token   byte
	excerpt string
}

func (err tokenError) Error() string {
	return fmt.Sprintf("%q not defined at %q", err.token, err.excerpt)
}

// opcodeError reports a run-pass byte with no dispatch table entry.
type opcodeError struct {
	token  byte
	offset int
}

func (err opcodeError) Error() string {
	return fmt.Sprintf("no action for %q at offset %v", err.token, err.offset)
}

// rangeError reports a dataspace access outside the current extent.
type rangeError struct {
	addr, count, size int
}

func (err rangeError) Error() string {
	return fmt.Sprintf("dataspace access [%v:%v] out of range (size %v)",
		err.addr, err.addr+err.count, err.size)
}

// literalError reports a construct that required a decimal literal but found
// no digit bytes at the given offset.
type literalError int

func (off literalError) Error() string {
	return fmt.Sprintf("expected decimal literal at offset %v", int(off))
}

// progError reports the run pass walking off the end of the program text.
type progError int

func (off progError) Error() string {
	return fmt.Sprintf("ran off program text at offset %v", int(off))
}
