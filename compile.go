package main

import (
	"strconv"

	"github.com/pkg/errors"
)

//// Compile-time actions.
// Each action leaves the program counter pointing just past the last byte it
// consumed, so the scan advances by exactly the span of each construct.

// compilePass walks the program text once, left to right, building dataspace
// and extending the run-time dispatch table.  Bytes already known to the
// run-time table are skipped: routine bodies are full of run-time operators,
// and the scan passes over them without interpreting anything.
func (vm *VM) compilePass() {
	for vm.pc < len(vm.prog) {
		tok := vm.prog[vm.pc]
		vm.pc++
		if ct, defined := vm.ctime[tok]; defined {
			ct(vm)
		} else if _, defined := vm.rtime[tok]; !defined {
			vm.halt(errors.WithStack(vm.undefined(tok)))
		}
	}
	vm.logf("compiled %v bytes of dataspace: %v", len(vm.mem), vm.mem)
}

func (vm *VM) undefined(tok byte) error {
	start := vm.pc - 10
	if start < 0 {
		start = 0
	}
	return tokenError{tok, string(vm.prog[start:vm.pc])}
}

func newCompileTable() map[byte]func(vm *VM) {
	return map[byte]func(vm *VM){
		'(':  (*VM).skipComment,
		'v':  (*VM).dataLabel,
		':':  (*VM).defineFunc,
		'b':  (*VM).literalByte,
		'#':  (*VM).literalWord,
		'^':  (*VM).setEntry,
		' ':  (*VM).nop,
		'\n': (*VM).nop,
	}
}

// skipComment consumes bytes up to and including the next ')'.  Also serves
// the run pass: comments are legal inline in executable code.
func (vm *VM) skipComment() {
	for {
		if vm.pc >= len(vm.prog) {
			vm.halt(errors.WithStack(errEndOfComment))
		}
		tok := vm.prog[vm.pc]
		vm.pc++
		if tok == ')' {
			return
		}
	}
}

func (vm *VM) skipWhitespace() {
	for vm.pc < len(vm.prog) && (vm.prog[vm.pc] == ' ' || vm.prog[vm.pc] == '\n') {
		vm.pc++
	}
}

// name consumes the single byte naming a v or : definition.
func (vm *VM) name() byte {
	vm.skipWhitespace()
	if vm.pc >= len(vm.prog) {
		vm.halt(errors.WithStack(errTruncatedDef))
	}
	tok := vm.prog[vm.pc]
	vm.pc++
	return tok
}

// define inserts a run-time table entry; a later definition for the same
// name silently replaces an earlier one.
func (vm *VM) define(name byte, act action) {
	vm.rtime[name] = act
}

// dataLabel binds the next name to the current dataspace length, so that
// executing the name later pushes the address of whatever is appended next.
func (vm *VM) dataLabel() {
	name := vm.name()
	vm.logf("label %q -> @%v", name, vm.here())
	vm.define(name, action{kind: actionPushAddr, arg: vm.here()})
}

// defineFunc binds the next name to the program text offset just past the
// definition; executing the name calls the text that follows as a routine.
func (vm *VM) defineFunc() {
	name := vm.name()
	vm.logf("define %q -> %v", name, vm.pc)
	vm.define(name, action{kind: actionCall, arg: vm.pc})
}

// literal parses one or more consecutive ASCII digit bytes at the program
// counter as a base-10 integer, leaving the counter just past the last digit.
// Zero digits at the counter is a malformed program.
func (vm *VM) literal() int {
	start := vm.pc
	for vm.pc < len(vm.prog) && vm.prog[vm.pc] >= '0' && vm.prog[vm.pc] <= '9' {
		vm.pc++
	}
	if vm.pc == start {
		vm.halt(errors.WithStack(literalError(start)))
	}
	n, err := strconv.ParseInt(string(vm.prog[start:vm.pc]), 10, 64)
	vm.haltif(err)
	return int(n)
}

// literalByte appends one byte of dataspace from a decimal literal.
func (vm *VM) literalByte() {
	vm.skipWhitespace()
	vm.appendMem(byte(vm.literal()))
}

// literalWord appends a 32-bit little-endian word of dataspace.
func (vm *VM) literalWord() {
	vm.skipWhitespace()
	b := encodeWord(vm.literal())
	vm.appendMem(b[:]...)
}

// setEntry records where the run pass will start; a later ^ overwrites an
// earlier one.
func (vm *VM) setEntry() {
	vm.entry = vm.pc
	vm.logf("entry @%v", vm.entry)
}

func (vm *VM) nop() {}
