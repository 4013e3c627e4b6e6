package main

import (
	"context"
	"io"

	"github.com/pkg/errors"
)

//// Run-time actions.
// Execution should pretty much stay inside routines defined with :, where
// every byte is either a run-time operator or a name bound during the
// compile pass.  There is no separate halted state: Q aborts the loop
// through halt, and that is the only clean way out.

// exec interprets the program text from the entry mark until an explicit Q
// or a fatal error.  Context cancellation is checked between steps.
func (vm *VM) exec(ctx context.Context) {
	if vm.entry < 0 {
		vm.halt(errors.WithStack(errEntryNotSet))
	}
	if vm.logfn != nil {
		defer vm.withLogPrefix("	")()
	}
	vm.pc = vm.entry
	for {
		vm.step()
		vm.haltif(ctx.Err())
	}
}

func (vm *VM) step() {
	at := vm.pc
	if at >= len(vm.prog) {
		vm.halt(errors.WithStack(progError(at)))
	}
	tok := vm.prog[at]
	vm.pc++
	act, defined := vm.rtime[tok]
	if !defined {
		vm.halt(errors.WithStack(opcodeError{tok, at}))
	}
	switch act.kind {
	case actionPushAddr:
		vm.logf("exec @%v %q push %v", at, tok, act.arg)
		vm.push(act.arg)
	case actionCall:
		vm.logf("exec @%v %q call %v", at, tok, act.arg)
		vm.pushr(vm.pc)
		vm.pc = act.arg
	default:
		if vm.logfn != nil {
			vm.logf("exec @%v %v -- s:%v r:%v", at, vmCodeNames[act.code], vm.stack, vm.rstack)
		}
		vmCodeTable[act.code](vm)
	}
}

func newRunTable() map[byte]action {
	t := map[byte]action{
		'(':  {code: vmCodeComment},
		'W':  {code: vmCodeWrite},
		'G':  {code: vmCodeKey},
		'Q':  {code: vmCodeQuit},
		'+':  {code: vmCodeAdd},
		'~':  {code: vmCodeNot},
		'@':  {code: vmCodeGet},
		'!':  {code: vmCodeSet},
		';':  {code: vmCodeExit},
		' ':  {code: vmCodeNop},
		'\n': {code: vmCodeNop},
	}
	for tok := byte('0'); tok <= '9'; tok++ {
		t[tok] = action{code: vmCodePushint}
	}
	return t
}

// Symbol   Name      Function
//  0-9     pushint   rewind over the dispatched digit, parse the whole
//                    decimal literal, push its value
func (vm *VM) pushint() {
	vm.pc--
	vm.push(vm.literal())
}

// Symbol   Name    Function
//   W      write   pop count then address, write that dataspace range to
//                  output as-is
func (vm *VM) write() {
	count := vm.pop()
	addr := vm.pop()
	vm.logf("writing address %v, count %v", addr, count)
	if addr < 0 || count < 0 || addr+count > len(vm.mem) {
		vm.halt(errors.WithStack(rangeError{addr, count, len(vm.mem)}))
	}
	if _, err := vm.out.Write(vm.mem[addr : addr+count]); err != nil {
		vm.halt(err)
	}
}

// Symbol   Name   Function
//   G      key    read exactly one input byte, push its value; exhausted
//                 input is fatal, not an end-of-stream signal
func (vm *VM) key() {
	vm.haltif(vm.out.Flush())
	b, err := vm.in.ReadByte()
	if err == io.EOF {
		vm.halt(errors.WithStack(errInputExhausted))
	}
	vm.haltif(err)
	vm.push(int(b))
}

// Symbol   Name   Function
//   Q      quit   terminate cleanly; the only non-error exit
func (vm *VM) quit() { vm.halt(nil) }

// Symbol   Name   Function
//   +      add    pop two values, push their sum; no truncation, sums wider
//                 than 32 bits stay on the stack as-is
func (vm *VM) add() { b, a := vm.pop(), vm.pop(); vm.push(a + b) }

// Symbol   Name   Function
//   ~      not    flip the low 32 bits of the top of stack.  Bits above bit
//                 31 pass through untouched; truncation only ever happens at
//                 store time.
func (vm *VM) not() { vm.push(vm.pop() ^ 0xffffffff) }

// Symbol   Name    Function
//   @      fetch   pop address, push the 32-bit little-endian word there
func (vm *VM) get() { addr := vm.pop(); vm.push(vm.loadWord(addr)) }

// Symbol   Name    Function
//   !      store   pop address then value, overwrite four dataspace bytes
//                  with the value's low 32 bits
func (vm *VM) set() { addr := vm.pop(); vm.storWord(addr, vm.pop()) }

// Symbol   Name   Function
//   ;      exit   return from a routine: pop the call stack into the
//                 program counter
func (vm *VM) exit() { vm.pc = vm.popr() }

const (
	vmCodeComment = iota // (    skip an inline comment
	vmCodePushint        // 0-9  push a decimal literal
	vmCodeWrite          // W    write dataspace bytes to output
	vmCodeKey            // G    read one input byte
	vmCodeQuit           // Q    clean halt
	vmCodeAdd            // +    integer addition
	vmCodeNot            // ~    low-32-bit complement
	vmCodeGet            // @    fetch a word from dataspace
	vmCodeSet            // !    store a word to dataspace
	vmCodeExit           // ;    return from a routine
	vmCodeNop            //      whitespace

	vmCodeMax
)

var vmCodeTable = [vmCodeMax]func(vm *VM){
	(*VM).skipComment,
	(*VM).pushint,
	(*VM).write,
	(*VM).key,
	(*VM).quit,
	(*VM).add,
	(*VM).not,
	(*VM).get,
	(*VM).set,
	(*VM).exit,
	(*VM).nop,
}

var vmCodeNames = [vmCodeMax]string{
	"comment",
	"pushint",
	"write",
	"key",
	"quit",
	"add",
	"not",
	"get",
	"set",
	"exit",
	"nop",
}
