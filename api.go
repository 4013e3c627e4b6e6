package main

import (
	"context"
	"errors"
	"io"

	"github.com/jcorbin/gotinyboot/internal/panicerr"
)

// New builds a VM over the given program text.  The text is not copied; the
// caller must not mutate it while the VM is live.
func New(program []byte, opts ...VMOption) *VM {
	vm := VM{
		prog:  program,
		entry: -1,
		ctime: newCompileTable(),
		rtime: newRunTable(),
	}
	defaultOptions.apply(&vm)
	VMOptions(opts...).apply(&vm)
	return &vm
}

// Run compiles the program text, then executes it from its entry mark.  It
// returns nil only when the program quit explicitly; any fatal condition
// (unknown token or opcode, unset entry, stack underflow, out-of-range
// dataspace access, exhausted input, malformed literal) comes back as an
// error.
func (vm *VM) Run(ctx context.Context) error {
	err := panicerr.Recover("VM", func() error {
		return vm.run(ctx)
	})
	var vmErr vmHaltError
	if errors.As(err, &vmErr) {
		err = vmErr.error
	}
	return err
}

func (vm *VM) run(ctx context.Context) error {
	vm.compilePass()
	if vm.dumpw != nil {
		memDumper{vm: vm, out: vm.dumpw}.dump()
	}
	vm.exec(ctx)
	return nil
}

func WithInput(r io.Reader) VMOption   { return withInput(r) }
func WithOutput(w io.Writer) VMOption  { return withOutput(w) }
func WithTee(w io.Writer) VMOption     { return withTee(w) }
func WithMemDump(w io.Writer) VMOption { return withMemDump(w) }
func WithMemLimit(limit int) VMOption  { return withMemLimit(limit) }

func WithLogf(logfn func(mess string, args ...interface{})) VMOption { return withLogfn(logfn) }
