package main

import (
	"bytes"
	"io"
	"io/ioutil"
)

type VMOption interface{ apply(vm *VM) }

func VMOptions(opts ...VMOption) VMOption { return options(opts) }

type options []VMOption

func (opts options) apply(vm *VM) {
	for _, opt := range opts {
		if opt != nil {
			opt.apply(vm)
		}
	}
}

var defaultOptions = VMOptions(
	withInput(bytes.NewReader(nil)),
	withOutput(ioutil.Discard),
)

type withLogfn func(mess string, args ...interface{})

func (logfn withLogfn) apply(vm *VM) {
	vm.logfn = logfn
}

type inputOption struct{ io.Reader }
type outputOption struct{ io.Writer }
type teeOption struct{ io.Writer }
type dumpOption struct{ io.Writer }
type memLimitOption int

func withInput(r io.Reader) inputOption     { return inputOption{r} }
func withOutput(w io.Writer) outputOption   { return outputOption{w} }
func withTee(w io.Writer) teeOption         { return teeOption{w} }
func withMemDump(w io.Writer) dumpOption    { return dumpOption{w} }
func withMemLimit(limit int) memLimitOption { return memLimitOption(limit) }

func (i inputOption) apply(vm *VM) {
	vm.in = newByteReader(i.Reader)
	if cl, ok := i.Reader.(io.Closer); ok {
		vm.closers = append(vm.closers, cl)
	}
}

func (o outputOption) apply(vm *VM) {
	if vm.out != nil {
		vm.out.Flush()
	}
	vm.out = newWriteFlusher(o.Writer)
}

func (o teeOption) apply(vm *VM) {
	vm.out = multiWriteFlusher(vm.out, newWriteFlusher(o.Writer))
}

func (o dumpOption) apply(vm *VM) {
	vm.dumpw = o.Writer
}

func (lim memLimitOption) apply(vm *VM) {
	vm.memLimit = int(lim)
}
