package main

import (
	"fmt"
	"io"
	"strconv"
)

// memDumper renders a VM's compiled dataspace, entry mark, and stacks for
// the diagnostic channel.  Dump output is advisory only: program semantics
// never depend on it, and any write error is swallowed.
type memDumper struct {
	vm  *VM
	out io.Writer

	addrWidth int
	rowWidth  int
}

func (dump memDumper) dump() {
	fmt.Fprintf(dump.out, "# Dataspace Dump\n")
	if dump.vm.entry >= 0 {
		fmt.Fprintf(dump.out, "  entry: @%v\n", dump.vm.entry)
	} else {
		fmt.Fprintf(dump.out, "  entry: unset\n")
	}
	if len(dump.vm.stack) > 0 {
		fmt.Fprintf(dump.out, "  stack: %v\n", dump.vm.stack)
	}
	if len(dump.vm.rstack) > 0 {
		fmt.Fprintf(dump.out, "  rstack: %v\n", dump.vm.rstack)
	}
	dump.dumpMem()
}

func (dump *memDumper) dumpMem() {
	mem := dump.vm.mem
	fmt.Fprintf(dump.out, "  mem: %v bytes\n", len(mem))
	if dump.rowWidth == 0 {
		dump.rowWidth = 16
	}
	if dump.addrWidth == 0 {
		dump.addrWidth = len(strconv.Itoa(len(mem)))
	}
	for addr := 0; addr < len(mem); addr += dump.rowWidth {
		end := addr + dump.rowWidth
		if end > len(mem) {
			end = len(mem)
		}
		dump.formatRow(addr, mem[addr:end])
	}
}

func (dump *memDumper) formatRow(addr int, row []byte) {
	fmt.Fprintf(dump.out, "  @%*v ", dump.addrWidth, addr)
	for i := 0; i < dump.rowWidth; i++ {
		if i < len(row) {
			fmt.Fprintf(dump.out, " %3v", row[i])
		} else {
			io.WriteString(dump.out, "    ")
		}
	}
	io.WriteString(dump.out, "  |")
	for _, b := range row {
		if b >= 0x20 && b < 0x7f {
			fmt.Fprintf(dump.out, "%c", b)
		} else {
			io.WriteString(dump.out, ".")
		}
	}
	io.WriteString(dump.out, "|\n")
}

// logWriter adapts a printf-style log function into a line-buffered
// io.Writer, so dumps can be routed into test logs.
type logWriter struct {
	logf func(mess string, args ...interface{})
	buf  []byte
}

func (lw *logWriter) Write(p []byte) (n int, err error) {
	n = len(p)
	lw.buf = append(lw.buf, p...)
	for {
		i := -1
		for j, b := range lw.buf {
			if b == '\n' {
				i = j
				break
			}
		}
		if i < 0 {
			return n, nil
		}
		lw.logf("%s", lw.buf[:i])
		lw.buf = lw.buf[i+1:]
	}
}

func (lw *logWriter) Close() error {
	if len(lw.buf) > 0 {
		lw.logf("%s", lw.buf)
		lw.buf = nil
	}
	return nil
}
