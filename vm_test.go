package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVM(t *testing.T) {
	vmTestCases{

		vmTest("hello bytes", "b 65 b 66 ^ 0 2 W Q").
			expectOutput("AB").
			expectMem(65, 66),

		vmTest("comments everywhere", "( header ) b 72 ^ ( inline ) 0 1 W Q").
			expectOutput("H").
			expectMem(72),

		vmTest("labels resolve to append offsets", "v a b 65 b 66 v z ^ a z Q").
			expectStack(0, 2),

		vmTest("routine call and return", ": f 1 + ; ^ 2 f Q").
			expectStack(3),

		vmTest("nested calls", ": f 1 + ; : g f f ; ^ 0 g Q").
			expectStack(2),

		vmTest("last definition wins", ": f 1 ; : f 2 ; ^ f Q").
			expectStack(2),

		vmTest("last entry mark wins", "^ b 65 ^ 0 1 W Q").
			expectOutput("A").
			expectMem(65),

		vmTest("complement low 32 bits", "^ 0 ~ Q").
			expectStack(4294967295),

		vmTest("complement twice restores", "^ 5 ~ ~ Q").
			expectStack(5),

		vmTest("complement preserves high bits", "^ 8589934592 ~ Q").
			expectStack(12884901887),

		vmTest("store then fetch", "# 0 ^ 305419896 0 ! 0 @ Q").
			expectStack(305419896).
			expectMem(0x78, 0x56, 0x34, 0x12),

		vmTest("store truncates to low 32 bits", "# 0 ^ 4294967297 0 ! 0 @ Q").
			expectStack(1).
			expectMem(1, 0, 0, 0),

		vmTest("read input bytes", "^ G G + Q").
			withInput("AB").
			expectStack(131),

		vmTest("entry never set", "b 65").
			expectError(errEntryNotSet),

		vmTest("undefined token", "b 65 x").
			expectError(tokenError{'x', "b 65 x"}),

		vmTest("undefined opcode", "^ b 65").
			expectError(opcodeError{'b', 2}),

		vmTest("data stack underflow", "^ + Q").
			expectError(errStackUnderflow),

		vmTest("call stack underflow", "^ ; Q").
			expectError(errCallUnderflow),

		vmTest("fetch out of range", "^ 0 @ Q").
			expectError(rangeError{0, 4, 0}),

		vmTest("write out of range", "b 65 ^ 0 2 W Q").
			expectError(rangeError{0, 2, 1}),

		vmTest("input exhausted", "^ G Q").
			expectError(errInputExhausted),

		vmTest("malformed literal", "b x").
			expectError(literalError(2)),

		vmTest("unterminated comment", "( foo").
			expectError(errEndOfComment),

		vmTest("run off program text", "^ 1").
			expectError(progError(3)),

		// b inside a routine body is consumed by the compile pass, so the
		// leftover b byte is no run-time operator and the call aborts.
		vmTest("literal inside routine body", ": f b 1 ; ^ f Q").
			expectError(opcodeError{'b', 4}).
			expectMem(1),

		vmTest("dataspace limit", "# 0 b 1 ^ Q").
			withOptions(WithMemLimit(4)).
			expectError(errOOM),

		vmTest("infinite recursion times out", ": f f ; ^ f").
			withTimeout(10 * time.Millisecond).
			expectError(context.DeadlineExceeded),
	}.run(t)
}

func TestTeeOutput(t *testing.T) {
	var out, tee strings.Builder
	vm := New([]byte("b 65 b 66 ^ 0 2 W Q"), WithOutput(&out), WithTee(&tee))
	require.NoError(t, vm.Run(context.Background()))
	assert.Equal(t, "AB", out.String(), "expected primary output")
	assert.Equal(t, "AB", tee.String(), "expected tee output")
}

func TestMemDumpOption(t *testing.T) {
	var dump strings.Builder
	vm := New([]byte("b 72 ^ 0 1 W Q"), WithMemDump(&dump))
	require.NoError(t, vm.Run(context.Background()))
	assert.Contains(t, dump.String(), "# Dataspace Dump", "expected a dump header")
	assert.Contains(t, dump.String(), "entry: @6", "expected the entry mark")
}

func TestWriteTrace(t *testing.T) {
	var log []string
	vm := New([]byte("b 65 ^ 0 1 W Q"), WithLogf(func(mess string, args ...interface{}) {
		log = append(log, fmt.Sprintf(mess, args...))
	}))
	require.NoError(t, vm.Run(context.Background()))
	assert.Contains(t, strings.Join(log, "\n"), "writing address 0, count 1", "expected a write trace line")
}

//// test harness

type vmTestCases []vmTestCase

func (vmts vmTestCases) run(t *testing.T) {
	for _, vmt := range vmts {
		if !t.Run(vmt.name, vmt.run) {
			return
		}
	}
}

func vmTest(name, prog string) (vmt vmTestCase) {
	vmt.name = name
	vmt.prog = prog
	return vmt
}

type vmTestCase struct {
	name    string
	prog    string
	opts    []VMOption
	timeout time.Duration
	wantErr error
	expect  []func(t *testing.T, vm *VM)
}

func (vmt vmTestCase) withOptions(opts ...VMOption) vmTestCase {
	vmt.opts = append(vmt.opts, opts...)
	return vmt
}

func (vmt vmTestCase) withInput(input string) vmTestCase {
	return vmt.withOptions(WithInput(strings.NewReader(input)))
}

func (vmt vmTestCase) withTimeout(timeout time.Duration) vmTestCase {
	vmt.timeout = timeout
	return vmt
}

func (vmt vmTestCase) expectError(err error) vmTestCase {
	vmt.wantErr = err
	return vmt
}

func (vmt vmTestCase) expectOutput(output string) vmTestCase {
	var out strings.Builder
	vmt.opts = append(vmt.opts, WithOutput(&out))
	vmt.expect = append(vmt.expect, func(t *testing.T, vm *VM) {
		assert.Equal(t, output, out.String(), "expected output")
	})
	return vmt
}

func (vmt vmTestCase) expectMem(values ...byte) vmTestCase {
	vmt.expect = append(vmt.expect, func(t *testing.T, vm *VM) {
		if values == nil {
			values = []byte{}
		}
		assert.Equal(t, values, vm.mem, "expected dataspace bytes")
	})
	return vmt
}

func (vmt vmTestCase) expectStack(values ...int) vmTestCase {
	vmt.expect = append(vmt.expect, func(t *testing.T, vm *VM) {
		assert.Equal(t, values, vm.stack, "expected stack values")
	})
	return vmt
}

func (vmt vmTestCase) run(t *testing.T) {
	vm := New([]byte(vmt.prog), vmt.opts...)

	const defaultTimeout = time.Second
	timeout := vmt.timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	err := vm.Run(ctx)
	if cerr := vm.Close(); err == nil {
		err = cerr
	}
	if vmt.wantErr != nil {
		assert.True(t, errors.Is(err, vmt.wantErr), "expected error: %v\ngot: %+v", vmt.wantErr, err)
	} else {
		assert.NoError(t, err, "unexpected VM run error")
	}

	if !t.Failed() {
		for _, expect := range vmt.expect {
			expect(t, vm)
		}
	}

	if t.Failed() {
		vmt.dumpToTest(t, vm)
	}
}

func (vmt vmTestCase) dumpToTest(t *testing.T, vm *VM) {
	lw := logWriter{logf: t.Logf}
	defer lw.Close()
	memDumper{vm: vm, out: &lw}.dump()
}
