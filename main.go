package main

import (
	"context"
	"flag"
	"fmt"
	"io/ioutil"
	"log"
	"os"
	"time"
)

func main() {
	ctx := context.Background()

	var timeout time.Duration
	var trace bool
	var memLimit int
	var noDump bool
	flag.DurationVar(&timeout, "timeout", 0, "specify a time limit")
	flag.BoolVar(&trace, "trace", false, "enable trace logging")
	flag.IntVar(&memLimit, "mem-limit", 0, "enable dataspace limit")
	flag.BoolVar(&noDump, "no-dump", false, "suppress the post-compile dataspace dump")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "usage: %v [flags] <program>\n", os.Args[0])
		flag.PrintDefaults()
		os.Exit(2)
	}
	prog, err := ioutil.ReadFile(flag.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		os.Exit(1)
	}

	var opts = []VMOption{
		WithInput(os.Stdin),
		WithOutput(os.Stdout),
	}
	if !noDump {
		opts = append(opts, WithMemDump(os.Stderr))
	}
	if trace {
		opts = append(opts, WithLogf(log.Printf))
	}
	if memLimit != 0 {
		opts = append(opts, WithMemLimit(memLimit))
	}
	vm := New(prog, opts...)

	if timeout != 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	if err := vm.Run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %+v\n", err)
		os.Exit(1)
	}
}
