// Command stvm loads and runs a bytecode file.
//
// Usage:
//
//	stvm [-debug] [-disasm] program.bin [iterations]
//
// With no iteration count, the VM runs once and prints the final top of
// stack. With an iteration count, the VM loads once and runs Reset+Run that
// many times, reporting total and per-iteration timings.
package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/pacifier94/stackvm/asm"
	"github.com/pacifier94/stackvm/vm"
	"github.com/pkg/errors"
)

func atExit(err error, debug bool) {
	if err == nil {
		return
	}
	if debug {
		fmt.Fprintf(os.Stderr, "%+v\n", err)
	} else {
		fmt.Fprintf(os.Stderr, "%v\n", err)
	}
	os.Exit(1)
}

func main() {
	debug := flag.Bool("debug", false, "print full error context on failure")
	disasm := flag.Bool("disasm", false, "disassemble the bytecode instead of running it")
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "usage: stvm [-debug] [-disasm] program.bin [iterations]")
		os.Exit(1)
	}

	var err error
	defer func() { atExit(err, *debug) }()

	code, lerr := vm.Load(flag.Arg(0))
	if lerr != nil {
		err = lerr
		return
	}

	if *disasm {
		err = asm.DisassembleAll(code, os.Stdout)
		return
	}

	if flag.NArg() > 1 {
		n, perr := strconv.Atoi(flag.Arg(1))
		if perr != nil || n <= 0 {
			err = errors.Errorf("stvm: iteration count must be a positive integer, got %q", flag.Arg(1))
			return
		}
		err = benchmark(code, n)
		return
	}

	i := vm.New(code)
	if rerr := i.Run(); rerr != nil {
		err = rerr
		return
	}
	if len(i.Stack()) > 0 {
		fmt.Println(i.Result())
	}
}

func benchmark(code []byte, n int) error {
	i := vm.New(code)
	var totalIns int64
	start := time.Now()
	for k := 0; k < n; k++ {
		i.Reset()
		if err := i.Run(); err != nil {
			return errors.Wrapf(err, "iteration %d", k)
		}
		totalIns += i.InstructionCount()
	}
	elapsed := time.Since(start)
	avg := elapsed / time.Duration(n)
	var insPerSec float64
	if elapsed > 0 {
		insPerSec = float64(totalIns) / elapsed.Seconds()
	}
	fmt.Printf("total: %s, average: %s, instructions/sec: %.0f\n", elapsed, avg, insPerSec)
	if len(i.Stack()) > 0 {
		fmt.Printf("result: %d\n", i.Result())
	}
	return nil
}
