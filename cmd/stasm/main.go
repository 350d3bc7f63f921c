// Command stasm assembles a source file into a flat bytecode file.
//
// Usage:
//
//	stasm [-debug] input.asm [output.bin]
package main

import (
	"flag"
	"fmt"
	"os"
	"sort"

	"github.com/pacifier94/stackvm/asm"
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
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "usage: stasm [-debug] input.asm [output.bin]")
		os.Exit(1)
	}
	input := flag.Arg(0)
	output := "program.bin"
	if flag.NArg() > 1 {
		output = flag.Arg(1)
	}

	var err error
	defer func() { atExit(err, *debug) }()

	f, err := os.Open(input)
	if err != nil {
		err = errors.Wrap(err, "stasm")
		return
	}
	defer f.Close()

	prog, aerr := asm.AssembleProgram(input, f)
	if aerr != nil {
		err = aerr
		return
	}

	if err = os.WriteFile(output, prog.Code, 0644); err != nil {
		err = errors.Wrap(err, "stasm")
		return
	}

	names := make([]string, 0, len(prog.Labels))
	for name := range prog.Labels {
		names = append(names, name)
	}
	sort.Strings(names)
	fmt.Print("Assembled successfully. Labels found: ")
	for _, name := range names {
		fmt.Printf("%s ", name)
	}
	fmt.Println()
}
