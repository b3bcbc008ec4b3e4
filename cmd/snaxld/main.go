// Command snaxld is a thin demonstration driver for the linker package.
// It is not the real driver: object-file parsing, symbol resolution, and
// configuration loading are all out of scope for this repository (spec
// §1) and are expected to be supplied by a caller that already has a
// resolved *objfile.SymbolTable in hand. This command exists only so the
// linker package has a runnable entry point during development, the way
// wacogo's cmd/spectest exercises its own parser/builder pair.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/partite-ai/snaxld/linker"
	"github.com/partite-ai/snaxld/objfile"
)

func main() {
	output := flag.String("o", "a.out.wasm", "output file path")
	relocatable := flag.Bool("relocatable", false, "produce relocatable output")
	zStackSize := flag.Uint("z-stack-size", 8192, "stack region size in bytes")
	initialMemory := flag.Uint("initial-memory", 0, "initial memory size in bytes, 0 to derive from layout")
	verbose := flag.Bool("v", false, "verbose diagnostic trace")
	flag.Parse()

	cfg := &linker.Config{
		OutputFile:    *output,
		Relocatable:   *relocatable,
		ZStackSize:    uint32(*zStackSize),
		InitialMemory: uint32(*initialMemory),
		Verbose:       *verbose,
		Logger:        log.New(os.Stderr, "snaxld: ", 0),
	}

	// A real caller populates this from its own object-file reader and
	// symbol resolver; an empty table still produces a minimal, valid
	// module, which is useful for smoke-testing the writer in isolation.
	symtab := objfile.NewSymbolTable()

	w := linker.NewWriter(cfg, symtab)
	if err := w.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "snaxld: %v\n", err)
		os.Exit(1)
	}
}
