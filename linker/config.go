// Package linker assembles a resolved symbol/chunk graph (objfile package)
// into a single WebAssembly module binary, plus a merged ABI descriptor
// sibling file. It is the output-writer stage of a linker: command-line
// parsing, object-file parsing, symbol resolution, and garbage collection
// all happen upstream and are out of scope here.
package linker

import (
	"fmt"
	"log"

	"github.com/partite-ai/snaxld/abi"
	"github.com/partite-ai/snaxld/wasmenc"
)

// Config enumerates every option the writer's behavior depends on. It is
// always constructed as a plain literal by the caller — configuration
// loading is an external collaborator's job (spec §1).
type Config struct {
	OutputFile string

	Relocatable bool

	ImportMemory bool
	ImportTable  bool
	ExportTable  bool
	ExportAll    bool

	StripDebug bool
	StripAll   bool

	MergeDataSegments bool

	GlobalBase    uint32
	ZStackSize    uint32
	StackFirst    bool
	InitialMemory uint32
	MaxMemory     uint32

	// ShouldExport filters the final export list. A nil value exports
	// everything calculateExports already decided to keep.
	ShouldExport func(wasmenc.Export) bool

	// ABIMerger combines every linked object file's embedded ABI
	// fragment into the sibling .abi file's contents. A nil value falls
	// back to abi.DefaultMerger.
	ABIMerger abi.Merger

	// Verbose gates the diagnostic trace log, matching the original's many
	// log("-- stepName") calls gated by Config->Verbose / errorHandler().Verbose.
	Verbose bool
	Logger  *log.Logger
}

func (c *Config) shouldExport(e wasmenc.Export) bool {
	if c.ShouldExport == nil {
		return true
	}
	return c.ShouldExport(e)
}

// Diagnostics accumulates non-fatal configuration and internal-invariant
// errors the way lld's ErrorHandler does: planning phases keep going after
// reporting a problem, and run() checks the accumulated count at a few
// fixed checkpoints before continuing to the next phase.
type Diagnostics struct {
	errs    []error
	logger  *log.Logger
	verbose bool
}

func NewDiagnostics(cfg *Config) *Diagnostics {
	return &Diagnostics{logger: cfg.Logger, verbose: cfg.Verbose}
}

// Error records a non-fatal diagnostic and keeps going.
func (d *Diagnostics) Error(format string, args ...any) {
	d.errs = append(d.errs, fmt.Errorf(format, args...))
}

// HasErrors reports whether any diagnostic has been recorded so far.
func (d *Diagnostics) HasErrors() bool { return len(d.errs) > 0 }

// Errors returns every diagnostic recorded so far, in order.
func (d *Diagnostics) Errors() []error { return d.errs }

// Err returns nil if no diagnostic was recorded, the diagnostic itself if
// exactly one was, and otherwise a single error giving the count and
// wrapping the first; the later diagnostics are available from Errors.
func (d *Diagnostics) Err() error {
	if len(d.errs) == 0 {
		return nil
	}
	if len(d.errs) == 1 {
		return d.errs[0]
	}
	msgs := make([]error, len(d.errs))
	copy(msgs, d.errs)
	return fmt.Errorf("%d errors, first: %w", len(msgs), msgs[0])
}

// Log emits a verbose trace line; a no-op unless Config.Verbose is set.
func (d *Diagnostics) Log(format string, args ...any) {
	if d.verbose && d.logger != nil {
		d.logger.Printf(format, args...)
	}
}
