package linker

import (
	"bytes"
	"fmt"
	"os"

	"github.com/partite-ai/snaxld/abi"
	"github.com/partite-ai/snaxld/objfile"
	"github.com/partite-ai/snaxld/wasmenc"
)

// Writer holds the working state of a single link. It is built once per
// output file and driven by Run; none of its fields are meant to be read
// back by callers, who only see the Config they passed in and the error
// Run returns (spec §1: this package has no public result type beyond the
// files it writes).
type Writer struct {
	cfg    *Config
	symtab *objfile.SymbolTable
	diag   *Diagnostics

	types *TypeInterner

	importedSymbols      []objfile.Symbol
	numImportedFunctions uint32
	numImportedGlobals   uint32

	inputFunctions    []*objfile.InputFunction
	inputGlobals      []*objfile.InputGlobal
	indirectFunctions []*objfile.FunctionSymbol

	segments           []*OutputSegment
	segmentIndexByName map[string]int
	abis               []string

	numMemoryPages uint32
	maxMemoryPages uint32

	exports     []wasmenc.Export
	fakeGlobals []*objfile.InputGlobal

	customSections []*objfile.InputSection

	initFuncs []objfile.InitFunc

	ctorFunc     *objfile.InputFunction
	dispatchFunc *objfile.InputFunction

	symtabEntries []objfile.Symbol

	sections []OutputSection
}

// NewWriter prepares a Writer over a resolved symbol table. Run then does
// the actual work of producing the module and ABI blob.
func NewWriter(cfg *Config, symtab *objfile.SymbolTable) *Writer {
	return &Writer{
		cfg:                 cfg,
		symtab:              symtab,
		diag:                NewDiagnostics(cfg),
		types:               NewTypeInterner(),
		segmentIndexByName:  map[string]int{},
	}
}

// Run executes the full writer pipeline described by spec §2 and produces
// cfg.OutputFile plus, if any object file carried an ABI blob, its sibling
// .abi file. Its phases run in this order: imports, init functions,
// synthetic ctor and dispatch functions, index assignment, type table,
// memory layout, exports, custom sections, the relocatable-only linking
// symbol table, then section assembly and a sequential write of every
// section into the output file.
func (w *Writer) Run() error {
	w.calculateImports()
	w.calculateInitFunctions()

	if !w.cfg.Relocatable {
		w.createCtorFunction()
	}
	if w.symtab.EntryIsUndefined {
		if err := w.createDispatchFunction(); err != nil {
			w.diag.Error("%v", err)
		}
	}

	w.assignIndexes()
	w.calculateTypes()
	w.layoutMemory()
	w.calculateExports()
	w.calculateCustomSections()
	if w.cfg.Relocatable {
		w.assignSymtab()
	}

	if w.diag.HasErrors() {
		return w.diag.Err()
	}

	w.buildSections()

	if err := w.writeOutputFile(); err != nil {
		return err
	}
	if err := w.writeABI(); err != nil {
		return err
	}
	return w.diag.Err()
}

// calculateTypes implements the type-table half of C2's usage: every
// imported function's signature and every defined function's signature
// must be interned, in addition to the call_indirect signatures
// assignIndexes already registered off relocations.
func (w *Writer) calculateTypes() {
	for _, sym := range w.importedSymbols {
		if fs, ok := sym.(*objfile.FunctionSymbol); ok {
			w.types.Register(fs.Signature)
		}
	}
	for _, fn := range w.inputFunctions {
		w.types.Register(fn.Signature)
	}
}

// lookupFunctionType returns the interned type index for fn's signature.
// It is registered by calculateTypes by construction, so a miss here is
// an internal invariant violation.
func (w *Writer) lookupFunctionType(fn *objfile.InputFunction) int32 {
	idx, ok := w.types.Lookup(fn.Signature)
	if !ok {
		panic(fmt.Sprintf("linker: signature for %s was never interned", fn.Name))
	}
	return idx
}

// writeABI implements AbiEmitter (spec §4.12): if any linked object file
// carried an ABI fragment, merge them and write the result to the
// module's sibling .abi file. A link with no ABI fragments at all (a
// link containing no contract code, e.g. a pure library) writes no ABI
// file.
func (w *Writer) writeABI() error {
	if len(w.abis) == 0 {
		return nil
	}

	merger := w.cfg.ABIMerger
	if merger == nil {
		merger = abi.DefaultMerger{}
	}

	fragments := make([]abi.Blob, len(w.abis))
	for i, a := range w.abis {
		fragments[i] = abi.Blob(a)
	}

	merged, err := merger.Merge(fragments)
	if err != nil {
		return fmt.Errorf("linker: merging ABI: %w", err)
	}
	return os.WriteFile(abi.SiblingPath(w.cfg.OutputFile), merged, 0o644)
}

func (w *Writer) writeOutputFile() error {
	var buf bytes.Buffer
	buf.Write(wasmenc.Magic[:])
	buf.Write(wasmenc.Version[:])
	for _, sec := range w.sections {
		sec.WriteTo(&buf)
	}
	return os.WriteFile(w.cfg.OutputFile, buf.Bytes(), 0o644)
}
