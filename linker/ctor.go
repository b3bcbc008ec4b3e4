package linker

import (
	"bytes"
	"sort"

	"github.com/partite-ai/snaxld/leb"
	"github.com/partite-ai/snaxld/objfile"
	"github.com/partite-ai/snaxld/wasmenc"
)

var nullarySignature = wasmenc.Signature{}

// calculateInitFunctions implements the ordering half of SyntheticCtor
// (spec §4.6 / invariant 7): every object file's InitFunctions are
// collected, then stable-sorted by ascending priority so that two
// functions the same file lists at the same priority keep their declared
// relative order, and functions from an earlier-registered file sort
// before a later file's at the same priority. An init function must have
// signature () -> void; one that doesn't is reported rather than handed
// to the ctor codegen, matching the original's rejection of it.
func (w *Writer) calculateInitFunctions() {
	for _, file := range w.symtab.ObjectFiles {
		for _, initFn := range file.InitFunctions {
			if initFn.Symbol.Signature.Key() != nullarySignature.Key() {
				w.diag.Error("invalid signature for init func: %s", initFn.Symbol.Name())
				continue
			}
			w.initFuncs = append(w.initFuncs, initFn)
		}
	}
	sort.SliceStable(w.initFuncs, func(i, j int) bool {
		return w.initFuncs[i].Priority < w.initFuncs[j].Priority
	})
}

// createCtorFunction implements SyntheticCtor's codegen half: it
// synthesizes __wasm_call_ctors, a nullary function that calls every
// collected init function in order. Call targets are recorded as
// relocations rather than baked-in indices, since the constructors
// themselves may not have their final function index yet at this point
// in the pipeline — indexes are assigned afterward, and the relocation is
// resolved like any other once they are.
func (w *Writer) createCtorFunction() {
	sig := wasmenc.Signature{}
	var body bytes.Buffer
	body.WriteByte(0) // local declaration count: no locals

	var relocs []objfile.Relocation
	for _, initFn := range w.initFuncs {
		body.WriteByte(wasmenc.OpCall)
		offset := body.Len()
		// Padded placeholder; patched once the target's function index
		// (or, for relocatable output, recorded as a reloc record) is known.
		leb.PutUint32Padded5(&body, 0)
		relocs = append(relocs, objfile.Relocation{
			Kind:   objfile.RelocFunctionIndexLEB,
			Offset: uint32(offset),
			Symbol: initFn.Symbol,
		})
	}
	body.WriteByte(wasmenc.OpEnd)

	fn := objfile.NewInputFunction("__wasm_call_ctors", sig, body.Bytes())
	fn.Relocations = relocs

	w.symtab.SyntheticFunctions = append(w.symtab.SyntheticFunctions, fn)
	if w.symtab.CallCtorsFunc != nil {
		w.symtab.CallCtorsFunc.Chunk = fn
	}
	w.ctorFunc = fn
}
