package linker

import (
	"github.com/partite-ai/snaxld/objfile"
	"github.com/partite-ai/snaxld/wasmenc"
)

// isExported reports whether a defined, live symbol should appear in the
// export section: local and hidden symbols never are, everything else is
// unless ExportAll was explicitly requested to widen that to every hidden
// symbol too (matching --export-all).
func (w *Writer) isExported(sym objfile.Symbol) bool {
	if !sym.IsDefined() || !sym.IsLive() || sym.IsLocal() {
		return false
	}
	return w.cfg.ExportAll || !sym.IsHidden()
}

// calculateExports implements ImportExportPlanner's export half (spec
// §4.3): memory and the indirect function table are exported first if
// requested, then every eligible defined symbol. Data symbols have no
// wasm entity of their own, so each exported one gets a synthetic
// immutable global whose init expression carries its virtual address —
// the only way a raw memory offset can cross the export boundary.
func (w *Writer) calculateExports() {
	addExport := func(e wasmenc.Export) {
		if w.cfg.shouldExport(e) {
			w.exports = append(w.exports, e)
		}
	}

	if !w.cfg.Relocatable && !w.cfg.ImportMemory {
		addExport(wasmenc.Export{Name: "memory", Kind: wasmenc.ExternalMemory, Index: 0})
	}
	if w.cfg.ExportTable && !w.cfg.ImportTable {
		addExport(wasmenc.Export{Name: "__indirect_function_table", Kind: wasmenc.ExternalTable, Index: 0})
	}

	nextFakeGlobal := w.numImportedGlobals + uint32(len(w.inputGlobals))

	for _, sym := range w.symtab.Symbols() {
		if !w.isExported(sym) {
			continue
		}
		switch s := sym.(type) {
		case *objfile.FunctionSymbol:
			addExport(wasmenc.Export{Name: s.Name(), Kind: wasmenc.ExternalFunction, Index: uint32(s.FunctionIndex())})
		case *objfile.GlobalSymbol:
			if s.Type.Mutable {
				continue
			}
			addExport(wasmenc.Export{Name: s.Name(), Kind: wasmenc.ExternalGlobal, Index: uint32(s.GlobalIndex())})
		case *objfile.DataSymbol:
			g := objfile.NewInputGlobal(
				wasmenc.GlobalType{Type: wasmenc.ValueTypeI32, Mutable: false},
				wasmenc.InitExpr{Opcode: wasmenc.OpcodeI32Const, I32: int32(s.VirtualAddress())},
			)
			g.SetGlobalIndex(int32(nextFakeGlobal))
			w.fakeGlobals = append(w.fakeGlobals, g)
			addExport(wasmenc.Export{Name: s.Name(), Kind: wasmenc.ExternalGlobal, Index: nextFakeGlobal})
			nextFakeGlobal++
			w.diag.Log("export: %s (fake global, addr=%d)", s.Name(), s.VirtualAddress())
		}
	}
}

// calculateCustomSections collects every live custom section chunk across
// every object file, in registration order, to be copied verbatim into
// the output (unless StripDebug/StripAll drops it).
func (w *Writer) calculateCustomSections() {
	for _, file := range w.symtab.ObjectFiles {
		for _, cs := range file.CustomSections {
			if !cs.Live {
				continue
			}
			if w.cfg.StripAll {
				continue
			}
			if w.cfg.StripDebug && isDebugSectionName(cs.Name) {
				continue
			}
			w.customSections = append(w.customSections, cs)
		}
	}
}

func isDebugSectionName(name string) bool {
	return len(name) >= 6 && name[:6] == ".debug"
}
