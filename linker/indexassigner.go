package linker

import "github.com/partite-ai/snaxld/objfile"

// kInitialTableOffset reserves slot 0 of the indirect function table for a
// null handler; indirect functions are assigned dense indices starting here.
const kInitialTableOffset = 1

// calculateImports implements spec §4.2 step 1: every symbol that is
// undefined, not a data symbol, used in a regular object, live, and not
// (weak and non-relocatable) is imported. Imports get ascending indices
// within their kind, in symbol-table registration order.
func (w *Writer) calculateImports() {
	for _, sym := range w.symtab.Symbols() {
		if sym.IsDefined() {
			continue
		}
		if _, isData := sym.(*objfile.DataSymbol); isData {
			continue
		}
		if sym.IsWeak() && !w.cfg.Relocatable {
			continue
		}
		if !sym.IsLive() {
			continue
		}
		if !sym.IsUsedInRegularObj() {
			continue
		}

		w.diag.Log("import: %s", sym.Name())
		w.importedSymbols = append(w.importedSymbols, sym)
		switch s := sym.(type) {
		case *objfile.FunctionSymbol:
			s.SetFunctionIndex(int32(w.numImportedFunctions))
			w.numImportedFunctions++
		case *objfile.GlobalSymbol:
			s.SetGlobalIndex(int32(w.numImportedGlobals))
			w.numImportedGlobals++
		}
	}
}

// assignIndexes implements spec §4.2 steps 2–4: defined functions
// (synthetic first, then per-file in registration order, skipping
// non-live), a relocation scan that drives indirect-table and type-demand
// assignment, then defined globals the same way.
func (w *Writer) assignIndexes() {
	functionIndex := int32(w.numImportedFunctions)
	addDefinedFunction := func(fn *objfile.InputFunction) {
		if !fn.Live {
			return
		}
		w.inputFunctions = append(w.inputFunctions, fn)
		fn.SetFunctionIndex(functionIndex)
		functionIndex++
	}

	for _, fn := range w.symtab.SyntheticFunctions {
		addDefinedFunction(fn)
	}
	for _, file := range w.symtab.ObjectFiles {
		w.diag.Log("Functions: %s", file.Name)
		for _, fn := range file.Functions {
			addDefinedFunction(fn)
		}
	}

	tableIndex := int32(kInitialTableOffset)
	handleRelocs := func(live bool, relocs []objfile.Relocation) {
		if !live {
			return
		}
		for _, r := range relocs {
			switch r.Kind {
			case objfile.RelocTableIndexI32, objfile.RelocTableIndexSLEB:
				fs := r.TargetFunctionSymbol()
				if fs.HasTableIndex() || !fs.HasFunctionIndex() {
					continue
				}
				fs.SetTableIndex(tableIndex)
				w.indirectFunctions = append(w.indirectFunctions, fs)
				tableIndex++
			case objfile.RelocTypeIndexLEB:
				w.types.Register(r.Signature)
			}
		}
	}

	for _, file := range w.symtab.ObjectFiles {
		w.diag.Log("Handle relocs: %s", file.Name)
		for _, fn := range file.Functions {
			handleRelocs(fn.Live, fn.Relocations)
		}
		for _, seg := range file.Segments {
			handleRelocs(seg.Live, seg.Relocations)
		}
		for _, cs := range file.CustomSections {
			handleRelocs(cs.Live, cs.Relocations)
		}
	}

	globalIndex := int32(w.numImportedGlobals)
	addDefinedGlobal := func(g *objfile.InputGlobal) {
		if !g.Live {
			return
		}
		g.SetGlobalIndex(globalIndex)
		w.inputGlobals = append(w.inputGlobals, g)
		globalIndex++
	}

	for _, g := range w.symtab.SyntheticGlobals {
		addDefinedGlobal(g)
	}
	for _, file := range w.symtab.ObjectFiles {
		w.diag.Log("Globals: %s", file.Name)
		for _, g := range file.Globals {
			addDefinedGlobal(g)
		}
	}
}
