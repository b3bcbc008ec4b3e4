package linker

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/partite-ai/snaxld/leb"
	"github.com/partite-ai/snaxld/objfile"
	"github.com/partite-ai/snaxld/wasmenc"
)

// OutputSection is anything that can write its own framed bytes (section
// id, LEB128 body length, body) into the final module.
type OutputSection interface {
	WriteTo(buf *bytes.Buffer)
}

// rawSection is the concrete OutputSection every builtin and custom
// section reduces to: the id/length framing is identical, only how the
// body was built differs.
type rawSection struct {
	id   wasmenc.SectionID
	body []byte
}

func (s *rawSection) WriteTo(buf *bytes.Buffer) {
	buf.WriteByte(byte(s.id))
	leb.PutUint32(buf, uint32(len(s.body)))
	buf.Write(s.body)
}

func newCustomSection(name string, payload []byte) *rawSection {
	var buf bytes.Buffer
	leb.PutString(&buf, name)
	buf.Write(payload)
	return &rawSection{id: wasmenc.SectionCustom, body: buf.Bytes()}
}

// buildSections implements SectionAssembler (spec §5): it assembles every
// builtin section in the module's fixed order, omitting any that would be
// empty, then appends custom sections in a fixed tail order: carried-
// through object file sections, then — for relocatable output only — the
// linking section and one reloc section per relocated target section,
// and finally (unless strip-debug/strip-all) the name section.
func (w *Writer) buildSections() {
	w.sections = nil

	if w.types.Len() > 0 {
		w.sections = append(w.sections, w.buildTypeSection())
	}
	if len(w.importedSymbols) > 0 || w.cfg.ImportMemory || w.cfg.ImportTable {
		w.sections = append(w.sections, w.buildImportSection())
	}
	if len(w.inputFunctions) > 0 {
		w.sections = append(w.sections, w.buildFunctionSection())
	}
	if !w.cfg.ImportTable {
		w.sections = append(w.sections, w.buildTableSection())
	}
	if !w.cfg.ImportMemory {
		w.sections = append(w.sections, w.buildMemorySection())
	}
	if len(w.inputGlobals)+len(w.fakeGlobals) > 0 {
		w.sections = append(w.sections, w.buildGlobalSection())
	}
	if len(w.exports) > 0 {
		w.sections = append(w.sections, w.buildExportSection())
	}
	if len(w.indirectFunctions) > 0 {
		w.sections = append(w.sections, w.buildElementSection())
	}

	codeSectionIndex, dataSectionIndex := -1, -1

	codeSection, codeRelocs := w.buildCodeSection()
	if len(w.inputFunctions) > 0 {
		codeSectionIndex = len(w.sections)
		w.sections = append(w.sections, codeSection)
	}
	dataSection, dataRelocs := w.buildDataSection()
	if len(w.segments) > 0 {
		dataSectionIndex = len(w.sections)
		w.sections = append(w.sections, dataSection)
	}

	for _, cs := range w.customSections {
		w.sections = append(w.sections, newCustomSection(cs.Name, w.resolvedBytes(cs.Data, cs.Relocations)))
	}

	if w.cfg.Relocatable {
		w.sections = append(w.sections, w.buildLinkingSection())
		if len(codeRelocs) > 0 {
			w.sections = append(w.sections, w.buildRelocSection("reloc.CODE", codeSectionIndex, codeRelocs))
		}
		if len(dataRelocs) > 0 {
			w.sections = append(w.sections, w.buildRelocSection("reloc.DATA", dataSectionIndex, dataRelocs))
		}
	}

	if !w.cfg.StripAll && !w.cfg.StripDebug {
		w.sections = append(w.sections, w.buildNameSection())
	}
}

func (w *Writer) buildTypeSection() *rawSection {
	var buf bytes.Buffer
	leb.PutUint32(&buf, uint32(w.types.Len()))
	for _, sig := range w.types.Types() {
		wasmenc.WriteSignature(&buf, sig)
	}
	return &rawSection{id: wasmenc.SectionType, body: buf.Bytes()}
}

func (w *Writer) buildImportSection() *rawSection {
	var buf bytes.Buffer
	var imports []wasmenc.Import

	if w.cfg.ImportMemory {
		imports = append(imports, wasmenc.Import{
			Module: "env", Field: "memory", Kind: wasmenc.ExternalMemory,
			Memory: wasmenc.Limits{Min: w.numMemoryPages, Max: w.maxMemoryPages, HasMax: w.cfg.MaxMemory != 0},
		})
	}
	if w.cfg.ImportTable {
		imports = append(imports, wasmenc.Import{
			Module: "env", Field: "__indirect_function_table", Kind: wasmenc.ExternalTable,
			Table: wasmenc.TableType{
				ElemType: wasmenc.ValueTypeFuncref,
				Limits:   wasmenc.Limits{Min: uint32(len(w.indirectFunctions)) + kInitialTableOffset},
			},
		})
	}
	for _, sym := range w.importedSymbols {
		switch s := sym.(type) {
		case *objfile.FunctionSymbol:
			idx, ok := w.types.Lookup(s.Signature)
			if !ok {
				panic(fmt.Sprintf("linker: import %s's signature was never interned", s.Name()))
			}
			imports = append(imports, wasmenc.Import{
				Module: "env", Field: s.Name(), Kind: wasmenc.ExternalFunction, FuncTypeIndex: uint32(idx),
			})
		case *objfile.GlobalSymbol:
			imports = append(imports, wasmenc.Import{
				Module: "env", Field: s.Name(), Kind: wasmenc.ExternalGlobal, Global: s.Type,
			})
		}
	}

	leb.PutUint32(&buf, uint32(len(imports)))
	for _, imp := range imports {
		wasmenc.WriteImport(&buf, imp)
	}
	return &rawSection{id: wasmenc.SectionImport, body: buf.Bytes()}
}

func (w *Writer) buildFunctionSection() *rawSection {
	var buf bytes.Buffer
	leb.PutUint32(&buf, uint32(len(w.inputFunctions)))
	for _, fn := range w.inputFunctions {
		leb.PutUint32(&buf, uint32(w.lookupFunctionType(fn)))
	}
	return &rawSection{id: wasmenc.SectionFunction, body: buf.Bytes()}
}

func (w *Writer) buildTableSection() *rawSection {
	var buf bytes.Buffer
	leb.PutUint32(&buf, 1)
	writeTableType(&buf, uint32(len(w.indirectFunctions))+kInitialTableOffset)
	return &rawSection{id: wasmenc.SectionTable, body: buf.Bytes()}
}

func writeTableType(buf *bytes.Buffer, min uint32) {
	buf.WriteByte(byte(wasmenc.ValueTypeFuncref))
	wasmenc.WriteLimits(buf, wasmenc.Limits{Min: min})
}

func (w *Writer) buildMemorySection() *rawSection {
	var buf bytes.Buffer
	leb.PutUint32(&buf, 1)
	wasmenc.WriteLimits(&buf, wasmenc.Limits{Min: w.numMemoryPages, Max: w.maxMemoryPages, HasMax: w.cfg.MaxMemory != 0})
	return &rawSection{id: wasmenc.SectionMemory, body: buf.Bytes()}
}

func (w *Writer) buildGlobalSection() *rawSection {
	var buf bytes.Buffer
	leb.PutUint32(&buf, uint32(len(w.inputGlobals)+len(w.fakeGlobals)))
	for _, g := range w.inputGlobals {
		wasmenc.WriteGlobalType(&buf, g.Global)
		wasmenc.WriteInitExpr(&buf, g.Init)
	}
	for _, g := range w.fakeGlobals {
		wasmenc.WriteGlobalType(&buf, g.Global)
		wasmenc.WriteInitExpr(&buf, g.Init)
	}
	return &rawSection{id: wasmenc.SectionGlobal, body: buf.Bytes()}
}

func (w *Writer) buildExportSection() *rawSection {
	var buf bytes.Buffer
	leb.PutUint32(&buf, uint32(len(w.exports)))
	for _, e := range w.exports {
		wasmenc.WriteExport(&buf, e)
	}
	return &rawSection{id: wasmenc.SectionExport, body: buf.Bytes()}
}

func (w *Writer) buildElementSection() *rawSection {
	var buf bytes.Buffer
	leb.PutUint32(&buf, 1) // one active segment
	leb.PutUint32(&buf, 0) // table index 0
	wasmenc.WriteInitExpr(&buf, wasmenc.InitExpr{Opcode: wasmenc.OpcodeI32Const, I32: kInitialTableOffset})
	leb.PutUint32(&buf, uint32(len(w.indirectFunctions)))
	for i, fs := range w.indirectFunctions {
		if want := int32(kInitialTableOffset + i); fs.TableIndex() != want {
			panic(fmt.Sprintf("linker: %s has table index %d, want %d", fs.Name(), fs.TableIndex(), want))
		}
		leb.PutUint32(&buf, uint32(fs.FunctionIndex()))
	}
	return &rawSection{id: wasmenc.SectionElement, body: buf.Bytes()}
}

// buildCodeSection also returns, per function, the (offset-within-body,
// relocation) pairs the reloc section needs when the output is
// relocatable; for non-relocatable output relocations are instead
// resolved and patched directly into the emitted bytes.
func (w *Writer) buildCodeSection() (*rawSection, []sectionReloc) {
	var buf bytes.Buffer
	leb.PutUint32(&buf, uint32(len(w.inputFunctions)))
	var relocs []sectionReloc
	for _, fn := range w.inputFunctions {
		resolved := w.resolvedBytes(fn.Body, fn.Relocations)
		bodyStart := buf.Len()
		leb.PutUint32(&buf, uint32(len(resolved)))
		// The body-length LEB128 prefix is itself variable width, so
		// relocation offsets (which are relative to the body, not the
		// section) must be corrected by how many bytes that prefix took.
		prefixLen := buf.Len() - bodyStart
		buf.Write(resolved)
		if w.cfg.Relocatable {
			for _, r := range fn.Relocations {
				relocs = append(relocs, sectionReloc{offset: uint32(bodyStart) + uint32(prefixLen) + r.Offset, r: r})
			}
		}
	}
	return &rawSection{id: wasmenc.SectionCode, body: buf.Bytes()}, relocs
}

func (w *Writer) buildDataSection() (*rawSection, []sectionReloc) {
	var buf bytes.Buffer
	leb.PutUint32(&buf, uint32(len(w.segments)))
	var relocs []sectionReloc
	for _, seg := range w.segments {
		leb.PutUint32(&buf, 0) // memory index 0
		wasmenc.WriteInitExpr(&buf, wasmenc.InitExpr{Opcode: wasmenc.OpcodeI32Const, I32: int32(seg.StartVA)})
		leb.PutUint32(&buf, seg.Size)
		dataStart := buf.Len()
		data := make([]byte, seg.Size)
		for _, in := range seg.Inputs {
			resolved := w.resolvedBytes(in.Data, in.Relocations)
			copy(data[in.OffsetInOutputSegment:], resolved)
			if w.cfg.Relocatable {
				for _, r := range in.Relocations {
					relocs = append(relocs, sectionReloc{offset: uint32(dataStart) + in.OffsetInOutputSegment + r.Offset, r: r})
				}
			}
		}
		buf.Write(data)
	}
	return &rawSection{id: wasmenc.SectionData, body: buf.Bytes()}, relocs
}

// resolvedBytes returns data with every relocation patched in place. For
// relocatable output relocations are left untouched (the caller instead
// records them for the reloc section) since the final indices aren't
// meaningful until a later link pass.
func (w *Writer) resolvedBytes(data []byte, relocs []objfile.Relocation) []byte {
	if w.cfg.Relocatable || len(relocs) == 0 {
		return data
	}
	out := append([]byte(nil), data...)
	for _, r := range relocs {
		w.applyRelocation(out, r)
	}
	return out
}

func (w *Writer) applyRelocation(buf []byte, r objfile.Relocation) {
	off := int(r.Offset)
	switch r.Kind {
	case objfile.RelocFunctionIndexLEB:
		leb.PatchUint32Padded5(buf, off, uint32(r.TargetFunctionSymbol().FunctionIndex()))
	case objfile.RelocTableIndexI32:
		binary.LittleEndian.PutUint32(buf[off:], uint32(int64(r.TargetFunctionSymbol().TableIndex())+r.Addend))
	case objfile.RelocTableIndexSLEB:
		leb.PatchInt32Padded5(buf, off, int32(int64(r.TargetFunctionSymbol().TableIndex())+r.Addend))
	case objfile.RelocTypeIndexLEB:
		idx, ok := w.types.Lookup(r.Signature)
		if !ok {
			panic("linker: relocation signature was never interned")
		}
		leb.PatchUint32Padded5(buf, off, uint32(idx))
	case objfile.RelocGlobalIndexLEB:
		gs := r.Symbol.(*objfile.GlobalSymbol)
		leb.PatchUint32Padded5(buf, off, uint32(gs.GlobalIndex()))
	case objfile.RelocMemoryAddrLEB:
		ds := r.Symbol.(*objfile.DataSymbol)
		leb.PatchUint32Padded5(buf, off, uint32(int64(ds.VirtualAddress())+r.Addend))
	case objfile.RelocMemoryAddrSLEB:
		ds := r.Symbol.(*objfile.DataSymbol)
		leb.PatchInt32Padded5(buf, off, int32(int64(ds.VirtualAddress())+r.Addend))
	case objfile.RelocMemoryAddrI32:
		ds := r.Symbol.(*objfile.DataSymbol)
		binary.LittleEndian.PutUint32(buf[off:], uint32(int64(ds.VirtualAddress())+r.Addend))
	}
}

// sectionReloc is a relocation re-expressed relative to its containing
// section's body, which is what the reloc custom section records.
type sectionReloc struct {
	offset uint32
	r      objfile.Relocation
}
