package linker

import (
	"bytes"
	"fmt"

	"github.com/partite-ai/snaxld/leb"
	"github.com/partite-ai/snaxld/objfile"
)

// relocTypeCode maps a RelocKind to the byte the reloc custom section
// format uses to identify it, following real WebAssembly relocation type
// numbering.
func relocTypeCode(k objfile.RelocKind) byte {
	switch k {
	case objfile.RelocFunctionIndexLEB:
		return 0
	case objfile.RelocTableIndexSLEB:
		return 1
	case objfile.RelocTableIndexI32:
		return 2
	case objfile.RelocMemoryAddrLEB:
		return 3
	case objfile.RelocMemoryAddrSLEB:
		return 4
	case objfile.RelocMemoryAddrI32:
		return 5
	case objfile.RelocTypeIndexLEB:
		return 6
	case objfile.RelocGlobalIndexLEB:
		return 7
	default:
		panic(fmt.Sprintf("linker: unknown relocation kind %d", k))
	}
}

// hasAddend reports whether a relocation of this kind carries an addend
// field, which is only meaningful for relocations against a location
// (data symbols), not an index (functions, globals, types).
func hasAddend(k objfile.RelocKind) bool {
	switch k {
	case objfile.RelocMemoryAddrLEB, objfile.RelocMemoryAddrSLEB, objfile.RelocMemoryAddrI32:
		return true
	default:
		return false
	}
}

// buildRelocSection implements RelocSection (spec §4.11): one "reloc.*"
// custom section per target section that carried any relocations,
// identifying that section by its index among the module's sections and
// listing each relocation's type, offset, and resolved symbol-table (or,
// for a type relocation, type table) index.
func (w *Writer) buildRelocSection(name string, targetSectionIndex int, relocs []sectionReloc) *rawSection {
	var buf bytes.Buffer
	leb.PutUint32(&buf, uint32(targetSectionIndex))
	leb.PutUint32(&buf, uint32(len(relocs)))
	for _, sr := range relocs {
		buf.WriteByte(relocTypeCode(sr.r.Kind))
		leb.PutUint32(&buf, sr.offset)
		if sr.r.Kind == objfile.RelocTypeIndexLEB {
			idx, _ := w.types.Lookup(sr.r.Signature)
			leb.PutUint32(&buf, uint32(idx))
		} else {
			leb.PutUint32(&buf, uint32(sr.r.Symbol.OutputSymbolIndex()))
		}
		if hasAddend(sr.r.Kind) {
			leb.PutInt64(&buf, sr.r.Addend)
		}
	}
	return newCustomSection(name, buf.Bytes())
}
