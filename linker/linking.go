package linker

import (
	"bytes"

	"github.com/partite-ai/snaxld/leb"
	"github.com/partite-ai/snaxld/objfile"
)

const (
	linkingVersion = 2

	subsecSegmentInfo = 5
	subsecInitFuncs   = 6
	subsecSymbolTable = 8

	symtabFunction = 0
	symtabData     = 1
	symtabGlobal   = 2
	symtabSection  = 3

	symFlagWeak      = 0x01
	symFlagLocal     = 0x02
	symFlagHidden    = 0x04
	symFlagUndefined = 0x10
)

// assignSymtab implements LinkingMetadata's symbol-table half (spec
// §4.10): every live symbol gets a dense OutputSymbolIndex, walking files
// in registration order and each file's symbols in their declared order.
// A symbol listed by a file other than the one that owns it is skipped
// there, so a symbol shared across files takes its slot at its owning
// file's position and occupies only one linking-symtab slot.
func (w *Writer) assignSymtab() {
	seen := map[objfile.Symbol]bool{}
	add := func(sym objfile.Symbol) {
		if sym == nil || seen[sym] {
			return
		}
		seen[sym] = true
		sym.SetOutputSymbolIndex(int32(len(w.symtabEntries)))
		w.symtabEntries = append(w.symtabEntries, sym)
	}

	for _, file := range w.symtab.ObjectFiles {
		for _, sym := range file.Symbols {
			if sym.File() != file || !sym.IsLive() {
				continue
			}
			add(sym)
		}
	}
}

func (w *Writer) buildLinkingSection() *rawSection {
	var body bytes.Buffer
	leb.PutUint32(&body, linkingVersion)

	writeSubsection(&body, subsecSymbolTable, w.symbolTableSubsection())
	if len(w.segments) > 0 {
		writeSubsection(&body, subsecSegmentInfo, w.segmentInfoSubsection())
	}
	if len(w.initFuncs) > 0 {
		writeSubsection(&body, subsecInitFuncs, w.initFuncsSubsection())
	}

	return newCustomSection("linking", body.Bytes())
}

func writeSubsection(buf *bytes.Buffer, id byte, payload []byte) {
	buf.WriteByte(id)
	leb.PutUint32(buf, uint32(len(payload)))
	buf.Write(payload)
}

func (w *Writer) symbolTableSubsection() []byte {
	var buf bytes.Buffer
	leb.PutUint32(&buf, uint32(len(w.symtabEntries)))
	for _, sym := range w.symtabEntries {
		flags := uint32(0)
		if !sym.IsDefined() {
			flags |= symFlagUndefined
		}
		if sym.IsLocal() {
			flags |= symFlagLocal
		}
		if sym.IsWeak() {
			flags |= symFlagWeak
		}
		if sym.IsHidden() {
			flags |= symFlagHidden
		}

		switch s := sym.(type) {
		case *objfile.FunctionSymbol:
			buf.WriteByte(symtabFunction)
			leb.PutUint32(&buf, flags)
			leb.PutUint32(&buf, uint32(s.FunctionIndex()))
			leb.PutString(&buf, s.Name())
		case *objfile.GlobalSymbol:
			buf.WriteByte(symtabGlobal)
			leb.PutUint32(&buf, flags)
			leb.PutUint32(&buf, uint32(s.GlobalIndex()))
			leb.PutString(&buf, s.Name())
		case *objfile.DataSymbol:
			buf.WriteByte(symtabData)
			leb.PutUint32(&buf, flags)
			leb.PutString(&buf, s.Name())
			leb.PutUint32(&buf, uint32(s.OutputSegmentIndex))
			leb.PutUint32(&buf, s.OutputOffset)
			leb.PutUint32(&buf, s.Size)
		case *objfile.SectionSymbol:
			buf.WriteByte(symtabSection)
			leb.PutUint32(&buf, flags)
			leb.PutUint32(&buf, uint32(s.OutputSectionIndex()))
		}
	}
	return buf.Bytes()
}

func (w *Writer) segmentInfoSubsection() []byte {
	var buf bytes.Buffer
	leb.PutUint32(&buf, uint32(len(w.segments)))
	for _, seg := range w.segments {
		leb.PutString(&buf, seg.Name)
		leb.PutUint32(&buf, seg.Alignment)
		leb.PutUint32(&buf, 0) // flags: no TLS/retain bits modeled
	}
	return buf.Bytes()
}

func (w *Writer) initFuncsSubsection() []byte {
	var buf bytes.Buffer
	leb.PutUint32(&buf, uint32(len(w.initFuncs)))
	for _, initFn := range w.initFuncs {
		leb.PutUint32(&buf, initFn.Priority)
		leb.PutUint32(&buf, uint32(initFn.Symbol.OutputSymbolIndex()))
	}
	return buf.Bytes()
}
