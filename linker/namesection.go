package linker

import (
	"bytes"

	"github.com/partite-ai/snaxld/leb"
	"github.com/partite-ai/snaxld/objfile"
)

const nameSubsectionFunction = 1

// buildNameSection implements NameSection (spec §4.9): a "name" custom
// section carrying a single FUNCTION subsection that maps every
// function's module-wide index to a human-readable name, imports first
// and then defined functions, which is the same order those indices were
// assigned in.
func (w *Writer) buildNameSection() *rawSection {
	var names bytes.Buffer
	count := uint32(0)

	var entries bytes.Buffer
	for _, sym := range w.importedSymbols {
		fs, ok := sym.(*objfile.FunctionSymbol)
		if !ok {
			continue
		}
		leb.PutUint32(&entries, uint32(fs.FunctionIndex()))
		leb.PutString(&entries, fs.Name())
		count++
	}
	for _, fn := range w.inputFunctions {
		name := fn.DebugName
		if name == "" {
			name = fn.Name
		}
		leb.PutUint32(&entries, uint32(fn.FunctionIndex()))
		leb.PutString(&entries, name)
		count++
	}

	leb.PutUint32(&names, count)
	names.Write(entries.Bytes())

	var sub bytes.Buffer
	sub.WriteByte(nameSubsectionFunction)
	leb.PutUint32(&sub, uint32(names.Len()))
	sub.Write(names.Bytes())

	return newCustomSection("name", sub.Bytes())
}
