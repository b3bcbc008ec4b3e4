package linker

import (
	"strings"

	"github.com/partite-ai/snaxld/objfile"
)

// OutputSegment is a named group of input segments sharing a (possibly
// coalesced) name: .text, .data, .bss, or a non-coalesced per-symbol name.
type OutputSegment struct {
	Name      string
	Alignment uint32
	Size      uint32
	StartVA   uint32
	Index     int32
	Inputs    []*objfile.InputSegment
}

func (s *OutputSegment) addInput(in *objfile.InputSegment) {
	offset := alignUp(s.Size, in.Alignment)
	in.OutputSegmentIndex = s.Index
	in.OffsetInOutputSegment = offset
	s.Size = offset + uint32(len(in.Data))
	if in.Alignment > s.Alignment {
		s.Alignment = in.Alignment
	}
	s.Inputs = append(s.Inputs, in)
}

// outputDataSegmentName applies the optional `.text.* -> .text`,
// `.data.* -> .data`, `.bss.* -> .bss` prefix coalescing.
func outputDataSegmentName(name string, merge bool) string {
	if !merge {
		return name
	}
	for _, prefix := range []string{".text.", ".data.", ".bss."} {
		if strings.HasPrefix(name, prefix) {
			return prefix[:len(prefix)-1]
		}
	}
	return name
}

// createOutputSegments implements SegmentBuilder (spec §4.5): for each
// object file in registration order, for each live input segment, find or
// create its output segment (preserving first-seen order) and append the
// input to it. Also collects each file's embedded ABI blob along the way,
// matching the original's createOutputSegments, which does both in the
// same pass over files.
func (w *Writer) createOutputSegments() {
	for _, file := range w.symtab.ObjectFiles {
		if file.ABI != "" {
			w.abis = append(w.abis, file.ABI)
		}
		for _, seg := range file.Segments {
			if !seg.Live {
				continue
			}
			name := outputDataSegmentName(seg.Name, w.cfg.MergeDataSegments)
			idx, ok := w.segmentIndexByName[name]
			var out *OutputSegment
			if !ok {
				out = &OutputSegment{Name: name, Index: int32(len(w.segments))}
				idx = len(w.segments)
				w.segmentIndexByName[name] = idx
				w.segments = append(w.segments, out)
				w.diag.Log("new segment: %s", name)
			} else {
				out = w.segments[idx]
			}
			out.addInput(seg)
			w.diag.Log("added data: %s: %d", name, out.Size)
		}
	}
}

func alignUp(v, align uint32) uint32 {
	if align == 0 {
		return v
	}
	return (v + align - 1) &^ (align - 1)
}
