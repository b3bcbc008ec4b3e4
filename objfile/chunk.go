package objfile

import "github.com/partite-ai/snaxld/wasmenc"

// InputFunction is a function chunk from an object file (or a synthetic
// function prepended by the writer itself, such as __wasm_call_ctors).
// Body holds the function's locals declaration followed by its
// instructions — everything that goes after the body-size LEB128 the code
// section prepends.
type InputFunction struct {
	Name        string
	DebugName   string
	Signature   wasmenc.Signature
	Body        []byte
	Relocations []Relocation
	Live        bool
	ComdatName  string
	File        *ObjectFile

	funcIndex int32
}

func NewInputFunction(name string, sig wasmenc.Signature, body []byte) *InputFunction {
	return &InputFunction{Name: name, Signature: sig, Body: body, Live: true, funcIndex: -1}
}

func (f *InputFunction) FunctionIndex() int32       { return f.funcIndex }
func (f *InputFunction) HasFunctionIndex() bool     { return f.funcIndex >= 0 }
func (f *InputFunction) SetFunctionIndex(idx int32) { f.funcIndex = idx }

// InputGlobal is a global chunk from an object file.
type InputGlobal struct {
	Global     wasmenc.GlobalType
	Init       wasmenc.InitExpr
	Live       bool
	ComdatName string
	File       *ObjectFile

	globalIndex int32
}

func NewInputGlobal(typ wasmenc.GlobalType, init wasmenc.InitExpr) *InputGlobal {
	return &InputGlobal{Global: typ, Init: init, Live: true, globalIndex: -1}
}

func (g *InputGlobal) GlobalIndex() int32       { return g.globalIndex }
func (g *InputGlobal) HasGlobalIndex() bool     { return g.globalIndex >= 0 }
func (g *InputGlobal) SetGlobalIndex(idx int32) { g.globalIndex = idx }

// InputSegment is a data segment chunk (e.g. `.data.foo`, `.rodata.bar`)
// from an object file. Name is the chunk's own name, before any
// prefix-coalescing SegmentBuilder may apply.
type InputSegment struct {
	Name        string
	Alignment   uint32
	Data        []byte
	Relocations []Relocation
	Live        bool
	ComdatName  string
	File        *ObjectFile

	// Filled in by SegmentBuilder once this input segment has been
	// assigned to an output segment.
	OutputSegmentIndex    int32
	OffsetInOutputSegment uint32
}

func NewInputSegment(name string, alignment uint32, data []byte) *InputSegment {
	return &InputSegment{Name: name, Alignment: alignment, Data: data, Live: true, OutputSegmentIndex: -1}
}

// InputSection is a custom section chunk copied through from an object
// file (e.g. `.debug_info`), subject to relocation patching and,
// optionally, a back-reference from a SectionSymbol.
type InputSection struct {
	Name        string
	Data        []byte
	Relocations []Relocation
	Live        bool
	File        *ObjectFile

	outputSectionIndex int32
}

func NewInputSection(name string, data []byte) *InputSection {
	return &InputSection{Name: name, Data: data, Live: true, outputSectionIndex: -1}
}

func (s *InputSection) OutputSectionIndex() int32       { return s.outputSectionIndex }
func (s *InputSection) SetOutputSectionIndex(idx int32) { s.outputSectionIndex = idx }

// InitFunc is one entry of an object file's linking-data init-functions
// list: a constructor to be called, at a given priority, by
// __wasm_call_ctors (or recorded verbatim in the linking section for
// relocatable output).
type InitFunc struct {
	Symbol   *FunctionSymbol
	Priority uint32
}
