// Package objfile models the read-only input the writer consumes: object
// files, their chunks (functions, globals, data segments, custom
// sections), relocations, and the symbols that tie them together. None of
// this package parses bytes — populating it is the job of the upstream
// object-file reader and symbol resolver, both out of scope here (spec §1).
package objfile

import "github.com/partite-ai/snaxld/wasmenc"

// Symbol is the common interface implemented by FunctionSymbol,
// GlobalSymbol, DataSymbol, and SectionSymbol. It is a tagged variant over
// those four kinds rather than a class hierarchy: callers that need
// kind-specific behavior do a type switch, the same way wacogo's builder
// switches on ast.Definition.
type Symbol interface {
	Name() string
	IsDefined() bool
	IsLive() bool
	IsWeak() bool
	IsLocal() bool
	IsHidden() bool
	IsUsedInRegularObj() bool
	MarkLive()
	File() *ObjectFile
	OutputSymbolIndex() int32
	SetOutputSymbolIndex(int32)
}

// base holds the fields shared by every symbol kind.
type base struct {
	name              string
	defined           bool
	weak              bool
	local             bool
	hidden            bool
	live              bool
	usedInRegularObj  bool
	file              *ObjectFile
	outputSymbolIndex int32
}

func newBase(name string) base {
	return base{name: name, outputSymbolIndex: -1}
}

func (b *base) Name() string                   { return b.name }
func (b *base) IsDefined() bool                 { return b.defined }
func (b *base) IsLive() bool                    { return b.live }
func (b *base) IsWeak() bool                    { return b.weak }
func (b *base) IsLocal() bool                   { return b.local }
func (b *base) IsHidden() bool                  { return b.hidden }
func (b *base) IsUsedInRegularObj() bool        { return b.usedInRegularObj }
func (b *base) MarkLive()                       { b.live = true }
func (b *base) File() *ObjectFile               { return b.file }
func (b *base) OutputSymbolIndex() int32        { return b.outputSymbolIndex }
func (b *base) SetOutputSymbolIndex(idx int32)  { b.outputSymbolIndex = idx }

// SymbolOpts carries the flag set common to every NewXSymbol constructor.
type SymbolOpts struct {
	File             *ObjectFile
	Defined          bool
	Weak             bool
	Local            bool
	Hidden           bool
	Live             bool
	UsedInRegularObj bool
}

func (o SymbolOpts) apply(b *base) {
	b.file = o.File
	b.defined = o.Defined
	b.weak = o.Weak
	b.local = o.Local
	b.hidden = o.Hidden
	b.live = o.Live
	b.usedInRegularObj = o.UsedInRegularObj
}

// FunctionSymbol names a function, imported or defined. An imported
// symbol carries its own function index directly; a defined symbol
// delegates to its backing chunk, since that is what IndexAssigner
// actually assigns an index to (spec §4.2 step 2).
type FunctionSymbol struct {
	base
	Signature wasmenc.Signature
	Chunk     *InputFunction // nil for imported symbols
	funcIndex int32
	tableIndex int32
}

func NewFunctionSymbol(name string, sig wasmenc.Signature, opts SymbolOpts) *FunctionSymbol {
	s := &FunctionSymbol{base: newBase(name), Signature: sig, funcIndex: -1, tableIndex: -1}
	opts.apply(&s.base)
	return s
}

func (f *FunctionSymbol) FunctionIndex() int32 {
	if f.Chunk != nil {
		return f.Chunk.FunctionIndex()
	}
	return f.funcIndex
}

func (f *FunctionSymbol) HasFunctionIndex() bool {
	if f.Chunk != nil {
		return f.Chunk.HasFunctionIndex()
	}
	return f.funcIndex >= 0
}

func (f *FunctionSymbol) SetFunctionIndex(idx int32) {
	if f.Chunk != nil {
		f.Chunk.SetFunctionIndex(idx)
		return
	}
	f.funcIndex = idx
}

func (f *FunctionSymbol) TableIndex() int32       { return f.tableIndex }
func (f *FunctionSymbol) HasTableIndex() bool     { return f.tableIndex >= 0 }
func (f *FunctionSymbol) SetTableIndex(idx int32) { f.tableIndex = idx }

// GlobalSymbol names a global, imported or defined. Like FunctionSymbol,
// a defined symbol delegates its index to its backing chunk.
type GlobalSymbol struct {
	base
	Type  wasmenc.GlobalType
	Chunk *InputGlobal // nil for imported symbols
	globalIndex int32
}

func NewGlobalSymbol(name string, typ wasmenc.GlobalType, opts SymbolOpts) *GlobalSymbol {
	s := &GlobalSymbol{base: newBase(name), Type: typ, globalIndex: -1}
	opts.apply(&s.base)
	return s
}

func (g *GlobalSymbol) GlobalIndex() int32 {
	if g.Chunk != nil {
		return g.Chunk.GlobalIndex()
	}
	return g.globalIndex
}

func (g *GlobalSymbol) HasGlobalIndex() bool {
	if g.Chunk != nil {
		return g.Chunk.HasGlobalIndex()
	}
	return g.globalIndex >= 0
}

func (g *GlobalSymbol) SetGlobalIndex(idx int32) {
	if g.Chunk != nil {
		g.Chunk.SetGlobalIndex(idx)
		return
	}
	g.globalIndex = idx
}

// DataSymbol names a location inside an output data segment. Data symbols
// are never imported (spec §4.3). Segment and OutputOffset locate a
// defined symbol within its backing input segment's bytes; a symbol with
// no Segment (such as __data_end or __heap_base) is purely synthetic and
// gets its virtual address set directly rather than derived from a
// chunk. Either way the address is only meaningful once MemoryLayout has
// run.
type DataSymbol struct {
	base
	Segment            *InputSegment // nil for synthetic, non-segment-backed symbols
	OutputSegmentIndex int32
	OutputOffset       uint32
	Size               uint32
	hasVA              bool
	virtualAddress     uint32
}

func NewDataSymbol(name string, opts SymbolOpts) *DataSymbol {
	s := &DataSymbol{base: newBase(name), OutputSegmentIndex: -1}
	opts.apply(&s.base)
	return s
}

func (d *DataSymbol) VirtualAddress() uint32        { return d.virtualAddress }
func (d *DataSymbol) HasVirtualAddress() bool       { return d.hasVA }
func (d *DataSymbol) SetVirtualAddress(addr uint32) { d.virtualAddress = addr; d.hasVA = true }

// SectionSymbol names an output custom section, used by relocatable
// output's linking-section symbol table.
type SectionSymbol struct {
	base
	SectionName        string
	outputSectionIndex int32
}

func NewSectionSymbol(name string, opts SymbolOpts) *SectionSymbol {
	s := &SectionSymbol{base: newBase(name), SectionName: name, outputSectionIndex: -1}
	opts.apply(&s.base)
	return s
}

func (s *SectionSymbol) OutputSectionIndex() int32       { return s.outputSectionIndex }
func (s *SectionSymbol) SetOutputSectionIndex(idx int32) { s.outputSectionIndex = idx }
