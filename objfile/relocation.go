package objfile

import "github.com/partite-ai/snaxld/wasmenc"

// RelocKind identifies both the target field being patched and how wide
// the patch is. Matching real WebAssembly object relocations, every LEB
// target is pre-padded by the object producer to its maximum 32-bit width
// (5 bytes) so that a later patch never changes the byte length of the
// chunk it targets.
type RelocKind int

const (
	// RelocFunctionIndexLEB patches a call target's assigned function index.
	RelocFunctionIndexLEB RelocKind = iota
	// RelocTableIndexI32 patches a raw little-endian i32 table index,
	// typically used by data relocations that store a function's table
	// slot rather than calling it directly.
	RelocTableIndexI32
	// RelocTableIndexSLEB patches a function's table index as a
	// (pre-padded) signed LEB128 operand, e.g. for a table.get computed
	// by an indirect call site.
	RelocTableIndexSLEB
	// RelocTypeIndexLEB patches a call_indirect's interned signature index.
	RelocTypeIndexLEB
	// RelocGlobalIndexLEB patches a global.get/set's assigned global index.
	RelocGlobalIndexLEB
	// RelocMemoryAddrLEB patches a data symbol's virtual address plus
	// addend as an unsigned LEB128 operand.
	RelocMemoryAddrLEB
	// RelocMemoryAddrSLEB is the signed-operand counterpart.
	RelocMemoryAddrSLEB
	// RelocMemoryAddrI32 patches a data symbol's virtual address plus
	// addend as a raw little-endian i32, typically inside a data segment.
	RelocMemoryAddrI32
)

// Relocation is a single patch site inside a chunk's raw bytes. Symbol is
// meaningful for every kind except RelocTypeIndexLEB, which instead
// targets a call_indirect's signature operand directly and so carries
// Signature instead.
type Relocation struct {
	Kind      RelocKind
	Offset    uint32
	Symbol    Symbol
	Signature wasmenc.Signature
	Addend    int64
}

// TargetFunctionSymbol returns the relocation's target as a FunctionSymbol,
// which is the expected type for every function-index and table-index
// relocation kind. It panics if the symbol is some other kind — that is an upstream
// invariant violation, not a runtime contingency.
func (r Relocation) TargetFunctionSymbol() *FunctionSymbol {
	fs, ok := r.Symbol.(*FunctionSymbol)
	if !ok {
		panic("objfile: relocation target is not a function symbol")
	}
	return fs
}
