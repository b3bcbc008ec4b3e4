package wasmenc

// Opcode constants for the handful of instructions the linker hand-emits
// when synthesizing the constructors caller and the contract-entry
// dispatch function. These are not a general-purpose instruction set —
// just the subset spec.md's dispatch/ctor codegen needs.
const (
	OpUnreachable = 0x00
	OpBlockTypeVoid = 0x40

	OpCall      = 0x10
	OpCallIndir = 0x11

	OpDrop   = 0x1A
	OpReturn = 0x0F

	OpIf   = 0x04
	OpElse = 0x05
	OpEnd  = 0x0B

	OpGetLocal = 0x20

	OpI32Const = 0x41
	OpI64Const = 0x42

	OpI32Eq = 0x46
	OpI64Eq = 0x51
	OpI64Ne = 0x52
)

// SectionID is a top-level WebAssembly section identifier.
type SectionID byte

const (
	SectionCustom   SectionID = 0
	SectionType     SectionID = 1
	SectionImport   SectionID = 2
	SectionFunction SectionID = 3
	SectionTable    SectionID = 4
	SectionMemory   SectionID = 5
	SectionGlobal   SectionID = 6
	SectionExport   SectionID = 7
	SectionStart    SectionID = 8
	SectionElement  SectionID = 9
	SectionCode     SectionID = 10
	SectionData     SectionID = 11
)

// Magic and Version are the fixed 8-byte WebAssembly module header.
var (
	Magic   = [4]byte{0x00, 0x61, 0x73, 0x6D}
	Version = [4]byte{0x01, 0x00, 0x00, 0x00}
)

// WasmPageSize is the fixed page granularity of linear memory.
const WasmPageSize = 65536
