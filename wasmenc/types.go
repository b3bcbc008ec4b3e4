// Package wasmenc provides the low-level encoders for WebAssembly binary
// constructs: value types, function signatures, imports, exports, globals,
// tables, limits, and init expressions. It has no notion of a linker; it
// only knows how to turn already-decided values into bytes.
package wasmenc

import (
	"bytes"
	"fmt"

	"github.com/partite-ai/snaxld/leb"
	"github.com/tetratelabs/wazero/api"
)

// ValueType reuses wazero's byte-encoded value type constants directly —
// they already match the WebAssembly binary encoding (0x7F for i32, and so
// on), so there is no reason to declare a parallel enum.
type ValueType = api.ValueType

const (
	ValueTypeI32       = api.ValueTypeI32
	ValueTypeI64       = api.ValueTypeI64
	ValueTypeF32       = api.ValueTypeF32
	ValueTypeF64       = api.ValueTypeF64
	ValueTypeExternref = api.ValueTypeExternref
	// ValueTypeFuncref is not exported by wazero/api (it only models
	// importable/exportable value types), so it is declared here with its
	// spec-mandated encoding byte.
	ValueTypeFuncref ValueType = 0x70
)

// Signature is a function's parameter and result types. Equality is
// structural: two signatures with the same shape are the same signature,
// which is what lets TypeInterner canonicalize them.
type Signature struct {
	Params  []ValueType
	Results []ValueType
}

// Key returns a value usable as a map key for structural equality, since
// Go slices cannot be compared or used as map keys directly.
func (s Signature) Key() string {
	buf := make([]byte, 0, len(s.Params)+len(s.Results)+2)
	buf = append(buf, byte(len(s.Params)))
	buf = append(buf, s.Params...)
	buf = append(buf, byte(len(s.Results)))
	buf = append(buf, s.Results...)
	return string(buf)
}

func (s Signature) String() string {
	return fmt.Sprintf("%v -> %v", s.Params, s.Results)
}

func writeValueType(buf *bytes.Buffer, vt ValueType) {
	buf.WriteByte(byte(vt))
}

// WriteSignature encodes a function type: 0x60, param vector, result vector.
// The module never emits more than one result type (the MVP result arity),
// matching the data model's "result value-type or no result" pair.
func WriteSignature(buf *bytes.Buffer, sig Signature) {
	buf.WriteByte(0x60)
	leb.PutUint32(buf, uint32(len(sig.Params)))
	for _, p := range sig.Params {
		writeValueType(buf, p)
	}
	leb.PutUint32(buf, uint32(len(sig.Results)))
	for _, r := range sig.Results {
		writeValueType(buf, r)
	}
}

// Limits is a resizable-limits pair as used by table and memory types.
type Limits struct {
	Min    uint32
	Max    uint32
	HasMax bool
}

func WriteLimits(buf *bytes.Buffer, l Limits) {
	if l.HasMax {
		buf.WriteByte(1)
		leb.PutUint32(buf, l.Min)
		leb.PutUint32(buf, l.Max)
	} else {
		buf.WriteByte(0)
		leb.PutUint32(buf, l.Min)
	}
}

// GlobalType is a value type plus mutability flag.
type GlobalType struct {
	Type    ValueType
	Mutable bool
}

func WriteGlobalType(buf *bytes.Buffer, g GlobalType) {
	writeValueType(buf, g.Type)
	if g.Mutable {
		buf.WriteByte(1)
	} else {
		buf.WriteByte(0)
	}
}

// InitExpr is a constant initializer expression. Only the MVP constant
// forms are needed by this writer: i32.const and i64.const.
type InitExpr struct {
	Opcode byte
	I32    int32
	I64    int64
}

const (
	OpcodeI32Const = 0x41
	OpcodeI64Const = 0x42
	OpcodeEnd      = 0x0B
)

func WriteInitExpr(buf *bytes.Buffer, e InitExpr) {
	buf.WriteByte(e.Opcode)
	switch e.Opcode {
	case OpcodeI32Const:
		leb.PutInt32(buf, e.I32)
	case OpcodeI64Const:
		leb.PutInt64(buf, e.I64)
	default:
		panic(fmt.Sprintf("wasmenc: unsupported init expr opcode 0x%02x", e.Opcode))
	}
	buf.WriteByte(OpcodeEnd)
}

// ExternalKind identifies the kind of an import or export.
type ExternalKind byte

const (
	ExternalFunction ExternalKind = 0
	ExternalTable    ExternalKind = 1
	ExternalMemory   ExternalKind = 2
	ExternalGlobal   ExternalKind = 3
)

// Import is a single import-section entry. Exactly one of the Func/Table/
// Memory/Global fields is meaningful, selected by Kind.
type Import struct {
	Module string
	Field  string
	Kind   ExternalKind

	FuncTypeIndex uint32
	Table         TableType
	Memory        Limits
	Global        GlobalType
}

type TableType struct {
	ElemType ValueType
	Limits   Limits
}

func WriteImport(buf *bytes.Buffer, imp Import) {
	leb.PutString(buf, imp.Module)
	leb.PutString(buf, imp.Field)
	buf.WriteByte(byte(imp.Kind))
	switch imp.Kind {
	case ExternalFunction:
		leb.PutUint32(buf, imp.FuncTypeIndex)
	case ExternalTable:
		writeValueType(buf, imp.Table.ElemType)
		WriteLimits(buf, imp.Table.Limits)
	case ExternalMemory:
		WriteLimits(buf, imp.Memory)
	case ExternalGlobal:
		WriteGlobalType(buf, imp.Global)
	}
}

// Export is a single export-section entry.
type Export struct {
	Name  string
	Kind  ExternalKind
	Index uint32
}

func WriteExport(buf *bytes.Buffer, exp Export) {
	leb.PutString(buf, exp.Name)
	buf.WriteByte(byte(exp.Kind))
	leb.PutUint32(buf, exp.Index)
}
