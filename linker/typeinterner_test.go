package linker

import (
	"testing"

	"github.com/partite-ai/snaxld/wasmenc"
)

func TestTypeInternerDedups(t *testing.T) {
	ti := NewTypeInterner()
	sig := wasmenc.Signature{Params: []wasmenc.ValueType{wasmenc.ValueTypeI32}}

	i1 := ti.Register(sig)
	i2 := ti.Register(wasmenc.Signature{Params: []wasmenc.ValueType{wasmenc.ValueTypeI32}})

	if i1 != i2 {
		t.Errorf("structurally identical signatures got different indices: %d, %d", i1, i2)
	}
	if ti.Len() != 1 {
		t.Errorf("Len() = %d, want 1", ti.Len())
	}
}

func TestTypeInternerPreservesInsertionOrder(t *testing.T) {
	ti := NewTypeInterner()
	a := ti.Register(wasmenc.Signature{Results: []wasmenc.ValueType{wasmenc.ValueTypeI32}})
	b := ti.Register(wasmenc.Signature{Results: []wasmenc.ValueType{wasmenc.ValueTypeI64}})

	if a != 0 || b != 1 {
		t.Errorf("unexpected indices: a=%d b=%d", a, b)
	}
	types := ti.Types()
	if len(types) != 2 || types[0].Results[0] != wasmenc.ValueTypeI32 || types[1].Results[0] != wasmenc.ValueTypeI64 {
		t.Errorf("unexpected insertion order: %+v", types)
	}
}

func TestTypeInternerLookupMiss(t *testing.T) {
	ti := NewTypeInterner()
	_, ok := ti.Lookup(wasmenc.Signature{Params: []wasmenc.ValueType{wasmenc.ValueTypeF64}})
	if ok {
		t.Error("Lookup on an unregistered signature should miss")
	}
}
