package wasmenc

import (
	"bytes"
	"testing"
)

func TestSignatureKeyDistinguishesShape(t *testing.T) {
	a := Signature{Params: []ValueType{ValueTypeI32}, Results: []ValueType{ValueTypeI64}}
	b := Signature{Params: []ValueType{ValueTypeI32}, Results: []ValueType{ValueTypeI64}}
	c := Signature{Params: []ValueType{ValueTypeI64}, Results: []ValueType{ValueTypeI64}}

	if a.Key() != b.Key() {
		t.Errorf("identical signatures produced different keys")
	}
	if a.Key() == c.Key() {
		t.Errorf("different signatures produced the same key")
	}
}

func TestWriteSignature(t *testing.T) {
	sig := Signature{Params: []ValueType{ValueTypeI32, ValueTypeI64}, Results: []ValueType{ValueTypeI32}}
	var buf bytes.Buffer
	WriteSignature(&buf, sig)

	want := []byte{0x60, 0x02, ValueTypeI32, ValueTypeI64, 0x01, ValueTypeI32}
	if !bytes.Equal(buf.Bytes(), want) {
		t.Errorf("WriteSignature = %x, want %x", buf.Bytes(), want)
	}
}

func TestWriteLimitsNoMax(t *testing.T) {
	var buf bytes.Buffer
	WriteLimits(&buf, Limits{Min: 3})
	want := []byte{0x00, 0x03}
	if !bytes.Equal(buf.Bytes(), want) {
		t.Errorf("WriteLimits = %x, want %x", buf.Bytes(), want)
	}
}

func TestWriteLimitsWithMax(t *testing.T) {
	var buf bytes.Buffer
	WriteLimits(&buf, Limits{Min: 1, Max: 2, HasMax: true})
	want := []byte{0x01, 0x01, 0x02}
	if !bytes.Equal(buf.Bytes(), want) {
		t.Errorf("WriteLimits = %x, want %x", buf.Bytes(), want)
	}
}

func TestWriteInitExprI32Const(t *testing.T) {
	var buf bytes.Buffer
	WriteInitExpr(&buf, InitExpr{Opcode: OpcodeI32Const, I32: -1})
	want := []byte{OpcodeI32Const, 0x7F, OpcodeEnd}
	if !bytes.Equal(buf.Bytes(), want) {
		t.Errorf("WriteInitExpr = %x, want %x", buf.Bytes(), want)
	}
}

func TestWriteInitExprUnsupportedOpcodePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for unsupported opcode")
		}
	}()
	var buf bytes.Buffer
	WriteInitExpr(&buf, InitExpr{Opcode: 0xFF})
}
