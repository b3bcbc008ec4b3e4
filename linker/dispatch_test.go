package linker

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/partite-ai/snaxld/objfile"
	"github.com/partite-ai/snaxld/wasmenc"
	"github.com/tetratelabs/wazero"
)

func newTrivialFunction(name string, params ...wasmenc.ValueType) *objfile.InputFunction {
	sig := wasmenc.Signature{Params: params}
	body := []byte{0x00, wasmenc.OpEnd}
	return objfile.NewInputFunction(name, sig, body)
}

// TestDispatchRoutesActionByDistinctHandlerName covers scenario 5: the
// handler symbol's name differs from the action name it is declared
// against, which only works if the entry string is parsed into its two
// halves rather than treated as one opaque name.
func TestDispatchRoutesActionByDistinctHandlerName(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "actions.wasm")

	symtab := objfile.NewSymbolTable()
	file := objfile.NewObjectFile("a.o", 0)

	assertFn := newTrivialFunction("snax_assert_code", wasmenc.ValueTypeI32, wasmenc.ValueTypeI64)
	assertSym := objfile.NewFunctionSymbol("snax_assert_code", assertFn.Signature, objfile.SymbolOpts{Defined: true, Live: true, File: file})
	assertSym.Chunk = assertFn

	transferFn := newTrivialFunction("act_transfer", wasmenc.ValueTypeI64, wasmenc.ValueTypeI64)
	transferSym := objfile.NewFunctionSymbol("act_transfer", transferFn.Signature, objfile.SymbolOpts{Defined: true, Live: true, File: file})
	transferSym.Chunk = transferFn

	issueFn := newTrivialFunction("act_issue", wasmenc.ValueTypeI64, wasmenc.ValueTypeI64)
	issueSym := objfile.NewFunctionSymbol("act_issue", issueFn.Signature, objfile.SymbolOpts{Defined: true, Live: true, File: file})
	issueSym.Chunk = issueFn

	file.Functions = append(file.Functions, assertFn, transferFn, issueFn)
	file.Symbols = append(file.Symbols, assertSym, transferSym, issueSym)
	file.Actions = []string{"transfer:act_transfer", "issue:act_issue"}
	symtab.AddObjectFile(file)
	symtab.EntryIsUndefined = true

	cfg := &Config{OutputFile: out, ZStackSize: 16}
	if err := NewWriter(cfg, symtab).Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	rt := wazero.NewRuntime(ctx)
	defer rt.Close(ctx)
	if _, err := rt.CompileModule(ctx, data); err != nil {
		t.Fatalf("synthesized dispatch function failed to validate: %v", err)
	}
}

// TestDispatchRoutesNotifyThroughWildcardCodeGroup covers scenario 6: a
// notify entry declared against the wildcard code group must still
// route through the two-level (code, then action) machine rather than
// being treated as an action-name wildcard.
func TestDispatchRoutesNotifyThroughWildcardCodeGroup(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "notify.wasm")

	symtab := objfile.NewSymbolTable()
	file := objfile.NewObjectFile("a.o", 0)

	assertFn := newTrivialFunction("snax_assert_code", wasmenc.ValueTypeI32, wasmenc.ValueTypeI64)
	assertSym := objfile.NewFunctionSymbol("snax_assert_code", assertFn.Signature, objfile.SymbolOpts{Defined: true, Live: true, File: file})
	assertSym.Chunk = assertFn

	wildFn := newTrivialFunction("wild_handler", wasmenc.ValueTypeI64, wasmenc.ValueTypeI64)
	wildSym := objfile.NewFunctionSymbol("wild_handler", wildFn.Signature, objfile.SymbolOpts{Defined: true, Live: true, File: file})
	wildSym.Chunk = wildFn

	file.Functions = append(file.Functions, assertFn, wildFn)
	file.Symbols = append(file.Symbols, assertSym, wildSym)
	file.Notify = []string{"*::on_any:wild_handler"}
	symtab.AddObjectFile(file)
	symtab.EntryIsUndefined = true

	cfg := &Config{OutputFile: out, ZStackSize: 16}
	if err := NewWriter(cfg, symtab).Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	rt := wazero.NewRuntime(ctx)
	defer rt.Close(ctx)
	if _, err := rt.CompileModule(ctx, data); err != nil {
		t.Fatalf("synthesized wildcard notify dispatch failed to validate: %v", err)
	}
}

func TestDispatchRejectsMalformedActionEntry(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "bad.wasm")

	symtab := objfile.NewSymbolTable()
	file := objfile.NewObjectFile("a.o", 0)
	file.Actions = []string{"transfer-without-a-colon"}
	symtab.AddObjectFile(file)
	symtab.EntryIsUndefined = true

	cfg := &Config{OutputFile: out, ZStackSize: 16}
	if err := NewWriter(cfg, symtab).Run(); err == nil {
		t.Fatal("expected an error for a malformed action entry")
	}
}
