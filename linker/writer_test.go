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

func validateModule(t *testing.T, path string) {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading output: %v", err)
	}
	ctx := context.Background()
	rt := wazero.NewRuntime(ctx)
	defer rt.Close(ctx)
	if _, err := rt.CompileModule(ctx, data); err != nil {
		t.Fatalf("module failed to validate: %v", err)
	}
}

func TestMinimalEmptyModuleRoundTrips(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "empty.wasm")

	cfg := &Config{OutputFile: out, ZStackSize: 16}
	symtab := objfile.NewSymbolTable()

	if err := NewWriter(cfg, symtab).Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	validateModule(t, out)
}

func TestExportedFunctionRoundTrips(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "one_func.wasm")

	symtab := objfile.NewSymbolTable()
	file := objfile.NewObjectFile("a.o", 0)

	sig := wasmenc.Signature{}
	body := []byte{0x00, wasmenc.OpEnd} // no locals, empty body
	fn := objfile.NewInputFunction("increment", sig, body)
	file.Functions = append(file.Functions, fn)

	sym := objfile.NewFunctionSymbol("increment", sig, objfile.SymbolOpts{Defined: true, Live: true, File: file})
	sym.Chunk = fn
	file.Symbols = append(file.Symbols, sym)

	symtab.AddObjectFile(file)

	cfg := &Config{OutputFile: out, ZStackSize: 16}
	if err := NewWriter(cfg, symtab).Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	validateModule(t, out)

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	rt := wazero.NewRuntime(ctx)
	defer rt.Close(ctx)
	mod, err := rt.CompileModule(ctx, data)
	if err != nil {
		t.Fatal(err)
	}
	exports := mod.ExportedFunctions()
	if _, ok := exports["increment"]; !ok {
		t.Errorf("expected export %q, got %v", "increment", exports)
	}
}

func TestStackPointerGlobalGetsVirtualAddress(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "stack.wasm")

	symtab := objfile.NewSymbolTable()
	file := objfile.NewObjectFile("a.o", 0)

	spGlobal := objfile.NewInputGlobal(
		wasmenc.GlobalType{Type: wasmenc.ValueTypeI32, Mutable: true},
		wasmenc.InitExpr{Opcode: wasmenc.OpcodeI32Const, I32: 0},
	)
	file.Globals = append(file.Globals, spGlobal)

	sp := objfile.NewGlobalSymbol("__stack_pointer", spGlobal.Global, objfile.SymbolOpts{Defined: true, Live: true, File: file})
	sp.Chunk = spGlobal
	file.Symbols = append(file.Symbols, sp)
	symtab.AddObjectFile(file)
	symtab.StackPointer = sp

	cfg := &Config{OutputFile: out, ZStackSize: 16}
	if err := NewWriter(cfg, symtab).Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if spGlobal.Init.I32 == 0 {
		t.Errorf("expected stack pointer init expr to be set to a nonzero stack top")
	}
	validateModule(t, out)
}
