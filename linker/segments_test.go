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

func TestDataSymbolGetsVirtualAddressWithinSegment(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "data.wasm")

	symtab := objfile.NewSymbolTable()
	file := objfile.NewObjectFile("a.o", 0)

	seg := objfile.NewInputSegment(".data.counter", 4, []byte{0, 0, 0, 0})
	file.Segments = append(file.Segments, seg)

	ds := objfile.NewDataSymbol("counter", objfile.SymbolOpts{Defined: true, Live: true, File: file})
	ds.Segment = seg
	ds.Size = 4
	file.Symbols = append(file.Symbols, ds)

	symtab.AddObjectFile(file)

	cfg := &Config{OutputFile: out, ZStackSize: 16, GlobalBase: 1024}
	if err := NewWriter(cfg, symtab).Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if !ds.HasVirtualAddress() {
		t.Fatal("expected data symbol to get a virtual address")
	}
	if ds.VirtualAddress() < cfg.GlobalBase {
		t.Errorf("virtual address %d should be at or after global base %d", ds.VirtualAddress(), cfg.GlobalBase)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	rt := wazero.NewRuntime(ctx)
	defer rt.Close(ctx)
	if _, err := rt.CompileModule(ctx, data); err != nil {
		t.Fatalf("module with exported fake global failed to validate: %v", err)
	}
}

func TestRelocatedCallSiteResolvesFunctionIndex(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "reloc.wasm")

	symtab := objfile.NewSymbolTable()
	file := objfile.NewObjectFile("a.o", 0)

	calleeSig := wasmenc.Signature{}
	calleeBody := []byte{0x00, wasmenc.OpEnd}
	calleeFn := objfile.NewInputFunction("callee", calleeSig, calleeBody)
	calleeSym := objfile.NewFunctionSymbol("callee", calleeSig, objfile.SymbolOpts{Defined: true, Live: true, File: file})
	calleeSym.Chunk = calleeFn

	var callerBody []byte
	callerBody = append(callerBody, 0x00)           // no locals
	callerBody = append(callerBody, wasmenc.OpCall) // call <placeholder>
	relocOffset := len(callerBody)
	callerBody = append(callerBody, 0x80, 0x80, 0x80, 0x80, 0x00) // padded placeholder
	callerBody = append(callerBody, wasmenc.OpEnd)

	callerFn := objfile.NewInputFunction("caller", calleeSig, callerBody)
	callerFn.Relocations = []objfile.Relocation{{
		Kind:   objfile.RelocFunctionIndexLEB,
		Offset: uint32(relocOffset),
		Symbol: calleeSym,
	}}
	callerSym := objfile.NewFunctionSymbol("caller", calleeSig, objfile.SymbolOpts{Defined: true, Live: true, File: file})
	callerSym.Chunk = callerFn

	file.Functions = append(file.Functions, calleeFn, callerFn)
	file.Symbols = append(file.Symbols, calleeSym, callerSym)
	symtab.AddObjectFile(file)

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
		t.Fatalf("module with patched call site failed to validate: %v", err)
	}
}
