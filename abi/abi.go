// Package abi produces the writer's second output artifact: a merged ABI
// descriptor, written as a sibling file next to the WebAssembly module
// itself. The merge algorithm proper — how overlapping struct/action/
// table definitions from different object files are reconciled — is an
// external collaborator's concern (spec §1); this package only defines
// the seam a caller plugs one into and a default, structurally naive
// implementation of it.
package abi

import "encoding/json"

// Blob is one object file's embedded ABI fragment, a JSON document.
type Blob = json.RawMessage

// Merger combines every object file's ABI fragment, in file-registration
// order, into the single document written to the output's sibling .abi
// file.
type Merger interface {
	Merge(fragments []Blob) (Blob, error)
}

// SiblingPath derives the .abi file path from a module output path by
// replacing its extension, matching the original's convention of writing
// `foo.wasm` and `foo.abi` side by side.
func SiblingPath(outputFile string) string {
	for i := len(outputFile) - 1; i >= 0 && outputFile[i] != '/'; i-- {
		if outputFile[i] == '.' {
			return outputFile[:i] + ".abi"
		}
	}
	return outputFile + ".abi"
}
