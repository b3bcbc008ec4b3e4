package linker

import "github.com/partite-ai/snaxld/wasmenc"

// TypeInterner canonicalizes function signatures into a dense,
// insertion-ordered index space. The emitted type section lists
// signatures in this same order, so callers that care about determinism
// must register/lookup in a stable sequence.
type TypeInterner struct {
	types   []wasmenc.Signature
	indices map[string]int32
}

func NewTypeInterner() *TypeInterner {
	return &TypeInterner{indices: make(map[string]int32)}
}

// Register returns sig's index, appending it if this is the first time it
// has been seen.
func (t *TypeInterner) Register(sig wasmenc.Signature) int32 {
	key := sig.Key()
	if idx, ok := t.indices[key]; ok {
		return idx
	}
	idx := int32(len(t.types))
	t.types = append(t.types, sig)
	t.indices[key] = idx
	return idx
}

// Lookup returns sig's index without registering it. A lookup miss is an
// internal invariant violation: every signature the writer ever looks up
// must already have been registered, by calculateTypes or by assignIndexes'
// relocation scan.
func (t *TypeInterner) Lookup(sig wasmenc.Signature) (int32, bool) {
	idx, ok := t.indices[sig.Key()]
	return idx, ok
}

// Types returns the interned signatures in insertion order.
func (t *TypeInterner) Types() []wasmenc.Signature { return t.types }

func (t *TypeInterner) Len() int { return len(t.types) }
