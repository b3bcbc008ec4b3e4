package abi

import (
	"encoding/json"
	"fmt"
)

// DefaultMerger is a naive structural union: it's enough to produce a
// valid, non-conflicting ABI blob when the caller hasn't plugged in the
// real merge algorithm, but it makes no attempt to detect or reconcile
// conflicting definitions across fragments — every array-valued field
// (actions, tables, structs, ...) is concatenated in fragment order, and
// every scalar field keeps whichever fragment set it first.
type DefaultMerger struct{}

func (DefaultMerger) Merge(fragments []Blob) (Blob, error) {
	merged := map[string]any{}
	for i, frag := range fragments {
		var doc map[string]any
		if err := json.Unmarshal(frag, &doc); err != nil {
			return nil, fmt.Errorf("abi: fragment %d: %w", i, err)
		}
		for key, val := range doc {
			existing, ok := merged[key]
			if !ok {
				merged[key] = val
				continue
			}
			existingArr, existingIsArr := existing.([]any)
			valArr, valIsArr := val.([]any)
			if existingIsArr && valIsArr {
				merged[key] = append(existingArr, valArr...)
			}
			// scalar/object fields: first fragment wins, silently.
		}
	}
	return json.Marshal(merged)
}
