// Package dispatch synthesizes the contract-entry function a contract
// module exposes as its "apply" entry point: a chain of comparisons
// against the packed action/notification names a contract declares,
// each branch calling straight through to that action's handler
// function.
package dispatch

import "fmt"

const nameAlphabet = ".12345abcdefghijklmnopqrstuvwxyz"

// PackName packs a contract action/table name into the 64-bit integer
// representation contracts compare against: up to 12 characters drawn
// from a 32-symbol alphabet (`.12345a-z`) packed 5 bits at a time, plus a
// 13th character packed into the low 4 bits when present. This is the
// same packing every action/notify handler name is compared against at
// dispatch time, so encoding it once here keeps every call site
// consistent with however the ABI side encoded the same name.
//
// A character outside the alphabet is not an error: it packs as 0, the
// same value an absent (past-the-end) character packs as, mirroring the
// upstream string_to_name utility's tolerant treatment of characters it
// doesn't recognize rather than rejecting the whole name.
func PackName(s string) (uint64, error) {
	if len(s) > 13 {
		return 0, fmt.Errorf("dispatch: name %q longer than 13 characters", s)
	}
	var value uint64
	for i := 0; i < 12; i++ {
		var c byte
		if i < len(s) {
			c = s[i]
		}
		value |= charIndex(c) << uint(64-5*(i+1))
	}
	if len(s) == 13 {
		value |= charIndex(s[12]) & 0x0F
	}
	return value, nil
}

func charIndex(c byte) uint64 {
	for i := 0; i < len(nameAlphabet); i++ {
		if nameAlphabet[i] == c {
			return uint64(i)
		}
	}
	return 0
}
