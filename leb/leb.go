// Package leb implements the variable-length integer encoding used
// throughout the WebAssembly binary format.
package leb

import "io"

// byteWriter is the minimal interface the encoders need. Every synthetic
// section is built by writing into an in-memory buffer first, so the
// concrete type is almost always *bytes.Buffer, but the encoders never
// assume that.
type byteWriter interface {
	io.Writer
	io.ByteWriter
}

// PutUint32 writes v as an unsigned LEB128 value.
func PutUint32(w byteWriter, v uint32) error {
	return PutUint64(w, uint64(v))
}

// PutUint64 writes v as an unsigned LEB128 value.
func PutUint64(w byteWriter, v uint64) error {
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			b |= 0x80
		}
		if err := w.WriteByte(b); err != nil {
			return err
		}
		if v == 0 {
			return nil
		}
	}
}

// PutInt32 writes v as a signed LEB128 value.
func PutInt32(w byteWriter, v int32) error {
	return PutInt64(w, int64(v))
}

// PutInt64 writes v as a signed LEB128 value.
func PutInt64(w byteWriter, v int64) error {
	more := true
	for more {
		b := byte(v & 0x7f)
		v >>= 7
		if (v == 0 && b&0x40 == 0) || (v == -1 && b&0x40 != 0) {
			more = false
		} else {
			b |= 0x80
		}
		if err := w.WriteByte(b); err != nil {
			return err
		}
	}
	return nil
}

// PutString writes a length-prefixed UTF-8 string: LEB128(len) || bytes.
func PutString(w byteWriter, s string) error {
	if err := PutUint32(w, uint32(len(s))); err != nil {
		return err
	}
	_, err := w.Write([]byte(s))
	return err
}

// PutUint32Padded5 writes v as an unsigned LEB128 value padded to exactly
// five bytes (the maximum width for a 32-bit value), setting the
// continuation bit on every byte but the last. Relocatable object
// producers pad every relocatable LEB operand to this fixed width so that
// patching it later never changes the byte length of the chunk it sits
// in; synthetic code this writer emits follows the same convention for
// any operand it records a relocation against.
func PutUint32Padded5(w byteWriter, v uint32) error {
	for i := 0; i < 5; i++ {
		b := byte(v & 0x7f)
		v >>= 7
		if i != 4 {
			b |= 0x80
		}
		if err := w.WriteByte(b); err != nil {
			return err
		}
	}
	return nil
}

// PatchUint32Padded5 overwrites the 5-byte padded LEB128 value at
// buf[offset:offset+5] in place, used to resolve a relocation once its
// target's final index is known.
func PatchUint32Padded5(buf []byte, offset int, v uint32) {
	for i := 0; i < 5; i++ {
		b := byte(v & 0x7f)
		v >>= 7
		if i != 4 {
			b |= 0x80
		}
		buf[offset+i] = b
	}
}

// PatchInt32Padded5 overwrites the 5-byte padded signed LEB128 value at
// buf[offset:offset+5] in place. Padding a signed value to a fixed width
// means sign-extending through every byte but setting the terminator bit
// only on the last.
func PatchInt32Padded5(buf []byte, offset int, v int32) {
	vv := int64(v)
	for i := 0; i < 5; i++ {
		b := byte(vv & 0x7f)
		vv >>= 7
		if i != 4 {
			b |= 0x80
		}
		buf[offset+i] = b
	}
}

// SizeUint32 returns the number of bytes PutUint32 would write for v,
// without writing anything. Used when a caller must know a body's length
// before it can frame it.
func SizeUint32(v uint32) int {
	n := 1
	for v >>= 7; v != 0; v >>= 7 {
		n++
	}
	return n
}
