package leb

import (
	"bytes"
	"testing"
)

func TestPutUint32(t *testing.T) {
	cases := []struct {
		v    uint32
		want []byte
	}{
		{0, []byte{0x00}},
		{1, []byte{0x01}},
		{127, []byte{0x7F}},
		{128, []byte{0x80, 0x01}},
		{624485, []byte{0xE5, 0x8E, 0x26}},
	}
	for _, c := range cases {
		var buf bytes.Buffer
		if err := PutUint32(&buf, c.v); err != nil {
			t.Fatalf("PutUint32(%d): %v", c.v, err)
		}
		if !bytes.Equal(buf.Bytes(), c.want) {
			t.Errorf("PutUint32(%d) = %x, want %x", c.v, buf.Bytes(), c.want)
		}
	}
}

func TestPutInt32Signed(t *testing.T) {
	cases := []struct {
		v    int32
		want []byte
	}{
		{0, []byte{0x00}},
		{-1, []byte{0x7F}},
		{-128, []byte{0x80, 0x7F}},
		{624485, []byte{0xE5, 0x8E, 0x26}},
		{-624485, []byte{0x9B, 0xF1, 0x59}},
	}
	for _, c := range cases {
		var buf bytes.Buffer
		if err := PutInt32(&buf, c.v); err != nil {
			t.Fatalf("PutInt32(%d): %v", c.v, err)
		}
		if !bytes.Equal(buf.Bytes(), c.want) {
			t.Errorf("PutInt32(%d) = %x, want %x", c.v, buf.Bytes(), c.want)
		}
	}
}

func TestPutUint32Padded5AlwaysFiveBytes(t *testing.T) {
	for _, v := range []uint32{0, 1, 127, 128, 1 << 30} {
		var buf bytes.Buffer
		if err := PutUint32Padded5(&buf, v); err != nil {
			t.Fatalf("PutUint32Padded5(%d): %v", v, err)
		}
		if buf.Len() != 5 {
			t.Errorf("PutUint32Padded5(%d) wrote %d bytes, want 5", v, buf.Len())
		}
	}
}

func TestPatchUint32Padded5RoundTrips(t *testing.T) {
	buf := make([]byte, 5)
	PatchUint32Padded5(buf, 0, 42)

	var got uint64
	var shift uint
	for _, b := range buf {
		got |= uint64(b&0x7f) << shift
		shift += 7
	}
	if uint32(got) != 42 {
		t.Errorf("patched value = %d, want 42", got)
	}
}

func TestPutString(t *testing.T) {
	var buf bytes.Buffer
	if err := PutString(&buf, "ab"); err != nil {
		t.Fatal(err)
	}
	want := []byte{0x02, 'a', 'b'}
	if !bytes.Equal(buf.Bytes(), want) {
		t.Errorf("PutString = %x, want %x", buf.Bytes(), want)
	}
}
