package amf

import (
	"bytes"
	"testing"
)

func TestEncodeU29_Widths(t *testing.T) {
	cases := []struct {
		name string
		in   int32
		want []byte
	}{
		{"1-byte", 0x35, []byte{0x35}},
		{"2-byte", 0x80, []byte{0x81, 0x00}},
		{"3-byte", 0x4000, []byte{0x81, 0x80, 0x00}},
		{"4-byte", 0x200000, []byte{0x80, 0xC0, 0x80, 0x00}},
		{"max-28-bit", max29BitInt, []byte{0xBF, 0xFF, 0xFF, 0xFF}},
		{"min-28-bit", min29BitInt, []byte{0xC0, 0x80, 0x80, 0x00}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, err := EncodeU29(c.in)
			if err != nil {
				t.Fatal(err)
			}
			if !bytes.Equal(got, c.want) {
				t.Errorf("EncodeU29(%d) = % x, want % x", c.in, got, c.want)
			}
		})
	}
}

func TestEncodeU29_OutOfRange(t *testing.T) {
	if _, err := EncodeU29(max29BitInt + 1); err == nil {
		t.Fatal("expected overflow error")
	}
	if _, err := EncodeU29(min29BitInt - 1); err == nil {
		t.Fatal("expected overflow error")
	}
}

func TestU29RoundTrip(t *testing.T) {
	values := []int32{0, 1, -1, 0x7F, 0x80, -0x80, 0x3FFF, 0x4000, max29BitInt, min29BitInt}
	for _, v := range values {
		enc, err := EncodeU29(v)
		if err != nil {
			t.Fatalf("encode %d: %v", v, err)
		}
		s := NewByteStream(enc)
		got, err := DecodeU29(s)
		if err != nil {
			t.Fatalf("decode %d: %v", v, err)
		}
		if got != v {
			t.Errorf("round trip %d: got %d", v, got)
		}
	}
}

func TestDecodeU29Unsigned_ReferenceQuirk(t *testing.T) {
	// Four bytes with bit 28 set: the unsigned ("reference") decoding rule
	// shifts left and increments instead of sign-extending.
	s := NewByteStream([]byte{0xFF, 0xFF, 0xFF, 0xFF})
	got, err := DecodeU29Unsigned(s)
	if err != nil {
		t.Fatal(err)
	}
	want := (uint32(0x1FFFFFFF) << 1) + 1
	if got != want {
		t.Errorf("got %d, want %d", got, want)
	}
}

func TestDecodeU29_ShortRead(t *testing.T) {
	s := NewByteStream([]byte{0x80})
	if _, err := DecodeU29(s); !IsEndOfStream(err) {
		t.Fatalf("expected end-of-stream error, got %v", err)
	}
}

func TestEncodeU29Unsigned_Widths(t *testing.T) {
	got, err := EncodeU29Unsigned(0x3FFFFFFF)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 4 {
		t.Errorf("expected 4 bytes, got %d", len(got))
	}
	if _, err := EncodeU29Unsigned(0x40000000); err == nil {
		t.Fatal("expected overflow error")
	}
}
