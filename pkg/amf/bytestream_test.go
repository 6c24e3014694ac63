package amf

import (
	"bytes"
	"testing"
)

func TestByteStream_ReadWriteRoundTrip(t *testing.T) {
	s := NewByteStream(nil)
	if err := s.WriteU8(0x12); err != nil {
		t.Fatal(err)
	}
	if err := s.WriteU16(0x3456); err != nil {
		t.Fatal(err)
	}
	if err := s.WriteU32(0x789ABCDE); err != nil {
		t.Fatal(err)
	}
	if err := s.WriteF64(3.25); err != nil {
		t.Fatal(err)
	}

	r := NewByteStream(s.Bytes())
	u8, err := r.ReadU8()
	if err != nil || u8 != 0x12 {
		t.Fatalf("ReadU8 = %v, %v", u8, err)
	}
	u16, err := r.ReadU16()
	if err != nil || u16 != 0x3456 {
		t.Fatalf("ReadU16 = %v, %v", u16, err)
	}
	u32, err := r.ReadU32()
	if err != nil || u32 != 0x789ABCDE {
		t.Fatalf("ReadU32 = %v, %v", u32, err)
	}
	f64, err := r.ReadF64()
	if err != nil || f64 != 3.25 {
		t.Fatalf("ReadF64 = %v, %v", f64, err)
	}
}

func TestByteStream_ShortRead(t *testing.T) {
	s := NewByteStream([]byte{0x01})
	if _, err := s.ReadU32(); !IsEndOfStream(err) {
		t.Fatalf("expected end-of-stream error, got %v", err)
	}
}

func TestByteStream_CheckpointSeek(t *testing.T) {
	s := NewByteStream([]byte{1, 2, 3, 4})
	_, _ = s.ReadU16()
	cp := s.Checkpoint()
	_, _ = s.ReadU8()
	if err := s.Seek(cp); err != nil {
		t.Fatal(err)
	}
	if s.Pos() != cp {
		t.Errorf("Seek did not restore position: got %d, want %d", s.Pos(), cp)
	}
}

func TestByteStream_AppendAt(t *testing.T) {
	s := NewByteStream(nil)
	_ = s.WriteU32(0) // reserve
	_ = s.WriteU8(0xAB)
	s.AppendAt(0, []byte{0xDE, 0xAD, 0xBE, 0xEF})
	if !bytes.Equal(s.Bytes(), []byte{0xDE, 0xAD, 0xBE, 0xEF, 0xAB}) {
		t.Errorf("AppendAt produced % x", s.Bytes())
	}
}

func TestByteStream_ConsumePrefix(t *testing.T) {
	s := NewByteStream(nil)
	s.ConsumePrefix([]byte{1, 2})
	s.ConsumePrefix([]byte{3, 4})
	if !bytes.Equal(s.Bytes(), []byte{1, 2, 3, 4}) {
		t.Errorf("got % x", s.Bytes())
	}
}

func TestByteStream_Peek(t *testing.T) {
	s := NewByteStream([]byte{1, 2, 3})
	got, err := s.Peek(2)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, []byte{1, 2}) {
		t.Errorf("Peek = % x", got)
	}
	if s.Pos() != 0 {
		t.Errorf("Peek should not advance position, got %d", s.Pos())
	}
}
