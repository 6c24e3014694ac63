package amf

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
)

// ByteStream is a seekable in-memory byte buffer with typed read/write of
// the integer and float widths AMF0/AMF3 use on the wire, plus peek and
// checkpoint/revert support for the decoder's short-read handling (§4.8).
// All multi-byte integers are big-endian unless noted otherwise; this
// matches §4.4's "all multi-byte integers are big-endian" rule.
type ByteStream struct {
	buf []byte
	pos int
}

// NewByteStream wraps data for reading and writing starting at position 0.
// The caller's slice is used directly: writes append after its length,
// filling any spare capacity of data's backing array before append()
// reallocates, and AppendAt may overwrite bytes within it.
func NewByteStream(data []byte) *ByteStream {
	return &ByteStream{buf: data}
}

// Len returns the total number of bytes currently buffered.
func (s *ByteStream) Len() int { return len(s.buf) }

// Pos returns the current read/write position.
func (s *ByteStream) Pos() int { return s.pos }

// Remaining returns the number of unread bytes.
func (s *ByteStream) Remaining() int { return len(s.buf) - s.pos }

// AtEOF reports whether the position has reached the end of the buffer.
func (s *ByteStream) AtEOF() bool { return s.pos >= len(s.buf) }

// Bytes returns the full backing buffer, ignoring position.
func (s *ByteStream) Bytes() []byte { return s.buf }

// Seek moves the position to an absolute offset.
func (s *ByteStream) Seek(pos int) error {
	if pos < 0 || pos > len(s.buf) {
		return fmt.Errorf("%w: seek position %d out of range [0,%d]", ErrDecode, pos, len(s.buf))
	}
	s.pos = pos
	return nil
}

// Checkpoint returns the current position so a short read can revert to
// it via Seek (the decoder's per-top-level-read checkpoint in §4.8).
func (s *ByteStream) Checkpoint() int { return s.pos }

// ConsumePrefix appends data at the end of the buffer, for callers feeding
// a decoder via the push/pull send() interface.
func (s *ByteStream) ConsumePrefix(data []byte) {
	s.buf = append(s.buf, data...)
}

// AppendAt writes data at an absolute offset without disturbing the
// current read position, growing the buffer if needed. Used by LSO/length
// patch-back (reserve-then-patch) writers.
func (s *ByteStream) AppendAt(offset int, data []byte) {
	end := offset + len(data)
	if end > len(s.buf) {
		grown := make([]byte, end)
		copy(grown, s.buf)
		s.buf = grown
	}
	copy(s.buf[offset:end], data)
}

func (s *ByteStream) need(n int) error {
	if s.Remaining() < n {
		return fmt.Errorf("%w: need %d bytes, have %d", ErrEndOfStream, n, s.Remaining())
	}
	return nil
}

// ReadByte implements io.ByteReader, and the byteSource interface VLQ
// decoding uses.
func (s *ByteStream) ReadByte() (byte, error) {
	if err := s.need(1); err != nil {
		return 0, err
	}
	b := s.buf[s.pos]
	s.pos++
	return b, nil
}

// Read implements io.Reader.
func (s *ByteStream) Read(p []byte) (int, error) {
	if s.AtEOF() {
		return 0, io.EOF
	}
	n := copy(p, s.buf[s.pos:])
	s.pos += n
	return n, nil
}

// ReadN reads exactly n bytes.
func (s *ByteStream) ReadN(n int) ([]byte, error) {
	if err := s.need(n); err != nil {
		return nil, err
	}
	out := make([]byte, n)
	copy(out, s.buf[s.pos:s.pos+n])
	s.pos += n
	return out, nil
}

// Peek returns the next n bytes without advancing the position.
func (s *ByteStream) Peek(n int) ([]byte, error) {
	if err := s.need(n); err != nil {
		return nil, err
	}
	return s.buf[s.pos : s.pos+n], nil
}

// Write implements io.Writer, appending to the buffer.
func (s *ByteStream) Write(p []byte) (int, error) {
	s.buf = append(s.buf, p...)
	return len(p), nil
}

func (s *ByteStream) ReadU8() (uint8, error)  { b, err := s.ReadByte(); return b, err }
func (s *ByteStream) ReadI8() (int8, error)   { b, err := s.ReadByte(); return int8(b), err }
func (s *ByteStream) WriteU8(v uint8) error   { _, err := s.Write([]byte{v}); return err }
func (s *ByteStream) WriteI8(v int8) error    { _, err := s.Write([]byte{byte(v)}); return err }

func (s *ByteStream) ReadU16() (uint16, error) {
	b, err := s.ReadN(2)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(b), nil
}

func (s *ByteStream) ReadI16() (int16, error) {
	v, err := s.ReadU16()
	return int16(v), err
}

func (s *ByteStream) WriteU16(v uint16) error {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], v)
	_, err := s.Write(b[:])
	return err
}

func (s *ByteStream) WriteI16(v int16) error { return s.WriteU16(uint16(v)) }

// ReadU24 reads a 3-byte big-endian unsigned integer, the width AMF0/RTMP
// style framing uses for chunk sizes and timestamps.
func (s *ByteStream) ReadU24() (uint32, error) {
	b, err := s.ReadN(3)
	if err != nil {
		return 0, err
	}
	return uint32(b[0])<<16 | uint32(b[1])<<8 | uint32(b[2]), nil
}

func (s *ByteStream) ReadI24() (int32, error) {
	v, err := s.ReadU24()
	if v&0x800000 != 0 {
		return int32(v | 0xFF000000), err
	}
	return int32(v), err
}

func (s *ByteStream) WriteU24(v uint32) error {
	b := []byte{byte(v >> 16), byte(v >> 8), byte(v)}
	_, err := s.Write(b)
	return err
}

func (s *ByteStream) ReadU32() (uint32, error) {
	b, err := s.ReadN(4)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b), nil
}

func (s *ByteStream) ReadI32() (int32, error) {
	v, err := s.ReadU32()
	return int32(v), err
}

func (s *ByteStream) WriteU32(v uint32) error {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	_, err := s.Write(b[:])
	return err
}

func (s *ByteStream) WriteI32(v int32) error { return s.WriteU32(uint32(v)) }

func (s *ByteStream) ReadF32() (float32, error) {
	v, err := s.ReadU32()
	return math.Float32frombits(v), err
}

func (s *ByteStream) WriteF32(v float32) error {
	return s.WriteU32(math.Float32bits(v))
}

func (s *ByteStream) ReadF64() (float64, error) {
	b, err := s.ReadN(8)
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(binary.BigEndian.Uint64(b)), nil
}

func (s *ByteStream) WriteF64(v float64) error {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], math.Float64bits(v))
	_, err := s.Write(b[:])
	return err
}

// ReadUTF8 reads an n-byte UTF-8 string.
func (s *ByteStream) ReadUTF8(n int) (string, error) {
	b, err := s.ReadN(n)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// WriteUTF8 writes s's bytes with no length prefix; callers write their
// own length header first (AMF0's 2/4-byte forms, AMF3's U29 header).
func (s *ByteStream) WriteUTF8(str string) error {
	_, err := io.WriteString(s, str)
	return err
}

// IsEndOfStream reports whether err represents a short read that should be
// surfaced to the caller as EndOfStream rather than a hard decode failure.
func IsEndOfStream(err error) bool {
	return errors.Is(err, ErrEndOfStream) || errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF)
}
