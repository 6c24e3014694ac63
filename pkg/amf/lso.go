package amf

import (
	"fmt"
	"os"
)

// SOL header constants (§6 External Interfaces, LSO byte layout).
var (
	solHeaderVersion   = []byte{0x00, 0xBF}
	solHeaderSignature = []byte{'T', 'C', 'S', 'O', 0x00, 0x04, 0x00, 0x00, 0x00, 0x00}
	solPaddingByte     = byte(0x00)
)

// SOLEncoding selects which AMF version a SOL's values are written in and
// read back with, per §4.6's 1-byte encoding selector (AMF0=0, AMF3=3).
type SOLEncoding byte

const (
	SOLEncodingAMF0 SOLEncoding = 0
	SOLEncodingAMF3 SOLEncoding = 3
)

// SOL is a Local Shared Object: a named root plus an ordered set of
// name/value pairs, mirroring miniamf.sol.SOL.
type SOL struct {
	Name     string
	Encoding SOLEncoding
	keys     []string
	values   map[string]any
}

// NewSOL creates an empty SOL rooted at name, defaulting to AMF0 encoding
// (mirroring sol.py's encode(..., encoding=miniamf.AMF0) default).
func NewSOL(name string) *SOL {
	return &SOL{Name: name, Encoding: SOLEncodingAMF0, values: make(map[string]any)}
}

func (s *SOL) Set(key string, value any) {
	if _, ok := s.values[key]; !ok {
		s.keys = append(s.keys, key)
	}
	s.values[key] = value
}

func (s *SOL) Get(key string) (any, bool) {
	v, ok := s.values[key]
	return v, ok
}

func (s *SOL) Keys() []string { return s.keys }

// EncodeSOL produces a SharedObject-encoded byte stream for sol, per the
// LSO byte layout: version, a reserve-then-patch length, signature, root
// name, 3 padding bytes, an encoding-selector byte, then each name/value
// pair followed by a single padding byte.
func EncodeSOL(sol *SOL, opts CodecOptions) ([]byte, error) {
	s := NewByteStream(nil)

	if _, err := s.Write(solHeaderVersion); err != nil {
		return nil, err
	}
	lengthPos := s.Len()
	if err := s.WriteU32(0); err != nil {
		return nil, err
	}
	if _, err := s.Write(solHeaderSignature); err != nil {
		return nil, err
	}

	nameBytes := []byte(sol.Name)
	if err := s.WriteU16(uint16(len(nameBytes))); err != nil {
		return nil, err
	}
	if _, err := s.Write(nameBytes); err != nil {
		return nil, err
	}
	if _, err := s.Write([]byte{solPaddingByte, solPaddingByte, solPaddingByte}); err != nil {
		return nil, err
	}
	switch sol.Encoding {
	case SOLEncodingAMF0, SOLEncodingAMF3:
		// fine
	default:
		return nil, fmt.Errorf("%w: unsupported SOL encoding selector %d", ErrEncode, sol.Encoding)
	}
	if err := s.WriteU8(byte(sol.Encoding)); err != nil {
		return nil, err
	}

	ctx := NewContext(opts)
	for _, k := range sol.keys {
		switch sol.Encoding {
		case SOLEncodingAMF3:
			if err := encodeAMF3StringValue(ctx, s, k); err != nil {
				return nil, err
			}
			if err := encodeAMF3(ctx, s, sol.values[k]); err != nil {
				return nil, err
			}
		default:
			if err := writeAMF0StringBody(s, k); err != nil {
				return nil, err
			}
			if err := encodeAMF0(ctx, s, sol.values[k]); err != nil {
				return nil, err
			}
		}
		if err := s.WriteU8(solPaddingByte); err != nil {
			return nil, err
		}
	}

	bodyLength := s.Len() - lengthPos - 4
	lenBytes := []byte{
		byte(bodyLength >> 24), byte(bodyLength >> 16),
		byte(bodyLength >> 8), byte(bodyLength),
	}
	s.AppendAt(lengthPos, lenBytes)

	return s.Bytes(), nil
}

// DecodeSOL parses a SharedObject-encoded byte stream, per the same
// layout EncodeSOL writes. In strict mode, a header length that doesn't
// match the actual remaining bytes, or a non-zero padding byte, is an
// error; otherwise both are tolerated.
func DecodeSOL(data []byte, opts CodecOptions) (*SOL, error) {
	s := NewByteStream(data)

	version, err := s.ReadN(2)
	if err != nil {
		return nil, err
	}
	if string(version) != string(solHeaderVersion) {
		return nil, fmt.Errorf("%w: unknown SOL version in header", ErrDecode)
	}

	length, err := s.ReadU32()
	if err != nil {
		return nil, err
	}
	if opts.Strict && int(length) != s.Remaining() {
		return nil, fmt.Errorf("%w: inconsistent SOL stream header length", ErrDecode)
	}

	signature, err := s.ReadN(10)
	if err != nil {
		return nil, err
	}
	if string(signature) != string(solHeaderSignature) {
		return nil, fmt.Errorf("%w: invalid SOL signature", ErrDecode)
	}

	nameLen, err := s.ReadU16()
	if err != nil {
		return nil, err
	}
	name, err := s.ReadUTF8(int(nameLen))
	if err != nil {
		return nil, err
	}

	padding, err := s.ReadN(3)
	if err != nil {
		return nil, err
	}
	if opts.Strict && (padding[0] != 0 || padding[1] != 0 || padding[2] != 0) {
		return nil, fmt.Errorf("%w: invalid SOL padding", ErrDecode)
	}

	selector, err := s.ReadByte()
	if err != nil {
		return nil, err
	}

	sol := NewSOL(name)
	sol.Encoding = SOLEncoding(selector)
	ctx := NewContext(opts)

	for s.Remaining() > 0 {
		var key string
		var value any
		var err error

		switch sol.Encoding {
		case SOLEncodingAMF3:
			key, err = decodeAMF3StringValue(ctx, s)
			if err != nil {
				return nil, err
			}
			value, err = decodeAMF3(ctx, s)
		case SOLEncodingAMF0:
			key, err = readAMF0StringBody(s)
			if err != nil {
				return nil, err
			}
			value, err = decodeAMF0(ctx, s)
		default:
			return nil, fmt.Errorf("%w: unsupported SOL encoding selector %d", ErrDecode, selector)
		}
		if err != nil {
			return nil, err
		}

		pad, err := s.ReadByte()
		if err != nil {
			return nil, err
		}
		if opts.Strict && pad != solPaddingByte {
			return nil, fmt.Errorf("%w: missing SOL entry padding", ErrDecode)
		}
		sol.Set(key, value)
	}

	return sol, nil
}

// LoadSOL reads and decodes a .sol file from path.
func LoadSOL(path string, opts CodecOptions) (*SOL, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return DecodeSOL(data, opts)
}

// SaveSOL encodes sol and writes it to path.
func SaveSOL(sol *SOL, path string, opts CodecOptions) error {
	data, err := EncodeSOL(sol, opts)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
