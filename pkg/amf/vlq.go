package amf

import (
	"fmt"
	"sync"
)

// U29 is AMF3's variable-length signed 29-bit integer encoding: 1-4 bytes,
// 7 payload bits in each of the first up to three bytes (high bit set as a
// continuation flag), and a full 8 payload bits in the optional fourth
// byte (7+7+7+8 = 29 bits total).

const (
	min29BitInt int32 = -0x10000000
	max29BitInt int32 = 0x0FFFFFFF
)

var u29CacheMu sync.Mutex
var u29Cache = make(map[int32][]byte)

// EncodeU29 encodes n, which must be in [-2^28, 2^28-1], into 1-4 bytes.
// Negative inputs are pre-biased by adding 2^29 before the bit-layout
// below is applied, matching AMF3's two's-complement-like 29-bit wrap.
func EncodeU29(n int32) ([]byte, error) {
	if n < min29BitInt || n > max29BitInt {
		return nil, fmt.Errorf("%w: %d out of 29-bit signed range", ErrOverflow, n)
	}

	u29CacheMu.Lock()
	if cached, ok := u29Cache[n]; ok {
		u29CacheMu.Unlock()
		return cached, nil
	}
	u29CacheMu.Unlock()

	uv := uint32(n)
	if n < 0 {
		uv = uint32(n + 0x20000000)
	}

	var buf []byte
	switch {
	case uv <= 0x7F:
		buf = []byte{byte(uv)}
	case uv <= 0x3FFF:
		buf = []byte{
			0x80 | byte(uv>>7),
			byte(uv & 0x7F),
		}
	case uv <= 0x1FFFFF:
		buf = []byte{
			0x80 | byte(uv>>14),
			0x80 | byte((uv>>7)&0x7F),
			byte(uv & 0x7F),
		}
	default:
		buf = []byte{
			0x80 | byte((uv>>22)&0x7F),
			0x80 | byte((uv>>15)&0x7F),
			0x80 | byte((uv>>8)&0x7F),
			byte(uv),
		}
	}

	u29CacheMu.Lock()
	u29Cache[n] = buf
	u29CacheMu.Unlock()

	return buf, nil
}

// EncodeU29Unsigned is EncodeU29 for callers that already hold a
// nonnegative header value (reference indices, string/array lengths) and
// never need the negative-bias path.
func EncodeU29Unsigned(n uint32) ([]byte, error) {
	switch {
	case n <= 0x7F:
		return []byte{byte(n)}, nil
	case n <= 0x3FFF:
		return []byte{0x80 | byte(n>>7), byte(n & 0x7F)}, nil
	case n <= 0x1FFFFF:
		return []byte{
			0x80 | byte(n>>14),
			0x80 | byte((n>>7)&0x7F),
			byte(n & 0x7F),
		}, nil
	case n <= 0x3FFFFFFF:
		return []byte{
			0x80 | byte((n>>22)&0x7F),
			0x80 | byte((n>>15)&0x7F),
			0x80 | byte((n>>8)&0x7F),
			byte(n),
		}, nil
	default:
		return nil, fmt.Errorf("%w: %d exceeds U29 unsigned range", ErrOverflow, n)
	}
}

// byteSource is the minimal read surface DecodeU29 needs; ByteStream
// satisfies it, and so does anything with a ReadByte method.
type byteSource interface {
	ReadByte() (byte, error)
}

// decodeU29Raw reads up to four bytes and returns the raw accumulated value
// together with the number of continuation bytes consumed (0-3), so
// callers can apply either the signed or the "reference" decoding rule
// from §4.1.
func decodeU29Raw(r byteSource) (value uint32, continuationBytes int, err error) {
	var result uint32
	for i := 0; i < 3; i++ {
		b, e := r.ReadByte()
		if e != nil {
			return 0, 0, e
		}
		if b&0x80 == 0 {
			result = (result << 7) | uint32(b)
			return result, i, nil
		}
		result = (result << 7) | uint32(b&0x7F)
	}
	b, e := r.ReadByte()
	if e != nil {
		return 0, 0, e
	}
	result = (result << 8) | uint32(b)
	return result, 3, nil
}

// DecodeU29 reads a signed U29: if all three continuation bytes were
// consumed and bit 28 is set, the result is sign-extended by subtracting
// 2^29.
func DecodeU29(r byteSource) (int32, error) {
	raw, cont, err := decodeU29Raw(r)
	if err != nil {
		return 0, err
	}
	if cont == 3 && raw&0x10000000 != 0 {
		return int32(raw - 0x20000000), nil
	}
	return int32(raw), nil
}

// DecodeU29Unsigned reads a U29 under the "reference" decoding rule used
// for lengths and trait/reference headers: when all three continuation
// bytes were consumed and bit 28 is set, instead of sign-extending, the
// result is shifted left by one bit and incremented (the upstream
// specification's documented quirk for this encoding mode).
func DecodeU29Unsigned(r byteSource) (uint32, error) {
	raw, cont, err := decodeU29Raw(r)
	if err != nil {
		return 0, err
	}
	if cont == 3 && raw&0x10000000 != 0 {
		return (raw << 1) + 1, nil
	}
	return raw, nil
}
