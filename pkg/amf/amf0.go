package amf

import (
	"fmt"
	"strconv"
	"time"
)

// AMF0 tag set, one byte each (§4.4).
const (
	amf0Number      = 0x00
	amf0Boolean     = 0x01
	amf0String      = 0x02
	amf0Object      = 0x03
	amf0MovieClip   = 0x04 // unsupported, never produced
	amf0Null        = 0x05
	amf0Undefined   = 0x06
	amf0Reference   = 0x07
	amf0MixedArray  = 0x08
	amf0ObjectEnd   = 0x09
	amf0StrictArray = 0x0A
	amf0Date        = 0x0B
	amf0LongString  = 0x0C
	amf0Unsupported = 0x0D
	amf0RecordSet   = 0x0E // unsupported, never produced
	amf0Xml         = 0x0F
	amf0TypedObject = 0x10
	amf0AVMPlus     = 0x11
)

// AMF0Encoder is the tag-dispatched AMF0 codec writer described in §4.4,
// exposing both a direct EncodeValue call and the push/pull Send/Next
// interface from §4.8.
type AMF0Encoder struct {
	ctx     *Context
	stream  *ByteStream
	pending []any
}

// NewAMF0Encoder creates an encoder with a fresh Context built from opts.
func NewAMF0Encoder(opts CodecOptions) *AMF0Encoder {
	return &AMF0Encoder{ctx: NewContext(opts), stream: NewByteStream(nil)}
}

// NewAMF0EncoderPooled is NewAMF0Encoder for callers encoding many
// short-lived messages (e.g. one RPC body per call): the stream's initial
// backing array is borrowed from the bufpool tier matching sizeHint. The
// caller must Release the returned PooledBuffer once e.Bytes() has been
// consumed.
func NewAMF0EncoderPooled(opts CodecOptions, sizeHint int) (*AMF0Encoder, *PooledBuffer) {
	stream, pb := NewPooledByteStream(sizeHint)
	return &AMF0Encoder{ctx: NewContext(opts), stream: stream}, pb
}

// Bytes returns everything written so far.
func (e *AMF0Encoder) Bytes() []byte { return e.stream.Bytes() }

// Send appends a value to the encoder's pending bucket (§4.8).
func (e *AMF0Encoder) Send(v any) { e.pending = append(e.pending, v) }

// Next pops one pending value, encodes it, and returns the bytes written
// for that value alone. ok is false when the bucket is empty.
func (e *AMF0Encoder) Next() (data []byte, ok bool, err error) {
	if len(e.pending) == 0 {
		return nil, false, nil
	}
	v := e.pending[0]
	e.pending = e.pending[1:]

	start := e.stream.Len()
	if err := e.EncodeValue(v); err != nil {
		return nil, true, err
	}
	return e.stream.Bytes()[start:], true, nil
}

// EncodeValue writes v's AMF0 encoding directly to the stream.
func (e *AMF0Encoder) EncodeValue(v any) error {
	return encodeAMF0(e.ctx, e.stream, v)
}

// EncodeAMF0Sequence encodes a sequence of values with a fresh Context,
// matching the teacher's original top-level helper shape.
func EncodeAMF0Sequence(values ...any) ([]byte, error) {
	enc := NewAMF0Encoder(DefaultOptions())
	for _, v := range values {
		if err := enc.EncodeValue(v); err != nil {
			return nil, err
		}
	}
	return enc.Bytes(), nil
}

func encodeAMF0(ctx *Context, s *ByteStream, v any) error {
	if v == nil {
		return s.WriteU8(amf0Null)
	}

	switch val := v.(type) {
	case undefinedType:
		return s.WriteU8(amf0Undefined)
	case bool:
		if err := s.WriteU8(amf0Boolean); err != nil {
			return err
		}
		if val {
			return s.WriteU8(1)
		}
		return s.WriteU8(0)
	case float64:
		return encodeAMF0Number(s, val)
	case float32:
		return encodeAMF0Number(s, float64(val))
	case int:
		return encodeAMF0Number(s, float64(val))
	case int8:
		return encodeAMF0Number(s, float64(val))
	case int16:
		return encodeAMF0Number(s, float64(val))
	case int32:
		return encodeAMF0Number(s, float64(val))
	case int64:
		return encodeAMF0Number(s, float64(val))
	case uint:
		return encodeAMF0Number(s, float64(val))
	case uint8:
		return encodeAMF0Number(s, float64(val))
	case uint16:
		return encodeAMF0Number(s, float64(val))
	case uint32:
		return encodeAMF0Number(s, float64(val))
	case uint64:
		return encodeAMF0Number(s, float64(val))
	case string:
		return encodeAMF0String(s, val)
	case ByteString:
		return encodeAMF0String(s, string(val))
	case time.Time:
		return encodeAMF0Date(ctx, s, val)
	case XMLDocument:
		return encodeAMF0XML(s, string(val))
	case []any:
		return encodeAMF0Array(ctx, s, val)
	case *MixedArray:
		return encodeAMF0MixedArray(ctx, s, val)
	case *Object:
		return encodeAMF0Object(ctx, s, val)
	case *TypedObject:
		return encodeAMF0TypedObjectValue(ctx, s, val)
	case amf3Switch:
		if err := s.WriteU8(amf0AVMPlus); err != nil {
			return err
		}
		sub := NewAMF3Encoder(ctx.Options)
		if err := sub.EncodeValue(val.Value); err != nil {
			return err
		}
		_, err := s.Write(sub.Bytes())
		return err
	default:
		replacement, matched, err := dispatchCustomType(v)
		if err != nil {
			return err
		}
		if matched {
			return encodeAMF0(ctx, s, replacement)
		}
		return fmt.Errorf("%w: unsupported AMF0 type %T", ErrEncode, v)
	}
}

// amf3Switch wraps a value to force AMF0's Amf3Switch tag (0x11): the
// value is encoded via a nested AMF3 stream rather than AMF0's own tags.
type amf3Switch struct{ Value any }

// AMF3Switch wraps v so it is encoded using AMF0's Amf3Switch tag.
func AMF3Switch(v any) any { return amf3Switch{Value: v} }

func encodeAMF0Number(s *ByteStream, v float64) error {
	if err := s.WriteU8(amf0Number); err != nil {
		return err
	}
	return s.WriteF64(v)
}

func encodeAMF0String(s *ByteStream, v string) error {
	b := []byte(v)
	if len(b) < 65536 {
		if err := s.WriteU8(amf0String); err != nil {
			return err
		}
		if err := s.WriteU16(uint16(len(b))); err != nil {
			return err
		}
		_, err := s.Write(b)
		return err
	}
	if err := s.WriteU8(amf0LongString); err != nil {
		return err
	}
	if err := s.WriteU32(uint32(len(b))); err != nil {
		return err
	}
	_, err := s.Write(b)
	return err
}

// writeAMF0StringBody writes a string's length+bytes without any type tag,
// for object property names and MixedArray keys.
func writeAMF0StringBody(s *ByteStream, v string) error {
	b := []byte(v)
	if len(b) > 65535 {
		return fmt.Errorf("%w: key too long (%d bytes, max 65535)", ErrEncode, len(b))
	}
	if err := s.WriteU16(uint16(len(b))); err != nil {
		return err
	}
	_, err := s.Write(b)
	return err
}

func encodeAMF0Date(ctx *Context, s *ByteStream, t time.Time) error {
	if err := s.WriteU8(amf0Date); err != nil {
		return err
	}
	adjusted := applyTimezoneOffsetEncode(t, ctx.Options.TimezoneOffsetSeconds)
	ms := GetTimestamp(adjusted) * 1000.0
	if err := s.WriteF64(ms); err != nil {
		return err
	}
	return s.WriteI16(0)
}

func encodeAMF0XML(s *ByteStream, v string) error {
	if err := s.WriteU8(amf0Xml); err != nil {
		return err
	}
	b := []byte(v)
	if err := s.WriteU32(uint32(len(b))); err != nil {
		return err
	}
	_, err := s.Write(b)
	return err
}

// encodeAMF0Array writes a StrictArray, emitting a REFERENCE record
// instead of a body for any repeated identity (§8 testable properties:
// "[x, x] produces one object body plus one REFERENCE 0x07 record").
func encodeAMF0Array(ctx *Context, s *ByteStream, arr []any) error {
	if idx := ctx.Objects.GetReference(any(arr)); idx >= 0 {
		if err := s.WriteU8(amf0Reference); err != nil {
			return err
		}
		return s.WriteU16(uint16(idx))
	}
	ctx.Objects.Add(any(arr))

	if err := s.WriteU8(amf0StrictArray); err != nil {
		return err
	}
	if err := s.WriteU32(uint32(len(arr))); err != nil {
		return err
	}
	for _, item := range arr {
		if err := encodeAMF0(ctx, s, item); err != nil {
			return err
		}
	}
	return nil
}

func encodeAMF0MixedArray(ctx *Context, s *ByteStream, m *MixedArray) error {
	if idx := ctx.Objects.GetReference(m); idx >= 0 {
		if err := s.WriteU8(amf0Reference); err != nil {
			return err
		}
		return s.WriteU16(uint16(idx))
	}
	ctx.Objects.Add(m)

	if err := s.WriteU8(amf0MixedArray); err != nil {
		return err
	}
	// associative count: historically ignored on decode, write the
	// number of entries for spec fidelity.
	if err := s.WriteU32(uint32(m.Len())); err != nil {
		return err
	}
	for _, k := range m.keys {
		var name string
		var val any
		if k.IsInt {
			name = fmt.Sprintf("%d", k.Int)
			val, _ = m.GetInt(k.Int)
		} else {
			if k.Str == "" {
				return fmt.Errorf("%w: MixedArray empty-string key is forbidden on encode", ErrEncode)
			}
			name = k.Str
			val, _ = m.GetString(k.Str)
		}
		if err := writeAMF0StringBody(s, name); err != nil {
			return err
		}
		if err := encodeAMF0(ctx, s, val); err != nil {
			return err
		}
	}
	return writeAMF0ObjectEnd(s)
}

func writeAMF0ObjectEnd(s *ByteStream) error {
	if err := writeAMF0StringBody(s, ""); err != nil {
		return err
	}
	return s.WriteU8(amf0ObjectEnd)
}

func encodeAMF0Object(ctx *Context, s *ByteStream, obj *Object) error {
	if idx := ctx.Objects.GetReference(obj); idx >= 0 {
		if err := s.WriteU8(amf0Reference); err != nil {
			return err
		}
		return s.WriteU16(uint16(idx))
	}
	ctx.Objects.Add(obj)

	if obj.Alias != nil && !obj.Alias.Anonymous {
		if err := s.WriteU8(amf0TypedObject); err != nil {
			return err
		}
		if err := writeAMF0StringBody(s, obj.Alias.Name); err != nil {
			return err
		}
	} else {
		if err := s.WriteU8(amf0Object); err != nil {
			return err
		}
	}

	var kvs []KV
	if obj.Alias != nil {
		kvs = obj.Alias.GetEncodableAttributes(obj)
	} else {
		for _, k := range obj.Keys() {
			v, _ := obj.Get(k)
			kvs = append(kvs, KV{Key: k, Value: v})
		}
	}

	for _, kv := range kvs {
		if err := writeAMF0StringBody(s, kv.Key); err != nil {
			return err
		}
		if err := encodeAMF0(ctx, s, kv.Value); err != nil {
			return err
		}
	}
	return writeAMF0ObjectEnd(s)
}

func encodeAMF0TypedObjectValue(ctx *Context, s *ByteStream, t *TypedObject) error {
	if idx := ctx.Objects.GetReference(t); idx >= 0 {
		if err := s.WriteU8(amf0Reference); err != nil {
			return err
		}
		return s.WriteU16(uint16(idx))
	}
	ctx.Objects.Add(t)

	if err := s.WriteU8(amf0TypedObject); err != nil {
		return err
	}
	if err := writeAMF0StringBody(s, t.ClassName); err != nil {
		return err
	}
	for _, k := range t.Keys() {
		v, _ := t.Get(k)
		if err := writeAMF0StringBody(s, k); err != nil {
			return err
		}
		if err := encodeAMF0(ctx, s, v); err != nil {
			return err
		}
	}
	return writeAMF0ObjectEnd(s)
}

// AMF0Decoder is the tag-dispatched AMF0 reader, exposing the push/pull
// Send/Next interface from §4.8.
type AMF0Decoder struct {
	ctx    *Context
	stream *ByteStream
}

// NewAMF0Decoder creates a decoder with a fresh Context built from opts.
func NewAMF0Decoder(opts CodecOptions) *AMF0Decoder {
	return &AMF0Decoder{ctx: NewContext(opts), stream: NewByteStream(nil)}
}

// Send appends bytes to decode.
func (d *AMF0Decoder) Send(data []byte) { d.stream.ConsumePrefix(data) }

// Next decodes the next fully-formed value. On a short read at a value
// boundary, the stream position is restored and ErrEndOfStream is
// returned so the caller can Send more bytes and retry (§4.8).
func (d *AMF0Decoder) Next() (any, error) {
	checkpoint := d.stream.Checkpoint()
	v, err := d.decodeRoot()
	if err != nil {
		if IsEndOfStream(err) {
			_ = d.stream.Seek(checkpoint)
			return nil, ErrEndOfStream
		}
		return nil, err
	}
	return v, nil
}

func (d *AMF0Decoder) decodeRoot() (any, error) {
	d.ctx.enterElement()
	v, err := decodeAMF0(d.ctx, d.stream)
	if err != nil {
		d.ctx.depth--
		return nil, err
	}
	if d.ctx.exitElement() {
		v = runPostDecodeProcessors(v)
	}
	return v, nil
}

// DecodeAMF0Sequence decodes every value in data with a fresh Context.
func DecodeAMF0Sequence(data []byte) ([]any, error) {
	dec := NewAMF0Decoder(DefaultOptions())
	dec.Send(data)

	var out []any
	for dec.stream.Remaining() > 0 {
		v, err := dec.decodeRoot()
		if err != nil {
			return out, err
		}
		out = append(out, v)
	}
	return out, nil
}

func decodeAMF0(ctx *Context, s *ByteStream) (any, error) {
	marker, err := s.ReadByte()
	if err != nil {
		return nil, err
	}

	switch marker {
	case amf0Number:
		return s.ReadF64()
	case amf0Boolean:
		b, err := s.ReadByte()
		return b != 0, err
	case amf0String:
		n, err := s.ReadU16()
		if err != nil {
			return nil, err
		}
		return s.ReadUTF8(int(n))
	case amf0Object:
		return decodeAMF0ObjectBody(ctx, s, "")
	case amf0MovieClip:
		return nil, fmt.Errorf("%w: MovieClip is not supported", ErrDecode)
	case amf0Null:
		return nil, nil
	case amf0Undefined:
		return Undefined, nil
	case amf0Reference:
		idx, err := s.ReadU16()
		if err != nil {
			return nil, err
		}
		v, ok := ctx.Objects.At(int(idx))
		if !ok {
			return nil, fmt.Errorf("%w: reference index %d not populated", ErrReference, idx)
		}
		return v, nil
	case amf0MixedArray:
		if _, err := s.ReadU32(); err != nil { // associative count, ignored
			return nil, err
		}
		return decodeAMF0MixedArrayBody(ctx, s)
	case amf0StrictArray:
		count, err := s.ReadU32()
		if err != nil {
			return nil, err
		}
		return decodeAMF0ArrayBody(ctx, s, int(count))
	case amf0Date:
		ms, err := s.ReadF64()
		if err != nil {
			return nil, err
		}
		if _, err := s.ReadI16(); err != nil { // timezone, historically ignored on decode
			return nil, err
		}
		t := GetDatetime(ms / 1000.0)
		return applyTimezoneOffsetDecode(t, ctx.Options.TimezoneOffsetSeconds), nil
	case amf0LongString:
		n, err := s.ReadU32()
		if err != nil {
			return nil, err
		}
		return s.ReadUTF8(int(n))
	case amf0Unsupported:
		return Undefined, nil
	case amf0Xml:
		n, err := s.ReadU32()
		if err != nil {
			return nil, err
		}
		str, err := s.ReadUTF8(int(n))
		return XMLDocument(str), err
	case amf0TypedObject:
		nameLen, err := s.ReadU16()
		if err != nil {
			return nil, err
		}
		className, err := s.ReadUTF8(int(nameLen))
		if err != nil {
			return nil, err
		}
		return decodeAMF0ObjectBody(ctx, s, className)
	case amf0AVMPlus:
		subCtx := NewContext(ctx.Options)
		return decodeAMF3(subCtx, s)
	default:
		return nil, fmt.Errorf("%w: unsupported AMF0 marker 0x%02x", ErrDecode, marker)
	}
}

func readAMF0StringBody(s *ByteStream) (string, error) {
	n, err := s.ReadU16()
	if err != nil {
		return "", err
	}
	return s.ReadUTF8(int(n))
}

func decodeAMF0ObjectBody(ctx *Context, s *ByteStream, className string) (any, error) {
	var alias *ClassAlias
	var obj any
	var iface interface {
		Set(string, any)
		Keys() []string
	}

	if className == "" {
		o := NewObject()
		obj, iface = o, o
	} else {
		a, err := GetClassAliasByName(className)
		if err != nil {
			if ctx.Options.Strict {
				return nil, err
			}
			t := NewTypedObject(className)
			obj, iface = t, t
		} else {
			alias = a
			instance := alias.CreateInstance()
			obj = instance
		}
	}

	ctx.Objects.Add(obj)

	attrs := make(map[string]any)
	for {
		key, err := readAMF0StringBody(s)
		if err != nil {
			return nil, err
		}
		if key == "" {
			end, err := s.ReadByte()
			if err != nil {
				return nil, err
			}
			if end != amf0ObjectEnd {
				return nil, fmt.Errorf("%w: expected object-end marker", ErrDecode)
			}
			break
		}
		val, err := decodeAMF0(ctx, s)
		if err != nil {
			return nil, err
		}
		if iface != nil {
			iface.Set(key, val)
		} else {
			attrs[key] = val
		}
	}

	if alias != nil {
		filtered, err := alias.GetDecodableAttributes(attrs)
		if err != nil {
			return nil, err
		}
		if err := ApplyAttributes(obj, filtered); err != nil {
			return nil, err
		}
	}

	return obj, nil
}

func decodeAMF0ArrayBody(ctx *Context, s *ByteStream, count int) (any, error) {
	arr := make([]any, count)
	ctx.Objects.Add(any(arr))
	for i := 0; i < count; i++ {
		v, err := decodeAMF0(ctx, s)
		if err != nil {
			return nil, err
		}
		arr[i] = v
	}
	return arr, nil
}

func decodeAMF0MixedArrayBody(ctx *Context, s *ByteStream) (any, error) {
	m := NewMixedArray()
	ctx.Objects.Add(m)
	for {
		key, err := readAMF0StringBody(s)
		if err != nil {
			return nil, err
		}
		if key == "" {
			end, err := s.ReadByte()
			if err != nil {
				return nil, err
			}
			if end != amf0ObjectEnd {
				return nil, fmt.Errorf("%w: expected object-end marker", ErrDecode)
			}
			break
		}
		val, err := decodeAMF0(ctx, s)
		if err != nil {
			return nil, err
		}
		if n, err := strconv.ParseInt(key, 10, 64); err == nil {
			m.SetInt(n, val)
		} else {
			m.SetString(key, val)
		}
	}
	return m, nil
}
