package amf

import (
	"bytes"
	"fmt"
	"sort"
	"time"

	"github.com/klauspost/compress/zlib"
)

// AMF3 tag set, one byte each (§4.5).
const (
	amf3Undefined   = 0x00
	amf3Null        = 0x01
	amf3False       = 0x02
	amf3True        = 0x03
	amf3Integer     = 0x04
	amf3Double      = 0x05
	amf3String      = 0x06
	amf3XMLDocument = 0x07
	amf3Date        = 0x08
	amf3Array       = 0x09
	amf3Object      = 0x0A
	amf3XML         = 0x0B
	amf3ByteArray   = 0x0C
)

// Externalizable is implemented by host types whose AMF3 Object body is
// entirely custom: the generic trait-based reader/writer is skipped, and
// ReadExternal/WriteExternal are handed a view of the stream sharing the
// current Context (§4.3, §9 "Externalizable callback").
type Externalizable interface {
	WriteExternal(w *ByteStream, ctx *Context) error
	ReadExternal(r *ByteStream, ctx *Context) error
}

// AMF3Encoder is the tag-dispatched AMF3 codec writer (§4.5), exposing
// both EncodeValue and the push/pull Send/Next interface (§4.8).
type AMF3Encoder struct {
	ctx     *Context
	stream  *ByteStream
	pending []any
}

// NewAMF3Encoder creates an encoder with a fresh Context built from opts.
func NewAMF3Encoder(opts CodecOptions) *AMF3Encoder {
	return &AMF3Encoder{ctx: NewContext(opts), stream: NewByteStream(nil)}
}

// NewAMF3EncoderPooled is NewAMF3Encoder backed by a pooled buffer; see
// NewAMF0EncoderPooled.
func NewAMF3EncoderPooled(opts CodecOptions, sizeHint int) (*AMF3Encoder, *PooledBuffer) {
	stream, pb := NewPooledByteStream(sizeHint)
	return &AMF3Encoder{ctx: NewContext(opts), stream: stream}, pb
}

func (e *AMF3Encoder) Bytes() []byte { return e.stream.Bytes() }

func (e *AMF3Encoder) Send(v any) { e.pending = append(e.pending, v) }

func (e *AMF3Encoder) Next() (data []byte, ok bool, err error) {
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

func (e *AMF3Encoder) EncodeValue(v any) error {
	return encodeAMF3(e.ctx, e.stream, v)
}

// EncodeAMF3Sequence encodes a sequence of values with a fresh Context.
func EncodeAMF3Sequence(values ...any) ([]byte, error) {
	enc := NewAMF3Encoder(DefaultOptions())
	for _, v := range values {
		if err := enc.EncodeValue(v); err != nil {
			return nil, err
		}
	}
	return enc.Bytes(), nil
}

func writeU29Header(s *ByteStream, n uint32) error {
	b, err := EncodeU29Unsigned(n)
	if err != nil {
		return err
	}
	_, err = s.Write(b)
	return err
}

func encodeAMF3(ctx *Context, s *ByteStream, v any) error {
	if v == nil {
		return s.WriteU8(amf3Null)
	}

	switch val := v.(type) {
	case undefinedType:
		return s.WriteU8(amf3Undefined)
	case bool:
		if val {
			return s.WriteU8(amf3True)
		}
		return s.WriteU8(amf3False)
	case int:
		return encodeAMF3Integer(s, int64(val))
	case int8:
		return encodeAMF3Integer(s, int64(val))
	case int16:
		return encodeAMF3Integer(s, int64(val))
	case int32:
		return encodeAMF3Integer(s, int64(val))
	case int64:
		return encodeAMF3Integer(s, val)
	case uint:
		return encodeAMF3Integer(s, int64(val))
	case uint8:
		return encodeAMF3Integer(s, int64(val))
	case uint16:
		return encodeAMF3Integer(s, int64(val))
	case uint32:
		return encodeAMF3Integer(s, int64(val))
	case uint64:
		return encodeAMF3Double(s, float64(val))
	case float32:
		return encodeAMF3Double(s, float64(val))
	case float64:
		return encodeAMF3Double(s, val)
	case string:
		if err := s.WriteU8(amf3String); err != nil {
			return err
		}
		return encodeAMF3StringValue(ctx, s, val)
	case ByteString:
		if err := s.WriteU8(amf3String); err != nil {
			return err
		}
		return encodeAMF3StringValue(ctx, s, string(val))
	case time.Time:
		return encodeAMF3Date(ctx, s, val)
	case []any:
		return encodeAMF3Array(ctx, s, val)
	case *MixedArray:
		return encodeAMF3MixedArray(ctx, s, val)
	case *Object:
		return encodeAMF3Object(ctx, s, val)
	case *TypedObject:
		return encodeAMF3TypedObject(ctx, s, val)
	case XMLDocument:
		return encodeAMF3XMLLike(ctx, s, amf3XMLDocument, string(val))
	case XMLString:
		return encodeAMF3XMLLike(ctx, s, amf3XML, string(val))
	case *ByteArray:
		return encodeAMF3ByteArray(ctx, s, val)
	default:
		replacement, matched, err := dispatchCustomType(v)
		if err != nil {
			return err
		}
		if matched {
			return encodeAMF3(ctx, s, replacement)
		}
		return fmt.Errorf("%w: unsupported AMF3 type %T", ErrEncode, v)
	}
}

// encodeAMF3Integer promotes values outside [-2^28, 2^28-1] to Double,
// per §4.5's "Integer" rule.
func encodeAMF3Integer(s *ByteStream, v int64) error {
	if v < int64(min29BitInt) || v > int64(max29BitInt) {
		return encodeAMF3Double(s, float64(v))
	}
	if err := s.WriteU8(amf3Integer); err != nil {
		return err
	}
	b, err := EncodeU29(int32(v))
	if err != nil {
		return err
	}
	_, err = s.Write(b)
	return err
}

func encodeAMF3Double(s *ByteStream, v float64) error {
	if err := s.WriteU8(amf3Double); err != nil {
		return err
	}
	return s.WriteF64(v)
}

// encodeAMF3StringValue writes the U29-headered payload for a string,
// consulting the string reference table. The empty string is always
// inline length-0 and never a reference (§4.2, §4.5).
func encodeAMF3StringValue(ctx *Context, s *ByteStream, v string) error {
	if v == "" {
		return writeU29Header(s, 1)
	}
	if !ctx.Options.DisableStringReferences {
		if idx := ctx.Strings.GetReference(v); idx >= 0 {
			return writeU29Header(s, uint32(idx)<<1)
		}
		ctx.Strings.Add(v)
	}
	if err := writeU29Header(s, uint32(len(v))<<1|1); err != nil {
		return err
	}
	return s.WriteUTF8(v)
}

func encodeAMF3Date(ctx *Context, s *ByteStream, t time.Time) error {
	if err := s.WriteU8(amf3Date); err != nil {
		return err
	}
	if idx := ctx.Objects.GetReference(boxTime(t)); idx >= 0 {
		return writeU29Header(s, uint32(idx)<<1)
	}
	ctx.Objects.Add(boxTime(t))

	if err := writeU29Header(s, 1); err != nil {
		return err
	}
	adjusted := applyTimezoneOffsetEncode(t, ctx.Options.TimezoneOffsetSeconds)
	return s.WriteF64(GetTimestamp(adjusted) * 1000.0)
}

// boxTime wraps a time.Time in a freshly allocated pointer so it can sit in
// the object reference table. Each call allocates anew, so under the
// default pointer-identity mode a Date never matches an earlier entry and
// is always written inline; only StructuralObjectHash mode detects a
// repeated Date on encode.
func boxTime(t time.Time) *time.Time {
	return &t
}

func encodeAMF3Array(ctx *Context, s *ByteStream, arr []any) error {
	if err := s.WriteU8(amf3Array); err != nil {
		return err
	}
	if idx := ctx.Objects.GetReference(any(arr)); idx >= 0 {
		return writeU29Header(s, uint32(idx)<<1)
	}
	ctx.Objects.Add(any(arr))

	if err := writeU29Header(s, uint32(len(arr))<<1|1); err != nil {
		return err
	}
	if err := encodeAMF3StringValue(ctx, s, ""); err != nil { // end of associative part
		return err
	}
	for _, item := range arr {
		if err := encodeAMF3(ctx, s, item); err != nil {
			return err
		}
	}
	return nil
}

// encodeAMF3MixedArray implements the dict encoding rule from §3: integer
// keys must form a dense 0-based prefix; anything outside that prefix
// (including any negative key or a non-dense gap) is demoted to a string
// key before the associative part is written, then a 0x01 terminator,
// then the dense integer part's values in order.
func encodeAMF3MixedArray(ctx *Context, s *ByteStream, m *MixedArray) error {
	if err := s.WriteU8(amf3Array); err != nil {
		return err
	}
	if idx := ctx.Objects.GetReference(m); idx >= 0 {
		return writeU29Header(s, uint32(idx)<<1)
	}
	ctx.Objects.Add(m)

	intKeys := append([]int64{}, m.IntKeys()...)
	sort.Slice(intKeys, func(i, j int) bool { return intKeys[i] < intKeys[j] })

	denseLen := 0
	for denseLen < len(intKeys) && intKeys[denseLen] == int64(denseLen) {
		denseLen++
	}
	if len(intKeys) > 0 && intKeys[0] != 0 {
		denseLen = 0
	}

	dense := intKeys[:denseLen]
	demoted := intKeys[denseLen:]

	type strPair struct {
		key string
		val any
	}
	var strPairs []strPair
	for _, k := range m.StringKeys() {
		if k == "" {
			return fmt.Errorf("%w: MixedArray empty-string key is forbidden on encode", ErrEncode)
		}
		v, _ := m.GetString(k)
		strPairs = append(strPairs, strPair{k, v})
	}
	for _, k := range demoted {
		v, _ := m.GetInt(k)
		strPairs = append(strPairs, strPair{fmt.Sprintf("%d", k), v})
	}
	sort.Slice(strPairs, func(i, j int) bool { return strPairs[i].key < strPairs[j].key })

	if err := writeU29Header(s, uint32(len(dense))<<1|1); err != nil {
		return err
	}
	for _, p := range strPairs {
		if err := encodeAMF3StringValue(ctx, s, p.key); err != nil {
			return err
		}
		if err := encodeAMF3(ctx, s, p.val); err != nil {
			return err
		}
	}
	if err := encodeAMF3StringValue(ctx, s, ""); err != nil {
		return err
	}
	for _, k := range dense {
		v, _ := m.GetInt(k)
		if err := encodeAMF3(ctx, s, v); err != nil {
			return err
		}
	}
	return nil
}

func encodeAMF3XMLLike(ctx *Context, s *ByteStream, tag byte, v string) error {
	if err := s.WriteU8(tag); err != nil {
		return err
	}
	if idx := ctx.Objects.GetReference(v); idx >= 0 {
		return writeU29Header(s, uint32(idx)<<1)
	}
	ctx.Objects.Add(v)
	if err := writeU29Header(s, uint32(len(v))<<1|1); err != nil {
		return err
	}
	return s.WriteUTF8(v)
}

// encodeAMF3ByteArray writes the opaque-bytes tag. If Compressed is set,
// the bytes are zlib-deflated and the historical byte-2 rewrite
// (0x9C -> 0xDA) is applied for wire compatibility with the upstream
// implementation's "hacked" quirk (§9 Open Question b).
func encodeAMF3ByteArray(ctx *Context, s *ByteStream, ba *ByteArray) error {
	if err := s.WriteU8(amf3ByteArray); err != nil {
		return err
	}
	if idx := ctx.Objects.GetReference(ba); idx >= 0 {
		return writeU29Header(s, uint32(idx)<<1)
	}
	ctx.Objects.Add(ba)

	payload := ba.Data
	if ba.Compressed {
		var buf bytes.Buffer
		zw := zlib.NewWriter(&buf)
		if _, err := zw.Write(ba.Data); err != nil {
			return err
		}
		if err := zw.Close(); err != nil {
			return err
		}
		compressed := buf.Bytes()
		if len(compressed) >= 2 {
			compressed[1] = 0xDA
		}
		payload = compressed
	}

	if err := writeU29Header(s, uint32(len(payload))<<1|1); err != nil {
		return err
	}
	_, err := s.Write(payload)
	return err
}

// buildClassDefinition derives the wire encoding mode for alias, mirroring
// the writer side of §4.5's Object description.
func buildClassDefinition(alias *ClassAlias) *ClassDefinition {
	alias.compile()
	def := &ClassDefinition{Alias: alias, Attrs: alias.StaticAttrs}
	switch {
	case alias.External:
		def.Encoding = encodingExternal
	case !alias.resolvedDynamic && len(alias.nonStaticEncodable) == 0:
		def.Encoding = encodingStatic
	default:
		def.Encoding = encodingDynamic
	}
	return def
}

func encodeAMF3Object(ctx *Context, s *ByteStream, obj *Object) error {
	if err := s.WriteU8(amf3Object); err != nil {
		return err
	}
	if idx := ctx.Objects.GetReference(obj); idx >= 0 {
		return writeU29Header(s, uint32(idx)<<1)
	}
	ctx.Objects.Add(obj)

	alias := obj.Alias
	if alias == nil {
		return writeAMF3AnonymousObjectBody(ctx, s, obj)
	}

	def := buildClassDefinition(alias)

	if classIdx := ctx.Classes.GetReference(alias); classIdx >= 0 {
		if err := writeU29Header(s, uint32(classIdx)<<2|1); err != nil {
			return err
		}
	} else {
		ctx.Classes.Add(def)

		header := uint32(len(def.Attrs))<<4 | uint32(def.Encoding)<<2 | 0x03
		if err := writeU29Header(s, header); err != nil {
			return err
		}
		if err := encodeAMF3StringValue(ctx, s, alias.Name); err != nil {
			return err
		}
		if def.Encoding != encodingExternal {
			for _, name := range def.Attrs {
				if err := encodeAMF3StringValue(ctx, s, name); err != nil {
					return err
				}
			}
		}
	}

	if def.Encoding == encodingExternal {
		ext, ok := any(obj).(Externalizable)
		if !ok {
			return fmt.Errorf("%w: %q is externalizable but does not implement Externalizable", ErrEncode, alias.Name)
		}
		return ext.WriteExternal(s, ctx)
	}

	kvs := alias.GetEncodableAttributes(obj)
	nStatic := len(def.Attrs)
	if nStatic > len(kvs) {
		nStatic = len(kvs)
	}
	for i := 0; i < nStatic; i++ {
		if err := encodeAMF3(ctx, s, kvs[i].Value); err != nil {
			return err
		}
	}
	if def.Encoding != encodingDynamic {
		return nil
	}

	for _, kv := range kvs[nStatic:] {
		if err := encodeAMF3StringValue(ctx, s, kv.Key); err != nil {
			return err
		}
		if err := encodeAMF3(ctx, s, kv.Value); err != nil {
			return err
		}
	}
	return encodeAMF3StringValue(ctx, s, "")
}

func writeAMF3AnonymousObjectBody(ctx *Context, s *ByteStream, obj *Object) error {
	// An anonymous object has no compiled trait to cache: always a fresh
	// inline-dynamic trait descriptor, attr_len 0.
	header := uint32(0)<<4 | uint32(encodingDynamic)<<2 | 0x03
	if err := writeU29Header(s, header); err != nil {
		return err
	}
	if err := encodeAMF3StringValue(ctx, s, ""); err != nil {
		return err
	}
	for _, k := range obj.Keys() {
		v, _ := obj.Get(k)
		if err := encodeAMF3StringValue(ctx, s, k); err != nil {
			return err
		}
		if err := encodeAMF3(ctx, s, v); err != nil {
			return err
		}
	}
	return encodeAMF3StringValue(ctx, s, "")
}

func encodeAMF3TypedObject(ctx *Context, s *ByteStream, t *TypedObject) error {
	if err := s.WriteU8(amf3Object); err != nil {
		return err
	}
	if idx := ctx.Objects.GetReference(t); idx >= 0 {
		return writeU29Header(s, uint32(idx)<<1)
	}
	ctx.Objects.Add(t)

	header := uint32(0)<<4 | uint32(encodingDynamic)<<2 | 0x03
	if err := writeU29Header(s, header); err != nil {
		return err
	}
	if err := encodeAMF3StringValue(ctx, s, t.ClassName); err != nil {
		return err
	}
	for _, k := range t.Keys() {
		v, _ := t.Get(k)
		if err := encodeAMF3StringValue(ctx, s, k); err != nil {
			return err
		}
		if err := encodeAMF3(ctx, s, v); err != nil {
			return err
		}
	}
	return encodeAMF3StringValue(ctx, s, "")
}

// AMF3Decoder is the tag-dispatched AMF3 reader, exposing the push/pull
// Send/Next interface from §4.8.
type AMF3Decoder struct {
	ctx    *Context
	stream *ByteStream
}

// NewAMF3Decoder creates a decoder with a fresh Context built from opts.
func NewAMF3Decoder(opts CodecOptions) *AMF3Decoder {
	return &AMF3Decoder{ctx: NewContext(opts), stream: NewByteStream(nil)}
}

func (d *AMF3Decoder) Send(data []byte) { d.stream.ConsumePrefix(data) }

func (d *AMF3Decoder) Next() (any, error) {
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

func (d *AMF3Decoder) decodeRoot() (any, error) {
	d.ctx.enterElement()
	v, err := decodeAMF3(d.ctx, d.stream)
	if err != nil {
		d.ctx.depth--
		return nil, err
	}
	if d.ctx.exitElement() {
		v = runPostDecodeProcessors(v)
	}
	return v, nil
}

// DecodeAMF3Sequence decodes every value in data with a fresh Context.
func DecodeAMF3Sequence(data []byte) ([]any, error) {
	dec := NewAMF3Decoder(DefaultOptions())
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

func decodeAMF3(ctx *Context, s *ByteStream) (any, error) {
	marker, err := s.ReadByte()
	if err != nil {
		return nil, err
	}

	switch marker {
	case amf3Undefined:
		return Undefined, nil
	case amf3Null:
		return nil, nil
	case amf3False:
		return false, nil
	case amf3True:
		return true, nil
	case amf3Integer:
		v, err := DecodeU29(s)
		return int64(v), err
	case amf3Double:
		return s.ReadF64()
	case amf3String:
		return decodeAMF3StringValue(ctx, s)
	case amf3XMLDocument:
		str, err := decodeAMF3XMLLike(ctx, s)
		return XMLDocument(str), err
	case amf3Date:
		return decodeAMF3Date(ctx, s)
	case amf3Array:
		return decodeAMF3Array(ctx, s)
	case amf3Object:
		return decodeAMF3Object(ctx, s)
	case amf3XML:
		str, err := decodeAMF3XMLLike(ctx, s)
		return XMLString(str), err
	case amf3ByteArray:
		return decodeAMF3ByteArray(ctx, s)
	default:
		return nil, fmt.Errorf("%w: unsupported AMF3 marker 0x%02x", ErrDecode, marker)
	}
}

func decodeAMF3StringValue(ctx *Context, s *ByteStream) (string, error) {
	header, err := DecodeU29Unsigned(s)
	if err != nil {
		return "", err
	}
	if header&1 == 0 {
		idx := int(header >> 1)
		str, ok := ctx.Strings.At(idx)
		if !ok {
			return "", fmt.Errorf("%w: string reference %d not populated", ErrReference, idx)
		}
		return str, nil
	}
	length := int(header >> 1)
	if length == 0 {
		return "", nil
	}
	b, err := s.ReadN(length)
	if err != nil {
		return "", err
	}
	str := string(b)
	ctx.Strings.Add(str)
	return str, nil
}

func decodeAMF3Date(ctx *Context, s *ByteStream) (any, error) {
	header, err := DecodeU29Unsigned(s)
	if err != nil {
		return nil, err
	}
	if header&1 == 0 {
		idx := int(header >> 1)
		v, ok := ctx.Objects.At(idx)
		if !ok {
			return nil, fmt.Errorf("%w: date reference %d not populated", ErrReference, idx)
		}
		t, ok := v.(*time.Time)
		if !ok {
			return nil, fmt.Errorf("%w: reference %d is not a date", ErrDecode, idx)
		}
		return *t, nil
	}
	ms, err := s.ReadF64()
	if err != nil {
		return nil, err
	}
	t := GetDatetime(ms / 1000.0)
	t = applyTimezoneOffsetDecode(t, ctx.Options.TimezoneOffsetSeconds)
	ctx.Objects.Add(boxTime(t))
	return t, nil
}

func decodeAMF3Array(ctx *Context, s *ByteStream) (any, error) {
	header, err := DecodeU29Unsigned(s)
	if err != nil {
		return nil, err
	}
	if header&1 == 0 {
		idx := int(header >> 1)
		v, ok := ctx.Objects.At(idx)
		if !ok {
			return nil, fmt.Errorf("%w: array reference %d not populated", ErrReference, idx)
		}
		return v, nil
	}
	denseLen := int(header >> 1)

	// An array with only a dense part has an immediate empty-string
	// terminator for the associative part; peek that first key to decide
	// the shape before registering a reference, matching readArray in
	// original_source/miniamf/amf3.py:869-893.
	key, err := decodeAMF3StringValue(ctx, s)
	if err != nil {
		return nil, err
	}

	if key == "" {
		arr := make([]any, denseLen)
		ctx.Objects.Add(any(arr))
		for i := 0; i < denseLen; i++ {
			v, err := decodeAMF3(ctx, s)
			if err != nil {
				return nil, err
			}
			arr[i] = v
		}
		return arr, nil
	}

	// The reference must be registered before any entry is decoded, so a
	// self-referential array (one of its own values pointing back at it)
	// resolves correctly instead of hitting an unpopulated reference.
	assoc := NewMixedArray()
	ctx.Objects.Add(assoc)

	for key != "" {
		val, err := decodeAMF3(ctx, s)
		if err != nil {
			return nil, err
		}
		assoc.SetString(key, val)

		key, err = decodeAMF3StringValue(ctx, s)
		if err != nil {
			return nil, err
		}
	}

	for i := 0; i < denseLen; i++ {
		val, err := decodeAMF3(ctx, s)
		if err != nil {
			return nil, err
		}
		assoc.SetInt(int64(i), val)
	}
	return assoc, nil
}

func decodeAMF3XMLLike(ctx *Context, s *ByteStream) (string, error) {
	header, err := DecodeU29Unsigned(s)
	if err != nil {
		return "", err
	}
	if header&1 == 0 {
		idx := int(header >> 1)
		v, ok := ctx.Objects.At(idx)
		if !ok {
			return "", fmt.Errorf("%w: xml reference %d not populated", ErrReference, idx)
		}
		str, _ := v.(string)
		return str, nil
	}
	length := int(header >> 1)
	b, err := s.ReadN(length)
	if err != nil {
		return "", err
	}
	str := string(b)
	ctx.Objects.Add(str)
	return str, nil
}

// zlibDefaultHeader is the 2-byte zlib header written for the default
// compression level, used to detect a compressed ByteArray on decode.
var zlibDefaultHeader = []byte{0x78, 0x9C}

func decodeAMF3ByteArray(ctx *Context, s *ByteStream) (any, error) {
	header, err := DecodeU29Unsigned(s)
	if err != nil {
		return nil, err
	}
	if header&1 == 0 {
		idx := int(header >> 1)
		v, ok := ctx.Objects.At(idx)
		if !ok {
			return nil, fmt.Errorf("%w: ByteArray reference %d not populated", ErrReference, idx)
		}
		return v, nil
	}
	length := int(header >> 1)
	raw, err := s.ReadN(length)
	if err != nil {
		return nil, err
	}

	ba := &ByteArray{Data: raw}
	ctx.Objects.Add(ba)

	if len(raw) >= 2 && raw[0] == zlibDefaultHeader[0] && (raw[1] == zlibDefaultHeader[1] || raw[1] == 0xDA) {
		header := append([]byte{}, raw...)
		if header[1] == 0xDA {
			header[1] = zlibDefaultHeader[1]
		}
		zr, err := zlib.NewReader(bytes.NewReader(header))
		if err == nil {
			if inflated, err := readAll(zr); err == nil {
				ba.Data = inflated
				ba.Compressed = true
			}
		}
	}

	return ba, nil
}

// WriteObject encodes v as AMF3 and appends it to ba's own byte buffer,
// through a Context private to ba. The first call derives that Context
// from ctx via SubContext (the AMF3 sub-stream isolation invariant, §3);
// later calls reuse and Clear() it rather than allocating a fresh one,
// mirroring ByteArray.writeObject's self.context.clear() in
// original_source/miniamf/amf3.py:504-510.
func (ba *ByteArray) WriteObject(ctx *Context, v any) error {
	if ba.stream == nil {
		ba.stream = NewByteStream(ba.Data)
	}
	if ba.subCtx == nil {
		ba.subCtx = ctx.SubContext()
	} else {
		ba.subCtx.Clear()
	}
	if err := encodeAMF3(ba.subCtx, ba.stream, v); err != nil {
		return err
	}
	ba.Data = ba.stream.Bytes()
	return nil
}

// ReadObject decodes the next AMF3 value from ba's own byte buffer at its
// current read cursor, through the same ByteArray-owned, cleared-not-
// recreated Context WriteObject uses. Repeated calls read successive
// values written to the same ByteArray, matching the original's
// stream-like ByteArray.readObject.
func (ba *ByteArray) ReadObject(ctx *Context) (any, error) {
	if ba.stream == nil {
		ba.stream = NewByteStream(ba.Data)
	}
	if ba.subCtx == nil {
		ba.subCtx = ctx.SubContext()
	} else {
		ba.subCtx.Clear()
	}
	return decodeAMF3(ba.subCtx, ba.stream)
}

func readAll(r interface{ Read([]byte) (int, error) }) ([]byte, error) {
	var out bytes.Buffer
	buf := make([]byte, 4096)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			out.Write(buf[:n])
		}
		if err != nil {
			if err.Error() == "EOF" {
				return out.Bytes(), nil
			}
			return out.Bytes(), err
		}
	}
}

func decodeAMF3Object(ctx *Context, s *ByteStream) (any, error) {
	header, err := DecodeU29Unsigned(s)
	if err != nil {
		return nil, err
	}
	if header&1 == 0 {
		idx := int(header >> 1)
		v, ok := ctx.Objects.At(idx)
		if !ok {
			return nil, fmt.Errorf("%w: object reference %d not populated", ErrReference, idx)
		}
		return v, nil
	}

	var def *ClassDefinition
	if header&2 == 0 {
		idx := int(header >> 2)
		d, ok := ctx.Classes.At(idx)
		if !ok {
			return nil, fmt.Errorf("%w: class reference %d not populated", ErrReference, idx)
		}
		def = d
	} else {
		attrLen := int(header >> 4)
		encoding := objectEncoding((header >> 2) & 0x03)

		className, err := decodeAMF3StringValue(ctx, s)
		if err != nil {
			return nil, err
		}

		var attrs []string
		if encoding != encodingExternal {
			for i := 0; i < attrLen; i++ {
				name, err := decodeAMF3StringValue(ctx, s)
				if err != nil {
					return nil, err
				}
				attrs = append(attrs, name)
			}
		}

		var alias *ClassAlias
		if className != "" {
			alias, err = GetClassAliasByName(className)
			if err != nil {
				if ctx.Options.Strict {
					return nil, err
				}
				alias = nil
			}
		}

		def = &ClassDefinition{Alias: alias, Encoding: encoding, Attrs: attrs, className: className}
		ctx.Classes.Add(def)
	}

	var obj any
	var anonObj *Object
	var typedObj *TypedObject
	if def.Alias != nil {
		obj = def.Alias.CreateInstance()
	} else if def.className != "" {
		typedObj = NewTypedObject(def.className)
		obj = typedObj
	} else {
		anonObj = NewObject()
		obj = anonObj
	}
	ctx.Objects.Add(obj)

	if def.Encoding == encodingExternal {
		ext, ok := obj.(Externalizable)
		if !ok {
			return nil, fmt.Errorf("%w: %q is externalizable but does not implement Externalizable", ErrDecode, def.className)
		}
		if err := ext.ReadExternal(s, ctx); err != nil {
			return nil, err
		}
		return obj, nil
	}

	attrs := make(map[string]any, len(def.Attrs))
	for _, name := range def.Attrs {
		v, err := decodeAMF3(ctx, s)
		if err != nil {
			return nil, err
		}
		attrs[name] = v
	}

	if def.Encoding == encodingDynamic {
		for {
			key, err := decodeAMF3StringValue(ctx, s)
			if err != nil {
				return nil, err
			}
			if key == "" {
				break
			}
			val, err := decodeAMF3(ctx, s)
			if err != nil {
				return nil, err
			}
			attrs[key] = val
		}
	}

	switch {
	case def.Alias != nil:
		filtered, err := def.Alias.GetDecodableAttributes(attrs)
		if err != nil {
			return nil, err
		}
		if err := ApplyAttributes(obj, filtered); err != nil {
			return nil, err
		}
	case typedObj != nil:
		for k, v := range attrs {
			typedObj.Set(k, v)
		}
	case anonObj != nil:
		for k, v := range attrs {
			anonObj.Set(k, v)
		}
	}

	return obj, nil
}
