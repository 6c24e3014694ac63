package amf

// Value is not a Go type in its own right: the codec operates on `any` and
// recognizes a closed set of concrete types standing in for each AMF
// variant. nil is Null; the types below cover the variants Go has no
// built-in equivalent for (Undefined, ByteString, MixedArray, Object,
// XmlDocument, XmlString, ByteArray, TypedObject). bool, int64, float64,
// string, time.Time, and []any map directly.

// undefinedType is a distinct type so that Undefined never compares equal
// to any other value, including Go's nil.
type undefinedType struct{}

// Undefined is the AMF "undefined" value, distinct from Null (Go nil).
var Undefined = undefinedType{}

// ByteString is opaque bytes carried as an AMF string payload without a
// UTF-8 round trip. Kept distinct from string so the codec never tries to
// validate or re-encode the bytes as text.
type ByteString []byte

// XMLDocument is the AMF0-legacy / AMF3 tag-0x07 XML payload: an XML
// document serialized to a string by the host's XML bridge (see xml.go).
type XMLDocument string

// XMLString is the AMF3 tag-0x0B XML payload (as opposed to the legacy
// XmlDocument tag). Same shape, different wire tag.
type XMLString string

// ByteArray is an embedded AMF3 sub-stream: opaque bytes that, when
// decoded, get their own Context (the AMF3 sub-stream isolation
// invariant) and optionally carry zlib compression. ReadObject/WriteObject
// (amf3.go) let a ByteArray carry a full AMF3 object graph of its own,
// through a sub-context owned by the ByteArray itself.
type ByteArray struct {
	Data       []byte
	Compressed bool

	subCtx *Context
	stream *ByteStream
}

// attrBag is an ordered string-keyed bag of values, shared by Object and
// TypedObject. Keys preserve first-write order; re-setting an existing key
// updates the value without moving it.
type attrBag struct {
	keys []string
	vals map[string]any
}

func newAttrBag() *attrBag {
	return &attrBag{vals: make(map[string]any)}
}

// Set assigns value to key, appending key to the order if new.
func (b *attrBag) Set(key string, value any) {
	if _, ok := b.vals[key]; !ok {
		b.keys = append(b.keys, key)
	}
	b.vals[key] = value
}

// Get returns the value for key and whether it was present.
func (b *attrBag) Get(key string) (any, bool) {
	v, ok := b.vals[key]
	return v, ok
}

// Delete removes key from the bag, preserving the order of what remains.
func (b *attrBag) Delete(key string) {
	if _, ok := b.vals[key]; !ok {
		return
	}
	delete(b.vals, key)
	for i, k := range b.keys {
		if k == key {
			b.keys = append(b.keys[:i], b.keys[i+1:]...)
			break
		}
	}
}

// Keys returns the bag's keys in insertion order.
func (b *attrBag) Keys() []string {
	return b.keys
}

// Len returns the number of entries in the bag.
func (b *attrBag) Len() int {
	return len(b.keys)
}

// Object is an AMF Object: an ordered bag of (name, value) attributes plus
// an optional class trait. A nil Alias means an anonymous object.
type Object struct {
	Alias *ClassAlias
	attrs *attrBag
}

// NewObject creates an anonymous Object with no attributes set.
func NewObject() *Object {
	return &Object{attrs: newAttrBag()}
}

// NewTypedObjectValue creates an Object carrying the given class alias.
func NewTypedObjectValue(alias *ClassAlias) *Object {
	return &Object{Alias: alias, attrs: newAttrBag()}
}

func (o *Object) Set(name string, value any) { o.attrs.Set(name, value) }
func (o *Object) Get(name string) (any, bool) { return o.attrs.Get(name) }
func (o *Object) Keys() []string              { return o.attrs.Keys() }
func (o *Object) Len() int                    { return o.attrs.Len() }

// GetAttr and SetAttr implement the Attributes interface (§6 generic
// accessors), letting alias.go's getEncodableAttributes/applyAttributes
// treat *Object the same way it treats a registered struct.
func (o *Object) GetAttr(name string) (any, bool) { return o.attrs.Get(name) }
func (o *Object) SetAttr(name string, value any)  { o.attrs.Set(name, value) }

// TypedObject is produced in lenient decode mode when a class name has no
// registered alias: the attributes are preserved, but there is no compiled
// trait to apply them through.
type TypedObject struct {
	ClassName string
	attrs     *attrBag
}

// NewTypedObject creates a TypedObject for the given wire class name.
func NewTypedObject(className string) *TypedObject {
	return &TypedObject{ClassName: className, attrs: newAttrBag()}
}

func (t *TypedObject) Set(name string, value any) { t.attrs.Set(name, value) }
func (t *TypedObject) Get(name string) (any, bool) { return t.attrs.Get(name) }
func (t *TypedObject) Keys() []string              { return t.attrs.Keys() }
func (t *TypedObject) Len() int                    { return t.attrs.Len() }

// Attributes is the generic accessor interface mirrored from
// util.get_properties/util.set_attrs: anything that can report and accept
// named attributes, whether backed by a map or a registered struct.
type Attributes interface {
	GetAttr(name string) (any, bool)
	SetAttr(name string, value any)
	Keys() []string
}

// mixedKey is a MixedArray key: exactly one of Str/Int is meaningful,
// discriminated by IsInt.
type mixedKey struct {
	IsInt bool
	Int   int64
	Str   string
}

// MixedArray is the AMF3 associative-array value: an ordered collection of
// string-or-integer keys. Encoding partitions keys into a dense 0-based
// integer prefix and everything else as strings (§3 Dict encoding rule);
// decoding preserves read order.
type MixedArray struct {
	keys []mixedKey
	vals map[mixedKey]any
}

// NewMixedArray creates an empty MixedArray.
func NewMixedArray() *MixedArray {
	return &MixedArray{vals: make(map[mixedKey]any)}
}

// SetInt assigns value to integer key k.
func (m *MixedArray) SetInt(k int64, value any) {
	key := mixedKey{IsInt: true, Int: k}
	if _, ok := m.vals[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.vals[key] = value
}

// SetString assigns value to string key k. An empty key is accepted here
// (decode side only builds MixedArrays); encoders reject it, per the
// empty-key-on-encode rule.
func (m *MixedArray) SetString(k string, value any) {
	key := mixedKey{Str: k}
	if _, ok := m.vals[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.vals[key] = value
}

// Len returns the number of entries.
func (m *MixedArray) Len() int { return len(m.keys) }

// IntKeys returns the integer keys present, in insertion order.
func (m *MixedArray) IntKeys() []int64 {
	var out []int64
	for _, k := range m.keys {
		if k.IsInt {
			out = append(out, k.Int)
		}
	}
	return out
}

// StringKeys returns the string keys present, in insertion order.
func (m *MixedArray) StringKeys() []string {
	var out []string
	for _, k := range m.keys {
		if !k.IsInt {
			out = append(out, k.Str)
		}
	}
	return out
}

func (m *MixedArray) GetInt(k int64) (any, bool) {
	v, ok := m.vals[mixedKey{IsInt: true, Int: k}]
	return v, ok
}

func (m *MixedArray) GetString(k string) (any, bool) {
	v, ok := m.vals[mixedKey{Str: k}]
	return v, ok
}
