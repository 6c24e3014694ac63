package amf

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"
)

// dynamicPolicy is the three-valued "explicitly static / explicitly
// dynamic / inherit" setting from §3.
type dynamicPolicy int

const (
	dynamicInherit dynamicPolicy = iota
	dynamicStatic
	dynamicDynamic
)

// ClassAlias maps a host Go type to an AMF type name and its per-class
// serialization policy, mirroring miniamf.alias.ClassAlias. Go has no
// runtime class hierarchy to walk the way Python's MRO does, so bases are
// declared explicitly by the registering caller rather than discovered by
// reflection (see DESIGN.md).
type ClassAlias struct {
	Name      string
	Type      reflect.Type
	Anonymous bool

	StaticAttrs   []string
	ExcludeAttrs  map[string]bool
	ReadonlyAttrs map[string]bool
	SynonymAttrs  map[string]string // memory name -> wire name
	Dynamic       dynamicPolicy
	AMF3          bool
	External      bool
	Sealed        bool
	IsDict        bool
	Bases         []*ClassAlias

	// New constructs a zero instance of the host type (createInstance,
	// §4.3: "constructs K without invoking user initializers").
	New func() any

	// CustomProperties is the getCustomProperties extension point: a
	// no-op unless the caller supplies one.
	CustomProperties func(*ClassAlias)

	compiled               bool
	encodableProperties    map[string]bool
	decodableProperties    map[string]bool
	nonStaticEncodable     []string
	inheritedDynamic       bool
	resolvedDynamic        bool
	shortcutEncode         bool
	shortcutDecode         bool
}

// ClassDefinition is the wire-facing trait descriptor built from a
// ClassAlias at encode or decode time (§4.5's "ClassDefinition" from the
// Object tag's trait header).
type ClassDefinition struct {
	Alias     *ClassAlias
	Encoding  objectEncoding
	Attrs     []string // static attribute names, in trait order
	reference []byte   // not populated; the encoder writes trait references directly

	// className is the wire type name read for a trait with no registered
	// alias (anonymous-but-named objects, §9 "dynamic typing"), so a later
	// class reference can still reconstruct a matching TypedObject.
	className string
}

// objectEncoding is AMF3's 2-bit object-encoding enum, packed into the
// trait header as bits 2-3 (E=bit2, D=bit3 in §4.5's "D E T R" layout):
// STATIC has neither bit set, EXTERNAL sets only E, DYNAMIC sets only D.
type objectEncoding int

const (
	encodingStatic   objectEncoding = 0
	encodingExternal objectEncoding = 1
	encodingDynamic  objectEncoding = 2
)

var (
	registryMu     sync.RWMutex
	aliasesByName  = make(map[string]*ClassAlias)
	aliasesByType  = make(map[reflect.Type]*ClassAlias)
)

// RegisterClass registers alias under name, keyed additionally by
// alias.Type (if set), per the Registry API's
// register_class(K, alias_name?).
func RegisterClass(name string, alias *ClassAlias) *ClassAlias {
	alias.Name = name
	alias.Anonymous = name == ""

	registryMu.Lock()
	defer registryMu.Unlock()

	if name != "" {
		aliasesByName[name] = alias
	}
	if alias.Type != nil {
		aliasesByType[alias.Type] = alias
	}
	return alias
}

// GetClassAliasByName looks up a registered alias by its wire type name.
// Returns ErrUnknownClassAlias if not found.
func GetClassAliasByName(name string) (*ClassAlias, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	a, ok := aliasesByName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownClassAlias, name)
	}
	return a.compile(), nil
}

// GetClassAliasByType looks up a registered alias by the Go type it was
// registered for. Returns ErrUnknownClassAlias if not found.
func GetClassAliasByType(t reflect.Type) (*ClassAlias, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	a, ok := aliasesByType[t]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownClassAlias, t)
	}
	return a.compile(), nil
}

// compile runs the §4.3 compilation algorithm. It is idempotent:
// compiling an already-compiled alias is a no-op, matching the source's
// `self._compiled` guard.
func (a *ClassAlias) compile() *ClassAlias {
	if a.compiled {
		return a
	}

	encodable := make(map[string]bool)
	decodable := make(map[string]bool)
	for _, s := range a.StaticAttrs {
		encodable[s] = true
		decodable[s] = true
	}

	if a.ExcludeAttrs == nil {
		a.ExcludeAttrs = make(map[string]bool)
	}
	if a.ReadonlyAttrs == nil {
		a.ReadonlyAttrs = make(map[string]bool)
	}
	if a.SynonymAttrs == nil {
		a.SynonymAttrs = make(map[string]string)
	}

	var static []string
	static = append(static, a.StaticAttrs...)

	for _, base := range a.Bases {
		base.compile()

		for k := range base.ExcludeAttrs {
			a.ExcludeAttrs[k] = true
		}
		for k := range base.ReadonlyAttrs {
			a.ReadonlyAttrs[k] = true
		}

		// base-class static attrs appear first (prepend semantics)
		merged := append([]string{}, base.StaticAttrs...)
		for _, s := range static {
			if !contains(merged, s) {
				merged = append(merged, s)
			}
		}
		static = merged

		for k := range base.encodableProperties {
			encodable[k] = true
		}
		for k := range base.decodableProperties {
			decodable[k] = true
		}
		if !a.AMF3 && base.AMF3 {
			a.AMF3 = true
		}
		a.inheritedDynamic = base.resolvedDynamic
		if !a.Sealed {
			a.Sealed = base.Sealed && !a.inheritedDynamic
		}
		for wire, mem := range base.SynonymAttrs {
			if _, ok := a.SynonymAttrs[wire]; !ok {
				a.SynonymAttrs[wire] = mem
			}
		}
	}
	a.StaticAttrs = static

	if a.CustomProperties != nil {
		a.CustomProperties(a)
	}

	switch a.Dynamic {
	case dynamicStatic:
		a.resolvedDynamic = false
	case dynamicDynamic:
		a.resolvedDynamic = true
	default:
		if a.Sealed {
			a.resolvedDynamic = false
		} else if a.inheritedDynamic {
			a.resolvedDynamic = true
		} else {
			a.resolvedDynamic = true
		}
	}

	sort.Strings(a.StaticAttrs)
	staticSet := make(map[string]bool, len(a.StaticAttrs))
	for _, s := range a.StaticAttrs {
		staticSet[s] = true
		encodable[s] = true
		decodable[s] = true
	}

	for k := range a.ExcludeAttrs {
		delete(encodable, k)
		delete(decodable, k)
	}
	for k := range a.ReadonlyAttrs {
		delete(decodable, k)
	}

	var prunedStatic []string
	for _, s := range a.StaticAttrs {
		if !a.ExcludeAttrs[s] {
			prunedStatic = append(prunedStatic, s)
		}
	}
	a.StaticAttrs = prunedStatic

	a.encodableProperties = encodable
	a.decodableProperties = decodable

	for k := range encodable {
		if !staticSet[k] {
			a.nonStaticEncodable = append(a.nonStaticEncodable, k)
		}
	}
	sort.Strings(a.nonStaticEncodable)

	a.shortcutEncode = len(a.encodableProperties) == len(a.StaticAttrs) &&
		len(a.ExcludeAttrs) == 0 && !a.External && len(a.SynonymAttrs) == 0
	a.shortcutDecode = len(a.ExcludeAttrs) == 0 && len(a.ReadonlyAttrs) == 0 &&
		a.resolvedDynamic && !a.External && len(a.SynonymAttrs) == 0

	if a.Type != nil && a.Type.Kind() == reflect.Map {
		a.IsDict = true
	}

	a.compiled = true
	return a
}

func contains(ss []string, s string) bool {
	for _, x := range ss {
		if x == s {
			return true
		}
	}
	return false
}

// Dynamic_ reports whether instances of this class accept properties beyond
// the declared static attributes, after compilation.
func (a *ClassAlias) Dynamic_() bool {
	a.compile()
	return a.resolvedDynamic
}

// GetEncodableAttributes returns the ordered (name, value) pairs to emit
// for obj, per §4.3's algorithm. Fast path: shortcut_encode and dynamic
// and not a dict snapshots the object's own attribute set directly; slow
// path collects static attrs (missing -> Undefined) then merges dynamic
// ones subject to exclude/non-static filters, finally applying synonym
// renames.
func (a *ClassAlias) GetEncodableAttributes(obj Attributes) []KV {
	a.compile()

	var out []KV
	seen := make(map[string]bool)

	if a.IsDict {
		for _, k := range obj.Keys() {
			v, _ := obj.GetAttr(k)
			out = append(out, KV{Key: k, Value: v})
		}
		return a.applySynonymsEncode(out)
	}

	if a.shortcutEncode && a.resolvedDynamic && len(a.StaticAttrs) == 0 {
		for _, k := range obj.Keys() {
			v, _ := obj.GetAttr(k)
			out = append(out, KV{Key: k, Value: v})
			seen[k] = true
		}
		return a.applySynonymsEncode(out)
	}

	for _, s := range a.StaticAttrs {
		v, ok := obj.GetAttr(s)
		if !ok {
			v = Undefined
		}
		out = append(out, KV{Key: s, Value: v})
		seen[s] = true
	}

	if !a.resolvedDynamic {
		for _, s := range a.nonStaticEncodable {
			if seen[s] {
				continue
			}
			v, ok := obj.GetAttr(s)
			if !ok {
				continue
			}
			out = append(out, KV{Key: s, Value: v})
			seen[s] = true
		}
		return a.applySynonymsEncode(out)
	}

	for _, k := range obj.Keys() {
		if seen[k] || a.ExcludeAttrs[k] {
			continue
		}
		v, _ := obj.GetAttr(k)
		out = append(out, KV{Key: k, Value: v})
		seen[k] = true
	}

	return a.applySynonymsEncode(out)
}

func (a *ClassAlias) applySynonymsEncode(kvs []KV) []KV {
	if len(a.SynonymAttrs) == 0 {
		return kvs
	}
	for i, kv := range kvs {
		if wire, ok := a.SynonymAttrs[kv.Key]; ok {
			kvs[i].Key = wire
		}
	}
	return kvs
}

// KV is an ordered name/value pair, used where Object attributes must
// preserve encounter order (GetEncodableAttributes, trait bodies).
type KV struct {
	Key   string
	Value any
}

// GetDecodableAttributes filters an incoming wire attribute map against
// the alias's decode policy: verifies static attributes are all present
// (else ErrMissingStaticAttribute), then intersects with decodable
// properties unless dynamic, subtracts readonly and exclude, and applies
// the inverse synonym rename (wire name -> memory name).
func (a *ClassAlias) GetDecodableAttributes(attrs map[string]any) (map[string]any, error) {
	a.compile()

	if len(a.StaticAttrs) > 0 {
		for _, s := range a.StaticAttrs {
			if _, ok := attrs[s]; !ok {
				return nil, fmt.Errorf("%w: %q expected when decoding %q", ErrMissingStaticAttribute, s, a.Name)
			}
		}
	}

	if a.shortcutDecode {
		return a.applySynonymsDecode(attrs), nil
	}

	out := make(map[string]any, len(attrs))
	for k, v := range attrs {
		if a.ExcludeAttrs[k] || a.ReadonlyAttrs[k] {
			continue
		}
		isStatic := false
		for _, s := range a.StaticAttrs {
			if s == k {
				isStatic = true
				break
			}
		}
		if isStatic {
			out[k] = v
			continue
		}
		if !a.resolvedDynamic && !a.decodableProperties[k] {
			continue
		}
		out[k] = v
	}

	return a.applySynonymsDecode(out), nil
}

func (a *ClassAlias) applySynonymsDecode(attrs map[string]any) map[string]any {
	if len(a.SynonymAttrs) == 0 {
		return attrs
	}
	out := make(map[string]any, len(attrs))
	for k, v := range attrs {
		memName := k
		for mem, wire := range a.SynonymAttrs {
			if wire == k {
				memName = mem
				break
			}
		}
		out[memName] = v
	}
	return out
}

// CreateInstance constructs a new instance of the host type without
// invoking user initializers, mirroring createInstance()'s allocator
// semantics. If New is unset, an *Object carrying this alias is produced.
func (a *ClassAlias) CreateInstance() any {
	if a.New != nil {
		return a.New()
	}
	return NewTypedObjectValue(a)
}

// ApplyAttributes sets each attribute in attrs on obj, via the Attributes
// interface if obj implements it, else via reflection against exported
// struct fields (matched case-insensitively, or by an `amf:"name"` tag).
func ApplyAttributes(obj any, attrs map[string]any) error {
	if a, ok := obj.(Attributes); ok {
		for k, v := range attrs {
			a.SetAttr(k, v)
		}
		return nil
	}

	rv := reflect.ValueOf(obj)
	if rv.Kind() != reflect.Ptr || rv.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("%w: cannot apply attributes to %T", ErrDecode, obj)
	}
	elem := rv.Elem()
	t := elem.Type()

	for k, v := range attrs {
		field := findStructField(t, k)
		if field < 0 {
			continue
		}
		fv := elem.Field(field)
		if !fv.CanSet() {
			continue
		}
		assignReflect(fv, v)
	}
	return nil
}

func findStructField(t reflect.Type, wireName string) int {
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if tag := f.Tag.Get("amf"); tag == wireName {
			return i
		}
	}
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if strings.EqualFold(f.Name, wireName) {
			return i
		}
	}
	return -1
}

func assignReflect(fv reflect.Value, v any) {
	if v == nil {
		return
	}
	rv := reflect.ValueOf(v)
	if rv.Type().AssignableTo(fv.Type()) {
		fv.Set(rv)
		return
	}
	if rv.Type().ConvertibleTo(fv.Type()) {
		fv.Set(rv.Convert(fv.Type()))
	}
}
