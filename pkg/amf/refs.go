package amf

import (
	"fmt"
	"reflect"

	"github.com/cespare/xxhash/v2"
)

// objectRefs is the identity-keyed reference table used for AMF3's
// repeated-object detection and AMF0's REFERENCE tag (§4.2). Identity
// defaults to Go's pointer address (via reflect.Value.Pointer for
// pointer/map/slice-backed values); StructuralHash opts into an
// xxhash-based structural key instead, for hosts that want value-equal
// objects to collapse onto the same reference the way PyAMF's identity
// model would for interned values.
type objectRefs struct {
	items          []any
	index          map[uintptr]int
	structuralHash bool
	hashIndex      map[uint64]int
}

func newObjectRefs(structuralHash bool) *objectRefs {
	r := &objectRefs{structuralHash: structuralHash}
	if structuralHash {
		r.hashIndex = make(map[uint64]int)
	} else {
		r.index = make(map[uintptr]int)
	}
	return r
}

func identityOf(v any) (uintptr, bool) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Chan, reflect.Func, reflect.UnsafePointer:
		if rv.IsNil() {
			return 0, false
		}
		return rv.Pointer(), true
	default:
		return 0, false
	}
}

func structuralKeyOf(v any) uint64 {
	h := xxhash.New()
	hashValue(h, reflect.ValueOf(v))
	return h.Sum64()
}

func hashValue(h *xxhash.Digest, rv reflect.Value) {
	switch rv.Kind() {
	case reflect.Ptr, reflect.Interface:
		if rv.IsNil() {
			_, _ = h.Write([]byte{0})
			return
		}
		hashValue(h, rv.Elem())
	case reflect.String:
		_, _ = h.Write([]byte(rv.String()))
	case reflect.Slice, reflect.Array:
		for i := 0; i < rv.Len(); i++ {
			hashValue(h, rv.Index(i))
		}
	case reflect.Map:
		for _, k := range rv.MapKeys() {
			hashValue(h, k)
			hashValue(h, rv.MapIndex(k))
		}
	default:
		_, _ = h.Write([]byte(fmt.Sprintf("%v", rv.Interface())))
	}
}

// GetReference returns the dense index previously assigned to v, or -1 if
// v has not been registered.
func (r *objectRefs) GetReference(v any) int {
	if r.structuralHash {
		key := structuralKeyOf(v)
		if idx, ok := r.hashIndex[key]; ok {
			return idx
		}
		return -1
	}
	id, ok := identityOf(v)
	if !ok {
		return -1
	}
	if idx, ok := r.index[id]; ok {
		return idx
	}
	return -1
}

// Add registers v, assigning it the next dense index, and returns that
// index. Callers must check GetReference first; Add does not deduplicate.
func (r *objectRefs) Add(v any) int {
	idx := len(r.items)
	r.items = append(r.items, v)
	if r.structuralHash {
		r.hashIndex[structuralKeyOf(v)] = idx
	} else if id, ok := identityOf(v); ok {
		r.index[id] = idx
	}
	return idx
}

// At returns the value registered at idx, or (nil, false) if idx is out of
// range.
func (r *objectRefs) At(idx int) (any, bool) {
	if idx < 0 || idx >= len(r.items) {
		return nil, false
	}
	return r.items[idx], true
}

// Len returns the number of registered objects.
func (r *objectRefs) Len() int { return len(r.items) }

// Clear empties the table, for Context.Clear and reuse across roots.
func (r *objectRefs) Clear() {
	r.items = nil
	if r.structuralHash {
		r.hashIndex = make(map[uint64]int)
	} else {
		r.index = make(map[uintptr]int)
	}
}

// stringRefs is the byte-value-keyed reference table for AMF3 strings
// (§4.2): the key is the string's own bytes, not a hash, to explicitly
// avoid hash-collision bugs reported against hash-keyed implementations.
// The empty string is never inserted; it is always signalled with a
// literal length-0 header instead of a reference.
type stringRefs struct {
	items []string
	index map[string]int
}

func newStringRefs() *stringRefs {
	return &stringRefs{index: make(map[string]int)}
}

func (r *stringRefs) GetReference(s string) int {
	if s == "" {
		return -1
	}
	if idx, ok := r.index[s]; ok {
		return idx
	}
	return -1
}

func (r *stringRefs) Add(s string) int {
	if s == "" {
		return -1
	}
	idx := len(r.items)
	r.items = append(r.items, s)
	r.index[s] = idx
	return idx
}

func (r *stringRefs) At(idx int) (string, bool) {
	if idx < 0 || idx >= len(r.items) {
		return "", false
	}
	return r.items[idx], true
}

func (r *stringRefs) Clear() {
	r.items = nil
	r.index = make(map[string]int)
}

// classRefs maps a compiled class trait to a dense index (encode side) and
// stores trait descriptors read from the wire for reference lookups
// (decode side).
type classRefs struct {
	items []*ClassDefinition
	index map[*ClassAlias]int
}

func newClassRefs() *classRefs {
	return &classRefs{index: make(map[*ClassAlias]int)}
}

func (r *classRefs) GetReference(alias *ClassAlias) int {
	if idx, ok := r.index[alias]; ok {
		return idx
	}
	return -1
}

func (r *classRefs) Add(def *ClassDefinition) int {
	idx := len(r.items)
	r.items = append(r.items, def)
	if def.Alias != nil {
		r.index[def.Alias] = idx
	}
	return idx
}

func (r *classRefs) At(idx int) (*ClassDefinition, bool) {
	if idx < 0 || idx >= len(r.items) {
		return nil, false
	}
	return r.items[idx], true
}

func (r *classRefs) Clear() {
	r.items = nil
	r.index = make(map[*ClassAlias]int)
}
