package amf

// CodecOptions configures a single encode/decode session. The zero value
// is lenient (Strict false) with the XML DTD/entity guards off;
// DefaultOptions returns the strict, XXE-safe configuration, which is how
// callers should normally construct one (DefaultConfig() pattern).
type CodecOptions struct {
	// Strict mode fails on LSO length/padding mismatches and on unknown
	// class aliases (ErrUnknownClassAlias) rather than falling back to a
	// TypedObject.
	Strict bool

	// TimezoneOffsetSeconds is subtracted from a Date's stored instant on
	// encode and added back on decode (§3: "a caller-supplied timezone
	// offset is subtracted on encode and added on decode").
	TimezoneOffsetSeconds int

	// ForbidDTD and ForbidEntities guard the XML bridge against XXE; both
	// default true (§6 XML bridge).
	ForbidDTD      bool
	ForbidEntities bool

	// StructuralObjectHash opts the object reference table into
	// xxhash-based structural identity instead of pointer identity
	// (§3 Invariants: "opt-in to structural hash").
	StructuralObjectHash bool

	// DisableStringReferences turns off the AMF3 string reference table,
	// matching the source's `string_references` encoder kwarg.
	DisableStringReferences bool
}

// DefaultOptions returns the strict, XXE-safe configuration new callers
// should start from.
func DefaultOptions() CodecOptions {
	return CodecOptions{
		Strict:         true,
		ForbidDTD:      true,
		ForbidEntities: true,
	}
}

// Context holds the per-root codec state: the three reference tables, a
// string-bytes interning cache, adapter-scoped extra storage, and the
// options controlling this session. One Context is created per encode or
// decode root invocation; ByteArray sub-streams create a fresh Context
// (§3's AMF3 sub-stream isolation invariant).
type Context struct {
	Options CodecOptions

	Objects *objectRefs
	Strings *stringRefs
	Classes *classRefs

	// bytesForString/stringForBytes are allocated with every Context, but
	// the codec neither reads nor fills them: strings are converted to and
	// from bytes afresh on each use.
	bytesForString map[string][]byte
	stringForBytes map[string]string

	// Extra is adapter-scoped key-value storage, analogous to the
	// original Context's `extra` dict.
	Extra map[string]any

	depth int
}

// NewContext creates a fresh Context with the given options.
func NewContext(opts CodecOptions) *Context {
	return &Context{
		Options:        opts,
		Objects:        newObjectRefs(opts.StructuralObjectHash),
		Strings:        newStringRefs(),
		Classes:        newClassRefs(),
		bytesForString: make(map[string][]byte),
		stringForBytes: make(map[string]string),
		Extra:          make(map[string]any),
	}
}

// Clear resets all three reference tables, for reuse across multiple
// roots within a logical session without re-allocating the Context.
func (c *Context) Clear() {
	c.Objects.Clear()
	c.Strings.Clear()
	c.Classes.Clear()
}

// SubContext creates a fresh, isolated Context for a ByteArray's embedded
// AMF3 sub-stream, inheriting this Context's options.
func (c *Context) SubContext() *Context {
	return NewContext(c.Options)
}

// enterElement/exitElement track decode recursion depth so post-decode
// hooks (custom.go) run exactly once, when depth returns to zero (§4.7).
func (c *Context) enterElement() { c.depth++ }

func (c *Context) exitElement() bool {
	c.depth--
	return c.depth == 0
}
