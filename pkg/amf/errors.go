package amf

import "errors"

// Error kinds returned by the codec. Callers should use errors.Is against
// these sentinels; wrapped errors carry additional context via fmt.Errorf's
// %w verb.
var (
	// ErrDecode covers unsupported tag bytes, malformed headers, and XML
	// parse failures.
	ErrDecode = errors.New("amf: decode error")

	// ErrEncode covers values with no AMF mapping (functions, modules,
	// class objects), an associative array with an empty-string key, and
	// similar encode-side rejections.
	ErrEncode = errors.New("amf: encode error")

	// ErrReference is returned when a decoder reads a reference index that
	// has not yet been populated in the corresponding table.
	ErrReference = errors.New("amf: reference error")

	// ErrUnknownClassAlias is returned in strict decode mode when a type
	// name has no registered alias. In lenient mode a TypedObject is
	// produced instead.
	ErrUnknownClassAlias = errors.New("amf: unknown class alias")

	// ErrEndOfStream is returned when a short read occurs at a value
	// boundary. The stream position is restored to the checkpoint taken
	// before the read; the caller may append more bytes and retry.
	ErrEndOfStream = errors.New("amf: end of stream")

	// ErrOverflow is returned when a VLQ input is out of range, or an
	// integer write fails its range check.
	ErrOverflow = errors.New("amf: overflow")

	// ErrMissingStaticAttribute is returned when getDecodableAttributes
	// finds that an incoming attribute bag is missing one of a class's
	// declared static attributes.
	ErrMissingStaticAttribute = errors.New("amf: missing static attribute")
)
