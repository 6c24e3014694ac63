package amf

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
)

// IsXML reports whether data looks like XML: it returns true as soon as
// encoding/xml's decoder yields a start element before any tokenizer
// error. The rest of the document is not checked for well-formedness or
// for a single root element.
func IsXML(data string) bool {
	dec := xml.NewDecoder(bytes.NewReader([]byte(data)))
	sawElement := false
	for {
		tok, err := dec.Token()
		if err != nil {
			break
		}
		if _, ok := tok.(xml.StartElement); ok {
			sawElement = true
			break
		}
	}
	return sawElement
}

// ParseXML validates and round-trips an XML document through
// encoding/xml, applying the ForbidDTD/ForbidEntities guards from
// CodecOptions before parsing (§6 "XML bridge"). Go's encoding/xml never
// fetches external entities or resolves DTD subsets on its own; these
// checks reject the constructs outright rather than silently ignoring
// them, matching the stricter upstream default.
func ParseXML(data string, opts CodecOptions) (string, error) {
	if opts.ForbidDTD && bytes.Contains([]byte(data), []byte("<!DOCTYPE")) {
		return "", fmt.Errorf("%w: DTD declarations are forbidden", ErrDecode)
	}
	if opts.ForbidEntities && bytes.Contains([]byte(data), []byte("<!ENTITY")) {
		return "", fmt.Errorf("%w: entity declarations are forbidden", ErrDecode)
	}

	dec := xml.NewDecoder(bytes.NewReader([]byte(data)))
	for {
		_, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrDecode, err)
		}
	}
	return data, nil
}

// SerializeXML is the tostring half of the bridge: it round-trips v
// through encoding/xml's Marshal so the result is guaranteed well-formed
// before being wrapped as an XMLDocument/XMLString value.
func SerializeXML(v any) (string, error) {
	b, err := xml.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrEncode, err)
	}
	return string(b), nil
}
