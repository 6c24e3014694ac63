package amf

import (
	"reflect"
	"sync"
)

// TypeHandler is invoked by the encoder, before it falls back to generic
// object encoding, for any value whose Predicate matches. It returns a
// replacement value that is then encoded normally (§4.7).
type TypeHandler struct {
	// Type, if set, matches values whose reflect.TypeOf equals Type.
	// Predicate, if set, is consulted instead of Type (Type is then
	// ignored) and can match on arbitrary criteria (struct tags,
	// interfaces, etc).
	Type      reflect.Type
	Predicate func(v any) bool
	Handle    func(v any) (any, error)
}

func (h TypeHandler) matches(v any) bool {
	if h.Predicate != nil {
		return h.Predicate(v)
	}
	if h.Type != nil {
		return reflect.TypeOf(v) == h.Type
	}
	return false
}

// PostDecodeProcessor is run exactly once per root value, after decoding
// completes (decode depth returns to zero), and may transform the root
// before it is returned to the caller (§4.7).
type PostDecodeProcessor func(root any) any

var (
	typeHandlersMu sync.RWMutex
	typeHandlers   []TypeHandler

	postDecodeMu         sync.RWMutex
	postDecodeProcessors []PostDecodeProcessor
)

// AddType registers a custom encode-type handler, per the Registry API's
// add_type(predicate_or_type, handler). Handlers are consulted in
// registration order; the first match wins.
func AddType(h TypeHandler) {
	typeHandlersMu.Lock()
	defer typeHandlersMu.Unlock()
	typeHandlers = append(typeHandlers, h)
}

// AddPostDecodeProcessor registers a post-decode hook, per the Registry
// API's add_post_decode_processor(fn).
func AddPostDecodeProcessor(fn PostDecodeProcessor) {
	postDecodeMu.Lock()
	defer postDecodeMu.Unlock()
	postDecodeProcessors = append(postDecodeProcessors, fn)
}

// dispatchCustomType walks the registered type handlers for v, returning
// the replacement value and true if one matched.
func dispatchCustomType(v any) (any, bool, error) {
	typeHandlersMu.RLock()
	defer typeHandlersMu.RUnlock()

	for _, h := range typeHandlers {
		if h.matches(v) {
			replacement, err := h.Handle(v)
			if err != nil {
				return nil, true, err
			}
			return replacement, true, nil
		}
	}
	return nil, false, nil
}

// runPostDecodeProcessors applies every registered hook, in registration
// order, to root.
func runPostDecodeProcessors(root any) any {
	postDecodeMu.RLock()
	defer postDecodeMu.RUnlock()

	for _, fn := range postDecodeProcessors {
		root = fn(root)
	}
	return root
}

// ResetCustomDispatch clears all registered type handlers and post-decode
// processors. Intended for tests; production callers register once at
// startup per §5's "mutation SHOULD occur before concurrent use".
func ResetCustomDispatch() {
	typeHandlersMu.Lock()
	typeHandlers = nil
	typeHandlersMu.Unlock()

	postDecodeMu.Lock()
	postDecodeProcessors = nil
	postDecodeMu.Unlock()
}
