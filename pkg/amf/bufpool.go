package amf

import "sync"

// Predefined buffer pool sizes. AMF payloads are usually small
// (individual values, RPC arguments) but LSO/ByteArray bodies can run
// into the hundreds of kilobytes, so the tiers top out lower than a
// video-frame pool would need to.
const (
	poolSize32  = 1 << 5  // 32 bytes
	poolSize512 = 1 << 9  // 512 bytes
	poolSize4K  = 1 << 12 // 4 KB
	poolSize16K = 1 << 14 // 16 KB
	poolSize64K = 1 << 16 // 64 KB
)

var (
	pool32  = sync.Pool{New: func() any { return make([]byte, poolSize32) }}
	pool512 = sync.Pool{New: func() any { return make([]byte, poolSize512) }}
	pool4K  = sync.Pool{New: func() any { return make([]byte, poolSize4K) }}
	pool16K = sync.Pool{New: func() any { return make([]byte, poolSize16K) }}
	pool64K = sync.Pool{New: func() any { return make([]byte, poolSize64K) }}
)

func poolAlloc(size int) []byte {
	switch {
	case size <= poolSize32:
		return pool32.Get().([]byte)[:size]
	case size <= poolSize512:
		return pool512.Get().([]byte)[:size]
	case size <= poolSize4K:
		return pool4K.Get().([]byte)[:size]
	case size <= poolSize16K:
		return pool16K.Get().([]byte)[:size]
	case size <= poolSize64K:
		return pool64K.Get().([]byte)[:size]
	default:
		return make([]byte, size)
	}
}

func poolFree(b []byte) {
	if b == nil {
		return
	}
	switch cap(b) {
	case poolSize32:
		pool32.Put(b[:cap(b)])
	case poolSize512:
		pool512.Put(b[:cap(b)])
	case poolSize4K:
		pool4K.Put(b[:cap(b)])
	case poolSize16K:
		pool16K.Put(b[:cap(b)])
	case poolSize64K:
		pool64K.Put(b[:cap(b)])
	default:
		// not a pool-owned capacity, let GC handle it
	}
}

// PooledBuffer is a reference-counted wrapper over a pool-backed byte
// slice, for callers that encode many short-lived AMF payloads (an RTMP
// or RPC transport writing one message body per call) and want to avoid
// a heap allocation per encode.
type PooledBuffer struct {
	data []byte
	refs int32
	mu   sync.Mutex
}

// NewPooledBuffer returns a zero-length, size-capacity buffer from the
// matching pool tier (or a fresh allocation if size exceeds every tier).
func NewPooledBuffer(size int) *PooledBuffer {
	return &PooledBuffer{data: poolAlloc(size)[:0], refs: 1}
}

// Retain increments the reference count; pair with an extra Release.
func (p *PooledBuffer) Retain() {
	p.mu.Lock()
	p.refs++
	p.mu.Unlock()
}

// Release decrements the reference count, returning the backing array to
// its pool tier once the count reaches zero.
func (p *PooledBuffer) Release() {
	p.mu.Lock()
	p.refs--
	done := p.refs == 0
	p.mu.Unlock()
	if done {
		poolFree(p.data)
		p.data = nil
	}
}

// NewPooledByteStream returns a ByteStream whose initial backing array is
// borrowed from the pool (sized by sizeHint), plus the PooledBuffer the
// caller must Release once the stream's Bytes() have been consumed. If
// the stream grows past sizeHint's pool tier, later appends fall back to
// a plain heap-grown slice the way append() always does; only the
// original tier capacity returns to the pool on Release.
func NewPooledByteStream(sizeHint int) (*ByteStream, *PooledBuffer) {
	pb := NewPooledBuffer(sizeHint)
	return NewByteStream(pb.data), pb
}
