package bufpool

import (
	"sync"
	"unsafe"
)

// Size classes are tuned for mlvfs-core's two hot allocation shapes: small
// block-prelude/IFD-entry scratch (128B, 4096B) and full-frame 16-bit Bayer
// scratch buffers used by the correction pipeline's chroma-smoothing pass,
// which needs a pre-smoothed copy of the whole image (up to ~11MP at 16bpp).
var sizeClasses = []int{128, 4096, 65536, 22 << 20}

type classPool struct {
	size int
	pool *sync.Pool
}

// Pool provides sized byte slices backed by reusable buffers to reduce GC churn.
type Pool struct {
	pools []classPool
}

var defaultPool = New()

// Get acquires a buffer from the package-level default pool.
func Get(size int) []byte {
	return defaultPool.Get(size)
}

// Put releases a buffer back to the package-level default pool.
func Put(buf []byte) {
	defaultPool.Put(buf)
}

// GetUint16 acquires a []uint16 scratch buffer of n samples, backed by a
// byte buffer from the default pool's nearest size class for n*2 bytes
// (the full-frame class for typical frames; a fresh, unpooled buffer above
// it) — the correction pipeline's pre-pass snapshot copies use this instead of a
// bare make([]uint16, n). The returned slice's capacity mirrors the
// backing byte buffer's full size class so PutUint16 can recognize it.
func GetUint16(n int) []uint16 {
	buf := Get(n * 2)
	if buf == nil {
		return nil
	}
	full := unsafe.Slice((*uint16)(unsafe.Pointer(&buf[0])), cap(buf)/2)
	return full[:n]
}

// PutUint16 returns a buffer acquired from GetUint16 to the pool.
func PutUint16(buf []uint16) {
	if len(buf) == 0 {
		return
	}
	full := unsafe.Slice((*byte)(unsafe.Pointer(&buf[0])), cap(buf)*2)
	Put(full)
}

// New creates a buffer pool with predefined size classes tailored for the core's
// block-parsing and per-frame pixel-buffer scratch workloads.
func New() *Pool {
	pools := make([]classPool, len(sizeClasses))
	for i, classSize := range sizeClasses {
		size := classSize
		pools[i] = classPool{
			size: size,
			pool: &sync.Pool{
				New: func() any {
					return make([]byte, size)
				},
			},
		}
	}
	return &Pool{pools: pools}
}

// Get returns a byte slice whose length matches the requested size and whose capacity is the
// nearest predefined size class that can accommodate the request. Requests larger than the
// maximum size class allocate a fresh slice without pooling.
func (p *Pool) Get(size int) []byte {
	if p == nil || size <= 0 {
		return nil
	}

	for i := range p.pools {
		class := &p.pools[i]
		if size <= class.size {
			buf := class.pool.Get().([]byte)
			return buf[:size]
		}
	}

	return make([]byte, size)
}

// Put returns the provided buffer to the pool if its capacity matches a predefined size class.
// Buffers that do not match any class are discarded. The buffer is zeroed before reuse to avoid
// leaking data across callers.
func (p *Pool) Put(buf []byte) {
	if p == nil || buf == nil {
		return
	}

	capBuf := cap(buf)
	for i := range p.pools {
		class := &p.pools[i]
		if capBuf == class.size {
			full := buf[:class.size]
			clear(full)
			class.pool.Put(full)
			return
		}
	}
}
