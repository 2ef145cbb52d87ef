// Package pools recycles the byte buffers used to read requests and to
// encode responses.
package pools

import (
	"sync"
	"sync/atomic"
)

// Size classes suited to request chunks and typical response sizes.
var defaultSizes = []int{
	512,
	2048,
	4096,
	8192,
	32768,
}

// BytePool is a multi-tiered byte slice pool. Slices larger than the biggest
// tier are allocated directly and dropped on Put.
type BytePool struct {
	pools []sync.Pool
	sizes []int

	gets   atomic.Uint64
	misses atomic.Uint64 // requests above the largest tier
	puts   atomic.Uint64
}

// NewBytePool creates a byte pool with the standard size tiers.
func NewBytePool() *BytePool {
	return NewBytePoolWithSizes(defaultSizes)
}

// NewBytePoolWithSizes creates a byte pool with custom ascending size tiers.
func NewBytePoolWithSizes(sizes []int) *BytePool {
	bp := &BytePool{
		pools: make([]sync.Pool, len(sizes)),
		sizes: sizes,
	}
	for i, size := range sizes {
		sz := size
		bp.pools[i].New = func() any {
			buf := make([]byte, sz)
			return &buf
		}
	}
	return bp
}

// Get returns a slice of length size.
func (bp *BytePool) Get(size int) []byte {
	bp.gets.Add(1)
	for i, tier := range bp.sizes {
		if size <= tier {
			buf := *bp.pools[i].Get().(*[]byte)
			return buf[:size]
		}
	}
	bp.misses.Add(1)
	return make([]byte, size)
}

// Put hands buf back for reuse. The caller must not touch buf afterwards.
func (bp *BytePool) Put(buf []byte) {
	c := cap(buf)
	for i, tier := range bp.sizes {
		if c == tier {
			buf = buf[:c]
			bp.pools[i].Put(&buf)
			bp.puts.Add(1)
			return
		}
	}
}

// BytePoolStats counts pool traffic.
type BytePoolStats struct {
	Gets   uint64 `json:"gets"`
	Misses uint64 `json:"misses"`
	Puts   uint64 `json:"puts"`
}

// Stats returns the pool's counters.
func (bp *BytePool) Stats() BytePoolStats {
	return BytePoolStats{
		Gets:   bp.gets.Load(),
		Misses: bp.misses.Load(),
		Puts:   bp.puts.Load(),
	}
}

var global = NewBytePool()

// GetBytes takes a slice from the shared pool.
func GetBytes(size int) []byte { return global.Get(size) }

// PutBytes returns a slice to the shared pool.
func PutBytes(buf []byte) { global.Put(buf) }

// GlobalStats reports the shared pool's counters.
func GlobalStats() BytePoolStats { return global.Stats() }
