package buffer

import "sync"

// Allocator supplies raw byte storage for buffer blocks. Implementations must
// return a slice with len == cap >= n; Release may recycle the slice.
type Allocator interface {
	Allocate(n int) []byte
	Release(b []byte)
}

// HeapAllocator allocates blocks directly from the Go heap and lets the
// garbage collector reclaim them.
type HeapAllocator struct{}

func (HeapAllocator) Allocate(n int) []byte { return make([]byte, n) }

func (HeapAllocator) Release([]byte) {}

// PoolAllocator recycles fixed-size blocks through a sync.Pool. Requests
// larger than BlockSize fall through to the heap; undersized or oversized
// slices handed to Release are dropped rather than pooled.
type PoolAllocator struct {
	blockSize int
	pool      sync.Pool
}

// NewPoolAllocator returns a PoolAllocator serving blocks of blockSize bytes.
func NewPoolAllocator(blockSize int) *PoolAllocator {
	a := &PoolAllocator{blockSize: blockSize}
	a.pool.New = func() any {
		b := make([]byte, blockSize)
		return &b
	}
	return a
}

func (a *PoolAllocator) Allocate(n int) []byte {
	if n > a.blockSize {
		return make([]byte, n)
	}
	b := a.pool.Get().(*[]byte)
	return (*b)[:a.blockSize]
}

func (a *PoolAllocator) Release(b []byte) {
	if cap(b) != a.blockSize {
		return
	}
	b = b[:cap(b)]
	// The &b forces a small heap allocation; unavoidable when putting a
	// non-pointer into an interface.
	a.pool.Put(&b)
}
