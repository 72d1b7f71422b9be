package buffer

import (
	"fmt"
	"math"
)

// DefaultBlockSize is the minimum allocation for a new block unless a larger
// Prepare forces a bigger one.
const DefaultBlockSize = 4096

// Options configures a MultiBuffer. The zero value selects an unlimited
// buffer with 4 KiB minimum blocks backed by the heap.
type Options struct {
	// MaxSize caps the total readable+prepared bytes the buffer will hold.
	// Zero or negative means no limit.
	MaxSize int

	// BlockSize is the minimum size of newly allocated blocks. Zero or
	// negative selects DefaultBlockSize.
	BlockSize int

	// Allocator supplies block storage. Nil selects HeapAllocator.
	Allocator Allocator
}

// MultiBuffer is a dynamic buffer whose storage is an ordered sequence of
// discontiguous blocks. The committed readable run occupies a prefix of the
// blocks; spare capacity reserved by Prepare follows it.
//
// Growth appends blocks and never moves committed bytes, so Regions obtained
// from Data stay valid across Prepare and Commit. Regions obtained from
// Prepare are invalidated by any later Prepare, Commit, or Consume.
//
// MultiBuffer is not safe for concurrent use.
type MultiBuffer struct {
	blocks   []*block
	alloc    Allocator
	max      int
	minBlock int
	readSize int // committed readable bytes across all blocks
	prepared int // outstanding writable bytes reserved by Prepare
}

// New returns an empty MultiBuffer with default Options.
func New() *MultiBuffer {
	return NewOptions(Options{})
}

// NewLimited returns an empty MultiBuffer that holds at most limit bytes.
func NewLimited(limit int) *MultiBuffer {
	return NewOptions(Options{MaxSize: limit})
}

// NewOptions returns an empty MultiBuffer configured by o.
func NewOptions(o Options) *MultiBuffer {
	b := &MultiBuffer{
		alloc:    o.Allocator,
		max:      o.MaxSize,
		minBlock: o.BlockSize,
	}
	if b.alloc == nil {
		b.alloc = HeapAllocator{}
	}
	if b.max <= 0 {
		b.max = math.MaxInt
	}
	if b.minBlock <= 0 {
		b.minBlock = DefaultBlockSize
	}
	return b
}

// Size reports the number of readable bytes.
func (b *MultiBuffer) Size() int { return b.readSize }

// Capacity reports the total bytes allocated across all blocks.
func (b *MultiBuffer) Capacity() int {
	total := 0
	for _, blk := range b.blocks {
		total += blk.capacity()
	}
	return total
}

// MaxSize reports the configured size ceiling.
func (b *MultiBuffer) MaxSize() int { return b.max }

// SetMaxSize changes the size ceiling. Zero or negative removes the limit.
// Bytes already held are unaffected even if they exceed the new ceiling;
// only future Prepare calls observe it.
func (b *MultiBuffer) SetMaxSize(n int) {
	if n <= 0 {
		n = math.MaxInt
	}
	b.max = n
}

// Prepare reserves exactly n bytes of spare capacity and returns a writable
// view over them. Spare capacity remaining in the current blocks is reused;
// at most one new block is allocated to cover any shortfall.
//
// Prepare fails with ErrMaxSize, leaving the buffer unchanged, if Size()+n
// would exceed MaxSize(). A successful call invalidates views from earlier
// Prepare calls; views from Data remain valid.
func (b *MultiBuffer) Prepare(n int) (Regions, error) {
	if n < 0 {
		panic("buffer: Prepare with negative size")
	}
	if n > b.max-b.readSize {
		return Regions{}, fmt.Errorf("prepare %d bytes with %d readable: %w", n, b.readSize, ErrMaxSize)
	}

	spare := 0
	for i := b.writeIndex(); i < len(b.blocks); i++ {
		spare += b.blocks[i].available()
	}
	if spare < n {
		size := n - spare
		if size < b.minBlock {
			size = b.minBlock
		}
		b.blocks = append(b.blocks, newBlock(b.alloc, size))
	}

	b.prepared = n
	return b.writableRegions(n), nil
}

// Commit appends min(n, prepared) bytes from the front of the writable run to
// the end of the readable run. Any remaining prepared spare is discarded.
// Commit never fails.
func (b *MultiBuffer) Commit(n int) {
	if n < 0 {
		panic("buffer: Commit with negative size")
	}
	if n > b.prepared {
		n = b.prepared
	}
	b.prepared = 0

	rem := n
	for i := b.writeIndex(); i < len(b.blocks) && rem > 0; i++ {
		blk := b.blocks[i]
		k := blk.available()
		if k > rem {
			k = rem
		}
		blk.acquire(k)
		rem -= k
	}
	b.readSize += n - rem
}

// Data returns a view over the entire readable run. The view may span
// multiple regions and copies no bytes. It remains valid across Prepare and
// Commit, and is invalidated by Consume, Clear, and ShrinkToFit.
func (b *MultiBuffer) Data() Regions {
	var regs [][]byte
	for _, blk := range b.blocks {
		if blk.size() > 0 {
			regs = append(regs, blk.readable())
		}
	}
	return Regions{regs: regs}
}

// Consume removes min(n, Size()) bytes from the front of the readable run,
// evicting and releasing any block it fully drains. Consume never fails.
func (b *MultiBuffer) Consume(n int) {
	if n < 0 {
		panic("buffer: Consume with negative size")
	}
	if n > b.readSize {
		n = b.readSize
	}
	b.readSize -= n

	evicted := 0
	for n > 0 {
		blk := b.blocks[evicted]
		if n < blk.size() {
			blk.consume(n)
			break
		}
		n -= blk.size()
		blk.release(b.alloc)
		b.blocks[evicted] = nil
		evicted++
	}
	if evicted > 0 {
		b.blocks = append(b.blocks[:0], b.blocks[evicted:]...)
		b.prepared = 0
	}
}

// Clear empties the readable and writable runs without releasing any
// allocated capacity, so subsequent Prepare calls reuse existing blocks.
func (b *MultiBuffer) Clear() {
	for _, blk := range b.blocks {
		blk.reset()
	}
	b.readSize = 0
	b.prepared = 0
}

// Reserve guarantees total capacity of at least n bytes, raising MaxSize to n
// if it was lower. Existing readable bytes and their views are unaffected.
func (b *MultiBuffer) Reserve(n int) {
	if n > b.max {
		b.max = n
	}
	short := n - b.Capacity()
	if short <= 0 {
		return
	}
	if short < b.minBlock {
		short = b.minBlock
	}
	b.blocks = append(b.blocks, newBlock(b.alloc, short))
}

// ShrinkToFit reallocates storage to hold exactly the readable bytes in a
// single block, releasing all other capacity. All outstanding views are
// invalidated.
func (b *MultiBuffer) ShrinkToFit() {
	b.prepared = 0
	if b.readSize == 0 {
		b.releaseAll()
		return
	}
	if len(b.blocks) == 1 && b.blocks[0].off == 0 && b.blocks[0].capacity() == b.readSize {
		return
	}

	blk := newBlock(b.alloc, b.readSize)
	n := 0
	for _, old := range b.blocks {
		n += copy(blk.data[n:], old.readable())
	}
	blk.acquire(n)
	b.releaseAll()
	b.blocks = append(b.blocks, blk)
}

// writeIndex locates the block where the writable run begins: the last block
// holding readable bytes, or the first block when the buffer is empty.
func (b *MultiBuffer) writeIndex() int {
	for i := len(b.blocks) - 1; i >= 0; i-- {
		if b.blocks[i].size() > 0 {
			return i
		}
	}
	return 0
}

func (b *MultiBuffer) writableRegions(n int) Regions {
	var regs [][]byte
	rem := n
	for i := b.writeIndex(); i < len(b.blocks) && rem > 0; i++ {
		w := b.blocks[i].writable()
		if len(w) == 0 {
			continue
		}
		if len(w) > rem {
			w = w[:rem]
		}
		regs = append(regs, w)
		rem -= len(w)
	}
	return Regions{regs: regs}
}

func (b *MultiBuffer) releaseAll() {
	for i, blk := range b.blocks {
		blk.release(b.alloc)
		b.blocks[i] = nil
	}
	b.blocks = b.blocks[:0]
}
