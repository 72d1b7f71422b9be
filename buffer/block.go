package buffer

// block is a single contiguous allocation with a used/unused split. Bytes in
// data[off:end] are committed and readable; data[end:] is spare capacity.
// Invariant: 0 <= off <= end <= len(data).
type block struct {
	data []byte
	off  int
	end  int
}

func newBlock(alloc Allocator, n int) *block {
	return &block{data: alloc.Allocate(n)}
}

// size reports the number of readable bytes.
func (b *block) size() int { return b.end - b.off }

// available reports the spare capacity past the used region.
func (b *block) available() int { return len(b.data) - b.end }

func (b *block) capacity() int { return len(b.data) }

// readable returns the committed bytes.
func (b *block) readable() []byte { return b.data[b.off:b.end] }

// writable returns the spare capacity.
func (b *block) writable() []byte { return b.data[b.end:] }

// acquire extends the used region by n bytes of spare capacity.
func (b *block) acquire(n int) {
	if n > b.available() {
		panic("buffer: block acquire past capacity")
	}
	b.end += n
}

// consume removes n bytes from the front of the used region.
func (b *block) consume(n int) {
	if n > b.size() {
		panic("buffer: block consume past size")
	}
	b.off += n
}

// reset empties the block without releasing its storage.
func (b *block) reset() {
	b.off = 0
	b.end = 0
}

func (b *block) release(alloc Allocator) {
	alloc.Release(b.data)
	b.data = nil
}
