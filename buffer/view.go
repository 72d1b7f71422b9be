package buffer

// Regions is a random-access view over a run of byte regions, together with
// an initial discount (bytes hidden at the front of the first region) and a
// final discount (bytes hidden at the end of the last region). Discounts are
// how Adjust narrows a view without copying: interior regions are never
// trimmed.
//
// Regions is a value type. It aliases the underlying block storage, so writes
// through a region are visible to other views of the same bytes, but
// structural mutation of the owning MultiBuffer (Consume, Clear, ShrinkToFit,
// or a Prepare that allocates) invalidates it.
type Regions struct {
	regs [][]byte
	skip int // applies only at position 0
	trim int // applies only at position len(regs)-1
}

// RegionsOf builds a view over the given byte slices, mainly for tests and
// for adapting external scatter/gather lists.
func RegionsOf(regs ...[]byte) Regions {
	kept := make([][]byte, 0, len(regs))
	for _, r := range regs {
		if len(r) > 0 {
			kept = append(kept, r)
		}
	}
	return Regions{regs: kept}
}

// Len reports the number of regions in the view.
func (v Regions) Len() int { return len(v.regs) }

// Empty reports whether the view contains no bytes.
func (v Regions) Empty() bool { return v.Total() == 0 }

// At returns region i with any applicable discount applied. The initial
// discount applies only at position 0 and the final discount only at the last
// position; when the view has a single region both apply to it.
func (v Regions) At(i int) []byte {
	r := v.regs[i]
	if i == 0 {
		r = r[v.skip:]
	}
	if i == len(v.regs)-1 {
		r = r[:len(r)-v.trim]
	}
	return r
}

// Total reports the number of bytes the view represents across all regions.
func (v Regions) Total() int {
	n := 0
	for i := range v.regs {
		n += len(v.At(i))
	}
	return n
}

// Adjust narrows the view to the sub-range [pos, pos+limit) of the flattened
// byte stream it represents, expressed purely through recomputed discounts
// and a shortened region range. No bytes are copied.
//
// A pos at or beyond the view's total length, or a limit of zero, yields an
// empty view. A limit beyond the available length clamps to what is
// available. Adjust composes: narrowing twice equals one narrowing with the
// combined offset and length.
func (v Regions) Adjust(pos, limit int) Regions {
	if pos < 0 || limit < 0 {
		panic("buffer: Adjust with negative argument")
	}
	total := v.Total()
	if pos >= total || limit == 0 {
		return Regions{}
	}
	if limit > total-pos {
		limit = total - pos
	}

	// Locate the first region and the bytes skipped within it.
	first := 0
	for pos >= len(v.At(first)) {
		pos -= len(v.At(first))
		first++
	}
	skip := pos
	if first == 0 {
		skip += v.skip
	}

	// Walk forward until limit bytes are covered, then trim the rest of the
	// last region.
	last := first
	rem := limit
	for {
		n := len(v.At(last))
		if last == first {
			n -= pos
		}
		if rem <= n {
			break
		}
		rem -= n
		last++
	}
	trim := len(v.At(last)) - rem
	if last == first {
		trim -= pos
	}
	if last == len(v.regs)-1 {
		trim += v.trim
	}

	return Regions{regs: v.regs[first : last+1], skip: skip, trim: trim}
}

// Index translates a byte offset into a (region, offset-within-region) pair.
// It reports (Len(), 0) when pos is at or beyond the view's total length.
func (v Regions) Index(pos int) (int, int) {
	if pos < 0 {
		panic("buffer: Index with negative position")
	}
	for i := 0; i < len(v.regs); i++ {
		n := len(v.At(i))
		if pos < n {
			return i, pos
		}
		pos -= n
	}
	return len(v.regs), 0
}

// AppendTo appends the view's bytes to dst and returns the extended slice.
func (v Regions) AppendTo(dst []byte) []byte {
	for i := range v.regs {
		dst = append(dst, v.At(i)...)
	}
	return dst
}

// CopyTo copies the view's bytes into dst, stopping at whichever is
// exhausted first, and reports the number of bytes copied.
func (v Regions) CopyTo(dst []byte) int {
	n := 0
	for i := range v.regs {
		n += copy(dst[n:], v.At(i))
		if n == len(dst) {
			break
		}
	}
	return n
}

// Slices returns the view's regions as plain byte slices with discounts
// applied, suitable for scatter/gather I/O such as net.Buffers.
func (v Regions) Slices() [][]byte {
	out := make([][]byte, len(v.regs))
	for i := range v.regs {
		out[i] = v.At(i)
	}
	return out
}
