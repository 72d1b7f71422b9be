package stream

import (
	"errors"

	"github.com/madmongo1/beast/buffer"
)

// CompletionFunc is invoked exactly once when an asynchronous operation
// finishes, with the transport error (nil on success) and the number of bytes
// transferred before any error.
type CompletionFunc func(err error, n int)

// Stream is the transport collaborator: scatter reads into and gather writes
// from a Regions view. Read and write completions carry short counts; callers
// needing exact lengths compose with ReadExactly and WriteAll.
//
// Implementations must support one outstanding read and one outstanding
// write; issuing a second operation of the same kind before the first
// completes is a caller error.
type Stream interface {
	// AsyncReadSome fills some prefix of v with available data and
	// completes with the count. A completion of (nil, 0) is only delivered
	// for an empty view.
	AsyncReadSome(v buffer.Regions, fn CompletionFunc)

	// AsyncWriteSome drains some prefix of v and completes with the count.
	AsyncWriteSome(v buffer.Regions, fn CompletionFunc)
}

// ErrShortTransfer is delivered when a transport completes with zero bytes
// and no error against a non-empty view, which would otherwise spin a
// composed operation forever.
var ErrShortTransfer = errors.New("stream: zero-length transfer")

// ReadExactly reads until exactly n additional bytes have been committed to
// buf, then delivers a single completion. Each transport completion commits
// what arrived, so on failure buf holds every byte received before the error
// and fn receives that count.
func ReadExactly(s Stream, buf *buffer.MultiBuffer, n int, fn CompletionFunc) {
	readMore(s, buf, n, 0, fn)
}

func readMore(s Stream, buf *buffer.MultiBuffer, want, got int, fn CompletionFunc) {
	if want == got {
		fn(nil, got)
		return
	}

	v, err := buf.Prepare(want - got)
	if err != nil {
		fn(err, got)
		return
	}

	s.AsyncReadSome(v, func(err error, n int) {
		buf.Commit(n)
		if err == nil && n == 0 {
			err = ErrShortTransfer
		}
		if err != nil {
			fn(err, got+n)
			return
		}
		readMore(s, buf, want, got+n, fn)
	})
}

// WriteAll writes every byte of v, then delivers a single completion carrying
// the total written before success or the first error.
func WriteAll(s Stream, v buffer.Regions, fn CompletionFunc) {
	writeMore(s, v, 0, fn)
}

func writeMore(s Stream, v buffer.Regions, done int, fn CompletionFunc) {
	total := v.Total()
	if done == total {
		fn(nil, done)
		return
	}

	s.AsyncWriteSome(v.Adjust(done, total-done), func(err error, n int) {
		if err == nil && n == 0 {
			err = ErrShortTransfer
		}
		if err != nil {
			fn(err, done+n)
			return
		}
		writeMore(s, v, done+n, fn)
	})
}
