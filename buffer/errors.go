package buffer

import "errors"

// ErrMaxSize is returned by Prepare when satisfying the request would push the
// buffer past its configured maximum size. The failed call leaves the buffer
// unchanged.
var ErrMaxSize = errors.New("buffer: maximum size exceeded")
