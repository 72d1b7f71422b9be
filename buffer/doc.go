// Package buffer implements a resizable byte buffer backed by a sequence of
// discontiguous memory blocks, for use with scatter/gather network I/O.
//
// A MultiBuffer divides its storage into two logical runs: committed readable
// bytes at the front, followed by prepared writable spare capacity. Callers
// reserve space with Prepare, fill it (typically from a socket), publish it
// with Commit, observe it through Data, and retire it with Consume. Committed
// bytes are never moved or copied by growth, so readable views stay valid
// while the buffer grows.
//
// Regions is the view type returned by Data and Prepare: a random-access
// sequence of byte slices plus front/back trim amounts, narrowable with
// Adjust without copying any bytes.
//
// MultiBuffer is not safe for concurrent use. Each instance is intended to be
// owned by exactly one protocol state machine at a time.
package buffer
