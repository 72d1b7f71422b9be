// Package stream defines the asynchronous transport interface consumed by
// protocol state machines, composed read/write operations over it, and an
// adapter backed by net.Conn.
//
// A Stream performs at most one read and one write at a time per owner.
// Completion handlers are invoked with (error, bytes transferred) once the
// operation finishes; an Executor decides on which goroutine that happens.
// State machines built on this package are cooperatively suspended: they
// issue one operation, return, and resume inside the completion handler.
package stream
