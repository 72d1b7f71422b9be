package stream

import (
	"net"

	"github.com/madmongo1/beast/buffer"
)

// Executor decides where completion handlers run. Implementations must run
// each submitted function exactly once.
type Executor interface {
	Dispatch(fn func())
}

// Inline runs completions directly on the goroutine that performed the I/O.
// Safe for a single state machine per stream; machines sharing state need a
// Loop instead.
type Inline struct{}

func (Inline) Dispatch(fn func()) { fn() }

// Loop serializes completions from many streams onto one goroutine, giving a
// group of state machines the single-threaded discipline they assume. Run
// processes handlers until Close.
type Loop struct {
	ch   chan func()
	done chan struct{}
}

// NewLoop returns a Loop ready for Run.
func NewLoop() *Loop {
	return &Loop{
		ch:   make(chan func(), 16),
		done: make(chan struct{}),
	}
}

// Dispatch queues fn for the Run goroutine. Handlers submitted after Close
// are dropped.
func (l *Loop) Dispatch(fn func()) {
	select {
	case l.ch <- fn:
	case <-l.done:
	}
}

// Run executes handlers until Close is called. It is intended to be the only
// goroutine touching the state machines whose completions it runs.
func (l *Loop) Run() {
	for {
		select {
		case fn := <-l.ch:
			fn()
		case <-l.done:
			return
		}
	}
}

// Close stops Run. Pending handlers may be dropped.
func (l *Loop) Close() { close(l.done) }

// NetConn adapts a net.Conn to the Stream interface. Each operation runs on
// its own goroutine and posts its completion through the Executor. Closing
// the conn causes any outstanding operation to complete with the conn's
// error, which state machines treat like any other terminal error.
type NetConn struct {
	conn net.Conn
	exec Executor
}

// NewNetConn wraps conn. A nil exec selects Inline.
func NewNetConn(conn net.Conn, exec Executor) *NetConn {
	if exec == nil {
		exec = Inline{}
	}
	return &NetConn{conn: conn, exec: exec}
}

// Conn returns the wrapped connection.
func (c *NetConn) Conn() net.Conn { return c.conn }

// AsyncReadSome reads once from the connection into the view's first region.
// A short read into the first region satisfies the read-some contract; larger
// transfers are composed by ReadExactly.
func (c *NetConn) AsyncReadSome(v buffer.Regions, fn CompletionFunc) {
	if v.Len() == 0 {
		c.exec.Dispatch(func() { fn(nil, 0) })
		return
	}
	dst := v.At(0)
	go func() {
		n, err := c.conn.Read(dst)
		c.exec.Dispatch(func() { fn(err, n) })
	}()
}

// AsyncWriteSome gather-writes the view using net.Buffers, which uses writev
// where the platform supports it.
func (c *NetConn) AsyncWriteSome(v buffer.Regions, fn CompletionFunc) {
	if v.Len() == 0 {
		c.exec.Dispatch(func() { fn(nil, 0) })
		return
	}
	bufs := net.Buffers(v.Slices())
	go func() {
		n, err := bufs.WriteTo(c.conn)
		c.exec.Dispatch(func() { fn(err, int(n)) })
	}()
}
