package socks

import (
	"encoding/binary"
	"fmt"
	"net"
	"net/netip"
	"strconv"

	"github.com/madmongo1/beast/buffer"
	"github.com/madmongo1/beast/stream"
)

// Auth configures optional username/password authentication. A non-empty
// Username makes the client advertise the username/password method alongside
// no-auth.
type Auth struct {
	Username string
	Password string
}

// scratchLimit bounds the handshake scratch buffers. The largest message in
// either direction is the 513-byte auth request.
const scratchLimit = 1024

type step int

const (
	stepIdle step = iota
	stepGreetingSent
	stepMethodRead
	stepAuthSent
	stepAuthReplyRead
	stepConnectSent
	stepReplyHeaderRead
	stepReplyRestRead
	stepDone
)

// Client drives one SOCKS5 CONNECT handshake over a Stream. It is single-use:
// create one per connection, call Connect once, and read Bound after a
// successful completion.
//
// The machine has exactly one asynchronous operation outstanding at any time
// and must not be touched concurrently with its own completions.
type Client struct {
	stream stream.Stream
	auth   Auth

	host string
	port uint16
	dst  netip.Addr
	isIP bool

	req  *buffer.MultiBuffer
	resp *buffer.MultiBuffer

	step  step
	done  func(error)
	bound string
}

// NewClient returns a Client ready for Connect.
func NewClient(s stream.Stream, auth Auth) *Client {
	return &Client{
		stream: s,
		auth:   auth,
		req:    buffer.NewOptions(buffer.Options{MaxSize: scratchLimit}),
		resp:   buffer.NewOptions(buffer.Options{MaxSize: scratchLimit}),
		step:   stepIdle,
	}
}

// Connect starts the handshake for the given "host:port" target. done is
// invoked exactly once, with nil on success or the first transport or
// protocol error encountered. Argument validation failures are delivered
// through done before any bytes are written.
func (c *Client) Connect(address string, done func(error)) {
	if c.step != stepIdle {
		panic("socks: Connect called twice")
	}
	c.done = done

	host, portStr, err := net.SplitHostPort(address)
	if err != nil {
		c.finish(fmt.Errorf("socks: parse address %q: %w", address, err))
		return
	}
	port, err := strconv.ParseUint(portStr, 10, 16)
	if err != nil {
		c.finish(fmt.Errorf("socks: parse port %q: %w", portStr, err))
		return
	}
	c.host = host
	c.port = uint16(port)

	if addr, err := netip.ParseAddr(host); err == nil {
		c.dst = addr.Unmap()
		c.isIP = true
	} else if len(host) > maxDomainLen {
		c.finish(ErrDomainTooLong)
		return
	}

	if len(c.auth.Username) > maxDomainLen || len(c.auth.Password) > maxDomainLen {
		c.finish(ErrCredentialsTooLong)
		return
	}

	msg := []byte{Version, 1, MethodNone}
	if c.auth.Username != "" {
		msg = []byte{Version, 2, MethodNone, MethodUserPass}
	}
	if err := c.push(c.req, msg); err != nil {
		c.finish(err)
		return
	}
	c.step = stepGreetingSent
	stream.WriteAll(c.stream, c.req.Data(), c.resume)
}

// Bound returns the server's bound address as "host:port" after a successful
// handshake.
func (c *Client) Bound() string { return c.bound }

// resume is the single re-entry point: every transport completion lands here
// and is dispatched on the current step. A non-nil error at any step is
// terminal.
func (c *Client) resume(err error, n int) {
	_ = n
	if err != nil {
		c.finish(err)
		return
	}

	switch c.step {
	case stepGreetingSent:
		c.req.Consume(c.req.Size())
		c.step = stepMethodRead
		stream.ReadExactly(c.stream, c.resp, 2, c.resume)

	case stepMethodRead:
		c.onMethodSelection()

	case stepAuthSent:
		c.req.Consume(c.req.Size())
		c.step = stepAuthReplyRead
		stream.ReadExactly(c.stream, c.resp, 2, c.resume)

	case stepAuthReplyRead:
		c.onAuthReply()

	case stepConnectSent:
		c.req.Consume(c.req.Size())
		c.step = stepReplyHeaderRead
		stream.ReadExactly(c.stream, c.resp, replyHeaderLen, c.resume)

	case stepReplyHeaderRead:
		c.onReplyHeader()

	case stepReplyRestRead:
		c.onReplyRest()

	default:
		panic("socks: completion delivered in terminal state")
	}
}

func (c *Client) onMethodSelection() {
	var hdr [2]byte
	c.resp.Data().CopyTo(hdr[:])

	if hdr[0] != Version {
		c.finish(ErrUnsupportedVersion)
		return
	}

	switch hdr[1] {
	case MethodNone:
		c.resp.Consume(2)
		c.sendConnect()
	case MethodUserPass:
		if c.auth.Username == "" {
			c.finish(ErrMissingUsername)
			return
		}
		c.resp.Consume(2)
		c.sendAuth()
	default:
		c.finish(fmt.Errorf("%w: 0x%02x", ErrUnsupportedMethod, hdr[1]))
	}
}

func (c *Client) sendAuth() {
	msg := make([]byte, 0, 3+len(c.auth.Username)+len(c.auth.Password))
	msg = append(msg, AuthVersion, byte(len(c.auth.Username)))
	msg = append(msg, c.auth.Username...)
	msg = append(msg, byte(len(c.auth.Password)))
	msg = append(msg, c.auth.Password...)

	if err := c.push(c.req, msg); err != nil {
		c.finish(err)
		return
	}
	c.step = stepAuthSent
	stream.WriteAll(c.stream, c.req.Data(), c.resume)
}

func (c *Client) onAuthReply() {
	var hdr [2]byte
	c.resp.Data().CopyTo(hdr[:])
	c.resp.Consume(2)

	if hdr[0] != AuthVersion {
		c.finish(ErrUnsupportedAuthVersion)
		return
	}
	if hdr[1] != 0x00 {
		c.finish(ErrAuthFailed)
		return
	}
	c.sendConnect()
}

func (c *Client) sendConnect() {
	msg := make([]byte, 0, 7+len(c.host))
	msg = append(msg, Version, CmdConnect, 0x00)
	switch {
	case c.isIP && c.dst.Is4():
		a := c.dst.As4()
		msg = append(msg, ATYPIPv4)
		msg = append(msg, a[:]...)
	case c.isIP:
		a := c.dst.As16()
		msg = append(msg, ATYPIPv6)
		msg = append(msg, a[:]...)
	default:
		msg = append(msg, ATYPDomain, byte(len(c.host)))
		msg = append(msg, c.host...)
	}
	msg = binary.BigEndian.AppendUint16(msg, c.port)

	if err := c.push(c.req, msg); err != nil {
		c.finish(err)
		return
	}
	c.step = stepConnectSent
	stream.WriteAll(c.stream, c.req.Data(), c.resume)
}

// onReplyHeader sizes the second read from the bytes still missing: the total
// reply length implied by ATYP minus the replyHeaderLen bytes already
// buffered.
func (c *Client) onReplyHeader() {
	var hdr [replyHeaderLen]byte
	c.resp.Data().CopyTo(hdr[:])

	if hdr[0] != Version {
		c.finish(ErrUnsupportedVersion)
		return
	}

	var rest int
	switch hdr[3] {
	case ATYPIPv4:
		rest = 4 + 4 + 2 - replyHeaderLen
	case ATYPIPv6:
		rest = 4 + 16 + 2 - replyHeaderLen
	case ATYPDomain:
		rest = 4 + 1 + int(hdr[4]) + 2 - replyHeaderLen
	default:
		c.finish(ErrGeneralFailure)
		return
	}

	c.step = stepReplyRestRead
	stream.ReadExactly(c.stream, c.resp, rest, c.resume)
}

func (c *Client) onReplyRest() {
	raw := c.resp.Data().AppendTo(make([]byte, 0, c.resp.Size()))
	c.resp.Consume(c.resp.Size())

	if err := replyError(raw[1]); err != nil {
		c.finish(err)
		return
	}

	var host string
	var port uint16
	switch raw[3] {
	case ATYPIPv4:
		host = netip.AddrFrom4([4]byte(raw[4:8])).String()
		port = binary.BigEndian.Uint16(raw[8:10])
	case ATYPIPv6:
		host = netip.AddrFrom16([16]byte(raw[4:20])).String()
		port = binary.BigEndian.Uint16(raw[20:22])
	case ATYPDomain:
		l := int(raw[4])
		host = string(raw[5 : 5+l])
		port = binary.BigEndian.Uint16(raw[5+l : 7+l])
	}
	c.bound = net.JoinHostPort(host, strconv.Itoa(int(port)))

	c.finish(nil)
}

// finish delivers the completion exactly once and parks the machine in its
// terminal state.
func (c *Client) finish(err error) {
	if c.step == stepDone {
		return
	}
	c.step = stepDone
	done := c.done
	c.done = nil
	done(err)
}

// push serializes msg onto the end of b's readable run through a prepared
// view. A capacity failure is reported synchronously.
func (c *Client) push(b *buffer.MultiBuffer, msg []byte) error {
	v, err := b.Prepare(len(msg))
	if err != nil {
		return err
	}
	n := 0
	for i := 0; i < v.Len(); i++ {
		n += copy(v.At(i), msg[n:])
	}
	b.Commit(len(msg))
	return nil
}
