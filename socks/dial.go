package socks

import (
	"net"

	"github.com/madmongo1/beast/stream"
)

// Dial performs the SOCKS5 handshake for address over an already-connected
// conn, blocking until the handshake completes. On success the connection
// carries traffic for the target; on error the caller should close it.
//
// Deadlines compose externally: set one on conn before calling to bound the
// negotiation.
func Dial(conn net.Conn, auth Auth, address string) error {
	errc := make(chan error, 1)

	c := NewClient(stream.NewNetConn(conn, nil), auth)
	c.Connect(address, func(err error) { errc <- err })

	return <-errc
}
