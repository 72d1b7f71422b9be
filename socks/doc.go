// Package socks implements the client side of the SOCKS5 CONNECT handshake
// (RFC 1928) with optional username/password authentication (RFC 1929) as a
// suspendable state machine over a stream.Stream.
//
// Each step performs at most one asynchronous read or write and suspends;
// the transport completion re-enters the machine. The first error of any
// kind, transport or protocol, moves the machine to its terminal state and
// delivers the single completion. Nothing is retried.
//
// Dial wraps the state machine in a blocking call for callers holding an
// ordinary net.Conn.
package socks
