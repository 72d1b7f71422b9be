package socks

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/madmongo1/beast/buffer"
	"github.com/madmongo1/beast/stream"
)

// script is an in-memory Stream feeding canned server bytes and recording
// every operation in order, so tests can assert exact wire output and exact
// read/write sequencing.
type script struct {
	replies []byte // remaining server-to-client bytes
	wrote   []byte // everything the client sent
	ops     string // one letter per transport op: W or R
}

func (s *script) AsyncReadSome(v buffer.Regions, fn stream.CompletionFunc) {
	s.ops += "R"
	if v.Len() == 0 {
		fn(nil, 0)
		return
	}
	if len(s.replies) == 0 {
		fn(io.ErrUnexpectedEOF, 0)
		return
	}
	n := copy(v.At(0), s.replies)
	s.replies = s.replies[n:]
	fn(nil, n)
}

func (s *script) AsyncWriteSome(v buffer.Regions, fn stream.CompletionFunc) {
	s.ops += "W"
	s.wrote = v.AppendTo(s.wrote)
	fn(nil, v.Total())
}

func runHandshake(t *testing.T, s *script, auth Auth, address string) error {
	t.Helper()

	var result error
	called := 0
	c := NewClient(s, auth)
	c.Connect(address, func(err error) {
		called++
		result = err
	})
	if called != 1 {
		t.Fatalf("completion called %d times", called)
	}
	return result
}

func ipv4Reply(rep byte) []byte {
	return []byte{Version, rep, 0x00, ATYPIPv4, 10, 0, 0, 1, 0x1f, 0x90}
}

func TestHandshakeNoAuthIPv4(t *testing.T) {
	s := &script{}
	s.replies = append(s.replies, Version, MethodNone)
	s.replies = append(s.replies, ipv4Reply(ReplySuccess)...)

	c := NewClient(s, Auth{})
	var result error
	c.Connect("192.0.2.10:443", func(err error) { result = err })

	if result != nil {
		t.Fatal(result)
	}

	want := []byte{
		Version, 1, MethodNone, // greeting
		Version, CmdConnect, 0x00, ATYPIPv4, 192, 0, 2, 10, 0x01, 0xbb, // connect
	}
	if !bytes.Equal(s.wrote, want) {
		t.Fatalf("wrote % 02x, want % 02x", s.wrote, want)
	}
	if s.ops != "WRWRR" {
		t.Fatalf("op sequence %q, want WRWRR", s.ops)
	}
	if got := c.Bound(); got != "10.0.0.1:8080" {
		t.Fatalf("Bound() = %q", got)
	}
}

func TestHandshakeUserPass(t *testing.T) {
	s := &script{}
	s.replies = append(s.replies, Version, MethodUserPass)
	s.replies = append(s.replies, AuthVersion, 0x00)
	s.replies = append(s.replies, ipv4Reply(ReplySuccess)...)

	err := runHandshake(t, s, Auth{Username: "user", Password: "pass"}, "192.0.2.10:80")
	if err != nil {
		t.Fatal(err)
	}

	greeting := []byte{Version, 2, MethodNone, MethodUserPass}
	if !bytes.HasPrefix(s.wrote, greeting) {
		t.Fatalf("greeting % 02x does not advertise both methods", s.wrote[:4])
	}
	authMsg := []byte{AuthVersion, 4, 'u', 's', 'e', 'r', 4, 'p', 'a', 's', 's'}
	if !bytes.Equal(s.wrote[len(greeting):len(greeting)+len(authMsg)], authMsg) {
		t.Fatalf("auth message % 02x, want % 02x", s.wrote[len(greeting):], authMsg)
	}
	if s.ops != "WRWRWRR" {
		t.Fatalf("op sequence %q, want WRWRWRR", s.ops)
	}
}

func TestHandshakeMissingUsername(t *testing.T) {
	s := &script{replies: []byte{Version, MethodUserPass}}

	err := runHandshake(t, s, Auth{}, "example.com:80")
	if !errors.Is(err, ErrMissingUsername) {
		t.Fatalf("err = %v, want ErrMissingUsername", err)
	}

	// Fails before any auth bytes are sent: only the greeting went out.
	if want := []byte{Version, 1, MethodNone}; !bytes.Equal(s.wrote, want) {
		t.Fatalf("wrote % 02x after missing-credentials failure", s.wrote)
	}
	if s.ops != "WR" {
		t.Fatalf("op sequence %q, want WR", s.ops)
	}
}

func TestHandshakeAuthFailed(t *testing.T) {
	s := &script{}
	s.replies = append(s.replies, Version, MethodUserPass)
	s.replies = append(s.replies, AuthVersion, 0x01)

	err := runHandshake(t, s, Auth{Username: "u", Password: "p"}, "example.com:80")
	if !errors.Is(err, ErrAuthFailed) {
		t.Fatalf("err = %v, want ErrAuthFailed", err)
	}
}

func TestHandshakeUnsupportedMethod(t *testing.T) {
	s := &script{replies: []byte{Version, MethodUnacceptable}}

	err := runHandshake(t, s, Auth{}, "example.com:80")
	if !errors.Is(err, ErrUnsupportedMethod) {
		t.Fatalf("err = %v, want ErrUnsupportedMethod", err)
	}
}

func TestHandshakeBadGreetingVersion(t *testing.T) {
	s := &script{replies: []byte{0x04, MethodNone}}

	err := runHandshake(t, s, Auth{}, "example.com:80")
	if !errors.Is(err, ErrUnsupportedVersion) {
		t.Fatalf("err = %v, want ErrUnsupportedVersion", err)
	}
}

func TestHandshakeConnectionRefused(t *testing.T) {
	s := &script{}
	s.replies = append(s.replies, Version, MethodNone)
	s.replies = append(s.replies, ipv4Reply(ReplyConnectionRefused)...)

	err := runHandshake(t, s, Auth{}, "192.0.2.10:443")
	if !errors.Is(err, ErrConnectionRefused) {
		t.Fatalf("err = %v, want ErrConnectionRefused", err)
	}

	// The reply is fully consumed and then no further reads are issued:
	// header read plus remainder read after the connect write, nothing more.
	if s.ops != "WRWRR" {
		t.Fatalf("op sequence %q, want WRWRR", s.ops)
	}
	if len(s.replies) != 0 {
		t.Fatalf("%d reply bytes left unread", len(s.replies))
	}
}

func TestHandshakeDomainReply(t *testing.T) {
	host := "example.com"
	reply := []byte{Version, ReplySuccess, 0x00, ATYPDomain, byte(len(host))}
	reply = append(reply, host...)
	reply = append(reply, 0x00, 0x50)

	s := &script{}
	s.replies = append(s.replies, Version, MethodNone)
	s.replies = append(s.replies, reply...)

	c := NewClient(s, Auth{})
	var result error
	c.Connect("192.0.2.10:80", func(err error) { result = err })

	if result != nil {
		t.Fatal(result)
	}
	// Variable-length reply still takes exactly two reads after the connect
	// write: the fixed header and then the remainder sized from it.
	if s.ops != "WRWRR" {
		t.Fatalf("op sequence %q, want WRWRR", s.ops)
	}
	if got := c.Bound(); got != "example.com:80" {
		t.Fatalf("Bound() = %q", got)
	}
}

func TestHandshakeIPv6Reply(t *testing.T) {
	reply := []byte{Version, ReplySuccess, 0x00, ATYPIPv6}
	reply = append(reply, bytes.Repeat([]byte{0}, 15)...)
	reply = append(reply, 1, 0x00, 0x50)

	s := &script{}
	s.replies = append(s.replies, Version, MethodNone)
	s.replies = append(s.replies, reply...)

	c := NewClient(s, Auth{})
	var result error
	c.Connect("192.0.2.10:80", func(err error) { result = err })

	if result != nil {
		t.Fatal(result)
	}
	if got := c.Bound(); got != "[::1]:80" {
		t.Fatalf("Bound() = %q", got)
	}
}

func TestConnectRequestEncodings(t *testing.T) {
	tests := []struct {
		name    string
		address string
		want    []byte
	}{
		{
			name:    "ipv4",
			address: "192.0.2.1:80",
			want:    []byte{Version, CmdConnect, 0x00, ATYPIPv4, 192, 0, 2, 1, 0x00, 0x50},
		},
		{
			name:    "ipv6",
			address: "[2001:db8::1]:443",
			want: append(append([]byte{Version, CmdConnect, 0x00, ATYPIPv6,
				0x20, 0x01, 0x0d, 0xb8}, bytes.Repeat([]byte{0}, 11)...), 0x01, 0x01, 0xbb),
		},
		{
			name:    "domain",
			address: "example.com:80",
			want: append(append([]byte{Version, CmdConnect, 0x00, ATYPDomain, 11},
				[]byte("example.com")...), 0x00, 0x50),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &script{}
			s.replies = append(s.replies, Version, MethodNone)
			s.replies = append(s.replies, ipv4Reply(ReplySuccess)...)

			if err := runHandshake(t, s, Auth{}, tt.address); err != nil {
				t.Fatal(err)
			}

			connect := s.wrote[3:] // skip the greeting
			if !bytes.Equal(connect, tt.want) {
				t.Fatalf("connect request % 02x, want % 02x", connect, tt.want)
			}
		})
	}
}

func TestHandshakeDomainTooLong(t *testing.T) {
	s := &script{}
	address := strings.Repeat("a", 256) + ":80"

	err := runHandshake(t, s, Auth{}, address)
	if !errors.Is(err, ErrDomainTooLong) {
		t.Fatalf("err = %v, want ErrDomainTooLong", err)
	}
	if len(s.ops) != 0 {
		t.Fatalf("transport touched before validation: %q", s.ops)
	}
}

func TestHandshakeBadAddress(t *testing.T) {
	s := &script{}
	if err := runHandshake(t, s, Auth{}, "no-port-here"); err == nil {
		t.Fatal("expected address parse error")
	}
	if len(s.ops) != 0 {
		t.Fatalf("transport touched before validation: %q", s.ops)
	}
}

func TestHandshakeTransportErrorPropagated(t *testing.T) {
	s := &script{} // no reply bytes at all

	err := runHandshake(t, s, Auth{}, "192.0.2.10:80")
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Fatalf("err = %v, want transport error verbatim", err)
	}
}

func TestReplyErrorMapping(t *testing.T) {
	tests := []struct {
		code byte
		want error
	}{
		{ReplyGeneralFailure, ErrGeneralFailure},
		{ReplyRulesetDenied, ErrRulesetDenied},
		{ReplyNetworkUnreachable, ErrNetworkUnreachable},
		{ReplyHostUnreachable, ErrHostUnreachable},
		{ReplyConnectionRefused, ErrConnectionRefused},
		{ReplyTTLExpired, ErrTTLExpired},
		{ReplyCommandNotSupported, ErrCommandNotSupported},
		{ReplyAddressTypeNotSupported, ErrAddressTypeNotSupported},
		{0x09, ErrUnassignedReply},
		{0xfe, ErrUnassignedReply},
	}

	for _, tt := range tests {
		s := &script{}
		s.replies = append(s.replies, Version, MethodNone)
		s.replies = append(s.replies, ipv4Reply(tt.code)...)

		err := runHandshake(t, s, Auth{}, "192.0.2.10:80")
		if !errors.Is(err, tt.want) {
			t.Fatalf("code 0x%02x: err = %v, want %v", tt.code, err, tt.want)
		}
	}
}
