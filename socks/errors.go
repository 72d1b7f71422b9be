package socks

import (
	"errors"
	"fmt"
)

// Protocol violation errors. Transport errors from the underlying stream are
// propagated verbatim; callers cannot (and need not) distinguish "the socket
// failed" from "the peer sent garbage".
var (
	ErrUnsupportedVersion     = errors.New("socks: unsupported protocol version")
	ErrUnsupportedMethod      = errors.New("socks: unsupported authentication method")
	ErrUnsupportedAuthVersion = errors.New("socks: unsupported username/password subnegotiation version")
	ErrMissingUsername        = errors.New("socks: server requires username/password but none supplied")
	ErrAuthFailed             = errors.New("socks: username/password authentication rejected")
	ErrDomainTooLong          = errors.New("socks: domain name exceeds 255 bytes")
	ErrCredentialsTooLong     = errors.New("socks: username or password exceeds 255 bytes")
)

// Errors mapped from the server's CONNECT reply code.
var (
	ErrGeneralFailure          = errors.New("socks: general SOCKS server failure")
	ErrRulesetDenied           = errors.New("socks: connection not allowed by ruleset")
	ErrNetworkUnreachable      = errors.New("socks: network unreachable")
	ErrHostUnreachable         = errors.New("socks: host unreachable")
	ErrConnectionRefused       = errors.New("socks: connection refused")
	ErrTTLExpired              = errors.New("socks: TTL expired")
	ErrCommandNotSupported     = errors.New("socks: command not supported")
	ErrAddressTypeNotSupported = errors.New("socks: address type not supported")
	ErrUnassignedReply         = errors.New("socks: unassigned reply code")
)

// replyError maps a CONNECT reply code to its error. ReplySuccess maps to
// nil; anything past the defined codes maps to ErrUnassignedReply.
func replyError(code byte) error {
	switch code {
	case ReplySuccess:
		return nil
	case ReplyGeneralFailure:
		return ErrGeneralFailure
	case ReplyRulesetDenied:
		return ErrRulesetDenied
	case ReplyNetworkUnreachable:
		return ErrNetworkUnreachable
	case ReplyHostUnreachable:
		return ErrHostUnreachable
	case ReplyConnectionRefused:
		return ErrConnectionRefused
	case ReplyTTLExpired:
		return ErrTTLExpired
	case ReplyCommandNotSupported:
		return ErrCommandNotSupported
	case ReplyAddressTypeNotSupported:
		return ErrAddressTypeNotSupported
	default:
		return fmt.Errorf("%w: 0x%02x", ErrUnassignedReply, code)
	}
}
