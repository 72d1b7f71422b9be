package socks

// Protocol constants from RFC 1928 and RFC 1929.
const (
	Version     = 0x05 // SOCKS protocol version
	AuthVersion = 0x01 // username/password subnegotiation version

	MethodNone         = 0x00
	MethodUserPass     = 0x02
	MethodUnacceptable = 0xff

	CmdConnect = 0x01

	ATYPIPv4   = 0x01
	ATYPDomain = 0x03
	ATYPIPv6   = 0x04
)

// Reply codes carried in the second byte of the server's CONNECT reply.
const (
	ReplySuccess                 = 0x00
	ReplyGeneralFailure          = 0x01
	ReplyRulesetDenied           = 0x02
	ReplyNetworkUnreachable      = 0x03
	ReplyHostUnreachable         = 0x04
	ReplyConnectionRefused       = 0x05
	ReplyTTLExpired              = 0x06
	ReplyCommandNotSupported     = 0x07
	ReplyAddressTypeNotSupported = 0x08
)

// replyHeaderLen covers VER, REP, RSV, ATYP, and the first address byte. The
// first address byte is included so a domain reply's length prefix is known
// before sizing the second read.
const replyHeaderLen = 5

// maxDomainLen is the largest hostname a length-prefixed domain address can
// carry.
const maxDomainLen = 255
