// Package httpmsg provides an incremental HTTP/1.x request parser that pulls
// from a buffer.MultiBuffer. Feed bytes into the buffer as they arrive and
// call Parse after each arrival: it returns ErrNeedMore until a full message
// is buffered, then consumes exactly the parsed bytes so pipelined messages
// parse back to back.
package httpmsg

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"

	"github.com/madmongo1/beast/buffer"
)

// Parse errors. ErrNeedMore is retryable after more input arrives; the others
// are terminal for the connection.
var (
	ErrNeedMore         = errors.New("httpmsg: need more data")
	ErrMalformedLine    = errors.New("httpmsg: malformed start line")
	ErrMalformedHeader  = errors.New("httpmsg: malformed header")
	ErrHeaderTooLarge   = errors.New("httpmsg: header block too large")
	ErrTooManyHeaders   = errors.New("httpmsg: too many headers")
	ErrBadContentLength = errors.New("httpmsg: bad Content-Length")
)

// Header is a single parsed header field.
type Header struct {
	Key   string
	Value string
}

// Message is one parsed HTTP/1.x request message. All fields are copies;
// they remain valid after the source buffer is consumed or reused.
type Message struct {
	Method  string
	Target  string
	Proto   string
	Headers []Header
	Body    []byte
}

// Get returns the first value of the named header using case-insensitive
// matching, or "" when absent.
func (m *Message) Get(key string) string {
	for _, h := range m.Headers {
		if len(h.Key) == len(key) && bytes.EqualFold([]byte(h.Key), []byte(key)) {
			return h.Value
		}
	}
	return ""
}

// Parser holds parse limits and reusable scratch space. The zero value is
// ready to use with default limits.
type Parser struct {
	// MaxHeaderBytes caps the start line plus header block. Zero or
	// negative selects 8192.
	MaxHeaderBytes int

	// MaxHeaders caps the number of header fields. Zero or negative
	// selects 100.
	MaxHeaders int

	scratch []byte
}

const (
	defaultMaxHeaderBytes = 8192
	defaultMaxHeaders     = 100
)

// Parse attempts to parse one complete message from the front of buf. On
// success the parsed bytes are consumed from buf. ErrNeedMore leaves buf
// untouched; any other error is a protocol violation and also leaves buf
// untouched so the caller can inspect the offending bytes.
func (p *Parser) Parse(buf *buffer.MultiBuffer) (*Message, error) {
	p.scratch = buf.Data().AppendTo(p.scratch[:0])

	msg, n, err := p.parse(p.scratch)
	if err != nil {
		return nil, err
	}
	buf.Consume(n)
	return msg, nil
}

func (p *Parser) parse(raw []byte) (*Message, int, error) {
	maxHeader := p.MaxHeaderBytes
	if maxHeader <= 0 {
		maxHeader = defaultMaxHeaderBytes
	}
	maxCount := p.MaxHeaders
	if maxCount <= 0 {
		maxCount = defaultMaxHeaders
	}

	msg := &Message{}
	pos := 0

	// Request line: METHOD SP TARGET SP PROTO CRLF.
	sp := bytes.IndexByte(raw, ' ')
	if sp < 0 {
		return nil, 0, p.incomplete(len(raw), maxHeader)
	}
	if sp == 0 {
		return nil, 0, ErrMalformedLine
	}
	msg.Method = string(raw[:sp])
	pos = sp + 1

	sp = bytes.IndexByte(raw[pos:], ' ')
	if sp < 0 {
		return nil, 0, p.incomplete(len(raw), maxHeader)
	}
	if sp == 0 {
		return nil, 0, ErrMalformedLine
	}
	msg.Target = string(raw[pos : pos+sp])
	pos += sp + 1

	lf := bytes.IndexByte(raw[pos:], '\n')
	if lf < 0 {
		return nil, 0, p.incomplete(len(raw), maxHeader)
	}
	if lf == 0 || raw[pos+lf-1] != '\r' {
		return nil, 0, ErrMalformedLine
	}
	msg.Proto = string(raw[pos : pos+lf-1])
	pos += lf + 1

	// Header fields until the blank CRLF line.
	contentLen := 0
	for {
		if pos > maxHeader {
			return nil, 0, ErrHeaderTooLarge
		}
		if pos+1 >= len(raw) {
			return nil, 0, p.incomplete(len(raw), maxHeader)
		}
		if raw[pos] == '\r' && raw[pos+1] == '\n' {
			pos += 2
			break
		}

		lf = bytes.IndexByte(raw[pos:], '\n')
		if lf < 0 {
			return nil, 0, p.incomplete(len(raw), maxHeader)
		}
		if lf == 0 || raw[pos+lf-1] != '\r' {
			return nil, 0, ErrMalformedHeader
		}
		line := raw[pos : pos+lf-1]
		pos += lf + 1

		colon := bytes.IndexByte(line, ':')
		if colon <= 0 {
			return nil, 0, ErrMalformedHeader
		}
		key := line[:colon]
		val := bytes.TrimLeft(line[colon+1:], " \t")

		if len(msg.Headers) >= maxCount {
			return nil, 0, ErrTooManyHeaders
		}
		msg.Headers = append(msg.Headers, Header{
			Key:   string(key),
			Value: string(val),
		})

		// No Content-Length header means the request has no body.
		if len(key) == 14 && bytes.EqualFold(key, []byte("Content-Length")) {
			n, err := strconv.Atoi(string(val))
			if err != nil || n < 0 {
				return nil, 0, fmt.Errorf("%w: %q", ErrBadContentLength, val)
			}
			contentLen = n
		}
	}

	if contentLen > 0 {
		if pos+contentLen > len(raw) {
			return nil, 0, ErrNeedMore
		}
		msg.Body = append([]byte(nil), raw[pos:pos+contentLen]...)
		pos += contentLen
	}

	return msg, pos, nil
}

// incomplete distinguishes "waiting for bytes" from a header block that can
// never complete within the limit.
func (p *Parser) incomplete(have, maxHeader int) error {
	if have > maxHeader {
		return ErrHeaderTooLarge
	}
	return ErrNeedMore
}
