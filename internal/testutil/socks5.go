package testutil

import (
	"io"
	"net"

	"github.com/txthinking/socks5"
)

// SOCKS5Handler returns a StartSingleAcceptServer handler speaking enough of
// the server side of SOCKS5 to exercise a client handshake. With an empty
// user it offers no-auth; otherwise it demands username/password and checks
// the credentials. CONNECT targets are dialed directly and spliced.
func SOCKS5Handler(user, pass string) func(net.Conn) {
	return func(c net.Conn) { _ = serveConnect(c, user, pass) }
}

// SOCKS5RefuseHandler negotiates no-auth and then answers any request with
// the given reply code.
func SOCKS5RefuseHandler(rep byte) func(net.Conn) {
	return func(c net.Conn) {
		if _, err := socks5.NewNegotiationRequestFrom(c); err != nil {
			return
		}
		if _, err := socks5.NewNegotiationReply(socks5.MethodNone).WriteTo(c); err != nil {
			return
		}
		if _, err := socks5.NewRequestFrom(c); err != nil {
			return
		}
		_, _ = socks5.NewReply(rep, socks5.ATYPIPv4, []byte{0, 0, 0, 0}, []byte{0, 0}).WriteTo(c)
	}
}

func serveConnect(c net.Conn, user, pass string) error {
	if _, err := socks5.NewNegotiationRequestFrom(c); err != nil {
		return err
	}

	if user == "" {
		if _, err := socks5.NewNegotiationReply(socks5.MethodNone).WriteTo(c); err != nil {
			return err
		}
	} else {
		if _, err := socks5.NewNegotiationReply(socks5.MethodUsernamePassword).WriteTo(c); err != nil {
			return err
		}

		urq, err := socks5.NewUserPassNegotiationRequestFrom(c)
		if err != nil {
			return err
		}
		if string(urq.Uname) != user || string(urq.Passwd) != pass {
			_, _ = socks5.NewUserPassNegotiationReply(socks5.UserPassStatusFailure).WriteTo(c)
			return nil
		}
		if _, err := socks5.NewUserPassNegotiationReply(socks5.UserPassStatusSuccess).WriteTo(c); err != nil {
			return err
		}
	}

	req, err := socks5.NewRequestFrom(c)
	if err != nil {
		return err
	}
	if req.Cmd != socks5.CmdConnect {
		_, _ = socks5.NewReply(socks5.RepCommandNotSupported, socks5.ATYPIPv4, []byte{0, 0, 0, 0}, []byte{0, 0}).WriteTo(c)
		return nil
	}

	up, err := net.Dial("tcp", req.Address())
	if err != nil {
		_, _ = socks5.NewReply(socks5.RepConnectionRefused, socks5.ATYPIPv4, []byte{0, 0, 0, 0}, []byte{0, 0}).WriteTo(c)
		return err
	}
	defer up.Close()

	a, addr, port, err := socks5.ParseAddress(up.LocalAddr().String())
	if err != nil {
		return err
	}
	if a == socks5.ATYPDomain {
		addr = addr[1:]
	}
	if _, err := socks5.NewReply(socks5.RepSuccess, a, addr, port).WriteTo(c); err != nil {
		return err
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = io.Copy(up, c)
		_ = up.Close()
		_ = c.Close()
	}()
	_, _ = io.Copy(c, up)
	_ = up.Close()
	_ = c.Close()
	<-done
	return nil
}
