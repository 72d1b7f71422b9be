// Command socksdial connects to a target through a SOCKS5 proxy using the
// beast handshake engine and relays stdin/stdout to the target, in the manner
// of a netcat restricted to proxied TCP.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/madmongo1/beast/internal/relay"
	"github.com/madmongo1/beast/socks"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	var (
		proxy       = pflag.String("proxy", "127.0.0.1:1080", "SOCKS5 proxy address (host:port)")
		username    = pflag.String("username", "", "Username for SOCKS5 authentication. Empty disables.")
		password    = pflag.String("password", "", "Password for SOCKS5 authentication")
		dialTimeout = pflag.Duration("dial-timeout", 10*time.Second, "Timeout for TCP connect to the proxy")
		negTimeout  = pflag.Duration("negotiation-timeout", 10*time.Second, "Timeout for the SOCKS5 handshake")
		verbose     = pflag.Bool("verbose", false, "Log handshake progress")
	)
	pflag.CommandLine.SortFlags = false
	pflag.Parse()

	if pflag.NArg() != 1 {
		return errors.New("usage: socksdial [flags] host:port")
	}
	target := pflag.Arg(0)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	d := net.Dialer{Timeout: *dialTimeout}
	conn, err := d.DialContext(ctx, "tcp", *proxy)
	if err != nil {
		return fmt.Errorf("dial proxy %s: %w", *proxy, err)
	}
	defer conn.Close()

	if *negTimeout > 0 {
		_ = conn.SetDeadline(time.Now().Add(*negTimeout))
	}
	auth := socks.Auth{Username: *username, Password: *password}
	if err := socks.Dial(conn, auth, target); err != nil {
		return fmt.Errorf("socks5 handshake with %s for %s: %w", *proxy, target, err)
	}
	_ = conn.SetDeadline(time.Time{})

	if *verbose {
		log.Printf("connected to %s via %s", target, *proxy)
	}

	err = relay.Bidirectional(ctx, stdio{}, conn)
	if err != nil && !errors.Is(err, net.ErrClosed) {
		return fmt.Errorf("relay: %w", err)
	}
	return nil
}

// stdio bundles the process's stdin and stdout as one endpoint.
type stdio struct{}

func (stdio) Read(p []byte) (int, error)  { return os.Stdin.Read(p) }
func (stdio) Write(p []byte) (int, error) { return os.Stdout.Write(p) }

func (stdio) Close() error {
	_ = os.Stdin.Close()
	return os.Stdout.Close()
}
