// Package tlsconn provides a TLS mqtt5.Dialer with per-attempt SNI
// assignment and a close_notify-aware Teardown.
package tlsconn

import (
	"context"
	"crypto/tls"
	"net"
	"time"

	"github.com/nimbusmq/mqtt5"
)

const defaultPort = 8883

// conn wraps a *tls.Conn as an mqtt5.Stream. AssignSNI is captured before
// dial time since the ClientHello's ServerName must be set before the
// handshake begins; Teardown sends close_notify.
type conn struct {
	*tls.Conn
}

func (c *conn) HandshakeRoles() (local, remote mqtt5.TLSRole) {
	return mqtt5.TLSRoleClient, mqtt5.TLSRoleServer
}

func (c *conn) AssignSNI(string) {
	// the ClientHello has already been sent by the time a Stream exists;
	// Dialer below assigns SNI from the config clone made per dial.
}

func (c *conn) Teardown(ctx context.Context) error {
	if dl, ok := ctx.Deadline(); ok {
		_ = c.SetWriteDeadline(dl)
	}
	return c.CloseWrite()
}

// Dialer returns an mqtt5.Dialer connecting over TLS. cfg is cloned per
// dial attempt with ServerName set to the target host, so a single base
// config can be shared across brokers.
func Dialer(cfg *tls.Config, timeout time.Duration) mqtt5.Dialer {
	if cfg == nil {
		cfg = &tls.Config{}
	}
	return func(ctx context.Context, ep mqtt5.Endpoint) (mqtt5.Stream, error) {
		addr := ep.Authority()
		if ep.Port == 0 {
			addr = net.JoinHostPort(ep.Host, portString(defaultPort))
		}
		perDial := cfg.Clone()
		perDial.ServerName = ep.Host

		d := &tls.Dialer{NetDialer: &net.Dialer{Timeout: timeout}, Config: perDial}
		c, err := d.DialContext(ctx, "tcp", addr)
		if err != nil {
			return nil, err
		}
		return &conn{Conn: c.(*tls.Conn)}, nil
	}
}

func portString(p int) string {
	const digits = "0123456789"
	if p == 0 {
		return "0"
	}
	var buf [5]byte
	i := len(buf)
	for p > 0 {
		i--
		buf[i] = digits[p%10]
		p /= 10
	}
	return string(buf[i:])
}
