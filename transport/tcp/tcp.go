// Package tcp provides a plain-TCP mqtt5.Dialer.
package tcp

import (
	"context"
	"net"
	"time"

	"github.com/nimbusmq/mqtt5"
)

const defaultPort = 1883

// conn wraps a net.Conn as an mqtt5.Stream. Plain TCP carries no TLS, so
// AssignSNI and Teardown are no-ops.
type conn struct {
	net.Conn
}

func (c *conn) HandshakeRoles() (local, remote mqtt5.TLSRole) {
	return mqtt5.TLSRoleNone, mqtt5.TLSRoleNone
}

func (c *conn) AssignSNI(string) {}

func (c *conn) Teardown(context.Context) error { return nil }

// Dialer returns an mqtt5.Dialer connecting over plain TCP, using timeout
// as the connect deadline (0 disables the deadline).
func Dialer(timeout time.Duration) mqtt5.Dialer {
	d := &net.Dialer{Timeout: timeout}
	return func(ctx context.Context, ep mqtt5.Endpoint) (mqtt5.Stream, error) {
		addr := ep.Authority()
		if ep.Port == 0 {
			addr = net.JoinHostPort(ep.Host, portString(defaultPort))
		}
		c, err := d.DialContext(ctx, "tcp", addr)
		if err != nil {
			return nil, err
		}
		return &conn{Conn: c}, nil
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
