package mqtt5

import (
	"context"
	"io"
)

// TLSRole identifies which side of a handshake a Stream plays, for the
// assign-SNI customization point below.
type TLSRole int

const (
	// TLSRoleNone indicates the stream carries no TLS.
	TLSRoleNone TLSRole = iota
	TLSRoleClient
	TLSRoleServer
)

// Stream is the generic byte-stream transport collaborator the core
// consumes. Plain TCP, TLS and WebSocket transports all implement it; the
// core never assumes a concrete transport.
type Stream interface {
	io.Reader
	io.Writer

	// Close tears down the underlying connection immediately.
	Close() error

	// HandshakeRoles reports the local/remote TLS roles in effect, or
	// (TLSRoleNone, TLSRoleNone) for a transport without TLS.
	HandshakeRoles() (local, remote TLSRole)

	// AssignSNI is invoked once per connect attempt with the broker
	// authority (host[:port]) before any bytes are exchanged, letting a
	// TLS-capable transport set the ClientHello server name.
	AssignSNI(authority string)

	// Teardown performs an orderly shutdown (e.g. TLS close_notify, a
	// WebSocket close frame) before the underlying connection is closed.
	Teardown(ctx context.Context) error
}

// Dialer establishes a Stream to a single resolved broker endpoint.
type Dialer func(ctx context.Context, endpoint Endpoint) (Stream, error)

// Endpoint is one entry of a configured broker list.
type Endpoint struct {
	// Host is the broker hostname or IP literal.
	Host string
	// Port is the TCP port; 0 means "use the dialer's default".
	Port uint16
	// Path is used only by WebSocket transports, e.g. "/mqtt".
	Path string
}

// Authority returns the "host:port" string used for SNI assignment and
// logging.
func (e Endpoint) Authority() string {
	if e.Port == 0 {
		return e.Host
	}
	return e.Host + ":" + portString(e.Port)
}

func portString(p uint16) string {
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
