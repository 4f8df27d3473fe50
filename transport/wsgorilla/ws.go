// Package wsgorilla provides a WebSocket mqtt5.Dialer built on
// github.com/gorilla/websocket, wrapping the message-oriented connection as
// a plain byte stream for the codec.
package wsgorilla

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/gorilla/websocket"
	"github.com/nimbusmq/mqtt5"
)

type conn struct {
	ws  *websocket.Conn
	rd  io.Reader
}

func (c *conn) Read(p []byte) (int, error) {
	for {
		if c.rd == nil {
			_, r, err := c.ws.NextReader()
			if err != nil {
				return 0, err
			}
			c.rd = r
		}
		n, err := c.rd.Read(p)
		if err == io.EOF {
			c.rd = nil
			if n > 0 {
				return n, nil
			}
			continue
		}
		return n, err
	}
}

func (c *conn) Write(p []byte) (int, error) {
	if err := c.ws.WriteMessage(websocket.BinaryMessage, p); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (c *conn) Close() error { return c.ws.Close() }

func (c *conn) HandshakeRoles() (local, remote mqtt5.TLSRole) {
	return mqtt5.TLSRoleNone, mqtt5.TLSRoleNone
}

func (c *conn) AssignSNI(string) {}

func (c *conn) Teardown(ctx context.Context) error {
	deadline := time.Now().Add(2 * time.Second)
	if dl, ok := ctx.Deadline(); ok {
		deadline = dl
	}
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	return c.ws.WriteControl(websocket.CloseMessage, msg, deadline)
}

// Dialer returns an mqtt5.Dialer connecting over WebSocket using scheme
// ("ws" or "wss") and path from the endpoint, carrying the "mqtt"
// subprotocol gorilla negotiates with the broker.
func Dialer(scheme string) mqtt5.Dialer {
	if scheme == "" {
		scheme = "ws"
	}
	d := &websocket.Dialer{Subprotocols: []string{"mqtt"}}
	return func(ctx context.Context, ep mqtt5.Endpoint) (mqtt5.Stream, error) {
		path := ep.Path
		if path == "" {
			path = "/mqtt"
		}
		url := fmt.Sprintf("%s://%s%s", scheme, ep.Authority(), path)
		ws, _, err := d.DialContext(ctx, url, nil)
		if err != nil {
			return nil, err
		}
		return &conn{ws: ws}, nil
	}
}
