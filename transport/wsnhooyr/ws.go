// Package wsnhooyr provides a WebSocket mqtt5.Dialer built on
// nhooyr.io/websocket, carrying the "mqtt" subprotocol.
package wsnhooyr

import (
	"context"
	"fmt"
	"net"

	"github.com/nimbusmq/mqtt5"
	"nhooyr.io/websocket"
)

type conn struct {
	net.Conn
	ws *websocket.Conn
}

func (c *conn) HandshakeRoles() (local, remote mqtt5.TLSRole) {
	return mqtt5.TLSRoleNone, mqtt5.TLSRoleNone
}

func (c *conn) AssignSNI(string) {}

func (c *conn) Teardown(ctx context.Context) error {
	return c.ws.Close(websocket.StatusNormalClosure, "")
}

// Dialer returns an mqtt5.Dialer connecting over WebSocket using scheme
// ("ws" or "wss") and path from the endpoint.
func Dialer(scheme string) mqtt5.Dialer {
	if scheme == "" {
		scheme = "ws"
	}
	return func(ctx context.Context, ep mqtt5.Endpoint) (mqtt5.Stream, error) {
		path := ep.Path
		if path == "" {
			path = "/mqtt"
		}
		url := fmt.Sprintf("%s://%s%s", scheme, ep.Authority(), path)
		c, _, err := websocket.Dial(ctx, url, &websocket.DialOptions{
			Subprotocols: []string{"mqtt"},
		})
		if err != nil {
			return nil, err
		}
		return &conn{Conn: websocket.NetConn(ctx, c, websocket.MessageBinary), ws: c}, nil
	}
}
