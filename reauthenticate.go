package mqtt5

import (
	"context"
	"fmt"

	"github.com/nimbusmq/mqtt5/internal/wire"
)

// reauthRequest asks the logic loop to start a re-authentication exchange.
type reauthRequest struct {
	done chan error
}

// Reauthenticate starts a re-authentication exchange (MQTT 5 AUTH reason
// code 0x19), useful for refreshing expired tokens or rotating credentials
// without dropping the connection. It returns once the AUTH packet has been
// queued; use the configured Authenticator's Complete method to learn when
// the exchange finishes.
func (c *Client) Reauthenticate(ctx context.Context) error {
	if c.opts.Authenticator == nil {
		return fmt.Errorf("mqtt5: no authenticator configured")
	}
	if !c.IsConnected() {
		return fmt.Errorf("mqtt5: not connected")
	}
	req := &reauthRequest{done: make(chan error, 1)}
	if !c.postCommand(ctx, req) {
		return ErrClientClosed
	}
	select {
	case err := <-req.done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// beginReauth sends the initial AUTH packet of a re-authentication
// exchange. Runs only from the logic loop.
func (l *logicLoop) beginReauth(req *reauthRequest) {
	a := l.opts().Authenticator
	if a == nil {
		req.done <- fmt.Errorf("mqtt5: no authenticator configured")
		return
	}
	data, err := a.InitialData()
	if err != nil {
		req.done <- fmt.Errorf("mqtt5: re-auth initial data: %w", err)
		return
	}
	frame := encodeAuthWire(wire.AuthReasonReauthenticate, &wire.Properties{
		AuthenticationMethod: a.Method(),
		AuthenticationData:   data,
		Presence:             wire.PresAuthenticationMethod | wire.PresAuthenticationData,
	})
	l.enqueue(frame)
	l.opts().Logger.Debug("initiated re-authentication", "method", a.Method())
	req.done <- nil
}

// handleReauth processes an AUTH packet received after the handshake,
// either a server-initiated challenge continuing a prior Reauthenticate
// call, or the server's final success for one.
func (l *logicLoop) handleReauth(p *wire.AuthPacket) {
	a := l.opts().Authenticator
	if a == nil {
		l.opts().Logger.Warn("received AUTH but no authenticator configured")
		return
	}
	if p.Properties != nil && p.Properties.Presence&wire.PresAuthenticationMethod != 0 {
		if p.Properties.AuthenticationMethod != a.Method() {
			l.opts().Logger.Error("authentication method mismatch",
				"expected", a.Method(), "received", p.Properties.AuthenticationMethod)
			return
		}
	}

	if p.ReasonCode == wire.AuthReasonSuccess {
		_ = a.Complete()
		return
	}

	var challenge []byte
	if p.Properties != nil {
		challenge = p.Properties.AuthenticationData
	}
	resp, err := a.HandleChallenge(challenge, ReasonCode(p.ReasonCode))
	if err != nil {
		l.opts().Logger.Error("re-authentication challenge failed", "error", err)
		return
	}
	frame := encodeAuthWire(wire.AuthReasonContinue, &wire.Properties{
		AuthenticationMethod: a.Method(),
		AuthenticationData:   resp,
		Presence:             wire.PresAuthenticationMethod | wire.PresAuthenticationData,
	})
	l.enqueue(frame)
	l.opts().Logger.Debug("sent AUTH response", "reason_code", wire.AuthReasonContinue)
}
