package mqtt5

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/nimbusmq/mqtt5/internal/wire"
)

// handshake sends CONNECT, drives any AUTH challenge-response exchange, and
// waits for the terminal CONNACK. It talks to the stream directly (the
// per-connection reader/writer goroutines are not started yet).
func (l *logicLoop) handshake(ctx context.Context) error {
	if l.sess.clientID == "" {
		if l.opts().ClientID != "" {
			l.sess.clientID = l.opts().ClientID
		} else {
			l.sess.clientID = uuid.NewString()
		}
	}

	connect := &wire.ConnectPacket{
		CleanStart: l.opts().CleanStart,
		KeepAlive:  uint16(l.opts().KeepAlive.Seconds()),
		ClientID:   l.sess.clientID,
		Properties: l.connectProperties(),
	}
	if l.opts().Username != "" {
		connect.UsernameFlag = true
		connect.Username = l.opts().Username
	}
	if l.opts().Password != "" {
		connect.PasswordFlag = true
		connect.Password = l.opts().Password
	}
	if w := l.opts().will; w != nil {
		connect.WillFlag = true
		connect.WillQoS = uint8(w.QoS)
		connect.WillRetain = w.Retained
		connect.WillTopic = w.Topic
		connect.WillMessage = w.Payload
		connect.WillProperties = w.Properties.toWire()
	}

	if _, err := l.stream.Write(encodeConnectWire(connect)); err != nil {
		return err
	}

	for {
		pkt, err := wire.ReadPacket(l.stream, l.opts().MaxIncomingPacket)
		if err != nil {
			return err
		}
		switch p := pkt.(type) {
		case *wire.AuthPacket:
			if err := l.handleHandshakeAuth(p); err != nil {
				return err
			}
		case *wire.ConnackPacket:
			if p.ReasonCode >= 0x80 {
				return &ReasonCodeError{Code: ReasonCode(p.ReasonCode), ReasonString: reasonStringOfWire(p.Properties)}
			}
			return l.onConnack(p)
		default:
			return fmt.Errorf("mqtt5: unexpected packet %T during handshake", pkt)
		}
	}
}

func (l *logicLoop) connectProperties() *wire.Properties {
	props := l.opts().ConnectProps.toWire()
	ensure := func() *wire.Properties {
		if props == nil {
			props = &wire.Properties{}
		}
		return props
	}
	if l.opts().ReceiveMaximum != 0 {
		props = ensure()
		props.ReceiveMaximum = l.opts().ReceiveMaximum
		props.Presence |= wire.PresReceiveMaximum
	}
	if l.opts().TopicAliasMaximum != 0 {
		props = ensure()
		props.TopicAliasMaximum = l.opts().TopicAliasMaximum
		props.Presence |= wire.PresTopicAliasMaximum
	}
	if l.opts().SessionExpirySet {
		props = ensure()
		props.SessionExpiryInterval = l.opts().SessionExpiryInterval
		props.Presence |= wire.PresSessionExpiryInterval
	}
	if l.opts().RequestProblemInformation {
		props = ensure()
		props.RequestProblemInformation = 1
		props.Presence |= wire.PresRequestProblemInformation
	}
	if l.opts().RequestResponseInformation {
		props = ensure()
		props.RequestResponseInformation = 1
		props.Presence |= wire.PresRequestResponseInformation
	}
	if a := l.opts().Authenticator; a != nil {
		props = ensure()
		props.AuthenticationMethod = a.Method()
		props.Presence |= wire.PresAuthenticationMethod
		data, err := a.InitialData()
		if err == nil && len(data) > 0 {
			props.AuthenticationData = data
			props.Presence |= wire.PresAuthenticationData
		}
	}
	return props
}

func (l *logicLoop) handleHandshakeAuth(p *wire.AuthPacket) error {
	a := l.opts().Authenticator
	if a == nil {
		return fmt.Errorf("mqtt5: received AUTH with no authenticator configured")
	}
	var challenge []byte
	if p.Properties != nil {
		challenge = p.Properties.AuthenticationData
	}
	resp, err := a.HandleChallenge(challenge, ReasonCode(p.ReasonCode))
	if err != nil {
		return fmt.Errorf("mqtt5: authentication challenge failed: %w", err)
	}
	frame := encodeAuthWire(wire.AuthReasonContinue, &wire.Properties{
		AuthenticationMethod: a.Method(),
		AuthenticationData:   resp,
		Presence:             wire.PresAuthenticationMethod | wire.PresAuthenticationData,
	})
	_, err = l.stream.Write(frame)
	return err
}

// onConnack applies a successful CONNACK: captures negotiated limits,
// resets state for a fresh session or resends in-flight records for a
// resumed one, and completes any pending authenticator handshake. It
// returns an error only for WithStrictSessionPresent's protocol-error case,
// which must fail the handshake rather than proceed into normal operation.
func (l *logicLoop) onConnack(p *wire.ConnackPacket) error {
	l.sess.applyConnack(p)
	l.gate.Resize(l.sess.limits.ReceiveMaximum)
	l.notifyServerRedirect()

	if a := l.opts().Authenticator; a != nil {
		_ = a.Complete()
	}

	if !p.SessionPresent {
		l.sess.resetForFreshSession(l.ids)
		return nil
	}
	if len(l.sess.inflight) == 0 && l.opts().StrictSessionPresent {
		l.protocolError("session_present with empty in-flight table")
		// The writer goroutine isn't running yet during the handshake, so
		// the frame protocolError queued would otherwise sit unflushed
		// until the next reconnect wipes it; write it directly instead,
		// the same way the rest of the handshake talks to the stream.
		_, _ = l.stream.Write(encodeDisconnectWire(uint8(ReasonProtocolError), nil))
		return fmt.Errorf("mqtt5: protocol error: session_present with empty in-flight table")
	}
	l.resendInFlight()
	return nil
}

// notifyServerRedirect invokes OnServerRedirect if CONNACK carried a
// server_reference, letting the caller decide whether to reconnect
// elsewhere.
func (l *logicLoop) notifyServerRedirect() {
	if l.sess.limits.ServerReference != "" && l.opts().OnServerRedirect != nil {
		l.opts().OnServerRedirect(l.sess.limits.ServerReference)
	}
}

// resendInFlight reissues every in-flight QoS 1/2 record in ascending
// packet-id order, per the resend-order invariant.
func (l *logicLoop) resendInFlight() {
	ids := make([]uint16, 0, len(l.sess.inflight))
	for id := range l.sess.inflight {
		ids = append(ids, id)
	}
	sortUint16(ids)
	for _, id := range ids {
		rec := l.sess.inflight[id]
		switch rec.phase {
		case phaseAwaitingPubcomp:
			l.enqueue(encodePubrelWire(id, 0, nil))
		default:
			frame, err := encodePublishFrame(id, rec.topic, rec.payload, rec.qos, rec.retain, true, publishConfig{props: rec.props}, l.sess)
			if err != nil {
				continue
			}
			l.enqueue(frame)
		}
	}
}

func sortUint16(s []uint16) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j-1] > s[j]; j-- {
			s[j-1], s[j] = s[j], s[j-1]
		}
	}
}

func reasonStringOfWire(p *wire.Properties) string {
	if p == nil {
		return ""
	}
	return p.ReasonString
}
