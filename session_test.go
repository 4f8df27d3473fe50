package mqtt5

import (
	"testing"

	"github.com/nimbusmq/mqtt5/idpool"
	"github.com/nimbusmq/mqtt5/internal/wire"
)

func TestSessionNextBrokerRoundRobins(t *testing.T) {
	s := newSession(&options{Brokers: []Endpoint{
		{Host: "a", Port: 1883},
		{Host: "b", Port: 1883},
	}})

	first, ok := s.nextBroker()
	if !ok || first.Host != "a" {
		t.Fatalf("expected broker a first, got %+v ok=%v", first, ok)
	}
	second, ok := s.nextBroker()
	if !ok || second.Host != "b" {
		t.Fatalf("expected broker b second, got %+v ok=%v", second, ok)
	}
	third, ok := s.nextBroker()
	if !ok || third.Host != "a" {
		t.Fatalf("expected round-robin back to a, got %+v ok=%v", third, ok)
	}
}

func TestSessionNextBrokerEmpty(t *testing.T) {
	s := newSession(&options{})
	if _, ok := s.nextBroker(); ok {
		t.Error("nextBroker should fail with no configured brokers")
	}
}

func TestSessionResetForFreshSessionReleasesIDs(t *testing.T) {
	s := newSession(&options{})
	ids := idpool.New()

	id1, _ := ids.Allocate()
	id2, _ := ids.Allocate()
	s.inflight[id1] = &inFlightPublish{id: id1}
	s.inflight[id2] = &inFlightPublish{id: id2}
	s.incomingQoS2[1] = struct{}{}

	s.resetForFreshSession(ids)

	if len(s.inflight) != 0 {
		t.Error("expected inflight table to be cleared")
	}
	if len(s.incomingQoS2) != 0 {
		t.Error("expected incomingQoS2 table to be cleared")
	}
	if ids.InUse(id1) || ids.InUse(id2) {
		t.Error("expected released ids to be free for reallocation")
	}
}

func TestSessionApplyConnackDefaults(t *testing.T) {
	s := newSession(&options{})
	s.applyConnack(&wire.ConnackPacket{SessionPresent: true})

	if s.limits.ReceiveMaximum != 65535 {
		t.Errorf("expected default ReceiveMaximum 65535, got %d", s.limits.ReceiveMaximum)
	}
	if s.limits.MaximumQoS != 2 {
		t.Errorf("expected default MaximumQoS 2, got %d", s.limits.MaximumQoS)
	}
	if !s.sessionPresent {
		t.Error("expected sessionPresent to be carried over from CONNACK")
	}
}

func TestSessionApplyConnackNegotiatedLimits(t *testing.T) {
	s := newSession(&options{})
	s.applyConnack(&wire.ConnackPacket{
		SessionPresent: false,
		Properties: &wire.Properties{
			Presence:          wire.PresReceiveMaximum | wire.PresMaximumQoS | wire.PresTopicAliasMaximum | wire.PresServerReference,
			ReceiveMaximum:    10,
			MaximumQoS:        1,
			TopicAliasMaximum: 4,
			ServerReference:   "other-broker:1883",
		},
	})

	if s.limits.ReceiveMaximum != 10 {
		t.Errorf("expected negotiated ReceiveMaximum 10, got %d", s.limits.ReceiveMaximum)
	}
	if s.limits.MaximumQoS != 1 {
		t.Errorf("expected negotiated MaximumQoS 1, got %d", s.limits.MaximumQoS)
	}
	if s.limits.ServerReference != "other-broker:1883" {
		t.Errorf("expected ServerReference to be captured, got %q", s.limits.ServerReference)
	}
}

func TestSessionStateString(t *testing.T) {
	cases := map[sessionState]string{
		stateIdle:          "idle",
		stateConnecting:    "connecting",
		stateHandshaking:   "handshaking",
		stateConnected:     "connected",
		stateDisconnecting: "disconnecting",
		stateReconnectWait: "reconnect_wait",
		stateClosed:        "closed",
		sessionState(99):   "unknown",
	}
	for state, want := range cases {
		if got := state.String(); got != want {
			t.Errorf("state %d: got %q, want %q", state, got, want)
		}
	}
}
