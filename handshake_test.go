package mqtt5

import (
	"testing"

	"github.com/nimbusmq/mqtt5/internal/wire"
)

func TestOnConnackFreshSessionClearsInflight(t *testing.T) {
	l := newTestLogicLoop(t)
	id, _ := l.ids.Allocate()
	l.sess.inflight[id] = &inFlightPublish{id: id}

	l.onConnack(&wire.ConnackPacket{SessionPresent: false})

	if len(l.sess.inflight) != 0 {
		t.Error("expected a fresh session to clear in-flight records")
	}
	if l.ids.InUse(id) {
		t.Error("expected the released packet id to be free again")
	}
}

func TestOnConnackResumedSessionResendsEveryRecord(t *testing.T) {
	l := newTestLogicLoop(t)

	ids := []uint16{30, 10, 20}
	for _, id := range ids {
		l.ids.Reserve(id)
		l.sess.inflight[id] = &inFlightPublish{id: id, topic: "a/b", qos: AtLeastOnce, phase: phaseAwaitingPuback}
	}

	l.onConnack(&wire.ConnackPacket{SessionPresent: true})

	if got := l.sendQ.Len(); got != len(ids) {
		t.Fatalf("expected %d resent frames, got %d", len(ids), got)
	}
	if len(l.sess.inflight) != len(ids) {
		t.Error("resendInFlight should not remove in-flight records, only replay them")
	}
}

func TestResendInFlightEmitsOneFramePerRecordAcrossPhases(t *testing.T) {
	l := newTestLogicLoop(t)
	l.ids.Reserve(1)
	l.ids.Reserve(2)
	l.sess.inflight[1] = &inFlightPublish{id: 1, topic: "a/b", qos: AtLeastOnce, phase: phaseAwaitingPuback}
	l.sess.inflight[2] = &inFlightPublish{id: 2, topic: "a/b", qos: ExactlyOnce, phase: phaseAwaitingPubcomp}

	l.resendInFlight()

	if got := l.sendQ.Len(); got != 2 {
		t.Fatalf("expected one frame per in-flight record, got %d", got)
	}
}

func TestNotifyServerRedirectInvokesCallback(t *testing.T) {
	l := newTestLogicLoop(t)
	var got string
	l.opts().OnServerRedirect = func(ref string) { got = ref }
	l.sess.limits.ServerReference = "backup.example.com:1883"

	l.notifyServerRedirect()

	if got != "backup.example.com:1883" {
		t.Errorf("expected callback to receive the server reference, got %q", got)
	}
}

func TestNotifyServerRedirectNoopWithoutReference(t *testing.T) {
	l := newTestLogicLoop(t)
	called := false
	l.opts().OnServerRedirect = func(string) { called = true }

	l.notifyServerRedirect()

	if called {
		t.Error("expected no callback when CONNACK carried no server_reference")
	}
}

func TestSortUint16(t *testing.T) {
	s := []uint16{5, 1, 4, 2, 3}
	sortUint16(s)
	want := []uint16{1, 2, 3, 4, 5}
	for i := range want {
		if s[i] != want[i] {
			t.Fatalf("sortUint16 = %v, want %v", s, want)
		}
	}
}
