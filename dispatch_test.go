package mqtt5

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/nimbusmq/mqtt5/internal/wire"
)

func TestDispatchPublishQoS0Delivers(t *testing.T) {
	l := newTestLogicLoop(t)
	var mu sync.Mutex
	var got Message
	l.sess.subscriptions["a/b"] = subscriptionEntry{filter: "a/b", handler: func(_ *Client, m Message) {
		mu.Lock()
		got = m
		mu.Unlock()
	}}

	l.dispatchPublish(&wire.PublishPacket{Topic: "a/b", Payload: []byte("hi"), QoS: 0})

	waitFor(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return got.Topic == "a/b"
	})
	if l.sendQ.Len() != 0 {
		t.Error("QoS0 delivery should not enqueue any ack frame")
	}
}

func TestDispatchPublishQoS1SendsPuback(t *testing.T) {
	l := newTestLogicLoop(t)
	l.dispatchPublish(&wire.PublishPacket{Topic: "a/b", Payload: []byte("hi"), QoS: 1, PacketID: 5})

	if l.sendQ.Len() != 1 {
		t.Fatalf("expected one PUBACK frame enqueued, got %d", l.sendQ.Len())
	}
}

func TestDispatchPublishQoS2DedupesByPacketID(t *testing.T) {
	l := newTestLogicLoop(t)
	var mu sync.Mutex
	count := 0
	l.sess.subscriptions["a/b"] = subscriptionEntry{filter: "a/b", handler: func(_ *Client, m Message) {
		mu.Lock()
		count++
		mu.Unlock()
	}}

	pkt := &wire.PublishPacket{Topic: "a/b", Payload: []byte("hi"), QoS: 2, PacketID: 9}
	l.dispatchPublish(pkt)
	l.dispatchPublish(pkt) // retransmitted PUBLISH, same packet id

	waitFor(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return count >= 1
	})
	time.Sleep(20 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	if count != 1 {
		t.Errorf("expected exactly one delivery for a duplicate QoS2 PUBLISH, got %d", count)
	}
	if l.sendQ.Len() != 2 {
		t.Fatalf("expected a PUBREC for each PUBLISH received, got %d frames", l.sendQ.Len())
	}
}

func TestHandlePubrelClearsDedupeEntryAndSendsPubcomp(t *testing.T) {
	l := newTestLogicLoop(t)
	l.sess.incomingQoS2[3] = struct{}{}

	l.handlePubrel(3)

	if _, ok := l.sess.incomingQoS2[3]; ok {
		t.Error("expected dedupe entry to be cleared on PUBREL")
	}
	if l.sendQ.Len() != 1 {
		t.Fatalf("expected one PUBCOMP frame enqueued, got %d", l.sendQ.Len())
	}
}

func TestDeliverMatchesSharedSubscriptionUnderlyingFilter(t *testing.T) {
	l := newTestLogicLoop(t)
	var mu sync.Mutex
	delivered := false
	l.sess.subscriptions["$share/workers/a/b"] = subscriptionEntry{
		filter: "$share/workers/a/b",
		handler: func(_ *Client, m Message) {
			mu.Lock()
			delivered = true
			mu.Unlock()
		},
	}

	l.deliver("a/b", Message{Topic: "a/b"})

	waitFor(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return delivered
	})
}

func TestDeliverQueuesForReceiveWhenNoHandler(t *testing.T) {
	l := newTestLogicLoop(t)
	l.sess.subscriptions["a/b"] = subscriptionEntry{filter: "a/b"}

	l.deliver("a/b", Message{Topic: "a/b", Payload: []byte("hi")})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	topic, payload, _, err := l.cl.Receive(ctx)
	if err != nil {
		t.Fatalf("Receive returned error: %v", err)
	}
	if topic != "a/b" || string(payload) != "hi" {
		t.Errorf("Receive = (%q, %q), want (%q, %q)", topic, payload, "a/b", "hi")
	}
}

func TestReceiveBlocksUntilMessageOrContextDone(t *testing.T) {
	l := newTestLogicLoop(t)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, _, _, err := l.cl.Receive(ctx); err == nil {
		t.Fatal("expected Receive to return an error once ctx is done with nothing queued")
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}
