package mqtt5

import (
	"context"
	"log/slog"
	"testing"
)

func newTestLogicLoop(t *testing.T) *logicLoop {
	t.Helper()
	opts := &options{
		Logger:         slog.New(slog.DiscardHandler),
		ReceiveMaximum: 16,
		MaxTopicLength: DefaultMaxTopicLength,
		MaxPayloadSize: DefaultMaxPayloadSize,
	}
	cl := &Client{opts: opts, inbox: newInbox()}
	l := newLogicLoop(cl)
	l.sess.limits = defaultServerLimits()
	return l
}

func TestBeginPublishQoS0EnqueuesAndCompletes(t *testing.T) {
	l := newTestLogicLoop(t)
	req := &publishRequest{topic: "a/b", payload: []byte("hi"), qos: AtMostOnce, token: newPublishToken()}

	l.beginPublish(req)

	if err := req.token.Error(); err != nil {
		t.Fatalf("expected QoS0 publish to complete immediately, got %v", err)
	}
	if l.sendQ.Len() != 1 {
		t.Fatalf("expected one frame enqueued, got %d", l.sendQ.Len())
	}
	if len(l.sess.inflight) != 0 {
		t.Error("QoS0 publish should never be tracked in-flight")
	}
}

func TestBeginPublishQoS1TracksInflightUntilPuback(t *testing.T) {
	l := newTestLogicLoop(t)
	l.ctx = context.Background()
	req := &publishRequest{topic: "a/b", payload: []byte("hi"), qos: AtLeastOnce, token: newPublishToken()}

	l.beginPublish(req)

	select {
	case <-req.token.Done():
		t.Fatal("QoS1 publish should not complete before PUBACK")
	default:
	}
	if len(l.sess.inflight) != 1 {
		t.Fatalf("expected one in-flight record, got %d", len(l.sess.inflight))
	}

	var id uint16
	for pid := range l.sess.inflight {
		id = pid
	}
	l.handlePuback(id, ReasonSuccess, nil)

	if err := req.token.Error(); err != nil {
		t.Fatalf("expected successful completion, got %v", err)
	}
	if len(l.sess.inflight) != 0 {
		t.Error("expected in-flight record to be cleared after PUBACK")
	}
}

func TestBeginPublishQoS2FlowsThroughPubrecPubcomp(t *testing.T) {
	l := newTestLogicLoop(t)
	l.ctx = context.Background()
	req := &publishRequest{topic: "a/b", payload: []byte("hi"), qos: ExactlyOnce, token: newPublishToken()}

	l.beginPublish(req)

	var id uint16
	for pid := range l.sess.inflight {
		id = pid
	}
	rec := l.sess.inflight[id]
	if rec.phase != phaseAwaitingPubrec {
		t.Fatalf("expected phase awaiting pubrec, got %v", rec.phase)
	}

	l.handlePubrec(id, ReasonSuccess, nil)
	if rec.phase != phaseAwaitingPubcomp {
		t.Fatalf("expected phase awaiting pubcomp after PUBREC, got %v", rec.phase)
	}
	select {
	case <-req.token.Done():
		t.Fatal("QoS2 publish should not complete before PUBCOMP")
	default:
	}

	l.handlePubcomp(id, ReasonSuccess, nil)
	if err := req.token.Error(); err != nil {
		t.Fatalf("expected successful completion, got %v", err)
	}
	if len(l.sess.inflight) != 0 {
		t.Error("expected in-flight record to be cleared after PUBCOMP")
	}
}

func TestBeginPublishRejectsOversizedTopic(t *testing.T) {
	l := newTestLogicLoop(t)
	l.opts().MaxTopicLength = 4
	req := &publishRequest{topic: "way/too/long", payload: []byte("x"), qos: AtMostOnce, token: newPublishToken()}

	l.beginPublish(req)

	if err := req.token.Error(); err == nil {
		t.Fatal("expected an error for an over-length topic")
	}
	if l.sendQ.Len() != 0 {
		t.Error("no frame should be enqueued for a rejected publish")
	}
}

func TestBeginPublishRejectsRetainWhenUnavailable(t *testing.T) {
	l := newTestLogicLoop(t)
	l.sess.limits.RetainAvailable = false
	req := &publishRequest{topic: "a/b", payload: []byte("x"), qos: AtMostOnce, retained: true, token: newPublishToken()}

	l.beginPublish(req)

	if err := req.token.Error(); err != ErrRetainNotAvailable {
		t.Fatalf("expected ErrRetainNotAvailable, got %v", err)
	}
}

func TestHandlePubackUnknownIDIsProtocolError(t *testing.T) {
	l := newTestLogicLoop(t)
	l.connErr = make(chan error, 1)

	l.handlePuback(42, ReasonSuccess, nil)

	select {
	case err := <-l.connErr:
		if err == nil {
			t.Fatal("expected a protocol error to be reported")
		}
	default:
		t.Fatal("expected protocolError to signal connErr")
	}
}
