package mqtt5

import "testing"

func TestBeginSubscribeSuccessThenSuback(t *testing.T) {
	l := newTestLogicLoop(t)
	var delivered bool
	req := &subscribeRequest{
		filters: []subscribeFilter{{Filter: "a/b", QoS: AtLeastOnce, Handler: func(*Client, Message) { delivered = true }}},
		token:   newSubscribeToken(),
	}

	l.beginSubscribe(req)

	if len(l.sess.pendingSub) != 1 {
		t.Fatalf("expected one pending subscribe, got %d", len(l.sess.pendingSub))
	}
	if _, ok := l.sess.subscriptions["a/b"]; !ok {
		t.Fatal("expected subscription to be recorded optimistically before SUBACK")
	}

	var id uint16
	for pid := range l.sess.pendingSub {
		id = pid
	}
	l.handleSuback(id, []uint8{uint8(ReasonGrantedQoS1)}, nil)

	if err := req.token.Error(); err != nil {
		t.Fatalf("expected Subscribe to complete without error, got %v", err)
	}
	if len(req.token.ReasonCodes) != 1 || req.token.ReasonCodes[0] != ReasonGrantedQoS1 {
		t.Fatalf("expected granted QoS1 reason code, got %v", req.token.ReasonCodes)
	}
	if len(l.sess.pendingSub) != 0 {
		t.Error("expected pending subscribe to be cleared after SUBACK")
	}
	_ = delivered
}

func TestBeginSubscribeFailedSubackDropsSubscription(t *testing.T) {
	l := newTestLogicLoop(t)
	req := &subscribeRequest{
		filters: []subscribeFilter{{Filter: "a/b", QoS: AtMostOnce}},
		token:   newSubscribeToken(),
	}

	l.beginSubscribe(req)
	var id uint16
	for pid := range l.sess.pendingSub {
		id = pid
	}
	l.handleSuback(id, []uint8{uint8(ReasonNotAuthorized)}, nil)

	if _, ok := l.sess.subscriptions["a/b"]; ok {
		t.Error("expected a failed SUBACK to remove the optimistic subscription entry")
	}
}

func TestBeginSubscribeRejectsEmptyFilterList(t *testing.T) {
	l := newTestLogicLoop(t)
	req := &subscribeRequest{token: newSubscribeToken()}

	l.beginSubscribe(req)

	if err := req.token.Error(); err != ErrInvalidTopic {
		t.Fatalf("expected ErrInvalidTopic for an empty filter list, got %v", err)
	}
}

func TestBeginSubscribeRejectsWildcardWhenUnavailable(t *testing.T) {
	l := newTestLogicLoop(t)
	l.sess.limits.WildcardAvailable = false
	req := &subscribeRequest{
		filters: []subscribeFilter{{Filter: "a/+/c", QoS: AtMostOnce}},
		token:   newSubscribeToken(),
	}

	l.beginSubscribe(req)

	if err := req.token.Error(); err != ErrWildcardSubscriptionNotAvailable {
		t.Fatalf("expected ErrWildcardSubscriptionNotAvailable, got %v", err)
	}
}

func TestBeginSubscribeRejectsSharedWhenUnavailable(t *testing.T) {
	l := newTestLogicLoop(t)
	l.sess.limits.SharedSubAvailable = false
	req := &subscribeRequest{
		filters: []subscribeFilter{{Filter: "$share/group/a/b", QoS: AtMostOnce}},
		token:   newSubscribeToken(),
	}

	l.beginSubscribe(req)

	if err := req.token.Error(); err != ErrSharedSubscriptionNotAvailable {
		t.Fatalf("expected ErrSharedSubscriptionNotAvailable, got %v", err)
	}
}

func TestHandleSubackUnknownIDIsProtocolError(t *testing.T) {
	l := newTestLogicLoop(t)
	l.connErr = make(chan error, 1)

	l.handleSuback(7, []uint8{0}, nil)

	select {
	case err := <-l.connErr:
		if err == nil {
			t.Fatal("expected a non-nil protocol error")
		}
	default:
		t.Fatal("expected protocolError to report on connErr")
	}
}
