package mqtt5

import "testing"

func TestBeginUnsubscribeRemovesSubscriptionImmediately(t *testing.T) {
	l := newTestLogicLoop(t)
	l.sess.subscriptions["a/b"] = subscriptionEntry{filter: "a/b", qos: AtMostOnce}

	req := &unsubscribeRequest{filters: []string{"a/b"}, token: newToken()}
	l.beginUnsubscribe(req)

	if _, ok := l.sess.subscriptions["a/b"]; ok {
		t.Error("expected subscription entry to be removed immediately, not on UNSUBACK")
	}
	if len(l.sess.pendingUnsub) != 1 {
		t.Fatalf("expected one pending unsubscribe, got %d", len(l.sess.pendingUnsub))
	}

	var id uint16
	for pid := range l.sess.pendingUnsub {
		id = pid
	}
	l.handleUnsuback(id)

	if err := req.token.Error(); err != nil {
		t.Fatalf("expected Unsubscribe to complete without error, got %v", err)
	}
	if len(l.sess.pendingUnsub) != 0 {
		t.Error("expected pending unsubscribe to be cleared after UNSUBACK")
	}
}

func TestBeginUnsubscribeRejectsEmptyFilterList(t *testing.T) {
	l := newTestLogicLoop(t)
	req := &unsubscribeRequest{token: newToken()}

	l.beginUnsubscribe(req)

	if err := req.token.Error(); err != ErrInvalidTopic {
		t.Fatalf("expected ErrInvalidTopic, got %v", err)
	}
}

func TestHandleUnsubackUnknownIDIsProtocolError(t *testing.T) {
	l := newTestLogicLoop(t)
	l.connErr = make(chan error, 1)

	l.handleUnsuback(99)

	select {
	case err := <-l.connErr:
		if err == nil {
			t.Fatal("expected a non-nil protocol error")
		}
	default:
		t.Fatal("expected protocolError to report on connErr")
	}
}
