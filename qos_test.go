package mqtt5

import "testing"

func TestQoSValid(t *testing.T) {
	for q := QoS(0); q <= ExactlyOnce; q++ {
		if !q.Valid() {
			t.Errorf("QoS(%d) should be valid", q)
		}
	}
	if QoS(3).Valid() {
		t.Error("QoS(3) should not be valid")
	}
}
