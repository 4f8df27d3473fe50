package wire

import (
	"bytes"
	"reflect"
	"testing"
)

// roundTrip writes pkt, reads it back through ReadPacket (exercising the
// full packetDecoders dispatch, not just the type's own Decode function),
// and returns the result.
func roundTrip(t *testing.T, pkt Packet) Packet {
	t.Helper()
	var buf bytes.Buffer
	if _, err := pkt.WriteTo(&buf); err != nil {
		t.Fatalf("WriteTo: %v", err)
	}
	got, err := ReadPacket(&buf, 0)
	if err != nil {
		t.Fatalf("ReadPacket: %v", err)
	}
	return got
}

func TestRoundTripConnect(t *testing.T) {
	in := &ConnectPacket{
		CleanStart:   true,
		WillFlag:     true,
		WillQoS:      1,
		WillRetain:   true,
		PasswordFlag: true,
		UsernameFlag: true,
		KeepAlive:    60,
		ClientID:     "client-1",
		WillTopic:    "lwt/topic",
		WillMessage:  []byte("goodbye"),
		WillProperties: &Properties{
			WillDelayInterval: 5,
			Presence:          PresWillDelayInterval,
		},
		Username: "alice",
		Password: "hunter2",
		Properties: &Properties{
			SessionExpiryInterval: 3600,
			ReceiveMaximum:        100,
			UserProperties:        []UserProperty{{Key: "k", Value: "v"}},
			Presence:              PresSessionExpiryInterval | PresReceiveMaximum,
		},
	}

	out, ok := roundTrip(t, in).(*ConnectPacket)
	if !ok {
		t.Fatalf("expected *ConnectPacket, got %T", out)
	}
	if !reflect.DeepEqual(in, out) {
		t.Fatalf("round trip mismatch:\nin:  %+v\nout: %+v", in, out)
	}
}

func TestRoundTripConnectMinimal(t *testing.T) {
	in := &ConnectPacket{ClientID: "minimal", KeepAlive: 30}

	out, ok := roundTrip(t, in).(*ConnectPacket)
	if !ok {
		t.Fatalf("expected *ConnectPacket, got %T", out)
	}
	if !reflect.DeepEqual(in, out) {
		t.Fatalf("round trip mismatch:\nin:  %+v\nout: %+v", in, out)
	}
}

func TestRoundTripPublish(t *testing.T) {
	for _, qos := range []uint8{0, 1, 2} {
		pkt := &PublishPacket{
			Dup:      qos > 0,
			QoS:      qos,
			Retain:   true,
			Topic:    "a/b/c",
			Payload:  []byte("hello world"),
			Properties: &Properties{
				ContentType:    "text/plain",
				CorrelationData: []byte{1, 2, 3},
				Presence:       PresContentType,
			},
		}
		if qos > 0 {
			pkt.PacketID = 42
		}

		out, ok := roundTrip(t, pkt).(*PublishPacket)
		if !ok {
			t.Fatalf("qos %d: expected *PublishPacket, got %T", qos, out)
		}
		if !reflect.DeepEqual(pkt, out) {
			t.Fatalf("qos %d: round trip mismatch:\nin:  %+v\nout: %+v", qos, pkt, out)
		}
	}
}

func TestRoundTripSubscribe(t *testing.T) {
	in := &SubscribePacket{
		PacketID:          7,
		Topics:            []string{"a/b", "$share/grp/c/d"},
		QoS:               []uint8{1, 2},
		NoLocal:           []bool{true, false},
		RetainAsPublished: []bool{false, true},
		RetainHandling:    []uint8{0, 2},
		Properties: &Properties{
			SubscriptionIdentifier: []int{5},
		},
	}

	out, ok := roundTrip(t, in).(*SubscribePacket)
	if !ok {
		t.Fatalf("expected *SubscribePacket, got %T", out)
	}
	if !reflect.DeepEqual(in, out) {
		t.Fatalf("round trip mismatch:\nin:  %+v\nout: %+v", in, out)
	}
}

func TestRoundTripPropertiesAllCategories(t *testing.T) {
	in := &Properties{
		PayloadFormatIndicator:          1,
		MessageExpiryInterval:           100,
		ContentType:                     "application/json",
		ResponseTopic:                   "resp/topic",
		CorrelationData:                 []byte{0xDE, 0xAD},
		SubscriptionIdentifier:          []int{1, 2, 300000},
		SessionExpiryInterval:           7200,
		AssignedClientIdentifier:        "assigned-id",
		ServerKeepAlive:                 120,
		AuthenticationMethod:            "SCRAM-SHA-256",
		AuthenticationData:              []byte{0x01, 0x02},
		RequestProblemInformation:       1,
		WillDelayInterval:               10,
		RequestResponseInformation:      1,
		ResponseInformation:             "resp/info",
		ServerReference:                 "other.example.com",
		ReasonString:                    "because",
		ReceiveMaximum:                  50,
		TopicAliasMaximum:               10,
		TopicAlias:                      3,
		MaximumQoS:                      1,
		RetainAvailable:                 true,
		UserProperties:                  []UserProperty{{Key: "a", Value: "1"}, {Key: "b", Value: "2"}},
		MaximumPacketSize:               65536,
		WildcardSubscriptionAvailable:   true,
		SubscriptionIdentifierAvailable: true,
		SharedSubscriptionAvailable:     true,
	}
	in.Presence = PresPayloadFormatIndicator | PresMessageExpiryInterval | PresContentType |
		PresResponseTopic | PresSessionExpiryInterval | PresAssignedClientIdentifier |
		PresServerKeepAlive | PresAuthenticationMethod | PresRequestProblemInformation |
		PresWillDelayInterval | PresRequestResponseInformation | PresResponseInformation |
		PresServerReference | PresReasonString | PresReceiveMaximum | PresTopicAliasMaximum |
		PresTopicAlias | PresMaximumQoS | PresRetainAvailable | PresMaximumPacketSize |
		PresWildcardSubscriptionAvailable | PresSubscriptionIdentifierAvailable |
		PresSharedSubscriptionAvailable

	encoded := appendProperties(nil, in)
	out, n, err := decodeProperties(encoded)
	if err != nil {
		t.Fatalf("decodeProperties: %v", err)
	}
	if n != len(encoded) {
		t.Fatalf("decodeProperties consumed %d bytes, want %d", n, len(encoded))
	}
	if !reflect.DeepEqual(in, out) {
		t.Fatalf("round trip mismatch:\nin:  %+v\nout: %+v", in, out)
	}
}

func TestRoundTripPropertiesNil(t *testing.T) {
	encoded := appendProperties(nil, nil)
	out, n, err := decodeProperties(encoded)
	if err != nil {
		t.Fatalf("decodeProperties: %v", err)
	}
	if n != 1 || out != nil {
		t.Fatalf("expected empty property bag to decode as (nil, 1), got (%+v, %d)", out, n)
	}
}

func TestRoundTripPropertiesLongLength(t *testing.T) {
	// Force the length prefix past the 1-byte varint boundary (>=128) to
	// exercise appendProperties' back-patch-and-grow path.
	many := make([]UserProperty, 20)
	for i := range many {
		many[i] = UserProperty{Key: "key-with-some-length", Value: "value-with-some-length-too"}
	}
	in := &Properties{UserProperties: many}

	encoded := appendProperties(nil, in)
	propLen, n, err := decodeVarIntBuf(encoded)
	if err != nil {
		t.Fatalf("decodeVarIntBuf: %v", err)
	}
	if propLen < 128 {
		t.Fatalf("test setup failed to exceed 1-byte varint length, got %d", propLen)
	}

	out, total, err := decodeProperties(encoded)
	if err != nil {
		t.Fatalf("decodeProperties: %v", err)
	}
	if total != n+propLen {
		t.Fatalf("decodeProperties total = %d, want %d", total, n+propLen)
	}
	if !reflect.DeepEqual(in, out) {
		t.Fatalf("round trip mismatch:\nin:  %+v\nout: %+v", in, out)
	}
}
