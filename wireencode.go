package mqtt5

import (
	"bytes"

	"github.com/nimbusmq/mqtt5/internal/wire"
)

// encodePublishWire builds a wire-ready PUBLISH frame using the codec's
// append-style hot path (no io.Writer indirection).
func encodePublishWire(id uint16, topic string, payload []byte, qos QoS, retain, dup bool, props *wire.Properties) ([]byte, error) {
	pkt := &wire.PublishPacket{
		Dup: dup, QoS: uint8(qos), Retain: retain,
		Topic: topic, PacketID: id, Payload: payload, Properties: props,
	}
	return pkt.Encode(nil)
}

func encodePubrelWire(id uint16, reason uint8, props *wire.Properties) []byte {
	return writeFrame(&wire.PubrelPacket{PacketID: id, ReasonCode: reason, Properties: props})
}

func encodePubackWire(id uint16, reason uint8, props *wire.Properties) []byte {
	pkt := &wire.PubackPacket{PacketID: id, ReasonCode: reason, Properties: props}
	b, _ := pkt.Encode(nil)
	return b
}

func encodePubrecWire(id uint16, reason uint8, props *wire.Properties) []byte {
	return writeFrame(&wire.PubrecPacket{PacketID: id, ReasonCode: reason, Properties: props})
}

func encodePubcompWire(id uint16, reason uint8, props *wire.Properties) []byte {
	return writeFrame(&wire.PubcompPacket{PacketID: id, ReasonCode: reason, Properties: props})
}

func encodeSubscribeWire(id uint16, topics []string, qos []uint8, noLocal, retainAsPublished []bool, retainHandling []uint8, props *wire.Properties) []byte {
	return writeFrame(&wire.SubscribePacket{
		PacketID: id, Topics: topics, QoS: qos,
		NoLocal: noLocal, RetainAsPublished: retainAsPublished, RetainHandling: retainHandling,
		Properties: props,
	})
}

func encodeUnsubscribeWire(id uint16, topics []string, props *wire.Properties) []byte {
	return writeFrame(&wire.UnsubscribePacket{PacketID: id, Topics: topics, Properties: props})
}

func encodePingreqWire() []byte {
	return writeFrame(&wire.PingreqPacket{})
}

func encodeDisconnectWire(reason uint8, props *wire.Properties) []byte {
	return writeFrame(&wire.DisconnectPacket{ReasonCode: reason, Properties: props})
}

func encodeAuthWire(reason uint8, props *wire.Properties) []byte {
	return writeFrame(&wire.AuthPacket{ReasonCode: reason, Properties: props})
}

func encodeConnectWire(pkt *wire.ConnectPacket) []byte {
	return writeFrame(pkt)
}

func writeFrame(p wire.Packet) []byte {
	var buf bytes.Buffer
	_, _ = p.WriteTo(&buf)
	return buf.Bytes()
}
