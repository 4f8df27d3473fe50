package mqtt5

import (
	"fmt"

	"github.com/nimbusmq/mqtt5/internal/wire"
)

// dispatch routes one inbound packet to its handler. It runs only from the
// logic loop's select in runConnected.
func (l *logicLoop) dispatch(pkt wire.Packet) error {
	switch p := pkt.(type) {
	case *wire.PublishPacket:
		l.dispatchPublish(p)
	case *wire.PubackPacket:
		l.handlePuback(p.PacketID, ReasonCode(p.ReasonCode), fromWireAck(p.Properties))
	case *wire.PubrecPacket:
		l.handlePubrec(p.PacketID, ReasonCode(p.ReasonCode), fromWireAck(p.Properties))
	case *wire.PubrelPacket:
		l.handlePubrel(p.PacketID)
	case *wire.PubcompPacket:
		l.handlePubcomp(p.PacketID, ReasonCode(p.ReasonCode), fromWireAck(p.Properties))
	case *wire.SubackPacket:
		l.handleSuback(p.PacketID, p.ReasonCodes, fromWireAck(p.Properties))
	case *wire.UnsubackPacket:
		l.handleUnsuback(p.PacketID)
	case *wire.PingrespPacket:
		// nothing to do; pingOutstanding was already cleared on any inbound frame
	case *wire.AuthPacket:
		l.handleReauth(p)
	case *wire.DisconnectPacket:
		return &ReasonCodeError{Code: ReasonCode(p.ReasonCode), ReasonString: reasonStringOfWire(p.Properties)}
	default:
		return fmt.Errorf("mqtt5: unexpected packet %T after handshake", pkt)
	}
	return nil
}

// dispatchPublish handles an inbound application message: QoS 0 delivers
// immediately, QoS 1 replies with PUBACK after delivery, QoS 2 replies with
// PUBREC and defers delivery until the matching PUBREL (deduplicated by
// packet id so a retransmitted PUBLISH is never delivered twice).
func (l *logicLoop) dispatchPublish(p *wire.PublishPacket) {
	topic := p.Topic
	if p.UseAlias || topic == "" {
		if t, ok := l.sess.receivedAlias[p.PacketID]; ok && topic == "" {
			topic = t
		}
	}
	if alias, ok := aliasFromProps(p.Properties); ok {
		if topic != "" {
			l.sess.receivedAlias[alias] = topic
		} else if t, ok := l.sess.receivedAlias[alias]; ok {
			topic = t
		}
	}

	msg := Message{
		Topic:     topic,
		Payload:   p.Payload,
		QoS:       QoS(p.QoS),
		Retained:  p.Retain,
		Duplicate: p.Dup,
	}
	if p.Properties != nil {
		msg.Properties = fromWirePublish(p.Properties)
	}

	switch QoS(p.QoS) {
	case AtMostOnce:
		l.deliver(topic, msg)
	case AtLeastOnce:
		l.deliver(topic, msg)
		l.enqueue(encodePubackWire(p.PacketID, 0, nil))
	case ExactlyOnce:
		if _, dup := l.sess.incomingQoS2[p.PacketID]; !dup {
			l.sess.incomingQoS2[p.PacketID] = struct{}{}
			l.deliver(topic, msg)
		}
		l.enqueue(encodePubrecWire(p.PacketID, 0, nil))
	}
}

// handlePubrel completes the QoS 2 receive flow: the message was already
// delivered (or deduplicated) when PUBLISH arrived, so PUBREL only needs a
// PUBCOMP and release of the dedupe entry.
func (l *logicLoop) handlePubrel(id uint16) {
	delete(l.sess.incomingQoS2, id)
	l.enqueue(encodePubcompWire(id, 0, nil))
}

// deliver routes a received application message to every subscription
// whose filter matches topic, including shared subscriptions.
func (l *logicLoop) deliver(topic string, msg Message) {
	matched := false
	for filter, entry := range l.sess.subscriptions {
		f := filter
		if shared, ok := parseSharedSubscription(filter); ok {
			f = shared.Filter
		}
		if !matchTopic(f, topic) {
			continue
		}
		matched = true
		if entry.handler == nil {
			l.cl.inbox.push(msg)
			continue
		}
		handler := entry.handler
		go func() {
			defer func() { recover() }()
			handler(l.cl, msg)
		}()
	}
	if !matched {
		l.opts().Logger.Debug("no matching subscription for inbound publish", "topic", topic)
	}
}

func aliasFromProps(p *wire.Properties) (uint16, bool) {
	if p == nil || p.Presence&wire.PresTopicAlias == 0 {
		return 0, false
	}
	return p.TopicAlias, true
}
