package mqtt5

import "github.com/nimbusmq/mqtt5/internal/wire"

// Payload format indicators.
const (
	PayloadFormatBytes uint8 = 0
	PayloadFormatUTF8  uint8 = 1
)

// UserProperty is a single MQTT 5 user-property key/value pair. Unlike most
// properties, user properties are multi-valued: the same key may appear
// more than once, so Properties keeps them as an ordered slice rather than
// a map.
type UserProperty struct {
	Key   string
	Value string
}

// Properties carries the optional MQTT 5 property bag attached to outgoing
// operations and received on incoming acknowledgements/messages. All fields
// are optional; a nil pointer field means "not set" rather than zero.
type Properties struct {
	ContentType     string
	ResponseTopic   string
	CorrelationData []byte

	MessageExpiry *uint32
	PayloadFormat *uint8

	// SubscriptionIdentifier is receive-only: the subscription identifier(s)
	// that matched a received PUBLISH. Silently ignored if set when
	// publishing.
	SubscriptionIdentifier []int

	// ReasonString is receive-only diagnostic text from the broker.
	// Silently ignored if set on an outgoing packet.
	ReasonString string

	WillDelayInterval     *uint32
	SessionExpiryInterval *uint32

	UserProperties []UserProperty
}

// NewProperties returns an empty, ready-to-use Properties.
func NewProperties() *Properties {
	return &Properties{}
}

// AddUserProperty appends a user property. Unlike SetUserProperty, it never
// overwrites an existing key, since MQTT 5 permits repeated keys.
func (p *Properties) AddUserProperty(key, value string) {
	p.UserProperties = append(p.UserProperties, UserProperty{Key: key, Value: value})
}

// SetUserProperty replaces every existing value for key with a single
// (key, value) pair.
func (p *Properties) SetUserProperty(key, value string) {
	kept := p.UserProperties[:0]
	for _, up := range p.UserProperties {
		if up.Key != key {
			kept = append(kept, up)
		}
	}
	p.UserProperties = append(kept, UserProperty{Key: key, Value: value})
}

// GetUserProperty returns the first value associated with key, and whether
// any value was found.
func (p *Properties) GetUserProperty(key string) (string, bool) {
	for _, up := range p.UserProperties {
		if up.Key == key {
			return up.Value, true
		}
	}
	return "", false
}

// toWire converts a public Properties into the wire representation used by
// the codec, setting only the fields relevant to outgoing packets.
func (p *Properties) toWire() *wire.Properties {
	if p == nil {
		return nil
	}
	out := &wire.Properties{}
	if p.ContentType != "" {
		out.ContentType = p.ContentType
		out.Presence |= wire.PresContentType
	}
	if p.ResponseTopic != "" {
		out.ResponseTopic = p.ResponseTopic
		out.Presence |= wire.PresResponseTopic
	}
	if len(p.CorrelationData) > 0 {
		out.CorrelationData = p.CorrelationData
	}
	if p.MessageExpiry != nil {
		out.MessageExpiryInterval = *p.MessageExpiry
		out.Presence |= wire.PresMessageExpiryInterval
	}
	if p.PayloadFormat != nil {
		out.PayloadFormatIndicator = *p.PayloadFormat
		out.Presence |= wire.PresPayloadFormatIndicator
	}
	if p.WillDelayInterval != nil {
		out.WillDelayInterval = *p.WillDelayInterval
		out.Presence |= wire.PresWillDelayInterval
	}
	if p.SessionExpiryInterval != nil {
		out.SessionExpiryInterval = *p.SessionExpiryInterval
		out.Presence |= wire.PresSessionExpiryInterval
	}
	for _, up := range p.UserProperties {
		out.UserProperties = append(out.UserProperties, wire.UserProperty{Key: up.Key, Value: up.Value})
	}
	return out
}

// fromWirePublish converts the wire properties of a received PUBLISH into a
// public Properties, including the receive-only fields.
func fromWirePublish(w *wire.Properties) *Properties {
	if w == nil {
		return nil
	}
	p := &Properties{
		ContentType:            w.ContentType,
		ResponseTopic:          w.ResponseTopic,
		CorrelationData:        w.CorrelationData,
		ReasonString:           w.ReasonString,
		SubscriptionIdentifier: w.SubscriptionIdentifier,
	}
	if w.Presence&wire.PresMessageExpiryInterval != 0 {
		v := w.MessageExpiryInterval
		p.MessageExpiry = &v
	}
	if w.Presence&wire.PresPayloadFormatIndicator != 0 {
		v := w.PayloadFormatIndicator
		p.PayloadFormat = &v
	}
	for _, up := range w.UserProperties {
		p.UserProperties = append(p.UserProperties, UserProperty{Key: up.Key, Value: up.Value})
	}
	return p
}

// fromWireAck converts the wire properties of an ack-style packet
// (PUBACK/PUBREC/PUBCOMP/SUBACK/UNSUBACK/DISCONNECT) into a public
// Properties.
func fromWireAck(w *wire.Properties) *Properties {
	if w == nil {
		return nil
	}
	p := &Properties{ReasonString: w.ReasonString}
	for _, up := range w.UserProperties {
		p.UserProperties = append(p.UserProperties, UserProperty{Key: up.Key, Value: up.Value})
	}
	return p
}
