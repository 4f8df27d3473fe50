package wire

import (
	"encoding/binary"
	"fmt"
)

// Property IDs defined in MQTT v5.0 spec
const (
	PropPayloadFormatIndicator          uint8 = 0x01
	PropMessageExpiryInterval           uint8 = 0x02
	PropContentType                     uint8 = 0x03
	PropResponseTopic                   uint8 = 0x08
	PropCorrelationData                 uint8 = 0x09
	PropSubscriptionIdentifier          uint8 = 0x0B
	PropSessionExpiryInterval           uint8 = 0x11
	PropAssignedClientIdentifier        uint8 = 0x12
	PropServerKeepAlive                 uint8 = 0x13
	PropAuthenticationMethod            uint8 = 0x15
	PropAuthenticationData              uint8 = 0x16
	PropRequestProblemInformation       uint8 = 0x17
	PropWillDelayInterval               uint8 = 0x18
	PropRequestResponseInformation      uint8 = 0x19
	PropResponseInformation             uint8 = 0x1A
	PropServerReference                 uint8 = 0x1C
	PropReasonString                    uint8 = 0x1F
	PropReceiveMaximum                  uint8 = 0x21
	PropTopicAliasMaximum               uint8 = 0x22
	PropTopicAlias                      uint8 = 0x23
	PropMaximumQoS                      uint8 = 0x24
	PropRetainAvailable                 uint8 = 0x25
	PropUserProperty                    uint8 = 0x26
	PropMaximumPacketSize               uint8 = 0x27
	PropWildcardSubscriptionAvailable   uint8 = 0x28
	PropSubscriptionIdentifierAvailable uint8 = 0x29
	PropSharedSubscriptionAvailable     uint8 = 0x2A
)

// Presence flags for Properties struct
const (
	PresPayloadFormatIndicator          uint32 = 1 << 0
	PresMessageExpiryInterval           uint32 = 1 << 1
	PresContentType                     uint32 = 1 << 2
	PresResponseTopic                   uint32 = 1 << 3
	PresSessionExpiryInterval           uint32 = 1 << 4
	PresAssignedClientIdentifier        uint32 = 1 << 5
	PresServerKeepAlive                 uint32 = 1 << 6
	PresAuthenticationMethod            uint32 = 1 << 7
	PresRequestProblemInformation       uint32 = 1 << 8
	PresWillDelayInterval               uint32 = 1 << 9
	PresRequestResponseInformation      uint32 = 1 << 10
	PresResponseInformation             uint32 = 1 << 11
	PresServerReference                 uint32 = 1 << 12
	PresReasonString                    uint32 = 1 << 13
	PresReceiveMaximum                  uint32 = 1 << 14
	PresTopicAliasMaximum               uint32 = 1 << 15
	PresTopicAlias                      uint32 = 1 << 16
	PresMaximumQoS                      uint32 = 1 << 17
	PresRetainAvailable                 uint32 = 1 << 18
	PresMaximumPacketSize               uint32 = 1 << 19
	PresWildcardSubscriptionAvailable   uint32 = 1 << 20
	PresSubscriptionIdentifierAvailable uint32 = 1 << 21
	PresSharedSubscriptionAvailable     uint32 = 1 << 22
)

// Property represents a single MQTT property.
type Property struct {
	ID    uint8
	Value any
}

// UserProperty represents a key-value pair.
type UserProperty struct {
	Key   string
	Value string
}

// Properties holds all standard MQTT 5.0 properties.
// Optimized for allocation-free decoding using value types and a bitmask.
type Properties struct {
	Presence                        uint32
	PayloadFormatIndicator          uint8
	MessageExpiryInterval           uint32
	ContentType                     string
	ResponseTopic                   string
	CorrelationData                 []byte
	SubscriptionIdentifier          []int
	SessionExpiryInterval           uint32
	AssignedClientIdentifier        string
	ServerKeepAlive                 uint16
	AuthenticationMethod            string
	AuthenticationData               []byte
	RequestProblemInformation       uint8
	WillDelayInterval               uint32
	RequestResponseInformation      uint8
	ResponseInformation             string
	ServerReference                 string
	ReasonString                    string
	ReceiveMaximum                  uint16
	TopicAliasMaximum               uint16
	TopicAlias                      uint16
	MaximumQoS                      uint8
	RetainAvailable                 bool
	UserProperties                  []UserProperty
	MaximumPacketSize               uint32
	WildcardSubscriptionAvailable   bool
	SubscriptionIdentifierAvailable bool
	SharedSubscriptionAvailable     bool
}

// propertyCodec is one property's wire behavior: whether it is present on p,
// how to append its id+value to dst, and how to decode its value (id
// already consumed) back onto p. Keying both directions off the same table,
// indexed by property id, keeps the set of properties MQTT 5 defines as the
// single source of truth instead of four parallel if-chains that have to be
// kept in sync by hand.
type propertyCodec struct {
	present func(p *Properties) bool
	encode  func(p *Properties, dst []byte) []byte
	decode  func(p *Properties, data []byte) (int, error)
}

func fixedNumeric1(id uint8, presence uint32, get func(p *Properties) uint8, set func(p *Properties, v uint8)) propertyCodec {
	return propertyCodec{
		present: func(p *Properties) bool { return p.Presence&presence != 0 },
		encode: func(p *Properties, dst []byte) []byte {
			return append(dst, id, get(p))
		},
		decode: func(p *Properties, data []byte) (int, error) {
			if len(data) < 1 {
				return 0, fmt.Errorf("malformed property 0x%02x", id)
			}
			set(p, data[0])
			p.Presence |= presence
			return 1, nil
		},
	}
}

func fixedNumeric2(id uint8, presence uint32, get func(p *Properties) uint16, set func(p *Properties, v uint16)) propertyCodec {
	return propertyCodec{
		present: func(p *Properties) bool { return p.Presence&presence != 0 },
		encode: func(p *Properties, dst []byte) []byte {
			dst = append(dst, id)
			return binary.BigEndian.AppendUint16(dst, get(p))
		},
		decode: func(p *Properties, data []byte) (int, error) {
			if len(data) < 2 {
				return 0, fmt.Errorf("malformed property 0x%02x", id)
			}
			set(p, binary.BigEndian.Uint16(data))
			p.Presence |= presence
			return 2, nil
		},
	}
}

func fixedNumeric4(id uint8, presence uint32, get func(p *Properties) uint32, set func(p *Properties, v uint32)) propertyCodec {
	return propertyCodec{
		present: func(p *Properties) bool { return p.Presence&presence != 0 },
		encode: func(p *Properties, dst []byte) []byte {
			dst = append(dst, id)
			return binary.BigEndian.AppendUint32(dst, get(p))
		},
		decode: func(p *Properties, data []byte) (int, error) {
			if len(data) < 4 {
				return 0, fmt.Errorf("malformed property 0x%02x", id)
			}
			set(p, binary.BigEndian.Uint32(data))
			p.Presence |= presence
			return 4, nil
		},
	}
}

func fixedBool(id uint8, presence uint32, get func(p *Properties) bool, set func(p *Properties, v bool)) propertyCodec {
	return propertyCodec{
		present: func(p *Properties) bool { return p.Presence&presence != 0 },
		encode: func(p *Properties, dst []byte) []byte {
			v := byte(0)
			if get(p) {
				v = 1
			}
			return append(dst, id, v)
		},
		decode: func(p *Properties, data []byte) (int, error) {
			if len(data) < 1 {
				return 0, fmt.Errorf("malformed property 0x%02x", id)
			}
			set(p, data[0] != 0)
			p.Presence |= presence
			return 1, nil
		},
	}
}

func fixedString(id uint8, presence uint32, get func(p *Properties) string, set func(p *Properties, v string)) propertyCodec {
	return propertyCodec{
		present: func(p *Properties) bool { return p.Presence&presence != 0 },
		encode: func(p *Properties, dst []byte) []byte {
			dst = append(dst, id)
			return appendString(dst, get(p))
		},
		decode: func(p *Properties, data []byte) (int, error) {
			s, n, err := decodeString(data)
			if err != nil {
				return 0, err
			}
			set(p, s)
			p.Presence |= presence
			return n, nil
		},
	}
}

// binaryByLength handles CorrelationData and AuthenticationData, the two
// binary properties the wire format never sets a presence bit for: their
// own non-empty length is the presence signal, both on encode and decode.
func binaryByLength(id uint8, get func(p *Properties) []byte, set func(p *Properties, v []byte)) propertyCodec {
	return propertyCodec{
		present: func(p *Properties) bool { return len(get(p)) > 0 },
		encode: func(p *Properties, dst []byte) []byte {
			dst = append(dst, id)
			return appendBinary(dst, get(p))
		},
		decode: func(p *Properties, data []byte) (int, error) {
			b, n, err := decodeBinary(data)
			if err != nil {
				return 0, err
			}
			set(p, b)
			return n, nil
		},
	}
}

// propertyTable is keyed by MQTT property id and drives both encode and
// decode for every scalar property. Repeatable properties (subscription
// identifier, user property) are handled separately in appendProperties and
// decodeProperties since a single id can appear any number of times.
var propertyTable = map[uint8]propertyCodec{
	PropPayloadFormatIndicator: fixedNumeric1(PropPayloadFormatIndicator, PresPayloadFormatIndicator,
		func(p *Properties) uint8 { return p.PayloadFormatIndicator },
		func(p *Properties, v uint8) { p.PayloadFormatIndicator = v }),
	PropMessageExpiryInterval: fixedNumeric4(PropMessageExpiryInterval, PresMessageExpiryInterval,
		func(p *Properties) uint32 { return p.MessageExpiryInterval },
		func(p *Properties, v uint32) { p.MessageExpiryInterval = v }),
	PropContentType: fixedString(PropContentType, PresContentType,
		func(p *Properties) string { return p.ContentType },
		func(p *Properties, v string) { p.ContentType = v }),
	PropResponseTopic: fixedString(PropResponseTopic, PresResponseTopic,
		func(p *Properties) string { return p.ResponseTopic },
		func(p *Properties, v string) { p.ResponseTopic = v }),
	PropCorrelationData: binaryByLength(PropCorrelationData,
		func(p *Properties) []byte { return p.CorrelationData },
		func(p *Properties, v []byte) { p.CorrelationData = v }),
	PropSessionExpiryInterval: fixedNumeric4(PropSessionExpiryInterval, PresSessionExpiryInterval,
		func(p *Properties) uint32 { return p.SessionExpiryInterval },
		func(p *Properties, v uint32) { p.SessionExpiryInterval = v }),
	PropAssignedClientIdentifier: fixedString(PropAssignedClientIdentifier, PresAssignedClientIdentifier,
		func(p *Properties) string { return p.AssignedClientIdentifier },
		func(p *Properties, v string) { p.AssignedClientIdentifier = v }),
	PropServerKeepAlive: fixedNumeric2(PropServerKeepAlive, PresServerKeepAlive,
		func(p *Properties) uint16 { return p.ServerKeepAlive },
		func(p *Properties, v uint16) { p.ServerKeepAlive = v }),
	PropAuthenticationMethod: fixedString(PropAuthenticationMethod, PresAuthenticationMethod,
		func(p *Properties) string { return p.AuthenticationMethod },
		func(p *Properties, v string) { p.AuthenticationMethod = v }),
	PropAuthenticationData: binaryByLength(PropAuthenticationData,
		func(p *Properties) []byte { return p.AuthenticationData },
		func(p *Properties, v []byte) { p.AuthenticationData = v }),
	PropRequestProblemInformation: fixedNumeric1(PropRequestProblemInformation, PresRequestProblemInformation,
		func(p *Properties) uint8 { return p.RequestProblemInformation },
		func(p *Properties, v uint8) { p.RequestProblemInformation = v }),
	PropWillDelayInterval: fixedNumeric4(PropWillDelayInterval, PresWillDelayInterval,
		func(p *Properties) uint32 { return p.WillDelayInterval },
		func(p *Properties, v uint32) { p.WillDelayInterval = v }),
	PropRequestResponseInformation: fixedNumeric1(PropRequestResponseInformation, PresRequestResponseInformation,
		func(p *Properties) uint8 { return p.RequestResponseInformation },
		func(p *Properties, v uint8) { p.RequestResponseInformation = v }),
	PropResponseInformation: fixedString(PropResponseInformation, PresResponseInformation,
		func(p *Properties) string { return p.ResponseInformation },
		func(p *Properties, v string) { p.ResponseInformation = v }),
	PropServerReference: fixedString(PropServerReference, PresServerReference,
		func(p *Properties) string { return p.ServerReference },
		func(p *Properties, v string) { p.ServerReference = v }),
	PropReasonString: fixedString(PropReasonString, PresReasonString,
		func(p *Properties) string { return p.ReasonString },
		func(p *Properties, v string) { p.ReasonString = v }),
	PropReceiveMaximum: fixedNumeric2(PropReceiveMaximum, PresReceiveMaximum,
		func(p *Properties) uint16 { return p.ReceiveMaximum },
		func(p *Properties, v uint16) { p.ReceiveMaximum = v }),
	PropTopicAliasMaximum: fixedNumeric2(PropTopicAliasMaximum, PresTopicAliasMaximum,
		func(p *Properties) uint16 { return p.TopicAliasMaximum },
		func(p *Properties, v uint16) { p.TopicAliasMaximum = v }),
	PropTopicAlias: fixedNumeric2(PropTopicAlias, PresTopicAlias,
		func(p *Properties) uint16 { return p.TopicAlias },
		func(p *Properties, v uint16) { p.TopicAlias = v }),
	PropMaximumQoS: fixedNumeric1(PropMaximumQoS, PresMaximumQoS,
		func(p *Properties) uint8 { return p.MaximumQoS },
		func(p *Properties, v uint8) { p.MaximumQoS = v }),
	PropRetainAvailable: fixedBool(PropRetainAvailable, PresRetainAvailable,
		func(p *Properties) bool { return p.RetainAvailable },
		func(p *Properties, v bool) { p.RetainAvailable = v }),
	PropMaximumPacketSize: fixedNumeric4(PropMaximumPacketSize, PresMaximumPacketSize,
		func(p *Properties) uint32 { return p.MaximumPacketSize },
		func(p *Properties, v uint32) { p.MaximumPacketSize = v }),
	PropWildcardSubscriptionAvailable: fixedBool(PropWildcardSubscriptionAvailable, PresWildcardSubscriptionAvailable,
		func(p *Properties) bool { return p.WildcardSubscriptionAvailable },
		func(p *Properties, v bool) { p.WildcardSubscriptionAvailable = v }),
	PropSubscriptionIdentifierAvailable: fixedBool(PropSubscriptionIdentifierAvailable, PresSubscriptionIdentifierAvailable,
		func(p *Properties) bool { return p.SubscriptionIdentifierAvailable },
		func(p *Properties, v bool) { p.SubscriptionIdentifierAvailable = v }),
	PropSharedSubscriptionAvailable: fixedBool(PropSharedSubscriptionAvailable, PresSharedSubscriptionAvailable,
		func(p *Properties) bool { return p.SharedSubscriptionAvailable },
		func(p *Properties, v bool) { p.SharedSubscriptionAvailable = v }),
}

// propertyOrder fixes the encode order so output is deterministic; decode
// never depends on it since every property is self-delimiting and keyed by
// its own id. PropSubscriptionIdentifier and PropUserProperty are handled
// outside the table (see appendProperties) because they can repeat.
var propertyOrder = []uint8{
	PropPayloadFormatIndicator, PropMessageExpiryInterval, PropContentType, PropResponseTopic,
	PropCorrelationData, PropSessionExpiryInterval, PropAssignedClientIdentifier, PropServerKeepAlive,
	PropAuthenticationMethod, PropAuthenticationData, PropRequestProblemInformation, PropWillDelayInterval,
	PropRequestResponseInformation, PropResponseInformation, PropServerReference, PropReasonString,
	PropReceiveMaximum, PropTopicAliasMaximum, PropTopicAlias, PropMaximumQoS, PropRetainAvailable,
	PropMaximumPacketSize, PropWildcardSubscriptionAvailable, PropSubscriptionIdentifierAvailable,
	PropSharedSubscriptionAvailable,
}

// encodeProperties serializes the properties into the MQTT v5 format.
// Returns the bytes of the "Properties" section (Length + Props).
func encodeProperties(p *Properties) []byte {
	if p == nil {
		return []byte{0x00} // Length 0
	}
	// Pre-allocate a reasonable guess to avoid initial re-allocations
	return appendProperties(make([]byte, 0, 64), p)
}

// appendProperties appends the serialized properties to dst.
func appendProperties(dst []byte, p *Properties) []byte {
	if p == nil {
		return append(dst, 0x00)
	}

	startLen := len(dst)
	// optimistically assume 1 byte length (len < 128)
	dst = append(dst, 0)
	propsStart := len(dst)

	for _, id := range propertyOrder {
		codec := propertyTable[id]
		if codec.present(p) {
			dst = codec.encode(p, dst)
		}
	}
	for _, subID := range p.SubscriptionIdentifier {
		dst = append(dst, PropSubscriptionIdentifier)
		dst = appendVarInt(dst, subID)
	}
	for _, up := range p.UserProperties {
		dst = append(dst, PropUserProperty)
		dst = appendString(dst, up.Key)
		dst = appendString(dst, up.Value)
	}

	// Calculate length of the properties data
	propLen := len(dst) - propsStart

	if propLen < 128 {
		dst[startLen] = byte(propLen)
		return dst
	}

	// If it doesn't fit, in 1 byte...
	lenBuf := encodeVarInt(propLen)
	lenDiff := len(lenBuf) - 1 // we already have 1 byte reserved

	dst = append(dst, make([]byte, lenDiff)...)
	copy(dst[propsStart+lenDiff:], dst[propsStart:propsStart+propLen])
	copy(dst[startLen:], lenBuf)

	return dst
}

// decodeProperties reads the properties from the buffer.
// Returns the properties and the number of bytes read (including length).
func decodeProperties(buf []byte) (*Properties, int, error) {
	if len(buf) == 0 {
		return nil, 0, fmt.Errorf("buffer too short for properties length")
	}

	propLen, n, err := decodeVarIntBuf(buf)
	if err != nil {
		return nil, 0, err
	}
	totalLen := n + propLen

	if len(buf) < totalLen {
		return nil, 0, fmt.Errorf("buffer too short for properties data")
	}

	if propLen == 0 {
		return nil, totalLen, nil
	}

	p := &Properties{}
	slice := buf[n:totalLen] // View into the properties data
	offset := 0

	for offset < len(slice) {
		id := slice[offset]
		offset++

		switch id {
		case PropSubscriptionIdentifier:
			val, consumed, err := decodeVarIntBuf(slice[offset:])
			if err != nil {
				return nil, 0, err
			}
			p.SubscriptionIdentifier = append(p.SubscriptionIdentifier, val)
			offset += consumed
			continue
		case PropUserProperty:
			k, nK, err := decodeString(slice[offset:])
			if err != nil {
				return nil, 0, err
			}
			v, nV, err := decodeString(slice[offset+nK:])
			if err != nil {
				return nil, 0, err
			}
			p.UserProperties = append(p.UserProperties, UserProperty{Key: k, Value: v})
			offset += nK + nV
			continue
		}

		codec, ok := propertyTable[id]
		if !ok {
			return nil, 0, fmt.Errorf("unsupported property ID: 0x%02x", id)
		}
		consumed, err := codec.decode(p, slice[offset:])
		if err != nil {
			return nil, 0, err
		}
		offset += consumed
	}

	return p, totalLen, nil
}
