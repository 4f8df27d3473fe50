package wire

import (
	"encoding/binary"
	"fmt"
	"io"
)

// ProtocolLevel5 is the protocol level byte sent in every CONNECT packet.
const ProtocolLevel5 uint8 = 5

// ConnectPacket represents an MQTT v5.0 CONNECT control packet.
type ConnectPacket struct {
	// Connect flags
	CleanStart   bool
	WillFlag     bool
	WillQoS      uint8
	WillRetain   bool
	PasswordFlag bool
	UsernameFlag bool

	// Keep alive timer in seconds
	KeepAlive uint16

	// Payload
	ClientID string

	// Will fields (only used if WillFlag is true)
	WillTopic      string
	WillMessage    []byte
	WillProperties *Properties

	// Credentials (only used if respective flags are true)
	Username string
	Password string

	Properties *Properties
}

// Type returns the packet type.
func (p *ConnectPacket) Type() uint8 {
	return CONNECT
}

// WriteTo writes the CONNECT packet to the writer.
func (p *ConnectPacket) WriteTo(w io.Writer) (int64, error) {
	var total int64

	protocolNameBytes := encodeString("MQTT")

	var connectFlags uint8
	if p.CleanStart {
		connectFlags |= 0x02
	}
	if p.WillFlag {
		connectFlags |= 0x04
		connectFlags |= (p.WillQoS & 0x03) << 3
		if p.WillRetain {
			connectFlags |= 0x20
		}
	}
	if p.PasswordFlag {
		connectFlags |= 0x40
	}
	if p.UsernameFlag {
		connectFlags |= 0x80
	}

	propsBytes := encodeProperties(p.Properties)

	variableHeaderLen := len(protocolNameBytes) + 1 + 1 + 2 + len(propsBytes)

	clientIDBytes := encodeString(p.ClientID)
	payloadLen := len(clientIDBytes)

	var willPropsBytes, willTopicBytes, willMsgBytes []byte
	if p.WillFlag {
		willPropsBytes = encodeProperties(p.WillProperties)
		willTopicBytes = encodeString(p.WillTopic)
		willMsgBytes = encodeBinary(p.WillMessage)
		payloadLen += len(willPropsBytes) + len(willTopicBytes) + len(willMsgBytes)
	}

	var usernameBytes, passwordBytes []byte
	if p.UsernameFlag {
		usernameBytes = encodeString(p.Username)
		payloadLen += len(usernameBytes)
	}
	if p.PasswordFlag {
		passwordBytes = encodeString(p.Password)
		payloadLen += len(passwordBytes)
	}

	header := &FixedHeader{
		PacketType:      CONNECT,
		Flags:           0,
		RemainingLength: variableHeaderLen + payloadLen,
	}

	hN, err := header.WriteTo(w)
	total += hN
	if err != nil {
		return total, err
	}

	for _, chunk := range [][]byte{protocolNameBytes} {
		n, err := w.Write(chunk)
		total += int64(n)
		if err != nil {
			return total, err
		}
	}

	if err := binary.Write(w, binary.BigEndian, ProtocolLevel5); err != nil {
		return total, err
	}
	total++

	if err := binary.Write(w, binary.BigEndian, connectFlags); err != nil {
		return total, err
	}
	total++

	var keepAliveBytes [2]byte
	binary.BigEndian.PutUint16(keepAliveBytes[:], p.KeepAlive)
	n, err := w.Write(keepAliveBytes[:])
	total += int64(n)
	if err != nil {
		return total, err
	}

	n, err = w.Write(propsBytes)
	total += int64(n)
	if err != nil {
		return total, err
	}

	n, err = w.Write(clientIDBytes)
	total += int64(n)
	if err != nil {
		return total, err
	}

	if p.WillFlag {
		n, err = w.Write(willPropsBytes)
		total += int64(n)
		if err != nil {
			return total, err
		}
		n, err = w.Write(willTopicBytes)
		total += int64(n)
		if err != nil {
			return total, err
		}
		n, err = w.Write(willMsgBytes)
		total += int64(n)
		if err != nil {
			return total, err
		}
	}

	if p.UsernameFlag {
		n, err = w.Write(usernameBytes)
		total += int64(n)
		if err != nil {
			return total, err
		}
	}

	if p.PasswordFlag {
		n, err = w.Write(passwordBytes)
		total += int64(n)
		if err != nil {
			return total, err
		}
	}

	return total, nil
}

// DecodeConnect decodes a CONNECT packet from the buffer.
func DecodeConnect(buf []byte) (*ConnectPacket, error) {
	if len(buf) < 10 {
		return nil, fmt.Errorf("buffer too short for CONNECT packet")
	}

	pkt := &ConnectPacket{}
	offset := 0

	protocolName, n, err := decodeString(buf[offset:])
	if err != nil {
		return nil, fmt.Errorf("failed to decode protocol name: %w", err)
	}
	if protocolName != "MQTT" {
		return nil, fmt.Errorf("unexpected protocol name %q", protocolName)
	}
	offset += n

	if offset >= len(buf) {
		return nil, fmt.Errorf("buffer too short for protocol level")
	}
	protocolLevel := buf[offset]
	offset++
	if protocolLevel != ProtocolLevel5 {
		return nil, fmt.Errorf("unsupported protocol level %d", protocolLevel)
	}

	if offset >= len(buf) {
		return nil, fmt.Errorf("buffer too short for connect flags")
	}
	connectFlags := buf[offset]
	offset++

	pkt.CleanStart = (connectFlags & 0x02) != 0
	pkt.WillFlag = (connectFlags & 0x04) != 0
	pkt.WillQoS = (connectFlags >> 3) & 0x03
	pkt.WillRetain = (connectFlags & 0x20) != 0
	pkt.PasswordFlag = (connectFlags & 0x40) != 0
	pkt.UsernameFlag = (connectFlags & 0x80) != 0

	if offset+2 > len(buf) {
		return nil, fmt.Errorf("buffer too short for keep alive")
	}
	pkt.KeepAlive = uint16(buf[offset])<<8 | uint16(buf[offset+1])
	offset += 2

	props, nProps, err := decodeProperties(buf[offset:])
	if err != nil {
		return nil, fmt.Errorf("failed to decode properties: %w", err)
	}
	pkt.Properties = props
	offset += nProps

	clientID, n, err := decodeString(buf[offset:])
	if err != nil {
		return nil, fmt.Errorf("failed to decode client ID: %w", err)
	}
	pkt.ClientID = clientID
	offset += n

	if pkt.WillFlag {
		willProps, nProps, err := decodeProperties(buf[offset:])
		if err != nil {
			return nil, fmt.Errorf("failed to decode will properties: %w", err)
		}
		pkt.WillProperties = willProps
		offset += nProps

		willTopic, n, err := decodeString(buf[offset:])
		if err != nil {
			return nil, fmt.Errorf("failed to decode will topic: %w", err)
		}
		pkt.WillTopic = willTopic
		offset += n

		willMessage, n, err := decodeBinary(buf[offset:])
		if err != nil {
			return nil, fmt.Errorf("failed to decode will message: %w", err)
		}
		pkt.WillMessage = make([]byte, len(willMessage))
		copy(pkt.WillMessage, willMessage)
		offset += n
	}

	if pkt.UsernameFlag {
		username, n, err := decodeString(buf[offset:])
		if err != nil {
			return nil, fmt.Errorf("failed to decode username: %w", err)
		}
		pkt.Username = username
		offset += n
	}

	if pkt.PasswordFlag {
		password, _, err := decodeString(buf[offset:])
		if err != nil {
			return nil, fmt.Errorf("failed to decode password: %w", err)
		}
		pkt.Password = password
	}

	return pkt, nil
}
