package wire

import (
	"encoding/binary"
	"fmt"
	"io"
)

// DisconnectPacket represents an MQTT v5.0 DISCONNECT control packet.
type DisconnectPacket struct {
	ReasonCode uint8
	Properties *Properties
}

// Type returns the packet type.
func (p *DisconnectPacket) Type() uint8 {
	return DISCONNECT
}

// WriteTo writes the DISCONNECT packet to the writer.
func (p *DisconnectPacket) WriteTo(w io.Writer) (int64, error) {
	var total int64

	hasExtra := p.ReasonCode != 0 || p.Properties != nil
	var propsBytes []byte
	if hasExtra {
		propsBytes = encodeProperties(p.Properties)
	}

	variableHeaderLen := 0
	if hasExtra {
		variableHeaderLen += 1 + len(propsBytes)
	}

	header := &FixedHeader{
		PacketType:      DISCONNECT,
		Flags:           0,
		RemainingLength: variableHeaderLen,
	}

	hN, err := header.WriteTo(w)
	total += hN
	if err != nil {
		return total, err
	}

	if hasExtra {
		if err := binary.Write(w, binary.BigEndian, p.ReasonCode); err != nil {
			return total, err
		}
		total++

		n, err := w.Write(propsBytes)
		total += int64(n)
		if err != nil {
			return total, err
		}
	}

	return total, nil
}

// DecodeDisconnect decodes a DISCONNECT packet.
func DecodeDisconnect(buf []byte) (*DisconnectPacket, error) {
	pkt := &DisconnectPacket{}

	if len(buf) > 0 {
		pkt.ReasonCode = buf[0]
		if len(buf) > 1 {
			props, _, err := decodeProperties(buf[1:])
			if err != nil {
				return nil, fmt.Errorf("failed to decode properties: %w", err)
			}
			pkt.Properties = props
		}
	}

	return pkt, nil
}
