package wire

import (
	"encoding/binary"
	"fmt"
	"io"
)

// PubrecPacket represents an MQTT v5.0 PUBREC control packet (QoS 2, step 1).
type PubrecPacket struct {
	PacketID   uint16
	ReasonCode uint8
	Properties *Properties
}

// Type returns the packet type.
func (p *PubrecPacket) Type() uint8 {
	return PUBREC
}

// WriteTo writes the PUBREC packet to the writer.
func (p *PubrecPacket) WriteTo(w io.Writer) (int64, error) {
	var total int64

	hasExtra := p.ReasonCode != 0 || p.Properties != nil
	var propsBytes []byte
	if hasExtra {
		propsBytes = encodeProperties(p.Properties)
	}

	variableHeaderLen := 2
	if hasExtra {
		variableHeaderLen += 1 + len(propsBytes)
	}

	header := &FixedHeader{
		PacketType:      PUBREC,
		Flags:           0,
		RemainingLength: variableHeaderLen,
	}

	hN, err := header.WriteTo(w)
	total += hN
	if err != nil {
		return total, err
	}

	var packetIDBytes [2]byte
	binary.BigEndian.PutUint16(packetIDBytes[:], p.PacketID)
	n, err := w.Write(packetIDBytes[:])
	total += int64(n)
	if err != nil {
		return total, err
	}

	if hasExtra {
		if err := binary.Write(w, binary.BigEndian, p.ReasonCode); err != nil {
			return total, err
		}
		total++

		n, err = w.Write(propsBytes)
		total += int64(n)
		if err != nil {
			return total, err
		}
	}

	return total, nil
}

// DecodePubrec decodes a PUBREC packet from the buffer.
func DecodePubrec(buf []byte) (*PubrecPacket, error) {
	if len(buf) < 2 {
		return nil, fmt.Errorf("buffer too short for PUBREC packet")
	}

	pkt := &PubrecPacket{}
	pkt.PacketID = binary.BigEndian.Uint16(buf[0:2])

	if len(buf) > 2 {
		pkt.ReasonCode = buf[2]
		if len(buf) > 3 {
			props, _, err := decodeProperties(buf[3:])
			if err != nil {
				return nil, fmt.Errorf("failed to decode properties: %w", err)
			}
			pkt.Properties = props
		}
	}

	return pkt, nil
}
