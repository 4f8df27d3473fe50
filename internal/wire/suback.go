package wire

import (
	"encoding/binary"
	"fmt"
	"io"
)

// SubackPacket represents an MQTT v5.0 SUBACK control packet.
type SubackPacket struct {
	PacketID    uint16
	ReasonCodes []uint8
	Properties  *Properties
}

// Type returns the packet type.
func (p *SubackPacket) Type() uint8 {
	return SUBACK
}

// WriteTo writes the SUBACK packet to the writer.
func (p *SubackPacket) WriteTo(w io.Writer) (int64, error) {
	var total int64

	propsBytes := encodeProperties(p.Properties)
	variableHeaderLen := 2 + len(propsBytes)

	remainingLength := variableHeaderLen + len(p.ReasonCodes)
	header := &FixedHeader{
		PacketType:      SUBACK,
		Flags:           0,
		RemainingLength: remainingLength,
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

	n, err = w.Write(propsBytes)
	total += int64(n)
	if err != nil {
		return total, err
	}

	n, err = w.Write(p.ReasonCodes)
	total += int64(n)
	if err != nil {
		return total, err
	}

	return total, nil
}

// DecodeSuback decodes a SUBACK packet from the buffer.
func DecodeSuback(buf []byte) (*SubackPacket, error) {
	if len(buf) < 2 {
		return nil, fmt.Errorf("buffer too short for SUBACK packet")
	}

	pkt := &SubackPacket{}
	offset := 0

	pkt.PacketID = binary.BigEndian.Uint16(buf[offset : offset+2])
	offset += 2

	if offset >= len(buf) {
		return nil, fmt.Errorf("buffer too short for properties length")
	}
	props, n, err := decodeProperties(buf[offset:])
	if err != nil {
		return nil, fmt.Errorf("failed to decode properties: %w", err)
	}
	pkt.Properties = props
	offset += n

	if offset < len(buf) {
		pkt.ReasonCodes = make([]uint8, len(buf)-offset)
		copy(pkt.ReasonCodes, buf[offset:])
	}

	return pkt, nil
}
