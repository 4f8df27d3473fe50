package mqtt5

import (
	"context"
	"errors"

	"github.com/nimbusmq/mqtt5/internal/wire"
	"github.com/nimbusmq/mqtt5/sendqueue"
)

// runReader pulls one frame at a time off stream and posts it to incoming
// until ctx is done or a read fails. On a malformed packet it
// priority-enqueues DISCONNECT(reason=malformed_packet) on sendQ before
// returning, so runWriter has a chance to flush it ahead of teardown. A read
// error is recorded in *lastErr before the deferred close of incoming, so
// runConnected can read *lastErr the moment it observes the channel close
// without any extra synchronization.
func runReader(ctx context.Context, stream Stream, incoming chan<- wire.Packet, sendQ *sendqueue.Queue, maxIncoming int, metrics *Metrics, lastErr *error) error {
	defer close(incoming)
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		pkt, err := wire.ReadPacket(stream, maxIncoming)
		if err != nil {
			if errors.Is(err, wire.ErrMalformedPacket) {
				sendQ.PushPriority(encodeDisconnectWire(uint8(ReasonMalformedPacket), nil))
			}
			*lastErr = err
			return err
		}
		metrics.packetReceived(wire.PacketNames[pkt.Type()], 0)
		select {
		case incoming <- pkt:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// runWriter drains sendQ to stream, one frame at a time, until ctx is done
// or a write fails.
func runWriter(ctx context.Context, stream Stream, sendQ *sendqueue.Queue, metrics *Metrics) error {
	for {
		frame, err := sendQ.Pop(ctx)
		if err != nil {
			return err
		}
		if _, err := stream.Write(frame); err != nil {
			return err
		}
		if len(frame) > 0 {
			metrics.packetSent(wire.PacketNames[frame[0]>>4], len(frame))
		}
	}
}
