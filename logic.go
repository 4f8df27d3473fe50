package mqtt5

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nimbusmq/mqtt5/idpool"
	"github.com/nimbusmq/mqtt5/internal/wire"
	"github.com/nimbusmq/mqtt5/sendqueue"
	"golang.org/x/sync/errgroup"
)

// errClosedByUser marks a clean, caller-requested shutdown so the run loop
// can distinguish it from a connection failure worth reconnecting from.
var errClosedByUser = errors.New("mqtt5: closed")

// logicLoop is the single logical execution context that owns all session
// and operation state. Every field below is touched only from run and the
// methods it calls directly; nothing here is protected by a mutex.
type logicLoop struct {
	cl    *Client
	sess  *session
	ids   *idpool.Pool
	gate  *flowGate
	sendQ *sendqueue.Queue

	stream  Stream
	backoff *reconnectBackoff

	// ctx is the current connection's context, valid only while connected;
	// blocking operations admitted from outside the loop (the flow gate)
	// key off it so they unblock the moment the connection drops.
	ctx context.Context

	incoming chan wire.Packet
	connErr  chan error
}

func newLogicLoop(cl *Client) *logicLoop {
	return &logicLoop{
		cl:      cl,
		sess:    newSession(cl.opts),
		ids:     idpool.New(),
		gate:    newFlowGate(cl.opts.ReceiveMaximum),
		sendQ:   sendqueue.New(),
		backoff: newReconnectBackoff(cl.opts.BackoffInitial, cl.opts.BackoffCeiling),
	}
}

func (l *logicLoop) opts() *options   { return l.cl.opts }
func (l *logicLoop) metrics() *Metrics { return l.cl.opts.Metrics }

func (l *logicLoop) enqueue(frame []byte)         { l.sendQ.Push(frame) }
func (l *logicLoop) enqueuePriority(frame []byte) { l.sendQ.PushPriority(frame) }

func (l *logicLoop) protocolError(reason string) {
	l.opts().Logger.Error("protocol violation, disconnecting", "reason", reason)
	l.enqueuePriority(encodeDisconnectWire(uint8(ReasonProtocolError), nil))
	if l.connErr != nil {
		select {
		case l.connErr <- errors.New("mqtt5: protocol error: " + reason):
		default:
		}
	}
}

// run drives the session FSM for the client's lifetime: connect, handshake,
// serve, and on any connection loss back off and retry, until ctx is done
// or a terminal authentication failure occurs.
func (l *logicLoop) run(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			l.failAllPending(ErrOperationCancelled)
			return ctx.Err()
		}

		ep, ok := l.sess.nextBroker()
		if !ok {
			l.failAllPending(ErrNoBroker)
			return ErrNoBroker
		}

		l.sess.state = stateConnecting
		connCtx, cancel := context.WithCancel(ctx)

		stream, err := l.opts().Dialer(connCtx, ep)
		if err != nil {
			cancel()
			l.opts().Logger.Warn("connect failed", "broker", ep.Authority(), "error", err)
			// A cancelled wait returns early; the ctx check at the top of
			// the loop then fails every pending operation and returns.
			l.waitBackoff(ctx)
			continue
		}
		stream.AssignSNI(ep.Authority())
		l.stream = stream
		l.sendQ.Rebuild(nil)

		if err := l.handshake(connCtx); err != nil {
			stream.Close()
			cancel()
			if terminalAuthFailure(err) {
				l.failAllPending(err)
				return err
			}
			l.opts().Logger.Warn("handshake failed", "broker", ep.Authority(), "error", err)
			// A cancelled wait returns early; the ctx check at the top of
			// the loop then fails every pending operation and returns.
			l.waitBackoff(ctx)
			continue
		}

		l.backoff.Reset()
		l.metrics().reconnected()
		if l.opts().OnConnect != nil {
			l.opts().OnConnect(l.cl)
		}

		err = l.runConnected(connCtx)
		_ = l.stream.Teardown(context.Background())
		stream.Close()
		cancel()

		if errors.Is(err, errClosedByUser) {
			l.sess.state = stateClosed
			l.failAllPending(ErrOperationCancelled)
			return nil
		}
		if l.opts().OnConnectionLost != nil {
			l.opts().OnConnectionLost(l.cl, err)
		}
		l.failPendingSubUnsub()
		l.sess.state = stateReconnectWait
		l.waitBackoff(ctx)
	}
}

func terminalAuthFailure(err error) bool {
	var rce *ReasonCodeError
	if errors.As(err, &rce) {
		return rce.Code == ReasonNotAuthorized || rce.Code == ReasonBadAuthenticationMethod
	}
	return false
}

func (l *logicLoop) waitBackoff(ctx context.Context) bool {
	l.sess.state = stateReconnectWait
	d := l.backoff.Next()
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}

// runConnected spawns the per-connection reader/writer goroutines and
// serves commands and inbound packets until the connection drops, the
// caller disconnects, or ctx is cancelled.
func (l *logicLoop) runConnected(ctx context.Context) error {
	l.sess.state = stateConnected
	l.incoming = make(chan wire.Packet, 32)
	l.connErr = make(chan error, 2)

	connCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	l.ctx = connCtx
	defer func() { l.ctx = nil }()

	var readErr error
	var eg errgroup.Group
	eg.Go(func() error {
		return runReader(connCtx, l.stream, l.incoming, l.sendQ, l.opts().MaxIncomingPacket, l.metrics(), &readErr)
	})
	eg.Go(func() error { return runWriter(connCtx, l.stream, l.sendQ, l.metrics()) })

	var keepAlive *time.Ticker
	interval := l.effectiveKeepAlive()
	var keepAliveC <-chan time.Time
	if interval > 0 {
		keepAlive = time.NewTicker(interval)
		defer keepAlive.Stop()
		keepAliveC = keepAlive.C
	}

	var loopErr error
loop:
	for {
		select {
		case <-ctx.Done():
			loopErr = errClosedByUser
			break loop

		case err := <-l.connErr:
			loopErr = err
			break loop

		case pkt, ok := <-l.incoming:
			if !ok {
				switch {
				case errors.Is(readErr, wire.ErrMalformedPacket):
					loopErr = fmt.Errorf("%w: %w", ErrMalformedPacket, readErr)
				case readErr != nil && !errors.Is(readErr, context.Canceled):
					loopErr = readErr
				default:
					loopErr = errors.New("mqtt5: connection closed by peer")
				}
				break loop
			}
			l.sess.pingOutstanding = false
			if err := l.dispatch(pkt); err != nil {
				loopErr = err
				break loop
			}

		case cmd := <-l.cl.cmds:
			l.handleCommand(cmd)
			if _, ok := cmd.(*disconnectRequest); ok {
				loopErr = errClosedByUser
				break loop
			}

		case <-keepAliveC:
			if l.sess.pingOutstanding {
				loopErr = errors.New("mqtt5: keep-alive timeout")
				break loop
			}
			l.enqueuePriority(encodePingreqWire())
			l.sess.pingOutstanding = true
		}
	}

	cancel()
	_ = eg.Wait()
	return loopErr
}

func (l *logicLoop) effectiveKeepAlive() time.Duration {
	if l.sess.limits.ServerKeepAlive > 0 {
		return time.Duration(l.sess.limits.ServerKeepAlive) * time.Second
	}
	return l.opts().KeepAlive
}

// handleCommand applies a command posted from outside the logic loop.
func (l *logicLoop) handleCommand(cmd any) {
	switch req := cmd.(type) {
	case *publishRequest:
		l.beginPublish(req)
	case *subscribeRequest:
		l.beginSubscribe(req)
	case *unsubscribeRequest:
		l.beginUnsubscribe(req)
	case *disconnectRequest:
		frame := encodeDisconnectWire(req.reason, req.props.toWire())
		l.enqueuePriority(frame)
		req.done <- nil
	case *reauthRequest:
		l.beginReauth(req)
	}
}

// failAllPending resolves every pending operation with err, used when the
// client is torn down entirely (Cancel or a terminal failure).
func (l *logicLoop) failAllPending(err error) {
	for id, rec := range l.sess.inflight {
		rec.token.complete(err)
		l.ids.Release(id)
	}
	l.sess.inflight = map[uint16]*inFlightPublish{}
	l.failPendingSubUnsub()
}

// failPendingSubUnsub fails every pending SUBSCRIBE/UNSUBSCRIBE with
// ErrSessionExpired: these are never resent across a reconnect.
func (l *logicLoop) failPendingSubUnsub() {
	for id, p := range l.sess.pendingSub {
		p.token.complete(ErrSessionExpired)
		l.ids.Release(id)
	}
	l.sess.pendingSub = map[uint16]*pendingSubscribe{}
	for id, p := range l.sess.pendingUnsub {
		p.token.complete(ErrSessionExpired)
		l.ids.Release(id)
	}
	l.sess.pendingUnsub = map[uint16]*pendingUnsubscribe{}
	l.metrics().setPendingOps(0)
}
