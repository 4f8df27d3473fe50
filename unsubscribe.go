package mqtt5

// UnsubscribeOption configures an Unsubscribe call.
type UnsubscribeOption func(*unsubscribeConfig)

type unsubscribeConfig struct {
	props *Properties
}

// WithUnsubscribeProperties attaches a property bag to the UNSUBSCRIBE
// packet.
func WithUnsubscribeProperties(p *Properties) UnsubscribeOption {
	return func(c *unsubscribeConfig) { c.props = p }
}

type unsubscribeRequest struct {
	filters []string
	cfg     unsubscribeConfig
	token   *token
}

func (l *logicLoop) beginUnsubscribe(req *unsubscribeRequest) {
	if len(req.filters) == 0 {
		req.token.complete(ErrInvalidTopic)
		return
	}
	for _, f := range req.filters {
		if err := validateTopicFilter(f, l.opts().MaxTopicLength); err != nil {
			req.token.complete(err)
			return
		}
	}
	if req.cfg.props != nil {
		if err := validateUserProperties(req.cfg.props.UserProperties); err != nil {
			req.token.complete(err)
			return
		}
	}

	id, ok := l.ids.Allocate()
	if !ok {
		req.token.complete(ErrPidOverrun)
		return
	}

	frame := encodeUnsubscribeWire(id, req.filters, req.cfg.props.toWire())
	if err := validatePacketSize(len(frame), l.sess.limits); err != nil {
		l.ids.Release(id)
		req.token.complete(err)
		return
	}

	for _, f := range req.filters {
		delete(l.sess.subscriptions, f)
	}

	l.sess.pendingUnsub[id] = &pendingUnsubscribe{id: id, filters: req.filters, token: req.token}
	l.metrics().setPendingOps(len(l.sess.pendingSub) + len(l.sess.pendingUnsub))
	l.enqueue(frame)
}

func (l *logicLoop) handleUnsuback(id uint16) {
	pending, ok := l.sess.pendingUnsub[id]
	if !ok {
		l.protocolError("UNSUBACK for unknown packet id")
		return
	}
	delete(l.sess.pendingUnsub, id)
	l.ids.Release(id)
	l.metrics().setPendingOps(len(l.sess.pendingSub) + len(l.sess.pendingUnsub))
	pending.token.complete(nil)
}
