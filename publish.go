package mqtt5

// PublishOption configures a single Publish call.
type PublishOption func(*publishConfig)

type publishConfig struct {
	props    *Properties
	useAlias bool
}

// WithPublishProperties attaches a property bag to the outgoing PUBLISH.
func WithPublishProperties(p *Properties) PublishOption {
	return func(c *publishConfig) { c.props = p }
}

// WithTopicAlias opts this publish into the client's topic-alias cache
// (see topic_alias.go), substituting an alias for the topic name on
// repeat publishes once the broker has advertised topic_alias_maximum > 0.
func WithTopicAlias() PublishOption {
	return func(c *publishConfig) { c.useAlias = true }
}

// publishToken is the Token returned by Publish; once resolved, its
// ReasonCode and AckProps fields hold the terminal reason code and any
// broker-supplied ack properties.
type publishToken struct {
	*token
	ReasonCode ReasonCode
	AckProps   *Properties
}

func newPublishToken() *publishToken {
	return &publishToken{token: newToken()}
}

// publishRequest is posted to the logic loop by Client.Publish.
type publishRequest struct {
	topic    string
	payload  []byte
	qos      QoS
	retained bool
	cfg      publishConfig
	token    *publishToken
}

// beginPublish validates and admits req, encoding and queuing frames as
// appropriate for its QoS level. Called only from the logic loop.
func (l *logicLoop) beginPublish(req *publishRequest) {
	s := l.sess
	if err := validateTopicName(req.topic, l.opts().MaxTopicLength); err != nil {
		req.token.complete(err)
		return
	}
	if err := validatePayloadSize(req.payload, l.opts().MaxPayloadSize); err != nil {
		req.token.complete(err)
		return
	}
	if err := validatePayloadFormat(req.payload, req.cfg.props); err != nil {
		req.token.complete(err)
		return
	}
	if req.retained && !s.limits.RetainAvailable {
		req.token.complete(ErrRetainNotAvailable)
		return
	}
	if req.qos > QoS(s.limits.MaximumQoS) {
		req.token.complete(ErrQoSNotSupported)
		return
	}
	if req.cfg.props != nil {
		if err := validateUserProperties(req.cfg.props.UserProperties); err != nil {
			req.token.complete(err)
			return
		}
	}

	if req.qos == AtMostOnce {
		frame, err := encodePublishFrame(0, req.topic, req.payload, req.qos, req.retained, false, req.cfg, s)
		if err != nil {
			req.token.complete(err)
			return
		}
		if err := validatePacketSize(len(frame), s.limits); err != nil {
			req.token.complete(err)
			return
		}
		l.enqueue(frame)
		req.token.complete(nil)
		return
	}

	l.admitQoSPublish(req)
}

// admitQoSPublish blocks (via the flow gate) until a slot is available,
// then allocates a packet id and transitions the record to sent.
func (l *logicLoop) admitQoSPublish(req *publishRequest) {
	if err := l.gate.Acquire(l.ctx); err != nil {
		req.token.complete(err)
		return
	}
	id, ok := l.ids.Allocate()
	if !ok {
		l.gate.Release()
		req.token.complete(ErrPidOverrun)
		return
	}

	frame, err := encodePublishFrame(id, req.topic, req.payload, req.qos, req.retained, false, req.cfg, l.sess)
	if err != nil {
		l.ids.Release(id)
		l.gate.Release()
		req.token.complete(err)
		return
	}
	if err := validatePacketSize(len(frame), l.sess.limits); err != nil {
		l.ids.Release(id)
		l.gate.Release()
		req.token.complete(err)
		return
	}

	rec := &inFlightPublish{
		id: id, topic: req.topic, payload: req.payload, qos: req.qos,
		retain: req.retained, props: req.cfg.props, token: req.token,
	}
	if req.qos == AtLeastOnce {
		rec.phase = phaseAwaitingPuback
	} else {
		rec.phase = phaseAwaitingPubrec
	}
	l.sess.inflight[id] = rec
	l.metrics().setInflight(len(l.sess.inflight))
	l.enqueue(frame)
}

func encodePublishFrame(id uint16, topic string, payload []byte, qos QoS, retain, dup bool, cfg publishConfig, s *session) ([]byte, error) {
	wireTopic := topic
	props := cfg.props.toWire()
	if cfg.useAlias {
		s.aliases.apply(&wireTopic, &props)
	}
	return encodePublishWire(id, wireTopic, payload, qos, retain, dup, props)
}

// handlePuback completes a QoS 1 record on PUBACK.
func (l *logicLoop) handlePuback(id uint16, reason ReasonCode, props *Properties) {
	rec, ok := l.sess.inflight[id]
	if !ok {
		l.protocolError("PUBACK for unknown packet id")
		return
	}
	delete(l.sess.inflight, id)
	l.ids.Release(id)
	l.gate.Release()
	l.metrics().setInflight(len(l.sess.inflight))
	rec.token.ReasonCode = reason
	rec.token.AckProps = props
	if reason.Failed() {
		rec.token.complete(&ReasonCodeError{Code: reason, ReasonString: reasonStringOf(props)})
	} else {
		rec.token.complete(nil)
	}
}

// handlePubrec advances a QoS 2 record to awaiting PUBCOMP, sending PUBREL.
func (l *logicLoop) handlePubrec(id uint16, reason ReasonCode, props *Properties) {
	rec, ok := l.sess.inflight[id]
	if !ok {
		l.protocolError("PUBREC for unknown packet id")
		return
	}
	if reason.Failed() {
		delete(l.sess.inflight, id)
		l.ids.Release(id)
		l.gate.Release()
		l.metrics().setInflight(len(l.sess.inflight))
		rec.token.ReasonCode = reason
		rec.token.complete(&ReasonCodeError{Code: reason, ReasonString: reasonStringOf(props)})
		return
	}
	rec.phase = phaseAwaitingPubcomp
	l.enqueue(encodePubrelWire(id, 0, nil))
}

// handlePubcomp completes a QoS 2 record on PUBCOMP.
func (l *logicLoop) handlePubcomp(id uint16, reason ReasonCode, props *Properties) {
	rec, ok := l.sess.inflight[id]
	if !ok {
		l.protocolError("PUBCOMP for unknown packet id")
		return
	}
	delete(l.sess.inflight, id)
	l.ids.Release(id)
	l.gate.Release()
	l.metrics().setInflight(len(l.sess.inflight))
	rec.token.ReasonCode = reason
	rec.token.AckProps = props
	if reason.Failed() {
		rec.token.complete(&ReasonCodeError{Code: reason, ReasonString: reasonStringOf(props)})
	} else {
		rec.token.complete(nil)
	}
}

func reasonStringOf(p *Properties) string {
	if p == nil {
		return ""
	}
	return p.ReasonString
}
