package mqtt5

import "github.com/nimbusmq/mqtt5/internal/wire"

// Retain-handling values for a subscribe filter (MQTT 5 §3.8.3.1).
const (
	RetainSend       uint8 = 0
	RetainSendIfNew  uint8 = 1
	RetainDoNotSend  uint8 = 2
)

// subscribeFilter is one entry of a Subscribe call.
type subscribeFilter struct {
	Filter            string
	QoS               QoS
	NoLocal           bool
	RetainAsPublished bool
	RetainHandling    uint8
	Handler           MessageHandler
}

// SubscribeOption configures a single filter within a Subscribe call.
type SubscribeOption func(*subscribeFilter)

// WithNoLocal suppresses delivery of messages published by this same
// client on a matching topic.
func WithNoLocal() SubscribeOption {
	return func(f *subscribeFilter) { f.NoLocal = true }
}

// WithRetainAsPublished preserves the RETAIN flag of forwarded messages as
// published, instead of clearing it for non-retained delivery.
func WithRetainAsPublished() SubscribeOption {
	return func(f *subscribeFilter) { f.RetainAsPublished = true }
}

// WithRetainHandling sets how the broker treats existing retained messages
// on a matching topic at subscribe time.
func WithRetainHandling(mode uint8) SubscribeOption {
	return func(f *subscribeFilter) { f.RetainHandling = mode }
}

// subscribeConfig is the shared property bag for a Subscribe call
// (e.g. a subscription identifier applied to every filter in the call).
type subscribeConfig struct {
	props                  *Properties
	subscriptionIdentifier int
}

// SubscribeCallOption configures the SUBSCRIBE packet as a whole.
type SubscribeCallOption func(*subscribeConfig)

// WithSubscriptionIdentifier attaches a subscription identifier, echoed
// back on every PUBLISH matching this subscription.
func WithSubscriptionIdentifier(id int) SubscribeCallOption {
	return func(c *subscribeConfig) { c.subscriptionIdentifier = id }
}

// WithSubscribeProperties attaches a property bag to the SUBSCRIBE packet.
func WithSubscribeProperties(p *Properties) SubscribeCallOption {
	return func(c *subscribeConfig) { c.props = p }
}

// subscribeToken is the Token returned by Subscribe.
type subscribeToken struct {
	*token
	ReasonCodes []ReasonCode
	AckProps    *Properties
}

func newSubscribeToken() *subscribeToken {
	return &subscribeToken{token: newToken()}
}

type subscribeRequest struct {
	filters []subscribeFilter
	cfg     subscribeConfig
	token   *subscribeToken
}

func (l *logicLoop) beginSubscribe(req *subscribeRequest) {
	s := l.sess
	if len(req.filters) == 0 {
		req.token.complete(ErrInvalidTopic)
		return
	}
	for _, f := range req.filters {
		if err := validateTopicFilter(f.Filter, l.opts().MaxTopicLength); err != nil {
			req.token.complete(err)
			return
		}
		if err := validateSubscribeCapabilities(f.Filter, s.limits); err != nil {
			req.token.complete(err)
			return
		}
	}
	if err := validateSubscriptionIdentifier(req.cfg.subscriptionIdentifier, s.limits); err != nil {
		req.token.complete(err)
		return
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

	topics := make([]string, len(req.filters))
	qos := make([]uint8, len(req.filters))
	noLocal := make([]bool, len(req.filters))
	rap := make([]bool, len(req.filters))
	rh := make([]uint8, len(req.filters))
	for i, f := range req.filters {
		topics[i] = f.Filter
		qos[i] = uint8(f.QoS)
		noLocal[i] = f.NoLocal
		rap[i] = f.RetainAsPublished
		rh[i] = f.RetainHandling
		s.subscriptions[f.Filter] = subscriptionEntry{filter: f.Filter, handler: f.Handler, qos: f.QoS}
	}

	wireProps := req.cfg.props.toWire()
	if req.cfg.subscriptionIdentifier != 0 {
		if wireProps == nil {
			wireProps = &wire.Properties{}
		}
		wireProps.SubscriptionIdentifier = []int{req.cfg.subscriptionIdentifier}
	}

	frame := encodeSubscribeWire(id, topics, qos, noLocal, rap, rh, wireProps)
	if err := validatePacketSize(len(frame), s.limits); err != nil {
		l.ids.Release(id)
		req.token.complete(err)
		return
	}

	s.pendingSub[id] = &pendingSubscribe{id: id, filters: req.filters, token: req.token}
	l.metrics().setPendingOps(len(s.pendingSub) + len(s.pendingUnsub))
	l.enqueue(frame)
}

func (l *logicLoop) handleSuback(id uint16, reasons []uint8, props *Properties) {
	pending, ok := l.sess.pendingSub[id]
	if !ok {
		l.protocolError("SUBACK for unknown packet id")
		return
	}
	delete(l.sess.pendingSub, id)
	l.ids.Release(id)
	l.metrics().setPendingOps(len(l.sess.pendingSub) + len(l.sess.pendingUnsub))

	codes := make([]ReasonCode, len(reasons))
	for i, r := range reasons {
		codes[i] = ReasonCode(r)
	}
	pending.token.ReasonCodes = codes
	pending.token.AckProps = props

	for i, f := range pending.filters {
		if i < len(codes) && codes[i].Failed() {
			delete(l.sess.subscriptions, f.Filter)
		}
	}
	pending.token.complete(nil)
}
