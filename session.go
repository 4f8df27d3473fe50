package mqtt5

import (
	"time"

	"github.com/nimbusmq/mqtt5/internal/wire"
)

// sessionState is one state of the session state machine described by the
// session FSM component.
type sessionState int

const (
	stateIdle sessionState = iota
	stateConnecting
	stateHandshaking
	stateConnected
	stateDisconnecting
	stateReconnectWait
	stateClosed
)

func (s sessionState) String() string {
	switch s {
	case stateIdle:
		return "idle"
	case stateConnecting:
		return "connecting"
	case stateHandshaking:
		return "handshaking"
	case stateConnected:
		return "connected"
	case stateDisconnecting:
		return "disconnecting"
	case stateReconnectWait:
		return "reconnect_wait"
	case stateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// publishPhase tracks an in-flight QoS 1/2 PUBLISH through its handshake.
type publishPhase int

const (
	phaseAwaitingPuback publishPhase = iota
	phaseAwaitingPubrec
	phaseAwaitingPubcomp
)

// inFlightPublish is a QoS 1/2 PUBLISH record kept until a terminal
// acknowledgement arrives, reinserted into the wire on every reconnect
// until then.
type inFlightPublish struct {
	id      uint16
	topic   string
	payload []byte
	qos     QoS
	retain  bool
	props   *Properties
	dup     bool
	phase   publishPhase
	token   *publishToken
}

// pendingSubscribe / pendingUnsubscribe are never resent across a
// reconnect: a reconnect fails them outright with ErrSessionExpired.
type pendingSubscribe struct {
	id      uint16
	filters []subscribeFilter
	token   *subscribeToken
}

type pendingUnsubscribe struct {
	id      uint16
	filters []string
	token   *token
}

// subscriptionEntry records a live subscription's handler and options so
// the dispatcher can route matching PUBLISH frames to it, including shared
// subscriptions and wildcard matching.
type subscriptionEntry struct {
	filter  string
	handler MessageHandler
	qos     QoS
}

func newSession(opts *options) *session {
	return &session{
		opts:           opts,
		limits:         defaultServerLimits(),
		inflight:       make(map[uint16]*inFlightPublish),
		pendingSub:     make(map[uint16]*pendingSubscribe),
		pendingUnsub:   make(map[uint16]*pendingUnsubscribe),
		incomingQoS2:   make(map[uint16]struct{}),
		subscriptions:  make(map[string]subscriptionEntry),
		receivedAlias:  make(map[uint16]string),
		aliases:        newTopicAliases(),
		lastPacketSent: time.Now(),
	}
}

// session holds every piece of state touched only from the logic loop's
// single execution context; no field here is ever locked.
type session struct {
	opts   *options
	state  sessionState
	limits serverLimits

	brokerIdx int
	clientID  string
	epoch     uint64

	inflight     map[uint16]*inFlightPublish
	pendingSub   map[uint16]*pendingSubscribe
	pendingUnsub map[uint16]*pendingUnsubscribe
	incomingQoS2 map[uint16]struct{}

	subscriptions map[string]subscriptionEntry
	aliases       *topicAliases
	receivedAlias map[uint16]string

	lastPacketSent time.Time
	pingOutstanding bool

	sessionPresent bool
}

// nextBroker returns the broker to dial and advances the round-robin index.
func (s *session) nextBroker() (Endpoint, bool) {
	if len(s.opts.Brokers) == 0 {
		return Endpoint{}, false
	}
	ep := s.opts.Brokers[s.brokerIdx%len(s.opts.Brokers)]
	s.brokerIdx++
	return ep, true
}

// resetForFreshSession drops all QoS 1/2 in-flight records (used when
// CONNACK reports session_present=false) and clears receive-side state
// tied to the previous connection epoch.
func (s *session) resetForFreshSession(ids interface{ Release(uint16) }) {
	for id := range s.inflight {
		ids.Release(id)
	}
	s.inflight = make(map[uint16]*inFlightPublish)
	s.incomingQoS2 = make(map[uint16]struct{})
}

// applyConnack captures the negotiated limits from a successful CONNACK.
func (s *session) applyConnack(ack *wire.ConnackPacket) {
	lim := defaultServerLimits()
	p := ack.Properties
	if p != nil {
		if p.Presence&wire.PresMaximumPacketSize != 0 {
			lim.MaximumPacketSize = p.MaximumPacketSize
		}
		if p.Presence&wire.PresReceiveMaximum != 0 {
			lim.ReceiveMaximum = p.ReceiveMaximum
		} else {
			lim.ReceiveMaximum = 65535
		}
		if p.Presence&wire.PresTopicAliasMaximum != 0 {
			lim.TopicAliasMaximum = p.TopicAliasMaximum
		}
		if p.Presence&wire.PresMaximumQoS != 0 {
			lim.MaximumQoS = p.MaximumQoS
		} else {
			lim.MaximumQoS = 2
		}
		lim.RetainAvailable = p.Presence&wire.PresRetainAvailable == 0 || p.RetainAvailable
		lim.WildcardAvailable = p.Presence&wire.PresWildcardSubscriptionAvailable == 0 || p.WildcardSubscriptionAvailable
		lim.SubscriptionIDAvailable = p.Presence&wire.PresSubscriptionIdentifierAvailable == 0 || p.SubscriptionIdentifierAvailable
		lim.SharedSubAvailable = p.Presence&wire.PresSharedSubscriptionAvailable == 0 || p.SharedSubscriptionAvailable
		if p.Presence&wire.PresServerKeepAlive != 0 {
			lim.ServerKeepAlive = p.ServerKeepAlive
		}
		if p.Presence&wire.PresAssignedClientIdentifier != 0 {
			lim.AssignedClientID = p.AssignedClientIdentifier
		}
		if p.Presence&wire.PresResponseInformation != 0 {
			lim.ResponseInformation = p.ResponseInformation
		}
		if p.Presence&wire.PresServerReference != 0 {
			lim.ServerReference = p.ServerReference
		}
		if p.Presence&wire.PresSessionExpiryInterval != 0 {
			lim.SessionExpiryInterval = p.SessionExpiryInterval
		}
	} else {
		lim.ReceiveMaximum = 65535
		lim.MaximumQoS = 2
	}
	s.limits = lim
	s.sessionPresent = ack.SessionPresent
	s.aliases.reset(lim.TopicAliasMaximum)
	s.epoch++
}
