package mqtt5

import (
	"log/slog"
	"time"
)

// options holds the configuration assembled by Option values passed to New.
type options struct {
	Brokers  []Endpoint
	Dialer   Dialer
	ClientID string
	Username string
	Password string

	KeepAlive     time.Duration
	CleanStart    bool
	ConnectProps  *Properties
	will          *willMessage
	Authenticator Authenticator

	BackoffInitial time.Duration
	BackoffCeiling time.Duration

	ReceiveMaximum    uint16
	TopicAliasMaximum uint16

	MaxTopicLength    int
	MaxPayloadSize    int
	MaxIncomingPacket int

	RequestProblemInformation  bool
	RequestResponseInformation bool
	SessionExpiryInterval      uint32
	SessionExpirySet           bool
	StrictSessionPresent       bool

	Logger  *slog.Logger
	Metrics *Metrics

	OnConnect        func(*Client)
	OnConnectionLost func(*Client, error)
	OnServerRedirect func(serverReference string)

	handlerInterceptors []HandlerInterceptor
	publishInterceptors []PublishInterceptor
}

func defaultOptions() *options {
	return &options{
		KeepAlive:      60 * time.Second,
		CleanStart:     true,
		BackoffInitial: 1 * time.Second,
		BackoffCeiling: 2 * time.Minute,
		Logger:         slog.New(slog.DiscardHandler),
	}
}

// willMessage is the last-will configured via WithWill.
type willMessage struct {
	Topic      string
	Payload    []byte
	QoS        QoS
	Retained   bool
	Properties *Properties
	DelayInterval uint32
}

// Option configures a Client constructed by New.
type Option func(*options)

// Brokers configures the broker endpoints tried round-robin, each in
// "host[:port][/path]" form; port and path default to the transport's
// own defaults when omitted.
func Brokers(endpoints ...string) Option {
	return func(o *options) {
		for _, e := range endpoints {
			o.Brokers = append(o.Brokers, parseEndpoint(e))
		}
	}
}

// WithDialer supplies the Dialer used to establish connectivity to each
// configured broker. Exactly one of WithDialer or a transport package's
// constructor must be used.
func WithDialer(d Dialer) Option {
	return func(o *options) { o.Dialer = d }
}

// WithClientID sets the client identifier sent in CONNECT. If never called
// (or called with ""), a random client id is generated for every Run.
func WithClientID(id string) Option {
	return func(o *options) { o.ClientID = id }
}

// WithCredentials sets the username/password carried in CONNECT.
func WithCredentials(username, password string) Option {
	return func(o *options) {
		o.Username = username
		o.Password = password
	}
}

// WithKeepAlive sets the keep-alive interval; 0 disables PINGREQ.
func WithKeepAlive(d time.Duration) Option {
	return func(o *options) { o.KeepAlive = d }
}

// WithCleanStart sets the CONNECT CleanStart flag. false asks the broker to
// resume the session identified by the client id; combine with
// WithSessionExpiryInterval to control how long that session survives a
// disconnect.
func WithCleanStart(clean bool) Option {
	return func(o *options) { o.CleanStart = clean }
}

// WithConnectProperties sets the property bag attached to CONNECT.
func WithConnectProperties(p *Properties) Option {
	return func(o *options) { o.ConnectProps = p }
}

// WithWill sets the last-will message delivered by the broker if the
// connection is lost uncleanly.
func WithWill(topic string, payload []byte, qos QoS, retained bool, props *Properties) Option {
	return func(o *options) {
		o.will = &willMessage{Topic: topic, Payload: payload, QoS: qos, Retained: retained, Properties: props}
	}
}

// WithAuthenticator enables MQTT 5 enhanced authentication.
func WithAuthenticator(a Authenticator) Option {
	return func(o *options) { o.Authenticator = a }
}

// WithBackoffCeiling caps the exponential reconnect backoff interval.
func WithBackoffCeiling(d time.Duration) Option {
	return func(o *options) { o.BackoffCeiling = d }
}

// WithBackoffInitial sets the starting reconnect backoff interval.
func WithBackoffInitial(d time.Duration) Option {
	return func(o *options) { o.BackoffInitial = d }
}

// WithReceiveMaximum sets the number of QoS>0 PUBLISHes the client is
// willing to process concurrently, sent as receive_maximum in CONNECT.
func WithReceiveMaximum(max uint16) Option {
	return func(o *options) { o.ReceiveMaximum = max }
}

// WithTopicAliasMaximum sets how many inbound topic aliases the client will
// accept from the broker.
func WithTopicAliasMaximum(max uint16) Option {
	return func(o *options) { o.TopicAliasMaximum = max }
}

// WithSessionExpiryInterval sets how long the broker should retain session
// state after disconnect, in seconds (0xFFFFFFFF never expires).
func WithSessionExpiryInterval(seconds uint32) Option {
	return func(o *options) {
		o.SessionExpiryInterval = seconds
		o.SessionExpirySet = true
	}
}

// WithMaxTopicLength overrides the default topic length ceiling (65535).
func WithMaxTopicLength(max int) Option {
	return func(o *options) { o.MaxTopicLength = max }
}

// WithMaxPayloadSize overrides the default outgoing payload ceiling.
func WithMaxPayloadSize(max int) Option {
	return func(o *options) { o.MaxPayloadSize = max }
}

// WithMaxIncomingPacket overrides the default incoming packet ceiling.
func WithMaxIncomingPacket(max int) Option {
	return func(o *options) { o.MaxIncomingPacket = max }
}

// WithRequestProblemInformation requests reason strings/user properties in
// broker error responses.
func WithRequestProblemInformation(request bool) Option {
	return func(o *options) { o.RequestProblemInformation = request }
}

// WithRequestResponseInformation requests the broker supply response
// information usable as a response-topic prefix.
func WithRequestResponseInformation(request bool) Option {
	return func(o *options) { o.RequestResponseInformation = request }
}

// WithStrictSessionPresent, when true, disconnects with a protocol-error
// reason if CONNACK reports session_present=true while the client's
// in-flight table is empty; the default logs a warning and proceeds.
func WithStrictSessionPresent(strict bool) Option {
	return func(o *options) { o.StrictSessionPresent = strict }
}

// WithLogger sets the structured logger used for all client diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.Logger = l }
}

// WithMetrics attaches Prometheus instrumentation built by NewMetrics.
func WithMetrics(m *Metrics) Option {
	return func(o *options) { o.Metrics = m }
}

// WithOnConnect registers a callback invoked after every successful
// CONNACK.
func WithOnConnect(fn func(*Client)) Option {
	return func(o *options) { o.OnConnect = fn }
}

// WithOnConnectionLost registers a callback invoked whenever the connection
// is lost, before the reconnect backoff begins.
func WithOnConnectionLost(fn func(*Client, error)) Option {
	return func(o *options) { o.OnConnectionLost = fn }
}

// WithOnServerRedirect registers a callback invoked whenever CONNACK
// carries a server_reference, naming an alternate broker the client should
// use instead (MQTT 5 §3.2.2.3.17). The client does not follow the
// redirect automatically; the callback decides whether and how to.
func WithOnServerRedirect(fn func(serverReference string)) Option {
	return func(o *options) { o.OnServerRedirect = fn }
}

// WithHandlerInterceptors wraps every Subscribe handler with the given
// interceptors, outermost first, for cross-cutting concerns like logging or
// tracing applied uniformly to inbound messages.
func WithHandlerInterceptors(interceptors ...HandlerInterceptor) Option {
	return func(o *options) { o.handlerInterceptors = append(o.handlerInterceptors, interceptors...) }
}

// WithPublishInterceptors wraps every Publish call with the given
// interceptors, outermost first.
func WithPublishInterceptors(interceptors ...PublishInterceptor) Option {
	return func(o *options) { o.publishInterceptors = append(o.publishInterceptors, interceptors...) }
}

func parseEndpoint(raw string) Endpoint {
	host := raw
	path := ""
	if i := indexByte(host, '/'); i >= 0 {
		path = host[i:]
		host = host[:i]
	}
	port := uint16(0)
	if i := lastIndexByte(host, ':'); i >= 0 {
		if p, ok := parsePort(host[i+1:]); ok {
			port = p
			host = host[:i]
		}
	}
	return Endpoint{Host: host, Port: port, Path: path}
}

func indexByte(s string, b byte) int {
	for i := 0; i < len(s); i++ {
		if s[i] == b {
			return i
		}
	}
	return -1
}

func lastIndexByte(s string, b byte) int {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == b {
			return i
		}
	}
	return -1
}

func parsePort(s string) (uint16, bool) {
	if s == "" {
		return 0, false
	}
	var n uint32
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, false
		}
		n = n*10 + uint32(s[i]-'0')
		if n > 65535 {
			return 0, false
		}
	}
	return uint16(n), true
}
