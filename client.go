package mqtt5

import (
	"context"
	"sync"
)

// Client is an asynchronous MQTT 5 client. All its exported methods may be
// called concurrently from any goroutine; every call is translated into a
// command posted to the single logic-loop goroutine started by Run.
type Client struct {
	opts *options

	cmds  chan any
	inbox *inbox

	mu      sync.Mutex
	logic   *logicLoop
	started bool
	cancel  context.CancelFunc
	runErr  error
	done    chan struct{}
}

// New builds a Client from the given options. Run must be called to start
// serving the connection.
func New(opts ...Option) (*Client, error) {
	o := defaultOptions()
	for _, fn := range opts {
		fn(o)
	}
	if len(o.Brokers) == 0 {
		return nil, ErrNoBroker
	}
	if o.Dialer == nil {
		return nil, &ReasonCodeError{Code: ReasonImplementationSpecificError, ReasonString: "mqtt5: no Dialer configured"}
	}
	applyDefaultLimits(o)

	cl := &Client{
		opts:  o,
		cmds:  make(chan any, 64),
		inbox: newInbox(),
		done:  make(chan struct{}),
	}
	cl.logic = newLogicLoop(cl)
	return cl, nil
}

func applyDefaultLimits(o *options) {
	if o.MaxTopicLength == 0 {
		o.MaxTopicLength = DefaultMaxTopicLength
	}
	if o.MaxPayloadSize == 0 {
		o.MaxPayloadSize = DefaultMaxPayloadSize
	}
	if o.MaxIncomingPacket == 0 {
		o.MaxIncomingPacket = DefaultMaxIncomingPacket
	}
	if o.ReceiveMaximum == 0 {
		o.ReceiveMaximum = 65535
	}
}

// Run drives the client's session FSM until ctx is cancelled, Cancel is
// called, or a terminal authentication failure occurs. It returns nil on a
// clean, caller-requested shutdown.
func (c *Client) Run(ctx context.Context) error {
	c.mu.Lock()
	if c.started {
		c.mu.Unlock()
		return ErrClientClosed
	}
	c.started = true
	runCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.mu.Unlock()

	err := c.logic.run(runCtx)

	c.mu.Lock()
	c.runErr = err
	c.mu.Unlock()
	close(c.done)
	return err
}

// Cancel shuts the client down by cancelling Run's context. No DISCONNECT
// is sent (Disconnect does that), and every pending operation fails with
// ErrOperationCancelled. Run returns nil if a connection was up, or the
// context's error if Cancel lands while dialing, handshaking or backing off.
func (c *Client) Cancel() {
	c.mu.Lock()
	cancel := c.cancel
	c.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// IsConnected reports whether the session currently has a live connection.
func (c *Client) IsConnected() bool {
	return c.logic.sess.state == stateConnected
}

// ClientID returns the client identifier in effect, including one generated
// automatically when WithClientID was never called.
func (c *Client) ClientID() string {
	return c.logic.sess.clientID
}

// Publish sends an application message. The returned Token resolves once
// the message has been fully acknowledged (immediately for QoS 0). Any
// interceptors installed via WithPublishInterceptors run around the send.
func (c *Client) Publish(ctx context.Context, topic string, payload []byte, qos QoS, retained bool, opts ...PublishOption) Token {
	publish := func(topic string, payload []byte, qos QoS, retained bool, opts ...PublishOption) Token {
		return c.publishDirect(ctx, topic, payload, qos, retained, opts...)
	}
	if len(c.opts.publishInterceptors) > 0 {
		publish = applyPublishInterceptors(publish, c.opts.publishInterceptors)
	}
	return publish(topic, payload, qos, retained, opts...)
}

func (c *Client) publishDirect(ctx context.Context, topic string, payload []byte, qos QoS, retained bool, opts ...PublishOption) Token {
	t := newPublishToken()
	var cfg publishConfig
	for _, fn := range opts {
		fn(&cfg)
	}
	req := &publishRequest{topic: topic, payload: payload, qos: qos, retained: retained, cfg: cfg, token: t}
	if !c.postCommand(ctx, req) {
		t.complete(ErrClientClosed)
	}
	return t
}

// Subscribe issues a single SUBSCRIBE packet covering every filter given.
// filters is passed as a slice of (filter, handler) pairs via Subscription.
func (c *Client) Subscribe(ctx context.Context, subs []Subscription, opts ...SubscribeCallOption) *subscribeToken {
	t := newSubscribeToken()
	if len(subs) == 0 {
		t.complete(ErrInvalidTopic)
		return t
	}
	filters := make([]subscribeFilter, len(subs))
	for i, s := range subs {
		handler := s.Handler
		if len(c.opts.handlerInterceptors) > 0 && handler != nil {
			handler = applyHandlerInterceptors(handler, c.opts.handlerInterceptors)
		}
		f := subscribeFilter{Filter: s.Filter, QoS: s.QoS, Handler: handler}
		for _, fo := range s.Options {
			fo(&f)
		}
		filters[i] = f
	}
	var cfg subscribeConfig
	for _, fn := range opts {
		fn(&cfg)
	}
	req := &subscribeRequest{filters: filters, cfg: cfg, token: t}
	if !c.postCommand(ctx, req) {
		t.complete(ErrClientClosed)
	}
	return t
}

// Subscription is one filter/handler pair passed to Subscribe.
type Subscription struct {
	Filter  string
	QoS     QoS
	Handler MessageHandler
	Options []SubscribeOption
}

// Receive blocks until an application message arrives for a subscription
// registered without a MessageHandler (Subscription.Handler == nil), or ctx
// is done. Messages pile up in an unbounded internal queue between calls,
// so a slow consumer never causes messages to be dropped; callers that want
// delivery on their own goroutine instead of via Receive should set
// Subscription.Handler and never call Receive for that filter.
func (c *Client) Receive(ctx context.Context) (topic string, payload []byte, publishProps *Properties, err error) {
	msg, err := c.inbox.pop(ctx)
	if err != nil {
		return "", nil, nil, err
	}
	return msg.Topic, msg.Payload, msg.Properties, nil
}

// Unsubscribe issues a single UNSUBSCRIBE packet covering every filter
// given.
func (c *Client) Unsubscribe(ctx context.Context, filters []string, opts ...UnsubscribeOption) Token {
	t := newToken()
	var cfg unsubscribeConfig
	for _, fn := range opts {
		fn(&cfg)
	}
	req := &unsubscribeRequest{filters: filters, cfg: cfg, token: t}
	if !c.postCommand(ctx, req) {
		t.complete(ErrClientClosed)
	}
	return t
}

// disconnectRequest asks the logic loop to send a clean DISCONNECT and stop
// serving the current connection.
type disconnectRequest struct {
	reason uint8
	props  *Properties
	done   chan error
}

// Disconnect sends a DISCONNECT with the given reason code and blocks until
// it has been queued, then tears the connection down.
func (c *Client) Disconnect(ctx context.Context, reason ReasonCode, props *Properties) error {
	req := &disconnectRequest{reason: uint8(reason), props: props, done: make(chan error, 1)}
	if !c.postCommand(ctx, req) {
		return ErrClientClosed
	}
	select {
	case err := <-req.done:
		if err != nil {
			return err
		}
	case <-ctx.Done():
		return ctx.Err()
	}
	c.Cancel()
	return nil
}

// postCommand posts cmd to the logic loop, returning false if the client
// has already finished running.
func (c *Client) postCommand(ctx context.Context, cmd any) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.cmds <- cmd:
		return true
	case <-ctx.Done():
		return false
	case <-c.done:
		return false
	}
}
