package mqtt5

// Message is an application message delivered by a matched subscription.
type Message struct {
	// Topic the message was published to.
	Topic string

	// Payload is the message body.
	Payload []byte

	// QoS is the delivery quality of service used for this message.
	QoS QoS

	// Retained reports whether this was a retained message delivered at
	// subscription time.
	Retained bool

	// Duplicate reports whether the broker marked this as a possible
	// duplicate redelivery.
	Duplicate bool

	// Properties carries the PUBLISH property bag, or nil if the broker
	// sent none.
	Properties *Properties
}

// MessageHandler is invoked once per delivered application message, on its
// own goroutine so a slow or blocking handler never stalls the client's
// logic loop or other subscriptions.
type MessageHandler func(*Client, Message)
