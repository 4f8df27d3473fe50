package mqtt5

// HandlerInterceptor wraps a MessageHandler to add a cross-cutting concern
// (logging, metrics, tracing) around every delivered message.
type HandlerInterceptor func(MessageHandler) MessageHandler

// PublishInterceptor wraps a Client's publish path with a cross-cutting
// concern applied to every outbound message.
type PublishInterceptor func(PublishFunc) PublishFunc

// PublishFunc matches the signature of Client.Publish, less the context,
// so an interceptor can be written once and reused by both.
type PublishFunc func(topic string, payload []byte, qos QoS, retained bool, opts ...PublishOption) Token

func applyHandlerInterceptors(handler MessageHandler, interceptors []HandlerInterceptor) MessageHandler {
	for i := len(interceptors) - 1; i >= 0; i-- {
		handler = interceptors[i](handler)
	}
	return handler
}

func applyPublishInterceptors(publish PublishFunc, interceptors []PublishInterceptor) PublishFunc {
	for i := len(interceptors) - 1; i >= 0; i-- {
		publish = interceptors[i](publish)
	}
	return publish
}
