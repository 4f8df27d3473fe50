// Package mqtt5 implements an asynchronous MQTT v5.0 client.
//
// A Client is constructed with New and driven by Run, which owns a single
// logical execution context for the lifetime of the connection: connect,
// handshake, reconnect with backoff, and dispatch of inbound packets all
// happen on one goroutine, so the session and in-flight operation state
// carry no locks. Publish, Subscribe, Unsubscribe and friends may be called
// from any goroutine; each call posts a command onto that execution context
// and returns a Token that resolves once the broker has acknowledged it.
package mqtt5
