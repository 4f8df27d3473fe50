package mqtt5

import (
	"time"

	"github.com/cenkalti/backoff/v4"
)

// reconnectBackoff wraps an exponential backoff policy capped at a
// configurable ceiling. It never gives up on its own (MaxElapsedTime: 0);
// the session FSM is the only thing that stops retrying, on a terminal
// reason code or explicit cancel.
type reconnectBackoff struct {
	b *backoff.ExponentialBackOff
}

func newReconnectBackoff(initial, ceiling time.Duration) *reconnectBackoff {
	if initial <= 0 {
		initial = 1 * time.Second
	}
	if ceiling <= 0 {
		ceiling = 2 * time.Minute
	}
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = initial
	b.MaxInterval = ceiling
	b.MaxElapsedTime = 0
	b.Reset()
	return &reconnectBackoff{b: b}
}

// Next returns the next backoff duration to wait before retrying.
func (r *reconnectBackoff) Next() time.Duration {
	return r.b.NextBackOff()
}

// Reset restores the initial interval, called on every successful CONNACK.
func (r *reconnectBackoff) Reset() {
	r.b.Reset()
}
