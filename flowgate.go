package mqtt5

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"
)

// flowGate admits outstanding QoS>0 PUBLISHes against the broker's
// receive_maximum. Acquire blocks (cooperatively and cancellably) once the
// limit is reached; Release frees a slot on terminal acknowledgement.
type flowGate struct {
	mu   sync.Mutex
	sem  *semaphore.Weighted
	size int64
	held int64
}

func newFlowGate(max uint16) *flowGate {
	size := resolveReceiveMaximum(max)
	return &flowGate{sem: semaphore.NewWeighted(size), size: size}
}

func resolveReceiveMaximum(max uint16) int64 {
	if max == 0 {
		return 65535
	}
	return int64(max)
}

// Acquire blocks until a slot is free or ctx is done.
func (g *flowGate) Acquire(ctx context.Context) error {
	if err := g.sem.Acquire(ctx, 1); err != nil {
		return ErrOperationCancelled
	}
	g.mu.Lock()
	g.held++
	g.mu.Unlock()
	return nil
}

// Release frees one slot.
func (g *flowGate) Release() {
	g.sem.Release(1)
	g.mu.Lock()
	g.held--
	g.mu.Unlock()
}

// Resize changes the capacity to newMax, applied on every fresh CONNACK.
// Outstanding holds (in-flight records carried across the reconnect) are
// preserved by rebuilding the semaphore around the current held count.
func (g *flowGate) Resize(newMax uint16) {
	g.mu.Lock()
	defer g.mu.Unlock()
	size := resolveReceiveMaximum(newMax)
	sem := semaphore.NewWeighted(size)
	held := g.held
	if held > size {
		held = size
	}
	if held > 0 {
		sem.TryAcquire(held)
	}
	g.sem = sem
	g.size = size
	g.held = held
}
