package mqtt5

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestFlowGateAcquireRelease(t *testing.T) {
	g := newFlowGate(2)
	ctx := context.Background()

	require.NoError(t, g.Acquire(ctx))
	require.NoError(t, g.Acquire(ctx))

	acquired := make(chan error, 1)
	go func() { acquired <- g.Acquire(ctx) }()

	select {
	case <-acquired:
		t.Fatal("Acquire should have blocked at capacity")
	case <-time.After(50 * time.Millisecond):
	}

	g.Release()
	select {
	case err := <-acquired:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Acquire did not unblock after Release")
	}
}

func TestFlowGateAcquireCancelled(t *testing.T) {
	g := newFlowGate(1)
	require.NoError(t, g.Acquire(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- g.Acquire(ctx) }()
	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-errc:
		require.ErrorIs(t, err, ErrOperationCancelled)
	case <-time.After(time.Second):
		t.Fatal("Acquire did not return after context cancellation")
	}
}

func TestFlowGateResizePreservesHeld(t *testing.T) {
	g := newFlowGate(5)
	ctx := context.Background()
	require.NoError(t, g.Acquire(ctx))
	require.NoError(t, g.Acquire(ctx))

	g.Resize(10)
	require.Equal(t, int64(2), g.held)

	for i := 0; i < 8; i++ {
		require.NoError(t, g.Acquire(ctx))
	}

	errc := make(chan error, 1)
	go func() { errc <- g.Acquire(ctx) }()
	select {
	case <-errc:
		t.Fatal("Acquire should block once resized capacity is exhausted")
	case <-time.After(50 * time.Millisecond):
	}
	g.Release()
}

func TestFlowGateResizeShrinkBelowHeld(t *testing.T) {
	g := newFlowGate(5)
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		require.NoError(t, g.Acquire(ctx))
	}

	g.Resize(2)
	require.Equal(t, int64(2), g.held)
}
