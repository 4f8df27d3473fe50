package sendqueue

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestQueuePriorityDrainsFirst(t *testing.T) {
	q := New()
	q.Push([]byte("normal-1"))
	q.PushPriority([]byte("priority-1"))
	q.Push([]byte("normal-2"))

	ctx := context.Background()
	first, err := q.Pop(ctx)
	require.NoError(t, err)
	require.Equal(t, []byte("priority-1"), first)

	second, err := q.Pop(ctx)
	require.NoError(t, err)
	require.Equal(t, []byte("normal-1"), second)

	third, err := q.Pop(ctx)
	require.NoError(t, err)
	require.Equal(t, []byte("normal-2"), third)
}

func TestQueuePopBlocksUntilPush(t *testing.T) {
	q := New()
	ctx := context.Background()

	result := make(chan []byte, 1)
	go func() {
		frame, err := q.Pop(ctx)
		require.NoError(t, err)
		result <- frame
	}()

	time.Sleep(20 * time.Millisecond)
	select {
	case <-result:
		t.Fatal("Pop returned before anything was pushed")
	default:
	}

	q.Push([]byte("late"))
	select {
	case frame := <-result:
		require.Equal(t, []byte("late"), frame)
	case <-time.After(time.Second):
		t.Fatal("Pop did not unblock after Push")
	}
}

func TestQueuePopCancelled(t *testing.T) {
	q := New()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := q.Pop(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func TestQueueRebuild(t *testing.T) {
	q := New()
	q.Push([]byte("stale"))
	q.PushPriority([]byte("stale-priority"))

	q.Rebuild([][]byte{[]byte("a"), []byte("b")})
	require.Equal(t, 2, q.Len())

	frame, err := q.Pop(context.Background())
	require.NoError(t, err)
	require.Equal(t, []byte("a"), frame)
}
