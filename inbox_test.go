package mqtt5

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestInboxFIFO(t *testing.T) {
	b := newInbox()
	b.push(Message{Topic: "a"})
	b.push(Message{Topic: "b"})

	first, err := b.pop(context.Background())
	require.NoError(t, err)
	require.Equal(t, "a", first.Topic)

	second, err := b.pop(context.Background())
	require.NoError(t, err)
	require.Equal(t, "b", second.Topic)
}

func TestInboxPopBlocksUntilPush(t *testing.T) {
	b := newInbox()
	ctx := context.Background()

	result := make(chan Message, 1)
	go func() {
		msg, err := b.pop(ctx)
		require.NoError(t, err)
		result <- msg
	}()

	time.Sleep(20 * time.Millisecond)
	select {
	case <-result:
		t.Fatal("pop returned before anything was pushed")
	default:
	}

	b.push(Message{Topic: "late"})
	select {
	case msg := <-result:
		require.Equal(t, "late", msg.Topic)
	case <-time.After(time.Second):
		t.Fatal("pop did not unblock after push")
	}
}

func TestInboxPopCancelled(t *testing.T) {
	b := newInbox()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := b.pop(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func TestInboxUnbounded(t *testing.T) {
	b := newInbox()
	for i := 0; i < 100; i++ {
		b.push(Message{Topic: "a"})
	}
	require.Equal(t, 100, b.len())
}
