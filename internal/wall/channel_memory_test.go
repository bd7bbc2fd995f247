package wall

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryChannel_PublishReachesSubscriber(t *testing.T) {
	channel := NewMemoryChannel()
	ctx := context.Background()

	sub, err := channel.Subscribe(ctx)
	require.NoError(t, err)
	defer sub.Close()

	msg := testMessage("a", "hello")
	require.NoError(t, channel.Publish(ctx, msg))

	select {
	case got := <-sub.Messages():
		assert.Equal(t, msg, got)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for broadcast")
	}
}

func TestMemoryChannel_NoRetroactiveDelivery(t *testing.T) {
	channel := NewMemoryChannel()
	ctx := context.Background()

	require.NoError(t, channel.Publish(ctx, testMessage("early", "lost")))

	sub, err := channel.Subscribe(ctx)
	require.NoError(t, err)
	defer sub.Close()

	require.NoError(t, channel.Publish(ctx, testMessage("late", "seen")))

	got := <-sub.Messages()
	assert.Equal(t, "late", got.ID, "messages published before subscribing are lost for good")
}

func TestMemoryChannel_CloseIsIdempotent(t *testing.T) {
	channel := NewMemoryChannel()

	sub, err := channel.Subscribe(context.Background())
	require.NoError(t, err)

	require.NoError(t, sub.Close())
	require.NoError(t, sub.Close())

	// A publish after close must not reach the closed subscription.
	require.NoError(t, channel.Publish(context.Background(), testMessage("a", "hello")))
	_, open := <-sub.Messages()
	assert.False(t, open)
}

func TestMemoryChannel_SlowSubscriberLosesInsteadOfBlocking(t *testing.T) {
	channel := NewMemoryChannel()
	ctx := context.Background()

	sub, err := channel.Subscribe(ctx)
	require.NoError(t, err)
	defer sub.Close()

	// Overfill the subscriber buffer without draining it.
	for i := range 32 {
		require.NoError(t, channel.Publish(ctx, testMessage(string(rune('a'+i)), "flood")))
	}

	var received int
	for {
		select {
		case <-sub.Messages():
			received++
			continue
		default:
		}
		break
	}
	assert.Less(t, received, 32, "overflow payloads are dropped, not queued forever")
}
