package broadcast

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func receiveOne[T any](t *testing.T, sub *Subscription[T]) T {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	v, err := sub.Receive(ctx)
	require.NoError(t, err)
	return v
}

func TestPublishDeliversInOrder(t *testing.T) {
	topic := NewTopic[int](8)
	sub := topic.Subscribe()

	for i := 0; i < 5; i++ {
		delivered, err := topic.Publish(i)
		require.NoError(t, err)
		assert.Equal(t, 1, delivered)
	}

	for i := 0; i < 5; i++ {
		assert.Equal(t, i, receiveOne(t, sub))
	}
}

func TestEverySubscriberReceivesEveryMessage(t *testing.T) {
	topic := NewTopic[string](8)
	first := topic.Subscribe()
	second := topic.Subscribe()

	delivered, err := topic.Publish("hello")
	require.NoError(t, err)
	assert.Equal(t, 2, delivered)

	assert.Equal(t, "hello", receiveOne(t, first))
	assert.Equal(t, "hello", receiveOne(t, second))
}

func TestSubscribeSeesOnlyLaterMessages(t *testing.T) {
	topic := NewTopic[int](8)
	_, err := topic.Publish(1)
	require.NoError(t, err)

	sub := topic.Subscribe()
	_, err = topic.Publish(2)
	require.NoError(t, err)

	assert.Equal(t, 2, receiveOne(t, sub))
}

func TestPublishWithoutSubscribersIsNotAnError(t *testing.T) {
	topic := NewTopic[int](8)
	delivered, err := topic.Publish(42)
	require.NoError(t, err)
	assert.Equal(t, 0, delivered)
}

func TestSlowConsumerIsEvictedAfterDraining(t *testing.T) {
	topic := NewTopic[int](2)
	sub := topic.Subscribe()

	for i := 0; i < 2; i++ {
		_, err := topic.Publish(i)
		require.NoError(t, err)
	}

	// Backlog full: this publish evicts the subscriber.
	delivered, err := topic.Publish(99)
	require.NoError(t, err)
	assert.Equal(t, 0, delivered)

	// The buffered messages are still delivered.
	assert.Equal(t, 0, receiveOne(t, sub))
	assert.Equal(t, 1, receiveOne(t, sub))

	_, err = sub.Receive(context.Background())
	assert.ErrorIs(t, err, ErrSlowConsumer)

	// Resubscribing resumes delivery.
	fresh := topic.Subscribe()
	_, err = topic.Publish(7)
	require.NoError(t, err)
	assert.Equal(t, 7, receiveOne(t, fresh))
}

func TestCloseTerminatesSubscribers(t *testing.T) {
	topic := NewTopic[int](4)
	sub := topic.Subscribe()

	_, err := topic.Publish(1)
	require.NoError(t, err)

	topic.Close()
	topic.Close() // idempotent

	// Backlog drains before the terminal error.
	assert.Equal(t, 1, receiveOne(t, sub))

	_, err = sub.Receive(context.Background())
	assert.ErrorIs(t, err, ErrClosed)

	_, err = topic.Publish(2)
	assert.ErrorIs(t, err, ErrClosed)

	late := topic.Subscribe()
	_, err = late.Receive(context.Background())
	assert.ErrorIs(t, err, ErrClosed)
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	topic := NewTopic[int](4)
	sub := topic.Subscribe()
	sub.Unsubscribe()

	delivered, err := topic.Publish(1)
	require.NoError(t, err)
	assert.Equal(t, 0, delivered)

	_, err = sub.Receive(context.Background())
	assert.ErrorIs(t, err, ErrClosed)
}

func TestReceiveHonorsContext(t *testing.T) {
	topic := NewTopic[int](4)
	sub := topic.Subscribe()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := sub.Receive(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestConcurrentPublishersDoNotContend(t *testing.T) {
	topic := NewTopic[int](128)
	sub := topic.Subscribe()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 32; i++ {
			_, _ = topic.Publish(i)
		}
	}()
	for i := 0; i < 32; i++ {
		_, _ = topic.Publish(100 + i)
	}
	<-done

	seen := 0
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	for seen < 64 {
		_, err := sub.Receive(ctx)
		require.NoError(t, err)
		seen++
	}
}
