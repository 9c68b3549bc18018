package broadcast

import (
	"context"
	"errors"
	"sync"
)

var (
	// ErrClosed is returned by Receive after Close, once the remaining
	// backlog has been drained. Publish returns it immediately.
	ErrClosed = errors.New("broadcast: topic closed")

	// ErrSlowConsumer is returned by Receive when the subscriber was
	// evicted because its backlog overflowed. The subscription is dead;
	// the caller should subscribe again to resume delivery.
	ErrSlowConsumer = errors.New("broadcast: subscriber fell behind and was evicted")
)

// Topic is a bounded broadcast conduit. It is safe for concurrent use;
// the publish handle needs no external locking and may be shared freely.
type Topic[T any] struct {
	mu       sync.Mutex
	capacity int
	subs     map[*Subscription[T]]struct{}
	closed   bool
}

// NewTopic creates a topic whose subscribers each buffer up to capacity
// pending messages.
func NewTopic[T any](capacity int) *Topic[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &Topic[T]{
		capacity: capacity,
		subs:     make(map[*Subscription[T]]struct{}),
	}
}

// Subscribe attaches a new subscriber. It receives only messages published
// after this call. Subscribing to a closed topic yields a subscription that
// immediately reports ErrClosed.
func (t *Topic[T]) Subscribe() *Subscription[T] {
	t.mu.Lock()
	defer t.mu.Unlock()

	s := &Subscription[T]{topic: t, ch: make(chan T, t.capacity)}
	if t.closed {
		close(s.ch)
		return s
	}
	t.subs[s] = struct{}{}
	return s
}

// Publish delivers v to every active subscriber without blocking. A
// subscriber with a full backlog is evicted; it still drains its buffered
// messages before seeing ErrSlowConsumer. Returns how many subscribers
// received v. Zero subscribers is not an error; the only failure is a
// closed topic.
func (t *Topic[T]) Publish(v T) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return 0, ErrClosed
	}

	delivered := 0
	for s := range t.subs {
		select {
		case s.ch <- v:
			delivered++
		default:
			s.evicted = true
			delete(t.subs, s)
			close(s.ch)
		}
	}
	return delivered, nil
}

// Close terminates the topic. Subscribers drain their backlog and then
// receive ErrClosed. Close is idempotent.
func (t *Topic[T]) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return
	}
	t.closed = true
	for s := range t.subs {
		delete(t.subs, s)
		close(s.ch)
	}
}

// Subscription is one consumer's attachment to a topic. Not safe for
// concurrent Receive calls from multiple goroutines.
type Subscription[T any] struct {
	topic *Topic[T]
	ch    chan T

	// evicted is written under the topic lock strictly before the channel
	// close, so a receiver that saw the close observes the final value.
	evicted bool
}

// Receive blocks until the next message, topic termination, or context
// cancellation. After an eviction it returns buffered messages first, then
// ErrSlowConsumer.
func (s *Subscription[T]) Receive(ctx context.Context) (T, error) {
	var zero T
	select {
	case v, ok := <-s.ch:
		if !ok {
			if s.evicted {
				return zero, ErrSlowConsumer
			}
			return zero, ErrClosed
		}
		return v, nil
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

// Unsubscribe detaches the subscription. Pending messages are still
// received; afterwards Receive reports ErrClosed.
func (s *Subscription[T]) Unsubscribe() {
	t := s.topic
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.subs[s]; ok {
		delete(t.subs, s)
		close(s.ch)
	}
}
