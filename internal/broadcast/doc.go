// Package broadcast implements the bounded multi-consumer topics that
// decouple the HTTP router from the forwarding loops.
//
// Every active subscriber receives every message published after it
// subscribed, in publish order. Publishing never blocks: a subscriber whose
// backlog is full is evicted and observes ErrSlowConsumer once it has
// drained what it already buffered, at which point it is expected to
// resubscribe. Closing the topic is the only terminal condition.
package broadcast
