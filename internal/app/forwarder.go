// Package app runs the forwarding loops that drain the broadcast topics
// and deliver each message to the host application's notification sink.
package app

import (
	"context"
	"errors"
	"log/slog"

	"github.com/MananJK/echo-TTS/internal/broadcast"
	"github.com/MananJK/echo-TTS/internal/domain"
	"github.com/MananJK/echo-TTS/internal/metrics"
)

// AuthCallbackPayload is the host-facing shape of a forwarded OAuth result.
type AuthCallbackPayload struct {
	Type    string `json:"type"`
	Token   string `json:"token"`
	Service string `json:"service"`
	Error   string `json:"error,omitempty"`
}

// ForwardOAuthEvents drains the oauth topic into the sink until the topic
// closes or ctx is canceled.
func ForwardOAuthEvents(ctx context.Context, topic *broadcast.Topic[domain.OAuthResult], sink domain.NotificationSink) {
	forward(ctx, domain.TopicOAuthEvents, topic, sink, func(r domain.OAuthResult) (string, any) {
		return domain.EventAuthCallback, AuthCallbackPayload{
			Type:    r.Service + "-oauth-callback",
			Token:   r.Token,
			Service: r.Service,
			Error:   r.Error,
		}
	})
}

// ForwardAlertEvents drains the alert topic into the sink until the topic
// closes or ctx is canceled.
func ForwardAlertEvents(ctx context.Context, topic *broadcast.Topic[domain.Alert], sink domain.NotificationSink) {
	forward(ctx, domain.TopicAlertEvents, topic, sink, func(a domain.Alert) (string, any) {
		return domain.EventAlert, a
	})
}

// forward is the shared loop. Falling behind the topic is recoverable:
// the loop resubscribes and keeps delivering. Only topic closure or context
// cancellation terminates it; a loop that stopped on overflow would silently
// end delivery for the rest of the process lifetime.
func forward[T any](ctx context.Context, name string, topic *broadcast.Topic[T], sink domain.NotificationSink, translate func(T) (string, any)) {
	sub := topic.Subscribe()
	for {
		msg, err := sub.Receive(ctx)
		switch {
		case err == nil:
			event, payload := translate(msg)
			sink.Emit(event, payload)

		case errors.Is(err, broadcast.ErrSlowConsumer):
			slog.Warn("Forwarder fell behind, resubscribing", "topic", name)
			metrics.ForwarderResubscribesTotal.WithLabelValues(name).Inc()
			sub = topic.Subscribe()

		case errors.Is(err, broadcast.ErrClosed):
			slog.Info("Topic closed, forwarder stopping", "topic", name)
			return

		default:
			sub.Unsubscribe()
			slog.Info("Forwarder canceled", "topic", name, "reason", err)
			return
		}
	}
}
