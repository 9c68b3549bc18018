package httpserver

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/MananJK/echo-TTS/internal/alerts"
	"github.com/MananJK/echo-TTS/internal/domain"
	apperrors "github.com/MananJK/echo-TTS/internal/errors"
	"github.com/MananJK/echo-TTS/internal/metrics"
)

// EventSub message-type header and its values.
const (
	messageTypeHeader   = "Twitch-Eventsub-Message-Type"
	msgTypeVerification = "webhook_callback_verification"
	msgTypeNotification = "notification"
	msgTypeRevocation   = "revocation"
)

// Webhook delivery outcomes for metrics.
const (
	outcomePublished = "published"
	outcomeIgnored   = "ignored"
	outcomeDropped   = "dropped"
)

// handleEventSub dispatches an EventSub delivery on its message-type
// header. Notification decode failures are swallowed with a 200: a non-2xx
// response makes the provider retry and eventually disable the
// subscription, which is worse than one missed alert.
func (s *Server) handleEventSub(c echo.Context) error {
	ctx := c.Request().Context()

	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		slog.WarnContext(ctx, "Failed to read EventSub body", "error", err)
		return c.NoContent(http.StatusOK)
	}

	switch c.Request().Header.Get(messageTypeHeader) {
	case msgTypeVerification:
		var req struct {
			Challenge string `json:"challenge"`
		}
		if err := json.Unmarshal(body, &req); err != nil || req.Challenge == "" {
			return apperrors.ValidationError("missing challenge")
		}
		slog.InfoContext(ctx, "EventSub webhook verification")
		// Echoed byte-for-byte; the provider compares it verbatim.
		return c.String(http.StatusOK, req.Challenge)

	case msgTypeNotification:
		var note alerts.Notification
		if err := json.Unmarshal(body, &note); err != nil {
			metrics.WebhookDeliveriesTotal.WithLabelValues(string(domain.PlatformTwitch), outcomeDropped).Inc()
			slog.WarnContext(ctx, "Dropping undecodable EventSub notification", "error", err)
			return c.NoContent(http.StatusOK)
		}

		alert := alerts.FromEventSub(note.Subscription.Type, note.Event)
		if alert == nil {
			metrics.WebhookDeliveriesTotal.WithLabelValues(string(domain.PlatformTwitch), outcomeIgnored).Inc()
			slog.DebugContext(ctx, "Ignoring EventSub notification", "subscription_type", note.Subscription.Type)
			return c.NoContent(http.StatusOK)
		}

		s.publishAlert(c, *alert)
		metrics.WebhookDeliveriesTotal.WithLabelValues(string(domain.PlatformTwitch), outcomePublished).Inc()
		return c.NoContent(http.StatusOK)

	case msgTypeRevocation:
		var note alerts.Notification
		if err := json.Unmarshal(body, &note); err == nil {
			slog.InfoContext(ctx, "EventSub subscription revoked",
				"subscription_type", note.Subscription.Type,
				"status", note.Subscription.Status,
			)
		}
		return c.NoContent(http.StatusOK)

	default:
		return c.NoContent(http.StatusOK)
	}
}

// handleFeedChallenge answers the PubSubHubbub subscription handshake by
// echoing hub.challenge.
func (s *Server) handleFeedChallenge(c echo.Context) error {
	challenge := c.QueryParam("hub.challenge")
	if challenge == "" {
		return apperrors.ValidationError("missing hub.challenge parameter")
	}
	slog.InfoContext(c.Request().Context(), "Feed subscription verified")
	return c.String(http.StatusOK, challenge)
}

// handleFeedNotification accepts a push delivery. The delivery is always
// acknowledged; whether it produced an alert is the normalizer's business.
func (s *Server) handleFeedNotification(c echo.Context) error {
	ctx := c.Request().Context()

	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		slog.WarnContext(ctx, "Failed to read feed notification body", "error", err)
		return c.NoContent(http.StatusOK)
	}

	alert := alerts.FromPubSubHubbub(string(body))
	if alert == nil {
		metrics.WebhookDeliveriesTotal.WithLabelValues(string(domain.PlatformYouTube), outcomeIgnored).Inc()
		return c.NoContent(http.StatusOK)
	}

	s.publishAlert(c, *alert)
	metrics.WebhookDeliveriesTotal.WithLabelValues(string(domain.PlatformYouTube), outcomePublished).Inc()
	return c.NoContent(http.StatusOK)
}

// publishAlert is fire-and-forget from the router's perspective: the
// webhook acknowledgment never waits on downstream forwarding, and even a
// closed topic only logs.
func (s *Server) publishAlert(c echo.Context, alert domain.Alert) {
	ctx := c.Request().Context()

	delivered, err := s.alertTopic.Publish(alert)
	if err != nil {
		slog.ErrorContext(ctx, "Alert topic closed, dropping alert", "platform", alert.Platform, "alert_type", alert.AlertType)
		return
	}
	if delivered == 0 {
		metrics.UnconsumedPublishesTotal.WithLabelValues(domain.TopicAlertEvents).Inc()
		slog.WarnContext(ctx, "No consumer attached to alert events", "platform", alert.Platform)
	}
	metrics.AlertsPublishedTotal.WithLabelValues(string(alert.Platform), string(alert.AlertType)).Inc()
	slog.InfoContext(ctx, "Alert published", "platform", alert.Platform, "alert_type", alert.AlertType, "user", alert.UserName)
}
