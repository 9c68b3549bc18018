// Package metrics defines the bridge's Prometheus collectors, exposed on
// the router's /metrics endpoint.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// WebhookDeliveriesTotal counts inbound webhook deliveries by
	// platform and outcome (published, ignored, dropped).
	WebhookDeliveriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bridge_webhook_deliveries_total",
			Help: "Inbound webhook deliveries by platform and outcome",
		},
		[]string{"platform", "outcome"},
	)

	// AlertsPublishedTotal counts alerts placed on the alert topic.
	AlertsPublishedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bridge_alerts_published_total",
			Help: "Alerts published to the alert topic",
		},
		[]string{"platform", "alert_type"},
	)

	// OAuthEventsTotal counts OAuth results placed on the oauth topic.
	OAuthEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bridge_oauth_events_total",
			Help: "OAuth results published to the oauth topic",
		},
		[]string{"service"},
	)

	// ExchangeFailuresTotal counts failed token exchanges by error kind.
	ExchangeFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bridge_token_exchange_failures_total",
			Help: "Failed token-endpoint exchanges by error kind",
		},
		[]string{"kind"},
	)

	// UnconsumedPublishesTotal counts publishes that reached no
	// subscriber. Not an error: the bridge has no durability guarantee.
	UnconsumedPublishesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bridge_unconsumed_publishes_total",
			Help: "Topic publishes that reached no active subscriber",
		},
		[]string{"topic"},
	)

	// ForwarderResubscribesTotal counts forwarding loops recovering from
	// a backlog overflow by resubscribing.
	ForwarderResubscribesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bridge_forwarder_resubscribes_total",
			Help: "Forwarder resubscriptions after falling behind",
		},
		[]string{"topic"},
	)

	// SinkClientsConnected gauges desktop-shell connections to the
	// notification sink.
	SinkClientsConnected = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "bridge_sink_clients_connected",
			Help: "Currently connected notification sink clients",
		},
	)

	// SinkDroppedFramesTotal counts frames dropped because a sink client
	// could not keep up.
	SinkDroppedFramesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bridge_sink_dropped_frames_total",
			Help: "Notification frames dropped on slow sink clients",
		},
	)
)
