// Package metrics defines the Prometheus instrumentation for the wall.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Publisher metrics
var (
	// MessagesPublishedTotal counts messages committed to the store.
	MessagesPublishedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "wall_messages_published_total",
			Help: "Total messages committed to the store",
		},
	)

	// PublishNoopsTotal counts empty or whitespace-only posts.
	PublishNoopsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "wall_publish_noops_total",
			Help: "Total posts discarded as empty",
		},
	)

	// PublishErrorsTotal counts failed store writes.
	PublishErrorsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "wall_publish_errors_total",
			Help: "Total publish attempts that failed at the store",
		},
	)
)

// Feed session metrics
var (
	// FeedSessionsActive gauges open feed sessions by delivery strategy.
	FeedSessionsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "wall_feed_sessions_active",
			Help: "Currently open feed sessions by delivery strategy",
		},
		[]string{"strategy"},
	)

	// FragmentsDeliveredTotal counts rendered fragments emitted to viewers.
	FragmentsDeliveredTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wall_fragments_delivered_total",
			Help: "Rendered fragments emitted to viewers by merge mode",
		},
		[]string{"mode"},
	)

	// FeedRetriesTotal counts transient store failures retried by poll sessions.
	FeedRetriesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "wall_feed_retries_total",
			Help: "Transient store failures retried by poll sessions",
		},
	)
)

// Broadcast metrics
var (
	// PubSubDroppedTotal counts payloads dropped because a subscriber was slow.
	PubSubDroppedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "wall_pubsub_dropped_total",
			Help: "Broadcast payloads dropped due to slow subscribers",
		},
	)

	// HubConnectedClients gauges WebSocket clients attached to the fan-out hub.
	HubConnectedClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "wall_hub_connected_clients",
			Help: "WebSocket clients attached to the fan-out hub",
		},
	)

	// HubSlowClientsEvicted counts WebSocket clients evicted for not keeping up.
	HubSlowClientsEvicted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "wall_hub_slow_clients_evicted_total",
			Help: "WebSocket clients evicted for not keeping up",
		},
	)
)
