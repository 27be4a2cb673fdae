package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sphere_relay_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sphere_relay_http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"method", "path"},
	)

	// Relay metrics
	Viewers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "sphere_relay_viewers",
			Help: "Currently connected sessions",
		},
	)

	ActiveMessages = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "sphere_relay_active_messages",
			Help: "Messages held in memory, including not yet swept expired ones",
		},
	)

	MessagesSubmitted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sphere_relay_messages_submitted_total",
			Help: "Accepted message submissions",
		},
	)

	MessagesRejected = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sphere_relay_messages_rejected_total",
			Help: "Malformed submissions dropped",
		},
	)

	SyncPayloadsSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sphere_relay_sync_payloads_total",
			Help: "Synchronization snapshots sent to joining sessions",
		},
	)

	EventsDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sphere_relay_events_dropped_total",
			Help: "Outbound events dropped because a session could not keep up",
		},
		[]string{"type"},
	)

	SnapshotWriteFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sphere_relay_snapshot_write_failures_total",
			Help: "Failed snapshot persistence writes",
		},
	)
)
