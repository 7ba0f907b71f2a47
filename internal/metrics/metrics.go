package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatapp_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "chatapp_http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"method", "path"},
	)

	// WebSocket relay metrics
	WSConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "chatapp_ws_connections",
			Help: "Currently open websocket connections",
		},
	)

	WSFramesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatapp_ws_frames_total",
			Help: "Inbound websocket frames by kind",
		},
		[]string{"kind"},
	)

	WSMessagesPersisted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chatapp_ws_messages_persisted_total",
			Help: "Chat messages persisted by the relay",
		},
	)

	WSCallSignalsForwarded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chatapp_ws_call_signals_forwarded_total",
			Help: "Call signaling frames delivered to their target",
		},
	)

	WSCallSignalsDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chatapp_ws_call_signals_dropped_total",
			Help: "Call signaling frames dropped (target offline or send failed)",
		},
	)

	WSBroadcastSkips = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chatapp_ws_broadcast_skips_total",
			Help: "Broadcast sends skipped because the connection was not writable",
		},
	)

	// Business metrics
	UsersRegistered = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chatapp_users_registered_total",
			Help: "Total users registered",
		},
	)

	ChatsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatapp_chats_created_total",
			Help: "Total chats created",
		},
		[]string{"type"}, // personal, group or channel
	)

	StatusUpdates = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chatapp_status_updates_total",
			Help: "Total status updates published",
		},
	)

	MessagesPurged = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chatapp_messages_purged_total",
			Help: "Expired messages removed by the purge sweep",
		},
	)

	// Rate limit metrics
	RateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatapp_rate_limit_hits_total",
			Help: "Total rate limit hits",
		},
		[]string{"endpoint"},
	)
)
