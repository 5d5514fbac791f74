package websocket

import "github.com/prometheus/client_golang/prometheus"

const (
	dropReasonOffline     = "offline"
	dropReasonOutboxFull  = "outbox_full"
	dropReasonMalformed   = "malformed"
	dropReasonUnknownType = "unknown_type"
)

var (
	wsConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "chat_app_ws_connections",
			Help: "Current number of active websocket connections.",
		},
	)
	wsOnlineUsers = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "chat_app_ws_online_users",
			Help: "Current number of users in the connection registry.",
		},
	)
	wsEventsDelivered = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "chat_app_ws_events_delivered_total",
			Help: "Total websocket events queued to client outboxes.",
		},
	)
	wsEventsRelayed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_app_ws_relay_forwarded_total",
			Help: "Signaling events forwarded to their target.",
		},
		[]string{"type"},
	)
	wsEventsDropped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_app_ws_relay_dropped_total",
			Help: "Events dropped by the hub.",
		},
		[]string{"reason"},
	)
)

func init() {
	prometheus.MustRegister(wsConnections, wsOnlineUsers, wsEventsDelivered, wsEventsRelayed, wsEventsDropped)
}

func incConnections() {
	wsConnections.Inc()
}

func decConnections() {
	wsConnections.Dec()
}

func setOnlineUsers(count int) {
	wsOnlineUsers.Set(float64(count))
}

func addDelivered(count int) {
	wsEventsDelivered.Add(float64(count))
}

func incRelayed(eventType string) {
	wsEventsRelayed.WithLabelValues(eventType).Inc()
}

func incDropped(reason string) {
	wsEventsDropped.WithLabelValues(reason).Inc()
}
