// Package metrics provides Prometheus instrumentation for the studyhall
// backend: gauges for rooms and connections, counters for frame throughput.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// ActiveConnections tracks the current number of open WebSocket connections.
	ActiveConnections = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "studyhall_active_connections",
		Help: "Current number of open WebSocket connections",
	})

	// ActiveRooms tracks the number of rooms with a running hub.
	ActiveRooms = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "studyhall_active_rooms",
		Help: "Current number of rooms with a running hub",
	})

	// FramesTotal counts WebSocket frames processed, labeled by direction:
	// "received", "broadcast", "dropped", or "rejected".
	FramesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "studyhall_frames_total",
		Help: "Total number of WebSocket frames processed",
	}, []string{"direction"})

	// EventsTotal counts broadcast events by protocol type.
	EventsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "studyhall_events_total",
		Help: "Total number of broadcast events by type",
	}, []string{"type"})
)

func init() {
	prometheus.MustRegister(
		ActiveConnections,
		ActiveRooms,
		FramesTotal,
		EventsTotal,
	)
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
