package session

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	activeSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "chatbot_sessions_active",
		Help: "Number of conversations holding an in-memory session",
	})

	sessionsEvicted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chatbot_sessions_evicted_total",
		Help: "Total number of idle sessions removed by the reaper",
	})

	reaperSweeps = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chatbot_session_reaper_sweeps_total",
		Help: "Total number of reaper sweeps",
	})
)
