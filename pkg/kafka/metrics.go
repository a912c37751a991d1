package kafka

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	eventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatbot_events_published_total",
			Help: "Events written to Kafka by topic",
		},
		[]string{"topic"},
	)

	eventPublishErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatbot_event_publish_errors_total",
			Help: "Failed Kafka event writes by topic",
		},
		[]string{"topic"},
	)

	eventPublishDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "chatbot_event_publish_duration_seconds",
			Help:    "Time spent writing one event to Kafka",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		},
		[]string{"topic"},
	)
)
