package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	intentsHandled = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatbot_intents_total",
			Help: "Webhook intents handled by intent and outcome",
		},
		[]string{"intent", "outcome"},
	)

	orderCommits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatbot_order_commits_total",
			Help: "Ledger commit attempts by result",
		},
		[]string{"result"},
	)
)
