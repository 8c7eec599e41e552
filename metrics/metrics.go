// Package metrics holds the Prometheus collectors shared by the server packages.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	SessionsStarted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "memory_sessions_started_total",
			Help: "Sessions started, by difficulty",
		},
		[]string{"difficulty"},
	)
	SessionsEnded = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "memory_sessions_ended_total",
			Help: "Sessions ended, by difficulty and outcome (finished or abandoned)",
		},
		[]string{"difficulty", "outcome"},
	)
	Resolves = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "memory_resolves_total",
			Help: "Resolved pairs of face-up cards, by outcome (match or miss)",
		},
		[]string{"outcome"},
	)
	ScoreAppends = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "memory_score_appends_total",
			Help: "Score ledger appends, by backend and result",
		},
		[]string{"backend", "result"},
	)
	ActiveConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "memory_ws_connections",
			Help: "Open WebSocket connections",
		},
	)
)

func init() {
	prometheus.MustRegister(SessionsStarted)
	prometheus.MustRegister(SessionsEnded)
	prometheus.MustRegister(Resolves)
	prometheus.MustRegister(ScoreAppends)
	prometheus.MustRegister(ActiveConnections)
}

// ResolveOutcome is the label value for a resolve result.
func ResolveOutcome(matched bool) string {
	if matched {
		return "match"
	}
	return "miss"
}

// AppendResult is the label value for a ledger append error.
func AppendResult(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
