package client

import (
	"github.com/prometheus/client_golang/prometheus"

	"snek/protocol"
)

// Metrics counts what the agent does. A nil *Metrics records nothing.
type Metrics struct {
	connectionAttempts prometheus.Counter
	connectionState    *prometheus.GaugeVec
	rounds             *prometheus.CounterVec
	ticks              prometheus.Counter
	moves              *prometheus.CounterVec
	protocolErrors     prometheus.Counter
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		connectionAttempts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "snek",
			Name:      "connection_attempts_total",
			Help:      "Connection attempts to the game server.",
		}),
		connectionState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "snek",
			Name:      "connection_state",
			Help:      "1 for the current connection state, 0 for the others.",
		}, []string{"state"}),
		rounds: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "snek",
			Name:      "rounds_total",
			Help:      "Rounds played by outcome.",
		}, []string{"outcome"}),
		ticks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "snek",
			Name:      "ticks_total",
			Help:      "Ticks processed.",
		}),
		moves: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "snek",
			Name:      "moves_total",
			Help:      "Move commands sent by direction.",
		}, []string{"direction"}),
		protocolErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "snek",
			Name:      "protocol_errors_total",
			Help:      "Frames that failed to decode.",
		}),
	}
	reg.MustRegister(
		m.connectionAttempts,
		m.connectionState,
		m.rounds,
		m.ticks,
		m.moves,
		m.protocolErrors,
	)
	return m
}

func (m *Metrics) connectionAttempt() {
	if m == nil {
		return
	}
	m.connectionAttempts.Inc()
}

func (m *Metrics) setState(state ConnState) {
	if m == nil {
		return
	}
	for _, s := range connStates {
		v := 0.0
		if s == state {
			v = 1
		}
		m.connectionState.WithLabelValues(s.String()).Set(v)
	}
}

func (m *Metrics) roundFinished(outcome string) {
	if m == nil {
		return
	}
	m.rounds.WithLabelValues(outcome).Inc()
}

func (m *Metrics) tick() {
	if m == nil {
		return
	}
	m.ticks.Inc()
}

func (m *Metrics) move(dir protocol.Direction) {
	if m == nil {
		return
	}
	m.moves.WithLabelValues(dir.String()).Inc()
}

func (m *Metrics) protocolError() {
	if m == nil {
		return
	}
	m.protocolErrors.Inc()
}
