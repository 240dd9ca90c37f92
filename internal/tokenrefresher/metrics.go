package tokenrefresher

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	outcomeSuccess      = "success"
	outcomeRejected     = "rejected"
	outcomeTransport    = "transport"
	outcomeNoCredential = "no_credential"
	outcomeError        = "error"
)

// Metrics counts refresh outcomes across all sessions of the process.
type Metrics struct {
	refreshes *prometheus.CounterVec
	coalesced prometheus.Counter
}

func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		refreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "board_gateway",
			Subsystem: "token_refresh",
			Name:      "refreshes_total",
			Help:      "Token refresh attempts by outcome.",
		}, []string{"outcome"}),
		coalesced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "board_gateway",
			Subsystem: "token_refresh",
			Name:      "coalesced_waiters_total",
			Help:      "Callers that joined a refresh already in flight.",
		}),
	}
	if err := reg.Register(m.refreshes); err != nil {
		return nil, err
	}
	if err := reg.Register(m.coalesced); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Metrics) observe(outcome string) {
	if m == nil {
		return
	}
	m.refreshes.WithLabelValues(outcome).Inc()
}

func (m *Metrics) joined() {
	if m == nil {
		return
	}
	m.coalesced.Inc()
}
