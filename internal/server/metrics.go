package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sebastianleba/mobius-interface-sub000/pkg/stableswap"
)

// Metrics owns the quoter's prometheus collectors. Each instance has its own
// registry so tests and multiple servers do not collide.
type Metrics struct {
	registry       *prometheus.Registry
	quotes         *prometheus.CounterVec
	nonConvergence *prometheus.CounterVec
	pools          prometheus.Gauge
}

func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		quotes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "quoter_quotes_total",
				Help: "Quotes evaluated by kind and outcome status",
			},
			[]string{"kind", "status"},
		),
		nonConvergence: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "quoter_solver_nonconvergence_total",
				Help: "Newton solver runs that exhausted the iteration budget",
			},
			[]string{"solver"},
		),
		pools: factory.NewGauge(prometheus.GaugeOpts{
			Name: "quoter_pools_loaded",
			Help: "Pools currently held in the registry",
		}),
	}
}

func (m *Metrics) ObserveQuote(kind, status string) {
	m.quotes.WithLabelValues(kind, status).Inc()
}

// ObserveNonConvergence is meant to be passed to stableswap.WithNonConvergenceHook.
func (m *Metrics) ObserveNonConvergence(ev stableswap.NonConvergence) {
	m.nonConvergence.WithLabelValues(ev.Solver).Inc()
}

func (m *Metrics) SetPools(n int) {
	m.pools.Set(float64(n))
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
