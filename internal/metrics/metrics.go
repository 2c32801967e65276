package metrics

import (
	"net/http"

	"TokenSentinel/internal/model"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors of the scanner. Each instance owns
// its registry so several engines (and tests) can coexist in one process.
type Metrics struct {
	Registry *prometheus.Registry

	TicksTotal       prometheus.Counter
	TickDuration     prometheus.Histogram
	TicksInterrupted prometheus.Counter
	TokensTracked    prometheus.Gauge
	TokensListed     prometheus.Gauge

	FetchFailures *prometheus.CounterVec // labels: source
	InvalidPrices prometheus.Counter
	SignalsTotal  *prometheus.CounterVec // labels: signal
	Evictions     prometheus.Counter
	ReportErrors  *prometheus.CounterVec // labels: sink
}

// NewMetrics creates and registers all collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),

		TicksTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tokensentinel_ticks_total",
			Help: "Total scan ticks started",
		}),
		TickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "tokensentinel_tick_duration_seconds",
			Help:    "Wall time of one full scan over the token list",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
		}),
		TicksInterrupted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tokensentinel_ticks_interrupted_total",
			Help: "Ticks cut short by shutdown",
		}),
		TokensTracked: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tokensentinel_tokens_tracked",
			Help: "Tokens holding indicator state",
		}),
		TokensListed: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tokensentinel_tokens_listed",
			Help: "Tokens in the current scan list",
		}),
		FetchFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tokensentinel_fetch_failures_total",
			Help: "Price fetches that yielded no usable price",
		}, []string{"source"}),
		InvalidPrices: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tokensentinel_invalid_prices_total",
			Help: "Samples rejected by the indicator engine",
		}),
		SignalsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tokensentinel_signals_total",
			Help: "Classified signals by kind",
		}, []string{"signal"}),
		Evictions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tokensentinel_evictions_total",
			Help: "Token states dropped after leaving the scan list",
		}),
		ReportErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tokensentinel_report_errors_total",
			Help: "Failed deliveries to reporters and the recorder",
		}, []string{"sink"}),
	}

	m.Registry.MustRegister(
		m.TicksTotal, m.TickDuration, m.TicksInterrupted,
		m.TokensTracked, m.TokensListed,
		m.FetchFailures, m.InvalidPrices, m.SignalsTotal,
		m.Evictions, m.ReportErrors,
	)
	return m
}

// ObserveTick records the outcome of a finished tick.
func (m *Metrics) ObserveTick(sum *model.TickSummary) {
	m.TicksTotal.Inc()
	m.TickDuration.Observe(sum.Duration.Seconds())
	if sum.Interrupted {
		m.TicksInterrupted.Inc()
	}
}

// ObserveSignal counts one classified signal.
func (m *Metrics) ObserveSignal(sig model.Signal) {
	m.SignalsTotal.WithLabelValues(string(sig)).Inc()
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}
