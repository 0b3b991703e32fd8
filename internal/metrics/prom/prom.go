package prom

import (
	"net/http"
	"time"

	"github.com/Amund211/numberclassifier/internal/adapters/cache"
	"github.com/Amund211/numberclassifier/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Adapter implements cache.Metrics with Prometheus collectors.
type Adapter struct {
	lookups       *prometheus.CounterVec
	fetches       *prometheus.CounterVec
	fetchDuration prometheus.Histogram
	evictions     *prometheus.CounterVec
	sizeEntries   prometheus.Gauge
}

// New registers the fact cache collectors with reg (nil => prometheus.DefaultRegisterer)
func New(reg prometheus.Registerer, ns, sub string) *Adapter {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	a := &Adapter{
		lookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: ns,
				Subsystem: sub,
				Name:      "lookups_total",
				Help:      "Fact lookups by origin of the returned value",
			},
			[]string{"origin"},
		),
		fetches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: ns,
				Subsystem: sub,
				Name:      "fetches_total",
				Help:      "Completed background fetches by outcome",
			},
			[]string{"outcome"},
		),
		fetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: ns,
			Subsystem: sub,
			Name:      "fetch_duration_seconds",
			Help:      "Duration of background fetches",
			Buckets:   []float64{0.01, 0.025, 0.05, 0.1, 0.2, 0.3, 0.5, 1},
		}),
		evictions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: ns,
				Subsystem: sub,
				Name:      "evictions_total",
				Help:      "Cache evictions by reason",
			},
			[]string{"reason"},
		),
		sizeEntries: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: ns,
			Subsystem: sub,
			Name:      "size_entries",
			Help:      "Number of resident entries",
		}),
	}
	reg.MustRegister(a.lookups, a.fetches, a.fetchDuration, a.evictions, a.sizeEntries)
	return a
}

func (a *Adapter) Lookup(origin domain.FactOrigin) {
	a.lookups.WithLabelValues(origin.String()).Inc()
}

func (a *Adapter) FetchCompleted(ok bool, duration time.Duration) {
	outcome := "success"
	if !ok {
		outcome = "failure"
	}
	a.fetches.WithLabelValues(outcome).Inc()
	a.fetchDuration.Observe(duration.Seconds())
}

func (a *Adapter) Evicted(reason cache.EvictReason) {
	a.evictions.WithLabelValues(reason.String()).Inc()
}

func (a *Adapter) Size(entries int) {
	a.sizeEntries.Set(float64(entries))
}

// NewRegistry returns a registry with the Go runtime and process collectors, and its /metrics handler
func NewRegistry() (*prometheus.Registry, http.Handler) {
	registry := prometheus.NewRegistry()
	registry.MustRegister(prometheus.NewGoCollector())
	registry.MustRegister(prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))
	return registry, promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}

var _ cache.Metrics = (*Adapter)(nil)
