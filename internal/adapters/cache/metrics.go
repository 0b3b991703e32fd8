package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/Amund211/numberclassifier/internal/domain"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

type EvictReason int

const (
	EvictCapacity EvictReason = iota
	EvictExpired
)

func (r EvictReason) String() string {
	switch r {
	case EvictCapacity:
		return "capacity"
	case EvictExpired:
		return "expired"
	}
	return "unknown"
}

// Metrics receives events from a FactCache. Implementations must be safe for concurrent use.
type Metrics interface {
	// Lookup is called once per GetOrFetch with the origin of the returned value
	Lookup(origin domain.FactOrigin)
	FetchCompleted(ok bool, duration time.Duration)
	Evicted(reason EvictReason)
	Size(entries int)
}

type NoopMetrics struct{}

func (NoopMetrics) Lookup(domain.FactOrigin)           {}
func (NoopMetrics) FetchCompleted(bool, time.Duration) {}
func (NoopMetrics) Evicted(EvictReason)                {}
func (NoopMetrics) Size(int)                           {}

var _ Metrics = NoopMetrics{}

type otelMetrics struct {
	lookupCount   metric.Int64Counter
	fetchCount    metric.Int64Counter
	fetchDuration metric.Float64Histogram
	evictCount    metric.Int64Counter
	size          metric.Int64Gauge
}

func NewOTelMetrics(meter metric.Meter) (Metrics, error) {
	lookupCount, err := meter.Int64Counter(
		"cache/fact/lookup_count",
		metric.WithDescription("Fact lookups by origin of the returned value"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create lookup count metric: %w", err)
	}

	fetchCount, err := meter.Int64Counter(
		"cache/fact/fetch_count",
		metric.WithDescription("Background fact fetches by outcome"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create fetch count metric: %w", err)
	}

	fetchDuration, err := meter.Float64Histogram(
		"cache/fact/fetch_duration_seconds",
		metric.WithDescription("Duration of background fact fetches"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create fetch duration metric: %w", err)
	}

	evictCount, err := meter.Int64Counter(
		"cache/fact/eviction_count",
		metric.WithDescription("Evicted fact entries by reason"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create eviction count metric: %w", err)
	}

	size, err := meter.Int64Gauge(
		"cache/fact/size_entries",
		metric.WithDescription("Completed fact entries held by the cache"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create size metric: %w", err)
	}

	return &otelMetrics{
		lookupCount:   lookupCount,
		fetchCount:    fetchCount,
		fetchDuration: fetchDuration,
		evictCount:    evictCount,
		size:          size,
	}, nil
}

func (m *otelMetrics) Lookup(origin domain.FactOrigin) {
	m.lookupCount.Add(context.Background(), 1, metric.WithAttributes(attribute.String("origin", origin.String())))
}

func (m *otelMetrics) FetchCompleted(ok bool, duration time.Duration) {
	attributes := metric.WithAttributes(attribute.Bool("success", ok))
	m.fetchCount.Add(context.Background(), 1, attributes)
	m.fetchDuration.Record(context.Background(), duration.Seconds(), attributes)
}

func (m *otelMetrics) Evicted(reason EvictReason) {
	m.evictCount.Add(context.Background(), 1, metric.WithAttributes(attribute.String("reason", reason.String())))
}

func (m *otelMetrics) Size(entries int) {
	m.size.Record(context.Background(), int64(entries))
}
