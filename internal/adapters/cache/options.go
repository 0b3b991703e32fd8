package cache

import (
	"time"
)

const (
	DefaultTTL      = 1 * time.Hour
	DefaultCapacity = 100_000
)

type options struct {
	ttl      time.Duration
	capacity uint64
	bounded  bool
	nowFunc  func() time.Time
	metrics  Metrics
}

type Option func(*options)

// WithTTL sets how long completed fetches, successful or not, are served
func WithTTL(ttl time.Duration) Option {
	return func(o *options) {
		o.ttl = ttl
	}
}

// WithCapacity bounds the number of completed entries, evicting the least recently used
func WithCapacity(capacity uint64) Option {
	return func(o *options) {
		o.capacity = capacity
		o.bounded = true
	}
}

// WithUnboundedStore keeps every entry in a plain map until the process exits
func WithUnboundedStore() Option {
	return func(o *options) {
		o.bounded = false
	}
}

func WithNowFunc(nowFunc func() time.Time) Option {
	return func(o *options) {
		o.nowFunc = nowFunc
	}
}

func WithMetrics(metrics Metrics) Option {
	return func(o *options) {
		o.metrics = metrics
	}
}
