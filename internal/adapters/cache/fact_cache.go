package cache

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Amund211/numberclassifier/internal/domain"
	"github.com/Amund211/numberclassifier/internal/logging"
	"github.com/Amund211/numberclassifier/internal/reporting"
)

type FactFetcher interface {
	GetFact(ctx context.Context, number int64) (string, error)
}

type EntryState int

const (
	EntryStateEmpty EntryState = iota
	EntryStatePending
	EntryStateReady
	EntryStateFailed
)

func (s EntryState) String() string {
	switch s {
	case EntryStateEmpty:
		return "empty"
	case EntryStatePending:
		return "pending"
	case EntryStateReady:
		return "ready"
	case EntryStateFailed:
		return "failed"
	}
	return "unknown"
}

// A fetch in progress. value is written before done is closed.
type inFlightFetch struct {
	done  chan struct{}
	value string
}

// FactCache serves facts without making callers wait for the fetcher.
//
// A number that has no fresh entry gets exactly one background fetch; every lookup
// until that fetch completes is answered with domain.FactPlaceholder. Completed
// fetches, successful or not, are served for the ttl.
//
// Create one with NewFactCache at startup and share it between handlers.
type FactCache struct {
	fetcher FactFetcher
	ttl     time.Duration
	nowFunc func() time.Time
	metrics Metrics

	// Guards store and inFlight. Never held while fetching.
	mutex    sync.Mutex
	store    entryStore
	inFlight map[int64]*inFlightFetch

	fetches sync.WaitGroup
}

func NewFactCache(fetcher FactFetcher, opts ...Option) *FactCache {
	o := options{
		ttl:      DefaultTTL,
		capacity: DefaultCapacity,
		bounded:  true,
		nowFunc:  time.Now,
		metrics:  NoopMetrics{},
	}
	for _, opt := range opts {
		opt(&o)
	}

	var store entryStore
	if o.bounded {
		store = newTTLStore(o.ttl, o.capacity, o.metrics)
	} else {
		store = newBasicStore(o.metrics)
	}

	return &FactCache{
		fetcher: fetcher,
		ttl:     o.ttl,
		nowFunc: o.nowFunc,
		metrics: o.metrics,

		store:    store,
		inFlight: make(map[int64]*inFlightFetch),
	}
}

// GetOrFetch never waits for the fetcher
func (c *FactCache) GetOrFetch(ctx context.Context, number int64) (string, domain.FactOrigin) {
	logger := logging.FromContext(ctx)

	value, fetch, claimed := c.getOrClaim(number)
	switch {
	case fetch == nil:
		logger.InfoContext(ctx, "Getting fun fact", "cache", "hit")
		c.metrics.Lookup(domain.FactOriginCached)
		return value, domain.FactOriginCached
	case claimed:
		logger.InfoContext(ctx, "Getting fun fact", "cache", "miss")
		c.startFetch(ctx, number, fetch)
	default:
		logger.InfoContext(ctx, "Getting fun fact", "cache", "pending")
	}

	c.metrics.Lookup(domain.FactOriginPlaceholder)
	return domain.FactPlaceholder, domain.FactOriginPlaceholder
}

// GetOrFetchWait is GetOrFetch, but waits for a pending fetch to complete.
// Returns the placeholder if ctx ends first. The fetch keeps running regardless.
func (c *FactCache) GetOrFetchWait(ctx context.Context, number int64) (string, domain.FactOrigin) {
	value, fetch, claimed := c.getOrClaim(number)
	if fetch == nil {
		c.metrics.Lookup(domain.FactOriginCached)
		return value, domain.FactOriginCached
	}
	if claimed {
		c.startFetch(ctx, number, fetch)
	}

	select {
	case <-fetch.done:
		c.metrics.Lookup(domain.FactOriginFetched)
		return fetch.value, domain.FactOriginFetched
	case <-ctx.Done():
		c.metrics.Lookup(domain.FactOriginPlaceholder)
		return domain.FactPlaceholder, domain.FactOriginPlaceholder
	}
}

// getOrClaim returns the fresh value for number, or the fetch that will produce one.
// claimed is true when the caller registered the fetch and must start it.
func (c *FactCache) getOrClaim(number int64) (string, *inFlightFetch, bool) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if entry, ok := c.store.get(number); ok && c.isFresh(entry) {
		return entry.value, nil, false
	}

	if fetch, ok := c.inFlight[number]; ok {
		return "", fetch, false
	}

	fetch := &inFlightFetch{done: make(chan struct{})}
	c.inFlight[number] = fetch
	// Registered under the mutex so Wait can't miss a claimed fetch
	c.fetches.Add(1)
	return "", fetch, true
}

func (c *FactCache) isFresh(entry factEntry) bool {
	return c.nowFunc().Sub(entry.fetchedAt) < c.ttl
}

func (c *FactCache) startFetch(ctx context.Context, number int64, fetch *inFlightFetch) {
	// Keep request values like the logger, but outlive the request
	fetchCtx := logging.AddMetaToContext(context.WithoutCancel(ctx), slog.Int64("factNumber", number))
	go c.runFetch(fetchCtx, number, fetch)
}

func (c *FactCache) runFetch(ctx context.Context, number int64, fetch *inFlightFetch) {
	defer c.fetches.Done()

	start := c.nowFunc()
	value, err := c.fetch(ctx, number)
	ok := err == nil
	if !ok {
		logging.FromContext(ctx).WarnContext(ctx, "Failed to get fun fact", "error", err.Error())
		value = domain.FactUnavailable
	}

	c.mutex.Lock()
	fetchedAt := c.nowFunc()
	c.store.set(number, factEntry{
		value:     value,
		failed:    !ok,
		fetchedAt: fetchedAt,
	})
	delete(c.inFlight, number)
	fetch.value = value
	close(fetch.done)
	c.mutex.Unlock()

	c.metrics.FetchCompleted(ok, fetchedAt.Sub(start))
}

func (c *FactCache) fetch(ctx context.Context, number int64) (value string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("fact fetcher panicked: %v", r)
			reporting.Report(ctx, err)
		}
	}()

	value, err = c.fetcher.GetFact(ctx, number)
	if err != nil {
		return "", fmt.Errorf("failed to get fact for %d: %w", number, err)
	}
	return value, nil
}

// State reports the state of the entry for number as seen by the next lookup
func (c *FactCache) State(number int64) EntryState {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if _, ok := c.inFlight[number]; ok {
		return EntryStatePending
	}

	entry, ok := c.store.get(number)
	if !ok || !c.isFresh(entry) {
		return EntryStateEmpty
	}
	if entry.failed {
		return EntryStateFailed
	}
	return EntryStateReady
}

// Wait blocks until every started fetch has completed.
// Must not be called concurrently with lookups that may start new fetches.
func (c *FactCache) Wait() {
	c.fetches.Wait()
}

// Close releases the resources of the entry store. Fetches still running complete normally.
func (c *FactCache) Close() {
	c.store.close()
}
