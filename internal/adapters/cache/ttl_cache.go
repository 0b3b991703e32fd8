package cache

import (
	"context"
	"sync"
	"time"

	"github.com/jellydator/ttlcache/v3"
)

// ttlStore bounds memory use: entries are dropped once they are older than the ttl
// and the least recently used entry is evicted when capacity is reached.
type ttlStore struct {
	cache *ttlcache.Cache[int64, factEntry]

	// Closed when the cleanup goroutine has returned
	done chan struct{}
	// Each blocks until running callbacks of its subscription have returned
	unsubscribe []func()

	// Serializes size reports from the ttlcache callback goroutines
	sizeMutex sync.Mutex
	metrics   Metrics
}

func newTTLStore(ttl time.Duration, capacity uint64, metrics Metrics) *ttlStore {
	cache := ttlcache.New[int64, factEntry](
		ttlcache.WithTTL[int64, factEntry](ttl),
		ttlcache.WithCapacity[int64, factEntry](capacity),
		ttlcache.WithDisableTouchOnHit[int64, factEntry](),
	)

	s := &ttlStore{
		cache:   cache,
		done:    make(chan struct{}),
		metrics: metrics,
	}

	onInsertion := cache.OnInsertion(func(ctx context.Context, item *ttlcache.Item[int64, factEntry]) {
		s.reportSize()
	})
	onEviction := cache.OnEviction(func(ctx context.Context, reason ttlcache.EvictionReason, item *ttlcache.Item[int64, factEntry]) {
		switch reason {
		case ttlcache.EvictionReasonCapacityReached:
			metrics.Evicted(EvictCapacity)
		case ttlcache.EvictionReasonExpired:
			metrics.Evicted(EvictExpired)
		}
		s.reportSize()
	})
	s.unsubscribe = []func(){onInsertion, onEviction}

	go func() {
		defer close(s.done)
		cache.Start()
	}()

	return s
}

// Every callback starts after its change to the cache, so the last report is current
func (s *ttlStore) reportSize() {
	s.sizeMutex.Lock()
	defer s.sizeMutex.Unlock()

	s.metrics.Size(s.cache.Len())
}

func (s *ttlStore) get(key int64) (factEntry, bool) {
	item := s.cache.Get(key)
	if item == nil {
		return factEntry{}, false
	}
	return item.Value(), true
}

func (s *ttlStore) set(key int64, entry factEntry) {
	s.cache.Set(key, entry, ttlcache.DefaultTTL)
}

// close returns once the cleanup goroutine has exited.
// Stop is a no-op until Start is running, so keep stopping until it is.
func (s *ttlStore) close() {
	for {
		s.cache.Stop()
		select {
		case <-s.done:
			for _, unsubscribe := range s.unsubscribe {
				unsubscribe()
			}
			return
		case <-time.After(time.Millisecond):
		}
	}
}
