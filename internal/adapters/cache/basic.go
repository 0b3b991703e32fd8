package cache

// basicStore never evicts. Access is serialized by the FactCache mutex.
type basicStore struct {
	entries map[int64]factEntry
	metrics Metrics
}

func newBasicStore(metrics Metrics) *basicStore {
	return &basicStore{
		entries: make(map[int64]factEntry),
		metrics: metrics,
	}
}

func (s *basicStore) get(key int64) (factEntry, bool) {
	entry, ok := s.entries[key]
	return entry, ok
}

func (s *basicStore) set(key int64, entry factEntry) {
	s.entries[key] = entry
	s.metrics.Size(len(s.entries))
}

func (s *basicStore) close() {
}
