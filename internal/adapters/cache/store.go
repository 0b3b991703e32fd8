package cache

import "time"

// A completed fetch. In-flight fetches are never stored.
type factEntry struct {
	value     string
	failed    bool
	fetchedAt time.Time
}

// Stores report their size to Metrics whenever it changes
type entryStore interface {
	get(key int64) (factEntry, bool)
	set(key int64, entry factEntry)
	close()
}
