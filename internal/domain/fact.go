package domain

const (
	// Served while the fact for a number is being fetched
	FactPlaceholder = "Fetching..."
	// Served when the fact source failed for a number
	FactUnavailable = "No fun fact available"
)

type FactOrigin int

const (
	FactOriginCached FactOrigin = iota
	FactOriginPlaceholder
	FactOriginFetched
)

func (o FactOrigin) String() string {
	switch o {
	case FactOriginCached:
		return "cached"
	case FactOriginPlaceholder:
		return "placeholder"
	case FactOriginFetched:
		return "freshly-fetched"
	}
	return "unknown"
}
