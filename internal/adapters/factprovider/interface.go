package factprovider

import "context"

type FactProvider interface {
	// GetFact makes a single attempt at getting a fact about number
	GetFact(ctx context.Context, number int64) (string, error)
}
