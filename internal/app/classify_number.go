package app

import (
	"context"

	"github.com/Amund211/numberclassifier/internal/domain"
)

type ClassifyNumber func(ctx context.Context, number int64) ClassifiedNumber

type ClassifiedNumber struct {
	domain.Classification

	FunFact    string
	FactOrigin domain.FactOrigin
}

type factCache interface {
	GetOrFetch(ctx context.Context, number int64) (string, domain.FactOrigin)
}

func BuildClassifyNumber(facts factCache) ClassifyNumber {
	return func(ctx context.Context, number int64) ClassifiedNumber {
		classification := domain.Classify(number)

		// NOTE: Never blocks on the fact source, a cold number gets the placeholder
		funFact, origin := facts.GetOrFetch(ctx, number)

		return ClassifiedNumber{
			Classification: classification,
			FunFact:        funFact,
			FactOrigin:     origin,
		}
	}
}
