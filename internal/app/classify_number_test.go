package app_test

import (
	"context"
	"testing"

	"github.com/Amund211/numberclassifier/internal/app"
	"github.com/Amund211/numberclassifier/internal/domain"
	"github.com/stretchr/testify/require"
)

type mockFactCache struct {
	t *testing.T

	getOrFetchNumber int64
	getOrFetchCalls  int
	getOrFetchFact   string
	getOrFetchOrigin domain.FactOrigin
}

func (m *mockFactCache) GetOrFetch(ctx context.Context, number int64) (string, domain.FactOrigin) {
	m.t.Helper()
	require.Equal(m.t, m.getOrFetchNumber, number)

	m.getOrFetchCalls++
	return m.getOrFetchFact, m.getOrFetchOrigin
}

func TestBuildClassifyNumber(t *testing.T) {
	t.Parallel()

	t.Run("cached fact", func(t *testing.T) {
		t.Parallel()

		facts := &mockFactCache{
			t:                t,
			getOrFetchNumber: 371,
			getOrFetchFact:   "371 is a narcissistic number.",
			getOrFetchOrigin: domain.FactOriginCached,
		}
		classifyNumber := app.BuildClassifyNumber(facts)

		result := classifyNumber(t.Context(), 371)
		require.Equal(t, app.ClassifiedNumber{
			Classification: domain.Classification{
				Number:     371,
				IsPrime:    false,
				IsPerfect:  false,
				Properties: []string{"armstrong", "odd"},
				DigitSum:   11,
			},
			FunFact:    "371 is a narcissistic number.",
			FactOrigin: domain.FactOriginCached,
		}, result)
		require.Equal(t, 1, facts.getOrFetchCalls)
	})

	t.Run("placeholder", func(t *testing.T) {
		t.Parallel()

		facts := &mockFactCache{
			t:                t,
			getOrFetchNumber: -28,
			getOrFetchFact:   domain.FactPlaceholder,
			getOrFetchOrigin: domain.FactOriginPlaceholder,
		}
		classifyNumber := app.BuildClassifyNumber(facts)

		result := classifyNumber(t.Context(), -28)
		require.Equal(t, int64(-28), result.Number)
		require.False(t, result.IsPerfect)
		require.Equal(t, []string{"even"}, result.Properties)
		require.Equal(t, 10, result.DigitSum)
		require.Equal(t, "Fetching...", result.FunFact)
		require.Equal(t, domain.FactOriginPlaceholder, result.FactOrigin)
	})
}
