package main

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Amund211/numberclassifier/internal/domain"
	"github.com/stretchr/testify/require"
)

type staticFacts map[int64]string

func (f staticFacts) GetOrFetchWait(ctx context.Context, number int64) (string, domain.FactOrigin) {
	fact, ok := f[number]
	if !ok {
		return domain.FactUnavailable, domain.FactOriginFetched
	}
	return fact, domain.FactOriginFetched
}

func TestClassifyAll(t *testing.T) {
	t.Parallel()

	t.Run("without facts", func(t *testing.T) {
		t.Parallel()

		var out bytes.Buffer
		err := classifyAll(t.Context(), &out, nil, []string{"371", "-6"})
		require.NoError(t, err)

		lines := strings.Split(strings.TrimSpace(out.String()), "\n")
		require.Len(t, lines, 2)
		require.JSONEq(t, `{"number":371,"is_prime":false,"is_perfect":false,"properties":["armstrong","odd"],"digit_sum":11}`, lines[0])
		require.JSONEq(t, `{"number":-6,"is_prime":false,"is_perfect":false,"properties":["armstrong","even"],"digit_sum":6}`, lines[1])
	})

	t.Run("with facts", func(t *testing.T) {
		t.Parallel()

		var out bytes.Buffer
		err := classifyAll(t.Context(), &out, staticFacts{28: "28 is perfect."}, []string{"28", "3"})
		require.NoError(t, err)

		lines := strings.Split(strings.TrimSpace(out.String()), "\n")
		require.Len(t, lines, 2)
		require.JSONEq(t, `{"number":28,"is_prime":false,"is_perfect":true,"properties":["even"],"digit_sum":10,"fun_fact":"28 is perfect."}`, lines[0])
		require.JSONEq(t, `{"number":3,"is_prime":true,"is_perfect":false,"properties":["armstrong","odd"],"digit_sum":3,"fun_fact":"No fun fact available"}`, lines[1])
	})

	t.Run("invalid argument writes nothing", func(t *testing.T) {
		t.Parallel()

		var out bytes.Buffer
		err := classifyAll(t.Context(), &out, nil, []string{"1", "abc"})
		require.ErrorContains(t, err, `invalid number "abc"`)
		require.Empty(t, out.String())
	})
}

func TestRootCmd(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "153 is narcissistic.")
	}))
	t.Cleanup(server.Close)

	cmd := rootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--fetch", "--source", server.URL, "--timeout", "5s", "153"})

	require.NoError(t, cmd.ExecuteContext(t.Context()))
	require.JSONEq(t, `{"number":153,"is_prime":false,"is_perfect":false,"properties":["armstrong","odd"],"digit_sum":9,"fun_fact":"153 is narcissistic."}`, out.String())
}

func TestRootCmdRequiresArgs(t *testing.T) {
	t.Parallel()

	cmd := rootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{})

	require.Error(t, cmd.Execute())
}
