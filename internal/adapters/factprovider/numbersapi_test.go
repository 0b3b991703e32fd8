package factprovider_test

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"testing/synctest"
	"time"
	"unicode/utf8"

	"github.com/Amund211/numberclassifier/internal/adapters/factprovider"
	"github.com/Amund211/numberclassifier/internal/domain"
	"github.com/Amund211/numberclassifier/internal/ratelimiting"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const baseURL = "http://numbersapi.com"

type mockedHttpClient struct {
	t           *testing.T
	expectedURL string
	statusCode  int
	body        io.ReadCloser
	requestErr  error
	calls       int
}

func (m *mockedHttpClient) Do(req *http.Request) (*http.Response, error) {
	m.t.Helper()
	m.calls++

	require.Equal(m.t, m.expectedURL, req.URL.String())
	require.Equal(m.t, http.MethodGet, req.Method)
	require.Equal(m.t, "numberclassifier/0.1.0 (+https://github.com/Amund211/numberclassifier)", req.Header.Get("User-Agent"))
	require.Equal(m.t, "text/plain", req.Header.Get("Accept"))

	if m.requestErr != nil {
		return nil, m.requestErr
	}

	return &http.Response{
		StatusCode: m.statusCode,
		Body:       m.body,
	}, nil
}

func newMockedHttpClient(t *testing.T, expectedURL string, statusCode int, body string, err error) *mockedHttpClient {
	return &mockedHttpClient{
		t:           t,
		expectedURL: expectedURL,
		statusCode:  statusCode,
		body:        io.NopCloser(strings.NewReader(body)),
		requestErr:  err,
	}
}

type cantRead struct{}

func (c cantRead) Read(p []byte) (n int, err error) {
	return 0, assert.AnError
}

func (c cantRead) Close() error {
	return nil
}

// blockingHttpClient never answers before the request context ends
type blockingHttpClient struct{}

func (blockingHttpClient) Do(req *http.Request) (*http.Response, error) {
	<-req.Context().Done()
	return nil, fmt.Errorf("Get %q: %w", req.URL.String(), req.Context().Err())
}

type refusingLimiter struct{}

func (refusingLimiter) Limit(ctx context.Context, operation func(ctx context.Context)) bool {
	return false
}

func newNumbersAPI(t *testing.T, httpClient factprovider.HttpClient, limiter factprovider.RequestLimiter) factprovider.FactProvider {
	t.Helper()
	provider, err := factprovider.NewNumbersAPI(httpClient, limiter, baseURL, 300*time.Millisecond, time.Now)
	require.NoError(t, err)
	return provider
}

func TestNumbersAPI(t *testing.T) {
	t.Parallel()

	unlimited := ratelimiting.NewUnlimitedRequestLimiter()

	t.Run("success", func(t *testing.T) {
		t.Parallel()

		httpClient := newMockedHttpClient(t, "http://numbersapi.com/371/math", 200, "371 is a narcissistic number.\n", nil)
		provider := newNumbersAPI(t, httpClient, unlimited)

		fact, err := provider.GetFact(t.Context(), 371)
		require.NoError(t, err)
		require.Equal(t, "371 is a narcissistic number.", fact)
		require.Equal(t, 1, httpClient.calls)
	})

	t.Run("negative number", func(t *testing.T) {
		t.Parallel()

		httpClient := newMockedHttpClient(t, "http://numbersapi.com/-5/math", 200, "-5 is a number.", nil)
		provider := newNumbersAPI(t, httpClient, unlimited)

		fact, err := provider.GetFact(t.Context(), -5)
		require.NoError(t, err)
		require.Equal(t, "-5 is a number.", fact)
	})

	t.Run("trailing slash in base url", func(t *testing.T) {
		t.Parallel()

		httpClient := newMockedHttpClient(t, "http://numbersapi.com/1/math", 200, "1 is the loneliest number.", nil)
		provider, err := factprovider.NewNumbersAPI(httpClient, unlimited, baseURL+"/", time.Second, time.Now)
		require.NoError(t, err)

		_, err = provider.GetFact(t.Context(), 1)
		require.NoError(t, err)
	})

	t.Run("not found", func(t *testing.T) {
		t.Parallel()

		httpClient := newMockedHttpClient(t, "http://numbersapi.com/7/math", 404, "not found", nil)
		provider := newNumbersAPI(t, httpClient, unlimited)

		_, err := provider.GetFact(t.Context(), 7)
		require.ErrorIs(t, err, domain.ErrFactUnavailable)
		require.NotErrorIs(t, err, domain.ErrTemporarilyUnavailable)
	})

	t.Run("temporarily unavailable statuses", func(t *testing.T) {
		t.Parallel()

		for _, statusCode := range []int{429, 502, 503, 504} {
			t.Run(fmt.Sprint(statusCode), func(t *testing.T) {
				t.Parallel()

				httpClient := newMockedHttpClient(t, "http://numbersapi.com/7/math", statusCode, "", nil)
				provider := newNumbersAPI(t, httpClient, unlimited)

				_, err := provider.GetFact(t.Context(), 7)
				require.ErrorIs(t, err, domain.ErrTemporarilyUnavailable)
			})
		}
	})

	t.Run("empty body", func(t *testing.T) {
		t.Parallel()

		httpClient := newMockedHttpClient(t, "http://numbersapi.com/7/math", 200, "  \n", nil)
		provider := newNumbersAPI(t, httpClient, unlimited)

		_, err := provider.GetFact(t.Context(), 7)
		require.ErrorIs(t, err, domain.ErrFactUnavailable)
	})

	t.Run("request error", func(t *testing.T) {
		t.Parallel()

		httpClient := newMockedHttpClient(t, "http://numbersapi.com/7/math", 200, "", assert.AnError)
		provider := newNumbersAPI(t, httpClient, unlimited)

		_, err := provider.GetFact(t.Context(), 7)
		require.ErrorIs(t, err, assert.AnError)
	})

	t.Run("body read error", func(t *testing.T) {
		t.Parallel()

		httpClient := newMockedHttpClient(t, "http://numbersapi.com/7/math", 200, "", nil)
		httpClient.body = cantRead{}
		provider := newNumbersAPI(t, httpClient, unlimited)

		_, err := provider.GetFact(t.Context(), 7)
		require.ErrorIs(t, err, assert.AnError)
	})

	t.Run("long facts are cut off", func(t *testing.T) {
		t.Parallel()

		httpClient := newMockedHttpClient(t, "http://numbersapi.com/7/math", 200, strings.Repeat("a", 10_000), nil)
		provider := newNumbersAPI(t, httpClient, unlimited)

		fact, err := provider.GetFact(t.Context(), 7)
		require.NoError(t, err)
		require.Len(t, fact, 4096)
	})

	t.Run("long facts are cut off between characters", func(t *testing.T) {
		t.Parallel()

		// Every "é" is two bytes starting at an odd offset, so byte 4096 is in the middle of one
		body := "a" + strings.Repeat("é", 5_000)
		httpClient := newMockedHttpClient(t, "http://numbersapi.com/7/math", 200, body, nil)
		provider := newNumbersAPI(t, httpClient, unlimited)

		fact, err := provider.GetFact(t.Context(), 7)
		require.NoError(t, err)
		require.True(t, utf8.ValidString(fact))
		require.Len(t, fact, 4095)
		require.True(t, strings.HasPrefix(body, fact))
	})

	t.Run("facts at the size limit are kept whole", func(t *testing.T) {
		t.Parallel()

		body := strings.Repeat("€", 4096/3) + "a"
		httpClient := newMockedHttpClient(t, "http://numbersapi.com/7/math", 200, body, nil)
		provider := newNumbersAPI(t, httpClient, unlimited)

		fact, err := provider.GetFact(t.Context(), 7)
		require.NoError(t, err)
		require.Equal(t, body, fact)
	})

	t.Run("rate limited", func(t *testing.T) {
		t.Parallel()

		httpClient := newMockedHttpClient(t, "http://numbersapi.com/7/math", 200, "fact", nil)
		provider := newNumbersAPI(t, httpClient, refusingLimiter{})

		_, err := provider.GetFact(t.Context(), 7)
		require.ErrorIs(t, err, domain.ErrTemporarilyUnavailable)
		require.Equal(t, 0, httpClient.calls)
	})

	t.Run("times out", func(t *testing.T) {
		t.Parallel()

		synctest.Test(t, func(t *testing.T) {
			provider := newNumbersAPI(t, blockingHttpClient{}, unlimited)

			start := time.Now()
			_, err := provider.GetFact(t.Context(), 7)
			require.ErrorIs(t, err, domain.ErrTemporarilyUnavailable)
			require.ErrorIs(t, err, context.DeadlineExceeded)
			require.Equal(t, 300*time.Millisecond, time.Since(start))
		})
	})

	t.Run("invalid timeout", func(t *testing.T) {
		t.Parallel()

		_, err := factprovider.NewNumbersAPI(http.DefaultClient, unlimited, baseURL, 0, time.Now)
		require.Error(t, err)
	})
}

func TestNumbersAPIWithServer(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/6/math":
			w.Header().Set("Content-Type", "text/plain")
			fmt.Fprint(w, "6 is the smallest perfect number.")
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(server.Close)

	provider, err := factprovider.NewNumbersAPI(server.Client(), ratelimiting.NewTokenBucketRequestLimiter(10, 10), server.URL, time.Second, time.Now)
	require.NoError(t, err)

	fact, err := provider.GetFact(t.Context(), 6)
	require.NoError(t, err)
	require.Equal(t, "6 is the smallest perfect number.", fact)

	_, err = provider.GetFact(t.Context(), 5)
	require.ErrorIs(t, err, domain.ErrFactUnavailable)
}
