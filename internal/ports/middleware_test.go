package ports

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestComposeMiddlewares(t *testing.T) {
	t.Parallel()

	order := []string{}
	makeMiddleware := func(name string) func(http.HandlerFunc) http.HandlerFunc {
		return func(next http.HandlerFunc) http.HandlerFunc {
			return func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next(w, r)
			}
		}
	}

	handler := ComposeMiddlewares(
		makeMiddleware("first"),
		makeMiddleware("second"),
		makeMiddleware("third"),
	)(func(w http.ResponseWriter, r *http.Request) {
		order = append(order, "handler")
	})

	handler(httptest.NewRecorder(), httptest.NewRequest("GET", "/", nil))
	require.Equal(t, []string{"first", "second", "third", "handler"}, order)
}

func TestRecoverMiddleware(t *testing.T) {
	t.Parallel()

	t.Run("panic", func(t *testing.T) {
		t.Parallel()

		handler := NewRecoverMiddleware()(func(w http.ResponseWriter, r *http.Request) {
			panic("oh no")
		})

		w := httptest.NewRecorder()
		handler(w, httptest.NewRequest("GET", "/", nil))

		require.Equal(t, http.StatusInternalServerError, w.Code)
		require.Equal(t, `{"error":true}`, w.Body.String())
		require.Equal(t, "application/json", w.Header().Get("Content-Type"))
	})

	t.Run("abort handler is not swallowed", func(t *testing.T) {
		t.Parallel()

		handler := NewRecoverMiddleware()(func(w http.ResponseWriter, r *http.Request) {
			panic(http.ErrAbortHandler)
		})

		require.PanicsWithValue(t, http.ErrAbortHandler, func() {
			handler(httptest.NewRecorder(), httptest.NewRequest("GET", "/", nil))
		})
	})

	t.Run("no panic", func(t *testing.T) {
		t.Parallel()

		handler := NewRecoverMiddleware()(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTeapot)
		})

		w := httptest.NewRecorder()
		handler(w, httptest.NewRequest("GET", "/", nil))
		require.Equal(t, http.StatusTeapot, w.Code)
	})
}

func TestMetricsMiddlewareRecordsStatus(t *testing.T) {
	t.Parallel()

	var recorded *statusRecorder
	handler := buildMetricsMiddleware()(func(w http.ResponseWriter, r *http.Request) {
		recorded = w.(*statusRecorder)
		w.WriteHeader(http.StatusBadRequest)
	})

	w := httptest.NewRecorder()
	handler(w, httptest.NewRequest("GET", "/api/classify-number", nil))

	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, http.StatusBadRequest, recorded.statusCode)
}
