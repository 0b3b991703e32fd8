package ports

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/Amund211/numberclassifier/internal/logging"
)

func ComposeMiddlewares(middlewares ...func(http.HandlerFunc) http.HandlerFunc) func(http.HandlerFunc) http.HandlerFunc {
	if len(middlewares) == 1 {
		return middlewares[0]
	}
	first := middlewares[0]
	rest := ComposeMiddlewares(middlewares[1:]...)
	return func(h http.HandlerFunc) http.HandlerFunc {
		return first(rest(h))
	}
}

// NewRecoverMiddleware turns a panic in next into a 500.
// Place it outside the sentry middleware, which reports the panic and re-panics.
func NewRecoverMiddleware() func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				recovered := recover()
				if recovered == nil {
					return
				}
				if recovered == http.ErrAbortHandler {
					panic(recovered)
				}

				ctx := r.Context()
				logging.FromContext(ctx).ErrorContext(ctx, "Recovered from panic in handler", slog.String("panic", fmt.Sprint(recovered)))

				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusInternalServerError)
				w.Write([]byte(`{"error":true}`))
			}()

			next(w, r)
		}
	}
}
