package ports

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/Amund211/numberclassifier/internal/app"
	"github.com/Amund211/numberclassifier/internal/logging"
	"github.com/Amund211/numberclassifier/internal/reporting"
)

type classifyNumberResponse struct {
	Number     int64    `json:"number"`
	IsPrime    bool     `json:"is_prime"`
	IsPerfect  bool     `json:"is_perfect"`
	Properties []string `json:"properties"`
	DigitSum   int      `json:"digit_sum"`
	FunFact    string   `json:"fun_fact"`
}

type invalidNumberResponse struct {
	Number string `json:"number"`
	Error  bool   `json:"error"`
}

// ParseNumber accepts an optionally signed base 10 integer that fits in an int64
func ParseNumber(raw string) (int64, bool) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return 0, false
	}
	number, err := strconv.ParseInt(trimmed, 10, 64)
	if err != nil {
		return 0, false
	}
	return number, true
}

func MakeClassifyNumberHandler(
	classifyNumber app.ClassifyNumber,
	allowedOrigins *DomainSuffixes,
	rootLogger *slog.Logger,
	sentryMiddleware func(http.HandlerFunc) http.HandlerFunc,
) http.HandlerFunc {
	middleware := ComposeMiddlewares(
		logging.NewRequestLoggerMiddleware(rootLogger),
		NewRecoverMiddleware(),
		sentryMiddleware,
		reporting.NewAddMetaMiddleware("classify-number"),
		BuildCORSMiddleware(allowedOrigins),
		buildMetricsMiddleware(),
	)

	handler := func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		raw := r.URL.Query().Get("number")

		writeInternalServerError := func(ctx context.Context, err error) {
			reporting.Report(ctx, err)
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte(`{"error":true}`))
		}

		ctx = reporting.AddExtrasToContext(ctx,
			map[string]string{
				"number": raw,
			},
		)

		number, ok := ParseNumber(raw)
		if !ok {
			logging.FromContext(ctx).InfoContext(ctx, "Invalid number")

			response, err := json.Marshal(invalidNumberResponse{Number: raw, Error: true})
			if err != nil {
				writeInternalServerError(ctx, fmt.Errorf("failed to marshal invalid number response: %w", err))
				return
			}

			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			w.Write(response)
			return
		}

		result := classifyNumber(ctx, number)

		ctx = logging.AddMetaToContext(ctx, slog.String("factOrigin", result.FactOrigin.String()))

		response, err := json.Marshal(classifyNumberResponse{
			Number:     result.Number,
			IsPrime:    result.IsPrime,
			IsPerfect:  result.IsPerfect,
			Properties: result.Properties,
			DigitSum:   result.DigitSum,
			FunFact:    result.FunFact,
		})
		if err != nil {
			writeInternalServerError(ctx, fmt.Errorf("failed to marshal classify number response: %w", err))
			return
		}

		logging.FromContext(ctx).InfoContext(ctx, "Classified number")

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write(response)
	}

	return middleware(handler)
}
