package factprovider

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Amund211/numberclassifier/internal/constants"
	"github.com/Amund211/numberclassifier/internal/domain"
	"github.com/Amund211/numberclassifier/internal/logging"
	"github.com/Amund211/numberclassifier/internal/reporting"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Facts are short sentences, anything longer is cut off
const maxFactBytes = 4096

type HttpClient interface {
	Do(req *http.Request) (*http.Response, error)
}

type RequestLimiter interface {
	Limit(ctx context.Context, operation func(ctx context.Context)) bool
}

type numbersAPIMetricsCollection struct {
	requestCount    metric.Int64Counter
	requestDuration metric.Float64Histogram
}

func setupNumbersAPIMetrics(meter metric.Meter) (numbersAPIMetricsCollection, error) {
	requestCount, err := meter.Int64Counter(
		"factprovider/numbersapi/request_count",
		metric.WithDescription("Requests sent to numbersapi by outcome"),
	)
	if err != nil {
		return numbersAPIMetricsCollection{}, fmt.Errorf("failed to create request count metric: %w", err)
	}

	requestDuration, err := meter.Float64Histogram(
		"factprovider/numbersapi/request_duration_seconds",
		metric.WithDescription("Time spent waiting for numbersapi"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return numbersAPIMetricsCollection{}, fmt.Errorf("failed to create request duration metric: %w", err)
	}

	return numbersAPIMetricsCollection{
		requestCount:    requestCount,
		requestDuration: requestDuration,
	}, nil
}

type numbersAPI struct {
	httpClient HttpClient
	limiter    RequestLimiter
	baseURL    string
	timeout    time.Duration
	nowFunc    func() time.Time

	metrics numbersAPIMetricsCollection
	tracer  trace.Tracer
}

// NewNumbersAPI gets facts from GET {baseURL}/{number}/math, giving up after timeout
func NewNumbersAPI(
	httpClient HttpClient,
	limiter RequestLimiter,
	baseURL string,
	timeout time.Duration,
	nowFunc func() time.Time,
) (*numbersAPI, error) {
	const name = "numberclassifier/factprovider/numbersapi"

	if timeout <= 0 {
		return nil, fmt.Errorf("timeout must be positive, got %s", timeout)
	}

	metrics, err := setupNumbersAPIMetrics(otel.Meter(name))
	if err != nil {
		return nil, fmt.Errorf("failed to set up metrics: %w", err)
	}

	return &numbersAPI{
		httpClient: httpClient,
		limiter:    limiter,
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		timeout:    timeout,
		nowFunc:    nowFunc,

		metrics: metrics,
		tracer:  otel.Tracer(name),
	}, nil
}

func (n *numbersAPI) GetFact(ctx context.Context, number int64) (string, error) {
	ctx, span := n.tracer.Start(ctx, "NumbersAPI.GetFact", trace.WithAttributes(attribute.Int64("number", number)))
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()

	fact, outcome, err := n.getFact(ctx, number)

	n.metrics.requestCount.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}
	return fact, nil
}

// getFact returns the fact, a low cardinality outcome label and an error
func (n *numbersAPI) getFact(ctx context.Context, number int64) (string, string, error) {
	logger := logging.FromContext(ctx)

	url := fmt.Sprintf("%s/%d/math", n.baseURL, number)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		err := fmt.Errorf("failed to create request: %w", err)
		reporting.Report(ctx, err)
		return "", "error", err
	}

	req.Header.Set("User-Agent", constants.USER_AGENT)
	req.Header.Set("Accept", "text/plain")

	var statusCode int
	var data []byte
	ran := n.limiter.Limit(ctx, func(ctx context.Context) {
		start := n.nowFunc()
		defer func() {
			n.metrics.requestDuration.Record(ctx, n.nowFunc().Sub(start).Seconds())
		}()

		var resp *http.Response
		resp, err = n.httpClient.Do(req)
		if err != nil {
			err = fmt.Errorf("failed to send request: %w", err)
			return
		}
		defer resp.Body.Close()

		statusCode = resp.StatusCode
		data, err = io.ReadAll(io.LimitReader(resp.Body, maxFactBytes+1))
		if err != nil {
			err = fmt.Errorf("failed to read response body: %w", err)
			return
		}
	})
	if !ran {
		logger.WarnContext(ctx, "Did not request fact due to rate limiting", "ctx_error", ctx.Err())
		return "", "rate_limited", fmt.Errorf("%w: too many requests to numbersapi", domain.ErrTemporarilyUnavailable)
	}

	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			// Slow upstream is expected now and then, don't report
			logger.WarnContext(ctx, "Timed out getting fact", slog.String("error", err.Error()))
			return "", "timeout", fmt.Errorf("%w: %w", domain.ErrTemporarilyUnavailable, err)
		}
		reporting.Report(ctx, err, map[string]string{"number": strconv.FormatInt(number, 10)})
		return "", "error", err
	}

	fact, err := factFromNumbersAPIResponse(statusCode, data)
	if err != nil {
		if !errors.Is(err, domain.ErrTemporarilyUnavailable) {
			reporting.Report(ctx, err, map[string]string{
				"number": strconv.FormatInt(number, 10),
				"data":   string(data),
				"status": strconv.Itoa(statusCode),
			})
		}
		return "", fmt.Sprintf("status_%d", statusCode), err
	}

	logger.InfoContext(ctx, "Got fact from numbersapi", slog.Int("status", statusCode))

	return fact, fmt.Sprintf("status_%d", statusCode), nil
}

func factFromNumbersAPIResponse(statusCode int, data []byte) (string, error) {
	switch statusCode {
	case http.StatusTooManyRequests,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return "", fmt.Errorf("%w: numbersapi returned status code %d", domain.ErrTemporarilyUnavailable, statusCode)
	}

	if statusCode < 200 || statusCode > 299 {
		return "", fmt.Errorf("%w: numbersapi returned status code %d", domain.ErrFactUnavailable, statusCode)
	}

	fact := strings.TrimSpace(string(truncateFact(data)))
	if fact == "" {
		return "", fmt.Errorf("%w: numbersapi returned an empty fact", domain.ErrFactUnavailable)
	}

	return fact, nil
}

// truncateFact cuts data to maxFactBytes without splitting a multi-byte character
func truncateFact(data []byte) []byte {
	if len(data) <= maxFactBytes {
		return data
	}

	cut := maxFactBytes
	for cut > maxFactBytes-utf8.UTFMax && !utf8.RuneStart(data[cut]) {
		cut--
	}
	return data[:cut]
}

var _ FactProvider = (*numbersAPI)(nil)
