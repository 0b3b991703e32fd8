package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

var ErrMissingRequiredValue = errors.New("missing required value")
var ErrInvalidValue = errors.New("invalid value")

type environment string

const (
	production  environment = "production"
	staging     environment = "staging"
	development environment = "development"
)

type MetricsBackend string

const (
	MetricsBackendOTel       MetricsBackend = "otel"
	MetricsBackendPrometheus MetricsBackend = "prometheus"
	MetricsBackendNone       MetricsBackend = "none"
)

const (
	defaultPort          = "10000"
	defaultFactSourceURL = "http://numbersapi.com"
	defaultFactTimeout   = 300 * time.Millisecond
	defaultFactCacheTTL  = 1 * time.Hour
	defaultCacheCapacity = 100_000
)

type Config struct {
	port                  string
	sentryDSN             string
	factSourceURL         string
	factTimeout           time.Duration
	factCacheTTL          time.Duration
	factCacheCapacity     uint64
	allowedOriginSuffixes []string
	metricsBackend        MetricsBackend
	googleCloudProject    string
	env                   environment
}

func (c *Config) Port() string {
	return c.port
}

func (c *Config) SentryDSN() string {
	return c.sentryDSN
}

func (c *Config) FactSourceURL() string {
	return c.factSourceURL
}

func (c *Config) FactTimeout() time.Duration {
	return c.factTimeout
}

func (c *Config) FactCacheTTL() time.Duration {
	return c.factCacheTTL
}

func (c *Config) FactCacheCapacity() uint64 {
	return c.factCacheCapacity
}

// Empty means any origin is allowed
func (c *Config) AllowedOriginSuffixes() []string {
	return c.allowedOriginSuffixes
}

func (c *Config) MetricsBackend() MetricsBackend {
	return c.metricsBackend
}

func (c *Config) GoogleCloudProject() string {
	return c.googleCloudProject
}

func (c *Config) IsProduction() bool {
	return c.env == production
}

func (c *Config) IsStaging() bool {
	return c.env == staging
}

func (c *Config) IsDevelopment() bool {
	return c.env == development
}

// Return a string representation suitable for logging etc
func (c *Config) NonSensitiveString() string {
	return fmt.Sprintf(
		"Config{env: %s, port: %s, factSourceURL: %s, factTimeout: %s, factCacheTTL: %s, factCacheCapacity: %d, metricsBackend: %s, ...}",
		string(c.env),
		c.port,
		c.factSourceURL,
		c.factTimeout,
		c.factCacheTTL,
		c.factCacheCapacity,
		string(c.metricsBackend),
	)
}

func ConfigFromEnv() (Config, error) {
	missingKey := func(key string) (Config, error) {
		return Config{}, fmt.Errorf("%w: %s", ErrMissingRequiredValue, key)
	}
	invalidValue := func(key string, value string) (Config, error) {
		return Config{}, fmt.Errorf("%w: %s (%s)", ErrInvalidValue, key, value)
	}

	var env environment
	rawEnv, ok := os.LookupEnv("NUMBERCLASSIFIER_ENVIRONMENT")
	if !ok {
		return missingKey("NUMBERCLASSIFIER_ENVIRONMENT")
	}
	switch rawEnv {
	case "production":
		env = production
	case "staging":
		env = staging
	case "development":
		env = development
	default:
		return invalidValue("NUMBERCLASSIFIER_ENVIRONMENT", rawEnv)
	}
	if string(env) == "" {
		panic("logic error: env is empty")
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = defaultPort
	}
	if portNumber, err := strconv.Atoi(port); err != nil || portNumber <= 0 || portNumber > 65535 {
		return invalidValue("PORT", port)
	}

	factSourceURL := strings.TrimSuffix(os.Getenv("FACT_SOURCE_URL"), "/")
	if factSourceURL == "" {
		factSourceURL = defaultFactSourceURL
	}
	if parsed, err := url.Parse(factSourceURL); err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return invalidValue("FACT_SOURCE_URL", factSourceURL)
	}

	factTimeout := defaultFactTimeout
	if raw := os.Getenv("FACT_TIMEOUT"); raw != "" {
		parsed, err := time.ParseDuration(raw)
		if err != nil || parsed <= 0 {
			return invalidValue("FACT_TIMEOUT", raw)
		}
		factTimeout = parsed
	}

	factCacheTTL := defaultFactCacheTTL
	if raw := os.Getenv("FACT_CACHE_TTL"); raw != "" {
		parsed, err := time.ParseDuration(raw)
		if err != nil || parsed <= 0 {
			return invalidValue("FACT_CACHE_TTL", raw)
		}
		factCacheTTL = parsed
	}

	factCacheCapacity := uint64(defaultCacheCapacity)
	if raw := os.Getenv("FACT_CACHE_CAPACITY"); raw != "" {
		parsed, err := strconv.ParseUint(raw, 10, 64)
		if err != nil || parsed == 0 {
			return invalidValue("FACT_CACHE_CAPACITY", raw)
		}
		factCacheCapacity = parsed
	}

	allowedOriginSuffixes := []string{}
	for _, suffix := range strings.Split(os.Getenv("ALLOWED_ORIGIN_SUFFIXES"), ",") {
		suffix = strings.TrimSpace(suffix)
		if suffix != "" {
			allowedOriginSuffixes = append(allowedOriginSuffixes, suffix)
		}
	}

	metricsBackend := MetricsBackendOTel
	if raw := os.Getenv("METRICS_BACKEND"); raw != "" {
		switch MetricsBackend(raw) {
		case MetricsBackendOTel, MetricsBackendPrometheus, MetricsBackendNone:
			metricsBackend = MetricsBackend(raw)
		default:
			return invalidValue("METRICS_BACKEND", raw)
		}
	}

	sentryDSN := os.Getenv("SENTRY_DSN")
	googleCloudProject := os.Getenv("GOOGLE_CLOUD_PROJECT")

	if env == production || env == staging {
		if sentryDSN == "" {
			return missingKey("SENTRY_DSN")
		}
	}

	return Config{
		port:                  port,
		sentryDSN:             sentryDSN,
		factSourceURL:         factSourceURL,
		factTimeout:           factTimeout,
		factCacheTTL:          factCacheTTL,
		factCacheCapacity:     factCacheCapacity,
		allowedOriginSuffixes: allowedOriginSuffixes,
		metricsBackend:        metricsBackend,
		googleCloudProject:    googleCloudProject,
		env:                   env,
	}, nil
}
