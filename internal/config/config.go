package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// Store drivers understood by StoreDriver.
const (
	DriverMemory = "memory"
	DriverFile   = "file"
	DriverRedis  = "redis"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	AppEnv             string
	Port               string
	StoreDriver        string
	StorePath          string
	StorePrefix        string
	RedisURL           string
	LockTTL            time.Duration
	LockRetryBackoff   time.Duration
	IdempotencyTTL     time.Duration
	CORSAllowedOrigins []string
	HTTPBodyLimitBytes int64
	RateLimit          string
	SecurityHeaders    bool
	CurrencyCode       string
	Company            Company
	Obs                Obs
	ShutdownTimeout    time.Duration
	ReadyTimeout       time.Duration
}

// Company is printed on every rendered document.
type Company struct {
	Name    string
	Address string
	Email   string
	Phone   string
}

// Obs groups logging, metrics and tracing settings.
type Obs struct {
	LogFormat        string
	LogLevel         string
	MetricsEnabled   bool
	MetricsNamespace string
	MetricsBuckets   string
	TracingEnabled   bool
	TracingExporter  string
	OTLPEndpoint     string
	SamplingRatio    float64
	ServiceName      string
}

// Load reads configuration from environment variables and optional .env files.
func Load() (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", func(s string) string { return s }), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	cfg := &Config{
		AppEnv:             valueOrDefault(k.String("APP_ENV"), "development"),
		Port:               valueOrDefault(k.String("PORT"), "8080"),
		StoreDriver:        strings.ToLower(valueOrDefault(k.String("STORE_DRIVER"), DriverMemory)),
		StorePath:          valueOrDefault(k.String("STORE_PATH"), "./data"),
		StorePrefix:        valueOrDefault(k.String("STORE_PREFIX"), "livvitt."),
		RedisURL:           strings.TrimSpace(k.String("REDIS_URL")),
		LockTTL:            parseDuration(k.String("LOCK_TTL"), "5s"),
		LockRetryBackoff:   parseDuration(k.String("LOCK_RETRY_BACKOFF"), "25ms"),
		IdempotencyTTL:     parseDuration(k.String("IDEMPOTENCY_TTL"), "24h"),
		CORSAllowedOrigins: splitAndTrim(k.String("CORS_ALLOWED_ORIGINS")),
		HTTPBodyLimitBytes: parseInt64(k.String("HTTP_BODY_LIMIT_BYTES"), 1<<20),
		RateLimit:          valueOrDefault(k.String("RATE_LIMIT"), "120-M"),
		SecurityHeaders:    parseBool(k.String("SECURITY_HEADERS"), true),
		CurrencyCode:       strings.ToUpper(valueOrDefault(k.String("CURRENCY_CODE"), "USD")),
		Company: Company{
			Name:    valueOrDefault(k.String("COMPANY_NAME"), "LIVVITT"),
			Address: strings.TrimSpace(k.String("COMPANY_ADDRESS")),
			Email:   strings.TrimSpace(k.String("COMPANY_EMAIL")),
			Phone:   strings.TrimSpace(k.String("COMPANY_PHONE")),
		},
		Obs: Obs{
			LogFormat:        valueOrDefault(k.String("OBS_LOG_FORMAT"), "json"),
			LogLevel:         valueOrDefault(k.String("OBS_LOG_LEVEL"), "info"),
			MetricsEnabled:   parseBool(k.String("OBS_ENABLE_PROMETHEUS"), true),
			MetricsNamespace: valueOrDefault(k.String("OBS_METRICS_NAMESPACE"), "livvitt"),
			MetricsBuckets:   strings.TrimSpace(k.String("OBS_METRICS_BUCKETS_MS")),
			TracingEnabled:   parseBool(k.String("OBS_ENABLE_TRACING"), false),
			TracingExporter:  valueOrDefault(k.String("OBS_TRACING_EXPORTER"), "otlp"),
			OTLPEndpoint:     strings.TrimSpace(k.String("OBS_OTLP_ENDPOINT")),
			SamplingRatio:    parseFloat(k.String("OBS_TRACING_SAMPLING_RATIO"), 1.0),
			ServiceName:      valueOrDefault(k.String("OBS_SERVICE_NAME"), "livvitt-quotes"),
		},
		ShutdownTimeout: parseDuration(k.String("SHUTDOWN_TIMEOUT"), "10s"),
		ReadyTimeout:    parseDuration(k.String("HEALTH_READY_TIMEOUT"), "500ms"),
	}

	switch cfg.StoreDriver {
	case DriverMemory, DriverFile:
	case DriverRedis:
		if cfg.RedisURL == "" {
			return nil, errors.New("REDIS_URL is required when STORE_DRIVER=redis")
		}
	default:
		return nil, fmt.Errorf("unsupported STORE_DRIVER %q", cfg.StoreDriver)
	}
	if cfg.HTTPBodyLimitBytes <= 0 {
		return nil, errors.New("HTTP_BODY_LIMIT_BYTES must be positive")
	}

	return cfg, nil
}

// HTTPAddr returns the address the HTTP server should bind to.
func (c *Config) HTTPAddr() string {
	port := strings.TrimSpace(c.Port)
	if port == "" {
		port = "8080"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return ":" + port
}

func splitAndTrim(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func valueOrDefault(value, fallback string) string {
	if trimmed := strings.TrimSpace(value); trimmed != "" {
		return trimmed
	}
	return fallback
}

func parseDuration(value, fallback string) time.Duration {
	base := strings.TrimSpace(value)
	if base == "" {
		base = fallback
	}
	d, err := time.ParseDuration(base)
	if err != nil || d <= 0 {
		d, _ = time.ParseDuration(fallback)
	}
	return d
}

func parseBool(value string, fallback bool) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "t", "true", "yes", "on":
		return true
	case "0", "f", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

func parseInt64(value string, fallback int64) int64 {
	parsed, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func parseFloat(value string, fallback float64) float64 {
	parsed, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return fallback
	}
	return parsed
}

// MustLoad behaves like Load but panics on error. Useful for tests and command entrypoints.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// LoadForTests allows tests to override environment variables without touching the real environment.
func LoadForTests(env map[string]string) (*Config, error) {
	original := make(map[string]string, len(env))
	for key := range env {
		original[key] = os.Getenv(key)
		if err := setEnvVar(key, env[key]); err != nil {
			return nil, err
		}
	}
	cfg, err := Load()
	restoreErr := restoreEnv(original)
	if err != nil {
		return nil, err
	}
	return cfg, restoreErr
}

func setEnvVar(key, value string) error {
	if value == "" {
		return os.Unsetenv(key)
	}
	return os.Setenv(key, value)
}

func restoreEnv(values map[string]string) error {
	var errs []string
	for key, value := range values {
		if err := setEnvVar(key, value); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", key, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("restore env: %s", strings.Join(errs, "; "))
	}
	return nil
}
