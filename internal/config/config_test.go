package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// blank clears every key Load reads so the host environment cannot leak in.
func blank(overrides map[string]string) map[string]string {
	env := map[string]string{
		"APP_ENV": "", "PORT": "", "STORE_DRIVER": "", "STORE_PATH": "", "STORE_PREFIX": "",
		"REDIS_URL": "", "LOCK_TTL": "", "LOCK_RETRY_BACKOFF": "", "CORS_ALLOWED_ORIGINS": "",
		"HTTP_BODY_LIMIT_BYTES": "", "RATE_LIMIT": "", "SECURITY_HEADERS": "", "CURRENCY_CODE": "",
		"COMPANY_NAME": "", "OBS_ENABLE_TRACING": "",
	}
	for k, v := range overrides {
		env[k] = v
	}
	return env
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := LoadForTests(blank(nil))
	require.NoError(t, err)
	require.Equal(t, "development", cfg.AppEnv)
	require.Equal(t, ":8080", cfg.HTTPAddr())
	require.Equal(t, DriverMemory, cfg.StoreDriver)
	require.Equal(t, "./data", cfg.StorePath)
	require.Equal(t, "livvitt.", cfg.StorePrefix)
	require.Equal(t, 5*time.Second, cfg.LockTTL)
	require.Equal(t, 25*time.Millisecond, cfg.LockRetryBackoff)
	require.Equal(t, int64(1<<20), cfg.HTTPBodyLimitBytes)
	require.Equal(t, "120-M", cfg.RateLimit)
	require.True(t, cfg.SecurityHeaders)
	require.Equal(t, "USD", cfg.CurrencyCode)
	require.Equal(t, "LIVVITT", cfg.Company.Name)
	require.False(t, cfg.Obs.TracingEnabled)
	require.Nil(t, cfg.CORSAllowedOrigins)
}

func TestLoadOverrides(t *testing.T) {
	cfg, err := LoadForTests(blank(map[string]string{
		"PORT":                 ":9000",
		"STORE_DRIVER":         "File",
		"STORE_PATH":           "/var/lib/livvitt",
		"LOCK_TTL":             "2s",
		"LOCK_RETRY_BACKOFF":   "not-a-duration",
		"CORS_ALLOWED_ORIGINS": "https://a.example, ,https://b.example",
		"SECURITY_HEADERS":     "off",
		"CURRENCY_CODE":        "eur",
	}))
	require.NoError(t, err)
	require.Equal(t, ":9000", cfg.HTTPAddr())
	require.Equal(t, DriverFile, cfg.StoreDriver)
	require.Equal(t, "/var/lib/livvitt", cfg.StorePath)
	require.Equal(t, 2*time.Second, cfg.LockTTL)
	require.Equal(t, 25*time.Millisecond, cfg.LockRetryBackoff)
	require.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSAllowedOrigins)
	require.False(t, cfg.SecurityHeaders)
	require.Equal(t, "EUR", cfg.CurrencyCode)
}

func TestLoadRedisRequiresURL(t *testing.T) {
	_, err := LoadForTests(blank(map[string]string{"STORE_DRIVER": "redis"}))
	require.ErrorContains(t, err, "REDIS_URL")

	cfg, err := LoadForTests(blank(map[string]string{"STORE_DRIVER": "redis", "REDIS_URL": "redis://localhost:6379/0"}))
	require.NoError(t, err)
	require.Equal(t, DriverRedis, cfg.StoreDriver)
}

func TestLoadRejectsUnknownDriver(t *testing.T) {
	_, err := LoadForTests(blank(map[string]string{"STORE_DRIVER": "postgres"}))
	require.ErrorContains(t, err, "STORE_DRIVER")
}

func TestLoadRejectsNonPositiveBodyLimit(t *testing.T) {
	_, err := LoadForTests(blank(map[string]string{"HTTP_BODY_LIMIT_BYTES": "-1"}))
	require.Error(t, err)
}
