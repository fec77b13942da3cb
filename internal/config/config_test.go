package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadRequiresRedisURL(t *testing.T) {
	_, err := LoadForTests(map[string]string{
		"REDIS_URL": "",
	})
	require.Error(t, err)
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := LoadForTests(map[string]string{
		"REDIS_URL":             "redis://localhost:6379/0",
		"PORT":                  "",
		"CURRENCY_CODE":         "",
		"MONEY_LOCALE":          "",
		"RATE_LIMIT_PER_MINUTE": "",
	})
	require.NoError(t, err)
	require.Equal(t, ":8080", cfg.HTTPAddr())
	require.Equal(t, "PYG", cfg.CurrencyCode)
	require.Equal(t, "Gs.", cfg.CurrencySymbol)
	require.Equal(t, "es-PY", cfg.MoneyLocale)
	require.Equal(t, 120, cfg.RateLimitPerMinute)
	require.Equal(t, "pedidos", cfg.RedisKeyPrefix)
	require.False(t, cfg.IsProduction())
}

func TestLoadOverrides(t *testing.T) {
	cfg, err := LoadForTests(map[string]string{
		"REDIS_URL":             "redis://localhost:6379/0",
		"APP_ENV":               "production",
		"PORT":                  "9000",
		"CORS_ALLOWED_ORIGINS":  "https://a.example, https://b.example",
		"RATE_LIMIT_PER_MINUTE": "30",
		"CLOSURE_LOCK_TTL":      "5s",
	})
	require.NoError(t, err)
	require.True(t, cfg.IsProduction())
	require.Equal(t, ":9000", cfg.HTTPAddr())
	require.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSAllowedOrigins)
	require.Equal(t, 30, cfg.RateLimitPerMinute)
	require.Equal(t, "5s", cfg.ClosureLockTTL.String())
}
