package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := LoadForTests(map[string]string{
		"CRAZZYPE_KEY":    "key_test_123",
		"CHECKOUT_AMOUNT": "49900",
	})
	require.NoError(t, err)
	require.Equal(t, "https://merchants.crazzype.com", cfg.APIBaseURL)
	require.Equal(t, "INR", cfg.Currency)
	require.Equal(t, "Payment", cfg.Description)
	require.Equal(t, "CrazzyPe", cfg.MerchantName)
	require.Equal(t, 10*time.Second, cfg.HTTPTimeout)
	require.Equal(t, "json", cfg.LogFormat)
	require.Equal(t, "info", cfg.LogLevel)
}

func TestLoadRequiresKey(t *testing.T) {
	_, err := LoadForTests(map[string]string{
		"CRAZZYPE_KEY":    "",
		"CHECKOUT_AMOUNT": "49900",
	})
	require.ErrorContains(t, err, "CRAZZYPE_KEY")
}

func TestLoadRequiresAmount(t *testing.T) {
	_, err := LoadForTests(map[string]string{
		"CRAZZYPE_KEY":    "key_test_123",
		"CHECKOUT_AMOUNT": "",
	})
	require.ErrorContains(t, err, "CHECKOUT_AMOUNT")
}

func TestLoadReadsOverrides(t *testing.T) {
	cfg, err := LoadForTests(map[string]string{
		"CRAZZYPE_KEY":          "key_live_456",
		"CHECKOUT_AMOUNT":       "100",
		"CRAZZYPE_API_URL":      "https://staging.crazzype.dev",
		"CHECKOUT_CURRENCY":     "USD",
		"CHECKOUT_CALLBACK_URL": "https://merchant.example/cb",
		"CHECKOUT_HTTP_TIMEOUT": "3s",
		"OBS_LOG_FORMAT":        "console",
	})
	require.NoError(t, err)
	require.Equal(t, "https://staging.crazzype.dev", cfg.APIBaseURL)
	require.Equal(t, "USD", cfg.Currency)
	require.Equal(t, "https://merchant.example/cb", cfg.CallbackURL)
	require.Equal(t, 3*time.Second, cfg.HTTPTimeout)
	require.Equal(t, "console", cfg.LogFormat)
}

func TestLoadFallsBackOnBadDuration(t *testing.T) {
	cfg, err := LoadForTests(map[string]string{
		"CRAZZYPE_KEY":          "key_test_123",
		"CHECKOUT_AMOUNT":       "100",
		"CHECKOUT_HTTP_TIMEOUT": "soon",
	})
	require.NoError(t, err)
	require.Equal(t, 10*time.Second, cfg.HTTPTimeout)
}
