package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// Config holds checkout client configuration loaded from the environment.
type Config struct {
	APIBaseURL     string
	Key            string
	Amount         string
	Currency       string
	Description    string
	MerchantName   string
	MerchantImage  string
	OrderID        string
	CallbackURL    string
	CustomerName   string
	CustomerEmail  string
	CustomerMobile string
	HTTPTimeout    time.Duration
	LogFormat      string
	LogLevel       string
}

// Load reads configuration from environment variables and optional .env files.
func Load() (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", func(s string) string { return s }), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	cfg := &Config{
		APIBaseURL:     valueOrDefault(k.String("CRAZZYPE_API_URL"), "https://merchants.crazzype.com"),
		Key:            strings.TrimSpace(k.String("CRAZZYPE_KEY")),
		Amount:         strings.TrimSpace(k.String("CHECKOUT_AMOUNT")),
		Currency:       valueOrDefault(k.String("CHECKOUT_CURRENCY"), "INR"),
		Description:    valueOrDefault(k.String("CHECKOUT_DESCRIPTION"), "Payment"),
		MerchantName:   valueOrDefault(k.String("CHECKOUT_MERCHANT_NAME"), "CrazzyPe"),
		MerchantImage:  strings.TrimSpace(k.String("CHECKOUT_MERCHANT_IMAGE")),
		OrderID:        strings.TrimSpace(k.String("CHECKOUT_ORDER_ID")),
		CallbackURL:    strings.TrimSpace(k.String("CHECKOUT_CALLBACK_URL")),
		CustomerName:   strings.TrimSpace(k.String("CHECKOUT_CUSTOMER_NAME")),
		CustomerEmail:  strings.TrimSpace(k.String("CHECKOUT_CUSTOMER_EMAIL")),
		CustomerMobile: strings.TrimSpace(k.String("CHECKOUT_CUSTOMER_MOBILE")),
		HTTPTimeout:    parseDuration(k.String("CHECKOUT_HTTP_TIMEOUT"), "10s"),
		LogFormat:      valueOrDefault(k.String("OBS_LOG_FORMAT"), "json"),
		LogLevel:       valueOrDefault(k.String("OBS_LOG_LEVEL"), "info"),
	}

	if cfg.Key == "" {
		return nil, errors.New("CRAZZYPE_KEY is required")
	}
	if cfg.Amount == "" {
		return nil, errors.New("CHECKOUT_AMOUNT is required")
	}

	return cfg, nil
}

func valueOrDefault(value, fallback string) string {
	if strings.TrimSpace(value) != "" {
		return value
	}
	return fallback
}

func parseDuration(value, fallback string) time.Duration {
	base := strings.TrimSpace(value)
	if base == "" {
		base = fallback
	}
	d, err := time.ParseDuration(base)
	if err != nil {
		d, _ = time.ParseDuration(fallback)
	}
	return d
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
