package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config is the explicit, immutable process configuration. It is loaded once
// in main and injected into constructors; nothing reads os.Getenv after startup.
type Config struct {
	Env        string // development|production
	ListenAddr string
	DBDSN      string

	// Payment providers
	Paystack    ProviderConfig
	Etegram     ProviderConfig
	Flutterwave ProviderConfig

	// Warranty providers
	Warranty WarrantyConfig

	// Bounded timeout applied to every outbound provider call.
	ProviderTimeout time.Duration

	// Email
	SMTPAddr      string
	SMTPFrom      string
	SMTPFromName  string
	SMTPUser      string
	SMTPPassword  string
	EmailDisabled bool

	SessionCookieName string
	SessionTTL        time.Duration
	SecureCookies     bool
}

type ProviderConfig struct {
	BaseURL       string
	SecretKey     string
	WebhookSecret string
	CallbackURL   string
}

// WarrantyConfig carries per-brand API credentials. A missing credential is a
// soft state: lookups for that brand degrade to requires_verification.
type WarrantyConfig struct {
	AppleBaseURL   string
	AppleAPIKey    string
	DellBaseURL    string
	DellAPIKey     string
	SamsungBaseURL string
	SamsungAPIKey  string
	HPBaseURL      string
	HPAPIKey       string

	BlacklistBaseURL string
	BlacklistAPIKey  string
}

func FromEnv() (Config, error) {
	cfg := Config{
		Env:        envOr("APP_ENV", "development"),
		ListenAddr: envOr("LISTEN_ADDR", ":8080"),
		DBDSN:      os.Getenv("DB_DSN"),

		Paystack: ProviderConfig{
			BaseURL:       envOr("PAYSTACK_BASE_URL", "https://api.paystack.co"),
			SecretKey:     os.Getenv("PAYSTACK_SECRET_KEY"),
			WebhookSecret: os.Getenv("PAYSTACK_WEBHOOK_SECRET"),
			CallbackURL:   os.Getenv("PAYSTACK_CALLBACK_URL"),
		},
		Etegram: ProviderConfig{
			BaseURL:       envOr("ETEGRAM_BASE_URL", "https://api.etegram.com"),
			SecretKey:     os.Getenv("ETEGRAM_SECRET_KEY"),
			WebhookSecret: os.Getenv("ETEGRAM_WEBHOOK_SECRET"),
			CallbackURL:   os.Getenv("ETEGRAM_CALLBACK_URL"),
		},
		Flutterwave: ProviderConfig{
			BaseURL:       envOr("FLUTTERWAVE_BASE_URL", "https://api.flutterwave.com/v3"),
			SecretKey:     os.Getenv("FLUTTERWAVE_SECRET_KEY"),
			WebhookSecret: os.Getenv("FLUTTERWAVE_WEBHOOK_SECRET"),
			CallbackURL:   os.Getenv("FLUTTERWAVE_CALLBACK_URL"),
		},

		Warranty: WarrantyConfig{
			AppleBaseURL:     envOr("APPLE_WARRANTY_BASE_URL", "https://api.appledevicecheck.example.com"),
			AppleAPIKey:      os.Getenv("APPLE_WARRANTY_API_KEY"),
			DellBaseURL:      envOr("DELL_WARRANTY_BASE_URL", "https://apigtwb2c.us.dell.com"),
			DellAPIKey:       os.Getenv("DELL_WARRANTY_API_KEY"),
			SamsungBaseURL:   envOr("SAMSUNG_WARRANTY_BASE_URL", "https://api.samsungcare.example.com"),
			SamsungAPIKey:    os.Getenv("SAMSUNG_WARRANTY_API_KEY"),
			HPBaseURL:        envOr("HP_WARRANTY_BASE_URL", "https://css.api.hp.com"),
			HPAPIKey:         os.Getenv("HP_WARRANTY_API_KEY"),
			BlacklistBaseURL: envOr("IMEI_BLACKLIST_BASE_URL", "https://api.imeicheck.example.com"),
			BlacklistAPIKey:  os.Getenv("IMEI_BLACKLIST_API_KEY"),
		},

		ProviderTimeout: durationOr("PROVIDER_TIMEOUT", 15*time.Second),

		SMTPAddr:      envOr("SMTP_ADDR", "localhost:1025"),
		SMTPFrom:      envOr("EMAIL_FROM", "no-reply@servixing.local"),
		SMTPFromName:  envOr("EMAIL_FROM_NAME", "Servixing"),
		SMTPUser:      os.Getenv("SMTP_USER"),
		SMTPPassword:  os.Getenv("SMTP_PASSWORD"),
		EmailDisabled: boolOr("EMAIL_DISABLED", false),

		SessionCookieName: envOr("SESSION_COOKIE_NAME", "svx_session"),
		SessionTTL:        durationOr("SESSION_TTL", 30*24*time.Hour),
		SecureCookies:     boolOr("SECURE_COOKIES", false),
	}

	if cfg.DBDSN == "" {
		return Config{}, fmt.Errorf("DB_DSN is required")
	}
	return cfg, nil
}

func envOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func durationOr(k string, def time.Duration) time.Duration {
	if v := os.Getenv(k); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func boolOr(k string, def bool) bool {
	if v := os.Getenv(k); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}
