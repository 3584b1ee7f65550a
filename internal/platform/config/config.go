package config

import (
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	DatabaseURL       string
	Port              string
	IsProduction      bool
	JWTSecret         string
	JWTExpiryDuration time.Duration
	JWTIssuer         string

	// Outbound email
	EmailProviderURL string
	EmailAPIKey      string
	EmailFrom        string
	// EmailPace is the fixed delay between batch emails, guarding against the
	// provider's rate limit.
	EmailPace time.Duration

	// ReconTolerance is the reconciliation tolerance band in currency units.
	ReconTolerance string

	// BatchCron is an optional cron expression for scheduled statement runs.
	// Empty disables the scheduler.
	BatchCron string

	// RateLimit is an ulule/limiter formatted rate, e.g. "100-M".
	RateLimit string
}

// LoadConfig loads configuration from environment variables and .env file if present.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	viper.SetDefault("PGSQL_URL", "")
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("IS_PRODUCTION", false)
	viper.SetDefault("JWT_SECRET", "a-very-secret-key-should-be-longer-and-random")
	viper.SetDefault("JWT_EXPIRY_DURATION", "8h")
	viper.SetDefault("JWT_ISSUER", "fund-backoffice-app")
	viper.SetDefault("EMAIL_PROVIDER_URL", "")
	viper.SetDefault("EMAIL_API_KEY", "")
	viper.SetDefault("EMAIL_FROM", "statements@fund.example")
	viper.SetDefault("EMAIL_PACE_MS", 3000)
	viper.SetDefault("RECON_TOLERANCE", "0.01")
	viper.SetDefault("BATCH_CRON", "")
	viper.SetDefault("RATE_LIMIT", "100-M")

	viper.AutomaticEnv()

	cfg := &Config{
		DatabaseURL:      viper.GetString("PGSQL_URL"),
		Port:             viper.GetString("PORT"),
		IsProduction:     viper.GetBool("IS_PRODUCTION"),
		JWTSecret:        viper.GetString("JWT_SECRET"),
		JWTIssuer:        viper.GetString("JWT_ISSUER"),
		EmailProviderURL: viper.GetString("EMAIL_PROVIDER_URL"),
		EmailAPIKey:      viper.GetString("EMAIL_API_KEY"),
		EmailFrom:        viper.GetString("EMAIL_FROM"),
		EmailPace:        time.Duration(viper.GetInt("EMAIL_PACE_MS")) * time.Millisecond,
		ReconTolerance:   viper.GetString("RECON_TOLERANCE"),
		BatchCron:        viper.GetString("BATCH_CRON"),
		RateLimit:        viper.GetString("RATE_LIMIT"),
	}

	expiry, err := time.ParseDuration(viper.GetString("JWT_EXPIRY_DURATION"))
	if err != nil {
		expiry = 8 * time.Hour
	}
	cfg.JWTExpiryDuration = expiry

	return cfg, nil
}
