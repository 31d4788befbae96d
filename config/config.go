// Package config loads the server configuration from environment variables.
// A .env file in the working directory is read first when present.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const EnvProduction = "production"

// Config groups every setting by concern.
type Config struct {
	Environment string
	Server      ServerConfig
	Database    DatabaseConfig
	JWT         JWTConfig
	Stripe      StripeConfig
	Email       EmailConfig
	CORS        CORSConfig
	Catalog     CatalogConfig
	Login       LoginConfig
	Auth        AuthConfig
}

type ServerConfig struct {
	Host string
	Port int
}

type DatabaseConfig struct {
	Path string
}

type JWTConfig struct {
	Secret string
	Expiry time.Duration
}

// StripeConfig holds the payment provider credentials. An empty SecretKey
// leaves the payment endpoints mounted but every intent request fails with
// a configuration error.
type StripeConfig struct {
	SecretKey      string
	PublishableKey string
	WebhookSecret  string
	Currency       string
}

type EmailConfig struct {
	ResendAPIKey string
	FromEmail    string
	AppURL       string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type CatalogConfig struct {
	CacheTTL time.Duration
}

type LoginConfig struct {
	MaxAttempts int
	Window      time.Duration
}

// AuthConfig.DemoMode swaps the identity resolver for the fixture-backed
// one. It exists for demos and must never be enabled in production.
type AuthConfig struct {
	DemoMode bool
}

// Load reads the configuration. JWT_SECRET is required; malformed numbers
// or durations are reported with the variable name.
func Load() (*Config, error) {
	_ = godotenv.Load()

	port, err := strconv.Atoi(getEnv("PORT", getEnv("SERVER_PORT", "5001")))
	if err != nil {
		return nil, fmt.Errorf("invalid PORT: %w", err)
	}

	jwtExpiry, err := ParseExpiry(getEnv("JWT_EXPIRES_IN", "30d"))
	if err != nil {
		return nil, fmt.Errorf("invalid JWT_EXPIRES_IN: %w", err)
	}

	cacheTTL, err := time.ParseDuration(getEnv("CATALOG_CACHE_TTL", "30s"))
	if err != nil {
		return nil, fmt.Errorf("invalid CATALOG_CACHE_TTL: %w", err)
	}

	maxAttempts, err := strconv.Atoi(getEnv("LOGIN_MAX_ATTEMPTS", "5"))
	if err != nil {
		return nil, fmt.Errorf("invalid LOGIN_MAX_ATTEMPTS: %w", err)
	}

	loginWindow, err := time.ParseDuration(getEnv("LOGIN_WINDOW", "2m"))
	if err != nil {
		return nil, fmt.Errorf("invalid LOGIN_WINDOW: %w", err)
	}

	demoMode, err := strconv.ParseBool(getEnv("AUTH_DEMO_MODE", "false"))
	if err != nil {
		return nil, fmt.Errorf("invalid AUTH_DEMO_MODE: %w", err)
	}

	jwtSecret := getEnv("JWT_SECRET", "")
	if jwtSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET environment variable is required")
	}

	env := getEnv("APP_ENV", getEnv("NODE_ENV", "development"))
	if demoMode && env == EnvProduction {
		return nil, fmt.Errorf("AUTH_DEMO_MODE cannot be enabled when APP_ENV=production")
	}

	frontendURL := getEnv("FRONTEND_URL", "")
	origins := splitList(getEnv("CORS_ORIGINS", "http://localhost:8080,http://localhost:8081"))
	if frontendURL != "" {
		origins = append(origins, frontendURL)
	}

	return &Config{
		Environment: env,
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
			Port: port,
		},
		Database: DatabaseConfig{
			Path: getEnv("DATABASE_PATH", "./data/luxe.db"),
		},
		JWT: JWTConfig{
			Secret: jwtSecret,
			Expiry: jwtExpiry,
		},
		Stripe: StripeConfig{
			SecretKey:      getEnv("STRIPE_SECRET_KEY", ""),
			PublishableKey: getEnv("STRIPE_PUBLISHABLE_KEY", ""),
			WebhookSecret:  getEnv("STRIPE_WEBHOOK_SECRET", ""),
			Currency:       strings.ToLower(getEnv("PAYMENT_CURRENCY", "usd")),
		},
		Email: EmailConfig{
			ResendAPIKey: getEnv("RESEND_API_KEY", ""),
			FromEmail:    getEnv("EMAIL_FROM", ""),
			AppURL:       frontendURL,
		},
		CORS:    CORSConfig{AllowedOrigins: origins},
		Catalog: CatalogConfig{CacheTTL: cacheTTL},
		Login: LoginConfig{
			MaxAttempts: maxAttempts,
			Window:      loginWindow,
		},
		Auth: AuthConfig{DemoMode: demoMode},
	}, nil
}

// Addr is the listen address, e.g. "0.0.0.0:5001".
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func (c *Config) IsProduction() bool {
	return c.Environment == EnvProduction
}

// ParseExpiry accepts Go durations ("12h", "90m") plus a day suffix ("30d"),
// the form token lifetimes are usually written in.
func ParseExpiry(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if days, ok := strings.CutSuffix(s, "d"); ok {
		n, err := strconv.Atoi(days)
		if err != nil {
			return 0, fmt.Errorf("bad day count %q", s)
		}
		if n <= 0 {
			return 0, fmt.Errorf("expiry must be positive, got %q", s)
		}
		return time.Duration(n) * 24 * time.Hour, nil
	}

	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("expiry must be positive, got %q", s)
	}
	return d, nil
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
