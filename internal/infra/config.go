package infra

import (
	"fmt"
	"net/url"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv             string
	Port               string
	DatabaseURL        string
	DBMaxConns         int
	JWTSecret          string
	PublicAppURL       string
	CORSAllowedOrigins []string
	AdminEmails        []string

	AuthIssuer   string
	AuthAudience string

	StorageDriver  string
	StoragePath    string
	StorageBaseURL string
	S3Bucket       string
	AWSRegion      string
	SignedURLTTL   time.Duration

	VerifyProvider string
	OpenAIAPIKey   string
	OpenAIModel    string
	OpenAIBaseURL  string

	StripeSecretKey     string
	StripeWebhookSecret string
	StripeCurrency      string

	GeoIPDBPath     string
	CharitySeedPath string

	AssistanceMaxPaidBills int
	AssistanceWindow       time.Duration

	WorkerPollInterval time.Duration
	ImpactInterval     time.Duration

	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
	RateLimitPerMin  int
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	port := getEnv("PORT", "8080")
	cfg := &Config{
		AppEnv:             getEnv("APP_ENV", "development"),
		Port:               port,
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		DBMaxConns:         getEnvInt("DB_MAX_CONNS", 10),
		JWTSecret:          os.Getenv("JWT_SECRET"),
		PublicAppURL:       strings.TrimRight(getEnv("PUBLIC_APP_URL", "http://localhost:3000"), "/"),
		CORSAllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
		AdminEmails:        normalizeEmails(getEnvList("ADMIN_EMAILS", nil)),

		AuthIssuer:   strings.TrimRight(os.Getenv("AUTH_ISSUER"), "/"),
		AuthAudience: os.Getenv("AUTH_AUDIENCE"),

		StorageDriver:  strings.ToLower(getEnv("STORAGE_DRIVER", "fs")),
		StoragePath:    getEnv("STORAGE_PATH", "./storage"),
		StorageBaseURL: strings.TrimRight(getEnv("STORAGE_BASE_URL", fmt.Sprintf("http://localhost:%s/static", port)), "/"),
		S3Bucket:       os.Getenv("S3_BUCKET"),
		AWSRegion:      getEnv("AWS_REGION", "ca-central-1"),
		SignedURLTTL:   time.Second * time.Duration(getEnvInt("SIGNED_URL_TTL_SECONDS", 900)),

		VerifyProvider: strings.ToLower(getEnv("VERIFY_PROVIDER", "openai")),
		OpenAIAPIKey:   os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:    getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		OpenAIBaseURL:  getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),

		StripeSecretKey:     os.Getenv("STRIPE_SECRET_KEY"),
		StripeWebhookSecret: os.Getenv("STRIPE_WEBHOOK_SECRET"),
		StripeCurrency:      strings.ToLower(getEnv("STRIPE_CURRENCY", "cad")),

		GeoIPDBPath:     os.Getenv("GEOIP_DB_PATH"),
		CharitySeedPath: getEnv("CHARITY_SEED_PATH", "./seed/charities.yaml"),

		AssistanceMaxPaidBills: getEnvInt("ASSISTANCE_MAX_PAID_BILLS", 3),
		AssistanceWindow:       24 * time.Hour * time.Duration(getEnvInt("ASSISTANCE_WINDOW_DAYS", 365)),

		WorkerPollInterval: time.Second * time.Duration(getEnvInt("WORKER_POLL_SECONDS", 2)),
		ImpactInterval:     time.Minute * time.Duration(getEnvInt("IMPACT_INTERVAL_MINUTES", 60)),

		HTTPReadTimeout:  time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout: time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 30)),
		HTTPIdleTimeout:  time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		RateLimitPerMin:  getEnvInt("RATE_LIMIT_PER_MINUTE", 60),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	switch cfg.StorageDriver {
	case "fs":
	case "s3":
		if cfg.S3Bucket == "" {
			return nil, fmt.Errorf("S3_BUCKET is required when STORAGE_DRIVER=s3")
		}
	default:
		return nil, fmt.Errorf("unsupported STORAGE_DRIVER %q", cfg.StorageDriver)
	}

	if cfg.AssistanceMaxPaidBills <= 0 {
		return nil, fmt.Errorf("ASSISTANCE_MAX_PAID_BILLS must be positive")
	}

	return cfg, nil
}

// PaymentsEnabled reports whether a Stripe key has been configured.
func (c *Config) PaymentsEnabled() bool {
	return c != nil && strings.TrimSpace(c.StripeSecretKey) != ""
}

// IsAdminEmail reports whether email is listed in ADMIN_EMAILS.
func (c *Config) IsAdminEmail(email string) bool {
	if c == nil {
		return false
	}
	email = strings.ToLower(strings.TrimSpace(email))
	for _, candidate := range c.AdminEmails {
		if candidate == email {
			return true
		}
	}
	return false
}

// StorageHost returns the host serving stored bill images, used to restrict fetches.
func (c *Config) StorageHost() string {
	if c == nil {
		return ""
	}
	u, err := url.Parse(c.StorageBaseURL)
	if err != nil {
		return ""
	}
	return u.Hostname()
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvList(key string, fallback []string) []string {
	v, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(v) == "" {
		return fallback
	}
	seen := map[string]struct{}{}
	var out []string
	for _, part := range strings.Split(v, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if _, dup := seen[part]; dup {
			continue
		}
		seen[part] = struct{}{}
		out = append(out, part)
	}
	return out
}

func normalizeEmails(in []string) []string {
	out := make([]string, 0, len(in))
	for _, e := range in {
		out = append(out, strings.ToLower(e))
	}
	sort.Strings(out)
	return out
}
