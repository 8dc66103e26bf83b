package infra

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Record store backends selectable through RECORD_STORE.
const (
	StoreFile     = "file"
	StorePostgres = "postgres"
	StoreSQLite   = "sqlite"
)

const geminiPlaceholderKey = "your_gemini_api_key"

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv             string
	Port               string
	PublicBaseURL      string
	CORSAllowedOrigins []string
	TrustedProxies     []string

	RecordStore string
	DataPath    string
	SQLitePath  string
	DatabaseURL string
	ContentDir  string
	OutboxDir   string
	GeoIPDBPath string

	GeminiAPIKey  string
	GeminiModel   string
	GeminiBaseURL string
	OpenAIAPIKey  string
	OpenAIModel   string
	OpenAIBaseURL string
	OpenAIOrg     string

	MailUser     string
	MailPassword string
	SMTPHost     string
	SMTPPort     int
	MailFromName string

	PayPalClientID     string
	PayPalClientSecret string
	PayPalMode         string
	PayPalBaseURL      string

	AdminPassword     string
	AdminPasswordHash string
	SessionSecret     string

	ExternalCallTimeout time.Duration
	HTTPReadTimeout     time.Duration
	HTTPWriteTimeout    time.Duration
	HTTPIdleTimeout     time.Duration
	RateLimitPerMin     int
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	port := getEnv("PORT", "8080")
	mailUser, mailPassword := MailCredentials(os.Getenv)
	cfg := &Config{
		AppEnv:             getEnv("APP_ENV", "development"),
		Port:               port,
		PublicBaseURL:      strings.TrimRight(getEnv("PUBLIC_BASE_URL", "http://localhost:"+port), "/"),
		CORSAllowedOrigins: splitList(os.Getenv("CORS_ALLOWED_ORIGINS")),
		TrustedProxies:     splitList(os.Getenv("TRUSTED_PROXIES")),

		RecordStore: strings.ToLower(getEnv("RECORD_STORE", StoreFile)),
		DataPath:    getEnv("DATA_PATH", "./data/donations.json"),
		SQLitePath:  getEnv("SQLITE_PATH", "./data/donations.db"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		ContentDir:  getEnv("CONTENT_DIR", "./content"),
		OutboxDir:   getEnv("OUTBOX_DIR", "./data/outbox"),
		GeoIPDBPath: os.Getenv("GEOIP_DB_PATH"),

		GeminiAPIKey:  normalizeGeminiKey(os.Getenv("GEMINI_API_KEY")),
		GeminiModel:   getEnv("GEMINI_MODEL", "gemini-1.5-flash"),
		GeminiBaseURL: getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta"),
		OpenAIAPIKey:  strings.TrimSpace(os.Getenv("OPENAI_API_KEY")),
		OpenAIModel:   getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		OpenAIBaseURL: getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		OpenAIOrg:     os.Getenv("OPENAI_ORG"),

		MailUser:     mailUser,
		MailPassword: mailPassword,
		SMTPHost:     getEnv("SMTP_HOST", "smtp.gmail.com"),
		SMTPPort:     getEnvInt("SMTP_PORT", 587),
		MailFromName: getEnv("MAIL_FROM_NAME", "Social Good Fund"),

		PayPalClientID:     strings.TrimSpace(os.Getenv("PAYPAL_CLIENT_ID")),
		PayPalClientSecret: strings.TrimSpace(os.Getenv("PAYPAL_CLIENT_SECRET")),
		PayPalMode:         strings.ToLower(getEnv("PAYPAL_MODE", "sandbox")),
		PayPalBaseURL:      os.Getenv("PAYPAL_BASE_URL"),

		AdminPassword:     os.Getenv("ADMIN_PASSWORD"),
		AdminPasswordHash: os.Getenv("ADMIN_PASSWORD_HASH"),
		SessionSecret:     os.Getenv("SESSION_SECRET"),

		ExternalCallTimeout: time.Second * time.Duration(getEnvInt("EXTERNAL_CALL_TIMEOUT_SECONDS", 15)),
		HTTPReadTimeout:     time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout:    time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 60)),
		HTTPIdleTimeout:     time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		RateLimitPerMin:     getEnvInt("RATE_LIMIT_PER_MINUTE", 30),
	}

	switch cfg.RecordStore {
	case StoreFile, StoreSQLite:
	case StorePostgres:
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required when RECORD_STORE=postgres")
		}
	default:
		return nil, fmt.Errorf("unsupported RECORD_STORE %q", cfg.RecordStore)
	}

	if cfg.ExternalCallTimeout <= 0 {
		cfg.ExternalCallTimeout = 15 * time.Second
	}

	return cfg, nil
}

// IsProduction reports whether the service runs with APP_ENV=production.
func (c *Config) IsProduction() bool {
	return c != nil && c.AppEnv == "production"
}

// MailCredentials resolves the SMTP credential pair. EMAIL_USER/EMAIL_PASSWORD
// and GMAIL_USER/GMAIL_APP_PASSWORD are equivalent; a pair only counts when
// both halves are set, and the EMAIL_* pair wins when both are complete.
func MailCredentials(lookup func(string) string) (string, string) {
	pairs := [][2]string{
		{"EMAIL_USER", "EMAIL_PASSWORD"},
		{"GMAIL_USER", "GMAIL_APP_PASSWORD"},
	}
	for _, p := range pairs {
		user := strings.TrimSpace(lookup(p[0]))
		pass := strings.TrimSpace(lookup(p[1]))
		if user != "" && pass != "" {
			return user, pass
		}
	}
	return "", ""
}

func normalizeGeminiKey(key string) string {
	key = strings.TrimSpace(key)
	if key == geminiPlaceholderKey {
		return ""
	}
	return key
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if v := strings.TrimSpace(part); v != "" {
			out = append(out, v)
		}
	}
	return out
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
