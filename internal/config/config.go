package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration.
// Values are loaded from environment variables with sensible defaults.
type Config struct {
	// Server
	Port     int
	LogLevel string

	// Upstream API hosts (overridable for tests / proxies)
	StatisticsAPIURL string
	AnalyticsAPIURL  string
	ContentAPIURL    string
	AdvertAPIURL     string

	// HTTP client
	HTTPTimeout time.Duration

	// Resilience
	MaxRetries  int
	BaseBackoff time.Duration

	// Async report tasks
	PollInterval time.Duration
	MaxPolls     int

	// Pagination
	MaxLedgerPages  int
	MaxCatalogPages int
	LedgerPageLimit int

	// Advert SKU attribution
	SkuBatchSize  int
	SkuBatchPause time.Duration

	// Load shedding
	MaxConcurrentReports int

	// Cache
	CacheTTL time.Duration

	// Observability
	OTLPEndpoint string

	// Supabase (credential + cost-price persistence)
	SupabaseURL        string
	SupabaseAnonKey    string
	SupabaseServiceKey string
}

// Load reads configuration from environment variables with defaults.
func Load() *Config {
	return &Config{
		Port:     getEnvInt("PORT", 8080),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		StatisticsAPIURL: getEnv("WB_STATISTICS_API_URL", "https://statistics-api.wildberries.ru"),
		AnalyticsAPIURL:  getEnv("WB_ANALYTICS_API_URL", "https://seller-analytics-api.wildberries.ru"),
		ContentAPIURL:    getEnv("WB_CONTENT_API_URL", "https://content-api.wildberries.ru"),
		AdvertAPIURL:     getEnv("WB_ADVERT_API_URL", "https://advert-api.wildberries.ru"),

		HTTPTimeout: getEnvDuration("HTTP_TIMEOUT", 30*time.Second),

		MaxRetries:  getEnvInt("MAX_RETRIES", 5),
		BaseBackoff: getEnvDuration("BASE_BACKOFF", 2*time.Second),

		PollInterval: getEnvDuration("TASK_POLL_INTERVAL", 5*time.Second),
		MaxPolls:     getEnvInt("TASK_MAX_POLLS", 36),

		MaxLedgerPages:  getEnvInt("MAX_LEDGER_PAGES", 50),
		MaxCatalogPages: getEnvInt("MAX_CATALOG_PAGES", 10),
		LedgerPageLimit: getEnvInt("LEDGER_PAGE_LIMIT", 100000),

		SkuBatchSize:  getEnvInt("SKU_BATCH_SIZE", 50),
		SkuBatchPause: getEnvDuration("SKU_BATCH_PAUSE", 250*time.Millisecond),

		MaxConcurrentReports: getEnvInt("MAX_CONCURRENT_REPORTS", 4),

		CacheTTL: getEnvDuration("CACHE_TTL", 5*time.Minute),

		OTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),

		SupabaseURL:        getEnv("SUPABASE_URL", ""),
		SupabaseAnonKey:    getEnv("SUPABASE_ANON_KEY", ""),
		SupabaseServiceKey: getEnv("SUPABASE_SERVICE_ROLE_KEY", ""),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
