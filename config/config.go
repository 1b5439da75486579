package config

import (
	"log/slog"
	"os"
	"strconv"
	"time"
)

const (
	STORE_SQLITE   = "sqlite"
	STORE_POSTGRES = "postgres"
	STORE_DYNAMODB = "dynamodb"
)

type Config struct {
	Env      string
	LogLevel string

	LexiconPath       string
	PositiveThreshold float64
	NegativeThreshold float64
	Workers           int
	StopwordFilter    bool

	StoreDriver string
	SQLitePath  string
	PostgresDSN string
	AWSRegion   string
	AWSEndpoint string

	HTTPAddr    string
	MetricsAddr string

	ApifyToken   string
	ApifyBaseURL string
	ApifyActorID string
	ApifyTimeout time.Duration

	ValkeyAddress  string
	ValkeyPassword string
	ValkeyTLS      bool

	OpensearchEndpoint    string
	OpensearchUsername    string
	OpensearchPassword    string
	AWSOpensearchEndpoint string
}

// Load reads the configuration from the environment. Call LoadEnv first when
// an env file should be applied.
func Load() Config {
	return Config{
		Env:      AppEnv(),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		LexiconPath:       getEnv("LEXICON_PATH", ""),
		PositiveThreshold: getEnvFloat("POSITIVE_THRESHOLD", 0.1),
		NegativeThreshold: getEnvFloat("NEGATIVE_THRESHOLD", -0.1),
		Workers:           getEnvInt("ANALYZER_WORKERS", 4),
		StopwordFilter:    getEnvBool("STOPWORD_FILTER", false),

		StoreDriver: getEnv("STORE_DRIVER", STORE_SQLITE),
		SQLitePath:  getEnv("SQLITE_PATH", "data/sentiment.db"),
		PostgresDSN: getEnv("POSTGRES_DSN", ""),
		AWSRegion:   getEnv("AWS_REGION", "us-west-2"),
		AWSEndpoint: getEnv("AWS_ENDPOINT", ""),

		HTTPAddr:    getEnv("HTTP_ADDR", ":8080"),
		MetricsAddr: getEnv("METRICS_ADDR", ":9102"),

		ApifyToken:   getEnv("APIFY_TOKEN", ""),
		ApifyBaseURL: getEnv("APIFY_BASE_URL", "https://api.apify.com"),
		ApifyActorID: getEnv("APIFY_ACTOR_ID", "clockworks/tiktok-comments-scraper"),
		ApifyTimeout: time.Duration(getEnvInt("APIFY_TIMEOUT_SECONDS", 300)) * time.Second,

		ValkeyAddress:  getEnv("VALKEY_INIT_ADDRESS", ""),
		ValkeyPassword: getEnv("VALKEY_PASSWORD", ""),
		ValkeyTLS:      getEnvBool("VALKEY_TLS", false),

		OpensearchEndpoint:    getEnv("OPENSEARCH_ENDPOINT", ""),
		OpensearchUsername:    getEnv("OPENSEARCH_USERNAME", "admin"),
		OpensearchPassword:    getEnv("OPENSEARCH_PASSWORD", ""),
		AWSOpensearchEndpoint: getEnv("AWS_OPENSEARCH_ENDPOINT", ""),
	}
}

func getEnv(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return defaultValue
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		slog.Warn("[Config] Invalid integer, using default",
			slog.String("key", key),
			slog.String("value", raw),
			slog.Int("default", defaultValue))
		return defaultValue
	}
	return v
}

func getEnvFloat(key string, defaultValue float64) float64 {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return defaultValue
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		slog.Warn("[Config] Invalid float, using default",
			slog.String("key", key),
			slog.String("value", raw),
			slog.Float64("default", defaultValue))
		return defaultValue
	}
	return v
}

func getEnvBool(key string, defaultValue bool) bool {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return defaultValue
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		slog.Warn("[Config] Invalid boolean, using default",
			slog.String("key", key),
			slog.String("value", raw))
		return defaultValue
	}
	return v
}
