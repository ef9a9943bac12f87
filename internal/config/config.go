// Package config provides application configuration loaded from environment variables.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Store backends.
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
	StoreSQLite   = "sqlite"
)

// Model providers. Not every provider serves both capabilities: anthropic only generates
// and mock only embeds.
const (
	ProviderOpenAI    = "openai"
	ProviderGoogle    = "google"
	ProviderAnthropic = "anthropic"
	ProviderCompat    = "compat"
	ProviderMock      = "mock"
)

var (
	embeddingProviders  = []string{ProviderOpenAI, ProviderGoogle, ProviderCompat, ProviderMock}
	generationProviders = []string{ProviderOpenAI, ProviderGoogle, ProviderAnthropic, ProviderCompat}
	storeBackends       = []string{StoreMemory, StorePostgres, StoreSQLite}
	dimensionPolicies   = []string{"prefix", "strict"}
	tracesSamplers      = []string{
		"always_on", "always_off", "traceidratio",
		"parentbased_always_on", "parentbased_always_off", "parentbased_traceidratio",
	}
)

// Config holds all application configuration.
type Config struct {
	Port            string
	LogLevel        string
	ShutdownTimeout time.Duration

	// Chunk store
	StoreBackend string
	DatabaseURL  string
	SQLitePath   string

	// Embedding gateway. Empty provider means ingestion and questions answer 503.
	EmbeddingProvider        string
	EmbeddingProviderAPIKey  string
	EmbeddingModel           string
	EmbeddingBaseURL         string
	EmbeddingRateLimit       float64
	EmbeddingDimensionPolicy string

	// EmbeddingDimensions asks providers that support it for shorter vectors; 0 keeps the model default.
	EmbeddingDimensions int

	// Answer generator. Empty provider means queries answer 503.
	GenerationProvider       string
	GenerationProviderAPIKey string
	GenerationModel          string
	GenerationBaseURL        string

	// ProviderTimeout bounds each embedding or generation call; 0 disables it.
	ProviderTimeout time.Duration

	ChunkMaxChars    int
	GreetingPhrases  []string
	GreetingMaxWords int

	// Query-embedding cache; size 0 disables it, TTL 0 never expires entries.
	QueryCacheSize int
	QueryCacheTTL  time.Duration

	MaxRequestBodyBytes int64
	CORSAllowedOrigins  []string

	// OtelMetricsExporter is "otlp", "prometheus" or empty (metrics off).
	OtelMetricsExporter string
	// OtelTracesExporter is "otlp", "stdout" or empty (tracing off).
	OtelTracesExporter string
	// OtelTracesSampler is an OTEL_TRACES_SAMPLER name; OtelTracesSamplerRatio is its ratio argument.
	OtelTracesSampler      string
	OtelTracesSamplerRatio float64
}

// getEnv retrieves an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}

	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value.
func getEnvAsInt(key string, defaultValue int) int {
	value, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return defaultValue
	}

	return value
}

// getEnvAsFloat retrieves an environment variable as a float or returns a default value.
func getEnvAsFloat(key string, defaultValue float64) float64 {
	value, err := strconv.ParseFloat(os.Getenv(key), 64)
	if err != nil {
		return defaultValue
	}

	return value
}

// getEnvAsDuration parses a Go duration ("30s", "2m"); a bare integer is taken as seconds.
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	if d, err := time.ParseDuration(valueStr); err == nil {
		return d
	}

	if secs, err := strconv.Atoi(valueStr); err == nil {
		return time.Duration(secs) * time.Second
	}

	return defaultValue
}

// getEnvAsList splits a comma-separated variable, trimming blanks. Unset or blank returns defaultValue.
func getEnvAsList(key string, defaultValue []string) []string {
	var out []string

	for _, item := range strings.Split(os.Getenv(key), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}

	if len(out) == 0 {
		return defaultValue
	}

	return out
}

// Load reads configuration from environment variables and returns a Config struct.
// It automatically loads .env file if it exists.
// Returns default values for any missing environment variables and an error for impossible ones.
func Load() (*Config, error) {
	// Load .env file if it exists. Skip logging when absent (e.g. env from secrets/parameter store).
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("Failed to load .env file", "error", err)
	}

	cfg := &Config{
		Port:            getEnv("PORT", "8080"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		ShutdownTimeout: getEnvAsDuration("SHUTDOWN_TIMEOUT", 30*time.Second),

		StoreBackend: strings.ToLower(getEnv("STORE_BACKEND", StoreMemory)),
		DatabaseURL:  os.Getenv("DATABASE_URL"),
		SQLitePath:   getEnv("SQLITE_PATH", "askhub.db"),

		EmbeddingProvider:        strings.ToLower(os.Getenv("EMBEDDING_PROVIDER")),
		EmbeddingProviderAPIKey:  os.Getenv("EMBEDDING_PROVIDER_API_KEY"),
		EmbeddingModel:           os.Getenv("EMBEDDING_MODEL"),
		EmbeddingBaseURL:         os.Getenv("EMBEDDING_BASE_URL"),
		EmbeddingRateLimit:       getEnvAsFloat("EMBEDDING_RATE_LIMIT", 0),
		EmbeddingDimensionPolicy: strings.ToLower(getEnv("EMBEDDING_DIMENSION_POLICY", "prefix")),
		EmbeddingDimensions:      getEnvAsInt("EMBEDDING_DIMENSIONS", 0),

		GenerationProvider:       strings.ToLower(os.Getenv("GENERATION_PROVIDER")),
		GenerationProviderAPIKey: os.Getenv("GENERATION_PROVIDER_API_KEY"),
		GenerationModel:          os.Getenv("GENERATION_MODEL"),
		GenerationBaseURL:        os.Getenv("GENERATION_BASE_URL"),

		ProviderTimeout: getEnvAsDuration("PROVIDER_TIMEOUT", 0),

		ChunkMaxChars:    getEnvAsInt("CHUNK_MAX_CHARS", 800),
		GreetingPhrases:  getEnvAsList("GREETING_PHRASES", nil),
		GreetingMaxWords: getEnvAsInt("GREETING_MAX_WORDS", 5),

		QueryCacheSize: getEnvAsInt("QUERY_CACHE_SIZE", 1000),
		QueryCacheTTL:  getEnvAsDuration("QUERY_CACHE_TTL", 0),

		MaxRequestBodyBytes: int64(getEnvAsInt("MAX_REQUEST_BODY_BYTES", 10<<20)),
		CORSAllowedOrigins:  getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"*"}),

		OtelMetricsExporter: strings.ToLower(os.Getenv("OTEL_METRICS_EXPORTER")),
		OtelTracesExporter:  strings.ToLower(os.Getenv("OTEL_TRACES_EXPORTER")),

		OtelTracesSampler:      strings.ToLower(getEnv("OTEL_TRACES_SAMPLER", "parentbased_always_on")),
		OtelTracesSamplerRatio: getEnvAsFloat("OTEL_TRACES_SAMPLER_ARG", 1),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate rejects values the server cannot start with.
func (c *Config) Validate() error {
	if !slices.Contains(storeBackends, c.StoreBackend) {
		return fmt.Errorf("STORE_BACKEND must be one of %v, got %q", storeBackends, c.StoreBackend)
	}

	if c.StoreBackend == StorePostgres && c.DatabaseURL == "" {
		return errors.New("DATABASE_URL is required when STORE_BACKEND=postgres")
	}

	if c.EmbeddingProvider != "" && !slices.Contains(embeddingProviders, c.EmbeddingProvider) {
		return fmt.Errorf("EMBEDDING_PROVIDER must be one of %v, got %q", embeddingProviders, c.EmbeddingProvider)
	}

	if c.GenerationProvider != "" && !slices.Contains(generationProviders, c.GenerationProvider) {
		return fmt.Errorf("GENERATION_PROVIDER must be one of %v, got %q", generationProviders, c.GenerationProvider)
	}

	if !slices.Contains(dimensionPolicies, c.EmbeddingDimensionPolicy) {
		return fmt.Errorf("EMBEDDING_DIMENSION_POLICY must be one of %v, got %q", dimensionPolicies, c.EmbeddingDimensionPolicy)
	}

	if c.ChunkMaxChars <= 0 {
		return errors.New("CHUNK_MAX_CHARS must be a positive integer")
	}

	if c.GreetingMaxWords <= 0 {
		return errors.New("GREETING_MAX_WORDS must be a positive integer")
	}

	if c.EmbeddingRateLimit < 0 {
		return errors.New("EMBEDDING_RATE_LIMIT must not be negative")
	}

	if c.EmbeddingDimensions < 0 {
		return errors.New("EMBEDDING_DIMENSIONS must not be negative")
	}

	if c.ProviderTimeout < 0 {
		return errors.New("PROVIDER_TIMEOUT must not be negative")
	}

	if c.QueryCacheSize < 0 {
		return errors.New("QUERY_CACHE_SIZE must not be negative")
	}

	if c.MaxRequestBodyBytes <= 0 {
		return errors.New("MAX_REQUEST_BODY_BYTES must be a positive integer")
	}

	if c.OtelTracesSampler != "" && !slices.Contains(tracesSamplers, c.OtelTracesSampler) {
		return fmt.Errorf("OTEL_TRACES_SAMPLER must be one of %v, got %q", tracesSamplers, c.OtelTracesSampler)
	}

	if c.OtelTracesSamplerRatio < 0 || c.OtelTracesSamplerRatio > 1 {
		return errors.New("OTEL_TRACES_SAMPLER_ARG must be between 0 and 1")
	}

	return nil
}

// EmbeddingConfigured reports whether an embedding provider is selected.
func (c *Config) EmbeddingConfigured() bool {
	return c.EmbeddingProvider != ""
}

// GenerationConfigured reports whether a generation provider is selected.
func (c *Config) GenerationConfigured() bool {
	return c.GenerationProvider != ""
}
