// Package config handles application configuration from environment variables
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// Server settings
	Port     string
	Env      string // "development", "staging", "production"
	LogLevel string

	// Database
	DatabaseURL string // PostgreSQL connection string (optional, uses in-memory if not set)

	// AI providers (risk assessment / authenticity analysis)
	DeepSeekAPIKey  string // Primary, cost-optimized
	GroqAPIKey      string // Fast fallback
	AnthropicAPIKey string // Quality fallback
	OpenAIAPIKey    string // Compatibility fallback
	GeminiAPIKey    string // Google fallback
	AITimeout       time.Duration

	// Approval workflow
	ApprovalExpiry time.Duration // 0 = pending approvals never expire

	// Proxies
	UseProxies    bool
	ProxyProvider string
	ProxyURLs     []string // outbound proxy endpoints, rotated per call

	// Observability
	OTLPEndpoint string // OTLP gRPC endpoint; empty disables tracing
	RateLimitRPM int

	// Security
	AdminSecret string // Admin API secret for approval endpoints
}

// Defaults
const (
	DefaultPort      = "8080"
	DefaultEnv       = "development"
	DefaultLogLevel  = "info"
	DefaultRateLimit = 60
	DefaultAITimeout = 30 * time.Second
)

// Load reads configuration from environment variables.
// It loads .env file if present (for local development).
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not present)
	_ = godotenv.Load()

	cfg := &Config{
		Port:            getEnv("PORT", DefaultPort),
		Env:             getEnv("ENV", DefaultEnv),
		LogLevel:        getEnv("LOG_LEVEL", DefaultLogLevel),
		DatabaseURL:     os.Getenv("DATABASE_URL"), // Optional, uses in-memory if not set
		DeepSeekAPIKey:  os.Getenv("DEEPSEEK_API_KEY"),
		GroqAPIKey:      os.Getenv("GROQ_API_KEY"),
		AnthropicAPIKey: os.Getenv("ANTHROPIC_API_KEY"),
		OpenAIAPIKey:    os.Getenv("OPENAI_API_KEY"),
		GeminiAPIKey:    os.Getenv("GEMINI_API_KEY"),
		AITimeout:       getEnvDuration("AI_TIMEOUT", DefaultAITimeout),
		ApprovalExpiry:  getEnvDuration("APPROVAL_EXPIRY", 0),
		UseProxies:      getEnvBool("USE_PROXIES", false),
		ProxyProvider:   getEnv("PROXY_PROVIDER", "iproyal"),
		ProxyURLs:       getEnvList("PROXY_URLS"),
		OTLPEndpoint:    os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		RateLimitRPM:    int(getEnvInt64("RATE_LIMIT_RPM", DefaultRateLimit)),
		AdminSecret:     os.Getenv("ADMIN_SECRET"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that the configuration is coherent.
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT must not be empty")
	}
	if c.ApprovalExpiry < 0 {
		return fmt.Errorf("APPROVAL_EXPIRY must not be negative")
	}
	if c.IsProduction() && !c.HasAIProvider() {
		return fmt.Errorf("at least one AI provider API key is required in production")
	}
	return nil
}

// HasAIProvider reports whether any AI provider is configured.
func (c *Config) HasAIProvider() bool {
	return c.DeepSeekAPIKey != "" || c.GroqAPIKey != "" || c.AnthropicAPIKey != "" ||
		c.OpenAIAPIKey != "" || c.GeminiAPIKey != ""
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.ParseInt(value, 10, 64); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvList(key string) []string {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
