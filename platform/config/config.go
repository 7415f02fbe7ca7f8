// Package config provides application configuration loading.
// This is part of the platform layer and contains no business logic.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// =============================================================================
// Module-Specific Config Interfaces (Principle of Least Privilege)
// =============================================================================

// DatabaseConfig provides database connection settings.
type DatabaseConfig interface {
	GetDatabaseURL() string
}

// HTTPConfig provides settings for the HTTP server.
type HTTPConfig interface {
	GetHTTPAddr() string
	GetCORSAllowAll() bool
	GetCORSOrigins() []string
}

// IntakeConfig provides settings for the lead ingestion webhook.
type IntakeConfig interface {
	GetLeadsWebhookSecret() string
	GetOutboundDelayMin() time.Duration
	GetOutboundDelayMax() time.Duration
}

// CallWebhookConfig provides settings for the voice provider webhook.
type CallWebhookConfig interface {
	GetRetellWebhookSecret() string
}

// SummarizerConfig provides settings for the transcript summarizer.
type SummarizerConfig interface {
	GetSummarizerProvider() string
	GetGeminiAPIKey() string
	GetGeminiModel() string
	GetOpenAIAPIKey() string
	GetOpenAIModel() string
	GetSummarizerTimeout() time.Duration
}

// SchedulerConfig provides settings for the asynq-backed outbound scheduler.
type SchedulerConfig interface {
	GetRedisURL() string
	GetRedisTLSInsecure() bool
	GetAsynqQueueName() string
	GetAsynqConcurrency() int
	GetOutboundSweepInterval() time.Duration
	GetOutboundScanBatchSize() int
	GetOutboundMaxAttempts() int
}

// VoiceConfig provides settings for placing outbound calls.
type VoiceConfig interface {
	GetRetellAPIKey() string
	GetRetellBaseURL() string
	GetRetellAgentID() string
	GetRetellFromNumber() string
}

// MinIOConfig provides settings for MinIO S3-compatible storage.
type MinIOConfig interface {
	GetMinIOEndpoint() string
	GetMinIOAccessKey() string
	GetMinIOSecretKey() string
	GetMinIOUseSSL() bool
	GetMinioBucketCallTranscripts() string
	IsMinIOEnabled() bool
}

// =============================================================================
// Main Config Struct
// =============================================================================

// Summarizer providers.
const (
	SummarizerProviderGemini = "gemini"
	SummarizerProviderOpenAI = "openai"
	SummarizerProviderNone   = "none"
)

// Config holds all application configuration values.
type Config struct {
	Env                        string
	HTTPAddr                   string
	DatabaseURL                string
	CORSAllowAll               bool
	CORSOrigins                []string
	LeadsWebhookSecret         string
	OutboundDelayMin           time.Duration
	OutboundDelayMax           time.Duration
	RetellWebhookSecret        string
	RetellAPIKey               string
	RetellBaseURL              string
	RetellAgentID              string
	RetellFromNumber           string
	SummarizerProvider         string
	GeminiAPIKey               string
	GeminiModel                string
	OpenAIAPIKey               string
	OpenAIModel                string
	SummarizerTimeout          time.Duration
	RedisURL                   string
	RedisTLSInsecure           bool
	AsynqQueueName             string
	AsynqConcurrency           int
	OutboundSweepInterval      time.Duration
	OutboundScanBatchSize      int
	OutboundMaxAttempts        int
	MinIOEndpoint              string
	MinIOAccessKey             string
	MinIOSecretKey             string
	MinIOUseSSL                bool
	MinioBucketCallTranscripts string
}

// =============================================================================
// Interface Implementations
// =============================================================================

// DatabaseConfig implementation
func (c *Config) GetDatabaseURL() string { return c.DatabaseURL }

// HTTPConfig implementation
func (c *Config) GetHTTPAddr() string      { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool    { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string { return c.CORSOrigins }

// IntakeConfig implementation
func (c *Config) GetLeadsWebhookSecret() string      { return c.LeadsWebhookSecret }
func (c *Config) GetOutboundDelayMin() time.Duration { return c.OutboundDelayMin }
func (c *Config) GetOutboundDelayMax() time.Duration { return c.OutboundDelayMax }

// CallWebhookConfig implementation
func (c *Config) GetRetellWebhookSecret() string { return c.RetellWebhookSecret }

// SummarizerConfig implementation
func (c *Config) GetSummarizerProvider() string       { return c.SummarizerProvider }
func (c *Config) GetGeminiAPIKey() string             { return c.GeminiAPIKey }
func (c *Config) GetGeminiModel() string              { return c.GeminiModel }
func (c *Config) GetOpenAIAPIKey() string             { return c.OpenAIAPIKey }
func (c *Config) GetOpenAIModel() string              { return c.OpenAIModel }
func (c *Config) GetSummarizerTimeout() time.Duration { return c.SummarizerTimeout }

// SchedulerConfig implementation
func (c *Config) GetRedisURL() string                     { return c.RedisURL }
func (c *Config) GetRedisTLSInsecure() bool               { return c.RedisTLSInsecure }
func (c *Config) GetAsynqQueueName() string               { return c.AsynqQueueName }
func (c *Config) GetAsynqConcurrency() int                { return c.AsynqConcurrency }
func (c *Config) GetOutboundSweepInterval() time.Duration { return c.OutboundSweepInterval }
func (c *Config) GetOutboundScanBatchSize() int           { return c.OutboundScanBatchSize }
func (c *Config) GetOutboundMaxAttempts() int             { return c.OutboundMaxAttempts }

// VoiceConfig implementation
func (c *Config) GetRetellAPIKey() string     { return c.RetellAPIKey }
func (c *Config) GetRetellBaseURL() string    { return c.RetellBaseURL }
func (c *Config) GetRetellAgentID() string    { return c.RetellAgentID }
func (c *Config) GetRetellFromNumber() string { return c.RetellFromNumber }

// MinIOConfig implementation
func (c *Config) GetMinIOEndpoint() string  { return c.MinIOEndpoint }
func (c *Config) GetMinIOAccessKey() string { return c.MinIOAccessKey }
func (c *Config) GetMinIOSecretKey() string { return c.MinIOSecretKey }
func (c *Config) GetMinIOUseSSL() bool      { return c.MinIOUseSSL }
func (c *Config) GetMinioBucketCallTranscripts() string {
	return c.MinioBucketCallTranscripts
}
func (c *Config) IsMinIOEnabled() bool { return c.MinIOEndpoint != "" }

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	corsOrigins := splitCSV(getEnv("CORS_ORIGINS", "http://localhost:4200"))
	corsAllowAll := strings.EqualFold(getEnv("CORS_ALLOW_ALL", "false"), "true")
	if containsWildcard(corsOrigins) {
		corsAllowAll = true
	}

	cfg := &Config{
		Env:                        getEnv("APP_ENV", "development"),
		HTTPAddr:                   getEnv("HTTP_ADDR", ":8080"),
		DatabaseURL:                getEnv("DATABASE_URL", ""),
		CORSAllowAll:               corsAllowAll,
		CORSOrigins:                corsOrigins,
		LeadsWebhookSecret:         getEnv("LEADS_WEBHOOK_SECRET", ""),
		OutboundDelayMin:           mustDuration(getEnv("OUTBOUND_DELAY_MIN", "2m")),
		OutboundDelayMax:           mustDuration(getEnv("OUTBOUND_DELAY_MAX", "10m")),
		RetellWebhookSecret:        getEnv("RETELL_WEBHOOK_SECRET", ""),
		RetellAPIKey:               getEnv("RETELL_API_KEY", ""),
		RetellBaseURL:              getEnv("RETELL_BASE_URL", "https://api.retellai.com"),
		RetellAgentID:              getEnv("RETELL_AGENT_ID", ""),
		RetellFromNumber:           getEnv("RETELL_FROM_NUMBER", ""),
		SummarizerProvider:         strings.ToLower(getEnv("SUMMARIZER_PROVIDER", SummarizerProviderGemini)),
		GeminiAPIKey:               getEnv("GEMINI_API_KEY", ""),
		GeminiModel:                getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
		OpenAIAPIKey:               getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:                getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		SummarizerTimeout:          mustDuration(getEnv("SUMMARIZER_TIMEOUT", "5s")),
		RedisURL:                   getEnv("REDIS_URL", ""),
		RedisTLSInsecure:           strings.EqualFold(getEnv("REDIS_TLS_INSECURE", "false"), "true"),
		AsynqQueueName:             getEnv("ASYNQ_QUEUE", "outbound"),
		AsynqConcurrency:           mustInt(getEnv("ASYNQ_CONCURRENCY", "10")),
		OutboundSweepInterval:      mustDuration(getEnv("OUTBOUND_SWEEP_INTERVAL", "1m")),
		OutboundScanBatchSize:      mustInt(getEnv("OUTBOUND_SCAN_BATCH_SIZE", "25")),
		OutboundMaxAttempts:        mustInt(getEnv("OUTBOUND_MAX_ATTEMPTS", "3")),
		MinIOEndpoint:              getEnv("MINIO_ENDPOINT", ""),
		MinIOAccessKey:             getEnv("MINIO_ACCESS_KEY", ""),
		MinIOSecretKey:             getEnv("MINIO_SECRET_KEY", ""),
		MinIOUseSSL:                strings.EqualFold(getEnv("MINIO_USE_SSL", "false"), "true"),
		MinioBucketCallTranscripts: getEnv("MINIO_BUCKET_CALL_TRANSCRIPTS", "call-transcripts"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.OutboundDelayMin <= 0 || c.OutboundDelayMax < c.OutboundDelayMin {
		return fmt.Errorf("OUTBOUND_DELAY_MIN and OUTBOUND_DELAY_MAX must form a positive window")
	}
	switch c.SummarizerProvider {
	case SummarizerProviderGemini:
		if c.GeminiAPIKey == "" {
			return fmt.Errorf("GEMINI_API_KEY is required when SUMMARIZER_PROVIDER is gemini")
		}
	case SummarizerProviderOpenAI:
		if c.OpenAIAPIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY is required when SUMMARIZER_PROVIDER is openai")
		}
	case SummarizerProviderNone:
	default:
		return fmt.Errorf("unknown SUMMARIZER_PROVIDER %q", c.SummarizerProvider)
	}
	if c.SummarizerTimeout <= 0 {
		return fmt.Errorf("SUMMARIZER_TIMEOUT must be positive")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func mustDuration(value string) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0
	}
	return d
}

func mustInt(value string) int {
	result, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0
	}
	return result
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	results := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			results = append(results, trimmed)
		}
	}
	return results
}

func containsWildcard(values []string) bool {
	for _, value := range values {
		if value == "*" {
			return true
		}
	}
	return false
}
