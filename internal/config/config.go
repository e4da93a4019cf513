package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	// Service configuration
	ServiceName string
	LogLevel    string
	LogFormat   string

	// LLM configuration
	LLMProvider    string
	LLMTemperature float64
	LLMMaxTokens   int
	LLMTimeout     time.Duration

	OpenAIAPIKey  string
	OpenAIModel   string
	OpenAIBaseURL string

	AnthropicAPIKey string
	AnthropicModel  string

	// Todoist configuration
	TodoistAPIToken string
	TodoistBaseURL  string
	TodoistTimeout  time.Duration

	// Storage configuration
	SchemasDir    string
	DataDir       string
	MemoryBackend string
	RedisURL      string
	RedisTTL      time.Duration

	// NATS configuration
	NatsURL            string
	NatsRequestSubject string
	NatsMemorySubject  string
	NatsTimeout        time.Duration
	RequestTimeout     time.Duration
}

const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"

	BackendFile  = "file"
	BackendRedis = "redis"
)

// Load reads the environment and validates the result.
func Load() (*Config, error) {
	cfg := FromEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FromEnv reads the environment without validating, so callers can apply
// overrides first.
func FromEnv() *Config {
	return &Config{
		// Service settings
		ServiceName: getEnv("SERVICE_NAME", "tietaja"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		LogFormat:   getEnv("LOG_FORMAT", "text"),

		// LLM settings
		LLMProvider:    getEnv("LLM_PROVIDER", ProviderOpenAI),
		LLMTemperature: getFloatEnv("LLM_TEMPERATURE", 0.7),
		LLMMaxTokens:   getIntEnv("LLM_MAX_TOKENS", 1000),
		LLMTimeout:     getDurationEnv("LLM_TIMEOUT", 0),

		OpenAIAPIKey:  getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:   getEnv("OPENAI_MODEL", "gpt-4o"),
		OpenAIBaseURL: getEnv("OPENAI_BASE_URL", ""),

		AnthropicAPIKey: getEnv("ANTHROPIC_API_KEY", ""),
		AnthropicModel:  getEnv("ANTHROPIC_MODEL", "claude-3-5-sonnet-20241022"),

		// Todoist settings
		TodoistAPIToken: getEnv("TODOIST_API_TOKEN", ""),
		TodoistBaseURL:  getEnv("TODOIST_BASE_URL", "https://api.todoist.com/rest/v2"),
		TodoistTimeout:  getDurationEnv("TODOIST_TIMEOUT", 10*time.Second),

		// Storage settings
		SchemasDir:    getEnv("SCHEMAS_DIR", "schemas"),
		DataDir:       getEnv("DATA_DIR", "data"),
		MemoryBackend: getEnv("MEMORY_BACKEND", BackendFile),
		RedisURL:      getEnv("REDIS_URL", "redis://localhost:6379/0"),
		RedisTTL:      getDurationEnv("REDIS_TTL", 0),

		// NATS settings
		NatsURL:            getEnv("NATS_URL", "nats://localhost:4222"),
		NatsRequestSubject: getEnv("NATS_REQUEST_SUBJECT", "assistant.ask"),
		NatsMemorySubject:  getEnv("NATS_MEMORY_SUBJECT", "assistant.memory"),
		NatsTimeout:        getDurationEnv("NATS_TIMEOUT", 30*time.Second),
		RequestTimeout:     getDurationEnv("REQUEST_TIMEOUT", 2*time.Minute),
	}
}

// Validate checks settings that would otherwise fail later at first use.
// A missing LLM key is not an error here; commands that need the model check it.
func (c *Config) Validate() error {
	switch c.LLMProvider {
	case ProviderOpenAI, ProviderAnthropic:
	default:
		return fmt.Errorf("unknown LLM_PROVIDER %q (valid: openai, anthropic)", c.LLMProvider)
	}

	switch c.MemoryBackend {
	case BackendFile, BackendRedis:
	default:
		return fmt.Errorf("unknown MEMORY_BACKEND %q (valid: file, redis)", c.MemoryBackend)
	}

	if c.LLMMaxTokens <= 0 {
		return fmt.Errorf("LLM_MAX_TOKENS must be positive, got %d", c.LLMMaxTokens)
	}
	if c.LLMTemperature < 0 || c.LLMTemperature > 2 {
		return fmt.Errorf("LLM_TEMPERATURE must be within [0, 2], got %v", c.LLMTemperature)
	}
	if _, err := ParseLogLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// LLMAPIKey returns the key for the selected provider.
func (c *Config) LLMAPIKey() string {
	if c.LLMProvider == ProviderAnthropic {
		return c.AnthropicAPIKey
	}
	return c.OpenAIAPIKey
}

// LLMModel returns the model name for the selected provider.
func (c *Config) LLMModel() string {
	if c.LLMProvider == ProviderAnthropic {
		return c.AnthropicModel
	}
	return c.OpenAIModel
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}
