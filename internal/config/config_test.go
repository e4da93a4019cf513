package config

import (
	"bytes"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{
		"LLM_PROVIDER", "LLM_TEMPERATURE", "LLM_MAX_TOKENS", "TODOIST_TIMEOUT",
		"MEMORY_BACKEND", "SCHEMAS_DIR", "DATA_DIR", "LOG_LEVEL", "LLM_TIMEOUT",
		"OPENAI_MODEL", "NATS_REQUEST_SUBJECT",
	} {
		t.Setenv(key, "")
	}

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, ProviderOpenAI, cfg.LLMProvider)
	assert.Equal(t, "gpt-4o", cfg.LLMModel())
	assert.InDelta(t, 0.7, cfg.LLMTemperature, 1e-9)
	assert.Equal(t, 1000, cfg.LLMMaxTokens)
	assert.Equal(t, time.Duration(0), cfg.LLMTimeout)
	assert.Equal(t, 10*time.Second, cfg.TodoistTimeout)
	assert.Equal(t, BackendFile, cfg.MemoryBackend)
	assert.Equal(t, "schemas", cfg.SchemasDir)
	assert.Equal(t, "data", cfg.DataDir)
	assert.Equal(t, "assistant.ask", cfg.NatsRequestSubject)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("LLM_PROVIDER", "anthropic")
	t.Setenv("ANTHROPIC_API_KEY", "sk-ant")
	t.Setenv("ANTHROPIC_MODEL", "claude-test")
	t.Setenv("LLM_TEMPERATURE", "0.2")
	t.Setenv("LLM_MAX_TOKENS", "256")
	t.Setenv("TODOIST_TIMEOUT", "3s")
	t.Setenv("MEMORY_BACKEND", "redis")
	t.Setenv("REDIS_TTL", "1h")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "sk-ant", cfg.LLMAPIKey())
	assert.Equal(t, "claude-test", cfg.LLMModel())
	assert.InDelta(t, 0.2, cfg.LLMTemperature, 1e-9)
	assert.Equal(t, 256, cfg.LLMMaxTokens)
	assert.Equal(t, 3*time.Second, cfg.TodoistTimeout)
	assert.Equal(t, BackendRedis, cfg.MemoryBackend)
	assert.Equal(t, time.Hour, cfg.RedisTTL)
}

func TestLoad_MalformedNumbersFallBackToDefaults(t *testing.T) {
	t.Setenv("LLM_MAX_TOKENS", "lots")
	t.Setenv("TODOIST_TIMEOUT", "soon")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, 1000, cfg.LLMMaxTokens)
	assert.Equal(t, 10*time.Second, cfg.TodoistTimeout)
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"unknown provider", "LLM_PROVIDER", "gemini"},
		{"unknown backend", "MEMORY_BACKEND", "sqlite"},
		{"negative max tokens", "LLM_MAX_TOKENS", "-5"},
		{"temperature too high", "LLM_TEMPERATURE", "3.5"},
		{"bad log level", "LOG_LEVEL", "loud"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"", slog.LevelInfo},
		{"INFO", slog.LevelInfo},
		{" trace ", LevelTrace},
		{"debug", slog.LevelDebug},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
	}
	for _, tt := range tests {
		got, err := ParseLogLevel(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := ParseLogLevel("verbose")
	assert.Error(t, err)
}

func TestNewLogger_RendersTrace(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, LevelTrace, "text")

	logger.Log(t.Context(), LevelTrace, "wire payload")

	assert.Contains(t, buf.String(), "level=TRACE")
	assert.Contains(t, buf.String(), "wire payload")
}

func TestNewLogger_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, slog.LevelInfo, "json")

	logger.Info("hello", "user_id", "u1")

	assert.Contains(t, buf.String(), `"msg":"hello"`)
	assert.Contains(t, buf.String(), `"user_id":"u1"`)
}
