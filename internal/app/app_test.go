package app

import (
	"path/filepath"
	"sync"
	"testing"

	"github.com/avvvet/tietaja/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	return &config.Config{
		LLMProvider:    config.ProviderOpenAI,
		LLMTemperature: 0.7,
		LLMMaxTokens:   1000,
		OpenAIModel:    "gpt-4o",
		AnthropicModel: "claude-3-5-sonnet-20241022",
		SchemasDir:     filepath.Join(dir, "schemas"),
		DataDir:        filepath.Join(dir, "data"),
		MemoryBackend:  config.BackendFile,
	}
}

func TestNew_FileBackend(t *testing.T) {
	cfg := testConfig(t)

	a, err := New(cfg, nil)

	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	assert.DirExists(t, cfg.DataDir)
	assert.Len(t, a.Schemas.List(), 6)
	assert.False(t, a.Todoist.HasToken())
}

func TestChatHandler_RequiresKey(t *testing.T) {
	a, err := New(testConfig(t), nil)
	require.NoError(t, err)

	_, err = a.ChatHandler()

	assert.ErrorIs(t, err, ErrMissingAPIKey)
}

func TestChatHandler_BuiltOnce(t *testing.T) {
	cfg := testConfig(t)
	cfg.OpenAIAPIKey = "sk-test"
	a, err := New(cfg, nil)
	require.NoError(t, err)

	first, err := a.ChatHandler()
	require.NoError(t, err)
	second, err := a.ChatHandler()
	require.NoError(t, err)

	assert.Same(t, first, second)
}

func TestChatHandler_ConcurrentFirstUse(t *testing.T) {
	cfg := testConfig(t)
	cfg.OpenAIAPIKey = "sk-test"
	a, err := New(cfg, nil)
	require.NoError(t, err)

	const callers = 8
	var wg sync.WaitGroup
	got := make([]any, callers)
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			h, err := a.ChatHandler()
			assert.NoError(t, err)
			got[i] = h
		}()
	}
	wg.Wait()

	for i := 1; i < callers; i++ {
		assert.Same(t, got[0], got[i])
	}
}

func TestNewProvider(t *testing.T) {
	cfg := testConfig(t)
	cfg.LLMProvider = config.ProviderAnthropic
	cfg.AnthropicAPIKey = "sk-ant-test"

	p, err := NewProvider(cfg, nil)

	require.NoError(t, err)
	assert.NotNil(t, p)

	cfg.LLMProvider = "gemini"
	_, err = NewProvider(cfg, nil)
	assert.Error(t, err)
}

func TestNewMemoryStore_UnknownBackend(t *testing.T) {
	cfg := testConfig(t)
	cfg.MemoryBackend = "sqlite"

	_, err := NewMemoryStore(cfg, nil)

	assert.Error(t, err)
}
