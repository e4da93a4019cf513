// Package app wires the assistant's components from configuration.
package app

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/avvvet/tietaja/internal/config"
	"github.com/avvvet/tietaja/internal/executor"
	"github.com/avvvet/tietaja/internal/handlers"
	"github.com/avvvet/tietaja/internal/llm"
	"github.com/avvvet/tietaja/internal/memory"
	"github.com/avvvet/tietaja/internal/parser"
	"github.com/avvvet/tietaja/internal/schemas"
	"github.com/avvvet/tietaja/internal/todoist"
)

// ErrMissingAPIKey means the selected LLM provider has no key configured.
var ErrMissingAPIKey = errors.New("missing LLM API key")

// App holds the process-wide components. Everything is built once here and
// passed down explicitly.
type App struct {
	Config   *config.Config
	Logger   *slog.Logger
	Schemas  *schemas.Registry
	Parser   *parser.Parser
	Todoist  *todoist.Client
	Executor *executor.Executor
	Memory   *memory.Manager

	chatMu sync.Mutex
	chat   *handlers.ChatHandler
}

// New builds every component that does not need the LLM.
func New(cfg *config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}

	store, err := NewMemoryStore(cfg, logger)
	if err != nil {
		return nil, err
	}

	tasks := todoist.NewClient(cfg.TodoistAPIToken, cfg.TodoistBaseURL, cfg.TodoistTimeout, logger.With("component", "todoist"))

	return &App{
		Config:   cfg,
		Logger:   logger,
		Schemas:  schemas.NewRegistry(cfg.SchemasDir, logger.With("component", "schemas")),
		Parser:   parser.New(logger.With("component", "parser")),
		Todoist:  tasks,
		Executor: executor.New(tasks, logger.With("component", "executor")),
		Memory:   memory.NewManager(store, logger.With("component", "memory")),
	}, nil
}

// ChatHandler builds the orchestrator on first use, creating the LLM provider.
// A failed build is retried on the next call.
func (a *App) ChatHandler() (*handlers.ChatHandler, error) {
	a.chatMu.Lock()
	defer a.chatMu.Unlock()
	if a.chat != nil {
		return a.chat, nil
	}
	provider, err := NewProvider(a.Config, a.Logger.With("component", "llm"))
	if err != nil {
		return nil, err
	}
	a.chat = handlers.NewChatHandler(provider, a.Schemas, a.Parser, a.Executor, a.Memory, a.Logger.With("component", "chat"))
	return a.chat, nil
}

// NewProvider creates the completion provider selected by LLM_PROVIDER.
func NewProvider(cfg *config.Config, logger *slog.Logger) (llm.Provider, error) {
	if cfg.LLMAPIKey() == "" {
		return nil, fmt.Errorf("%w for provider %s", ErrMissingAPIKey, cfg.LLMProvider)
	}
	switch cfg.LLMProvider {
	case config.ProviderOpenAI:
		return llm.NewOpenAIProvider(cfg.OpenAIAPIKey, cfg.OpenAIModel, cfg.OpenAIBaseURL, cfg.LLMTimeout, cfg.LLMTemperature, cfg.LLMMaxTokens, logger)
	case config.ProviderAnthropic:
		return llm.NewAnthropicProvider(cfg.AnthropicAPIKey, cfg.AnthropicModel, cfg.LLMTimeout, cfg.LLMTemperature, cfg.LLMMaxTokens, logger)
	default:
		return nil, fmt.Errorf("unknown LLM provider %q", cfg.LLMProvider)
	}
}

// NewMemoryStore creates the store selected by MEMORY_BACKEND.
func NewMemoryStore(cfg *config.Config, logger *slog.Logger) (memory.Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	switch cfg.MemoryBackend {
	case config.BackendRedis:
		store, err := memory.NewRedisStore(cfg.RedisURL, cfg.RedisTTL)
		if err != nil {
			return nil, err
		}
		logger.Info("memory backend ready", "backend", "redis")
		return store, nil
	case config.BackendFile, "":
		store, err := memory.NewFileStore(cfg.DataDir, logger.With("component", "memory"))
		if err != nil {
			return nil, err
		}
		logger.Info("memory backend ready", "backend", "file", "dir", cfg.DataDir)
		return store, nil
	default:
		return nil, fmt.Errorf("unknown memory backend %q", cfg.MemoryBackend)
	}
}

func (a *App) Close() error {
	return a.Memory.Close()
}
