package llm

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/tmc/langchaingo/llms/anthropic"
)

func NewAnthropicProvider(apiKey, model string, timeout time.Duration, temperature float64, maxTokens int, logger *slog.Logger) (*LangChainProvider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("ANTHROPIC_API_KEY is required")
	}
	client, err := anthropic.New(
		anthropic.WithToken(apiKey),
		anthropic.WithModel(model),
		anthropic.WithHTTPClient(&http.Client{Timeout: timeout}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create anthropic client: %w", err)
	}
	return NewLangChainProvider(client, model, temperature, maxTokens, logger), nil
}
