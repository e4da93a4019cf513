package llm

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/tmc/langchaingo/llms/openai"
)

// NewOpenAIProvider builds an OpenAI-backed provider. A zero timeout means no client timeout.
func NewOpenAIProvider(apiKey, model, baseURL string, timeout time.Duration, temperature float64, maxTokens int, logger *slog.Logger) (*LangChainProvider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is required")
	}
	options := []openai.Option{
		openai.WithToken(apiKey),
		openai.WithModel(model),
		openai.WithHTTPClient(&http.Client{Timeout: timeout}),
	}
	if baseURL != "" {
		options = append(options, openai.WithBaseURL(baseURL))
	}

	client, err := openai.New(options...)
	if err != nil {
		return nil, fmt.Errorf("failed to create openai client: %w", err)
	}
	return NewLangChainProvider(client, model, temperature, maxTokens, logger), nil
}
