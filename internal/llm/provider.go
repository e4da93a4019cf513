package llm

import (
	"context"
	"errors"

	"github.com/avvvet/tietaja/internal/models"
	"github.com/tmc/langchaingo/llms"
)

// ErrNoResponse is returned when the model produced no structured result at all.
var ErrNoResponse = errors.New("llm returned no response")

// Provider defines the interface for completion providers
type Provider interface {
	Complete(ctx context.Context, request *CompletionRequest) (*Completion, error)
}

// CompletionRequest represents the structured request to the LLM.
// Tools is empty on follow-up turns.
type CompletionRequest struct {
	Messages    []llms.MessageContent
	Tools       []models.ToolSchema
	MaxTokens   int
	Temperature float64
}

// Completion carries the extracted text and the raw result.
// Tool-call metadata only lives in Raw.
type Completion struct {
	Text  string
	Raw   *llms.ContentResponse
	Usage *Usage
}

type Usage struct {
	InputTokens  int
	OutputTokens int
}

// ToLLMTools converts tool schemas to langchaingo tool declarations.
func ToLLMTools(schemas []models.ToolSchema) []llms.Tool {
	tools := make([]llms.Tool, 0, len(schemas))
	for _, s := range schemas {
		toolType := s.Type
		if toolType == "" {
			toolType = "function"
		}
		tools = append(tools, llms.Tool{
			Type: toolType,
			Function: &llms.FunctionDefinition{
				Name:        s.Function.Name,
				Description: s.Function.Description,
				Parameters:  s.Function.Parameters,
			},
		})
	}
	return tools
}
