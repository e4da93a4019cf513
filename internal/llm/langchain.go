package llm

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/avvvet/tietaja/internal/config"
	"github.com/tmc/langchaingo/llms"
)

const (
	emptyContentText = "I received a response but it was empty."
	noChoicesText    = "No response generated"
)

// LangChainProvider adapts any langchaingo llms.Model to Provider.
type LangChainProvider struct {
	model       llms.Model
	modelName   string
	temperature float64
	maxTokens   int
	logger      *slog.Logger
}

func NewLangChainProvider(model llms.Model, modelName string, temperature float64, maxTokens int, logger *slog.Logger) *LangChainProvider {
	if logger == nil {
		logger = slog.Default()
	}
	return &LangChainProvider{
		model:       model,
		modelName:   modelName,
		temperature: temperature,
		maxTokens:   maxTokens,
		logger:      logger,
	}
}

// Complete issues one completion. Request values override the provider defaults when set.
func (p *LangChainProvider) Complete(ctx context.Context, request *CompletionRequest) (*Completion, error) {
	temperature := p.temperature
	if request.Temperature > 0 {
		temperature = request.Temperature
	}
	maxTokens := p.maxTokens
	if request.MaxTokens > 0 {
		maxTokens = request.MaxTokens
	}

	options := []llms.CallOption{
		llms.WithModel(p.modelName),
		llms.WithTemperature(temperature),
		llms.WithMaxTokens(maxTokens),
	}
	if len(request.Tools) > 0 {
		options = append(options, llms.WithTools(ToLLMTools(request.Tools)))
	}

	p.logger.Debug("llm request",
		"model", p.modelName,
		"messages", len(request.Messages),
		"tools", len(request.Tools))

	resp, err := p.model.GenerateContent(ctx, request.Messages, options...)
	if err != nil {
		return nil, fmt.Errorf("llm generate content: %w", err)
	}
	if resp == nil {
		return nil, ErrNoResponse
	}
	p.logger.Log(ctx, config.LevelTrace, "llm raw response", "response", resp)

	if !hasChoice(resp.Choices) {
		p.logger.Warn("llm response had no choices", "model", p.modelName)
		return &Completion{Text: noChoicesText, Raw: resp}, nil
	}

	completion := &Completion{
		Text:  responseText(resp.Choices),
		Raw:   resp,
		Usage: responseUsage(resp.Choices),
	}

	p.logger.Info("llm response",
		"model", p.modelName,
		"choices", len(resp.Choices),
		"chars", len(completion.Text),
		"tool_calls", toolCallCount(resp.Choices))

	return completion, nil
}

func hasChoice(choices []*llms.ContentChoice) bool {
	for _, c := range choices {
		if c != nil {
			return true
		}
	}
	return false
}

// responseText joins the content of all choices. Anthropic returns one
// choice per content block, so text and tool calls may be split.
func responseText(choices []*llms.ContentChoice) string {
	var parts []string
	for _, c := range choices {
		if c != nil && strings.TrimSpace(c.Content) != "" {
			parts = append(parts, c.Content)
		}
	}
	switch {
	case len(parts) > 0:
		return strings.Join(parts, "\n")
	case toolCallCount(choices) > 0:
		return fmt.Sprintf("I can help you with that! I detected %d action(s) I can take.", toolCallCount(choices))
	default:
		return emptyContentText
	}
}

func toolCallCount(choices []*llms.ContentChoice) int {
	n := 0
	for _, c := range choices {
		if c == nil {
			continue
		}
		if len(c.ToolCalls) > 0 {
			n += len(c.ToolCalls)
		} else if c.FuncCall != nil {
			n++
		}
	}
	return n
}

// responseUsage takes the first token counts any choice reports.
func responseUsage(choices []*llms.ContentChoice) *Usage {
	for _, c := range choices {
		if c == nil {
			continue
		}
		if u := usageFrom(c.GenerationInfo); u != nil {
			return u
		}
	}
	return nil
}

// usageFrom reads token counts from GenerationInfo; key names differ per backend.
func usageFrom(info map[string]any) *Usage {
	if len(info) == 0 {
		return nil
	}
	in, okIn := firstInt(info, "PromptTokens", "InputTokens")
	out, okOut := firstInt(info, "CompletionTokens", "OutputTokens")
	if !okIn && !okOut {
		return nil
	}
	return &Usage{InputTokens: in, OutputTokens: out}
}

func firstInt(info map[string]any, keys ...string) (int, bool) {
	for _, k := range keys {
		switch v := info[k].(type) {
		case int:
			return v, true
		case int64:
			return int(v), true
		case float64:
			return int(v), true
		}
	}
	return 0, false
}
