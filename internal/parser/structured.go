package parser

import (
	"encoding/json"
	"strings"

	"github.com/avvvet/tietaja/internal/models"
	"github.com/tmc/langchaingo/llms"
)

// ExtractStructured reads native tool calls from every choice in order.
// Some backends return one choice per content block, so text and tool calls
// can arrive in separate choices. Within a choice the legacy single function
// call is consulted only when no tool calls are present.
func ExtractStructured(raw *llms.ContentResponse) []models.ActionRequest {
	if raw == nil {
		return nil
	}

	var out []models.ActionRequest
	for _, choice := range raw.Choices {
		if choice == nil {
			continue
		}
		calls := choice.ToolCalls
		if len(calls) == 0 && choice.FuncCall != nil {
			calls = []llms.ToolCall{{Type: "function", FunctionCall: choice.FuncCall}}
		}
		for _, tc := range calls {
			if tc.FunctionCall == nil || tc.FunctionCall.Name == "" {
				continue
			}
			args, confidence := decodeArguments(tc.FunctionCall.Arguments)
			out = append(out, models.ActionRequest{
				Name:       tc.FunctionCall.Name,
				Arguments:  args,
				Confidence: confidence,
			})
		}
	}
	return out
}

// decodeArguments keeps undecodable argument text, untouched, under raw_args.
func decodeArguments(s string) (map[string]any, float64) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return map[string]any{}, ConfidenceStructured
	}
	var args map[string]any
	if err := json.Unmarshal([]byte(trimmed), &args); err != nil || args == nil {
		return map[string]any{"raw_args": s}, ConfidenceRawArgs
	}
	return args, ConfidenceStructured
}

// responseText joins the non-blank content of every choice.
func responseText(raw *llms.ContentResponse) string {
	if raw == nil {
		return ""
	}
	var parts []string
	for _, choice := range raw.Choices {
		if choice != nil && strings.TrimSpace(choice.Content) != "" {
			parts = append(parts, choice.Content)
		}
	}
	return strings.Join(parts, "\n")
}
