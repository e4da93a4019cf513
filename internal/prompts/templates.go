package prompts

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/avvvet/tietaja/internal/models"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/memory"
)

// HistoryWindow is how many stored turns are replayed into a prompt.
const HistoryWindow = 5

const SystemPrompt = `You are an AI assistant with access to user memory and various tools including Todoist integration.
You can help users with tasks, remember their preferences, and manage their todo lists.

Available tools:
- Todoist: add, list, update, complete and delete tasks; view projects and labels
- Memory: read and update user preferences

When a user asks you to perform an action (like adding a task to Todoist), use the appropriate tool.
Always be helpful, concise, and use tools when appropriate.`

// BuildMessages assembles the first-turn message sequence: system message,
// the last HistoryWindow turns as user/assistant pairs, then the input.
func BuildMessages(ctx context.Context, mem *models.UserMemory, userInput string, requestContext map[string]any) ([]llms.MessageContent, error) {
	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, BuildSystemMessage(mem, requestContext)),
	}

	history, err := replayHistory(ctx, mem)
	if err != nil {
		return nil, err
	}
	messages = append(messages, history...)

	messages = append(messages, llms.TextParts(llms.ChatMessageTypeHuman, userInput))
	return messages, nil
}

func BuildSystemMessage(mem *models.UserMemory, requestContext map[string]any) string {
	var builder strings.Builder
	builder.WriteString(SystemPrompt)

	if mem != nil && len(mem.Preferences) > 0 {
		builder.WriteString("\n\nUser preferences:\n")
		builder.WriteString(toJSON(mem.Preferences))
	}
	if len(requestContext) > 0 {
		builder.WriteString("\n\nAdditional context:\n")
		builder.WriteString(toJSON(requestContext))
	}
	return builder.String()
}

// replayHistory runs the recent turns through a conversation buffer so the
// roles come out the way langchaingo assigns them.
func replayHistory(ctx context.Context, mem *models.UserMemory) ([]llms.MessageContent, error) {
	if mem == nil {
		return nil, nil
	}
	buf := memory.NewConversationBuffer()
	for _, turn := range mem.RecentTurns(HistoryWindow) {
		if err := buf.ChatHistory.AddUserMessage(ctx, turn.UserInput); err != nil {
			return nil, fmt.Errorf("failed to add user message to history: %w", err)
		}
		if err := buf.ChatHistory.AddAIMessage(ctx, turn.AIResponse); err != nil {
			return nil, fmt.Errorf("failed to add AI message to history: %w", err)
		}
	}

	chat, err := buf.ChatHistory.Messages(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get messages: %w", err)
	}
	out := make([]llms.MessageContent, 0, len(chat))
	for _, msg := range chat {
		out = append(out, llms.TextParts(msg.GetType(), msg.GetContent()))
	}
	return out, nil
}

// BuildFollowUp summarizes executed actions for the second completion.
func BuildFollowUp(userInput string, results []models.ActionResult) string {
	lines := make([]string, 0, len(results))
	for _, r := range results {
		lines = append(lines, fmt.Sprintf("- %s: %s", r.Action, FormatOutcome(r.Outcome)))
	}

	return fmt.Sprintf(`I just executed some actions for you based on your request: "%s"

Results:
%s

Please provide a helpful response to the user about what was accomplished.`, userInput, strings.Join(lines, "\n"))
}

// FormatOutcome renders an outcome as compact JSON, or with %v if it has no JSON form.
func FormatOutcome(outcome any) string {
	if outcome == nil {
		return "Completed"
	}
	if s, ok := outcome.(string); ok {
		return s
	}
	data, err := json.Marshal(outcome)
	if err != nil {
		return fmt.Sprintf("%v", outcome)
	}
	return string(data)
}

func toJSON(v any) string {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}
