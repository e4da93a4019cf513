package prompts

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/avvvet/tietaja/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
)

func textOf(t *testing.T, m llms.MessageContent) string {
	t.Helper()
	require.Len(t, m.Parts, 1)
	part, ok := m.Parts[0].(llms.TextContent)
	require.True(t, ok)
	return part.Text
}

func memoryWithTurns(n int) *models.UserMemory {
	start := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	mem := models.NewUserMemory("alice", start)
	for i := 1; i <= n; i++ {
		mem.AppendTurn(models.ConversationTurn{
			UserInput:  fmt.Sprintf("question %d", i),
			AIResponse: fmt.Sprintf("answer %d", i),
			Timestamp:  start.Add(time.Duration(i) * time.Minute),
		})
	}
	return mem
}

func TestBuildMessages_ReplaysLastFiveTurns(t *testing.T) {
	mem := memoryWithTurns(8)

	msgs, err := BuildMessages(context.Background(), mem, "what now?", nil)

	require.NoError(t, err)
	require.Len(t, msgs, 1+2*HistoryWindow+1)
	assert.Equal(t, llms.ChatMessageTypeSystem, msgs[0].Role)

	for i := 0; i < HistoryWindow; i++ {
		user, ai := msgs[1+2*i], msgs[2+2*i]
		assert.Equal(t, llms.ChatMessageTypeHuman, user.Role)
		assert.Equal(t, llms.ChatMessageTypeAI, ai.Role)
		assert.Equal(t, fmt.Sprintf("question %d", 4+i), textOf(t, user))
		assert.Equal(t, fmt.Sprintf("answer %d", 4+i), textOf(t, ai))
	}

	last := msgs[len(msgs)-1]
	assert.Equal(t, llms.ChatMessageTypeHuman, last.Role)
	assert.Equal(t, "what now?", textOf(t, last))
}

func TestBuildMessages_EmptyMemory(t *testing.T) {
	msgs, err := BuildMessages(context.Background(), memoryWithTurns(0), "hello", nil)

	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "hello", textOf(t, msgs[1]))
}

func TestBuildSystemMessage(t *testing.T) {
	mem := memoryWithTurns(0)
	mem.Preferences["tone"] = "brief"

	got := BuildSystemMessage(mem, map[string]any{"channel": "telegram"})

	assert.Contains(t, got, SystemPrompt)
	assert.Contains(t, got, "User preferences:")
	assert.Contains(t, got, `"tone": "brief"`)
	assert.Contains(t, got, "Additional context:")
	assert.Contains(t, got, `"channel": "telegram"`)

	assert.NotContains(t, BuildSystemMessage(mem, nil), "Additional context:")
}

func TestBuildFollowUp(t *testing.T) {
	got := BuildFollowUp("Add a task to buy groceries", []models.ActionResult{
		{Action: "add_task", Outcome: map[string]any{"success": true, "task_id": "7001"}, OK: true},
		{Action: "send_email", Outcome: map[string]any{"error": "Unknown action: send_email"}},
	})

	want := `I just executed some actions for you based on your request: "Add a task to buy groceries"

Results:
- add_task: {"success":true,"task_id":"7001"}
- send_email: {"error":"Unknown action: send_email"}

Please provide a helpful response to the user about what was accomplished.`
	assert.Equal(t, want, got)
}

func TestFormatOutcome(t *testing.T) {
	assert.Equal(t, "Completed", FormatOutcome(nil))
	assert.Equal(t, "done", FormatOutcome("done"))
	assert.Equal(t, `[1,2]`, FormatOutcome([]int{1, 2}))
}
