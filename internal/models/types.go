package models

import (
	"time"
)

// Inbound ask request
type ChatRequest struct {
	UserInput string         `json:"user_input"`
	UserID    string         `json:"user_id"`
	Context   map[string]any `json:"context,omitempty"`
}

// Outbound answer for one turn
type ChatResponse struct {
	Response      string            `json:"response"`
	UserID        string            `json:"user_id"`
	MemoryUpdated bool              `json:"memory_updated"`
	ToolsUsed     []string          `json:"tools_used,omitempty"` // nil when nothing ran
	Metadata      *ResponseMetadata `json:"metadata,omitempty"`
}

type ResponseMetadata struct {
	RequestID   string          `json:"request_id"`
	ToolCalls   []ActionRequest `json:"tool_calls,omitempty"`
	ToolResults []ActionResult  `json:"tool_results,omitempty"`
	Context     map[string]any  `json:"context,omitempty"`
}

// ActionRequest is one action the model asked for.
// Confidence is 1.0 for structured tool calls and lower for text heuristics.
type ActionRequest struct {
	Name       string         `json:"action"`
	Arguments  map[string]any `json:"args"`
	Confidence float64        `json:"confidence"`
}

// ActionResult is the outcome of executing one ActionRequest.
type ActionResult struct {
	Action    string         `json:"action"`
	Arguments map[string]any `json:"args"`
	Outcome   any            `json:"result"`
	OK        bool           `json:"success"`
}

// ToolSchema declares one callable action in the OpenAI function format.
type ToolSchema struct {
	Type     string         `json:"type" yaml:"type"`
	Function FunctionSchema `json:"function" yaml:"function"`
}

type FunctionSchema struct {
	Name        string         `json:"name" yaml:"name"`
	Description string         `json:"description" yaml:"description"`
	Parameters  map[string]any `json:"parameters,omitempty" yaml:"parameters,omitempty"`
}

// Required lists the required argument names from the parameter schema.
func (s ToolSchema) Required() []string {
	raw, ok := s.Function.Parameters["required"]
	if !ok {
		return nil
	}
	var out []string
	switch v := raw.(type) {
	case []string:
		out = append(out, v...)
	case []any:
		for _, item := range v {
			if name, ok := item.(string); ok {
				out = append(out, name)
			}
		}
	}
	return out
}

// ConversationTurn is one completed exchange. Immutable once appended.
type ConversationTurn struct {
	UserInput  string    `json:"user_input"`
	AIResponse string    `json:"ai_response"`
	ToolsUsed  []string  `json:"tools_used"`
	Timestamp  time.Time `json:"timestamp"`
}

// MaxHistoryTurns is the retention cap for stored conversation turns.
const MaxHistoryTurns = 10

// UserMemory is the persisted per-identity session state.
type UserMemory struct {
	UserID              string             `json:"user_id,omitempty"`
	ConversationHistory []ConversationTurn `json:"conversation_history"`
	Preferences         map[string]any     `json:"preferences"`
	LastInteraction     *ConversationTurn  `json:"last_interaction"`
	CreatedAt           time.Time          `json:"created_at"`
	LastUpdated         time.Time          `json:"last_updated"`
	InteractionCount    int                `json:"interaction_count"`
}

// NewUserMemory returns the default record for an unseen identity.
func NewUserMemory(userID string, now time.Time) *UserMemory {
	now = now.UTC()
	return &UserMemory{
		UserID:              userID,
		ConversationHistory: []ConversationTurn{},
		Preferences: map[string]any{
			"language":                 "en",
			"timezone":                 "UTC",
			"notification_preferences": map[string]any{},
		},
		CreatedAt:   now,
		LastUpdated: now,
	}
}

// AppendTurn records a turn and evicts the oldest entries beyond MaxHistoryTurns.
func (m *UserMemory) AppendTurn(turn ConversationTurn) {
	m.ConversationHistory = append(m.ConversationHistory, turn)
	if n := len(m.ConversationHistory); n > MaxHistoryTurns {
		kept := make([]ConversationTurn, MaxHistoryTurns)
		copy(kept, m.ConversationHistory[n-MaxHistoryTurns:])
		m.ConversationHistory = kept
	}
	last := turn
	m.LastInteraction = &last
	m.LastUpdated = turn.Timestamp
	m.InteractionCount++
}

// RecentTurns returns up to n of the newest turns, oldest first.
func (m *UserMemory) RecentTurns(n int) []ConversationTurn {
	if n <= 0 {
		return nil
	}
	if len(m.ConversationHistory) <= n {
		return m.ConversationHistory
	}
	return m.ConversationHistory[len(m.ConversationHistory)-n:]
}

// Transport error envelope
type ErrorResponse struct {
	UserID       string `json:"user_id,omitempty"`
	ErrorCode    string `json:"error_code"`
	ErrorMessage string `json:"error_message"`
}

// Error codes
const (
	ErrorInvalidRequest = "INVALID_REQUEST"
	ErrorLLMFailed      = "LLM_API_FAILED"
	ErrorMemoryFailed   = "MEMORY_FAILED"
	ErrorInternal       = "INTERNAL_ERROR"
)
