package handlers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/avvvet/tietaja/internal/llm"
	"github.com/avvvet/tietaja/internal/models"
	"github.com/avvvet/tietaja/internal/prompts"
	"github.com/google/uuid"
	"github.com/tmc/langchaingo/llms"
)

var (
	// ErrInvalidRequest wraps validation failures of an inbound request.
	ErrInvalidRequest = errors.New("invalid request")

	// ErrCompletionFailed wraps a completion call that produced no result.
	ErrCompletionFailed = errors.New("completion failed")

	// ErrMemoryFailed wraps a failed memory write at the end of a turn.
	ErrMemoryFailed = errors.New("memory update failed")
)

type ToolParser interface {
	Parse(raw *llms.ContentResponse) []models.ActionRequest
}

type ActionExecutor interface {
	Execute(ctx context.Context, userID string, mem *models.UserMemory, requests []models.ActionRequest) ([]string, []models.ActionResult)
}

type SchemaSource interface {
	List() []models.ToolSchema
}

type MemoryStore interface {
	Lock(userID string) func()
	Load(ctx context.Context, userID string) *models.UserMemory
	Save(ctx context.Context, userID string, mem *models.UserMemory) error
}

// ChatHandler runs one user turn: a first completion offered every tool, at
// most one round of action execution, and a tool-free follow-up completion.
type ChatHandler struct {
	provider llm.Provider
	schemas  SchemaSource
	parser   ToolParser
	executor ActionExecutor
	memory   MemoryStore
	logger   *slog.Logger

	now   func() time.Time
	newID func() string
}

func NewChatHandler(provider llm.Provider, schemas SchemaSource, parser ToolParser, executor ActionExecutor, memory MemoryStore, logger *slog.Logger) *ChatHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ChatHandler{
		provider: provider,
		schemas:  schemas,
		parser:   parser,
		executor: executor,
		memory:   memory,
		logger:   logger,
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

// HandleAsk validates the request and runs it under the identity lock:
// load memory, process, save. A failed turn leaves stored memory untouched.
func (h *ChatHandler) HandleAsk(ctx context.Context, request *models.ChatRequest) (*models.ChatResponse, error) {
	if err := validateRequest(request); err != nil {
		return nil, err
	}

	unlock := h.memory.Lock(request.UserID)
	defer unlock()

	mem := h.memory.Load(ctx, request.UserID)

	response, err := h.Process(ctx, request, mem)
	if err != nil {
		return nil, err
	}

	if err := h.memory.Save(ctx, request.UserID, mem); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMemoryFailed, err)
	}
	return response, nil
}

// Process runs the two-phase protocol against mem and appends the turn to it.
// It returns an error only when a completion call fails outright.
func (h *ChatHandler) Process(ctx context.Context, request *models.ChatRequest, mem *models.UserMemory) (*models.ChatResponse, error) {
	requestID := h.newID()
	logger := h.logger.With("request_id", requestID, "user_id", request.UserID)

	messages, err := prompts.BuildMessages(ctx, mem, request.UserInput, request.Context)
	if err != nil {
		return nil, fmt.Errorf("build messages: %w", err)
	}

	first, err := h.provider.Complete(ctx, &llm.CompletionRequest{
		Messages: messages,
		Tools:    h.schemas.List(),
	})
	if err != nil {
		logger.Error("first completion failed", "error", err)
		return nil, fmt.Errorf("%w: first completion: %w", ErrCompletionFailed, err)
	}

	requests := h.parser.Parse(first.Raw)
	answer := first.Text

	var toolsUsed []string
	var results []models.ActionResult
	if len(requests) > 0 {
		logger.Info("executing actions", "count", len(requests))
		toolsUsed, results = h.executor.Execute(ctx, request.UserID, mem, requests)

		followUp := make([]llms.MessageContent, 0, len(messages)+1)
		followUp = append(followUp, messages...)
		followUp = append(followUp, llms.TextParts(llms.ChatMessageTypeHuman, prompts.BuildFollowUp(request.UserInput, results)))

		second, err := h.provider.Complete(ctx, &llm.CompletionRequest{Messages: followUp})
		if err != nil {
			logger.Error("follow-up completion failed", "error", err)
			return nil, fmt.Errorf("%w: follow-up completion: %w", ErrCompletionFailed, err)
		}
		answer = second.Text
	}

	mem.AppendTurn(models.ConversationTurn{
		UserInput:  request.UserInput,
		AIResponse: answer,
		ToolsUsed:  append([]string{}, toolsUsed...),
		Timestamp:  h.now().UTC(),
	})

	logger.Info("turn processed",
		"actions", len(requests),
		"tools_used", len(toolsUsed),
		"history", len(mem.ConversationHistory))

	return &models.ChatResponse{
		Response:      answer,
		UserID:        request.UserID,
		MemoryUpdated: true,
		ToolsUsed:     toolsUsed,
		Metadata: &models.ResponseMetadata{
			RequestID:   requestID,
			ToolCalls:   requests,
			ToolResults: results,
			Context:     request.Context,
		},
	}, nil
}

func validateRequest(request *models.ChatRequest) error {
	if request == nil {
		return fmt.Errorf("%w: empty request", ErrInvalidRequest)
	}
	if strings.TrimSpace(request.UserID) == "" {
		return fmt.Errorf("%w: user_id is required", ErrInvalidRequest)
	}
	if strings.TrimSpace(request.UserInput) == "" {
		return fmt.Errorf("%w: user_input is required", ErrInvalidRequest)
	}
	return nil
}
