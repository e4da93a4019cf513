package memory

import (
	"context"
	"errors"
	"time"

	"github.com/avvvet/tietaja/internal/models"
)

var (
	// ErrNotFound means no record is stored for the identity.
	ErrNotFound = errors.New("memory record not found")

	// ErrInvalidIdentity rejects blank user IDs on writes.
	ErrInvalidIdentity = errors.New("invalid user identity")
)

// Store persists one UserMemory record per identity.
// This allows us to swap between file, Redis, etc.
type Store interface {
	// Load returns ErrNotFound when the identity has no record
	Load(ctx context.Context, userID string) (*models.UserMemory, error)

	// Save replaces the record, keeping the previous one as a backup
	Save(ctx context.Context, userID string, mem *models.UserMemory) error

	// Delete removes the record and its backup; false if nothing existed
	Delete(ctx context.Context, userID string) (bool, error)

	// Size returns the stored size in bytes, or ErrNotFound
	Size(ctx context.Context, userID string) (int64, error)
}

// Stats summarizes one identity's stored record.
type Stats struct {
	UserID            string     `json:"user_id"`
	Exists            bool       `json:"exists"`
	SizeBytes         int64      `json:"size_bytes"`
	ConversationTurns int        `json:"conversation_turns"`
	InteractionCount  int        `json:"interaction_count"`
	Preferences       int        `json:"preferences"`
	LastUpdated       *time.Time `json:"last_updated,omitempty"`
}

// normalize repairs records written by older versions or by hand.
func normalize(userID string, mem *models.UserMemory) *models.UserMemory {
	if mem.UserID == "" {
		mem.UserID = userID
	}
	if mem.ConversationHistory == nil {
		mem.ConversationHistory = []models.ConversationTurn{}
	}
	if n := len(mem.ConversationHistory); n > models.MaxHistoryTurns {
		mem.ConversationHistory = mem.ConversationHistory[n-models.MaxHistoryTurns:]
	}
	if mem.Preferences == nil {
		mem.Preferences = map[string]any{}
	}
	return mem
}
