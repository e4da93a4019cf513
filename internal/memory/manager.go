// Package memory persists per-identity conversation state.
package memory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/avvvet/tietaja/internal/models"
)

// Manager wraps a Store with the read policy callers rely on: Load never
// fails. It also serializes work per identity inside this process.
type Manager struct {
	store  Store
	logger *slog.Logger
	now    func() time.Time

	mu    sync.Mutex
	locks map[string]*identityLock
}

type identityLock struct {
	mu   sync.Mutex
	refs int
}

func NewManager(store Store, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		store:  store,
		logger: logger,
		now:    time.Now,
		locks:  make(map[string]*identityLock),
	}
}

// Lock blocks until the caller holds the identity and returns the release func.
// Other processes sharing the store are not covered.
func (m *Manager) Lock(userID string) func() {
	m.mu.Lock()
	l, ok := m.locks[userID]
	if !ok {
		l = &identityLock{}
		m.locks[userID] = l
	}
	l.refs++
	m.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		m.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(m.locks, userID)
		}
		m.mu.Unlock()
	}
}

// Load returns the stored record or, on absence or any read error, a fresh default.
func (m *Manager) Load(ctx context.Context, userID string) *models.UserMemory {
	mem, err := m.store.Load(ctx, userID)
	switch {
	case err == nil:
		return mem
	case errors.Is(err, ErrNotFound):
		m.logger.Debug("no stored memory, starting fresh", "user_id", userID)
	default:
		m.logger.Warn("failed to load memory, starting fresh", "user_id", userID, "error", err)
	}
	return models.NewUserMemory(userID, m.now())
}

func (m *Manager) Save(ctx context.Context, userID string, mem *models.UserMemory) error {
	if err := validIdentity(userID); err != nil {
		return err
	}
	if mem.UserID == "" {
		mem.UserID = userID
	}
	if err := m.store.Save(ctx, userID, mem); err != nil {
		return fmt.Errorf("failed to save memory for %s: %w", userID, err)
	}
	return nil
}

func (m *Manager) Delete(ctx context.Context, userID string) (bool, error) {
	if err := validIdentity(userID); err != nil {
		return false, err
	}
	unlock := m.Lock(userID)
	defer unlock()

	deleted, err := m.store.Delete(ctx, userID)
	if err != nil {
		return false, err
	}
	m.logger.Info("memory deleted", "user_id", userID, "existed", deleted)
	return deleted, nil
}

func (m *Manager) Stats(ctx context.Context, userID string) (*Stats, error) {
	stats := &Stats{UserID: userID}
	size, err := m.store.Size(ctx, userID)
	if errors.Is(err, ErrNotFound) {
		return stats, nil
	}
	if err != nil {
		return nil, err
	}

	mem, err := m.store.Load(ctx, userID)
	if err != nil {
		return nil, err
	}
	updated := mem.LastUpdated
	stats.Exists = true
	stats.SizeBytes = size
	stats.ConversationTurns = len(mem.ConversationHistory)
	stats.InteractionCount = mem.InteractionCount
	stats.Preferences = len(mem.Preferences)
	stats.LastUpdated = &updated
	return stats, nil
}

// UpdatePreferences merges prefs into the stored record under the identity lock.
func (m *Manager) UpdatePreferences(ctx context.Context, userID string, prefs map[string]any) (*models.UserMemory, error) {
	if err := validIdentity(userID); err != nil {
		return nil, err
	}
	unlock := m.Lock(userID)
	defer unlock()

	mem := m.Load(ctx, userID)
	for k, v := range prefs {
		mem.Preferences[k] = v
	}
	mem.LastUpdated = m.now().UTC()
	if err := m.Save(ctx, userID, mem); err != nil {
		return nil, err
	}
	return mem, nil
}

// Close closes the underlying store
func (m *Manager) Close() error {
	if closer, ok := m.store.(interface{ Close() error }); ok {
		return closer.Close()
	}
	return nil
}

func validIdentity(userID string) error {
	if strings.TrimSpace(userID) == "" {
		return ErrInvalidIdentity
	}
	return nil
}
