package memory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"

	"github.com/avvvet/tietaja/internal/models"
)

const backupSuffix = ".backup"

// FileStore keeps one JSON document per identity under dir.
type FileStore struct {
	dir    string
	logger *slog.Logger
}

func NewFileStore(dir string, logger *slog.Logger) (*FileStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	return &FileStore{dir: dir, logger: logger}, nil
}

// Path is the record location for an identity. The identity is escaped so
// it always maps to a single file inside dir.
func (s *FileStore) Path(userID string) string {
	return filepath.Join(s.dir, "memory_"+url.PathEscape(userID)+".json")
}

func (s *FileStore) Load(_ context.Context, userID string) (*models.UserMemory, error) {
	data, err := os.ReadFile(s.Path(userID))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read memory file: %w", err)
	}

	var mem models.UserMemory
	if err := json.Unmarshal(data, &mem); err != nil {
		return nil, fmt.Errorf("failed to parse memory file: %w", err)
	}
	return normalize(userID, &mem), nil
}

// Save writes a temp file, syncs it, copies the current record to the
// backup path and renames the temp file over the record.
func (s *FileStore) Save(_ context.Context, userID string, mem *models.UserMemory) error {
	data, err := json.MarshalIndent(mem, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal memory: %w", err)
	}

	path := s.Path(userID)
	tmpFile, err := os.CreateTemp(s.dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	needsCleanup := true
	defer func() {
		if tmpFile != nil {
			_ = tmpFile.Close()
		}
		if needsCleanup {
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err := tmpFile.Write(data); err != nil {
		return fmt.Errorf("failed to write to temp file: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		tmpFile = nil
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	tmpFile = nil

	if err := s.backup(path); err != nil {
		return err
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	needsCleanup = false

	if err := os.Chmod(path, 0o644); err != nil {
		return fmt.Errorf("failed to set file permissions: %w", err)
	}
	s.logger.Debug("memory saved", "user_id", userID, "path", path, "bytes", len(data))
	return nil
}

// backup keeps one prior generation; each save clobbers the last backup.
func (s *FileStore) backup(path string) error {
	prev, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read previous memory: %w", err)
	}
	if err := os.WriteFile(path+backupSuffix, prev, 0o644); err != nil {
		return fmt.Errorf("failed to write memory backup: %w", err)
	}
	return nil
}

func (s *FileStore) Delete(_ context.Context, userID string) (bool, error) {
	path := s.Path(userID)
	err := os.Remove(path)
	existed := err == nil
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return false, fmt.Errorf("failed to delete memory file: %w", err)
	}
	if err := os.Remove(path + backupSuffix); err != nil && !errors.Is(err, os.ErrNotExist) {
		return existed, fmt.Errorf("failed to delete memory backup: %w", err)
	}
	return existed, nil
}

func (s *FileStore) Size(_ context.Context, userID string) (int64, error) {
	info, err := os.Stat(s.Path(userID))
	if errors.Is(err, os.ErrNotExist) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("failed to stat memory file: %w", err)
	}
	return info.Size(), nil
}
