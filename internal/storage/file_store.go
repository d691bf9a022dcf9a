package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/quizfolio/sync-service/internal/models"
	"github.com/quizfolio/sync-service/internal/utils"
)

// FileStore persists the attempt collection as a single JSON array on disk,
// the server-side analog of the browser's localStorage slot.
type FileStore struct {
	path   string
	logger utils.Logger
}

func NewFileStore(path string, logger utils.Logger) *FileStore {
	return &FileStore{
		path:   path,
		logger: logger,
	}
}

func (s *FileStore) Load(ctx context.Context) []models.QuizAttempt {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warn("attempt slot unreadable, treating as empty", "path", s.path, "error", err)
		}
		return []models.QuizAttempt{}
	}

	var attempts []models.QuizAttempt
	if err := json.Unmarshal(data, &attempts); err != nil {
		s.logger.Warn("attempt slot corrupt, treating as empty", "path", s.path, "error", err)
		return []models.QuizAttempt{}
	}
	if attempts == nil {
		return []models.QuizAttempt{}
	}
	return attempts
}

func (s *FileStore) Replace(ctx context.Context, attempts []models.QuizAttempt) error {
	data, err := json.Marshal(attempts)
	if err != nil {
		return fmt.Errorf("failed to encode attempts: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("failed to create storage directory: %w", err)
	}

	// Write to a sibling temp file and rename so readers never observe a
	// half-written slot.
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write attempts: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to replace attempt slot: %w", err)
	}
	return nil
}

func (s *FileStore) Append(ctx context.Context, attempt models.QuizAttempt) error {
	attempts := s.Load(ctx)
	return s.Replace(ctx, append(attempts, attempt))
}
