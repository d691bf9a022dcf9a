package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/quizfolio/sync-service/internal/models"
	"github.com/quizfolio/sync-service/internal/utils"
)

// DefaultSlotKey matches the storage key the browser client used.
const DefaultSlotKey = "quizAttempts"

// RedisStore keeps the attempt collection in a single Redis key, for
// deployments where the local history must survive process restarts without
// a writable filesystem.
type RedisStore struct {
	client *redis.Client
	key    string
	logger utils.Logger
}

func NewRedisStore(client *redis.Client, key string, logger utils.Logger) *RedisStore {
	if key == "" {
		key = DefaultSlotKey
	}
	return &RedisStore{
		client: client,
		key:    key,
		logger: logger,
	}
}

func (s *RedisStore) Load(ctx context.Context) []models.QuizAttempt {
	raw, err := s.client.Get(ctx, s.key).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.logger.Warn("attempt slot unreadable, treating as empty", "key", s.key, "error", err)
		}
		return []models.QuizAttempt{}
	}

	var attempts []models.QuizAttempt
	if err := json.Unmarshal([]byte(raw), &attempts); err != nil {
		s.logger.Warn("attempt slot corrupt, treating as empty", "key", s.key, "error", err)
		return []models.QuizAttempt{}
	}
	if attempts == nil {
		return []models.QuizAttempt{}
	}
	return attempts
}

func (s *RedisStore) Replace(ctx context.Context, attempts []models.QuizAttempt) error {
	data, err := json.Marshal(attempts)
	if err != nil {
		return fmt.Errorf("failed to encode attempts: %w", err)
	}
	if err := s.client.Set(ctx, s.key, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to replace attempt slot: %w", err)
	}
	return nil
}

func (s *RedisStore) Append(ctx context.Context, attempt models.QuizAttempt) error {
	attempts := s.Load(ctx)
	return s.Replace(ctx, append(attempts, attempt))
}
