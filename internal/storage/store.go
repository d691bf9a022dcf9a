package storage

import (
	"context"

	"github.com/quizfolio/sync-service/internal/models"
)

// Store is the durable local slot holding the attempt collection.
//
// Load never fails: a missing or corrupt slot reads back as an empty
// collection so a damaged local store degrades instead of blocking the app.
// Replace overwrites the whole slot; callers merge before calling, there is
// no merge at this layer.
type Store interface {
	Load(ctx context.Context) []models.QuizAttempt
	Replace(ctx context.Context, attempts []models.QuizAttempt) error
	Append(ctx context.Context, attempt models.QuizAttempt) error
}
