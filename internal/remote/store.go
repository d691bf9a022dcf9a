// Package remote talks to the per-principal remote attempt store: pulls,
// chunked pushes, and a live change subscription.
package remote

import (
	"context"

	"github.com/quizfolio/sync-service/internal/models"
)

// BatchWriteLimit caps how many attempt documents one atomic write commits.
// A mid-push failure leaves at most one partial batch uncommitted.
const BatchWriteLimit = 400

// Disposer tears down a subscription. It must be idempotent: calling it more
// than once is safe and later calls do nothing.
type Disposer func()

// AttemptStore is the remote attempt collection, addressed per principal.
//
// Push writes each attempt keyed by its own attempt id with merge-on-conflict
// semantics, so re-pushing an already-present attempt is a safe no-op and
// delivery can be at-least-once.
type AttemptStore interface {
	Fetch(ctx context.Context, principalID string) ([]models.QuizAttempt, error)
	Push(ctx context.Context, principalID string, attempts []models.QuizAttempt) error

	// Subscribe invokes onChange with the principal's full remote collection
	// every time it changes, until the returned disposer is called. Errors
	// on the subscription are reported through onError; the subscription
	// itself stays up.
	Subscribe(ctx context.Context, principalID string, onChange func([]models.QuizAttempt), onError func(error)) (Disposer, error)
}
