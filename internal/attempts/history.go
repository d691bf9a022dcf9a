// Package attempts owns the in-memory attempt collection. All mutation goes
// through History, which persists the next collection before publishing it,
// so readers never observe state that storage does not yet hold.
package attempts

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/quizfolio/sync-service/internal/models"
	"github.com/quizfolio/sync-service/internal/storage"
	"github.com/quizfolio/sync-service/internal/utils"
)

// History is the single owner of the local attempt collection. Snapshots are
// copy-on-write: every mutation installs a new slice, so concurrent readers
// keep working against the collection value they were handed.
type History struct {
	mu       sync.RWMutex
	attempts []models.QuizAttempt
	store    storage.Store
	logger   utils.Logger
}

// NewHistory loads the persisted collection and returns its owner.
func NewHistory(ctx context.Context, store storage.Store, logger utils.Logger) *History {
	return &History{
		attempts: store.Load(ctx),
		store:    store,
		logger:   logger,
	}
}

// Snapshot returns a copy of the current collection.
func (h *History) Snapshot() []models.QuizAttempt {
	h.mu.RLock()
	defer h.mu.RUnlock()
	snapshot := make([]models.QuizAttempt, len(h.attempts))
	copy(snapshot, h.attempts)
	return snapshot
}

// Len returns the current collection size.
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.attempts)
}

// Replace persists the next collection and then publishes it as the current
// snapshot. The two steps are deliberately in that order: a crash between
// them loses nothing, it only re-reads what was already persisted.
func (h *History) Replace(ctx context.Context, next []models.QuizAttempt) error {
	if err := h.store.Replace(ctx, next); err != nil {
		return err
	}
	h.mu.Lock()
	h.attempts = next
	h.mu.Unlock()
	return nil
}

// Record appends a single newly completed attempt.
func (h *History) Record(ctx context.Context, attempt models.QuizAttempt) error {
	h.mu.Lock()
	next := make([]models.QuizAttempt, len(h.attempts), len(h.attempts)+1)
	copy(next, h.attempts)
	next = append(next, attempt)
	h.mu.Unlock()

	return h.Replace(ctx, next)
}

// MostRecentByQuiz maps each quiz id to the attempt with the latest
// completedAt timestamp.
func MostRecentByQuiz(attempts []models.QuizAttempt) map[string]models.QuizAttempt {
	recent := make(map[string]models.QuizAttempt)
	for _, attempt := range attempts {
		existing, ok := recent[attempt.QuizID]
		if !ok || completedAfter(attempt, existing) {
			recent[attempt.QuizID] = attempt
		}
	}
	return recent
}

// TakenQuizIDs returns the set of quiz ids with at least one attempt.
func TakenQuizIDs(attempts []models.QuizAttempt) map[string]struct{} {
	taken := make(map[string]struct{})
	for _, attempt := range attempts {
		if attempt.QuizID != "" {
			taken[attempt.QuizID] = struct{}{}
		}
	}
	return taken
}

// ForQuiz returns a quiz's attempts sorted most recent first.
func ForQuiz(attempts []models.QuizAttempt, quizID string) []models.QuizAttempt {
	var matched []models.QuizAttempt
	for _, attempt := range attempts {
		if attempt.QuizID == quizID {
			matched = append(matched, attempt)
		}
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return completedAfter(matched[i], matched[j])
	})
	return matched
}

func completedAfter(a, b models.QuizAttempt) bool {
	at, errA := time.Parse(time.RFC3339, a.CompletedAt)
	bt, errB := time.Parse(time.RFC3339, b.CompletedAt)
	if errA != nil || errB != nil {
		return a.CompletedAt > b.CompletedAt
	}
	return at.After(bt)
}
