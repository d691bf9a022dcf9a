package attempts

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/quizfolio/sync-service/internal/models"
	"github.com/quizfolio/sync-service/internal/storage"
	"github.com/quizfolio/sync-service/internal/utils"
)

func newTestHistory(t *testing.T) (*History, storage.Store) {
	t.Helper()
	store := storage.NewFileStore(
		filepath.Join(t.TempDir(), "attempts.json"), utils.NewDevelopmentLogger())
	return NewHistory(context.Background(), store, utils.NewDevelopmentLogger()), store
}

func attemptFor(id, quizID, completedAt string) models.QuizAttempt {
	return models.QuizAttempt{
		AttemptID:   id,
		QuizID:      quizID,
		QuizTitle:   "Sample Quiz",
		StartedAt:   "2025-03-01T10:00:00Z",
		CompletedAt: completedAt,
	}
}

func TestHistoryRecordAndSnapshot(t *testing.T) {
	ctx := context.Background()
	history, store := newTestHistory(t)

	if history.Len() != 0 {
		t.Fatalf("Expected empty history, got %d", history.Len())
	}

	first := attemptFor("a-1", "quiz-1", "2025-03-01T10:05:00Z")
	if err := history.Record(ctx, first); err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	snapshot := history.Snapshot()
	if len(snapshot) != 1 || snapshot[0].AttemptID != "a-1" {
		t.Fatalf("Unexpected snapshot: %v", snapshot)
	}

	// Mutating a snapshot must not affect the collection.
	snapshot[0].AttemptID = "mutated"
	if history.Snapshot()[0].AttemptID != "a-1" {
		t.Error("Snapshot mutation leaked into history")
	}

	// The record was persisted before it became visible.
	persisted := store.Load(ctx)
	if len(persisted) != 1 || persisted[0].AttemptID != "a-1" {
		t.Errorf("Expected persisted collection to match, got %v", persisted)
	}
}

func TestHistoryReplacePersistsFirst(t *testing.T) {
	ctx := context.Background()
	history, store := newTestHistory(t)

	next := []models.QuizAttempt{
		attemptFor("a-1", "quiz-1", "2025-03-01T10:05:00Z"),
		attemptFor("a-2", "quiz-2", "2025-03-01T11:05:00Z"),
	}
	if err := history.Replace(ctx, next); err != nil {
		t.Fatalf("Replace failed: %v", err)
	}
	if history.Len() != 2 {
		t.Errorf("Expected 2 attempts, got %d", history.Len())
	}
	if len(store.Load(ctx)) != 2 {
		t.Error("Replace did not persist the new collection")
	}

	// A failing store keeps the previous collection visible.
	failing := NewHistory(ctx, failingStore{}, utils.NewDevelopmentLogger())
	if err := failing.Replace(ctx, next); err == nil {
		t.Fatal("Expected Replace to surface store error")
	}
	if failing.Len() != 0 {
		t.Errorf("Failed Replace must not publish, got %d attempts", failing.Len())
	}
}

type failingStore struct{}

func (failingStore) Load(ctx context.Context) []models.QuizAttempt { return []models.QuizAttempt{} }
func (failingStore) Replace(ctx context.Context, attempts []models.QuizAttempt) error {
	return context.DeadlineExceeded
}
func (failingStore) Append(ctx context.Context, attempt models.QuizAttempt) error {
	return context.DeadlineExceeded
}

func TestMostRecentByQuiz(t *testing.T) {
	attempts := []models.QuizAttempt{
		attemptFor("a-1", "quiz-1", "2025-03-01T10:05:00Z"),
		attemptFor("a-2", "quiz-1", "2025-03-02T10:05:00Z"),
		attemptFor("a-3", "quiz-2", "2025-03-01T09:00:00Z"),
	}

	recent := MostRecentByQuiz(attempts)
	if len(recent) != 2 {
		t.Fatalf("Expected 2 quizzes, got %d", len(recent))
	}
	if recent["quiz-1"].AttemptID != "a-2" {
		t.Errorf("Expected a-2 as most recent for quiz-1, got %s", recent["quiz-1"].AttemptID)
	}
	if recent["quiz-2"].AttemptID != "a-3" {
		t.Errorf("Expected a-3 for quiz-2, got %s", recent["quiz-2"].AttemptID)
	}
}

func TestForQuiz(t *testing.T) {
	attempts := []models.QuizAttempt{
		attemptFor("a-1", "quiz-1", "2025-03-01T10:05:00Z"),
		attemptFor("a-2", "quiz-2", "2025-03-02T10:05:00Z"),
		attemptFor("a-3", "quiz-1", "2025-03-03T10:05:00Z"),
	}

	matched := ForQuiz(attempts, "quiz-1")
	if len(matched) != 2 {
		t.Fatalf("Expected 2 attempts for quiz-1, got %d", len(matched))
	}
	if matched[0].AttemptID != "a-3" || matched[1].AttemptID != "a-1" {
		t.Errorf("Expected most recent first, got %s, %s", matched[0].AttemptID, matched[1].AttemptID)
	}

	if matched := ForQuiz(attempts, "missing"); len(matched) != 0 {
		t.Errorf("Expected no attempts for unknown quiz, got %d", len(matched))
	}
}

func TestTakenQuizIDs(t *testing.T) {
	attempts := []models.QuizAttempt{
		attemptFor("a-1", "quiz-1", "2025-03-01T10:05:00Z"),
		attemptFor("a-2", "quiz-1", "2025-03-02T10:05:00Z"),
		attemptFor("a-3", "", "2025-03-01T09:00:00Z"),
	}

	taken := TakenQuizIDs(attempts)
	if len(taken) != 1 {
		t.Fatalf("Expected 1 quiz id, got %d", len(taken))
	}
	if _, ok := taken["quiz-1"]; !ok {
		t.Error("Expected quiz-1 to be marked as taken")
	}
}
