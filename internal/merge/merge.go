// Package merge implements the set-union reconciliation of attempt
// collections. Attempts are keyed by their attempt id: an incoming attempt
// whose id already exists locally is skipped wholesale, never field-merged.
package merge

import (
	"github.com/quizfolio/sync-service/internal/models"
)

// Merge reconciles two attempt collections.
//
// The result preserves existing in its original order, followed by every
// incoming attempt whose id was not already present, in incoming order.
// Existing records always win on id collision; attempts are immutable so
// there is nothing to reconcile field by field.
//
// Merge is idempotent (Merge(X, X) adds nothing) and its result-set
// membership is independent of how a sequence of merges is grouped.
func Merge(existing, incoming []models.QuizAttempt) ([]models.QuizAttempt, models.MergeSummary) {
	seen := make(map[string]struct{}, len(existing))
	for _, attempt := range existing {
		seen[attempt.AttemptID] = struct{}{}
	}

	merged := make([]models.QuizAttempt, len(existing), len(existing)+len(incoming))
	copy(merged, existing)

	imported := 0
	for _, attempt := range incoming {
		if _, dup := seen[attempt.AttemptID]; dup {
			continue
		}
		seen[attempt.AttemptID] = struct{}{}
		merged = append(merged, attempt)
		imported++
	}

	return merged, models.MergeSummary{
		ImportedCount: imported,
		SkippedCount:  len(incoming) - imported,
	}
}

// LocalOnly returns the attempts from local whose ids are absent from remote.
// The sync cycle pushes exactly these outward after a pull.
func LocalOnly(local, remote []models.QuizAttempt) []models.QuizAttempt {
	remoteIDs := make(map[string]struct{}, len(remote))
	for _, attempt := range remote {
		remoteIDs[attempt.AttemptID] = struct{}{}
	}

	var only []models.QuizAttempt
	for _, attempt := range local {
		if _, ok := remoteIDs[attempt.AttemptID]; !ok {
			only = append(only, attempt)
		}
	}
	return only
}
