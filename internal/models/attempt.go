package models

import (
	"math"
	"sort"

	"github.com/google/uuid"
)

// QuestionAnswer is one answered question inside an attempt. Immutable once
// recorded; the JSON field names are the wire format shared with the transfer
// file and the remote store.
type QuestionAnswer struct {
	QuestionID       string `json:"questionId"`
	QuestionNumber   int    `json:"questionNumber"`
	SelectedOptionID string `json:"selectedOptionId"`
	CorrectOptionID  string `json:"correctOptionId"`
	IsCorrect        bool   `json:"isCorrect"`
}

// QuizAttempt is the unit of record: one completed run of a quiz.
//
// AttemptID is the merge identity. Attempts are immutable after creation;
// reconciliation only ever adds whole attempts to a collection or skips them,
// it never edits fields of an existing one.
type QuizAttempt struct {
	AttemptID    string           `json:"attemptId"`
	QuizID       string           `json:"quizId"`
	QuizTitle    string           `json:"quizTitle"`
	StartedAt    string           `json:"startedAt"`
	CompletedAt  string           `json:"completedAt"`
	ScorePercent int              `json:"scorePercent"`
	CorrectCount int              `json:"correctCount"`
	TotalCount   int              `json:"totalCount"`
	Answers      []QuestionAnswer `json:"answers"`
}

// NewAttemptID returns a fresh attempt identifier. V4 UUIDs keep the
// cross-client collision probability negligible, which the merge key relies on.
func NewAttemptID() string {
	return uuid.NewString()
}

// AttemptScore is the integral summary computed from a set of answers.
type AttemptScore struct {
	Answers      []QuestionAnswer
	CorrectCount int
	TotalCount   int
	ScorePercent int
}

// ScoreAnswers orders answers by question number and computes the score
// summary. A zero totalCount scores as 0 percent.
func ScoreAnswers(answers []QuestionAnswer, totalCount int) AttemptScore {
	ordered := make([]QuestionAnswer, len(answers))
	copy(ordered, answers)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].QuestionNumber < ordered[j].QuestionNumber
	})

	correct := 0
	for _, answer := range ordered {
		if answer.IsCorrect {
			correct++
		}
	}

	percent := 0
	if totalCount > 0 {
		percent = int(math.Round(float64(correct) / float64(totalCount) * 100))
	}

	return AttemptScore{
		Answers:      ordered,
		CorrectCount: correct,
		TotalCount:   totalCount,
		ScorePercent: percent,
	}
}
