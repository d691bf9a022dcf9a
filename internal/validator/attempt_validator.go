package validator

import (
	"encoding/json"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	apperrors "github.com/quizfolio/sync-service/internal/errors"
	"github.com/quizfolio/sync-service/internal/models"
)

// Wire shapes use pointer fields so an absent field is distinguishable from a
// zero value. A score of 0 is valid; a missing score is not.
type wireAnswer struct {
	QuestionID       *string `json:"questionId" validate:"required,min=1"`
	QuestionNumber   *int    `json:"questionNumber" validate:"required"`
	SelectedOptionID *string `json:"selectedOptionId" validate:"required,min=1"`
	CorrectOptionID  *string `json:"correctOptionId" validate:"required,min=1"`
	IsCorrect        *bool   `json:"isCorrect" validate:"required"`
}

type wireAttempt struct {
	AttemptID    *string      `json:"attemptId" validate:"required,min=1"`
	QuizID       *string      `json:"quizId" validate:"required,min=1"`
	QuizTitle    *string      `json:"quizTitle" validate:"required,min=1"`
	StartedAt    *string      `json:"startedAt" validate:"required,min=1"`
	CompletedAt  *string      `json:"completedAt" validate:"required,min=1"`
	ScorePercent *int         `json:"scorePercent" validate:"required"`
	CorrectCount *int         `json:"correctCount" validate:"required"`
	TotalCount   *int         `json:"totalCount" validate:"required"`
	Answers      []wireAnswer `json:"answers" validate:"required,dive"`
}

// AttemptValidator validates untyped attempt records coming from file imports
// or remote pulls. Validation is fail-fast: the first invalid record aborts
// the entire batch.
type AttemptValidator struct {
	validate *validator.Validate
}

func New() *AttemptValidator {
	v := validator.New()

	// Report JSON field names in errors rather than Go struct names.
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return &AttemptValidator{validate: v}
}

// ValidateRaw validates a single raw record and returns the typed attempt.
// The index is the position of the record within its batch and is carried
// into any validation error.
func (v *AttemptValidator) ValidateRaw(raw json.RawMessage, index int) (models.QuizAttempt, error) {
	var wire wireAttempt
	if err := json.Unmarshal(raw, &wire); err != nil {
		if typeErr, ok := err.(*json.UnmarshalTypeError); ok {
			return models.QuizAttempt{}, apperrors.NewValidationError(
				typeErr.Field, index, "has the wrong type", typeErr.Value)
		}
		return models.QuizAttempt{}, apperrors.NewValidationError("", index, "is not an object", nil)
	}

	if err := v.validate.Struct(&wire); err != nil {
		return models.QuizAttempt{}, apperrors.FromFieldError(err, index)
	}

	answers := make([]models.QuestionAnswer, len(wire.Answers))
	for i, answer := range wire.Answers {
		answers[i] = models.QuestionAnswer{
			QuestionID:       *answer.QuestionID,
			QuestionNumber:   *answer.QuestionNumber,
			SelectedOptionID: *answer.SelectedOptionID,
			CorrectOptionID:  *answer.CorrectOptionID,
			IsCorrect:        *answer.IsCorrect,
		}
	}

	return models.QuizAttempt{
		AttemptID:    *wire.AttemptID,
		QuizID:       *wire.QuizID,
		QuizTitle:    *wire.QuizTitle,
		StartedAt:    *wire.StartedAt,
		CompletedAt:  *wire.CompletedAt,
		ScorePercent: *wire.ScorePercent,
		CorrectCount: *wire.CorrectCount,
		TotalCount:   *wire.TotalCount,
		Answers:      answers,
	}, nil
}

// ValidateAll validates a batch of raw records in order, failing on the first
// invalid one. Nothing is returned from a partially valid batch.
func (v *AttemptValidator) ValidateAll(raws []json.RawMessage) ([]models.QuizAttempt, error) {
	attempts := make([]models.QuizAttempt, 0, len(raws))
	for i, raw := range raws {
		attempt, err := v.ValidateRaw(raw, i)
		if err != nil {
			return nil, err
		}
		attempts = append(attempts, attempt)
	}
	return attempts, nil
}

// ValidateAttempt checks an already-typed attempt, as received from the
// remote store. Typed records can still be missing identity fields.
func (v *AttemptValidator) ValidateAttempt(attempt models.QuizAttempt, index int) error {
	required := []struct {
		field string
		value string
	}{
		{"attemptId", attempt.AttemptID},
		{"quizId", attempt.QuizID},
		{"quizTitle", attempt.QuizTitle},
		{"startedAt", attempt.StartedAt},
		{"completedAt", attempt.CompletedAt},
	}
	for _, entry := range required {
		if entry.value == "" {
			return apperrors.NewValidationError(entry.field, index, "is required", nil)
		}
	}
	return nil
}
