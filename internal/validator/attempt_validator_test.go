package validator

import (
	"encoding/json"
	"errors"
	"testing"

	apperrors "github.com/quizfolio/sync-service/internal/errors"
	"github.com/quizfolio/sync-service/internal/models"
)

const validAttemptJSON = `{
	"attemptId": "a-1",
	"quizId": "quiz-1",
	"quizTitle": "Sample Quiz",
	"startedAt": "2025-03-01T10:00:00Z",
	"completedAt": "2025-03-01T10:05:00Z",
	"scorePercent": 0,
	"correctCount": 0,
	"totalCount": 5,
	"answers": [
		{"questionId": "q1", "questionNumber": 1, "selectedOptionId": "a", "correctOptionId": "b", "isCorrect": false}
	]
}`

func TestValidateRaw(t *testing.T) {
	v := New()

	t.Run("valid_record", func(t *testing.T) {
		attempt, err := v.ValidateRaw(json.RawMessage(validAttemptJSON), 0)
		if err != nil {
			t.Fatalf("Expected valid record, got %v", err)
		}
		if attempt.AttemptID != "a-1" {
			t.Errorf("Expected attemptId a-1, got %s", attempt.AttemptID)
		}
		if attempt.ScorePercent != 0 {
			t.Errorf("Zero score must survive validation, got %d", attempt.ScorePercent)
		}
		if len(attempt.Answers) != 1 || attempt.Answers[0].QuestionNumber != 1 {
			t.Errorf("Answers not carried through: %+v", attempt.Answers)
		}
	})

	t.Run("missing_field_names_field_and_index", func(t *testing.T) {
		raw := json.RawMessage(`{"attemptId": "a-1", "quizId": "quiz-1"}`)
		_, err := v.ValidateRaw(raw, 3)

		var validationErr *apperrors.ValidationError
		if !errors.As(err, &validationErr) {
			t.Fatalf("Expected ValidationError, got %v", err)
		}
		if validationErr.Index != 3 {
			t.Errorf("Expected index 3, got %d", validationErr.Index)
		}
		if validationErr.Field == "" {
			t.Error("Expected a named field in the error")
		}
	})

	t.Run("empty_string_rejected", func(t *testing.T) {
		var record map[string]interface{}
		if err := json.Unmarshal([]byte(validAttemptJSON), &record); err != nil {
			t.Fatal(err)
		}
		record["quizTitle"] = ""
		raw, _ := json.Marshal(record)

		_, err := v.ValidateRaw(raw, 0)
		var validationErr *apperrors.ValidationError
		if !errors.As(err, &validationErr) {
			t.Fatalf("Expected ValidationError for empty quizTitle, got %v", err)
		}
		if validationErr.Field != "quizTitle" {
			t.Errorf("Expected field quizTitle, got %s", validationErr.Field)
		}
	})

	t.Run("wrong_type_rejected", func(t *testing.T) {
		var record map[string]interface{}
		if err := json.Unmarshal([]byte(validAttemptJSON), &record); err != nil {
			t.Fatal(err)
		}
		record["totalCount"] = "five"
		raw, _ := json.Marshal(record)

		_, err := v.ValidateRaw(raw, 0)
		var validationErr *apperrors.ValidationError
		if !errors.As(err, &validationErr) {
			t.Fatalf("Expected ValidationError for string totalCount, got %v", err)
		}
	})

	t.Run("non_object_rejected", func(t *testing.T) {
		_, err := v.ValidateRaw(json.RawMessage(`"just a string"`), 0)
		var validationErr *apperrors.ValidationError
		if !errors.As(err, &validationErr) {
			t.Fatalf("Expected ValidationError for non-object, got %v", err)
		}
	})

	t.Run("missing_answers_rejected", func(t *testing.T) {
		var record map[string]interface{}
		if err := json.Unmarshal([]byte(validAttemptJSON), &record); err != nil {
			t.Fatal(err)
		}
		delete(record, "answers")
		raw, _ := json.Marshal(record)

		_, err := v.ValidateRaw(raw, 0)
		if err == nil {
			t.Fatal("Expected error for missing answers")
		}
	})

	t.Run("invalid_answer_rejected", func(t *testing.T) {
		var record map[string]interface{}
		if err := json.Unmarshal([]byte(validAttemptJSON), &record); err != nil {
			t.Fatal(err)
		}
		record["answers"] = []map[string]interface{}{
			{"questionId": "q1", "questionNumber": 1},
		}
		raw, _ := json.Marshal(record)

		_, err := v.ValidateRaw(raw, 0)
		var validationErr *apperrors.ValidationError
		if !errors.As(err, &validationErr) {
			t.Fatalf("Expected ValidationError for incomplete answer, got %v", err)
		}
	})
}

func TestValidateAll(t *testing.T) {
	v := New()

	t.Run("all_valid", func(t *testing.T) {
		raws := []json.RawMessage{
			json.RawMessage(validAttemptJSON),
			json.RawMessage(validAttemptJSON),
		}
		attempts, err := v.ValidateAll(raws)
		if err != nil {
			t.Fatalf("Expected success, got %v", err)
		}
		if len(attempts) != 2 {
			t.Errorf("Expected 2 attempts, got %d", len(attempts))
		}
	})

	t.Run("fails_fast_on_first_invalid", func(t *testing.T) {
		raws := []json.RawMessage{
			json.RawMessage(validAttemptJSON),
			json.RawMessage(`{}`),
			json.RawMessage(validAttemptJSON),
		}
		attempts, err := v.ValidateAll(raws)
		if err == nil {
			t.Fatal("Expected error for invalid record in batch")
		}
		if attempts != nil {
			t.Errorf("Partial batch must not be returned, got %d attempts", len(attempts))
		}

		var validationErr *apperrors.ValidationError
		if !errors.As(err, &validationErr) {
			t.Fatalf("Expected ValidationError, got %v", err)
		}
		if validationErr.Index != 1 {
			t.Errorf("Expected failing index 1, got %d", validationErr.Index)
		}
	})
}

func TestValidateAttempt(t *testing.T) {
	v := New()

	attempt := models.QuizAttempt{
		AttemptID:   "a-1",
		QuizID:      "quiz-1",
		QuizTitle:   "Sample Quiz",
		StartedAt:   "2025-03-01T10:00:00Z",
		CompletedAt: "2025-03-01T10:05:00Z",
	}
	if err := v.ValidateAttempt(attempt, 0); err != nil {
		t.Errorf("Expected valid attempt, got %v", err)
	}

	missing := attempt
	missing.AttemptID = ""
	err := v.ValidateAttempt(missing, 2)
	var validationErr *apperrors.ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("Expected ValidationError, got %v", err)
	}
	if validationErr.Field != "attemptId" || validationErr.Index != 2 {
		t.Errorf("Unexpected error details: %+v", validationErr)
	}
}
