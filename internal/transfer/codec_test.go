package transfer

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	apperrors "github.com/quizfolio/sync-service/internal/errors"
	"github.com/quizfolio/sync-service/internal/models"
	"github.com/quizfolio/sync-service/internal/validator"
)

func newTestCodec() *Codec {
	return NewCodec(validator.New())
}

func sampleAttempt(id string) models.QuizAttempt {
	return models.QuizAttempt{
		AttemptID:    id,
		QuizID:       "quiz-1",
		QuizTitle:    "Sample Quiz",
		StartedAt:    "2025-03-01T10:00:00Z",
		CompletedAt:  "2025-03-01T10:05:00Z",
		ScorePercent: 60,
		CorrectCount: 3,
		TotalCount:   5,
		Answers: []models.QuestionAnswer{
			{QuestionID: "q1", QuestionNumber: 1, SelectedOptionID: "a", CorrectOptionID: "a", IsCorrect: true},
			{QuestionID: "q2", QuestionNumber: 2, SelectedOptionID: "b", CorrectOptionID: "c", IsCorrect: false},
		},
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	codec := newTestCodec()
	attempts := []models.QuizAttempt{sampleAttempt("a"), sampleAttempt("b")}
	now := time.Date(2025, 3, 2, 12, 0, 0, 0, time.UTC)

	payload := codec.BuildExportPayload(attempts, now)
	if payload.Version != models.TransferVersion {
		t.Errorf("Expected version %d, got %d", models.TransferVersion, payload.Version)
	}
	if payload.ExportedAt != "2025-03-02T12:00:00Z" {
		t.Errorf("Unexpected exportedAt stamp: %s", payload.ExportedAt)
	}

	data, err := codec.Serialize(payload)
	if err != nil {
		t.Fatalf("Serialize failed: %v", err)
	}

	parsed, err := codec.ParseTransferText(data)
	if err != nil {
		t.Fatalf("ParseTransferText failed on exported payload: %v", err)
	}
	if len(parsed.Attempts) != len(attempts) {
		t.Fatalf("Expected %d attempts after round trip, got %d", len(attempts), len(parsed.Attempts))
	}
	for i, attempt := range parsed.Attempts {
		if attempt.AttemptID != attempts[i].AttemptID {
			t.Errorf("Attempt %d id changed: %s vs %s", i, attempt.AttemptID, attempts[i].AttemptID)
		}
		if len(attempt.Answers) != len(attempts[i].Answers) {
			t.Errorf("Attempt %d lost answers: %d vs %d", i, len(attempt.Answers), len(attempts[i].Answers))
		}
	}
	if parsed.ExportedAt != payload.ExportedAt {
		t.Errorf("exportedAt not preserved: %s vs %s", parsed.ExportedAt, payload.ExportedAt)
	}
}

func TestParseTransferText(t *testing.T) {
	codec := newTestCodec()

	t.Run("version_defaults_when_absent", func(t *testing.T) {
		envelope, err := codec.ParseTransferText([]byte(`{"attempts": []}`))
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if envelope.Version != models.TransferVersion {
			t.Errorf("Expected default version %d, got %d", models.TransferVersion, envelope.Version)
		}
	})

	t.Run("version_defaults_when_non_numeric", func(t *testing.T) {
		envelope, err := codec.ParseTransferText([]byte(`{"version": "two", "attempts": []}`))
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if envelope.Version != models.TransferVersion {
			t.Errorf("Expected default version %d, got %d", models.TransferVersion, envelope.Version)
		}
	})

	t.Run("future_version_accepted", func(t *testing.T) {
		envelope, err := codec.ParseTransferText([]byte(`{"version": 7, "attempts": []}`))
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if envelope.Version != 7 {
			t.Errorf("Expected version 7, got %d", envelope.Version)
		}
	})

	t.Run("rejects_invalid_json", func(t *testing.T) {
		_, err := codec.ParseTransferText([]byte(`{not json`))
		var parseErr *apperrors.ParseError
		if !errors.As(err, &parseErr) {
			t.Fatalf("Expected ParseError, got %v", err)
		}
	})

	t.Run("rejects_null_document", func(t *testing.T) {
		_, err := codec.ParseTransferText([]byte(`null`))
		var parseErr *apperrors.ParseError
		if !errors.As(err, &parseErr) {
			t.Fatalf("Expected ParseError, got %v", err)
		}
	})

	t.Run("rejects_missing_attempts", func(t *testing.T) {
		_, err := codec.ParseTransferText([]byte(`{"version": 1}`))
		var parseErr *apperrors.ParseError
		if !errors.As(err, &parseErr) {
			t.Fatalf("Expected ParseError, got %v", err)
		}
		if !strings.Contains(err.Error(), "attempts") {
			t.Errorf("Expected error to mention attempts, got %q", err.Error())
		}
	})

	t.Run("rejects_non_array_attempts", func(t *testing.T) {
		_, err := codec.ParseTransferText([]byte(`{"attempts": {"a": 1}}`))
		var parseErr *apperrors.ParseError
		if !errors.As(err, &parseErr) {
			t.Fatalf("Expected ParseError, got %v", err)
		}
	})

	t.Run("rejects_null_attempts", func(t *testing.T) {
		_, err := codec.ParseTransferText([]byte(`{"version": 1, "attempts": null}`))
		var parseErr *apperrors.ParseError
		if !errors.As(err, &parseErr) {
			t.Fatalf("Expected ParseError for null attempts, got %v", err)
		}
	})

	t.Run("accepts_empty_attempts_array", func(t *testing.T) {
		envelope, err := codec.ParseTransferText([]byte(`{"attempts": []}`))
		if err != nil {
			t.Fatalf("Unexpected error for empty array: %v", err)
		}
		if len(envelope.Attempts) != 0 {
			t.Errorf("Expected no attempts, got %d", len(envelope.Attempts))
		}
	})

	t.Run("one_bad_record_rejects_whole_file", func(t *testing.T) {
		codec := newTestCodec()
		valid, err := codec.Serialize(codec.BuildExportPayload(
			[]models.QuizAttempt{sampleAttempt("a")}, time.Now()))
		if err != nil {
			t.Fatalf("Serialize failed: %v", err)
		}

		doc := `{"version": 1, "attempts": [` +
			string(extractFirstAttempt(t, valid)) +
			`, {"attemptId": "b"}]}`

		_, err = codec.ParseTransferText([]byte(doc))
		var validationErr *apperrors.ValidationError
		if !errors.As(err, &validationErr) {
			t.Fatalf("Expected ValidationError, got %v", err)
		}
		if validationErr.Index != 1 {
			t.Errorf("Expected failure at index 1, got %d", validationErr.Index)
		}
	})

	t.Run("rejects_wrong_field_type", func(t *testing.T) {
		doc := `{"attempts": [{
			"attemptId": "a", "quizId": "q", "quizTitle": "T",
			"startedAt": "s", "completedAt": "c",
			"scorePercent": "eighty", "correctCount": 4, "totalCount": 5,
			"answers": []
		}]}`

		_, err := codec.ParseTransferText([]byte(doc))
		var validationErr *apperrors.ValidationError
		if !errors.As(err, &validationErr) {
			t.Fatalf("Expected ValidationError, got %v", err)
		}
	})

	t.Run("accepts_zero_score", func(t *testing.T) {
		attempt := sampleAttempt("a")
		attempt.ScorePercent = 0
		attempt.CorrectCount = 0

		data, err := codec.Serialize(codec.BuildExportPayload(
			[]models.QuizAttempt{attempt}, time.Now()))
		if err != nil {
			t.Fatalf("Serialize failed: %v", err)
		}
		envelope, err := codec.ParseTransferText(data)
		if err != nil {
			t.Fatalf("Zero score should be valid, got %v", err)
		}
		if envelope.Attempts[0].ScorePercent != 0 {
			t.Errorf("Expected score 0, got %d", envelope.Attempts[0].ScorePercent)
		}
	})
}

func TestReadEnvelope(t *testing.T) {
	codec := newTestCodec()
	envelope, err := codec.ReadEnvelope(strings.NewReader(`{"attempts": []}`))
	if err != nil {
		t.Fatalf("ReadEnvelope failed: %v", err)
	}
	if len(envelope.Attempts) != 0 {
		t.Errorf("Expected empty attempts, got %d", len(envelope.Attempts))
	}
}

// extractFirstAttempt pulls the serialized first attempt object out of an
// exported document so tests can splice it into hand-built documents.
func extractFirstAttempt(t *testing.T, exported []byte) []byte {
	t.Helper()
	envelope, err := newTestCodec().ParseTransferText(exported)
	if err != nil {
		t.Fatalf("Failed to reparse exported document: %v", err)
	}
	data, err := json.Marshal(envelope.Attempts[0])
	if err != nil {
		t.Fatalf("Failed to marshal attempt: %v", err)
	}
	return data
}
