package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/quizfolio/sync-service/internal/events"
	"github.com/quizfolio/sync-service/internal/models"
	"github.com/quizfolio/sync-service/internal/utils"
)

// AttemptDocument is one remote attempt row, keyed by (user, attempt). The
// fields mirror the QuizAttempt wire shape flat, with answers as a JSON
// column.
type AttemptDocument struct {
	UserID       string         `gorm:"primaryKey;size:255;column:user_id"`
	AttemptID    string         `gorm:"primaryKey;size:64;column:attempt_id"`
	QuizID       string         `gorm:"size:255;not null"`
	QuizTitle    string         `gorm:"size:500;not null"`
	StartedAt    string         `gorm:"size:64;not null"`
	CompletedAt  string         `gorm:"size:64;not null;index"`
	ScorePercent int            `gorm:"not null"`
	CorrectCount int            `gorm:"not null"`
	TotalCount   int            `gorm:"not null"`
	Answers      datatypes.JSON `gorm:"type:jsonb"`
	UpdatedAt    time.Time
}

func (AttemptDocument) TableName() string {
	return "quiz_attempt_documents"
}

// PostgresStore implements AttemptStore on a Postgres table, publishing an
// attempts.changed event after each successful push so live subscribers can
// re-pull.
type PostgresStore struct {
	db     *gorm.DB
	bus    events.Bus
	logger utils.Logger
}

func NewPostgresStore(db *gorm.DB, bus events.Bus, logger utils.Logger) *PostgresStore {
	return &PostgresStore{
		db:     db,
		bus:    bus,
		logger: logger,
	}
}

// Migrate creates the attempt document table.
func (s *PostgresStore) Migrate() error {
	return s.db.AutoMigrate(&AttemptDocument{})
}

func (s *PostgresStore) Fetch(ctx context.Context, principalID string) ([]models.QuizAttempt, error) {
	if principalID == "" {
		return nil, fmt.Errorf("cannot fetch attempts without a principal id")
	}

	var docs []AttemptDocument
	if err := s.db.WithContext(ctx).
		Where("user_id = ?", principalID).
		Find(&docs).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch remote attempts: %w", err)
	}

	attempts := make([]models.QuizAttempt, 0, len(docs))
	for _, doc := range docs {
		attempt, err := doc.toAttempt()
		if err != nil {
			return nil, err
		}
		attempts = append(attempts, attempt)
	}
	return attempts, nil
}

func (s *PostgresStore) Push(ctx context.Context, principalID string, attempts []models.QuizAttempt) error {
	if principalID == "" {
		return fmt.Errorf("cannot push attempts without a principal id")
	}
	if len(attempts) == 0 {
		return nil
	}

	for start := 0; start < len(attempts); start += BatchWriteLimit {
		end := start + BatchWriteLimit
		if end > len(attempts) {
			end = len(attempts)
		}

		docs := make([]AttemptDocument, 0, end-start)
		for _, attempt := range attempts[start:end] {
			doc, err := toDocument(principalID, attempt)
			if err != nil {
				return err
			}
			docs = append(docs, doc)
		}

		// Each chunk commits atomically; a conflicting row is overwritten
		// with identical content since attempts are immutable.
		err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(&docs).Error
		})
		if err != nil {
			return fmt.Errorf("failed to push attempts batch: %w", err)
		}
	}

	if err := s.bus.Publish(ctx, events.NewEvent(events.EventAttemptsChanged, principalID, len(attempts))); err != nil {
		// The write is durable; a lost change event only delays other
		// clients until their next full sync.
		s.logger.Warn("push succeeded but change event was not published",
			"principal_id", principalID, "error", err)
	}
	return nil
}

func (s *PostgresStore) Subscribe(ctx context.Context, principalID string, onChange func([]models.QuizAttempt), onError func(error)) (Disposer, error) {
	if principalID == "" {
		return func() {}, nil
	}

	subCtx, cancelCtx := context.WithCancel(ctx)
	var once sync.Once
	dispose := func() { once.Do(cancelCtx) }

	eventCh, err := s.bus.Subscribe(subCtx)
	if err != nil {
		dispose()
		return nil, err
	}

	go func() {
		for event := range eventCh {
			if event.Type != events.EventAttemptsChanged || event.PrincipalID != principalID {
				continue
			}
			attempts, err := s.Fetch(subCtx, principalID)
			if err != nil {
				if subCtx.Err() == nil {
					onError(err)
				}
				continue
			}
			onChange(attempts)
		}
	}()

	return dispose, nil
}

func toDocument(principalID string, attempt models.QuizAttempt) (AttemptDocument, error) {
	answers, err := json.Marshal(attempt.Answers)
	if err != nil {
		return AttemptDocument{}, fmt.Errorf("failed to encode answers for attempt %s: %w", attempt.AttemptID, err)
	}
	return AttemptDocument{
		UserID:       principalID,
		AttemptID:    attempt.AttemptID,
		QuizID:       attempt.QuizID,
		QuizTitle:    attempt.QuizTitle,
		StartedAt:    attempt.StartedAt,
		CompletedAt:  attempt.CompletedAt,
		ScorePercent: attempt.ScorePercent,
		CorrectCount: attempt.CorrectCount,
		TotalCount:   attempt.TotalCount,
		Answers:      datatypes.JSON(answers),
	}, nil
}

func (d AttemptDocument) toAttempt() (models.QuizAttempt, error) {
	var answers []models.QuestionAnswer
	if len(d.Answers) > 0 {
		if err := json.Unmarshal(d.Answers, &answers); err != nil {
			return models.QuizAttempt{}, fmt.Errorf("failed to decode answers for attempt %s: %w", d.AttemptID, err)
		}
	}
	return models.QuizAttempt{
		AttemptID:    d.AttemptID,
		QuizID:       d.QuizID,
		QuizTitle:    d.QuizTitle,
		StartedAt:    d.StartedAt,
		CompletedAt:  d.CompletedAt,
		ScorePercent: d.ScorePercent,
		CorrectCount: d.CorrectCount,
		TotalCount:   d.TotalCount,
		Answers:      answers,
	}, nil
}
