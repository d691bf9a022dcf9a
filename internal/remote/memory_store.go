package remote

import (
	"context"
	"errors"
	"sync"

	"github.com/quizfolio/sync-service/internal/models"
)

// MemoryStore is an in-memory AttemptStore for tests. It reproduces the
// remote semantics exactly: per-principal namespaces, documents keyed by
// attempt id, merge-on-conflict writes, and change notification fan-out.
type MemoryStore struct {
	mu          sync.Mutex
	collections map[string]map[string]models.QuizAttempt
	order       map[string][]string
	subscribers map[int]memorySubscriber
	nextSubID   int

	// Failure injection for tests.
	FetchErr error
	PushErr  error

	// Call accounting for tests.
	FetchCalls int
	PushCalls  int
	Pushed     [][]models.QuizAttempt
}

type memorySubscriber struct {
	principalID string
	onChange    func([]models.QuizAttempt)
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		collections: make(map[string]map[string]models.QuizAttempt),
		order:       make(map[string][]string),
		subscribers: make(map[int]memorySubscriber),
	}
}

// Seed installs attempts for a principal without notifying subscribers.
func (s *MemoryStore) Seed(principalID string, attempts []models.QuizAttempt) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writeLocked(principalID, attempts)
}

func (s *MemoryStore) Fetch(ctx context.Context, principalID string) ([]models.QuizAttempt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.FetchCalls++
	if s.FetchErr != nil {
		return nil, s.FetchErr
	}
	return s.snapshotLocked(principalID), nil
}

func (s *MemoryStore) Push(ctx context.Context, principalID string, attempts []models.QuizAttempt) error {
	if principalID == "" {
		return errors.New("cannot push attempts without a principal id")
	}

	s.mu.Lock()
	s.PushCalls++
	if s.PushErr != nil {
		s.mu.Unlock()
		return s.PushErr
	}
	s.Pushed = append(s.Pushed, attempts)
	s.writeLocked(principalID, attempts)
	snapshot := s.snapshotLocked(principalID)
	subscribers := make([]memorySubscriber, 0, len(s.subscribers))
	for _, sub := range s.subscribers {
		if sub.principalID == principalID {
			subscribers = append(subscribers, sub)
		}
	}
	s.mu.Unlock()

	for _, sub := range subscribers {
		sub.onChange(snapshot)
	}
	return nil
}

func (s *MemoryStore) Subscribe(ctx context.Context, principalID string, onChange func([]models.QuizAttempt), onError func(error)) (Disposer, error) {
	s.mu.Lock()
	id := s.nextSubID
	s.nextSubID++
	s.subscribers[id] = memorySubscriber{principalID: principalID, onChange: onChange}
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subscribers, id)
			s.mu.Unlock()
		})
	}, nil
}

// NotifyChange pushes the current collection to matching subscribers, as a
// remote-originated change would.
func (s *MemoryStore) NotifyChange(principalID string) {
	s.mu.Lock()
	snapshot := s.snapshotLocked(principalID)
	subscribers := make([]memorySubscriber, 0, len(s.subscribers))
	for _, sub := range s.subscribers {
		if sub.principalID == principalID {
			subscribers = append(subscribers, sub)
		}
	}
	s.mu.Unlock()

	for _, sub := range subscribers {
		sub.onChange(snapshot)
	}
}

// SubscriberCount reports how many live subscriptions exist.
func (s *MemoryStore) SubscriberCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subscribers)
}

func (s *MemoryStore) writeLocked(principalID string, attempts []models.QuizAttempt) {
	docs, ok := s.collections[principalID]
	if !ok {
		docs = make(map[string]models.QuizAttempt)
		s.collections[principalID] = docs
	}
	for _, attempt := range attempts {
		if _, exists := docs[attempt.AttemptID]; !exists {
			s.order[principalID] = append(s.order[principalID], attempt.AttemptID)
		}
		docs[attempt.AttemptID] = attempt
	}
}

func (s *MemoryStore) snapshotLocked(principalID string) []models.QuizAttempt {
	ids := s.order[principalID]
	docs := s.collections[principalID]
	attempts := make([]models.QuizAttempt, 0, len(ids))
	for _, id := range ids {
		attempts = append(attempts, docs[id])
	}
	return attempts
}
