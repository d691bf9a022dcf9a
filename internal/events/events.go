// Package events carries attempt-store change notifications between the
// remote store and the sync orchestrator's live subscription, and announces
// merges to any interested downstream consumer.
package events

import (
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	// EventAttemptsChanged is published after a batch of attempts is written
	// to the remote store for a principal.
	EventAttemptsChanged EventType = "attempts.changed"

	// EventAttemptsImported is published when a sync cycle merges previously
	// unseen remote attempts into the local history.
	EventAttemptsImported EventType = "attempts.imported"
)

const eventSource = "sync-service"

// Event is the wire shape shared by all attempt events.
type Event struct {
	ID          string    `json:"id"`
	Type        EventType `json:"type"`
	PrincipalID string    `json:"principal_id"`
	Count       int       `json:"count"`
	Source      string    `json:"source"`
	Timestamp   time.Time `json:"timestamp"`
}

// NewEvent builds an event stamped with a fresh id and the current time.
func NewEvent(eventType EventType, principalID string, count int) *Event {
	return &Event{
		ID:          uuid.NewString(),
		Type:        eventType,
		PrincipalID: principalID,
		Count:       count,
		Source:      eventSource,
		Timestamp:   time.Now().UTC(),
	}
}
