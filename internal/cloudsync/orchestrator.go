// Package cloudsync coordinates synchronization between the local attempt
// history and the remote attempt store: one-at-a-time pull+merge+push cycles,
// a live change subscription, and the status machine the UI reads.
package cloudsync

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/quizfolio/sync-service/internal/attempts"
	"github.com/quizfolio/sync-service/internal/auth"
	"github.com/quizfolio/sync-service/internal/events"
	"github.com/quizfolio/sync-service/internal/merge"
	"github.com/quizfolio/sync-service/internal/models"
	"github.com/quizfolio/sync-service/internal/remote"
	"github.com/quizfolio/sync-service/internal/utils"
)

// Status is the orchestrator's user-visible sync state.
type Status string

const (
	StatusDisabled Status = "disabled"
	StatusIdle     Status = "idle"
	StatusSyncing  Status = "syncing"
	StatusSuccess  Status = "success"
	StatusError    Status = "error"
)

// NotificationTTL is how long an import notification stays up before it
// dismisses itself.
const NotificationTTL = 4 * time.Second

// Notification tells the UI that a sync cycle merged new remote attempts.
type Notification struct {
	ID    int64 `json:"id"`
	Count int   `json:"count"`
}

// State is a point-in-time view of the orchestrator for status consumers.
type State struct {
	Status            Status        `json:"status"`
	Enabled           bool          `json:"enabled"`
	Authenticated     bool          `json:"authenticated"`
	Error             string        `json:"error,omitempty"`
	LastSyncTime      string        `json:"lastSyncTime,omitempty"`
	LastImportedCount int           `json:"lastImportedCount"`
	Notification      *Notification `json:"notification,omitempty"`
}

// Orchestrator owns the sync lifecycle for the session's principal.
//
// TriggerSync is single-flight: a trigger arriving while a cycle is running
// attaches to that cycle instead of racing it. Every cycle is tagged with the
// auth generation it started under; a sign-out or principal switch bumps the
// generation and the late-resolving cycle's results are discarded.
type Orchestrator struct {
	history *attempts.History
	store   remote.AttemptStore
	session *auth.Session
	bus     events.Bus
	logger  utils.Logger

	group singleflight.Group

	// applyMu serializes merge application with auth-change generation
	// bumps: a sign-out cannot land between a cycle's generation check and
	// its persist, and a sign-out observed before the check always wins.
	applyMu sync.Mutex

	ctx    context.Context
	cancel context.CancelFunc

	mu            sync.Mutex
	status        Status
	errMessage    string
	lastSyncTime  time.Time
	lastImported  int
	notification  *Notification
	dismissTimer  *time.Timer
	generation    uint64
	unsubscribe   remote.Disposer
	started       bool
}

// New constructs an orchestrator. Call Start to begin reacting to auth state
// and remote changes, and Close to tear everything down.
func New(history *attempts.History, store remote.AttemptStore, session *auth.Session, bus events.Bus, logger utils.Logger) *Orchestrator {
	ctx, cancel := context.WithCancel(context.Background())
	status := StatusDisabled
	if session.IsEnabled() {
		status = StatusIdle
	}
	return &Orchestrator{
		history: history,
		store:   store,
		session: session,
		bus:     bus,
		logger:  logger,
		ctx:     ctx,
		cancel:  cancel,
		status:  status,
	}
}

// Start wires the orchestrator to auth changes and, when a principal is
// already signed in, establishes the subscription and kicks off an initial
// background sync.
func (o *Orchestrator) Start() {
	o.mu.Lock()
	if o.started {
		o.mu.Unlock()
		return
	}
	o.started = true
	o.mu.Unlock()

	o.session.Notify(o.handleAuthChange)
	o.handleAuthChange()
}

// Close tears down the subscription and stops all background work. Idempotent.
func (o *Orchestrator) Close() {
	o.cancel()
	o.mu.Lock()
	unsubscribe := o.unsubscribe
	o.unsubscribe = nil
	if o.dismissTimer != nil {
		o.dismissTimer.Stop()
		o.dismissTimer = nil
	}
	o.mu.Unlock()
	if unsubscribe != nil {
		unsubscribe()
	}
}

// handleAuthChange re-derives orchestrator state from the session: tears down
// the stale subscription, bumps the generation so in-flight cycles cannot
// apply, and re-establishes sync for the new principal if there is one.
func (o *Orchestrator) handleAuthChange() {
	enabled := o.session.IsEnabled()
	principalID := o.session.PrincipalID()

	o.applyMu.Lock()
	o.mu.Lock()
	o.generation++
	generation := o.generation
	unsubscribe := o.unsubscribe
	o.unsubscribe = nil

	switch {
	case !enabled:
		o.status = StatusDisabled
		o.errMessage = ""
		o.clearNotificationLocked()
	case principalID == "":
		o.status = StatusIdle
		o.errMessage = ""
		o.lastImported = 0
		o.clearNotificationLocked()
	default:
		if o.status == StatusDisabled {
			o.status = StatusIdle
		}
	}
	o.mu.Unlock()
	o.applyMu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
	if !enabled || principalID == "" {
		return
	}

	o.subscribe(principalID, generation)

	// Initial sync for the new principal runs in the background; failures
	// land in status, never on the caller.
	go func() {
		if err := o.TriggerSync(o.ctx); err != nil {
			o.logger.Warn("background sync failed", "principal_id", principalID, "error", err)
		}
	}()
}

// TriggerSync runs one pull+merge+push cycle for the current principal.
// A no-op when sync is disabled or nobody is signed in. Concurrent callers
// share a single in-flight cycle and observe its outcome.
func (o *Orchestrator) TriggerSync(ctx context.Context) error {
	if !o.session.IsEnabled() || !o.session.IsAuthenticated() {
		return nil
	}
	principalID := o.session.PrincipalID()

	o.mu.Lock()
	generation := o.generation
	o.mu.Unlock()

	_, err, _ := o.group.Do("sync", func() (interface{}, error) {
		return nil, o.performSync(ctx, principalID, generation)
	})
	return err
}

func (o *Orchestrator) performSync(ctx context.Context, principalID string, generation uint64) error {
	o.updateIfCurrent(generation, func() {
		o.status = StatusSyncing
		o.errMessage = ""
	})

	local := o.history.Snapshot()

	remoteAttempts, err := o.store.Fetch(ctx, principalID)
	if err != nil {
		return o.failSync(generation, err)
	}

	merged, summary := merge.Merge(local, remoteAttempts)
	if summary.ImportedCount > 0 {
		if !o.applyMerged(ctx, generation, principalID, merged, summary.ImportedCount) {
			return nil
		}
	}

	localOnly := merge.LocalOnly(local, remoteAttempts)
	if len(localOnly) > 0 {
		if o.stale(generation) {
			return nil
		}
		if err := o.store.Push(ctx, principalID, localOnly); err != nil {
			return o.failSync(generation, err)
		}
	}

	o.updateIfCurrent(generation, func() {
		o.status = StatusSuccess
		o.errMessage = ""
		o.lastSyncTime = time.Now().UTC()
	})
	return nil
}

// PushAttempt writes a single freshly recorded attempt to the remote store
// without waiting for a full cycle. Failures are absorbed into status; the
// next full sync will deliver the attempt.
func (o *Orchestrator) PushAttempt(ctx context.Context, attempt models.QuizAttempt) {
	if !o.session.IsEnabled() || !o.session.IsAuthenticated() {
		return
	}
	principalID := o.session.PrincipalID()

	o.mu.Lock()
	generation := o.generation
	o.mu.Unlock()

	if err := o.store.Push(ctx, principalID, []models.QuizAttempt{attempt}); err != nil {
		o.logger.LogError(err, "failed to push attempt", "attempt_id", attempt.AttemptID)
		o.updateIfCurrent(generation, func() {
			o.status = StatusError
			o.errMessage = "Unable to sync attempts at this time."
		})
		return
	}

	o.updateIfCurrent(generation, func() {
		o.status = StatusSuccess
		o.lastSyncTime = time.Now().UTC()
	})
}

// DismissNotification clears the current import notification, if any.
func (o *Orchestrator) DismissNotification() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.clearNotificationLocked()
}

// CurrentState returns a snapshot of the orchestrator's user-visible state.
func (o *Orchestrator) CurrentState() State {
	o.mu.Lock()
	defer o.mu.Unlock()

	state := State{
		Status:            o.status,
		Enabled:           o.session.IsEnabled(),
		Authenticated:     o.session.IsAuthenticated(),
		Error:             o.errMessage,
		LastImportedCount: o.lastImported,
	}
	if !o.lastSyncTime.IsZero() {
		state.LastSyncTime = o.lastSyncTime.Format(time.RFC3339)
	}
	if o.notification != nil {
		copied := *o.notification
		state.Notification = &copied
	}
	return state
}

// Status returns the current sync status.
func (o *Orchestrator) Status() Status {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.status
}

// LastImportedCount returns how many attempts the most recent merge imported.
func (o *Orchestrator) LastImportedCount() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.lastImported
}

// Notification returns the active import notification, or nil.
func (o *Orchestrator) Notification() *Notification {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.notification == nil {
		return nil
	}
	copied := *o.notification
	return &copied
}

// subscribe establishes the live remote subscription for a principal. Change
// events re-run the merge step only; pushing on every remote echo would
// write back what the remote just told us.
func (o *Orchestrator) subscribe(principalID string, generation uint64) {
	unsubscribe, err := o.store.Subscribe(o.ctx, principalID,
		func(remoteAttempts []models.QuizAttempt) {
			if o.stale(generation) {
				return
			}
			local := o.history.Snapshot()
			merged, summary := merge.Merge(local, remoteAttempts)
			if summary.ImportedCount > 0 {
				if !o.applyMerged(o.ctx, generation, principalID, merged, summary.ImportedCount) {
					return
				}
			}
			o.updateIfCurrent(generation, func() {
				if o.status != StatusDisabled {
					o.status = StatusSuccess
				}
				o.errMessage = ""
				o.lastSyncTime = time.Now().UTC()
			})
		},
		func(err error) {
			o.logger.LogError(err, "remote subscription error", "principal_id", principalID)
			o.updateIfCurrent(generation, func() {
				o.status = StatusError
				o.errMessage = err.Error()
			})
		},
	)
	if err != nil {
		o.logger.LogError(err, "failed to subscribe to remote changes", "principal_id", principalID)
		o.updateIfCurrent(generation, func() {
			o.status = StatusError
			o.errMessage = err.Error()
		})
		return
	}

	o.mu.Lock()
	if o.generation == generation {
		o.unsubscribe = unsubscribe
		o.mu.Unlock()
		return
	}
	o.mu.Unlock()
	// Auth state moved on while we were subscribing.
	unsubscribe()
}

// applyMerged persists a merged collection and raises the import
// notification. Returns false when the cycle's generation has been superseded
// and nothing was applied.
func (o *Orchestrator) applyMerged(ctx context.Context, generation uint64, principalID string, merged []models.QuizAttempt, importedCount int) bool {
	o.applyMu.Lock()
	defer o.applyMu.Unlock()

	o.mu.Lock()
	if o.generation != generation {
		o.mu.Unlock()
		return false
	}
	o.mu.Unlock()

	if err := o.history.Replace(ctx, merged); err != nil {
		o.logger.LogError(err, "failed to persist merged attempts")
		o.updateIfCurrent(generation, func() {
			o.status = StatusError
			o.errMessage = err.Error()
		})
		return false
	}

	notification := &Notification{
		ID:    time.Now().UnixMilli(),
		Count: importedCount,
	}
	o.updateIfCurrent(generation, func() {
		o.lastImported = importedCount
		o.setNotificationLocked(notification)
	})

	if o.bus != nil {
		if err := o.bus.Publish(ctx, events.NewEvent(events.EventAttemptsImported, principalID, importedCount)); err != nil {
			o.logger.Warn("failed to announce imported attempts", "error", err)
		}
	}
	return true
}

func (o *Orchestrator) failSync(generation uint64, err error) error {
	wrapped := fmt.Errorf("sync failed: %w", err)
	o.updateIfCurrent(generation, func() {
		o.status = StatusError
		o.errMessage = err.Error()
	})
	return wrapped
}

func (o *Orchestrator) stale(generation uint64) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.generation != generation
}

// updateIfCurrent runs a state mutation under the lock, but only when the
// cycle that requested it is still the current generation.
func (o *Orchestrator) updateIfCurrent(generation uint64, apply func()) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.generation != generation {
		return
	}
	apply()
}

// setNotificationLocked installs a notification and schedules its
// auto-dismiss. Caller holds the lock via updateIfCurrent.
func (o *Orchestrator) setNotificationLocked(notification *Notification) {
	if o.dismissTimer != nil {
		o.dismissTimer.Stop()
	}
	o.notification = notification
	id := notification.ID
	o.dismissTimer = time.AfterFunc(NotificationTTL, func() {
		o.mu.Lock()
		defer o.mu.Unlock()
		if o.notification != nil && o.notification.ID == id {
			o.clearNotificationLocked()
		}
	})
}

func (o *Orchestrator) clearNotificationLocked() {
	o.notification = nil
	if o.dismissTimer != nil {
		o.dismissTimer.Stop()
		o.dismissTimer = nil
	}
}
