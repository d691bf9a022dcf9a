// Package auth supplies the identity context the sync orchestrator consumes:
// whether sync capability is enabled, whether a principal is signed in, and
// who that principal is.
package auth

import (
	"context"
	"errors"
	"sync"
)

var (
	ErrSyncDisabled = errors.New("cloud sync is disabled: no sync backend is configured")
	ErrInvalidToken = errors.New("invalid credential token")
)

// Principal is the authenticated identity under which remote sync operates.
type Principal struct {
	ID    string `json:"id"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

// TokenVerifier turns a bearer credential into a principal.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*Principal, error)
}

// Session holds the current authentication state. Listeners registered with
// Notify are invoked after every sign-in and sign-out, which is how the
// orchestrator learns to re-point or tear down its subscription.
type Session struct {
	mu        sync.RWMutex
	enabled   bool
	principal *Principal
	verifier  TokenVerifier
	listeners []func()
}

// NewSession creates a session. A nil verifier means the deployment has no
// sync backend configured: the session stays disabled and sign-in fails.
func NewSession(verifier TokenVerifier) *Session {
	return &Session{
		enabled:  verifier != nil,
		verifier: verifier,
	}
}

func (s *Session) IsEnabled() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.enabled
}

func (s *Session) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.principal != nil
}

// PrincipalID returns the signed-in principal's id, or "" when signed out.
func (s *Session) PrincipalID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.principal == nil {
		return ""
	}
	return s.principal.ID
}

// Principal returns the signed-in principal, or nil.
func (s *Session) Principal() *Principal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.principal
}

// SignIn verifies the credential and installs its principal.
func (s *Session) SignIn(ctx context.Context, token string) (*Principal, error) {
	s.mu.RLock()
	enabled, verifier := s.enabled, s.verifier
	s.mu.RUnlock()

	if !enabled || verifier == nil {
		return nil, ErrSyncDisabled
	}
	principal, err := verifier.Verify(ctx, token)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.principal = principal
	s.mu.Unlock()

	s.notify()
	return principal, nil
}

// SignOut clears the current principal. Safe to call when already signed out.
func (s *Session) SignOut(ctx context.Context) {
	s.mu.Lock()
	wasSignedIn := s.principal != nil
	s.principal = nil
	s.mu.Unlock()

	if wasSignedIn {
		s.notify()
	}
}

// Notify registers a listener for auth state changes.
func (s *Session) Notify(listener func()) {
	s.mu.Lock()
	s.listeners = append(s.listeners, listener)
	s.mu.Unlock()
}

func (s *Session) notify() {
	s.mu.RLock()
	listeners := make([]func(), len(s.listeners))
	copy(listeners, s.listeners)
	s.mu.RUnlock()
	for _, listener := range listeners {
		listener()
	}
}
