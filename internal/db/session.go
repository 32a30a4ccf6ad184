package db

import (
	"context"

	"bazaar-backend-go/internal/models"
	"bazaar-backend-go/internal/state"
)

// AuthSession is the long-lived mutable session owned by the auth repository.
// It holds the signed-in user and broadcasts auth transitions to subscribers.
type AuthSession struct {
	store *state.Store[*models.User]
}

// NewAuthSession creates a signed-out session.
func NewAuthSession() *AuthSession {
	return &AuthSession{store: state.NewStore[*models.User](nil)}
}

// Current returns the signed-in user, or nil when unauthenticated.
func (s *AuthSession) Current() *models.User {
	return s.store.Get()
}

// set replaces the session user and notifies subscribers. A nil user marks
// the session as signed out.
func (s *AuthSession) set(user *models.User) {
	s.store.Set(user)
}

// Subscribe emits the current user immediately and then on every transition.
// The channel closes when ctx is cancelled.
func (s *AuthSession) Subscribe(ctx context.Context) <-chan *models.User {
	return s.store.Subscribe(ctx)
}

// StaticSession is a fixed, request-scoped session built from a verified
// ID token. It never changes after construction.
type StaticSession struct {
	user *models.User
}

// NewStaticSession wraps an already-authenticated user.
func NewStaticSession(user *models.User) *StaticSession {
	return &StaticSession{user: user}
}

// Current returns the wrapped user.
func (s *StaticSession) Current() *models.User {
	return s.user
}
