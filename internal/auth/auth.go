// Package auth defines the identity capability consumed by the use-case
// layer. The engine only ever needs a scoping user id; the concrete provider
// (and its UI) lives outside this module.
package auth

import (
	"context"
	"sync"

	"github.com/thenoetrevino/kanso/internal/types"
)

// Credentials carries what a provider needs to register or log in a user.
type Credentials struct {
	Email    string
	Password string
}

// Repository is the identity provider contract. The board engine calls only
// CurrentUser; the remaining operations exist so a real provider can be
// dropped in without changing the wiring.
type Repository interface {
	Register(ctx context.Context, creds Credentials) (types.UserID, error)
	Login(ctx context.Context, creds Credentials) (types.UserID, error)
	Logout(ctx context.Context) error

	// CurrentUser returns the logged-in user's id, or ok=false when nobody
	// is logged in.
	CurrentUser() (types.UserID, bool)

	// ListenToAuthChange registers a callback invoked whenever the current
	// user changes. The returned unsubscribe is idempotent.
	ListenToAuthChange(cb func(types.UserID, bool)) func()
}

// Static is a fixed-identity repository used in demo mode and tests.
type Static struct {
	mu        sync.Mutex
	user      types.UserID
	loggedIn  bool
	nextToken int
	listeners map[int]func(types.UserID, bool)
}

// NewStatic creates a repository with the given user already logged in.
func NewStatic(user types.UserID) *Static {
	return &Static{user: user, loggedIn: true, listeners: map[int]func(types.UserID, bool){}}
}

// NewLoggedOut creates a repository with no current user.
func NewLoggedOut() *Static {
	return &Static{listeners: map[int]func(types.UserID, bool){}}
}

func (s *Static) Register(ctx context.Context, creds Credentials) (types.UserID, error) {
	return s.Login(ctx, creds)
}

func (s *Static) Login(_ context.Context, creds Credentials) (types.UserID, error) {
	s.mu.Lock()
	if s.user == "" {
		s.user = types.UserID(creds.Email)
	}
	s.loggedIn = true
	user := s.user
	listeners := s.snapshotListeners()
	s.mu.Unlock()

	for _, cb := range listeners {
		cb(user, true)
	}
	return user, nil
}

func (s *Static) Logout(context.Context) error {
	s.mu.Lock()
	s.loggedIn = false
	listeners := s.snapshotListeners()
	s.mu.Unlock()

	for _, cb := range listeners {
		cb("", false)
	}
	return nil
}

func (s *Static) CurrentUser() (types.UserID, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.loggedIn {
		return "", false
	}
	return s.user, true
}

func (s *Static) ListenToAuthChange(cb func(types.UserID, bool)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	token := s.nextToken
	s.nextToken++
	s.listeners[token] = cb

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.listeners, token)
			s.mu.Unlock()
		})
	}
}

func (s *Static) snapshotListeners() []func(types.UserID, bool) {
	out := make([]func(types.UserID, bool), 0, len(s.listeners))
	for _, cb := range s.listeners {
		out = append(out, cb)
	}
	return out
}
