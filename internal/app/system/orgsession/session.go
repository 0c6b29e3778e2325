// Package orgsession tracks which organization, if any, a browser session
// is acting as.
package orgsession

import (
	"context"
	"sync"

	"github.com/dalemusser/clinsync/internal/app/system/faults"
	"github.com/dalemusser/clinsync/internal/domain/models"
	"go.uber.org/zap"
)

// State is the authentication state of a session.
type State string

const (
	Anonymous     State = "anonymous"
	Authenticated State = "authenticated"
)

// Authenticator is the subset of the API client used to sign in.
type Authenticator interface {
	LoginOrg(ctx context.Context, creds models.Credentials) (models.Organization, error)
	SignupOrg(ctx context.Context, details models.SignupDetails) (models.Organization, error)
}

// Session holds one organization identity. Only Login, Signup, Logout and
// Restore change it.
type Session struct {
	api Authenticator
	log *zap.Logger

	mu  sync.RWMutex
	org models.Organization
}

// New returns an anonymous session.
func New(api Authenticator, logger *zap.Logger) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Session{api: api, log: logger}
}

// Login signs in with creds. On failure the session is unchanged and the
// error matches faults.ErrActionFailed.
func (s *Session) Login(ctx context.Context, creds models.Credentials) (models.Organization, error) {
	org, err := s.api.LoginOrg(ctx, creds)
	if err != nil {
		s.log.Info("organization login failed", zap.String("email", creds.Email), zap.Error(err))
		return models.Organization{}, faults.Action("login", err)
	}
	s.set(org)
	return org, nil
}

// Signup registers a new organization and signs in as it. On failure the
// session is unchanged.
func (s *Session) Signup(ctx context.Context, details models.SignupDetails) (models.Organization, error) {
	org, err := s.api.SignupOrg(ctx, details)
	if err != nil {
		s.log.Info("organization signup failed", zap.String("email", details.Email), zap.Error(err))
		return models.Organization{}, faults.Action("signup", err)
	}
	s.set(org)
	return org, nil
}

// Logout clears the identity.
func (s *Session) Logout() {
	s.set(models.Organization{})
}

// Restore rebinds the session to an identity read back from a cookie.
func (s *Session) Restore(org models.Organization) {
	s.set(org)
}

// State reports whether an organization is signed in.
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.org.IsZero() {
		return Anonymous
	}
	return Authenticated
}

// Org returns the signed-in organization and whether there is one.
func (s *Session) Org() (models.Organization, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.org, !s.org.IsZero()
}

func (s *Session) set(org models.Organization) {
	s.mu.Lock()
	s.org = org
	s.mu.Unlock()
}
