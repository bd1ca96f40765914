package auth

import (
	"errors"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/oshxona-pos/terminal/internal/remote"
)

var ErrNoSession = errors.New("no active session")

// Session is the terminal's authenticated state: the JWT pair issued by the
// remote store and the operator it belongs to. It replaces the ambient
// browser-storage globals of the old terminal with an explicit object that
// is started at login and invalidated at logout.
//
// Session implements remote.TokenSource so the HTTP client can read the
// current tokens and install refreshed access tokens.
type Session struct {
	mu      sync.RWMutex
	access  string
	refresh string
	user    *remote.User
}

func NewSession() *Session {
	return &Session{}
}

// Start installs a fresh token pair and operator, replacing any prior state.
func (s *Session) Start(pair remote.TokenPair, user *remote.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.access = pair.Access
	s.refresh = pair.Refresh
	s.user = user
}

// Invalidate drops all session state. Subsequent authenticated calls fail
// until Start is called again.
func (s *Session) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.access = ""
	s.refresh = ""
	s.user = nil
}

func (s *Session) Active() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.access != "" && s.user != nil
}

func (s *Session) User() *remote.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

// Role returns the operator's role, or "" when no session is active.
func (s *Session) Role() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return ""
	}
	return s.user.Role
}

// ExpiresAt reads the access token's expiry claim. The token is decoded
// without signature verification: the signing secret lives in the remote
// store, and the terminal only needs the timestamp to anticipate refreshes.
func (s *Session) ExpiresAt() (time.Time, error) {
	s.mu.RLock()
	access := s.access
	s.mu.RUnlock()
	if access == "" {
		return time.Time{}, ErrNoSession
	}

	claims := jwt.RegisteredClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(access, &claims); err != nil {
		return time.Time{}, err
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, errors.New("access token has no expiry claim")
	}
	return claims.ExpiresAt.Time, nil
}

// --- remote.TokenSource ---

func (s *Session) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.access
}

func (s *Session) RefreshToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.refresh
}

func (s *Session) SetAccessToken(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.access = token
}
