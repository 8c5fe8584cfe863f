package client

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"souvenir/internal/domain/users"

	"go.uber.org/zap"
)

const tokenFileEnv = "SOUVENIR_TOKEN_FILE"

// bootstrapTimeout bounds the startup verify call so a dead backend never
// blocks the storefront from opening.
const bootstrapTimeout = 5 * time.Second

// SessionStore keeps the session token in one well-known file and tracks
// whether the account behind it is currently usable.
type SessionStore struct {
	client *Client
	logger *zap.SugaredLogger
	path   string

	mu            sync.RWMutex
	user          *users.User
	authenticated bool
}

func NewSessionStore(c *Client, logger *zap.SugaredLogger) *SessionStore {
	path := os.Getenv(tokenFileEnv)
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			home = "."
		}
		path = filepath.Join(home, ".souvenir", "token")
	}
	return &SessionStore{client: c, logger: logger, path: path}
}

// Bootstrap restores the previous session at startup. Every failure mode
// degrades to an unauthenticated store: a missing file, a rejected token
// (cleared, it is dead) or an unreachable backend (kept, it may still be
// good).
func (s *SessionStore) Bootstrap(ctx context.Context) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		s.setState(nil, false)
		return
	}
	token := strings.TrimSpace(string(raw))
	if token == "" {
		s.setState(nil, false)
		return
	}

	s.client.SetToken(token)

	ctx, cancel := context.WithTimeout(ctx, bootstrapTimeout)
	defer cancel()

	user, err := s.client.VerifySession(ctx)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			// the server saw the token and rejected it
			s.logger.Infow("stored session rejected, clearing", "status", apiErr.Status)
			s.client.SetToken("")
			if rmErr := os.Remove(s.path); rmErr != nil && !os.IsNotExist(rmErr) {
				s.logger.Warnw("error removing token file", "error", rmErr)
			}
		} else {
			s.logger.Warnw("session verify unreachable, starting unauthenticated", "error", err)
		}
		s.setState(nil, false)
		return
	}

	s.setState(user, true)
	s.logger.Infow("session restored", "email", user.Email)
}

// Login signs in and persists the token.
func (s *SessionStore) Login(ctx context.Context, email, password string) (*users.User, error) {
	session, err := s.client.SignIn(ctx, email, password)
	if err != nil {
		return nil, err
	}

	s.client.SetToken(session.Token)

	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		s.logger.Warnw("error creating token dir", "error", err)
	} else if err := os.WriteFile(s.path, []byte(session.Token), 0o600); err != nil {
		s.logger.Warnw("error persisting token", "error", err)
	}

	s.setState(session.User, true)
	return session.User, nil
}

// Logout drops the session locally. There is no server-side session to
// revoke, the token simply expires.
func (s *SessionStore) Logout() {
	s.client.SetToken("")
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		s.logger.Warnw("error removing token file", "error", err)
	}
	s.setState(nil, false)
}

func (s *SessionStore) Authenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.authenticated
}

func (s *SessionStore) User() *users.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

func (s *SessionStore) setState(user *users.User, authenticated bool) {
	s.mu.Lock()
	s.user = user
	s.authenticated = authenticated
	s.mu.Unlock()
}
