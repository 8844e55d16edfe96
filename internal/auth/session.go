// Package auth holds the bearer-token session consumed by the gateway
// transport and the bookmark store, persisted across restarts in the
// client-side key-value store.
package auth

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/rs/zerolog"

	"github.com/opennow/opennow-go/internal/api"
	"github.com/opennow/opennow-go/internal/storage"
)

// Fixed storage keys for persisted session state.
const (
	tokenKey    = "auth.token"
	usernameKey = "auth.username"
)

// Session is a minimal bearer-token holder. Safe for concurrent use.
type Session struct {
	http    *http.Client
	baseURL string
	store   storage.Store
	log     zerolog.Logger

	mu       sync.RWMutex
	token    string
	username string
}

// NewSession builds a session and restores any persisted token.
func NewSession(hc *http.Client, baseURL string, store storage.Store, log zerolog.Logger) *Session {
	s := &Session{http: hc, baseURL: baseURL, store: store, log: log}
	s.restore()
	return s
}

func (s *Session) restore() {
	ctx := context.Background()
	token, err := s.store.Get(ctx, tokenKey)
	if err != nil {
		if !errors.Is(err, storage.ErrKeyNotFound) {
			s.log.Warn().Err(err).Msg("could not restore session token")
		}
		return
	}
	username, _ := s.store.Get(ctx, usernameKey)
	s.mu.Lock()
	s.token = token
	s.username = username
	s.mu.Unlock()
	s.log.Debug().Str("user", username).Msg("session restored")
}

// Login exchanges credentials for a token and persists it.
func (s *Session) Login(ctx context.Context, username, password string) error {
	token, err := api.Login(ctx, s.http, s.baseURL, username, password)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.token = token
	s.username = username
	s.mu.Unlock()

	if err := s.store.Set(ctx, tokenKey, token); err != nil {
		s.log.Warn().Err(err).Msg("session token not persisted")
	}
	if err := s.store.Set(ctx, usernameKey, username); err != nil {
		s.log.Warn().Err(err).Msg("username not persisted")
	}
	return nil
}

// Logout drops the token locally and from durable storage. There is no
// server-side invalidation endpoint.
func (s *Session) Logout(ctx context.Context) error {
	s.mu.Lock()
	s.token = ""
	s.username = ""
	s.mu.Unlock()

	if err := s.store.Delete(ctx, tokenKey); err != nil {
		return err
	}
	return s.store.Delete(ctx, usernameKey)
}

// Token returns the active bearer token, or "" when logged out.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// Username returns the logged-in username, or "".
func (s *Session) Username() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.username
}
