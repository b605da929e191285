package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/preventivo-app/preventivo/internal/domain"
	"github.com/preventivo-app/preventivo/internal/localstore"
	"github.com/preventivo-app/preventivo/internal/remote"
	"go.uber.org/zap"
)

// ErrNoSession is returned by Restore when no cached credential exists
var ErrNoSession = errors.New("session: no cached session")

// Session holds the current bearer credential and resolved identity, and
// gates remote operations. The credential and identity are cached in the
// local store so a session survives restarts.
type Session struct {
	mu       sync.RWMutex
	token    string
	identity *domain.UserInfo

	store  *localstore.Store
	client *remote.Client
	logger *zap.Logger
}

// NewSession creates a session bound to the given cache and remote client.
// Wire the remote client's token source to s.Token.
func NewSession(store *localstore.Store, client *remote.Client, logger *zap.Logger) *Session {
	return &Session{
		store:  store,
		client: client,
		logger: logger,
	}
}

// Token returns the current bearer credential, or "" when inactive
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// Identity returns the resolved identity for the active session
func (s *Session) Identity() *domain.UserInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.identity
}

// Active reports whether a credential is held
func (s *Session) Active() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token != ""
}

// SetEndpoint points the remote client at a different backend and persists
// the preference. The endpoint survives logout; it is a device setting, not a
// credential.
func (s *Session) SetEndpoint(baseURL string) error {
	s.client.SetBaseURL(baseURL)
	if err := s.store.Put(localstore.KeyEndpoint, baseURL); err != nil {
		return fmt.Errorf("failed to cache endpoint: %w", err)
	}
	return nil
}

// Login authenticates against the backend and persists the session
func (s *Session) Login(ctx context.Context, email, password string) (*domain.UserInfo, error) {
	resp, err := s.client.Login(ctx, &domain.LoginRequest{Email: email, Password: password})
	if err != nil {
		return nil, err
	}
	s.adopt(resp)
	return &resp.User, nil
}

// Register creates an account and persists the resulting session
func (s *Session) Register(ctx context.Context, name, email, password string) (*domain.UserInfo, error) {
	resp, err := s.client.Register(ctx, &domain.RegisterRequest{Name: name, Email: email, Password: password})
	if err != nil {
		return nil, err
	}
	s.adopt(resp)
	return &resp.User, nil
}

// Restore rebuilds the session from cached keys. The cached credential is
// verified against the backend; an unauthorized answer clears the cache,
// while an unreachable backend keeps the cached session so offline work can
// continue.
func (s *Session) Restore(ctx context.Context) error {
	var endpoint string
	if err := s.store.Get(localstore.KeyEndpoint, &endpoint); err == nil && endpoint != "" {
		s.client.SetBaseURL(endpoint)
	}

	var token string
	if err := s.store.Get(localstore.KeyToken, &token); err != nil {
		if errors.Is(err, localstore.ErrKeyNotFound) {
			return ErrNoSession
		}
		return fmt.Errorf("failed to read cached token: %w", err)
	}
	if token == "" {
		return ErrNoSession
	}

	var identity domain.UserInfo
	if err := s.store.Get(localstore.KeyIdentity, &identity); err != nil && !errors.Is(err, localstore.ErrKeyNotFound) {
		return fmt.Errorf("failed to read cached identity: %w", err)
	}

	s.mu.Lock()
	s.token = token
	if identity.ID != "" {
		s.identity = &identity
	}
	s.mu.Unlock()

	info, err := s.client.Me(ctx)
	if err != nil {
		if errors.Is(err, remote.ErrUnauthorized) {
			s.Clear()
			return ErrNoSession
		}
		// Backend unreachable: keep the cached session
		s.logger.Warn("session restore could not verify credential", zap.Error(err))
		return nil
	}

	s.mu.Lock()
	s.identity = info
	s.mu.Unlock()
	if err := s.store.Put(localstore.KeyIdentity, info); err != nil {
		s.logger.Warn("failed to cache identity", zap.Error(err))
	}
	return nil
}

// Logout clears the session from memory and the local cache
func (s *Session) Logout() {
	s.Clear()
}

// Clear drops the credential and identity everywhere; used on logout and
// when the backend rejects the credential
func (s *Session) Clear() {
	s.mu.Lock()
	s.token = ""
	s.identity = nil
	s.mu.Unlock()

	if err := s.store.Delete(localstore.KeyToken); err != nil {
		s.logger.Warn("failed to clear cached token", zap.Error(err))
	}
	if err := s.store.Delete(localstore.KeyIdentity); err != nil {
		s.logger.Warn("failed to clear cached identity", zap.Error(err))
	}
}

func (s *Session) adopt(resp *domain.AuthResponse) {
	s.mu.Lock()
	s.token = resp.Token
	s.identity = &resp.User
	s.mu.Unlock()

	if err := s.store.Put(localstore.KeyToken, resp.Token); err != nil {
		s.logger.Warn("failed to cache token", zap.Error(err))
	}
	if err := s.store.Put(localstore.KeyIdentity, resp.User); err != nil {
		s.logger.Warn("failed to cache identity", zap.Error(err))
	}

	s.logger.Info("session established", zap.String("user_id", resp.User.ID))
}
