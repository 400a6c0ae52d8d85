package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// User is the profile blob persisted next to the token.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// Manager is the single accessor for session state. The store is read on
// every Token call so a login performed by another process is picked up on
// the next request.
type Manager struct {
	store  Store
	logger zerolog.Logger
	now    func() time.Time

	mu     sync.RWMutex
	active bool
}

// NewManager builds a manager over store.
func NewManager(store Store, logger zerolog.Logger) *Manager {
	return &Manager{
		store:  store,
		logger: logger.With().Str("component", "session_manager").Logger(),
		now:    time.Now,
	}
}

// Init verifies the store is readable and marks the manager usable.
func (m *Manager) Init(ctx context.Context) error {
	data, err := m.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("initialise session: %w", err)
	}

	m.mu.Lock()
	m.active = true
	m.mu.Unlock()

	m.logger.Debug().Bool("has_token", data.Token != "").Msg("session initialised")
	return nil
}

// Teardown clears persisted state and deactivates the manager.
func (m *Manager) Teardown(ctx context.Context) error {
	m.mu.Lock()
	m.active = false
	m.mu.Unlock()

	if err := m.store.Clear(ctx); err != nil {
		return err
	}
	m.logger.Info().Msg("session cleared")
	return nil
}

// Login persists a token and optional user profile.
func (m *Manager) Login(ctx context.Context, token string, user *User) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return errors.New("token is required")
	}

	if claims, ok := ParseClaims(token); ok && claims.Expired(m.now()) {
		return ErrSessionExpired
	}

	data := Data{Token: token}
	if user != nil {
		raw, err := json.Marshal(user)
		if err != nil {
			return fmt.Errorf("encode user: %w", err)
		}
		data.User = raw
	}

	if err := m.store.Save(ctx, data); err != nil {
		return err
	}

	m.mu.Lock()
	m.active = true
	m.mu.Unlock()

	m.logger.Info().Bool("has_user", user != nil).Msg("session stored")
	return nil
}

// Token returns the current bearer token, read fresh from the store.
func (m *Manager) Token(ctx context.Context) (string, error) {
	m.mu.RLock()
	active := m.active
	m.mu.RUnlock()
	if !active {
		return "", ErrSessionMissing
	}

	data, err := m.store.Load(ctx)
	if err != nil {
		return "", err
	}
	if data.Token == "" {
		return "", ErrSessionMissing
	}
	if claims, ok := ParseClaims(data.Token); ok && claims.Expired(m.now()) {
		return "", ErrSessionExpired
	}
	return data.Token, nil
}

// User decodes the stored user profile. A missing profile yields nil.
func (m *Manager) User(ctx context.Context) (*User, error) {
	data, err := m.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	if len(data.User) == 0 {
		return nil, nil
	}
	var user User
	if err := json.Unmarshal(data.User, &user); err != nil {
		return nil, fmt.Errorf("decode user: %w", err)
	}
	return &user, nil
}

// Claims returns the decoded claims of the stored token, if it is a JWT.
func (m *Manager) Claims(ctx context.Context) (Claims, bool, error) {
	data, err := m.store.Load(ctx)
	if err != nil {
		return Claims{}, false, err
	}
	claims, ok := ParseClaims(data.Token)
	return claims, ok, nil
}
