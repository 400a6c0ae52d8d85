// Package session centralises the persisted login state (bearer token and
// user blob) behind a single manager with explicit init and teardown.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
)

// Storage keys, shared by every backend.
const (
	KeyToken = "token"
	KeyUser  = "user"
)

var (
	// ErrSessionMissing indicates no token has been stored yet.
	ErrSessionMissing = errors.New("not logged in")
	// ErrSessionExpired indicates the stored token is past its expiry.
	ErrSessionExpired = errors.New("session expired, please log in again")
)

// Data is the persisted session state.
type Data struct {
	Token string          `json:"token"`
	User  json.RawMessage `json:"user,omitempty"`
}

// Store persists session data between invocations.
type Store interface {
	Load(ctx context.Context) (Data, error)
	Save(ctx context.Context, data Data) error
	Clear(ctx context.Context) error
}

// MemoryStore keeps session data in process memory.
type MemoryStore struct {
	mu   sync.RWMutex
	data Data
}

// NewMemoryStore constructs an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Load(context.Context) (Data, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.data, nil
}

func (m *MemoryStore) Save(_ context.Context, data Data) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = data
	return nil
}

func (m *MemoryStore) Clear(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = Data{}
	return nil
}
