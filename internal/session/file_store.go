package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// FileStore persists the session as a small JSON document on disk, keyed the
// same way the browser dashboard keys local storage.
type FileStore struct {
	path string
	mu   sync.Mutex
}

// NewFileStore constructs a store writing to path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the backing file location.
func (f *FileStore) Path() string {
	return f.path
}

func (f *FileStore) Load(context.Context) (Data, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	raw, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Data{}, nil
		}
		return Data{}, fmt.Errorf("read session file: %w", err)
	}
	if len(raw) == 0 {
		return Data{}, nil
	}

	var entries map[string]json.RawMessage
	if err := json.Unmarshal(raw, &entries); err != nil {
		return Data{}, fmt.Errorf("decode session file: %w", err)
	}

	var data Data
	if token, ok := entries[KeyToken]; ok {
		if err := json.Unmarshal(token, &data.Token); err != nil {
			return Data{}, fmt.Errorf("decode session token: %w", err)
		}
	}
	if user, ok := entries[KeyUser]; ok && string(user) != "null" {
		data.User = user
	}
	return data, nil
}

func (f *FileStore) Save(_ context.Context, data Data) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	entries := map[string]interface{}{KeyToken: data.Token}
	if len(data.User) > 0 {
		entries[KeyUser] = data.User
	}
	payload, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}

	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, payload, 0o600); err != nil {
		return fmt.Errorf("write session file: %w", err)
	}
	return os.Rename(tmp, f.path)
}

func (f *FileStore) Clear(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := os.Remove(f.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove session file: %w", err)
	}
	return nil
}
