// Package session persists the client session (token + user profile) in a
// small key-value store, the terminal equivalent of browser local storage.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"sync"

	"github.com/gi8lino/ricefwboard/internal/models"
	"gopkg.in/yaml.v3"
)

// Keys under which the session is stored.
const (
	TokenKey = "sessionToken"
	UserKey  = "user"
)

// Store is a string key-value store.
type Store interface {
	Get(key string) (string, bool)
	Set(key, value string) error
	Remove(key string) error
}

// MemoryStore keeps values in process memory.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]string
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: map[string]string{}}
}

// Get returns the value stored under key.
func (m *MemoryStore) Get(key string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	return v, ok
}

// Set stores value under key.
func (m *MemoryStore) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

// Remove deletes key. Missing keys are ignored.
func (m *MemoryStore) Remove(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

// FileStore keeps values in a YAML file. Every write rewrites the whole file.
type FileStore struct {
	mu   sync.Mutex
	path string
	data map[string]string
}

// DefaultPath returns the session file location inside the user config dir.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locate config dir: %w", err)
	}
	return filepath.Join(dir, "ricefw", "session.yaml"), nil
}

// OpenFileStore loads path, treating a missing file as an empty store.
func OpenFileStore(path string) (*FileStore, error) {
	fs := &FileStore{path: path, data: map[string]string{}}

	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return fs, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read session file: %w", err)
	}
	if err := yaml.Unmarshal(raw, &fs.data); err != nil {
		return nil, fmt.Errorf("parse session file %q: %w", path, err)
	}
	if fs.data == nil {
		fs.data = map[string]string{}
	}
	return fs, nil
}

// Path returns the backing file.
func (f *FileStore) Path() string { return f.path }

// Get returns the value stored under key.
func (f *FileStore) Get(key string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.data[key]
	return v, ok
}

// Set stores value under key and flushes the file.
func (f *FileStore) Set(key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	next := maps.Clone(f.data)
	next[key] = value
	return f.flush(next)
}

// Remove deletes key and flushes the file.
func (f *FileStore) Remove(key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.data[key]; !ok {
		return nil
	}
	next := maps.Clone(f.data)
	delete(next, key)
	return f.flush(next)
}

// flush writes data to a temp file and renames it over the session file.
func (f *FileStore) flush(data map[string]string) error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}
	raw, err := yaml.Marshal(data)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o600); err != nil {
		return fmt.Errorf("write session file: %w", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return fmt.Errorf("replace session file: %w", err)
	}
	f.data = data
	return nil
}

// Load returns the stored token and user. ok is false unless both are present and the user decodes.
func Load(s Store) (token string, user models.User, ok bool) {
	token, hasToken := s.Get(TokenKey)
	raw, hasUser := s.Get(UserKey)
	if !hasToken || !hasUser || token == "" {
		return "", models.User{}, false
	}
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		return "", models.User{}, false
	}
	return token, user, true
}

// Save writes token and user. On failure both keys are removed again.
func Save(s Store, token string, user models.User) error {
	raw, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("encode user: %w", err)
	}
	if err := s.Set(TokenKey, token); err != nil {
		return err
	}
	if err := s.Set(UserKey, string(raw)); err != nil {
		_ = Clear(s)
		return err
	}
	return nil
}

// Clear removes both session keys, returning the first error encountered.
func Clear(s Store) error {
	return errors.Join(s.Remove(TokenKey), s.Remove(UserKey))
}
