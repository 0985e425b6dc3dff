// Package tokenstore abstracts durable storage of the access token so the
// session and the transport client can be tested without touching the disk.
package tokenstore

import (
	"os"
	"path/filepath"
	"sync"
)

// Store is the single place the access token lives between calls.
// Load returns an empty string when no token is stored.
type Store interface {
	Load() (string, error)
	Save(token string) error
	Clear() error
}

// DefaultPath returns the token file location under the user config dir.
func DefaultPath() string {
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return filepath.Join(v, "docquery", "token")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "docquery", "token")
}

// File persists the token in a single file, created with owner-only permissions.
type File struct {
	mu   sync.Mutex
	path string
}

// NewFile returns a file-backed store at path.
func NewFile(path string) *File { return &File{path: path} }

func (f *File) Load() (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, err := os.ReadFile(f.path)
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (f *File) Save(token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(f.path, []byte(token), 0o600)
}

func (f *File) Clear() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	err := os.Remove(f.path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// Memory is an in-process store for tests.
type Memory struct {
	mu  sync.Mutex
	tok string
}

func NewMemory() *Memory { return &Memory{} }

func (m *Memory) Load() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tok, nil
}

func (m *Memory) Save(token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tok = token
	return nil
}

func (m *Memory) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tok = ""
	return nil
}
