// Package filestore persists core.Preferences namespaces in a TOML file.
package filestore

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/renameio/v2"
	"github.com/pelletier/go-toml/v2"

	"bootrtc/core"
)

var (
	ErrReadOnly = errors.New("namespace opened read only")
	ErrClosed   = errors.New("namespace closed")
)

var _ core.Preferences = (*Store)(nil)

// Store keeps one TOML table per namespace. The file is read on every
// Open and rewritten atomically when a modified namespace is closed.
type Store struct {
	path string
	mu   sync.Mutex
}

// New returns a store backed by path. The file is created on first write.
func New(path string) *Store {
	return &Store{path: path}
}

// Path returns the backing file
func (s *Store) Path() string {
	return s.path
}

// Open implements core.Preferences
func (s *Store) Open(namespace string, readOnly bool) (core.Namespace, error) {
	if namespace == "" {
		return nil, errors.New("empty namespace")
	}
	s.mu.Lock()
	data, err := s.load()
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	return &Namespace{
		store:    s,
		name:     namespace,
		readOnly: readOnly,
		data:     data,
	}, nil
}

func (s *Store) load() (map[string]map[string]uint64, error) {
	data := make(map[string]map[string]uint64)

	raw, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return data, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read preferences %s: %w", s.path, err)
	}
	if err := toml.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("parse preferences %s: %w", s.path, err)
	}
	return data, nil
}

func (s *Store) save(data map[string]map[string]uint64) error {
	raw, err := toml.Marshal(data)
	if err != nil {
		return fmt.Errorf("encode preferences: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create preferences dir: %w", err)
	}

	// renameio handles: temp file creation, fsync, atomic rename, cleanup on error
	pendingFile, err := renameio.NewPendingFile(s.path, renameio.WithPermissions(0o644))
	if err != nil {
		return fmt.Errorf("create pending preferences file: %w", err)
	}
	defer func() {
		// Cleanup is a no-op once the file has been committed
		_ = pendingFile.Cleanup()
	}()

	if _, err := pendingFile.Write(raw); err != nil {
		return fmt.Errorf("write preferences: %w", err)
	}
	if err := pendingFile.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("atomically replace preferences: %w", err)
	}
	return nil
}

// Namespace holds the store lock from Open until Close
type Namespace struct {
	store    *Store
	name     string
	readOnly bool
	data     map[string]map[string]uint64
	dirty    bool
	closed   bool
}

// HasKey implements core.Namespace
func (n *Namespace) HasKey(name string) bool {
	_, ok := n.data[n.name][name]
	return ok
}

// GetUint implements core.Namespace
func (n *Namespace) GetUint(name string, def uint64) uint64 {
	if v, ok := n.data[n.name][name]; ok {
		return v
	}
	return def
}

// PutUint implements core.Namespace
func (n *Namespace) PutUint(name string, value uint64) error {
	if n.closed {
		return ErrClosed
	}
	if n.readOnly {
		return ErrReadOnly
	}
	if n.data[n.name] == nil {
		n.data[n.name] = make(map[string]uint64)
	}
	if old, ok := n.data[n.name][name]; ok && old == value {
		return nil
	}
	n.data[n.name][name] = value
	n.dirty = true
	return nil
}

// Close implements core.Namespace
func (n *Namespace) Close() error {
	if n.closed {
		return ErrClosed
	}
	n.closed = true
	defer n.store.mu.Unlock()

	if !n.dirty {
		return nil
	}
	return n.store.save(n.data)
}
