// Package prefs keeps small unsigned values in erasable flash, grouped by
// namespace, in the manner of ESP32 Preferences.
//
// The whole store is a single record image at a fixed, erase-block
// aligned offset. It is loaded on the first Open and rewritten when a
// namespace with pending writes is closed.
package prefs

import (
	"errors"

	"bootrtc/core"
)

var (
	ErrBusy        = errors.New("preferences namespace already open")
	ErrClosed      = errors.New("preferences namespace closed")
	ErrReadOnly    = errors.New("preferences namespace is read only")
	ErrInvalidName = errors.New("preferences name empty or too long")
	ErrFull        = errors.New("preferences store full")
)

var _ core.Preferences = (*Store)(nil)

// Store implements core.Preferences on a BlockDevice
type Store struct {
	dev    BlockDevice
	offset int64

	entries []entry
	loaded  bool
	open    bool
}

// NewStore creates a store whose image starts at offset, which must be a
// multiple of the device erase block size.
func NewStore(dev BlockDevice, offset int64) *Store {
	return &Store{
		dev:    dev,
		offset: offset,
	}
}

// Open implements core.Preferences. Only one namespace may be open at a time.
func (s *Store) Open(namespace string, readOnly bool) (core.Namespace, error) {
	if !validName(namespace) {
		return nil, ErrInvalidName
	}
	if s.open {
		return nil, ErrBusy
	}
	if !s.loaded {
		if err := s.load(); err != nil {
			return nil, err
		}
	}
	s.open = true
	return &Namespace{
		store:    s,
		name:     namespace,
		readOnly: readOnly,
	}, nil
}

// Len returns the number of stored values across all namespaces
func (s *Store) Len() int {
	return len(s.entries)
}

// load reads the image. An erased or damaged image yields an empty store.
func (s *Store) load() error {
	hdr := make([]byte, headerSize)
	if _, err := s.dev.ReadAt(hdr, s.offset); err != nil {
		return err
	}

	s.entries = nil
	s.loaded = true

	n, err := decodeHeader(hdr)
	if err != nil {
		return nil
	}
	buf := make([]byte, imageSize(n))
	if _, err := s.dev.ReadAt(buf, s.offset); err != nil {
		return err
	}
	entries, err := decodeImage(buf)
	if err != nil {
		return nil
	}
	s.entries = entries
	return nil
}

// flush erases the image area and writes the current entries
func (s *Store) flush() error {
	img := encodeImage(s.entries)

	wb := s.dev.WriteBlockSize()
	if wb < 1 {
		wb = 1
	}
	padded := (int64(len(img)) + wb - 1) / wb * wb
	for int64(len(img)) < padded {
		img = append(img, 0xFF)
	}

	eb := s.dev.EraseBlockSize()
	blocks := (padded + eb - 1) / eb
	if err := s.dev.EraseBlocks(s.offset/eb, blocks); err != nil {
		return err
	}
	_, err := s.dev.WriteAt(img, s.offset)
	return err
}

func (s *Store) find(namespace, key string) int {
	for i := range s.entries {
		if s.entries[i].namespace == namespace && s.entries[i].key == key {
			return i
		}
	}
	return -1
}

func validName(name string) bool {
	if len(name) == 0 || len(name) > MaxNameLen {
		return false
	}
	for i := 0; i < len(name); i++ {
		if name[i] == 0 {
			return false
		}
	}
	return true
}

// Namespace is an open handle returned by Store.Open
type Namespace struct {
	store    *Store
	name     string
	readOnly bool
	dirty    bool
	closed   bool
}

// HasKey implements core.Namespace
func (n *Namespace) HasKey(name string) bool {
	if n.closed {
		return false
	}
	return n.store.find(n.name, name) >= 0
}

// GetUint implements core.Namespace
func (n *Namespace) GetUint(name string, def uint64) uint64 {
	if n.closed {
		return def
	}
	if i := n.store.find(n.name, name); i >= 0 {
		return n.store.entries[i].value
	}
	return def
}

// PutUint implements core.Namespace. The value reaches flash on Close.
func (n *Namespace) PutUint(name string, value uint64) error {
	if n.closed {
		return ErrClosed
	}
	if n.readOnly {
		return ErrReadOnly
	}
	if !validName(name) {
		return ErrInvalidName
	}

	if i := n.store.find(n.name, name); i >= 0 {
		if n.store.entries[i].value != value {
			n.store.entries[i].value = value
			n.dirty = true
		}
		return nil
	}
	if len(n.store.entries) >= MaxEntries {
		return ErrFull
	}
	n.store.entries = append(n.store.entries, entry{namespace: n.name, key: name, value: value})
	n.dirty = true
	return nil
}

// Remove deletes name from the namespace
func (n *Namespace) Remove(name string) error {
	if n.closed {
		return ErrClosed
	}
	if n.readOnly {
		return ErrReadOnly
	}
	i := n.store.find(n.name, name)
	if i < 0 {
		return nil
	}
	n.store.entries = append(n.store.entries[:i], n.store.entries[i+1:]...)
	n.dirty = true
	return nil
}

// Close implements core.Namespace, writing pending changes.
// The handle is released even if the write fails; the in-memory values
// are then reloaded from flash on the next Open.
func (n *Namespace) Close() error {
	if n.closed {
		return ErrClosed
	}
	n.closed = true
	n.store.open = false

	if !n.dirty {
		return nil
	}
	if err := n.store.flush(); err != nil {
		n.store.loaded = false
		return err
	}
	return nil
}
