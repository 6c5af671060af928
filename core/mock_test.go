package core

import (
	"errors"
	"time"
)

// MockClock is a test implementation of ClockDriver
type MockClock struct {
	present bool
	now     time.Time
	readErr error
	reads   int
	setErr  error
}

func NewMockClock(epoch int64) *MockClock {
	return &MockClock{
		present: true,
		now:     time.Unix(epoch, 0).UTC(),
	}
}

func (m *MockClock) Detect() bool {
	return m.present
}

func (m *MockClock) ReadTime() (time.Time, error) {
	m.reads++
	if m.readErr != nil {
		return time.Time{}, m.readErr
	}
	return m.now, nil
}

func (m *MockClock) SetTime(t time.Time) error {
	if m.setErr != nil {
		return m.setErr
	}
	m.now = t
	return nil
}

func (m *MockClock) Advance(d time.Duration) {
	m.now = m.now.Add(d)
}

// readOnlyClock hides SetTime from the BootClock
type readOnlyClock struct {
	m *MockClock
}

func (r readOnlyClock) Detect() bool                 { return r.m.Detect() }
func (r readOnlyClock) ReadTime() (time.Time, error) { return r.m.ReadTime() }

// MockPrefs is a test implementation of Preferences backed by a map
type MockPrefs struct {
	values  map[string]map[string]uint64
	opens   int
	closes  int
	openErr error
	putErr  error
}

func NewMockPrefs() *MockPrefs {
	return &MockPrefs{
		values: make(map[string]map[string]uint64),
	}
}

func (m *MockPrefs) Open(namespace string, readOnly bool) (Namespace, error) {
	if m.openErr != nil {
		return nil, m.openErr
	}
	m.opens++
	if m.values[namespace] == nil {
		m.values[namespace] = make(map[string]uint64)
	}
	return &mockNamespace{prefs: m, values: m.values[namespace], readOnly: readOnly}, nil
}

func (m *MockPrefs) Set(namespace, key string, v uint64) {
	if m.values[namespace] == nil {
		m.values[namespace] = make(map[string]uint64)
	}
	m.values[namespace][key] = v
}

func (m *MockPrefs) Get(namespace, key string) (uint64, bool) {
	v, ok := m.values[namespace][key]
	return v, ok
}

// OpenHandles returns handles opened but not yet closed
func (m *MockPrefs) OpenHandles() int {
	return m.opens - m.closes
}

type mockNamespace struct {
	prefs    *MockPrefs
	values   map[string]uint64
	readOnly bool
	closed   bool
}

func (n *mockNamespace) HasKey(name string) bool {
	_, ok := n.values[name]
	return ok
}

func (n *mockNamespace) GetUint(name string, def uint64) uint64 {
	if v, ok := n.values[name]; ok {
		return v
	}
	return def
}

func (n *mockNamespace) PutUint(name string, value uint64) error {
	if n.readOnly {
		return errors.New("read only")
	}
	if n.prefs.putErr != nil {
		return n.prefs.putErr
	}
	n.values[name] = value
	return nil
}

func (n *mockNamespace) Close() error {
	if n.closed {
		return errors.New("already closed")
	}
	n.closed = true
	n.prefs.closes++
	return nil
}
