package core

// Preferences is the abstract persistent key-value store that core code uses.
// Values are grouped under namespaces that must be opened before use.
type Preferences interface {
	// Open acquires a namespace handle. The caller must Close it.
	// readOnly handles reject writes.
	Open(namespace string, readOnly bool) (Namespace, error)
}

// Namespace is an opened group of keys.
type Namespace interface {
	// HasKey reports whether name holds a value.
	HasKey(name string) bool

	// GetUint returns the value stored under name, or def if absent.
	GetUint(name string, def uint64) uint64

	// PutUint stores value under name.
	PutUint(name string, value uint64) error

	// Close releases the handle and commits pending writes.
	Close() error
}
