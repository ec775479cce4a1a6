package backend

import (
	"context"

	"spendsmart/internal/storage"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// ReadyFunc reports whether the backend can serve requests.
type ReadyFunc func(ctx context.Context) error

// BackendResult contains the blob store and its lifecycle hooks. Cleanup
// and Ready are never nil.
type BackendResult struct {
	Blob    storage.BlobStore
	Cleanup CleanupFunc
	Ready   ReadyFunc
}

// Factory creates backends based on configuration
type Factory interface {
	// CreateBackend creates a backend instance based on the provided config
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	// StorageKey is the key the memory backend seeds.
	StorageKey string

	// File and memory backends
	DataDirectory string
	Passphrase    string

	// SQLite specific
	SQLiteDBPath string
}

// BackendType represents the type of backend
type BackendType string

const (
	FileBackend   BackendType = "file"
	SQLiteBackend BackendType = "sqlite"
	MemoryBackend BackendType = "memory"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case FileBackend, SQLiteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
