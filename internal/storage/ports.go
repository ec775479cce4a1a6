// Package storage defines the durable key-value blob the record store
// persists into. Backends live in the subpackages.
package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when nothing is stored under the key.
var ErrNotFound = errors.New("storage: key not found")

// Ports for blob backends.
type (
	BlobReader interface {
		// Get returns the payload stored under key, or ErrNotFound.
		Get(ctx context.Context, key string) ([]byte, error)
	}

	BlobWriter interface {
		// Put overwrites whatever is stored under key.
		Put(ctx context.Context, key string, value []byte) error
	}

	BlobStore interface {
		BlobReader
		BlobWriter
	}
)
