// ABOUTME: Key-value storage abstraction backing the recipe store.
// ABOUTME: Defines the Store interface, shared errors, and the backend factory.

package kv

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/harper/cookbook/internal/logger"
)

var (
	ErrNotFound = errors.New("key not found")
	// ErrQuotaExceeded signals a write rejected for lack of space.
	// Every backend translates its native space failure into this error.
	ErrQuotaExceeded = errors.New("storage quota exceeded")
	ErrUnknownBackend = errors.New("unknown storage backend")
)

// Backend names accepted by Open.
const (
	BackendBadger = "badger"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// Store is a flat string-keyed byte store.
type Store interface {
	Get(key string) ([]byte, error)
	Set(key string, value []byte) error
	Delete(key string) error
	Keys() ([]string, error)
	Close() error
}

// Open creates the named backend rooted at dir.
func Open(backend, dir string, log *logger.Logger) (Store, error) {
	switch backend {
	case BackendBadger, "":
		return OpenBadger(filepath.Join(dir, "badger"), log)
	case BackendSQLite:
		return OpenSQLite(filepath.Join(dir, "cookbook.db"))
	case BackendMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, backend)
	}
}

// quotaError wraps a backend-specific space failure.
func quotaError(err error) error {
	return fmt.Errorf("%w: %v", ErrQuotaExceeded, err)
}
