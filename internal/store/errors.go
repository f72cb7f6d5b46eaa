// ABOUTME: Error kinds surfaced by the recipe store.
// ABOUTME: Distinguishes storage_full from general persistence failures.

package store

import (
	"errors"
	"fmt"

	"github.com/harper/cookbook/internal/kv"
)

var (
	ErrRecipeNotFound  = errors.New("recipe not found")
	ErrPrefixTooShort  = errors.New("prefix must be at least 6 characters")
	ErrAmbiguousPrefix = errors.New("prefix matches multiple recipes")
	ErrNoDraft         = errors.New("no draft saved")
)

// ErrorKind classifies a failed write.
type ErrorKind string

const (
	KindStorageFull ErrorKind = "storage_full"
	KindGeneral     ErrorKind = "general"
)

// Error is returned by Save when a slot write fails.
type Error struct {
	Kind ErrorKind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s (%s): %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Message is the underlying failure text, suitable for showing to a user.
func (e *Error) Message() string {
	if e.Kind == KindStorageFull {
		return "Storage is full. Delete some old recipes or use fewer photos."
	}
	return e.Err.Error()
}

func newError(op string, err error) *Error {
	kind := KindGeneral
	if errors.Is(err, kv.ErrQuotaExceeded) {
		kind = KindStorageFull
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// KindOf returns the store error kind of err, or "" if err is not a store error.
func KindOf(err error) ErrorKind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return ""
}

// IsStorageFull reports whether err is a storage_full store error.
func IsStorageFull(err error) bool {
	return KindOf(err) == KindStorageFull
}
