package store

import (
	"context"
	"errors"
	"fmt"
)

// ErrMissing is returned by HGet when the field does not exist.
var ErrMissing = errors.New("store: field missing")

// Store is the subset of a hash-based key-value store the registry relies on.
// Per-field operations are expected to be atomic; callers add no locking.
type Store interface {
	HGet(ctx context.Context, hash, field string) (string, error)
	HSet(ctx context.Context, hash, field, value string) error
	HDel(ctx context.Context, hash, field string) error
	HLen(ctx context.Context, hash string) (int64, error)
	Ping(ctx context.Context) error
	Close() error
}

// UnavailableError reports that the store could not serve an operation.
// It is never retried.
type UnavailableError struct {
	Op  string
	Err error
}

// Error implements the error interface
func (u *UnavailableError) Error() string {
	return fmt.Sprintf("store unavailable during %s: %v", u.Op, u.Err)
}

// Unwrap returns the underlying client error.
func (u *UnavailableError) Unwrap() error {
	return u.Err
}

func unavailable(op string, err error) error {
	if err == nil {
		return nil
	}

	return &UnavailableError{Op: op, Err: err}
}
