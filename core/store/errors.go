package store

import "github.com/cockroachdb/errors"

var (
	// ErrNotFound is returned for unknown graph names and plan IDs.
	ErrNotFound = errors.New("not found")

	ErrEmptyKey = errors.New("empty key")
)
