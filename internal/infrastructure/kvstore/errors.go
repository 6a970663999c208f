package kvstore

import "errors"

var (
	// ErrClosed is returned by every operation after Close.
	ErrClosed = errors.New("kvstore: closed")

	// ErrInvalidKey is returned for an empty key.
	ErrInvalidKey = errors.New("kvstore: invalid key")

	// ErrUnknownBackend is returned by Open for an unsupported backend.
	ErrUnknownBackend = errors.New("kvstore: unknown backend")
)
