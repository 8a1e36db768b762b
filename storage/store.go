package storage

import (
	"errors"
)

// Store represents a string-keyed key-value store, as seen by the controller.
type Store interface {
	Put(key, value string) (err error)

	// Get should return ErrNotFound if the key is not in the store.
	Get(key string) (value string, err error)
}

var (
	// ErrNotFound indicates a key is not in the store.
	ErrNotFound = errors.New("not found")
)
