package storage

import (
	"errors"
)

var (
	// ErrNotFound is returned by the operation layer when a key does not exist. Backends
	// translate their own not-found errors (badger.ErrKeyNotFound, pebble.ErrNotFound)
	// into ErrNotFound.
	ErrNotFound = errors.New("key not found")

	// ErrInjectedFault is returned by storage operations failing because of a configured
	// fault injection policy.
	ErrInjectedFault = errors.New("injected storage fault")
)
