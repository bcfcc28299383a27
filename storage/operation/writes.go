package operation

import (
	"fmt"

	"github.com/onflow/certstore/storage"
)

// UpsertByKey encodes the given entity and writes it under the given key,
// overwriting any existing value.
// Errors of the underlying writer are returned wrapped.
func UpsertByKey(w storage.Writer, key []byte, val any) error {
	value, err := encodeEntity(val)
	if err != nil {
		return err
	}

	err = w.Set(key, value)
	if err != nil {
		return fmt.Errorf("failed to store data: %w", err)
	}

	return nil
}

// Upserting returns a functor writing the entity under the given key.
func Upserting(key []byte, val any) func(storage.Writer) error {
	return func(w storage.Writer) error {
		return UpsertByKey(w, key, val)
	}
}
