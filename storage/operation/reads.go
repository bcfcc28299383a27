package operation

import (
	"bytes"
	"errors"
	"fmt"
	"slices"

	"github.com/onflow/certstore/module/irrecoverable"
	"github.com/onflow/certstore/storage"
	"github.com/onflow/certstore/utils/merr"
)

// IterationFunc is called for every entry visited by IterateKeys. key is a private copy.
// decode unmarshals the entry's value into dest. Returning stop=true ends the
// iteration without an error.
type IterationFunc func(key []byte, decode func(dest any) error) (stop bool, err error)

// IterateKeys visits, in ascending order, every entry whose key starts with a prefix
// between low and high, both inclusive. Errors of fn are returned unchanged.
func IterateKeys(r storage.Reader, low []byte, high []byte, fn IterationFunc, opt storage.IteratorOption) (err error) {
	switch {
	case len(low) == 0 || len(high) == 0:
		return fmt.Errorf("iteration bounds must be non-empty, got low=%x high=%x", low, high)
	case bytes.Compare(low, high) > 0:
		return fmt.Errorf("iteration lower bound %x is above upper bound %x", low, high)
	}

	it, err := r.NewIter(low, high, opt)
	if err != nil {
		return fmt.Errorf("could not create iterator: %w", err)
	}
	defer func() {
		err = merr.CloseAndMergeError(it, err)
	}()

	for it.First(); it.Valid(); it.Next() {
		item := it.IterItem()
		decode := func(dest any) error {
			return item.Value(func(val []byte) error {
				return decodeValue(val, dest)
			})
		}
		// backends reuse the key buffer once the iterator moves
		stop, err := fn(slices.Clone(item.Key()), decode)
		if err != nil || stop {
			return err
		}
	}
	return nil
}

// TraverseByPrefix visits every entry whose key starts with prefix.
func TraverseByPrefix(r storage.Reader, prefix []byte, fn IterationFunc, opt storage.IteratorOption) error {
	return IterateKeys(r, prefix, prefix, fn, opt)
}

// KeyOnlyIterateFunc adapts fn, which never looks at values, to an IterationFunc.
// An error of fn stops the iteration.
func KeyOnlyIterateFunc(fn func(key []byte) error) IterationFunc {
	return func(key []byte, _ func(dest any) error) (bool, error) {
		if err := fn(key); err != nil {
			return true, err
		}
		return false, nil
	}
}

// KeyExists reports whether key is stored. Any read failure other than a missing
// key is an exception.
func KeyExists(r storage.Reader, key []byte) (exists bool, err error) {
	_, closer, getErr := r.Get(key)
	if errors.Is(getErr, storage.ErrNotFound) {
		return false, nil
	}
	if getErr != nil {
		return false, irrecoverable.NewExceptionf("could not check key %x: %w", key, getErr)
	}
	defer func() {
		err = merr.CloseAndMergeError(closer, err)
	}()
	return true, nil
}

// RetrieveByKey decodes the value stored under key into entity, which must be a
// non-nil pointer.
//
// Expected errors:
//   - storage.ErrNotFound if nothing is stored under key
func RetrieveByKey(r storage.Reader, key []byte, entity any) (err error) {
	val, closer, err := r.Get(key)
	if err != nil {
		return err
	}
	defer func() {
		err = merr.CloseAndMergeError(closer, err)
	}()
	return decodeValue(val, entity)
}

// Retrieving returns a functor reading the entity under the given key.
func Retrieving(key []byte, entity any) func(storage.Reader) error {
	return func(r storage.Reader) error {
		return RetrieveByKey(r, key, entity)
	}
}
