package pebbleimpl

import (
	"errors"
	"io"

	"github.com/cockroachdb/pebble/v2"

	"github.com/onflow/certstore/module/irrecoverable"
	"github.com/onflow/certstore/storage"
)

type dbReader struct {
	db *pebble.DB
}

var _ storage.Reader = (*dbReader)(nil)

// Get gets the value for the given key. It returns ErrNotFound if the DB
// does not contain the key.
// other errors are exceptions
//
// The returned slice will remain valid until the returned Closer is closed. On
// success, the caller MUST call closer.Close() or a memory leak will occur.
func (b dbReader) Get(key []byte) ([]byte, io.Closer, error) {
	value, closer, err := b.db.Get(key)
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return nil, nil, storage.ErrNotFound
		}
		return nil, nil, irrecoverable.NewExceptionf("failed to get value: %w", err)
	}
	return value, closer, nil
}

// NewIter returns a new Iterator for the given key prefix range [startPrefix, endPrefix], both inclusive.
func (b dbReader) NewIter(startPrefix, endPrefix []byte, _ storage.IteratorOption) (storage.Iterator, error) {
	iter, err := b.db.NewIter(&pebble.IterOptions{
		LowerBound: startPrefix,
		// pebble's upper bound is exclusive, nil meaning unbounded
		UpperBound: storage.PrefixUpperBound(endPrefix),
	})
	if err != nil {
		return nil, irrecoverable.NewExceptionf("can not create iterator: %w", err)
	}
	return &pebbleIterator{iter: iter}, nil
}

type pebbleIterator struct {
	iter *pebble.Iterator
}

var _ storage.Iterator = (*pebbleIterator)(nil)

func (i *pebbleIterator) First() bool {
	return i.iter.First()
}

func (i *pebbleIterator) Valid() bool {
	return i.iter.Valid()
}

func (i *pebbleIterator) Next() {
	i.iter.Next()
}

func (i *pebbleIterator) IterItem() storage.IterItem {
	return pebbleIterItem{iter: i.iter}
}

func (i *pebbleIterator) Close() error {
	return i.iter.Close()
}

type pebbleIterItem struct {
	iter *pebble.Iterator
}

var _ storage.IterItem = (*pebbleIterItem)(nil)

func (i pebbleIterItem) Key() []byte {
	return i.iter.Key()
}

func (i pebbleIterItem) Value(fn func([]byte) error) error {
	val, err := i.iter.ValueAndErr()
	if err != nil {
		return err
	}
	return fn(val)
}
