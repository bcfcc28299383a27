package badgerimpl

import (
	"bytes"
	"errors"
	"io"

	"github.com/dgraph-io/badger/v2"

	"github.com/onflow/certstore/module/irrecoverable"
	"github.com/onflow/certstore/storage"
)

type dbReader struct {
	db *badger.DB
}

var _ storage.Reader = (*dbReader)(nil)

type noopCloser struct{}

func (noopCloser) Close() error { return nil }

// Get gets the value for the given key. It returns ErrNotFound if the DB
// does not contain the key.
// other errors are exceptions
//
// The caller should not modify the contents of the returned slice, but it is
// safe to modify the contents of the argument after Get returns. The
// returned slice will remain valid until the returned Closer is closed. On
// success, the caller MUST call closer.Close() or a memory leak will occur.
func (b dbReader) Get(key []byte) ([]byte, io.Closer, error) {
	tx := b.db.NewTransaction(false)
	defer tx.Discard()

	item, err := tx.Get(key)
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, nil, storage.ErrNotFound
		}
		return nil, nil, irrecoverable.NewExceptionf("could not load data: %w", err)
	}

	value, err := item.ValueCopy(nil)
	if err != nil {
		return nil, nil, irrecoverable.NewExceptionf("could not load value: %w", err)
	}

	return value, noopCloser{}, nil
}

// NewIter returns a new Iterator for the given key prefix range [startPrefix, endPrefix], both inclusive.
func (b dbReader) NewIter(startPrefix, endPrefix []byte, ops storage.IteratorOption) (storage.Iterator, error) {
	return newBadgerIterator(b.db, startPrefix, endPrefix, ops), nil
}

type badgerIterator struct {
	tx         *badger.Txn
	iter       *badger.Iterator
	lowerBound []byte
	upperBound []byte // exclusive, nil if there is no upper bound
}

var _ storage.Iterator = (*badgerIterator)(nil)

func newBadgerIterator(db *badger.DB, startPrefix, endPrefix []byte, ops storage.IteratorOption) *badgerIterator {
	options := badger.DefaultIteratorOptions
	if ops.BadgerIterateKeyOnly {
		options.PrefetchValues = false
	}

	tx := db.NewTransaction(false)
	return &badgerIterator{
		tx:         tx,
		iter:       tx.NewIterator(options),
		lowerBound: startPrefix,
		upperBound: storage.PrefixUpperBound(endPrefix),
	}
}

// First seeks to the smallest key greater than or equal to the lower bound.
func (i *badgerIterator) First() bool {
	i.iter.Seek(i.lowerBound)
	return i.Valid()
}

// Valid returns whether the iterator is positioned at a valid key within the range.
func (i *badgerIterator) Valid() bool {
	if !i.iter.Valid() {
		return false
	}
	if i.upperBound == nil {
		return true
	}
	return bytes.Compare(i.iter.Item().Key(), i.upperBound) < 0
}

func (i *badgerIterator) Next() {
	i.iter.Next()
}

// IterItem returns the current key-value pair. *badger.Item satisfies storage.IterItem.
func (i *badgerIterator) IterItem() storage.IterItem {
	return i.iter.Item()
}

func (i *badgerIterator) Close() error {
	i.iter.Close()
	i.tx.Discard()
	return nil
}
