package storage

import (
	"io"
)

// Iterator is an iterator over the key-value pairs of a prefix range.
// The key and value slices of an IterItem are only valid until the next call to Next.
type Iterator interface {
	// First seeks to the smallest key in the range and returns true if it exists.
	First() bool

	// Valid returns false once the iterator moved past the range.
	Valid() bool

	// Next advances the iterator.
	Next()

	// IterItem returns the current key-value pair.
	IterItem() IterItem

	// Close releases the resources of the iterator. Must be called exactly once.
	Close() error
}

// IterItem is a key-value pair of an Iterator.
type IterItem interface {
	Key() []byte

	// Value passes the value of the current key to fn. The value must not be retained
	// after fn returns.
	Value(fn func(val []byte) error) error
}

type IteratorOption struct {
	// BadgerIterateKeyOnly skips prefetching values for badger iterators.
	BadgerIterateKeyOnly bool
}

func DefaultIteratorOptions() IteratorOption {
	return IteratorOption{
		BadgerIterateKeyOnly: false,
	}
}

// Reader is a read-only view of a key-value database.
type Reader interface {
	// Get returns the value of the given key. The value is only valid until the returned
	// closer is closed.
	// Error returns:
	//   - storage.ErrNotFound if the key does not exist
	Get(key []byte) (value []byte, closer io.Closer, err error)

	// NewIter returns an iterator over all keys starting with a prefix in the range
	// [startPrefix, endPrefix] (both inclusive).
	NewIter(startPrefix, endPrefix []byte, ops IteratorOption) (Iterator, error)
}

// Writer collects writes into a batch. Nothing is visible to readers until the batch commits.
type Writer interface {
	Set(key, value []byte) error
}

// ReaderBatchWriter is a write batch that can also read the committed database state.
// Reads do not observe the writes of the batch itself.
type ReaderBatchWriter interface {
	// GlobalReader reads the committed state of the database.
	GlobalReader() Reader

	// Writer returns the batch writer.
	Writer() Writer

	// AddCallback registers a callback, invoked with the commit result once the batch
	// was committed or discarded.
	AddCallback(func(error))
}

// DB is a backend-neutral key-value database.
type DB interface {
	Reader() Reader

	// WithReaderBatchWriter creates a batch, passes it to fn and commits it if fn
	// returns no error. If fn errors, the batch is discarded and the error returned.
	WithReaderBatchWriter(fn func(ReaderBatchWriter) error) error

	Close() error
}

// OnlyWriter adapts a function writing to a Writer into a function consuming a ReaderBatchWriter.
func OnlyWriter(fn func(Writer) error) func(ReaderBatchWriter) error {
	return func(rw ReaderBatchWriter) error {
		return fn(rw.Writer())
	}
}

// PrefixUpperBound returns the smallest key that is larger than every key with the given
// prefix, or nil if there is none (prefix consisting of 0xff bytes only).
func PrefixUpperBound(prefix []byte) []byte {
	end := make([]byte, len(prefix))
	copy(end, prefix)
	for i := len(end) - 1; i >= 0; i-- {
		// increment the bytes by 1
		end[i] = end[i] + 1
		if end[i] != 0 {
			return end[:i+1]
		}
	}
	return nil // no upper-bound
}
