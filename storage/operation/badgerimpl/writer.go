package badgerimpl

import (
	"github.com/dgraph-io/badger/v2"

	"github.com/onflow/certstore/storage"
	op "github.com/onflow/certstore/storage/operation"
)

type ReaderBatchWriter struct {
	globalReader dbReader
	batch        *badger.WriteBatch

	callbacks op.Callbacks
}

var _ storage.ReaderBatchWriter = (*ReaderBatchWriter)(nil)
var _ storage.Writer = (*ReaderBatchWriter)(nil)

// GlobalReader returns a reader of the committed database state. Writes of the
// batch are not visible to it.
func (b *ReaderBatchWriter) GlobalReader() storage.Reader {
	return b.globalReader
}

func (b *ReaderBatchWriter) Writer() storage.Writer {
	return b
}

func (b *ReaderBatchWriter) AddCallback(callback func(error)) {
	b.callbacks.AddCallback(callback)
}

func (b *ReaderBatchWriter) Commit() error {
	err := b.batch.Flush()

	b.callbacks.NotifyCallbacks(err)

	return err
}

func WithReaderBatchWriter(db *badger.DB, fn func(storage.ReaderBatchWriter) error) error {
	batch := NewReaderBatchWriter(db)

	err := fn(batch)
	if err != nil {
		// fn might hold a lock to be released by a callback, hence we need to notify
		// the callbacks before returning the error.
		batch.batch.Cancel()
		batch.callbacks.NotifyCallbacks(err)
		return err
	}

	return batch.Commit()
}

func NewReaderBatchWriter(db *badger.DB) *ReaderBatchWriter {
	return &ReaderBatchWriter{
		globalReader: dbReader{db: db},
		batch:        db.NewWriteBatch(),
	}
}

func (b *ReaderBatchWriter) Set(key, value []byte) error {
	return b.batch.Set(key, value)
}
