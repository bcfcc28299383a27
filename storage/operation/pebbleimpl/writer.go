package pebbleimpl

import (
	"github.com/cockroachdb/pebble/v2"

	"github.com/onflow/certstore/storage"
	op "github.com/onflow/certstore/storage/operation"
)

type ReaderBatchWriter struct {
	globalReader dbReader
	batch        *pebble.Batch

	callbacks op.Callbacks
}

var _ storage.ReaderBatchWriter = (*ReaderBatchWriter)(nil)
var _ storage.Writer = (*ReaderBatchWriter)(nil)

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
	err := b.batch.Commit(pebble.Sync)

	b.callbacks.NotifyCallbacks(err)

	return err
}

func WithReaderBatchWriter(db *pebble.DB, fn func(storage.ReaderBatchWriter) error) error {
	batch := NewReaderBatchWriter(db)
	defer func() {
		_ = batch.batch.Close()
	}()

	err := fn(batch)
	if err != nil {
		// fn might hold a lock to be released by a callback, hence we need to notify
		// the callbacks before returning the error.
		batch.callbacks.NotifyCallbacks(err)
		return err
	}

	return batch.Commit()
}

func NewReaderBatchWriter(db *pebble.DB) *ReaderBatchWriter {
	return &ReaderBatchWriter{
		globalReader: dbReader{db: db},
		batch:        db.NewBatch(),
	}
}

func (b *ReaderBatchWriter) Set(key, value []byte) error {
	return b.batch.Set(key, value, pebble.Sync)
}
