package badgerimpl

import (
	"fmt"

	"github.com/dgraph-io/badger/v2"
	"github.com/rs/zerolog"

	"github.com/onflow/certstore/storage"
	"github.com/onflow/certstore/storage/util"
)

// ToDB wraps an open badger database. Closing the returned DB closes the badger database.
func ToDB(db *badger.DB) storage.DB {
	return &dbStore{db: db}
}

// Open opens (or creates) a badger database in dir.
func Open(dir string, log zerolog.Logger) (storage.DB, error) {
	opts := badger.
		DefaultOptions(dir).
		WithLogger(util.NewLogger(log.With().Str("db", "badger").Logger()))
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("could not open badger db at %s: %w", dir, err)
	}
	return ToDB(db), nil
}

type dbStore struct {
	db *badger.DB
}

var _ storage.DB = (*dbStore)(nil)

func (b *dbStore) Reader() storage.Reader {
	return dbReader{db: b.db}
}

func (b *dbStore) WithReaderBatchWriter(fn func(storage.ReaderBatchWriter) error) error {
	return WithReaderBatchWriter(b.db, fn)
}

func (b *dbStore) Close() error {
	return b.db.Close()
}
