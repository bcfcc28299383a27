package pebbleimpl

import (
	"fmt"

	"github.com/cockroachdb/pebble/v2"
	"github.com/rs/zerolog"

	"github.com/onflow/certstore/storage"
	"github.com/onflow/certstore/storage/util"
)

// DefaultPebbleCacheSize is the block cache size of databases opened with Open.
const DefaultPebbleCacheSize = 1 << 26 // 64 MB

// ToDB wraps an open pebble database. Closing the returned DB closes the pebble database.
func ToDB(db *pebble.DB) storage.DB {
	return &dbStore{db: db}
}

// DefaultPebbleOptions returns the options databases are opened with.
func DefaultPebbleOptions(log zerolog.Logger, cache *pebble.Cache) *pebble.Options {
	return &pebble.Options{
		Cache:  cache,
		Logger: util.NewLogger(log.With().Str("db", "pebble").Logger()),
	}
}

// Open opens (or creates) a pebble database in dir.
func Open(dir string, log zerolog.Logger) (storage.DB, error) {
	cache := pebble.NewCache(DefaultPebbleCacheSize)
	defer cache.Unref()

	db, err := pebble.Open(dir, DefaultPebbleOptions(log, cache))
	if err != nil {
		return nil, fmt.Errorf("could not open pebble db at %s: %w", dir, err)
	}
	return ToDB(db), nil
}

type dbStore struct {
	db *pebble.DB
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
