package dbtest

import (
	"testing"

	"github.com/cockroachdb/pebble/v2"
	"github.com/dgraph-io/badger/v2"
	"github.com/stretchr/testify/require"

	"github.com/onflow/certstore/storage"
	"github.com/onflow/certstore/storage/operation/badgerimpl"
	"github.com/onflow/certstore/storage/operation/pebbleimpl"
	"github.com/onflow/certstore/utils/unittest"
)

type WithWriter func(*testing.T, func(storage.Writer) error)

// RunWithStorages runs fn against a reader and a writer of every supported backend.
func RunWithStorages(t *testing.T, fn func(*testing.T, storage.Reader, WithWriter)) {
	t.Run("BadgerStorage", func(t *testing.T) {
		unittest.RunWithBadgerDB(t, func(db *badger.DB) {
			withWriter := func(t *testing.T, writing func(storage.Writer) error) {
				writer := badgerimpl.NewReaderBatchWriter(db)
				require.NoError(t, writing(writer))
				require.NoError(t, writer.Commit())
			}

			reader := badgerimpl.ToDB(db).Reader()
			fn(t, reader, withWriter)
		})
	})

	t.Run("PebbleStorage", func(t *testing.T) {
		unittest.RunWithPebbleDB(t, func(db *pebble.DB) {
			withWriter := func(t *testing.T, writing func(storage.Writer) error) {
				writer := pebbleimpl.NewReaderBatchWriter(db)
				require.NoError(t, writing(writer))
				require.NoError(t, writer.Commit())
			}

			reader := pebbleimpl.ToDB(db).Reader()
			fn(t, reader, withWriter)
		})
	})
}

// RunWithDB runs fn against a storage.DB of every supported backend.
func RunWithDB(t *testing.T, fn func(*testing.T, storage.DB)) {
	t.Run("BadgerStorage", func(t *testing.T) {
		unittest.RunWithBadgerDB(t, func(db *badger.DB) {
			fn(t, badgerimpl.ToDB(db))
		})
	})

	t.Run("PebbleStorage", func(t *testing.T) {
		unittest.RunWithPebbleDB(t, func(db *pebble.DB) {
			fn(t, pebbleimpl.ToDB(db))
		})
	})
}

// DBOpener opens a storage.DB in the given directory.
type DBOpener func(t testing.TB, dir string) storage.DB

// RunWithReopenableDB runs fn with a temporary directory and an opener for every
// supported backend, so that fn can close and reopen the database in between.
func RunWithReopenableDB(t *testing.T, fn func(*testing.T, string, DBOpener)) {
	t.Run("BadgerStorage", func(t *testing.T) {
		unittest.RunWithTempDir(t, func(dir string) {
			fn(t, dir, func(t testing.TB, dir string) storage.DB {
				return badgerimpl.ToDB(unittest.BadgerDB(t, dir))
			})
		})
	})

	t.Run("PebbleStorage", func(t *testing.T) {
		unittest.RunWithTempDir(t, func(dir string) {
			fn(t, dir, func(t testing.TB, dir string) storage.DB {
				return pebbleimpl.ToDB(unittest.PebbleDB(t, dir))
			})
		})
	})
}
