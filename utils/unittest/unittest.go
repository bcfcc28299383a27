package unittest

import (
	"testing"
	"time"

	"github.com/cockroachdb/pebble/v2"
	"github.com/dgraph-io/badger/v2"
	"github.com/stretchr/testify/require"
)

// RequireReturnsBefore fails the test if f is still running after timeout.
func RequireReturnsBefore(t testing.TB, f func(), timeout time.Duration) {
	done := make(chan struct{})
	go func() {
		defer close(done)
		f()
	}()

	select {
	case <-done:
	case <-time.After(timeout):
		require.FailNow(t, "function did not return in time", "timeout: %s", timeout)
	}
}

// RunWithTempDir runs f with a fresh directory that is removed when the test ends.
func RunWithTempDir(t testing.TB, f func(dir string)) {
	f(t.TempDir())
}

// BadgerDB opens a badger database in dir with logging disabled.
func BadgerDB(t testing.TB, dir string) *badger.DB {
	db, err := badger.Open(badger.DefaultOptions(dir).WithKeepL0InMemory(true).WithLogger(nil))
	require.NoError(t, err, "could not open badger db in %s", dir)
	return db
}

// PebbleDB opens a pebble database in dir with default options.
func PebbleDB(t testing.TB, dir string) *pebble.DB {
	db, err := pebble.Open(dir, &pebble.Options{})
	require.NoError(t, err, "could not open pebble db in %s", dir)
	return db
}

func RunWithBadgerDB(t testing.TB, f func(*badger.DB)) {
	db := BadgerDB(t, t.TempDir())
	defer db.Close()
	f(db)
}

func RunWithPebbleDB(t testing.TB, f func(*pebble.DB)) {
	db := PebbleDB(t, t.TempDir())
	defer db.Close()
	f(db)
}

// RunWithBadgerDBAndPebbleDB runs f with an empty badger and an empty pebble database.
func RunWithBadgerDBAndPebbleDB(t testing.TB, f func(*badger.DB, *pebble.DB)) {
	RunWithBadgerDB(t, func(badgerDB *badger.DB) {
		RunWithPebbleDB(t, func(pebbleDB *pebble.DB) {
			f(badgerDB, pebbleDB)
		})
	})
}
