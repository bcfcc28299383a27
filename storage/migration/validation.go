package migration

import (
	"errors"
	"fmt"
	"os"
	"slices"

	"github.com/cockroachdb/pebble/v2"
	"github.com/dgraph-io/badger/v2"
	"github.com/hashicorp/go-multierror"
)

// validateBadgerFolderExistPebbleFolderEmpty checks if the Badger directory exists and is non-empty,
// and if the Pebble directory does not exist or is empty.
func validateBadgerFolderExistPebbleFolderEmpty(badgerDir string, pebbleDir string) error {
	badgerEntries, err := os.ReadDir(badgerDir)
	if err != nil {
		return fmt.Errorf("badger directory invalid: %w", err)
	}
	if len(badgerEntries) == 0 {
		return fmt.Errorf("badger directory %s is empty", badgerDir)
	}

	if stat, err := os.Stat(pebbleDir); err == nil && stat.IsDir() {
		pebbleEntries, err := os.ReadDir(pebbleDir)
		if err != nil {
			return fmt.Errorf("failed to read pebble directory: %w", err)
		}
		if len(pebbleEntries) > 0 {
			return errors.New("pebble directory is not empty")
		}
	} else if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("error checking pebble directory: %w", err)
	} else {
		if err := os.MkdirAll(pebbleDir, 0755); err != nil {
			return fmt.Errorf("failed to create pebble directory: %w", err)
		}
	}

	return nil
}

func validateData(badgerDB *badger.DB, pebbleDB *pebble.DB, cfg MigrationConfig) error {
	cfg = cfg.withDefaults()
	switch cfg.ValidationMode {
	case PartialValidation:
		return validateMinMaxKeyConsistency(badgerDB, pebbleDB, cfg.ReaderShardPrefixBytes)
	case FullValidation:
		return validateAllKeys(badgerDB, pebbleDB)
	default:
		return fmt.Errorf("unknown validation mode %q", cfg.ValidationMode)
	}
}

// validateMinMaxKeyConsistency compares the smallest and the largest key of every
// key range between both databases.
func validateMinMaxKeyConsistency(badgerDB *badger.DB, pebbleDB *pebble.DB, prefixBytes int) error {
	keys, err := collectValidationKeys(badgerDB, prefixBytes)
	if err != nil {
		return fmt.Errorf("failed to collect validation keys: %w", err)
	}
	if err := compareValuesBetweenDBs(keys, badgerDB, pebbleDB); err != nil {
		return fmt.Errorf("data mismatch found: %w", err)
	}
	return nil
}

func collectValidationKeys(db *badger.DB, prefixBytes int) ([][]byte, error) {
	var allKeys [][]byte

	err := db.View(func(txn *badger.Txn) error {
		for _, r := range generateRanges(prefixBytes) {
			opts := badger.DefaultIteratorOptions
			opts.PrefetchValues = false
			it := txn.NewIterator(opts)
			it.Seek(r.start)
			if it.Valid() && r.contains(it.Item().Key()) {
				allKeys = append(allKeys, slices.Clone(it.Item().Key()))
			}
			it.Close()

			// the reverse iterator seeks to the largest key <= end, so a key equal
			// to the exclusive end has to be skipped. A nil end starts from the last key.
			opts.Reverse = true
			it = txn.NewIterator(opts)
			it.Seek(r.end)
			if it.Valid() && r.end != nil && slices.Equal(it.Item().Key(), r.end) {
				it.Next()
			}
			if it.Valid() && r.contains(it.Item().Key()) && (r.start == nil || slices.Compare(it.Item().Key(), r.start) >= 0) {
				allKeys = append(allKeys, slices.Clone(it.Item().Key()))
			}
			it.Close()
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	keyMap := make(map[string][]byte, len(allKeys))
	for _, k := range allKeys {
		keyMap[string(k)] = k
	}
	uniqueKeys := make([][]byte, 0, len(keyMap))
	for _, k := range keyMap {
		uniqueKeys = append(uniqueKeys, k)
	}

	return uniqueKeys, nil
}

func compareValuesBetweenDBs(keys [][]byte, badgerDB *badger.DB, pebbleDB *pebble.DB) error {
	var merr *multierror.Error
	for _, key := range keys {
		var badgerVal []byte
		err := badgerDB.View(func(txn *badger.Txn) error {
			item, err := txn.Get(key)
			if err != nil {
				return err
			}
			badgerVal, err = item.ValueCopy(nil)
			return err
		})
		if err != nil {
			merr = multierror.Append(merr, fmt.Errorf("badger get error for key %x: %w", key, err))
			continue
		}

		if err := comparePebbleValue(pebbleDB, key, badgerVal); err != nil {
			merr = multierror.Append(merr, err)
		}
	}
	return merr.ErrorOrNil()
}

func comparePebbleValue(pebbleDB *pebble.DB, key []byte, expected []byte) error {
	pebbleVal, closer, err := pebbleDB.Get(key)
	if err != nil {
		return fmt.Errorf("pebble get error for key %x: %w", key, err)
	}
	defer closer.Close()
	if string(pebbleVal) != string(expected) {
		return fmt.Errorf("value mismatch for key %x: badger=%x pebble=%x", key, expected, pebbleVal)
	}
	return nil
}

// validateAllKeys compares every key of badgerDB with pebbleDB and checks that
// pebbleDB holds no additional keys.
func validateAllKeys(badgerDB *badger.DB, pebbleDB *pebble.DB) error {
	var merr *multierror.Error
	badgerCount := 0

	err := badgerDB.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			value, err := item.ValueCopy(nil)
			if err != nil {
				return fmt.Errorf("could not read value of key %x: %w", item.Key(), err)
			}
			badgerCount++
			if err := comparePebbleValue(pebbleDB, item.Key(), value); err != nil {
				merr = multierror.Append(merr, err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("could not iterate badger db: %w", err)
	}

	pebbleCount, err := countPebbleKeys(pebbleDB)
	if err != nil {
		return err
	}
	if pebbleCount != badgerCount {
		merr = multierror.Append(merr, fmt.Errorf("key count mismatch: badger=%d pebble=%d", badgerCount, pebbleCount))
	}

	return merr.ErrorOrNil()
}

func countPebbleKeys(db *pebble.DB) (int, error) {
	iter, err := db.NewIter(nil)
	if err != nil {
		return 0, fmt.Errorf("could not create pebble iterator: %w", err)
	}
	defer iter.Close()

	count := 0
	for iter.First(); iter.Valid(); iter.Next() {
		count++
	}
	if err := iter.Error(); err != nil {
		return 0, fmt.Errorf("could not iterate pebble db: %w", err)
	}
	return count, nil
}
