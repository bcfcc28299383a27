package migration

import (
	"bytes"
	"context"
	"fmt"

	"github.com/cockroachdb/pebble/v2"
	"github.com/dgraph-io/badger/v2"
	"golang.org/x/sync/errgroup"
)

type ValidationMode string

const (
	PartialValidation ValidationMode = "partial"
	FullValidation    ValidationMode = "full"
)

type MigrationConfig struct {
	PebbleDir              string
	BatchByteSize          int // the size of each batch to write to pebble
	ReaderWorkerCount      int // the number of workers to read from badger
	WriterWorkerCount      int // the number of workers to write to pebble
	ReaderShardPrefixBytes int // the number of key bytes used to split the key space between readers
	ValidationMode         ValidationMode
	ValidationOnly         bool // only validate, skip the copy
}

func (cfg MigrationConfig) withDefaults() MigrationConfig {
	if cfg.BatchByteSize <= 0 {
		cfg.BatchByteSize = DefaultMigrationConfig.BatchByteSize
	}
	if cfg.ReaderWorkerCount <= 0 {
		cfg.ReaderWorkerCount = 1
	}
	if cfg.WriterWorkerCount <= 0 {
		cfg.WriterWorkerCount = 1
	}
	if cfg.ReaderShardPrefixBytes <= 0 {
		cfg.ReaderShardPrefixBytes = 1
	}
	if cfg.ValidationMode == "" {
		cfg.ValidationMode = PartialValidation
	}
	return cfg
}

type KVPair struct {
	Key   []byte
	Value []byte
}

// keyRange is the half-open key range [start, end). A nil start is the first key,
// a nil end is past the last key.
type keyRange struct {
	start []byte
	end   []byte
}

func (r keyRange) contains(key []byte) bool {
	return r.end == nil || bytes.Compare(key, r.end) < 0
}

// GeneratePrefixes returns all byte prefixes of the given length in ascending order.
func GeneratePrefixes(n int) [][]byte {
	if n <= 0 {
		return [][]byte{}
	}
	total := 1 << (8 * n)
	prefixes := make([][]byte, 0, total)
	for i := 0; i < total; i++ {
		prefix := make([]byte, n)
		for j := 0; j < n; j++ {
			prefix[n-1-j] = byte(i >> (8 * j))
		}
		prefixes = append(prefixes, prefix)
	}
	return prefixes
}

// generateRanges splits the whole key space into consecutive ranges bounded by the
// prefixes of the given length. Keys shorter than the prefix length fall into the
// range of the preceding prefix, so every key belongs to exactly one range.
func generateRanges(prefixBytes int) []keyRange {
	prefixes := GeneratePrefixes(prefixBytes)
	ranges := make([]keyRange, 0, len(prefixes))
	for i := range prefixes {
		r := keyRange{start: prefixes[i]}
		if i == 0 {
			r.start = nil
		}
		if i+1 < len(prefixes) {
			r.end = prefixes[i+1]
		}
		ranges = append(ranges, r)
	}
	return ranges
}

// CopyFromBadgerToPebble copies every key-value pair of badgerDB into pebbleDB.
// Reader workers scan disjoint key ranges of badger and hand batches of at most
// cfg.BatchByteSize bytes to writer workers, which commit them to pebble.
func CopyFromBadgerToPebble(badgerDB *badger.DB, pebbleDB *pebble.DB, cfg MigrationConfig) error {
	cfg = cfg.withDefaults()
	ranges := generateRanges(cfg.ReaderShardPrefixBytes)

	g, ctx := errgroup.WithContext(context.Background())
	rangeCh := make(chan keyRange)
	kvCh := make(chan []KVPair, cfg.WriterWorkerCount*2)

	g.Go(func() error {
		defer close(rangeCh)
		for _, r := range ranges {
			select {
			case rangeCh <- r:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		return nil
	})

	g.Go(func() error {
		defer close(kvCh)
		readers, readerCtx := errgroup.WithContext(ctx)
		for i := 0; i < cfg.ReaderWorkerCount; i++ {
			readers.Go(func() error {
				for r := range rangeCh {
					if err := readRange(readerCtx, badgerDB, r, cfg.BatchByteSize, kvCh); err != nil {
						return err
					}
				}
				return nil
			})
		}
		return readers.Wait()
	})

	for i := 0; i < cfg.WriterWorkerCount; i++ {
		g.Go(func() error {
			for kvs := range kvCh {
				if err := writeBatch(pebbleDB, kvs); err != nil {
					return err
				}
			}
			return nil
		})
	}

	return g.Wait()
}

func readRange(ctx context.Context, db *badger.DB, r keyRange, batchByteSize int, out chan<- []KVPair) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	send := func(kvs []KVPair) error {
		select {
		case out <- kvs:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	return db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		var batch []KVPair
		size := 0
		for it.Seek(r.start); it.Valid(); it.Next() {
			item := it.Item()
			if !r.contains(item.Key()) {
				break
			}
			value, err := item.ValueCopy(nil)
			if err != nil {
				return fmt.Errorf("could not read value of key %x: %w", item.Key(), err)
			}
			kv := KVPair{Key: item.KeyCopy(nil), Value: value}
			batch = append(batch, kv)
			size += len(kv.Key) + len(kv.Value)
			if size >= batchByteSize {
				if err := send(batch); err != nil {
					return err
				}
				batch = nil
				size = 0
			}
		}
		if len(batch) > 0 {
			return send(batch)
		}
		return nil
	})
}

func writeBatch(db *pebble.DB, kvs []KVPair) error {
	batch := db.NewBatch()
	defer batch.Close()
	for _, kv := range kvs {
		if err := batch.Set(kv.Key, kv.Value, nil); err != nil {
			return fmt.Errorf("could not add key %x to batch: %w", kv.Key, err)
		}
	}
	if err := batch.Commit(pebble.Sync); err != nil {
		return fmt.Errorf("could not commit batch of %d keys: %w", len(kvs), err)
	}
	return nil
}
