package migration

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/cockroachdb/pebble/v2"
	"github.com/dgraph-io/badger/v2"
	"github.com/hashicorp/go-multierror"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/onflow/certstore/storage/operation/pebbleimpl"
	"github.com/onflow/certstore/storage/util"
)

var DefaultMigrationConfig = MigrationConfig{
	BatchByteSize:          32_000_000, // 32 MB
	ReaderWorkerCount:      2,
	WriterWorkerCount:      2,
	ReaderShardPrefixBytes: 2,
	ValidationMode:         PartialValidation,
}

const (
	startedMarker   = "MIGRATION_STARTED"
	completedMarker = "MIGRATION_COMPLETED"
)

// databases holds the open source and target of a migration.
type databases struct {
	badger *badger.DB
	pebble *pebble.DB
	cache  *pebble.Cache
}

func openDatabases(badgerDir string, pebbleDir string) (*databases, error) {
	badgerDB, err := badger.Open(badger.DefaultOptions(badgerDir).
		WithLogger(util.NewLogger(log.Logger.With().Str("db", "badger").Logger())))
	if err != nil {
		return nil, fmt.Errorf("failed to open BadgerDB: %w", err)
	}

	cache := pebble.NewCache(pebbleimpl.DefaultPebbleCacheSize)
	pebbleDB, err := pebble.Open(pebbleDir, pebbleimpl.DefaultPebbleOptions(log.Logger, cache))
	if err != nil {
		cache.Unref()
		return nil, multierror.Append(fmt.Errorf("failed to open PebbleDB: %w", err), badgerDB.Close())
	}

	return &databases{badger: badgerDB, pebble: pebbleDB, cache: cache}, nil
}

func (d *databases) close() error {
	var merr *multierror.Error
	if err := d.pebble.Close(); err != nil {
		merr = multierror.Append(merr, fmt.Errorf("failed to close PebbleDB: %w", err))
	}
	d.cache.Unref()
	if err := d.badger.Close(); err != nil {
		merr = multierror.Append(merr, fmt.Errorf("failed to close BadgerDB: %w", err))
	}
	return merr.ErrorOrNil()
}

// step is one logged stage of a migration run.
type step struct {
	name string
	run  func() error
}

func runSteps(lg zerolog.Logger, steps []step) error {
	for i, s := range steps {
		start := time.Now()
		lg.Info().Msgf("step %d/%d: %s", i+1, len(steps), s.name)
		if err := s.run(); err != nil {
			return fmt.Errorf("%s: %w", s.name, err)
		}
		lg.Info().Dur("duration", time.Since(start)).Msgf("step %d/%d: %s completed", i+1, len(steps), s.name)
	}
	return nil
}

func writeMarker(dir string, name string, event string) error {
	content := fmt.Sprintf("migration %s at %s\n", event, time.Now().Format(time.RFC3339))
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write %s file: %w", name, err)
	}
	return nil
}

// RunMigration copies all key-value data of the badger database in badgerDir into a
// new pebble database in pebbleDir and validates the copy.
//
// The badger directory must be non-empty and the pebble directory empty or missing.
// A MIGRATION_STARTED marker is written into pebbleDir before copying and a
// MIGRATION_COMPLETED marker once the copy passed validation, so an interrupted run
// can be told apart from a finished one.
//
// With cfg.ValidationOnly set, both databases must already exist and only the
// validation runs.
func RunMigration(badgerDir string, pebbleDir string, cfg MigrationConfig) (err error) {
	lg := log.With().
		Str("from-badger-dir", badgerDir).
		Str("to-pebble-dir", pebbleDir).
		Str("validation-mode", string(cfg.ValidationMode)).
		Logger()

	if !cfg.ValidationOnly {
		if err := validateBadgerFolderExistPebbleFolderEmpty(badgerDir, pebbleDir); err != nil {
			return fmt.Errorf("directory validation failed: %w", err)
		}
	}

	dbs, err := openDatabases(badgerDir, pebbleDir)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := dbs.close(); closeErr != nil {
			err = multierror.Append(err, closeErr).ErrorOrNil()
		}
	}()

	validate := step{name: "data validation", run: func() error {
		return validateData(dbs.badger, dbs.pebble, cfg)
	}}

	if cfg.ValidationOnly {
		return runSteps(lg, []step{validate})
	}

	cfg.PebbleDir = pebbleDir
	return runSteps(lg, []step{
		{name: "start marker", run: func() error {
			return writeMarker(pebbleDir, startedMarker, "started")
		}},
		{name: "data copy", run: func() error {
			return CopyFromBadgerToPebble(dbs.badger, dbs.pebble, cfg)
		}},
		validate,
		{name: "completion marker", run: func() error {
			return writeMarker(pebbleDir, completedMarker, "completed")
		}},
	})
}
