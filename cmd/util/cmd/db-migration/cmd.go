package db

import (
	"fmt"

	"github.com/docker/go-units"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/onflow/certstore/cmd/util/cmd/common"
	"github.com/onflow/certstore/storage/migration"
	"github.com/onflow/certstore/utils/io"
)

var (
	flagPebbleDBdir            string
	flagBatchByteSize          int
	flagReaderCount            int
	flagWriterCount            int
	flagReaderShardPrefixBytes int
	flagValidationMode         string
	flagValidationOnly         bool
)

var Cmd = &cobra.Command{
	Use:   "db-migration",
	Short: "copy badger db (--datadir) to pebble db (--pebbledir)",
	RunE:  run,
}

func init() {
	Cmd.Flags().StringVar(&flagPebbleDBdir, "pebbledir", "", "PebbleDB Dir to copy data to")
	_ = Cmd.MarkFlagRequired("pebbledir")

	Cmd.Flags().IntVar(&flagBatchByteSize, "batch_byte_size", migration.DefaultMigrationConfig.BatchByteSize,
		"the batch size in bytes to use for migration (32MB by default)")

	Cmd.Flags().IntVar(&flagReaderCount, "reader_count", migration.DefaultMigrationConfig.ReaderWorkerCount,
		"the number of reader workers to use for migration")

	Cmd.Flags().IntVar(&flagWriterCount, "writer_count", migration.DefaultMigrationConfig.WriterWorkerCount,
		"the number of writer workers to use for migration")

	Cmd.Flags().IntVar(&flagReaderShardPrefixBytes, "reader_shard_prefix_bytes", migration.DefaultMigrationConfig.ReaderShardPrefixBytes,
		"the number of prefix bytes used to assign iterator workload")

	Cmd.Flags().StringVar(&flagValidationMode, "validation_mode", string(migration.DefaultMigrationConfig.ValidationMode),
		"validation of the copied data, one of partial|full")

	Cmd.Flags().BoolVar(&flagValidationOnly, "validation_only", false,
		"only validate an existing copy")
}

func run(*cobra.Command, []string) error {
	badgerDir := viper.GetString(common.FlagDataDir)
	if badgerDir == "" {
		return fmt.Errorf("--%s is required", common.FlagDataDir)
	}

	lg := log.With().
		Str("badger_db_dir", badgerDir).
		Str("pebble_db_dir", flagPebbleDBdir).
		Str("batch_byte_size", units.HumanSize(float64(flagBatchByteSize))).
		Int("reader_count", flagReaderCount).
		Int("writer_count", flagWriterCount).
		Int("reader_shard_prefix_bytes", flagReaderShardPrefixBytes).
		Str("validation_mode", flagValidationMode).
		Logger()

	for _, dir := range []string{badgerDir, flagPebbleDBdir} {
		lock := io.NewDirLock(dir)
		if err := lock.Lock(); err != nil {
			return err
		}
		defer lock.Unlock()
	}

	lg.Info().Msgf("starting migration from badger db to pebble db")

	err := migration.RunMigration(badgerDir, flagPebbleDBdir, migration.MigrationConfig{
		BatchByteSize:          flagBatchByteSize,
		ReaderWorkerCount:      flagReaderCount,
		WriterWorkerCount:      flagWriterCount,
		ReaderShardPrefixBytes: flagReaderShardPrefixBytes,
		ValidationMode:         migration.ValidationMode(flagValidationMode),
		ValidationOnly:         flagValidationOnly,
	})
	if err != nil {
		lg.Error().Err(err).Msg("migration failed")
		return err
	}

	lg.Info().Msgf("migration completed")
	return nil
}
