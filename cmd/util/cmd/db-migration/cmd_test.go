package db

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/dgraph-io/badger/v2"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"

	"github.com/onflow/certstore/cmd/util/cmd/common"
	"github.com/onflow/certstore/utils/unittest"
)

func TestDBMigrationCommand(t *testing.T) {
	unittest.RunWithTempDir(t, func(dir string) {
		badgerDir := filepath.Join(dir, "badger")
		pebbleDir := filepath.Join(dir, "pebble")

		data := make(map[string]string)
		bdb := unittest.BadgerDB(t, badgerDir)
		require.NoError(t, bdb.Update(func(txn *badger.Txn) error {
			for i := 0; i < 100; i++ {
				key, value := fmt.Sprintf("key-%03d", i), fmt.Sprintf("value-%d", i)
				data[key] = value
				if err := txn.Set([]byte(key), []byte(value)); err != nil {
					return err
				}
			}
			return nil
		}))
		require.NoError(t, bdb.Close())

		viper.Set(common.FlagDataDir, badgerDir)
		t.Cleanup(viper.Reset)

		Cmd.SetArgs([]string{"--pebbledir", pebbleDir, "--validation_mode", "full", "--batch_byte_size", "256"})
		require.NoError(t, Cmd.Execute())

		require.FileExists(t, filepath.Join(pebbleDir, "MIGRATION_STARTED"))
		require.FileExists(t, filepath.Join(pebbleDir, "MIGRATION_COMPLETED"))

		// validating the finished copy again succeeds
		Cmd.SetArgs([]string{"--pebbledir", pebbleDir, "--validation_only"})
		require.NoError(t, Cmd.Execute())

		pdb := unittest.PebbleDB(t, pebbleDir)
		defer func() {
			require.NoError(t, pdb.Close())
		}()
		for key, value := range data {
			got, closer, err := pdb.Get([]byte(key))
			require.NoError(t, err)
			require.Equal(t, value, string(got))
			require.NoError(t, closer.Close())
		}
	})
}

func TestDBMigrationCommandRequiresDataDir(t *testing.T) {
	unittest.RunWithTempDir(t, func(dir string) {
		t.Cleanup(viper.Reset)
		Cmd.SetArgs([]string{"--pebbledir", filepath.Join(dir, "pebble"), "--validation_only=false"})
		require.ErrorContains(t, Cmd.Execute(), "--datadir is required")

		_, err := os.Stat(filepath.Join(dir, "pebble"))
		require.True(t, os.IsNotExist(err))
	})
}
