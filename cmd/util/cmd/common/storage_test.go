package common

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/onflow/certstore/storage"
	"github.com/onflow/certstore/storage/operation/pebbleimpl"
	"github.com/onflow/certstore/utils/unittest"
)

func newViper(t *testing.T, args ...string) *viper.Viper {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	InitStorageFlags(flags)
	require.NoError(t, flags.Parse(args))

	v := viper.New()
	require.NoError(t, v.BindPFlags(flags))
	return v
}

func TestReadStorageConfig(t *testing.T) {
	cfg, err := ReadStorageConfig(newViper(t, "--datadir", "/tmp/db"))
	require.NoError(t, err)
	assert.Equal(t, StorageConfig{DBKind: DBKindAuto, DataDir: "/tmp/db"}, cfg)

	cfg, err = ReadStorageConfig(newViper(t, "--datadir", "/tmp/db", "--db-kind", "badger", "--fault-policy", "faults.yaml"))
	require.NoError(t, err)
	assert.Equal(t, StorageConfig{DBKind: DBKindBadger, DataDir: "/tmp/db", FaultPolicy: "faults.yaml"}, cfg)

	_, err = ReadStorageConfig(newViper(t))
	require.Error(t, err)

	_, err = ReadStorageConfig(newViper(t, "--datadir", "/tmp/db", "--db-kind", "rocks"))
	require.Error(t, err)
}

func TestOpenDBAndInitConsensusStorage(t *testing.T) {
	for _, kind := range []string{DBKindBadger, DBKindPebble} {
		t.Run(kind, func(t *testing.T) {
			unittest.RunWithTempDir(t, func(dir string) {
				policyFile := filepath.Join(dir, "faults.yaml")
				require.NoError(t, os.WriteFile(policyFile, []byte("update_high_qc:\n  fail: true\n"), 0644))

				cfg := StorageConfig{DBKind: kind, DataDir: filepath.Join(dir, "db"), FaultPolicy: policyFile}
				db, err := OpenDB(unittest.Logger(), cfg)
				require.NoError(t, err)
				defer func() {
					require.NoError(t, db.Close())
				}()

				s, err := InitConsensusStorage(unittest.Logger(), db, cfg, prometheus.NewRegistry())
				require.NoError(t, err)

				err = s.UpdateHighQC(unittest.QuorumCertificateFixture(1))
				require.ErrorIs(t, err, storage.ErrInjectedFault)
				require.NoError(t, s.AppendProposal(unittest.QuorumProposalFixture(1)))
			})
		})
	}
}

func TestInitConsensusStorageMissingPolicy(t *testing.T) {
	cfg := StorageConfig{DBKind: DBKindPebble, DataDir: "unused", FaultPolicy: "does-not-exist.yaml"}
	_, err := InitConsensusStorage(unittest.Logger(), nil, cfg, prometheus.NewRegistry())
	require.Error(t, err)
}

func TestResolveDBKind(t *testing.T) {
	unittest.RunWithTempDir(t, func(dir string) {
		badgerDir := filepath.Join(dir, "badger")
		db := unittest.BadgerDB(t, badgerDir)
		require.NoError(t, db.Close())

		kind, err := ResolveDBKind(StorageConfig{DBKind: DBKindAuto, DataDir: badgerDir})
		require.NoError(t, err)
		assert.Equal(t, DBKindBadger, kind)

		pebbleDir := filepath.Join(dir, "pebble")
		pdb, err := pebbleimpl.Open(pebbleDir, unittest.Logger())
		require.NoError(t, err)
		require.NoError(t, pdb.Close())

		kind, err = ResolveDBKind(StorageConfig{DBKind: DBKindAuto, DataDir: pebbleDir})
		require.NoError(t, err)
		assert.Equal(t, DBKindPebble, kind)

		// a database created by the tool is found again
		opened, err := OpenDB(unittest.Logger(), StorageConfig{DBKind: DBKindAuto, DataDir: pebbleDir})
		require.NoError(t, err)
		require.NoError(t, opened.Close())

		kind, err = ResolveDBKind(StorageConfig{DBKind: DBKindAuto, DataDir: filepath.Join(dir, "new")})
		require.NoError(t, err)
		assert.Equal(t, DBKindPebble, kind)

		kind, err = ResolveDBKind(StorageConfig{DBKind: DBKindPebble, DataDir: badgerDir})
		require.NoError(t, err)
		assert.Equal(t, DBKindPebble, kind)

		require.NoError(t, os.WriteFile(filepath.Join(dir, "junk"), []byte("x"), 0644))
		_, err = ResolveDBKind(StorageConfig{DBKind: DBKindAuto, DataDir: dir})
		require.Error(t, err)
	})
}
