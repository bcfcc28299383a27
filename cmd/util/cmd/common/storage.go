package common

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/onflow/certstore/module/metrics"
	"github.com/onflow/certstore/storage"
	"github.com/onflow/certstore/storage/operation/badgerimpl"
	"github.com/onflow/certstore/storage/operation/pebbleimpl"
	"github.com/onflow/certstore/storage/store"
)

const (
	FlagDBKind      = "db-kind"
	FlagDataDir     = "datadir"
	FlagFaultPolicy = "fault-policy"

	DBKindAuto   = "auto"
	DBKindBadger = "badger"
	DBKindPebble = "pebble"
)

// InitStorageFlags registers the flags selecting the database a command operates on.
func InitStorageFlags(flags *pflag.FlagSet) {
	flags.String(FlagDBKind, DBKindAuto, "database backend, one of auto|badger|pebble; auto detects it from --datadir and defaults to pebble")
	flags.String(FlagDataDir, "", "directory of the database")
	flags.String(FlagFaultPolicy, "", "optional YAML file with the fault injection policy of the consensus storage")
}

// StorageConfig is the database selection read from flags or the environment.
type StorageConfig struct {
	DBKind      string
	DataDir     string
	FaultPolicy string
}

// ReadStorageConfig reads the storage flags from v. Values can also be set through
// CERTSTORE_DB_KIND, CERTSTORE_DATADIR and CERTSTORE_FAULT_POLICY.
func ReadStorageConfig(v *viper.Viper) (StorageConfig, error) {
	cfg := StorageConfig{
		DBKind:      v.GetString(FlagDBKind),
		DataDir:     v.GetString(FlagDataDir),
		FaultPolicy: v.GetString(FlagFaultPolicy),
	}
	if cfg.DataDir == "" {
		return StorageConfig{}, fmt.Errorf("--%s is required", FlagDataDir)
	}
	switch cfg.DBKind {
	case DBKindAuto, DBKindBadger, DBKindPebble:
	default:
		return StorageConfig{}, fmt.Errorf("unknown --%s %q, expected %s, %s or %s", FlagDBKind, cfg.DBKind, DBKindAuto, DBKindBadger, DBKindPebble)
	}
	return cfg, nil
}

// ResolveDBKind returns the backend of cfg, inspecting the data directory if the kind
// is auto. An empty or missing directory resolves to pebble.
func ResolveDBKind(cfg StorageConfig) (string, error) {
	if cfg.DBKind != DBKindAuto {
		return cfg.DBKind, nil
	}
	kind, err := storage.InspectFolder(cfg.DataDir)
	if err != nil {
		return "", fmt.Errorf("could not inspect %s: %w", cfg.DataDir, err)
	}
	switch kind {
	case storage.FolderBadger:
		return DBKindBadger, nil
	case storage.FolderPebble, storage.FolderEmpty:
		return DBKindPebble, nil
	default:
		return "", fmt.Errorf("%s holds neither a badger nor a pebble database", cfg.DataDir)
	}
}

// OpenDB opens the database selected by cfg. The caller must close it.
func OpenDB(log zerolog.Logger, cfg StorageConfig) (storage.DB, error) {
	kind, err := ResolveDBKind(cfg)
	if err != nil {
		return nil, err
	}
	log.Info().Str("db_kind", kind).Str("datadir", cfg.DataDir).Msg("opening database")

	switch kind {
	case DBKindBadger:
		return badgerimpl.Open(cfg.DataDir, log)
	case DBKindPebble:
		return pebbleimpl.Open(cfg.DataDir, log)
	default:
		return nil, fmt.Errorf("unknown db kind %q", kind)
	}
}

// InitConsensusStorage loads the consensus storage engine from db, applying the fault
// policy file of cfg if one is set. Metrics are registered with registerer.
func InitConsensusStorage(log zerolog.Logger, db storage.DB, cfg StorageConfig, registerer prometheus.Registerer) (*store.ConsensusStorage, error) {
	opts := []store.Option{
		store.WithLogger(log),
		store.WithMetrics(metrics.NewConsensusStorageCollector(registerer)),
	}
	if cfg.FaultPolicy != "" {
		policy, err := store.LoadFaultPolicy(cfg.FaultPolicy)
		if err != nil {
			return nil, fmt.Errorf("could not load fault policy: %w", err)
		}
		opts = append(opts, store.WithFaultPolicy(policy))
	}

	s, err := store.NewConsensusStorage(db, opts...)
	if err != nil {
		return nil, fmt.Errorf("could not init consensus storage: %w", err)
	}
	return s, nil
}
