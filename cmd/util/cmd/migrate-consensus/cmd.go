package migrate

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/onflow/certstore/cmd/util/cmd/common"
	"github.com/onflow/certstore/utils/io"
)

var Cmd = &cobra.Command{
	Use:   "migrate-consensus",
	Short: "convert the stored quorum proposals to the epoch-aware format",
	RunE:  run,
}

func run(cmd *cobra.Command, _ []string) error {
	cfg, err := common.ReadStorageConfig(viper.GetViper())
	if err != nil {
		return err
	}

	lg := log.With().
		Str("db_kind", cfg.DBKind).
		Str("datadir", cfg.DataDir).
		Logger()

	lock := io.NewDirLock(cfg.DataDir)
	if err := lock.Lock(); err != nil {
		return err
	}
	defer lock.Unlock()

	db, err := common.OpenDB(lg, cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	s, err := common.InitConsensusStorage(lg, db, cfg, prometheus.NewRegistry())
	if err != nil {
		return err
	}

	proposals, err := s.QuorumProposals()
	if err != nil {
		return fmt.Errorf("could not read quorum proposals: %w", err)
	}

	lg.Info().Int("proposals", len(proposals)).Msg("starting consensus migration")
	if err := s.MigrateConsensus(); err != nil {
		return fmt.Errorf("consensus migration failed: %w", err)
	}

	migrated, err := s.QuorumProposals2()
	if err != nil {
		return fmt.Errorf("could not read migrated proposals: %w", err)
	}
	lg.Info().Int("proposals2", len(migrated)).Msg("consensus migration completed")
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "migrated %d quorum proposals, %d revised proposals stored\n", len(proposals), len(migrated))
	return err
}
