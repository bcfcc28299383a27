package read

import (
	"fmt"
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v2"

	"github.com/onflow/certstore/cmd/util/cmd/common"
	"github.com/onflow/certstore/model/consensus"
	"github.com/onflow/certstore/storage/store"
)

var (
	flagFromView uint64
	flagToView   uint64
)

var Cmd = &cobra.Command{
	Use:   "read-consensus",
	Short: "print a summary of the consensus state stored in a database",
	RunE:  run,
}

func init() {
	Cmd.Flags().Uint64Var(&flagFromView, "from-view", 0, "first view of the listed proposal wrappers")
	Cmd.Flags().Uint64Var(&flagToView, "to-view", 0, "last view of the listed proposal wrappers, 0 to list none")
}

// Summary is the printed overview of a consensus store.
type Summary struct {
	DAProposals            int              `yaml:"da_proposals"`
	DAProposals2           int              `yaml:"da_proposals2"`
	QuorumProposals        int              `yaml:"quorum_proposals"`
	QuorumProposals2       int              `yaml:"quorum_proposals2"`
	QuorumProposalWrappers int              `yaml:"quorum_proposal_wrappers"`
	VIDShareViews          int              `yaml:"vid_share_views"`
	VIDShare2Views         int              `yaml:"vid_share2_views"`
	HighQCView             *consensus.View  `yaml:"high_qc_view,omitempty"`
	HighQC2View            *consensus.View  `yaml:"high_qc2_view,omitempty"`
	NextEpochHighQC2View   *consensus.View  `yaml:"next_epoch_high_qc2_view,omitempty"`
	LastActionedView       consensus.View   `yaml:"last_actioned_view"`
	LastActionedEpoch      *consensus.Epoch `yaml:"last_actioned_epoch,omitempty"`
	LatestStateCertEpoch   *consensus.Epoch `yaml:"latest_state_cert_epoch,omitempty"`
	DRBResultEpochs        int              `yaml:"drb_result_epochs"`
	DecidedUpgrade         *UpgradeSummary  `yaml:"decided_upgrade,omitempty"`
	WrapperViews           []consensus.View `yaml:"wrapper_views,omitempty"`
}

type UpgradeSummary struct {
	View       consensus.View `yaml:"view"`
	OldVersion string         `yaml:"old_version"`
	NewVersion string         `yaml:"new_version"`
	DecideBy   consensus.View `yaml:"decide_by"`
}

func run(cmd *cobra.Command, _ []string) error {
	cfg, err := common.ReadStorageConfig(viper.GetViper())
	if err != nil {
		return err
	}

	db, err := common.OpenDB(log.Logger, cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	s, err := common.InitConsensusStorage(log.Logger, db, cfg, prometheus.NewRegistry())
	if err != nil {
		return err
	}

	summary, err := ReadSummary(s, flagFromView, flagToView)
	if err != nil {
		return err
	}
	return WriteSummary(cmd.OutOrStdout(), summary)
}

// ReadSummary collects the summary of s. Proposal wrappers with views in [from, to]
// are listed if to is non-zero.
func ReadSummary(s *store.ConsensusStorage, from, to uint64) (*Summary, error) {
	var summary Summary

	das, err := s.DAProposals()
	if err != nil {
		return nil, fmt.Errorf("could not read da proposals: %w", err)
	}
	summary.DAProposals = len(das)

	das2, err := s.DAProposals2()
	if err != nil {
		return nil, fmt.Errorf("could not read da proposals2: %w", err)
	}
	summary.DAProposals2 = len(das2)

	qps, err := s.QuorumProposals()
	if err != nil {
		return nil, fmt.Errorf("could not read quorum proposals: %w", err)
	}
	summary.QuorumProposals = len(qps)

	qps2, err := s.QuorumProposals2()
	if err != nil {
		return nil, fmt.Errorf("could not read quorum proposals2: %w", err)
	}
	summary.QuorumProposals2 = len(qps2)

	wrappers, err := s.QuorumProposalWrappers()
	if err != nil {
		return nil, fmt.Errorf("could not read quorum proposal wrappers: %w", err)
	}
	summary.QuorumProposalWrappers = len(wrappers)

	shares, err := s.VIDShares()
	if err != nil {
		return nil, fmt.Errorf("could not read vid shares: %w", err)
	}
	summary.VIDShareViews = len(shares)

	shares2, err := s.VIDShares2()
	if err != nil {
		return nil, fmt.Errorf("could not read vid shares2: %w", err)
	}
	summary.VIDShare2Views = len(shares2)

	highQC, err := s.HighQC()
	if err != nil {
		return nil, fmt.Errorf("could not read high qc: %w", err)
	}
	if highQC != nil {
		summary.HighQCView = &highQC.ViewNumber
	}

	highQC2, err := s.HighQC2()
	if err != nil {
		return nil, fmt.Errorf("could not read high qc2: %w", err)
	}
	if highQC2 != nil {
		summary.HighQC2View = &highQC2.ViewNumber
	}

	nextEpochQC, err := s.NextEpochHighQC2()
	if err != nil {
		return nil, fmt.Errorf("could not read next epoch high qc2: %w", err)
	}
	if nextEpochQC != nil {
		summary.NextEpochHighQC2View = &nextEpochQC.ViewNumber
	}

	summary.LastActionedView, summary.LastActionedEpoch, err = s.LastActioned()
	if err != nil {
		return nil, fmt.Errorf("could not read last actioned view: %w", err)
	}

	cert, err := s.LatestStateCert()
	if err != nil {
		return nil, fmt.Errorf("could not read latest state certificate: %w", err)
	}
	if cert != nil {
		summary.LatestStateCertEpoch = &cert.Epoch
	}

	drbs, err := s.DRBResults()
	if err != nil {
		return nil, fmt.Errorf("could not read drb results: %w", err)
	}
	summary.DRBResultEpochs = len(drbs)

	upgrade, err := s.DecidedUpgradeCertificate()
	if err != nil {
		return nil, fmt.Errorf("could not read decided upgrade certificate: %w", err)
	}
	if upgrade != nil {
		summary.DecidedUpgrade = &UpgradeSummary{
			View:       upgrade.ViewNumber,
			OldVersion: fmt.Sprintf("%d.%d", upgrade.Data.OldVersion.Major, upgrade.Data.OldVersion.Minor),
			NewVersion: fmt.Sprintf("%d.%d", upgrade.Data.NewVersion.Major, upgrade.Data.NewVersion.Minor),
			DecideBy:   upgrade.Data.DecideBy,
		}
	}

	if to != 0 {
		inRange, err := s.QuorumProposalWrappersInRange(consensus.View(from), consensus.View(to))
		if err != nil {
			return nil, fmt.Errorf("could not read quorum proposal wrappers in range: %w", err)
		}
		for _, w := range inRange {
			summary.WrapperViews = append(summary.WrapperViews, w.View())
		}
	}

	return &summary, nil
}

func WriteSummary(w io.Writer, summary *Summary) error {
	out, err := yaml.Marshal(summary)
	if err != nil {
		return fmt.Errorf("could not encode summary: %w", err)
	}
	_, err = w.Write(out)
	return err
}
