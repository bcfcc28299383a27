package storage

import (
	"github.com/onflow/certstore/model/consensus"
)

// ConsensusStorage holds the durable state a replica consults before voting or proposing
// and recovers from after a restart. All methods are safe for concurrent use. Readers
// return independent copies, so callers can never bypass the upsert rules.
//
// Besides the errors listed per method, every method may return ErrInjectedFault when
// fault injection is configured, or the error of the persistence backend.
type ConsensusStorage interface {
	// AppendDA stores a data-availability proposal, overwriting any proposal of the same view.
	AppendDA(proposal consensus.Proposal[consensus.DAProposal]) error
	AppendDA2(proposal consensus.Proposal[consensus.DAProposal2]) error

	// AppendProposal stores a quorum proposal, overwriting any proposal of the same view.
	AppendProposal(proposal consensus.Proposal[consensus.QuorumProposal]) error
	AppendProposal2(proposal consensus.Proposal[consensus.QuorumProposal2]) error
	AppendProposalWrapper(proposal consensus.Proposal[consensus.QuorumProposalWrapper]) error

	// AppendVID stores a dispersal share, overwriting any share of the same view and recipient.
	AppendVID(share consensus.Proposal[consensus.VIDDisperseShare]) error
	AppendVID2(share consensus.Proposal[consensus.VIDDisperseShare2]) error

	// RecordAction records that the replica acted in the given view and epoch. Only
	// votes and proposals advance the anti-equivocation mark, which never moves backwards.
	RecordAction(view consensus.View, epoch *consensus.Epoch, action consensus.Action) error

	// UpdateHighQC replaces the stored high QC iff none is stored or the given QC has a
	// strictly greater view. Ties keep the stored QC.
	UpdateHighQC(qc consensus.QuorumCertificate) error
	UpdateHighQC2(qc consensus.QuorumCertificate2) error
	UpdateNextEpochHighQC2(qc consensus.NextEpochQuorumCertificate2) error

	// UpdateStateCert stores a light client state certificate under its epoch, overwriting
	// any certificate of the same epoch.
	UpdateStateCert(cert consensus.LightClientStateUpdateCertificate) error

	// UpdateDecidedUpgradeCertificate replaces the decided upgrade certificate. nil clears it.
	UpdateDecidedUpgradeCertificate(cert *consensus.UpgradeCertificate) error

	// MigrateConsensus copies every original-generation quorum proposal into the revised
	// generation. Original proposals are kept. Running it again yields the same result.
	MigrateConsensus() error

	AddDRBResult(epoch consensus.Epoch, result consensus.DRBResult) error
	AddEpochRoot(epoch consensus.Epoch, header consensus.BlockHeader) error

	DAProposals() (map[consensus.View]consensus.Proposal[consensus.DAProposal], error)
	DAProposals2() (map[consensus.View]consensus.Proposal[consensus.DAProposal2], error)
	QuorumProposals() (map[consensus.View]consensus.Proposal[consensus.QuorumProposal], error)
	QuorumProposals2() (map[consensus.View]consensus.Proposal[consensus.QuorumProposal2], error)
	QuorumProposalWrappers() (map[consensus.View]consensus.Proposal[consensus.QuorumProposalWrapper], error)

	// QuorumProposalWrappersInRange returns the wrapped proposals of views in [from, to],
	// in ascending view order.
	QuorumProposalWrappersInRange(from, to consensus.View) ([]consensus.Proposal[consensus.QuorumProposalWrapper], error)

	// VIDShares returns the dispersal shares by view, then by hex-encoded recipient key.
	VIDShares() (map[consensus.View]map[string]consensus.Proposal[consensus.VIDDisperseShare], error)
	VIDShares2() (map[consensus.View]map[string]consensus.Proposal[consensus.VIDDisperseShare2], error)

	// HighQC returns the stored high QC, or nil if none was stored yet.
	HighQC() (*consensus.QuorumCertificate, error)
	HighQC2() (*consensus.QuorumCertificate2, error)
	NextEpochHighQC2() (*consensus.NextEpochQuorumCertificate2, error)

	// LastActioned returns the anti-equivocation mark. Before any vote or proposal was
	// recorded, it is view 0 with no epoch.
	LastActioned() (consensus.View, *consensus.Epoch, error)

	// LatestStateCert returns the state certificate of the highest epoch, or nil.
	LatestStateCert() (*consensus.LightClientStateUpdateCertificate, error)

	// StateCert returns the state certificate of the given epoch.
	// Error returns:
	//   - ErrNotFound if no certificate is stored for the epoch
	StateCert(epoch consensus.Epoch) (consensus.LightClientStateUpdateCertificate, error)

	// DRBResult returns the random beacon result of the given epoch.
	// Error returns:
	//   - ErrNotFound if no result is stored for the epoch
	DRBResult(epoch consensus.Epoch) (consensus.DRBResult, error)
	DRBResults() (map[consensus.Epoch]consensus.DRBResult, error)

	// EpochRoot returns the root block header of the given epoch.
	// Error returns:
	//   - ErrNotFound if no root is stored for the epoch
	EpochRoot(epoch consensus.Epoch) (consensus.BlockHeader, error)

	// DecidedUpgradeCertificate returns the decided upgrade certificate, or nil.
	DecidedUpgradeCertificate() (*consensus.UpgradeCertificate, error)
}
