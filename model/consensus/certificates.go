package consensus

import (
	"bytes"

	"github.com/onflow/certstore/consensus/qc"
)

// CertificateData is the vote payload a certificate certifies.
type CertificateData[D any] interface {
	Commit() Commitment
	Clone() D
}

// SimpleCertificate is a QC over vote data of type D at a given view.
type SimpleCertificate[D CertificateData[D]] struct {
	Data           D
	VoteCommitment Commitment
	ViewNumber     View
	Signatures     *qc.QuorumCertificate
}

// NewSimpleCertificate returns a certificate whose vote commitment is derived from data.
func NewSimpleCertificate[D CertificateData[D]](data D, view View, signatures *qc.QuorumCertificate) SimpleCertificate[D] {
	return SimpleCertificate[D]{
		Data:           data,
		VoteCommitment: data.Commit(),
		ViewNumber:     view,
		Signatures:     signatures,
	}
}

func (c SimpleCertificate[D]) View() View {
	return c.ViewNumber
}

// Clone returns a deep copy of the certificate.
func (c SimpleCertificate[D]) Clone() SimpleCertificate[D] {
	return SimpleCertificate[D]{
		Data:           c.Data.Clone(),
		VoteCommitment: c.VoteCommitment,
		ViewNumber:     c.ViewNumber,
		Signatures:     c.Signatures.Clone(),
	}
}

// cloneCertificate deep copies an optional certificate.
func cloneCertificate[D CertificateData[D]](c *SimpleCertificate[D]) *SimpleCertificate[D] {
	if c == nil {
		return nil
	}
	dup := c.Clone()
	return &dup
}

// QuorumData is the vote payload of the original certificate generation.
type QuorumData struct {
	LeafCommit Commitment
}

func (d QuorumData) Commit() Commitment {
	return newCommitmentBuilder("QUORUM_DATA").
		Field("leaf_commit", d.LeafCommit).
		Finalize()
}

func (d QuorumData) Clone() QuorumData { return d }

// ToV2 converts to the revised vote payload, which carries no epoch.
func (d QuorumData) ToV2() QuorumData2 {
	return QuorumData2{LeafCommit: d.LeafCommit}
}

// QuorumData2 is the vote payload of the revised certificate generation.
type QuorumData2 struct {
	LeafCommit Commitment
	Epoch      *Epoch
}

func (d QuorumData2) Commit() Commitment {
	return newCommitmentBuilder("QUORUM_DATA").
		Field("leaf_commit", d.LeafCommit).
		OptionalEpoch("epoch", d.Epoch).
		Finalize()
}

func (d QuorumData2) Clone() QuorumData2 {
	return QuorumData2{
		LeafCommit: d.LeafCommit,
		Epoch:      CopyEpoch(d.Epoch),
	}
}

// NextEpochQuorumData2 is a vote payload signed by the committee of the next epoch.
type NextEpochQuorumData2 struct {
	QuorumData2
}

func (d NextEpochQuorumData2) Commit() Commitment {
	return newCommitmentBuilder("NEXT_EPOCH_QUORUM_DATA").
		Field("leaf_commit", d.LeafCommit).
		OptionalEpoch("epoch", d.Epoch).
		Finalize()
}

func (d NextEpochQuorumData2) Clone() NextEpochQuorumData2 {
	return NextEpochQuorumData2{QuorumData2: d.QuorumData2.Clone()}
}

// Version is a protocol version.
type Version struct {
	Major uint16
	Minor uint16
}

// UpgradeProposalData is the vote payload of an upgrade certificate.
type UpgradeProposalData struct {
	OldVersion          Version
	NewVersion          Version
	NewVersionHash      []byte
	DecideBy            View
	OldVersionLastView  View
	NewVersionFirstView View
}

func (d UpgradeProposalData) Commit() Commitment {
	return newCommitmentBuilder("UPGRADE_PROPOSAL_DATA").
		Uint64("old_version", uint64(d.OldVersion.Major)<<16|uint64(d.OldVersion.Minor)).
		Uint64("new_version", uint64(d.NewVersion.Major)<<16|uint64(d.NewVersion.Minor)).
		Bytes("new_version_hash", d.NewVersionHash).
		Uint64("decide_by", uint64(d.DecideBy)).
		Uint64("old_version_last_view", uint64(d.OldVersionLastView)).
		Uint64("new_version_first_view", uint64(d.NewVersionFirstView)).
		Finalize()
}

func (d UpgradeProposalData) Clone() UpgradeProposalData {
	dup := d
	dup.NewVersionHash = bytes.Clone(d.NewVersionHash)
	return dup
}

type (
	// QuorumCertificate is a QC of the original generation.
	QuorumCertificate = SimpleCertificate[QuorumData]
	// QuorumCertificate2 is a QC of the revised generation, bound to an epoch.
	QuorumCertificate2 = SimpleCertificate[QuorumData2]
	// NextEpochQuorumCertificate2 is a QC formed by the next epoch's committee during an epoch transition.
	NextEpochQuorumCertificate2 = SimpleCertificate[NextEpochQuorumData2]
	// UpgradeCertificate certifies a protocol upgrade.
	UpgradeCertificate = SimpleCertificate[UpgradeProposalData]
)

// QuorumCertificateToV2 converts an original-generation QC into the revised generation.
// The signatures are carried over and the vote commitment is recomputed for the revised data.
func QuorumCertificateToV2(c QuorumCertificate) QuorumCertificate2 {
	return NewSimpleCertificate(c.Data.ToV2(), c.ViewNumber, c.Signatures.Clone())
}

// LightClientState is the state of the light client contract certified at an epoch boundary.
type LightClientState struct {
	ViewNumber    uint64
	BlockHeight   uint64
	BlockCommRoot Commitment
}

// StakeTableState commits to the stake table of the next epoch.
type StakeTableState struct {
	BLSKeyComm     Commitment
	SchnorrKeyComm Commitment
	AmountComm     Commitment
	Threshold      uint64
}

// StateSignature is one validator's signature over a light client state update.
type StateSignature struct {
	Key       []byte
	Signature []byte
}

// LightClientStateUpdateCertificate certifies the light client state of an epoch.
// It is keyed by Epoch in storage, irrespective of the certified view.
type LightClientStateUpdateCertificate struct {
	Epoch               Epoch
	LightClientState    LightClientState
	NextStakeTableState StakeTableState
	Signatures          []StateSignature
}

// Clone returns a deep copy of the certificate.
func (c LightClientStateUpdateCertificate) Clone() LightClientStateUpdateCertificate {
	dup := c
	if c.Signatures != nil {
		dup.Signatures = make([]StateSignature, 0, len(c.Signatures))
		for _, s := range c.Signatures {
			dup.Signatures = append(dup.Signatures, StateSignature{
				Key:       bytes.Clone(s.Key),
				Signature: bytes.Clone(s.Signature),
			})
		}
	}
	return dup
}

func cloneStateCert(c *LightClientStateUpdateCertificate) *LightClientStateUpdateCertificate {
	if c == nil {
		return nil
	}
	dup := c.Clone()
	return &dup
}
