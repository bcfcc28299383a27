package consensus

import (
	"bytes"
)

// Payload is the content of a proposal envelope.
type Payload[T any] interface {
	View() View
	Clone() T
}

// Proposal is the signed envelope around every proposal and share kind.
type Proposal[T Payload[T]] struct {
	Data      T
	Sender    []byte
	Signature []byte
}

// View returns the view of the enveloped payload.
func (p Proposal[T]) View() View {
	return p.Data.View()
}

// Clone returns a deep copy of the proposal.
func (p Proposal[T]) Clone() Proposal[T] {
	return Proposal[T]{
		Data:      p.Data.Clone(),
		Sender:    bytes.Clone(p.Sender),
		Signature: bytes.Clone(p.Signature),
	}
}

// DAProposal is a data-availability proposal of the original generation.
type DAProposal struct {
	EncodedTransactions []byte
	Metadata            []byte
	ViewNumber          View
}

func (p DAProposal) View() View { return p.ViewNumber }

func (p DAProposal) Clone() DAProposal {
	return DAProposal{
		EncodedTransactions: bytes.Clone(p.EncodedTransactions),
		Metadata:            bytes.Clone(p.Metadata),
		ViewNumber:          p.ViewNumber,
	}
}

// DAProposal2 is a data-availability proposal bound to an epoch.
type DAProposal2 struct {
	EncodedTransactions []byte
	Metadata            []byte
	ViewNumber          View
	Epoch               *Epoch
}

func (p DAProposal2) View() View { return p.ViewNumber }

func (p DAProposal2) Clone() DAProposal2 {
	return DAProposal2{
		EncodedTransactions: bytes.Clone(p.EncodedTransactions),
		Metadata:            bytes.Clone(p.Metadata),
		ViewNumber:          p.ViewNumber,
		Epoch:               CopyEpoch(p.Epoch),
	}
}

// QuorumProposal is a block proposal of the original generation.
type QuorumProposal struct {
	BlockHeader        BlockHeader
	ViewNumber         View
	JustifyQC          QuorumCertificate
	UpgradeCertificate *UpgradeCertificate
}

func (p QuorumProposal) View() View { return p.ViewNumber }

func (p QuorumProposal) Clone() QuorumProposal {
	return QuorumProposal{
		BlockHeader:        p.BlockHeader.Clone(),
		ViewNumber:         p.ViewNumber,
		JustifyQC:          p.JustifyQC.Clone(),
		UpgradeCertificate: cloneCertificate(p.UpgradeCertificate),
	}
}

// ToV2 converts the proposal into the revised generation. The converted proposal has
// no epoch and none of the epoch-transition fields.
func (p QuorumProposal) ToV2() QuorumProposal2 {
	return QuorumProposal2{
		BlockHeader:        p.BlockHeader.Clone(),
		ViewNumber:         p.ViewNumber,
		JustifyQC:          QuorumCertificateToV2(p.JustifyQC),
		UpgradeCertificate: cloneCertificate(p.UpgradeCertificate),
	}
}

// QuorumProposal2 is a block proposal of the revised generation.
type QuorumProposal2 struct {
	BlockHeader        BlockHeader
	ViewNumber         View
	Epoch              *Epoch
	JustifyQC          QuorumCertificate2
	NextEpochJustifyQC *NextEpochQuorumCertificate2
	UpgradeCertificate *UpgradeCertificate
	NextDRBResult      *DRBResult
	StateCert          *LightClientStateUpdateCertificate
}

func (p QuorumProposal2) View() View { return p.ViewNumber }

func (p QuorumProposal2) Clone() QuorumProposal2 {
	var drb *DRBResult
	if p.NextDRBResult != nil {
		dup := *p.NextDRBResult
		drb = &dup
	}
	return QuorumProposal2{
		BlockHeader:        p.BlockHeader.Clone(),
		ViewNumber:         p.ViewNumber,
		Epoch:              CopyEpoch(p.Epoch),
		JustifyQC:          p.JustifyQC.Clone(),
		NextEpochJustifyQC: cloneCertificate(p.NextEpochJustifyQC),
		UpgradeCertificate: cloneCertificate(p.UpgradeCertificate),
		NextDRBResult:      drb,
		StateCert:          cloneStateCert(p.StateCert),
	}
}

// Wrap returns the proposal in the wrapped generation.
func (p QuorumProposal2) Wrap() QuorumProposalWrapper {
	return QuorumProposalWrapper{Proposal: p.Clone()}
}

// QuorumProposalWrapper is the wrapped generation of quorum proposals.
type QuorumProposalWrapper struct {
	Proposal QuorumProposal2
}

func (w QuorumProposalWrapper) View() View { return w.Proposal.View() }

func (w QuorumProposalWrapper) Epoch() *Epoch { return w.Proposal.Epoch }

func (w QuorumProposalWrapper) Clone() QuorumProposalWrapper {
	return QuorumProposalWrapper{Proposal: w.Proposal.Clone()}
}

// VIDDisperseShare is the dispersal share of one recipient, original generation.
type VIDDisperseShare struct {
	ViewNumber        View
	PayloadCommitment Commitment
	Share             []byte
	Common            []byte
	RecipientKey      []byte
}

func (s VIDDisperseShare) View() View { return s.ViewNumber }

func (s VIDDisperseShare) Clone() VIDDisperseShare {
	return VIDDisperseShare{
		ViewNumber:        s.ViewNumber,
		PayloadCommitment: s.PayloadCommitment,
		Share:             bytes.Clone(s.Share),
		Common:            bytes.Clone(s.Common),
		RecipientKey:      bytes.Clone(s.RecipientKey),
	}
}

// VIDDisperseShare2 is the dispersal share of one recipient, bound to an epoch and
// the epoch whose committee the share targets.
type VIDDisperseShare2 struct {
	ViewNumber        View
	Epoch             *Epoch
	TargetEpoch       *Epoch
	PayloadCommitment Commitment
	Share             []byte
	Common            []byte
	RecipientKey      []byte
}

func (s VIDDisperseShare2) View() View { return s.ViewNumber }

func (s VIDDisperseShare2) Clone() VIDDisperseShare2 {
	return VIDDisperseShare2{
		ViewNumber:        s.ViewNumber,
		Epoch:             CopyEpoch(s.Epoch),
		TargetEpoch:       CopyEpoch(s.TargetEpoch),
		PayloadCommitment: s.PayloadCommitment,
		Share:             bytes.Clone(s.Share),
		Common:            bytes.Clone(s.Common),
		RecipientKey:      bytes.Clone(s.RecipientKey),
	}
}

// ConvertProposal converts an envelope of the original quorum proposal generation into
// the revised generation, keeping sender and signature.
func ConvertProposal(p Proposal[QuorumProposal]) Proposal[QuorumProposal2] {
	return Proposal[QuorumProposal2]{
		Data:      p.Data.ToV2(),
		Sender:    bytes.Clone(p.Sender),
		Signature: bytes.Clone(p.Signature),
	}
}

// WrapProposal converts an envelope of the revised generation into the wrapped generation.
func WrapProposal(p Proposal[QuorumProposal2]) Proposal[QuorumProposalWrapper] {
	return Proposal[QuorumProposalWrapper]{
		Data:      p.Data.Wrap(),
		Sender:    bytes.Clone(p.Sender),
		Signature: bytes.Clone(p.Signature),
	}
}
