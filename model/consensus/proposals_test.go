package consensus_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/onflow/certstore/model/consensus"
	"github.com/onflow/certstore/utils/unittest"
)

func TestConvertProposal(t *testing.T) {
	original := unittest.QuorumProposalFixture(10)
	upgrade := unittest.UpgradeCertificateFixture(9)
	original.Data.UpgradeCertificate = &upgrade

	converted := consensus.ConvertProposal(original)
	assert.Equal(t, original.Sender, converted.Sender)
	assert.Equal(t, original.Signature, converted.Signature)
	assert.Equal(t, consensus.View(10), converted.View())
	assert.Equal(t, original.Data.BlockHeader, converted.Data.BlockHeader)
	assert.Nil(t, converted.Data.Epoch)
	assert.Nil(t, converted.Data.NextEpochJustifyQC)
	assert.Nil(t, converted.Data.NextDRBResult)
	assert.Nil(t, converted.Data.StateCert)
	assert.Equal(t, original.Data.UpgradeCertificate, converted.Data.UpgradeCertificate)

	// the justify QC keeps view and signatures, the vote commitment is recomputed
	justify := converted.Data.JustifyQC
	assert.Equal(t, original.Data.JustifyQC.ViewNumber, justify.ViewNumber)
	assert.Equal(t, original.Data.JustifyQC.Signatures, justify.Signatures)
	assert.Equal(t, original.Data.JustifyQC.Data.LeafCommit, justify.Data.LeafCommit)
	assert.Equal(t, justify.Data.Commit(), justify.VoteCommitment)
	assert.NotEqual(t, original.Data.JustifyQC.VoteCommitment, justify.VoteCommitment)

	// conversion is deterministic
	assert.Equal(t, converted, consensus.ConvertProposal(original))

	// the converted proposal does not alias the original
	converted.Sender[0] ^= 0xff
	converted.Data.JustifyQC.Signatures.Signature[0] ^= 0xff
	assert.NotEqual(t, original.Sender, converted.Sender)
	assert.NotEqual(t, original.Data.JustifyQC.Signatures.Signature, converted.Data.JustifyQC.Signatures.Signature)
}

func TestWrapProposal(t *testing.T) {
	p := unittest.QuorumProposal2Fixture(7, consensus.EpochPtr(2))
	wrapped := consensus.WrapProposal(p)
	assert.Equal(t, p.Data, wrapped.Data.Proposal)
	assert.Equal(t, consensus.View(7), wrapped.View())
	assert.Equal(t, consensus.EpochPtr(2), wrapped.Data.Epoch())
}

func TestProposalClone(t *testing.T) {
	t.Run("QuorumProposal2", func(t *testing.T) {
		p := unittest.QuorumProposal2Fixture(7, consensus.EpochPtr(2))
		dup := p.Clone()
		require.Equal(t, p, dup)

		*dup.Data.Epoch = 9
		dup.Data.NextDRBResult[0] ^= 0xff
		dup.Data.StateCert.Signatures[0].Key[0] ^= 0xff
		dup.Data.NextEpochJustifyQC.Signatures.Signers.Bits[0] ^= 0xff
		dup.Data.UpgradeCertificate.Data.NewVersionHash[0] ^= 0xff
		*dup.Data.JustifyQC.Data.Epoch = 9
		dup.Data.BlockHeader.Metadata[0] ^= 0xff
		dup.Signature[0] ^= 0xff

		assert.Equal(t, consensus.EpochPtr(2), p.Data.Epoch)
		assert.Equal(t, consensus.EpochPtr(2), p.Data.JustifyQC.Data.Epoch)
		assert.NotEqual(t, p.Data.NextDRBResult, dup.Data.NextDRBResult)
		assert.NotEqual(t, p.Data.StateCert, dup.Data.StateCert)
		assert.NotEqual(t, p.Data.NextEpochJustifyQC, dup.Data.NextEpochJustifyQC)
		assert.NotEqual(t, p.Data.UpgradeCertificate, dup.Data.UpgradeCertificate)
		assert.NotEqual(t, p.Data.BlockHeader, dup.Data.BlockHeader)
		assert.NotEqual(t, p.Signature, dup.Signature)
	})

	t.Run("VIDDisperseShare2", func(t *testing.T) {
		s := unittest.VIDShare2Fixture(3, consensus.EpochPtr(1), []byte("recipient"))
		dup := s.Clone()
		require.Equal(t, s, dup)

		dup.Data.RecipientKey[0] = 'x'
		dup.Data.Share[0] ^= 0xff
		*dup.Data.TargetEpoch = 5
		assert.Equal(t, []byte("recipient"), s.Data.RecipientKey)
		assert.NotEqual(t, s.Data.Share, dup.Data.Share)
		assert.Equal(t, consensus.EpochPtr(1), s.Data.TargetEpoch)
	})

	t.Run("DAProposal2", func(t *testing.T) {
		p := unittest.DAProposal2Fixture(3, nil)
		dup := p.Clone()
		require.Equal(t, p, dup)
		dup.Data.EncodedTransactions[0] ^= 0xff
		assert.NotEqual(t, p.Data.EncodedTransactions, dup.Data.EncodedTransactions)
	})
}

func TestCommitments(t *testing.T) {
	data := consensus.QuorumData2{LeafCommit: unittest.CommitmentFixture()}
	withEpoch := data
	withEpoch.Epoch = consensus.EpochPtr(0)

	// absence of an epoch is committed differently from epoch 0
	assert.NotEqual(t, data.Commit(), withEpoch.Commit())

	// next epoch data commits under a different tag
	next := consensus.NextEpochQuorumData2{QuorumData2: data}
	assert.NotEqual(t, data.Commit(), next.Commit())

	header := unittest.BlockHeaderFixture(4)
	assert.Equal(t, header.Commit(), header.Clone().Commit())
	other := header.Clone()
	other.Height++
	assert.NotEqual(t, header.Commit(), other.Commit())
}
