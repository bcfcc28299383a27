package operation_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/onflow/certstore/model/consensus"
	"github.com/onflow/certstore/storage"
	"github.com/onflow/certstore/storage/operation"
	"github.com/onflow/certstore/storage/operation/dbtest"
	"github.com/onflow/certstore/utils/unittest"
)

func TestProposalsRoundTrip(t *testing.T) {
	dbtest.RunWithStorages(t, func(t *testing.T, r storage.Reader, withWriterTx dbtest.WithWriter) {
		// stored out of order, read back in view order
		da1 := unittest.DAProposalFixture(3)
		da2 := unittest.DAProposalFixture(1)
		qp := unittest.QuorumProposalFixture(4)
		qp2 := unittest.QuorumProposal2Fixture(5, consensus.EpochPtr(1))
		qp2NoEpoch := unittest.QuorumProposal2Fixture(2, nil)
		wrapper := unittest.QuorumProposalWrapperFixture(6, consensus.EpochPtr(2))
		daNext := unittest.DAProposal2Fixture(7, consensus.EpochPtr(2))

		withWriterTx(t, func(w storage.Writer) error {
			require.NoError(t, operation.UpsertDAProposal(w, da1))
			require.NoError(t, operation.UpsertDAProposal(w, da2))
			require.NoError(t, operation.UpsertDAProposal2(w, daNext))
			require.NoError(t, operation.UpsertQuorumProposal(w, qp))
			require.NoError(t, operation.UpsertQuorumProposal2(w, qp2))
			require.NoError(t, operation.UpsertQuorumProposal2(w, qp2NoEpoch))
			return operation.UpsertQuorumProposalWrapper(w, wrapper)
		})

		das, err := operation.RetrieveDAProposals(r)
		require.NoError(t, err)
		require.Equal(t, []consensus.Proposal[consensus.DAProposal]{da2, da1}, das)

		das2, err := operation.RetrieveDAProposals2(r)
		require.NoError(t, err)
		require.Equal(t, []consensus.Proposal[consensus.DAProposal2]{daNext}, das2)

		qps, err := operation.RetrieveQuorumProposals(r)
		require.NoError(t, err)
		require.Equal(t, []consensus.Proposal[consensus.QuorumProposal]{qp}, qps)

		qps2, err := operation.RetrieveQuorumProposals2(r)
		require.NoError(t, err)
		require.Equal(t, []consensus.Proposal[consensus.QuorumProposal2]{qp2NoEpoch, qp2}, qps2)

		wrappers, err := operation.RetrieveQuorumProposalWrappers(r)
		require.NoError(t, err)
		require.Equal(t, []consensus.Proposal[consensus.QuorumProposalWrapper]{wrapper}, wrappers)

		// a proposal of the same view overwrites
		replacement := unittest.DAProposalFixture(3)
		withWriterTx(t, func(w storage.Writer) error {
			return operation.UpsertDAProposal(w, replacement)
		})
		das, err = operation.RetrieveDAProposals(r)
		require.NoError(t, err)
		require.Equal(t, []consensus.Proposal[consensus.DAProposal]{da2, replacement}, das)
	})
}

func TestRetrieveEmpty(t *testing.T) {
	dbtest.RunWithStorages(t, func(t *testing.T, r storage.Reader, withWriterTx dbtest.WithWriter) {
		das, err := operation.RetrieveDAProposals(r)
		require.NoError(t, err)
		require.Empty(t, das)

		certs, err := operation.RetrieveStateCerts(r)
		require.NoError(t, err)
		require.Empty(t, certs)

		var qc consensus.QuorumCertificate2
		require.ErrorIs(t, operation.RetrieveHighQC2(r, &qc), storage.ErrNotFound)

		var mark consensus.ActionMark
		require.ErrorIs(t, operation.RetrieveLastActioned(r, &mark), storage.ErrNotFound)

		_, err = operation.RetrieveDecidedUpgradeCertificate(r)
		require.ErrorIs(t, err, storage.ErrNotFound)

		var drb consensus.DRBResult
		require.ErrorIs(t, operation.RetrieveDRBResult(r, 1, &drb), storage.ErrNotFound)
	})
}

func TestVIDShares(t *testing.T) {
	dbtest.RunWithStorages(t, func(t *testing.T, r storage.Reader, withWriterTx dbtest.WithWriter) {
		alice := []byte("alice")
		bob := []byte("bob")

		s1 := unittest.VIDShareFixture(2, bob)
		s2 := unittest.VIDShareFixture(2, alice)
		s3 := unittest.VIDShareFixture(1, bob)
		n1 := unittest.VIDShare2Fixture(9, consensus.EpochPtr(3), alice)

		withWriterTx(t, func(w storage.Writer) error {
			require.NoError(t, operation.UpsertVIDShare(w, s1))
			require.NoError(t, operation.UpsertVIDShare(w, s2))
			require.NoError(t, operation.UpsertVIDShare(w, s3))
			return operation.UpsertVIDShare2(w, n1)
		})

		// ordered by view, then by recipient key
		shares, err := operation.RetrieveVIDShares(r)
		require.NoError(t, err)
		require.Equal(t, []consensus.Proposal[consensus.VIDDisperseShare]{s3, s2, s1}, shares)

		shares2, err := operation.RetrieveVIDShares2(r)
		require.NoError(t, err)
		require.Equal(t, []consensus.Proposal[consensus.VIDDisperseShare2]{n1}, shares2)

		// only the share of the same view and recipient is replaced
		replacement := unittest.VIDShareFixture(2, alice)
		withWriterTx(t, func(w storage.Writer) error {
			return operation.UpsertVIDShare(w, replacement)
		})
		shares, err = operation.RetrieveVIDShares(r)
		require.NoError(t, err)
		require.Equal(t, []consensus.Proposal[consensus.VIDDisperseShare]{s3, replacement, s1}, shares)
	})
}

func TestSingleSlots(t *testing.T) {
	dbtest.RunWithStorages(t, func(t *testing.T, r storage.Reader, withWriterTx dbtest.WithWriter) {
		qc := unittest.QuorumCertificateFixture(3)
		qc2 := unittest.QuorumCertificate2Fixture(4, consensus.EpochPtr(1))
		next := unittest.NextEpochQuorumCertificate2Fixture(4, consensus.EpochPtr(2))
		mark := consensus.ActionMark{View: 8, Epoch: consensus.EpochPtr(1)}

		withWriterTx(t, func(w storage.Writer) error {
			require.NoError(t, operation.UpsertHighQC(w, qc))
			require.NoError(t, operation.UpsertHighQC2(w, qc2))
			require.NoError(t, operation.UpsertNextEpochHighQC2(w, next))
			return operation.UpsertLastActioned(w, mark)
		})

		var readQC consensus.QuorumCertificate
		require.NoError(t, operation.RetrieveHighQC(r, &readQC))
		require.Equal(t, qc, readQC)

		var readQC2 consensus.QuorumCertificate2
		require.NoError(t, operation.RetrieveHighQC2(r, &readQC2))
		require.Equal(t, qc2, readQC2)

		var readNext consensus.NextEpochQuorumCertificate2
		require.NoError(t, operation.RetrieveNextEpochHighQC2(r, &readNext))
		require.Equal(t, next, readNext)

		var readMark consensus.ActionMark
		require.NoError(t, operation.RetrieveLastActioned(r, &readMark))
		require.Equal(t, mark, readMark)
	})
}

func TestDecidedUpgradeCertificate(t *testing.T) {
	dbtest.RunWithStorages(t, func(t *testing.T, r storage.Reader, withWriterTx dbtest.WithWriter) {
		cert := unittest.UpgradeCertificateFixture(10)
		withWriterTx(t, func(w storage.Writer) error {
			return operation.UpsertDecidedUpgradeCertificate(w, &cert)
		})

		stored, err := operation.RetrieveDecidedUpgradeCertificate(r)
		require.NoError(t, err)
		require.Equal(t, &cert, stored)

		// clearing is distinguishable from never stored
		withWriterTx(t, func(w storage.Writer) error {
			return operation.UpsertDecidedUpgradeCertificate(w, nil)
		})
		stored, err = operation.RetrieveDecidedUpgradeCertificate(r)
		require.NoError(t, err)
		require.Nil(t, stored)
	})
}

func TestEpochScoped(t *testing.T) {
	dbtest.RunWithStorages(t, func(t *testing.T, r storage.Reader, withWriterTx dbtest.WithWriter) {
		cert1 := unittest.StateCertFixture(1)
		cert2 := unittest.StateCertFixture(2)
		drb := unittest.DRBResultFixture()
		root := unittest.BlockHeaderFixture(100)

		withWriterTx(t, func(w storage.Writer) error {
			require.NoError(t, operation.UpsertStateCert(w, cert2))
			require.NoError(t, operation.UpsertStateCert(w, cert1))
			require.NoError(t, operation.UpsertDRBResult(w, 5, drb))
			return operation.UpsertEpochRoot(w, 5, root)
		})

		certs, err := operation.RetrieveStateCerts(r)
		require.NoError(t, err)
		require.Equal(t, map[consensus.Epoch]consensus.LightClientStateUpdateCertificate{1: cert1, 2: cert2}, certs)

		var readDRB consensus.DRBResult
		require.NoError(t, operation.RetrieveDRBResult(r, 5, &readDRB))
		require.Equal(t, drb, readDRB)

		drbs, err := operation.RetrieveDRBResults(r)
		require.NoError(t, err)
		require.Equal(t, map[consensus.Epoch]consensus.DRBResult{5: drb}, drbs)

		roots, err := operation.RetrieveEpochRoots(r)
		require.NoError(t, err)
		require.Equal(t, map[consensus.Epoch]consensus.BlockHeader{5: root}, roots)
	})
}

func TestMakePrefix(t *testing.T) {
	key := operation.MakePrefix(7, consensus.View(1), consensus.Epoch(2), []byte("ab"))
	require.Equal(t, []byte{7, 0, 0, 0, 0, 0, 0, 0, 1, 0, 0, 0, 0, 0, 0, 0, 2, 'a', 'b'}, key)

	view, err := operation.DecodeUint64KeyPart(key, 1)
	require.NoError(t, err)
	require.Equal(t, uint64(1), view)

	_, err = operation.DecodeUint64KeyPart(key, 12)
	require.Error(t, err)

	require.Panics(t, func() { operation.MakePrefix(1, 3.14) })
}
