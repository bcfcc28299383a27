package unittest

import (
	crand "crypto/rand"
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/onflow/certstore/consensus/qc"
	"github.com/onflow/certstore/model/consensus"
	"github.com/onflow/certstore/model/stake"
	"github.com/onflow/certstore/module/signature/bls"
)

// GetPRG returns a deterministic math/rand PRG that can be used for deterministic randomness in tests only.
// The PRG seed is logged in case the test iteration needs to be reproduced.
func GetPRG(t *testing.T) *rand.Rand {
	random := time.Now().UnixNano()
	t.Logf("rng seed is %d", random)
	rng := rand.New(rand.NewSource(random))
	return rng
}

func RandomBytes(n int) []byte {
	b := make([]byte, n)
	read, err := crand.Read(b)
	if err != nil {
		panic("cannot read random bytes")
	}
	if read != n {
		panic(fmt.Errorf("cannot read enough random bytes (got %d of %d)", read, n))
	}
	return b
}

func CommitmentFixture() consensus.Commitment {
	var c consensus.Commitment
	copy(c[:], RandomBytes(len(c)))
	return c
}

func DRBResultFixture() consensus.DRBResult {
	var r consensus.DRBResult
	copy(r[:], RandomBytes(len(r)))
	return r
}

// SignaturesFixture returns a random, unverifiable aggregated signature over a bitmap of 4 signers.
func SignaturesFixture() *qc.QuorumCertificate {
	return &qc.QuorumCertificate{
		Signature: RandomBytes(bls.SignatureLen),
		Signers:   qc.SignerBitmapFromBools(true, false, true, true),
	}
}

func QuorumCertificateFixture(view consensus.View) consensus.QuorumCertificate {
	return consensus.NewSimpleCertificate(
		consensus.QuorumData{LeafCommit: CommitmentFixture()},
		view,
		SignaturesFixture(),
	)
}

func QuorumCertificate2Fixture(view consensus.View, epoch *consensus.Epoch) consensus.QuorumCertificate2 {
	return consensus.NewSimpleCertificate(
		consensus.QuorumData2{LeafCommit: CommitmentFixture(), Epoch: consensus.CopyEpoch(epoch)},
		view,
		SignaturesFixture(),
	)
}

func NextEpochQuorumCertificate2Fixture(view consensus.View, epoch *consensus.Epoch) consensus.NextEpochQuorumCertificate2 {
	return consensus.NewSimpleCertificate(
		consensus.NextEpochQuorumData2{
			QuorumData2: consensus.QuorumData2{LeafCommit: CommitmentFixture(), Epoch: consensus.CopyEpoch(epoch)},
		},
		view,
		SignaturesFixture(),
	)
}

func UpgradeCertificateFixture(view consensus.View) consensus.UpgradeCertificate {
	return consensus.NewSimpleCertificate(
		consensus.UpgradeProposalData{
			OldVersion:          consensus.Version{Major: 0, Minor: 1},
			NewVersion:          consensus.Version{Major: 0, Minor: 2},
			NewVersionHash:      RandomBytes(32),
			DecideBy:            view + 10,
			OldVersionLastView:  view + 20,
			NewVersionFirstView: view + 21,
		},
		view,
		SignaturesFixture(),
	)
}

func BlockHeaderFixture(height uint64) consensus.BlockHeader {
	return consensus.BlockHeader{
		Height:            height,
		Timestamp:         uint64(time.Now().Unix()),
		PayloadCommitment: CommitmentFixture(),
		BuilderCommitment: CommitmentFixture(),
		Metadata:          RandomBytes(8),
	}
}

func StateCertFixture(epoch consensus.Epoch) consensus.LightClientStateUpdateCertificate {
	return consensus.LightClientStateUpdateCertificate{
		Epoch: epoch,
		LightClientState: consensus.LightClientState{
			ViewNumber:    uint64(epoch) * 100,
			BlockHeight:   uint64(epoch) * 90,
			BlockCommRoot: CommitmentFixture(),
		},
		NextStakeTableState: consensus.StakeTableState{
			BLSKeyComm:     CommitmentFixture(),
			SchnorrKeyComm: CommitmentFixture(),
			AmountComm:     CommitmentFixture(),
			Threshold:      10,
		},
		Signatures: []consensus.StateSignature{
			{Key: RandomBytes(32), Signature: RandomBytes(64)},
			{Key: RandomBytes(32), Signature: RandomBytes(64)},
		},
	}
}

func envelope[T consensus.Payload[T]](data T) consensus.Proposal[T] {
	return consensus.Proposal[T]{
		Data:      data,
		Sender:    RandomBytes(bls.PublicKeyLen),
		Signature: RandomBytes(bls.SignatureLen),
	}
}

func DAProposalFixture(view consensus.View) consensus.Proposal[consensus.DAProposal] {
	return envelope(consensus.DAProposal{
		EncodedTransactions: RandomBytes(64),
		Metadata:            RandomBytes(8),
		ViewNumber:          view,
	})
}

func DAProposal2Fixture(view consensus.View, epoch *consensus.Epoch) consensus.Proposal[consensus.DAProposal2] {
	return envelope(consensus.DAProposal2{
		EncodedTransactions: RandomBytes(64),
		Metadata:            RandomBytes(8),
		ViewNumber:          view,
		Epoch:               consensus.CopyEpoch(epoch),
	})
}

func QuorumProposalFixture(view consensus.View) consensus.Proposal[consensus.QuorumProposal] {
	return envelope(consensus.QuorumProposal{
		BlockHeader: BlockHeaderFixture(uint64(view)),
		ViewNumber:  view,
		JustifyQC:   QuorumCertificateFixture(view - 1),
	})
}

// QuorumProposal2Fixture returns a revised proposal with every optional field populated.
func QuorumProposal2Fixture(view consensus.View, epoch *consensus.Epoch) consensus.Proposal[consensus.QuorumProposal2] {
	upgrade := UpgradeCertificateFixture(view - 1)
	nextEpochQC := NextEpochQuorumCertificate2Fixture(view-1, epoch)
	drb := DRBResultFixture()
	stateCert := StateCertFixture(0)
	if epoch != nil {
		stateCert = StateCertFixture(*epoch)
	}
	return envelope(consensus.QuorumProposal2{
		BlockHeader:        BlockHeaderFixture(uint64(view)),
		ViewNumber:         view,
		Epoch:              consensus.CopyEpoch(epoch),
		JustifyQC:          QuorumCertificate2Fixture(view-1, epoch),
		NextEpochJustifyQC: &nextEpochQC,
		UpgradeCertificate: &upgrade,
		NextDRBResult:      &drb,
		StateCert:          &stateCert,
	})
}

func QuorumProposalWrapperFixture(view consensus.View, epoch *consensus.Epoch) consensus.Proposal[consensus.QuorumProposalWrapper] {
	return consensus.WrapProposal(QuorumProposal2Fixture(view, epoch))
}

func VIDShareFixture(view consensus.View, recipient []byte) consensus.Proposal[consensus.VIDDisperseShare] {
	return envelope(consensus.VIDDisperseShare{
		ViewNumber:        view,
		PayloadCommitment: CommitmentFixture(),
		Share:             RandomBytes(128),
		Common:            RandomBytes(32),
		RecipientKey:      recipient,
	})
}

func VIDShare2Fixture(view consensus.View, epoch *consensus.Epoch, recipient []byte) consensus.Proposal[consensus.VIDDisperseShare2] {
	return envelope(consensus.VIDDisperseShare2{
		ViewNumber:        view,
		Epoch:             consensus.CopyEpoch(epoch),
		TargetEpoch:       consensus.CopyEpoch(epoch),
		PayloadCommitment: CommitmentFixture(),
		Share:             RandomBytes(128),
		Common:            RandomBytes(32),
		RecipientKey:      recipient,
	})
}

// StakeTableFixture returns a stake table of BLS keys with the given stakes, together
// with the secret keys in table order.
func StakeTableFixture(t testing.TB, rng *rand.Rand, stakes ...uint64) (stake.Table, [][]byte) {
	table := make(stake.Table, 0, len(stakes))
	sks := make([][]byte, 0, len(stakes))
	for _, amount := range stakes {
		sk, err := bls.GenerateKey(rng)
		require.NoError(t, err)
		pk, err := bls.PublicKey(sk)
		require.NoError(t, err)
		table = append(table, stake.NewEntry(pk, amount))
		sks = append(sks, sk)
	}
	return table, sks
}
