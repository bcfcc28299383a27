package qc_test

import (
	"context"
	"math/rand"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/onflow/certstore/consensus/qc"
	"github.com/onflow/certstore/model/stake"
	"github.com/onflow/certstore/module/signature/bls"
)

// QCSuite runs the QC operations over BLS with three validators of stake 3, 5 and 7
// and a threshold of 10.
type QCSuite struct {
	suite.Suite

	rng      *rand.Rand
	scheme   *bls.Scheme
	verifier *qc.Verifier
	sks      [][]byte
	params   qc.Params
	msg      qc.Message
	sigs     []qc.Signature
}

func TestQC(t *testing.T) {
	suite.Run(t, new(QCSuite))
}

func (s *QCSuite) SetupTest() {
	s.rng = rand.New(rand.NewSource(1))
	s.scheme = bls.NewScheme()
	s.verifier = qc.NewVerifier(s.scheme)

	var table stake.Table
	s.sks = nil
	for _, amount := range []uint64{3, 5, 7} {
		sk, err := bls.GenerateKey(s.rng)
		s.Require().NoError(err)
		pk, err := bls.PublicKey(sk)
		s.Require().NoError(err)
		s.sks = append(s.sks, sk)
		table = append(table, stake.NewEntry(pk, amount))
	}
	s.params = qc.Params{
		StakeEntries: table,
		Threshold:    *uint256.NewInt(10),
		AggSigParams: bls.DefaultDST,
	}
	for i := range s.msg {
		s.msg[i] = 72
	}

	s.sigs = nil
	for _, sk := range s.sks {
		sig, err := s.verifier.Sign(s.params.AggSigParams, sk, s.msg, s.rng)
		s.Require().NoError(err)
		s.sigs = append(s.sigs, sig)
	}
}

func (s *QCSuite) TestAssembleCheckTrace() {
	signers := qc.SignerBitmapFromBools(false, true, true)
	cert, err := s.verifier.Assemble(s.params, signers, []qc.Signature{s.sigs[1], s.sigs[2]})
	s.Require().NoError(err)

	weight, err := s.verifier.Check(s.params, s.msg, cert)
	s.Require().NoError(err)
	s.Assert().Equal(uint64(12), weight.Uint64())

	keys, err := s.verifier.Trace(s.params, s.msg, cert)
	s.Require().NoError(err)
	s.Assert().Equal([][]byte{s.params.StakeEntries[1].VerificationKey, s.params.StakeEntries[2].VerificationKey}, keys)
}

func (s *QCSuite) TestAssemble_BelowThreshold() {
	signers := qc.SignerBitmapFromBools(true, true, false)
	_, err := s.verifier.Assemble(s.params, signers, []qc.Signature{s.sigs[0], s.sigs[1]})
	s.Require().True(qc.IsParameterError(err))
	s.Require().ErrorIs(err, qc.ErrBelowThreshold)
}

func (s *QCSuite) TestAssemble_CountMismatch() {
	signers := qc.SignerBitmapFromBools(true, true, true)
	_, err := s.verifier.Assemble(s.params, signers, []qc.Signature{s.sigs[0], s.sigs[1]})
	s.Require().True(qc.IsParameterError(err))
	s.Require().ErrorIs(err, qc.ErrCountMismatch)
}

func (s *QCSuite) TestLengthMismatch() {
	_, err := s.verifier.Assemble(s.params, qc.SignerBitmapFromBools(false, true, true, false), []qc.Signature{s.sigs[1], s.sigs[2]})
	s.Require().ErrorIs(err, qc.ErrLengthMismatch)

	// a certificate crafted without Assemble
	valid, err := s.verifier.Assemble(s.params, qc.SignerBitmapFromBools(false, true, true), []qc.Signature{s.sigs[1], s.sigs[2]})
	s.Require().NoError(err)
	crafted := &qc.QuorumCertificate{
		Signature: valid.Signature,
		Signers:   qc.SignerBitmapFromBools(false, true, true, false),
	}
	_, err = s.verifier.Check(s.params, s.msg, crafted)
	s.Require().True(qc.IsParameterError(err))
	s.Require().ErrorIs(err, qc.ErrLengthMismatch)
	_, err = s.verifier.Trace(s.params, s.msg, crafted)
	s.Require().ErrorIs(err, qc.ErrLengthMismatch)

	// declared length matches, but the packed bits do not
	crafted = &qc.QuorumCertificate{
		Signature: valid.Signature,
		Signers:   qc.SignerBitmap{Length: 3, Bits: []byte{0x60, 0x00}},
	}
	_, err = s.verifier.Check(s.params, s.msg, crafted)
	s.Require().ErrorIs(err, qc.ErrLengthMismatch)
}

// TestCheck_ClaimedSignerNotAggregated verifies that a certificate claiming a signer
// whose partial signature is not part of the aggregate is rejected.
func (s *QCSuite) TestCheck_ClaimedSignerNotAggregated() {
	valid, err := s.verifier.Assemble(s.params, qc.SignerBitmapFromBools(false, true, true), []qc.Signature{s.sigs[1], s.sigs[2]})
	s.Require().NoError(err)

	forged := &qc.QuorumCertificate{
		Signature: valid.Signature,
		Signers:   qc.SignerBitmapFromBools(true, true, true),
	}
	_, err = s.verifier.Check(s.params, s.msg, forged)
	s.Require().True(qc.IsVerificationError(err))
	s.Require().ErrorIs(err, bls.ErrInvalidSignature)

	keys, err := s.verifier.Trace(s.params, s.msg, forged)
	s.Require().True(qc.IsVerificationError(err))
	s.Assert().Nil(keys)
}

// TestCheck_BelowThresholdCrafted verifies that Check recomputes the signed stake rather
// than trusting the certificate, even when the aggregated signature itself is valid.
func (s *QCSuite) TestCheck_BelowThresholdCrafted() {
	agg, err := s.scheme.Aggregate(s.params.AggSigParams,
		[][]byte{s.params.StakeEntries[0].VerificationKey, s.params.StakeEntries[1].VerificationKey},
		[]qc.Signature{s.sigs[0], s.sigs[1]})
	s.Require().NoError(err)

	crafted := &qc.QuorumCertificate{
		Signature: agg,
		Signers:   qc.SignerBitmapFromBools(true, true, false),
	}
	_, err = s.verifier.Check(s.params, s.msg, crafted)
	s.Require().True(qc.IsParameterError(err))
	s.Require().ErrorIs(err, qc.ErrBelowThreshold)
}

func (s *QCSuite) TestCheck_WrongMessage() {
	cert, err := s.verifier.Assemble(s.params, qc.SignerBitmapFromBools(true, true, true), s.sigs)
	s.Require().NoError(err)

	other := s.msg
	other[0] ^= 0xff
	_, err = s.verifier.Check(s.params, other, cert)
	s.Require().True(qc.IsVerificationError(err))

	_, err = s.verifier.Check(s.params, s.msg, nil)
	s.Require().True(qc.IsParameterError(err))
}

func (s *QCSuite) TestCheckBatch() {
	full, err := s.verifier.Assemble(s.params, qc.SignerBitmapFromBools(true, true, true), s.sigs)
	s.Require().NoError(err)
	partial, err := s.verifier.Assemble(s.params, qc.SignerBitmapFromBools(false, true, true), []qc.Signature{s.sigs[1], s.sigs[2]})
	s.Require().NoError(err)

	items := []qc.BatchItem{
		{Message: s.msg, Certificate: full},
		{Message: s.msg, Certificate: partial},
		{Message: s.msg, Certificate: full},
	}
	weights, err := s.verifier.WithParallelism(2).CheckBatch(context.Background(), s.params, items)
	s.Require().NoError(err)
	s.Require().Len(weights, 3)
	s.Assert().Equal(uint64(15), weights[0].Uint64())
	s.Assert().Equal(uint64(12), weights[1].Uint64())
	s.Assert().Equal(uint64(15), weights[2].Uint64())

	s.Run("one invalid certificate fails the batch", func() {
		forged := &qc.QuorumCertificate{Signature: partial.Signature, Signers: full.Signers}
		bad := append([]qc.BatchItem{}, items...)
		bad[1] = qc.BatchItem{Message: s.msg, Certificate: forged}
		_, err := s.verifier.CheckBatch(context.Background(), s.params, bad)
		s.Require().True(qc.IsVerificationError(err))
		s.Assert().Contains(err.Error(), "index 1")
	})

	s.Run("cancelled context", func() {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := s.verifier.CheckBatch(ctx, s.params, items)
		s.Require().ErrorIs(err, context.Canceled)
	})

	s.Run("empty batch", func() {
		weights, err := s.verifier.CheckBatch(context.Background(), s.params, nil)
		s.Require().NoError(err)
		s.Assert().Empty(weights)
	})
}

func (s *QCSuite) TestCodecRoundTrip() {
	cert, err := s.verifier.Assemble(s.params, qc.SignerBitmapFromBools(false, true, true), []qc.Signature{s.sigs[1], s.sigs[2]})
	s.Require().NoError(err)

	encoded, err := qc.EncodeCertificate(cert)
	s.Require().NoError(err)
	decoded, err := qc.DecodeCertificate(encoded)
	s.Require().NoError(err)
	s.Assert().Equal(cert, decoded)

	encodedParams, err := qc.EncodeParams(s.params)
	s.Require().NoError(err)
	decodedParams, err := qc.DecodeParams(encodedParams)
	s.Require().NoError(err)
	s.Assert().Equal(s.params, decodedParams)

	// the decoded values are fully usable
	weight, err := s.verifier.Check(decodedParams, s.msg, decoded)
	s.Require().NoError(err)
	s.Assert().Equal(uint64(12), weight.Uint64())

	_, err = qc.DecodeCertificate([]byte{0xff, 0x00})
	s.Require().Error(err)
}

func TestNewParams(t *testing.T) {
	table := stake.Table{
		stake.NewEntry([]byte("a"), 3),
		stake.NewEntry([]byte("b"), 5),
		stake.NewEntry([]byte("c"), 7),
	}
	params, err := qc.NewParams(table, bls.DefaultDST)
	require.NoError(t, err)
	assert.Equal(t, uint64(11), params.Threshold.Uint64())

	dup := params.Clone()
	dup.StakeEntries[0].VerificationKey[0] = 'z'
	assert.Equal(t, byte('a'), params.StakeEntries[0].VerificationKey[0])

	_, err = qc.NewParams(stake.Table{
		{VerificationKey: []byte("a"), Amount: *new(uint256.Int).SetAllOne()},
		stake.NewEntry([]byte("b"), 1),
	}, nil)
	require.True(t, qc.IsParameterError(err))
	require.ErrorIs(t, err, stake.ErrStakeOverflow)
}
