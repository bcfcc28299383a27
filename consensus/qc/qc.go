package qc

import (
	"fmt"
	"io"

	"github.com/holiman/uint256"

	"github.com/onflow/certstore/model/stake"
)

// Sign produces the partial signature of sk over msg. Errors of the underlying
// scheme are returned unchanged.
func Sign(scheme AggregateScheme, pp PublicParams, sk []byte, msg Message, rng io.Reader) (Signature, error) {
	return scheme.Sign(pp, sk, msg[:], rng)
}

// Assemble combines the partial signatures of the validators marked in signers into a QC.
// Exactly one signature per set bit must be supplied, in ascending index order.
// Expected error returns during normal operations:
//   - ParameterError wrapping ErrLengthMismatch if the bitmap does not match the stake table
//   - ParameterError wrapping ErrBelowThreshold if the signed stake is below the threshold
//   - ParameterError wrapping ErrCountMismatch if the number of signatures differs from the number of signers
//
// Failures of the aggregation primitive are returned unchanged.
func Assemble(scheme AggregateScheme, params Params, signers SignerBitmap, sigs []Signature) (*QuorumCertificate, error) {
	_, err := signedStake(params, signers)
	if err != nil {
		return nil, err
	}
	keys := signerKeys(params, signers)
	if len(keys) != len(sigs) {
		return nil, NewParameterError(fmt.Errorf("got %d signatures for %d signers: %w", len(sigs), len(keys), ErrCountMismatch))
	}
	agg, err := scheme.Aggregate(params.AggSigParams, keys, sigs)
	if err != nil {
		return nil, err
	}
	return &QuorumCertificate{
		Signature: agg,
		Signers:   signers.Clone(),
	}, nil
}

// Check verifies a QC from scratch against the stake snapshot and message. It never
// assumes that the QC was produced by Assemble. On success, the signed stake is returned.
// Expected error returns during normal operations:
//   - ParameterError if the bitmap does not match the stake table or the signed stake is below threshold
//   - VerificationError if the aggregated signature is invalid for the signers' keys and msg
func Check(scheme AggregateScheme, params Params, msg Message, qc *QuorumCertificate) (uint256.Int, error) {
	if qc == nil {
		return uint256.Int{}, NewParameterErrorf("nil quorum certificate")
	}
	weight, err := signedStake(params, qc.Signers)
	if err != nil {
		return uint256.Int{}, err
	}
	keys := signerKeys(params, qc.Signers)
	err = scheme.MultiSigVerify(params.AggSigParams, keys, msg[:], qc.Signature)
	if err != nil {
		return uint256.Int{}, NewVerificationErrorf("aggregated signature of %d signers is invalid: %w", len(keys), err)
	}
	return weight, nil
}

// Trace returns the verification keys of all signers of a QC in ascending index order.
// The QC is checked first, hence keys are only ever returned for a valid QC.
// Returns the same errors as Check.
func Trace(scheme AggregateScheme, params Params, msg Message, qc *QuorumCertificate) ([][]byte, error) {
	_, err := Check(scheme, params, msg, qc)
	if err != nil {
		return nil, err
	}
	return signerKeys(params, qc.Signers), nil
}

// signedStake validates the shape of signers against the stake table and returns the
// stake of all set bits, which must reach the threshold.
func signedStake(params Params, signers SignerBitmap) (uint256.Int, error) {
	if signers.Len() != len(params.StakeEntries) {
		return uint256.Int{}, NewParameterError(fmt.Errorf("bitmap of length %d for %d stake entries: %w",
			signers.Len(), len(params.StakeEntries), ErrLengthMismatch))
	}
	err := signers.Validate()
	if err != nil {
		return uint256.Int{}, NewParameterError(fmt.Errorf("malformed signer bitmap (%s): %w", err.Error(), ErrLengthMismatch))
	}

	var weight uint256.Int
	for i := range params.StakeEntries {
		if !signers.IsSet(i) {
			continue
		}
		_, overflow := weight.AddOverflow(&weight, &params.StakeEntries[i].Amount)
		if overflow {
			return uint256.Int{}, NewParameterError(fmt.Errorf("summing stake of signer %d: %w", i, stake.ErrStakeOverflow))
		}
	}
	if weight.Lt(&params.Threshold) {
		return uint256.Int{}, NewParameterError(fmt.Errorf("signed stake %s, threshold %s: %w",
			weight.Dec(), params.Threshold.Dec(), ErrBelowThreshold))
	}
	return weight, nil
}

// signerKeys returns the verification keys at the set bits, in ascending index order.
// Requires a bitmap that passed signedStake.
func signerKeys(params Params, signers SignerBitmap) [][]byte {
	keys := make([][]byte, 0, signers.Count())
	for i, entry := range params.StakeEntries {
		if signers.IsSet(i) {
			keys = append(keys, entry.VerificationKey)
		}
	}
	return keys
}
