package qc

import (
	"errors"
	"fmt"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/onflow/certstore/model/stake"
)

// TestAssembleCheck_Properties checks for arbitrary stake tables and signer sets that
// assembling succeeds iff the signed stake reaches the threshold, and that Check and
// Trace agree with Assemble.
func TestAssembleCheck_Properties(t *testing.T) {
	scheme := &xorScheme{}
	msg := Message{1, 2, 3}

	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(1, 40).Draw(t, "n")
		table := make(stake.Table, 0, n)
		var total uint64
		for i := 0; i < n; i++ {
			amount := rapid.Uint64Range(0, 1000).Draw(t, fmt.Sprintf("stake-%d", i))
			total += amount
			table = append(table, stake.NewEntry([]byte(fmt.Sprintf("validator-%d", i)), amount))
		}
		threshold := rapid.Uint64Range(0, total+1).Draw(t, "threshold")
		params := Params{StakeEntries: table, Threshold: *uint256.NewInt(threshold)}

		signed := rapid.SliceOfN(rapid.Bool(), n, n).Draw(t, "signed")
		signers := SignerBitmapFromBools(signed...)

		var weight uint64
		var sigs []Signature
		var keys [][]byte
		for i, s := range signed {
			if !s {
				continue
			}
			weight += table[i].Amount.Uint64()
			sig, err := Sign(scheme, nil, table[i].VerificationKey, msg, nil)
			require.NoError(t, err)
			sigs = append(sigs, sig)
			keys = append(keys, table[i].VerificationKey)
		}

		qc, err := Assemble(scheme, params, signers, sigs)
		if weight < threshold {
			require.True(t, IsParameterError(err))
			require.ErrorIs(t, err, ErrBelowThreshold)
			return
		}
		require.NoError(t, err)

		checked, err := Check(scheme, params, msg, qc)
		require.NoError(t, err)
		require.Equal(t, weight, checked.Uint64())

		traced, err := Trace(scheme, params, msg, qc)
		require.NoError(t, err)
		require.Equal(t, len(keys), len(traced))
		for i := range keys {
			require.Equal(t, keys[i], traced[i])
		}

		if len(sigs) > 0 {
			_, err = Assemble(scheme, params, signers, sigs[1:])
			require.ErrorIs(t, err, ErrCountMismatch)
		}
	})
}

func TestAssemble_ValidationOrder(t *testing.T) {
	scheme := &xorScheme{}
	params := Params{
		StakeEntries: stake.Table{
			stake.NewEntry([]byte("a"), 3),
			stake.NewEntry([]byte("b"), 5),
			stake.NewEntry([]byte("c"), 7),
		},
		Threshold: *uint256.NewInt(10),
	}

	t.Run("length mismatch is reported before the threshold", func(t *testing.T) {
		_, err := Assemble(scheme, params, SignerBitmapFromBools(true, false), nil)
		require.True(t, IsParameterError(err))
		require.ErrorIs(t, err, ErrLengthMismatch)
	})

	t.Run("threshold is reported before the signature count", func(t *testing.T) {
		_, err := Assemble(scheme, params, SignerBitmapFromBools(true, true, false), nil)
		require.ErrorIs(t, err, ErrBelowThreshold)
	})

	t.Run("aggregation failures are returned unchanged", func(t *testing.T) {
		sentinel := errors.New("aggregation failed")
		failing := &xorScheme{aggregateErr: sentinel}
		_, err := Assemble(failing, params, SignerBitmapFromBools(false, true, true), []Signature{{1}, {2}})
		require.Equal(t, sentinel, err)
	})

	t.Run("stake overflow fails loudly", func(t *testing.T) {
		huge := Params{
			StakeEntries: stake.Table{
				{VerificationKey: []byte("a"), Amount: *new(uint256.Int).SetAllOne()},
				stake.NewEntry([]byte("b"), 1),
			},
			Threshold: *uint256.NewInt(1),
		}
		_, err := Assemble(scheme, huge, SignerBitmapFromBools(true, true), []Signature{{1}, {2}})
		require.True(t, IsParameterError(err))
		require.ErrorIs(t, err, stake.ErrStakeOverflow)
	})
}

func TestSign_PropagatesSchemeError(t *testing.T) {
	_, err := Sign(&xorScheme{}, nil, nil, Message{}, nil)
	require.Error(t, err)
	require.False(t, IsParameterError(err))
	require.False(t, IsVerificationError(err))
}
