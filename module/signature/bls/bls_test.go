package bls

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/onflow/certstore/consensus/qc"
)

func generateKeys(t *testing.T, rng *rand.Rand, n int) (sks [][]byte, pks [][]byte) {
	for i := 0; i < n; i++ {
		sk, err := GenerateKey(rng)
		require.NoError(t, err)
		pk, err := PublicKey(sk)
		require.NoError(t, err)
		sks = append(sks, sk)
		pks = append(pks, pk)
	}
	return sks, pks
}

func TestSignVerify(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	scheme := NewScheme()
	sks, pks := generateKeys(t, rng, 1)
	msg := []byte("hello")

	sig, err := scheme.Sign(DefaultDST, sks[0], msg, rng)
	require.NoError(t, err)
	assert.Len(t, sig, SignatureLen)
	assert.Len(t, pks[0], PublicKeyLen)

	require.NoError(t, scheme.MultiSigVerify(DefaultDST, pks, msg, sig))

	t.Run("signing is deterministic", func(t *testing.T) {
		again, err := scheme.Sign(DefaultDST, sks[0], msg, nil)
		require.NoError(t, err)
		assert.Equal(t, sig, again)
	})

	t.Run("different message", func(t *testing.T) {
		err := scheme.MultiSigVerify(DefaultDST, pks, []byte("world"), sig)
		require.ErrorIs(t, err, ErrInvalidSignature)
	})

	t.Run("different domain separation tag", func(t *testing.T) {
		err := scheme.MultiSigVerify(qc.PublicParams("another-tag"), pks, msg, sig)
		require.ErrorIs(t, err, ErrInvalidSignature)
	})

	t.Run("empty public params fall back to the default tag", func(t *testing.T) {
		require.NoError(t, scheme.MultiSigVerify(nil, pks, msg, sig))
	})
}

func TestAggregate(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	scheme := NewScheme()
	sks, pks := generateKeys(t, rng, 4)
	msg := []byte("aggregate me")

	sigs := make([]qc.Signature, 0, len(sks))
	for _, sk := range sks {
		sig, err := scheme.Sign(DefaultDST, sk, msg, rng)
		require.NoError(t, err)
		sigs = append(sigs, sig)
	}

	agg, err := scheme.Aggregate(DefaultDST, pks, sigs)
	require.NoError(t, err)
	require.NoError(t, scheme.MultiSigVerify(DefaultDST, pks, msg, agg))

	t.Run("missing key", func(t *testing.T) {
		err := scheme.MultiSigVerify(DefaultDST, pks[:3], msg, agg)
		require.ErrorIs(t, err, ErrInvalidSignature)
	})

	t.Run("missing signature", func(t *testing.T) {
		partial, err := scheme.Aggregate(DefaultDST, pks[:3], sigs[:3])
		require.NoError(t, err)
		err = scheme.MultiSigVerify(DefaultDST, pks, msg, partial)
		require.ErrorIs(t, err, ErrInvalidSignature)
	})

	t.Run("aggregation is order independent", func(t *testing.T) {
		reversed := []qc.Signature{sigs[3], sigs[2], sigs[1], sigs[0]}
		agg2, err := scheme.Aggregate(DefaultDST, pks, reversed)
		require.NoError(t, err)
		assert.Equal(t, agg, agg2)
	})

	t.Run("empty input", func(t *testing.T) {
		_, err := scheme.Aggregate(DefaultDST, nil, nil)
		require.ErrorIs(t, err, ErrInvalidSignature)
	})

	t.Run("malformed signature", func(t *testing.T) {
		bad := append([]qc.Signature{}, sigs...)
		bad[1] = make([]byte, SignatureLen-1)
		_, err := scheme.Aggregate(DefaultDST, pks, bad)
		require.ErrorIs(t, err, ErrInvalidSignature)
	})
}

func TestKeys(t *testing.T) {
	scheme := NewScheme()

	t.Run("secret key of wrong length", func(t *testing.T) {
		_, err := PublicKey([]byte{1, 2, 3})
		require.ErrorIs(t, err, ErrInvalidKey)
		_, err = scheme.Sign(DefaultDST, []byte{1, 2, 3}, []byte("msg"), nil)
		require.ErrorIs(t, err, ErrInvalidKey)
	})

	t.Run("zero secret key", func(t *testing.T) {
		_, err := PublicKey(make([]byte, PrivateKeyLen))
		require.ErrorIs(t, err, ErrInvalidKey)
	})

	t.Run("malformed public key", func(t *testing.T) {
		sig := make([]byte, SignatureLen)
		err := scheme.MultiSigVerify(DefaultDST, [][]byte{{0x01}}, []byte("msg"), sig)
		require.ErrorIs(t, err, ErrInvalidKey)
	})

	t.Run("no keys", func(t *testing.T) {
		err := scheme.MultiSigVerify(DefaultDST, nil, []byte("msg"), make([]byte, SignatureLen))
		require.ErrorIs(t, err, ErrInvalidKey)
	})

	t.Run("aggregated public key", func(t *testing.T) {
		rng := rand.New(rand.NewSource(1))
		_, pks := generateKeys(t, rng, 3)
		agg, err := AggregatePublicKeys(pks)
		require.NoError(t, err)
		assert.Len(t, agg, PublicKeyLen)
	})
}
