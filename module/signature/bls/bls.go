// Package bls implements the aggregate-signature scheme used for quorum certificates:
// BLS signatures over BLS12-381 with public keys in G1 and signatures in G2.
//
// Aggregation is the plain group sum. The scheme does not protect against rogue-key
// attacks: keys must be registered with a proof of possession before they enter a
// stake table.
package bls

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"math/big"

	bls12381 "github.com/consensys/gnark-crypto/ecc/bls12-381"
	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"

	"github.com/onflow/certstore/consensus/qc"
)

const (
	// PrivateKeyLen is the length of an encoded secret key.
	PrivateKeyLen = fr.Bytes
	// PublicKeyLen is the length of a compressed G1 public key.
	PublicKeyLen = bls12381.SizeOfG1AffineCompressed
	// SignatureLen is the length of a compressed G2 signature.
	SignatureLen = bls12381.SizeOfG2AffineCompressed
)

// DefaultDST is the hash-to-curve domain separation tag used when a scheme is
// constructed without explicit public parameters.
var DefaultDST = qc.PublicParams("BLS_SIG_BLS12381G2_XMD:SHA-256_SSWU_RO_NUL_")

var (
	ErrInvalidSignature = errors.New("invalid BLS signature")
	ErrInvalidKey       = errors.New("invalid BLS key")
)

var (
	g1Gen    bls12381.G1Affine
	g1GenNeg bls12381.G1Affine
)

func init() {
	_, _, g1Gen, _ = bls12381.Generators()
	g1GenNeg.Neg(&g1Gen)
}

// Scheme implements qc.AggregateScheme. It is stateless.
type Scheme struct{}

var _ qc.AggregateScheme = (*Scheme)(nil)

// NewScheme returns the BLS aggregate-signature scheme.
func NewScheme() *Scheme {
	return &Scheme{}
}

// GenerateKey draws a secret key uniformly from [1, r-1] using rng.
// If rng is nil, crypto/rand is used.
func GenerateKey(rng io.Reader) ([]byte, error) {
	if rng == nil {
		rng = rand.Reader
	}
	// k in [0, r-2], shifted to [1, r-1]
	bound := new(big.Int).Sub(fr.Modulus(), big.NewInt(1))
	k, err := rand.Int(rng, bound)
	if err != nil {
		return nil, fmt.Errorf("could not sample secret key: %w", err)
	}
	k.Add(k, big.NewInt(1))
	return k.FillBytes(make([]byte, PrivateKeyLen)), nil
}

// PublicKey returns the compressed public key sk·g1 of a secret key.
func PublicKey(sk []byte) ([]byte, error) {
	k, err := decodeSecretKey(sk)
	if err != nil {
		return nil, err
	}
	var pk bls12381.G1Affine
	pk.ScalarMultiplication(&g1Gen, k)
	b := pk.Bytes()
	return b[:], nil
}

// Sign returns sk·H(msg). BLS signatures are deterministic, rng is not used.
func (s *Scheme) Sign(pp qc.PublicParams, sk []byte, msg []byte, _ io.Reader) (qc.Signature, error) {
	k, err := decodeSecretKey(sk)
	if err != nil {
		return nil, err
	}
	h, err := bls12381.HashToG2(msg, dst(pp))
	if err != nil {
		return nil, fmt.Errorf("could not hash message to curve: %w", err)
	}
	var sig bls12381.G2Affine
	sig.ScalarMultiplication(&h, k)
	b := sig.Bytes()
	return b[:], nil
}

// Aggregate returns the sum of the given signatures. Every signature must be a valid
// non-identity point of the G2 subgroup. Keys are not used by plain BLS aggregation
// beyond the count check.
func (s *Scheme) Aggregate(_ qc.PublicParams, vks [][]byte, sigs []qc.Signature) (qc.Signature, error) {
	if len(sigs) == 0 {
		return nil, fmt.Errorf("cannot aggregate empty list of signatures: %w", ErrInvalidSignature)
	}
	if len(vks) != len(sigs) {
		return nil, fmt.Errorf("got %d signatures for %d keys: %w", len(sigs), len(vks), ErrInvalidSignature)
	}
	var agg bls12381.G2Jac
	for i, sig := range sigs {
		p, err := decodeSignature(sig)
		if err != nil {
			return nil, fmt.Errorf("signature %d: %w", i, err)
		}
		agg.AddMixed(&p)
	}
	var res bls12381.G2Affine
	res.FromJacobian(&agg)
	b := res.Bytes()
	return b[:], nil
}

// MultiSigVerify checks e(Σpk, H(msg)) == e(g1, sig).
// Returns ErrInvalidSignature if the signature does not verify and ErrInvalidKey
// if any of the keys cannot be decoded.
func (s *Scheme) MultiSigVerify(pp qc.PublicParams, vks [][]byte, msg []byte, sig qc.Signature) error {
	if len(vks) == 0 {
		return fmt.Errorf("no verification keys: %w", ErrInvalidKey)
	}
	aggPK, err := AggregatePublicKeys(vks)
	if err != nil {
		return err
	}
	var pk bls12381.G1Affine
	err = setG1(&pk, aggPK)
	if err != nil {
		return err
	}
	if pk.IsInfinity() {
		return fmt.Errorf("aggregated public key is the identity: %w", ErrInvalidKey)
	}
	s2, err := decodeSignature(sig)
	if err != nil {
		return err
	}
	h, err := bls12381.HashToG2(msg, dst(pp))
	if err != nil {
		return fmt.Errorf("could not hash message to curve: %w", err)
	}
	ok, err := bls12381.PairingCheck(
		[]bls12381.G1Affine{pk, g1GenNeg},
		[]bls12381.G2Affine{h, s2},
	)
	if err != nil {
		return fmt.Errorf("pairing check failed: %w", err)
	}
	if !ok {
		return ErrInvalidSignature
	}
	return nil
}

// AggregatePublicKeys returns the compressed sum of the given public keys.
func AggregatePublicKeys(vks [][]byte) ([]byte, error) {
	var agg bls12381.G1Jac
	for i, vk := range vks {
		var p bls12381.G1Affine
		err := setG1(&p, vk)
		if err != nil {
			return nil, fmt.Errorf("key %d: %w", i, err)
		}
		if p.IsInfinity() {
			return nil, fmt.Errorf("key %d is the identity: %w", i, ErrInvalidKey)
		}
		agg.AddMixed(&p)
	}
	var res bls12381.G1Affine
	res.FromJacobian(&agg)
	b := res.Bytes()
	return b[:], nil
}

func dst(pp qc.PublicParams) []byte {
	if len(pp) == 0 {
		return DefaultDST
	}
	return pp
}

func decodeSecretKey(sk []byte) (*big.Int, error) {
	if len(sk) != PrivateKeyLen {
		return nil, fmt.Errorf("secret key has %d bytes, expected %d: %w", len(sk), PrivateKeyLen, ErrInvalidKey)
	}
	k := new(big.Int).SetBytes(sk)
	if k.Sign() == 0 || k.Cmp(fr.Modulus()) >= 0 {
		return nil, fmt.Errorf("secret key out of range: %w", ErrInvalidKey)
	}
	return k, nil
}

func setG1(p *bls12381.G1Affine, b []byte) error {
	if len(b) != PublicKeyLen {
		return fmt.Errorf("public key has %d bytes, expected %d: %w", len(b), PublicKeyLen, ErrInvalidKey)
	}
	_, err := p.SetBytes(b)
	if err != nil {
		return fmt.Errorf("could not decode public key (%s): %w", err.Error(), ErrInvalidKey)
	}
	return nil
}

// decodeSignature decodes a compressed G2 point, including the subgroup check.
// The identity is rejected.
func decodeSignature(sig []byte) (bls12381.G2Affine, error) {
	var p bls12381.G2Affine
	if len(sig) != SignatureLen {
		return p, fmt.Errorf("signature has %d bytes, expected %d: %w", len(sig), SignatureLen, ErrInvalidSignature)
	}
	_, err := p.SetBytes(sig)
	if err != nil {
		return p, fmt.Errorf("could not decode signature (%s): %w", err.Error(), ErrInvalidSignature)
	}
	if p.IsInfinity() {
		return p, fmt.Errorf("signature is the identity: %w", ErrInvalidSignature)
	}
	return p, nil
}
