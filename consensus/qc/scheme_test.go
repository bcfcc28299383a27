package qc

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
)

var errXorMismatch = errors.New("xor signature mismatch")

// xorScheme is a linear toy aggregate-signature scheme for exercising stake and bitmap
// logic without pairing costs. The secret key equals the verification key.
type xorScheme struct {
	aggregateErr error
}

var _ AggregateScheme = (*xorScheme)(nil)

func (s *xorScheme) Sign(_ PublicParams, sk []byte, msg []byte, _ io.Reader) (Signature, error) {
	if len(sk) == 0 {
		return nil, fmt.Errorf("empty key")
	}
	h := sha256.Sum256(append(append([]byte{}, sk...), msg...))
	return h[:], nil
}

func (s *xorScheme) Aggregate(_ PublicParams, _ [][]byte, sigs []Signature) (Signature, error) {
	if s.aggregateErr != nil {
		return nil, s.aggregateErr
	}
	agg := make([]byte, sha256.Size)
	for _, sig := range sigs {
		for i := range agg {
			agg[i] ^= sig[i]
		}
	}
	return agg, nil
}

func (s *xorScheme) MultiSigVerify(pp PublicParams, vks [][]byte, msg []byte, sig Signature) error {
	sigs := make([]Signature, 0, len(vks))
	for _, vk := range vks {
		partial, err := s.Sign(pp, vk, msg, nil)
		if err != nil {
			return err
		}
		sigs = append(sigs, partial)
	}
	expected, err := s.Aggregate(pp, vks, sigs)
	if err != nil {
		return err
	}
	if string(expected) != string(sig) {
		return errXorMismatch
	}
	return nil
}
